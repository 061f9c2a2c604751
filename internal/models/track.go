package models

import "fmt"

// Track is a song as supplied by the music service. Consumers only read it.
type Track struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// String renders the track as "name - artist", the form used in prompts and on the image.
func (t Track) String() string {
	return fmt.Sprintf("%s - %s", t.Name, t.Artist)
}

// CritiqueResult is the outcome of one critique generation.
//
// IsFallback is true when Text is not model output (fallback sentinel or the no-tracks message).
type CritiqueResult struct {
	Text       string `json:"critique"`
	IsFallback bool   `json:"fallback"`
}
