package critique

import (
	"strings"

	"github.com/desertthunder/personify/internal/models"
)

// TopTracksHeader is the literal header the model must place above its enumerated track list.
const TopTracksHeader = "**Your top 10 tracks:**"

// SystemPersona is sent as the system instruction with every prompt.
const SystemPersona = "You are a very sarcastic Gen-Z niche music critic who thinks everyone is beneath them and has a deep obsession with Myers-Briggs."

// BuildPrompt embeds every track as "name - artist", joined by ", ", into the critique instruction.
func BuildPrompt(tracks []models.Track) string {
	names := make([]string, 0, len(tracks))
	for _, t := range tracks {
		names = append(names, t.String())
	}

	var b strings.Builder
	b.WriteString("Guess my MBTI and critique my top tracks from Spotify, be very mean, make fun of me. ")
	b.WriteString("Here are the songs: ")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(". ")
	b.WriteString("Don't roast the tracks one by one. Use ** for bold and * for italic. ")
	b.WriteString("Limit your response to 200 words and list and enumerate the first 10 tracks (song name and artist) as '")
	b.WriteString(TopTracksHeader)
	b.WriteString("' after your description. ")
	b.WriteString("In bold, write a short but very niche degrading sentence about my music taste as the last sentence, on a separate line, ")
	b.WriteString("similar to this: 'Your music taste is music-to-stalk-boys-to-jazz-snob-nobody-puts-baby-in-a-corner bad' but don't copy it. ")
	b.WriteString("Don't mention pinterest and don't assume gender. ")
	b.WriteString("Do not use any symbol characters other than - and . in the last sentence.")
	return b.String()
}
