// package formatter provides functions to export a roast to various formats (Markdown, plain text, JSON, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/personify/internal/models"
)

// Roast is a critique together with the tracks it was written about.
type Roast struct {
	Critique    models.CritiqueResult `json:"result"`
	Tracks      []models.Track        `json:"tracks"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// ExportToCSV converts the roast's tracks to CSV format with columns: Rank, Name, Artist
func ExportToCSV(roast *Roast) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Rank", "Name", "Artist"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range roast.Tracks {
		if err := writer.Write([]string{strconv.Itoa(i + 1), track.Name, track.Artist}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown writes the critique as-is (it already uses ** and *) with an optional image
func ExportToMarkdown(roast *Roast, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Personify AI\n\n")

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Roast](%s)\n\n", imageFilename))
	}

	buf.WriteString(roast.Critique.Text)
	buf.WriteString("\n")

	if roast.Critique.IsFallback {
		buf.WriteString("\n> The critique could not be generated.\n")
	}

	if !roast.GeneratedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("\n_Generated %s_\n", roast.GeneratedAt.UTC().Format(time.RFC1123)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a roast to plain text with markers stripped
func ExportToText(roast *Roast) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(stripMarkers(roast.Critique.Text))
	buf.WriteString("\n\n")

	buf.WriteString(fmt.Sprintf("Tracks: %d\n", len(roast.Tracks)))
	for i, track := range roast.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, track))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a roast to indented JSON
func ExportToJSON(roast *Roast) ([]byte, error) {
	data, err := json.MarshalIndent(roast, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal roast: %w", err)
	}
	return append(data, '\n'), nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Image     string
}

// WriteMarkdownExport exports a roast to Markdown in a dedicated directory.
//
// The png parameter is optional - if provided, it is saved next to the Markdown and linked.
// Creates a directory structure: {dir}/README.md, {dir}/roast.json and optionally {dir}/critique.png
func WriteMarkdownExport(roast *Roast, outputDir string, png []byte) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "roast"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var imageFilename string
	if len(png) > 0 {
		imageFilename = "critique.png"
		imagePath := filepath.Join(outputDir, imageFilename)
		if err := os.WriteFile(imagePath, png, 0644); err != nil {
			return nil, fmt.Errorf("failed to write image: %w", err)
		}
		result.Image = imagePath
		result.Files = append(result.Files, imagePath)
	}

	mdData, err := ExportToMarkdown(roast, imageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	jsonData, err := ExportToJSON(roast)
	if err != nil {
		return nil, err
	}

	jsonFile := filepath.Join(outputDir, "roast.json")
	if err := os.WriteFile(jsonFile, jsonData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write JSON file: %w", err)
	}
	result.Files = append(result.Files, jsonFile)

	return result, nil
}

// WriteTextExport exports a roast to plain text format.
//
// Defaults to critique.txt as the filename.
func WriteTextExport(roast *Roast, path string) (string, error) {
	if path == "" {
		path = "critique.txt"
	}

	textData, err := ExportToText(roast)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// ReadTracks loads a JSON array of {"name", "artist"} objects.
func ReadTracks(path string) ([]models.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracks file: %w", err)
	}

	var tracks []models.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("failed to parse tracks file %s: %w", path, err)
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	return tracks, nil
}

func stripMarkers(s string) string {
	return strings.ReplaceAll(s, "*", "")
}
