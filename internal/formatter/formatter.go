// package formatter provides functions to export links to various formats (CSV, Markdown, plain text, SVG, tree)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/desertthunder/sortifyr/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatSVG      Format = "svg"
	FormatJSON     Format = "json"
)

// Formats lists every supported [Format] in the order they are offered on the command line.
var Formats = []Format{FormatCSV, FormatMarkdown, FormatText, FormatSVG, FormatJSON}

// ParseFormat resolves a format name, accepting "markdown" and "text" as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "svg":
		return FormatSVG, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

// ExportToCSV converts a LinkExport to CSV format with columns: ID, Source Kind, Source ID, Source, Target Kind, Target ID, Target
func ExportToCSV(export *models.LinkExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Source Kind", "Source ID", "Source", "Target Kind", "Target ID", "Target"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, link := range export.Links {
		record := []string{
			strconv.Itoa(link.ID),
			link.SourceKind(),
			strconv.Itoa(link.SourceID()),
			export.SourceName(link),
			link.TargetKind(),
			strconv.Itoa(link.TargetID()),
			export.TargetName(link),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a LinkExport to a Markdown document with a summary and a links table
func ExportToMarkdown(export *models.LinkExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Links\n\n")
	buf.WriteString(fmt.Sprintf("**Links**: %d\n", len(export.Links)))
	buf.WriteString(fmt.Sprintf("**Directories**: %d\n", countDirectories(export.Directories)))
	buf.WriteString(fmt.Sprintf("**Playlists**: %d\n\n", len(export.Playlists)))

	if len(export.Links) == 0 {
		buf.WriteString("_No links._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Source | Target |\n")
	buf.WriteString("|---|--------|--------|\n")
	for i, link := range export.Links {
		buf.WriteString(fmt.Sprintf("| %d | %s %s | %s %s |\n", i+1,
			link.SourceKind(), escapeCell(export.SourceName(link)),
			link.TargetKind(), escapeCell(export.TargetName(link))))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a LinkExport to plain text format
func ExportToText(export *models.LinkExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Links: %d\n\n", len(export.Links)))
	for i, link := range export.Links {
		buf.WriteString(fmt.Sprintf("%d. %s -> %s\n", i+1, export.SourceName(link), export.TargetName(link)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the whole LinkExport, catalog included.
func ExportToJSON(export *models.LinkExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// Export encodes export in the given format.
func Export(export *models.LinkExport, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	case FormatSVG:
		return ExportToSVG(export, DefaultDiagramOptions())
	case FormatJSON:
		return ExportToJSON(export)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
}

// WriteExport writes export to path in the given format and returns the path written.
//
// Defaults to links.{format} in the working directory. Parent directories are created as needed.
func WriteExport(export *models.LinkExport, format Format, path string) (string, error) {
	if path == "" {
		path = "links." + string(format)
	}

	data, err := Export(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}

func countDirectories(roots []models.Directory) int {
	n := 0
	models.Walk(roots, func(models.Directory, int) bool {
		n++
		return true
	})
	return n
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
