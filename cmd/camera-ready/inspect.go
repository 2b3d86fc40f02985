package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/camera-ready/internal/docx"
	"github.com/pdiddy/camera-ready/internal/manuscript"
	"github.com/pdiddy/camera-ready/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <document>",
	Short: "Show the structure detected in a manuscript",
	Long: `Inspect parses a manuscript and reports what the detector found:
title, authors, abstract length, keywords, sections, references, and
the paragraphs that reference figures. Nothing is written; use this to
check detection before formatting.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	paragraphs, err := docx.ExtractParagraphs(args[0])
	if err != nil {
		return fmt.Errorf("loading %s: %w", filepath.Base(args[0]), err)
	}
	parsed := manuscript.Parse(paragraphs)
	points := manuscript.FindImageInsertionPoints(paragraphs)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*types.ParsedDocument
			InsertionPoints []types.InsertionPoint `json:"insertion_points"`
		}{parsed, points})
	}

	fmt.Printf("Title:      %s\n", orUnknown(parsed.Title))
	fmt.Printf("Authors:    %s\n", orUnknown(formatAuthors(parsed.Authors)))
	if parsed.Abstract.Text != "" {
		verdict := "within the 150-250 word range"
		if !parsed.Abstract.IsValid {
			verdict = "outside the 150-250 word range"
		}
		fmt.Printf("Abstract:   %d words, %s\n", parsed.Abstract.WordCount, verdict)
	} else {
		fmt.Println("Abstract:   not detected")
	}
	fmt.Printf("Keywords:   %s\n", orUnknown(strings.Join(parsed.Keywords, ", ")))
	fmt.Printf("References: %d entries\n", len(parsed.References))
	fmt.Printf("Length:     %d words, %d paragraphs, ~%.1f pages\n",
		parsed.Stats.WordCount, parsed.Stats.ParagraphCount, parsed.Stats.EstimatedPages)

	fmt.Printf("\nSections (%d):\n", len(parsed.Sections))
	for _, s := range parsed.Sections {
		fmt.Printf("  %-18s %s\n", s.Type, s.Title)
	}

	if len(points) > 0 {
		fmt.Printf("\nFigure references (%d):\n", len(points))
		for _, p := range points {
			fmt.Printf("  paragraph %-4d %-12q %s\n", p.Index, p.Keyword, p.Excerpt)
		}
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "(not detected)"
	}
	return s
}

func formatAuthors(authors []types.Author) string {
	parts := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.Email != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.Name, a.Email))
			continue
		}
		parts = append(parts, a.Name)
	}
	return strings.Join(parts, ", ")
}

func init() {
	inspectCmd.Flags().Bool("json", false, "output the parsed structure as JSON")

	rootCmd.AddCommand(inspectCmd)
}
