package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/camera-ready/internal/docx"
	"github.com/pdiddy/camera-ready/internal/figure"
	"github.com/pdiddy/camera-ready/internal/history"
	"github.com/pdiddy/camera-ready/internal/manuscript"
	"github.com/pdiddy/camera-ready/internal/style"
	"github.com/pdiddy/camera-ready/internal/template"
	"github.com/pdiddy/camera-ready/pkg/types"
)

var formatCmd = &cobra.Command{
	Use:   "format <document>",
	Short: "Format a manuscript into a camera-ready DOCX",
	Long: `Format runs the whole pipeline on one manuscript: parse the document,
detect its structure, normalize any figure images, render with the
selected publisher template, and save the result. The changes log is
printed when formatting succeeds.

Image failures do not abort the run; failed images are reported and
skipped, and the remaining figures keep stable numbering.`,
	Args: cobra.ExactArgs(1),
	RunE: runFormat,
}

func runFormat(cmd *cobra.Command, args []string) error {
	docPath := args[0]
	cfg := loadConfig()
	start := time.Now()

	settings := types.DefaultSettings()
	settings.Template = cfg.Render.DefaultTemplate
	settings.ImageWidthPct = cfg.Render.DefaultImageWidthPct
	if id, _ := cmd.Flags().GetString("template"); id != "" {
		settings.Template = id
	}
	if pct, _ := cmd.Flags().GetFloat64("width-pct"); pct > 0 {
		settings.ImageWidthPct = pct
	}
	if font, _ := cmd.Flags().GetString("font"); font != "" {
		settings.FontFamily = font
	}
	if plain, _ := cmd.Flags().GetBool("no-section-numbers"); plain {
		settings.SectionNumbers = false
	}

	registry, err := template.New()
	if err != nil {
		return err
	}
	if err := registry.Load(cfg.Storage.TemplatesDir); err != nil {
		return err
	}
	tpl, err := registry.Get(settings.Template)
	if err != nil {
		return err
	}

	paragraphs, err := docx.ExtractParagraphs(docPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", filepath.Base(docPath), err)
	}
	parsed := manuscript.Parse(paragraphs)

	imagePaths, _ := cmd.Flags().GetStringSlice("images")
	var images []*types.ProcessedImage
	var warnings []string
	if len(imagePaths) > 0 {
		// Normalized figures are embedded into the DOCX at render time,
		// so the intermediate files live in a throwaway directory.
		tmpDir, err := os.MkdirTemp("", "camera-ready-figures-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmpDir)

		fmt.Printf("Processing %d image(s):\n", len(imagePaths))
		results, summary := figure.Process(imagePaths, settings.ImageWidthCm(), tmpDir, os.Stdout)
		for _, res := range results {
			if res.OK() {
				images = append(images, res.Image)
			}
		}
		warnings = summary.Warnings
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		stem := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
		out = "formatted_" + stem + ".docx"
	}

	renderer := style.NewRenderer(tpl, settings)
	doc, err := renderer.Render(parsed, images)
	if err != nil {
		return err
	}
	if err := doc.SaveDocx(out); err != nil {
		return err
	}

	recordFormatRun(cfg.Storage.HistoryDB, history.Run{
		SessionID:  uuid.NewString()[:8],
		Title:      parsed.Title,
		Template:   tpl.ID,
		Sections:   len(parsed.Sections),
		Figures:    renderer.FigureCount(),
		References: len(parsed.References),
		Warnings:   warnings,
		Duration:   time.Since(start),
	})

	fmt.Printf("\nFormatted with %s:\n", tpl.Name)
	for _, change := range renderer.Changes() {
		fmt.Printf("  - %s\n", change)
	}
	for _, warning := range warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	fmt.Printf("\nSaved %s\n", out)
	return nil
}

// recordFormatRun logs the run so it shows up in `camera-ready history`.
// A broken history store never fails a format that already saved its output.
func recordFormatRun(dbPath string, run history.Run) {
	store, err := history.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: run not recorded: %v\n", err)
		return
	}
	defer store.Close()
	if err := store.Record(context.Background(), run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: run not recorded: %v\n", err)
	}
}

func init() {
	formatCmd.Flags().StringSlice("images", nil, "figure image files to embed, in figure order")
	formatCmd.Flags().String("template", "", "publisher template id (default from config)")
	formatCmd.Flags().Float64("width-pct", 0, "figure width as percent of the 14cm page width (default 80)")
	formatCmd.Flags().String("font", "", "override the template font family")
	formatCmd.Flags().Bool("no-section-numbers", false, "render headings without supplied numbers")
	formatCmd.Flags().StringP("output", "o", "", "output path (default formatted_<name>.docx)")

	rootCmd.AddCommand(formatCmd)
}
