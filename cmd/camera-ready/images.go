package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/camera-ready/internal/figure"
)

var imagesCmd = &cobra.Command{
	Use:   "images <paths...>",
	Short: "Normalize or validate figure images for print",
	Long: `Images prepares figure files for a camera-ready document: each image
is downscaled when it exceeds the target physical width (never
upscaled) and re-encoded as PNG tagged at 300 DPI. Sources below 300
DPI are processed with a warning.

With --validate-only the files are checked and reported without
writing anything.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImages,
}

func runImages(cmd *cobra.Command, args []string) error {
	if validateOnly, _ := cmd.Flags().GetBool("validate-only"); validateOnly {
		return validateImages(args)
	}

	widthCm, _ := cmd.Flags().GetFloat64("width-cm")
	outDir, _ := cmd.Flags().GetString("out-dir")

	_, summary := figure.Process(args, widthCm, outDir, os.Stdout)
	for _, warning := range summary.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}

	fmt.Printf("\n%d processed, %d failed\n", summary.Processed, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d image(s) failed processing", summary.Failed)
	}
	return nil
}

func validateImages(paths []string) error {
	failed := 0
	for _, path := range paths {
		v := figure.Validate(path)
		if v.Valid {
			fmt.Printf("  ok:       %s\n", path)
			continue
		}
		failed++
		fmt.Printf("  invalid:  %s\n", path)
		for _, issue := range v.Issues {
			fmt.Printf("            - %s\n", issue)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d image(s) failed validation", failed)
	}
	return nil
}

func init() {
	imagesCmd.Flags().Float64("width-cm", 0, "target physical width in centimeters (0 = default 12)")
	imagesCmd.Flags().String("out-dir", "processed", "directory for normalized images")
	imagesCmd.Flags().Bool("validate-only", false, "check images without writing output")

	rootCmd.AddCommand(imagesCmd)
}
