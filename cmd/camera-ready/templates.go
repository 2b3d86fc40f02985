// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/camera-ready/internal/template"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage publisher templates (list, show, add, remove)",
	Long: `Templates manages the registry of publisher layouts. Built-in
templates ship with the binary; custom templates are YAML files stored
in the templates directory and can be added or removed here.`,
}

// --- list subcommand ---

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available templates",
	RunE:  runTemplatesList,
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	registry, err := openRegistry()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%-16s  %-26s  %-6s  %s\n", "ID", "Name", "Page", "Description")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, t := range registry.List() {
		name := t.Name
		if t.Custom {
			name += " (custom)"
		}
		fmt.Fprintf(os.Stdout, "%-16s  %-26s  %-6s  %s\n", t.ID, name, t.PageSize, t.Description)
	}
	return nil
}

// --- show subcommand ---

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one template's full definition as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesShow,
}

func runTemplatesShow(cmd *cobra.Command, args []string) error {
	registry, err := openRegistry()
	if err != nil {
		return err
	}
	tpl, err := registry.Get(args[0])
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(tpl)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// --- add subcommand ---

var templatesAddCmd = &cobra.Command{
	Use:   "add <file.yaml>",
	Short: "Register a custom template from a YAML definition",
	Long: `Add validates a template definition and stores it in the templates
directory. The template id defaults to the file name stem; built-in
ids cannot be taken.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplatesAdd,
}

func runTemplatesAdd(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	id, _ := cmd.Flags().GetString("id")
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}

	registry, err := openRegistry()
	if err != nil {
		return err
	}
	tpl, err := registry.SaveCustom(id, data)
	if err != nil {
		return err
	}

	fmt.Printf("Added template %s (%s)\n", tpl.ID, tpl.Name)
	return nil
}

// --- remove subcommand ---

var templatesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a custom template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesRemove,
}

func runTemplatesRemove(cmd *cobra.Command, args []string) error {
	registry, err := openRegistry()
	if err != nil {
		return err
	}
	if err := registry.Remove(args[0]); err != nil {
		return err
	}

	fmt.Printf("Removed template %s\n", args[0])
	return nil
}

// --- shared helpers ---

// openRegistry loads built-ins plus the custom templates directory from
// the effective configuration.
func openRegistry() (*template.Registry, error) {
	registry, err := template.New()
	if err != nil {
		return nil, err
	}
	if err := registry.Load(loadConfig().Storage.TemplatesDir); err != nil {
		return nil, err
	}
	return registry, nil
}

func init() {
	templatesAddCmd.Flags().String("id", "", "template id (default: file name stem)")

	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesAddCmd)
	templatesCmd.AddCommand(templatesRemoveCmd)

	rootCmd.AddCommand(templatesCmd)
}
