// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the camera-ready CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/camera-ready/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the camera-ready CLI.
var rootCmd = &cobra.Command{
	Use:   "camera-ready",
	Short: "Format manuscripts into publisher camera-ready layout",
	Long: `camera-ready turns a manuscript (.docx or .txt) into a camera-ready
document: it detects the paper's structure (title, authors, abstract,
keywords, sections, references), normalizes figure images for print,
and renders everything with a publisher template.

Run "format" for one-shot conversion, "serve" for the HTTP service, or
"inspect" to see what the detector finds without writing anything.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err == nil {
			fmt.Fprintln(os.Stderr, "Loaded environment from .env")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./camera-ready.yaml or ~/.config/camera-ready/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("camera-ready")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "camera-ready"))
		}
	}

	viper.SetEnvPrefix("CAMERA_READY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults seeds viper with the built-in configuration so partial
// config files and env overrides compose with the defaults.
func setDefaults() {
	d := types.DefaultConfig()
	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	viper.SetDefault("server.session_ttl", d.Server.SessionTTL)
	viper.SetDefault("server.cleanup_schedule", d.Server.CleanupSchedule)
	viper.SetDefault("storage.work_dir", d.Storage.WorkDir)
	viper.SetDefault("storage.history_db", d.Storage.HistoryDB)
	viper.SetDefault("storage.templates_dir", d.Storage.TemplatesDir)
	viper.SetDefault("render.default_template", d.Render.DefaultTemplate)
	viper.SetDefault("render.default_image_width_pct", d.Render.DefaultImageWidthPct)
	viper.SetDefault("convert.timeout", d.Convert.Timeout)
	viper.SetDefault("convert.user_agent", d.Convert.UserAgent)
	viper.SetDefault("convert.converter", d.Convert.Converter)
	viper.SetDefault("convert.remote_url", d.Convert.RemoteURL)
	viper.SetDefault("convert.command_timeout", d.Convert.CommandTimeout)
}

// loadConfig materializes the effective configuration from viper.
func loadConfig() types.Config {
	return types.Config{
		Server: types.ServerConfig{
			Addr:            viper.GetString("server.addr"),
			MaxUploadMB:     viper.GetInt64("server.max_upload_mb"),
			SessionTTL:      viper.GetDuration("server.session_ttl"),
			CleanupSchedule: viper.GetString("server.cleanup_schedule"),
		},
		Storage: types.StorageConfig{
			WorkDir:      viper.GetString("storage.work_dir"),
			HistoryDB:    viper.GetString("storage.history_db"),
			TemplatesDir: viper.GetString("storage.templates_dir"),
		},
		Render: types.RenderConfig{
			DefaultTemplate:      viper.GetString("render.default_template"),
			DefaultImageWidthPct: viper.GetFloat64("render.default_image_width_pct"),
		},
		Convert: types.ConvertConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("convert.timeout"),
				UserAgent: viper.GetString("convert.user_agent"),
			},
			Converter:      viper.GetString("convert.converter"),
			RemoteURL:      viper.GetString("convert.remote_url"),
			CommandTimeout: viper.GetDuration("convert.command_timeout"),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
