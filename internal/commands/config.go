// ABOUTME: config command group for inspecting configuration
// ABOUTME: Shows effective settings and validates them
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sendspin/sendspin-mixer/internal/config"
	"github.com/Sendspin/sendspin-mixer/internal/logger"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  "Commands for inspecting and validating sendspin-mixer configuration.",
}

// configValidateCmd validates the current configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the current configuration file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.Setup("info", "console")
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			log.Error().Err(err).Msg("Configuration validation failed")
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
		return nil
	},
}

// configShowCmd shows the current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective configuration from defaults, file, .env and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := logger.Setup("info", "console"); err != nil {
			return err
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

func printConfig(w io.Writer, cfg *config.Config) {
	mc := cfg.MixerConfig()

	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintf(w, "  Mixer:\n")
	fmt.Fprintf(w, "    Sources: %d x %d buffers\n", cfg.Mixer.Sources, cfg.Mixer.BuffersPerSource)
	fmt.Fprintf(w, "    Chunk: %dms (%d bytes)\n", cfg.Mixer.ChunkMs, mc.ChunkBytes)
	fmt.Fprintf(w, "    Tick: %s\n", cfg.Mixer.TickInterval)
	fmt.Fprintf(w, "    Volumes: sounds %.2f, music %.2f\n", cfg.Mixer.DefaultVolume, cfg.Mixer.MusicVolume)
	fmt.Fprintf(w, "  Audio:\n")
	fmt.Fprintf(w, "    Format: %s\n", cfg.Format())
	fmt.Fprintf(w, "  Output:\n")
	fmt.Fprintf(w, "    Backend: %s\n", cfg.Output.Backend)
	fmt.Fprintf(w, "  Net-mic:\n")
	fmt.Fprintf(w, "    Enabled: %t\n", cfg.NetMic.Enabled)
	fmt.Fprintf(w, "    Port: %d\n", cfg.NetMic.Port)
	fmt.Fprintf(w, "    Name: %s\n", cfg.NetMic.Name)
	fmt.Fprintf(w, "    mDNS: %t\n", cfg.NetMic.MDNS)
	fmt.Fprintf(w, "  Logging:\n")
	fmt.Fprintf(w, "    Level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "    Format: %s\n", cfg.Logging.Format)
	if cfg.Logging.File != "" {
		fmt.Fprintf(w, "    File: %s\n", cfg.Logging.File)
	}
	fmt.Fprintf(w, "  UI:\n")
	fmt.Fprintf(w, "    Enabled: %t\n", cfg.UI.Enabled)
}
