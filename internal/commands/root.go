// ABOUTME: Root cobra command and shared startup helpers
// ABOUTME: Binds global flags to viper and builds the logger from configuration
package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sendspin/sendspin-mixer/internal/config"
	"github.com/Sendspin/sendspin-mixer/internal/logger"
)

// defaultUILogFile keeps log lines off the screen while the TUI is up
const defaultUILogFile = "sendspin-mixer.log"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sendspin-mixer",
	Short: "Real-time audio mixer with priority-based channel scheduling",
	Long: `sendspin-mixer multiplexes sound effects, music and live streams onto a
fixed pool of playback sources. When every source is busy, quieter requests
give up their source to louder ones.

Remote microphones can stream into the mixer over a websocket endpoint that
is advertised on the local network with mDNS.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringP("backend", "b", "oto", "audio output backend (oto, malgo, beep, portaudio, null)")
	rootCmd.PersistentFlags().Int("sources", 32, "number of playback sources")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("log-file", "", "log file path (default stderr)")

	viper.BindPFlag("output.backend", rootCmd.PersistentFlags().Lookup("backend"))
	viper.BindPFlag("mixer.sources", rootCmd.PersistentFlags().Lookup("sources"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if verbose {
		viper.Set("logging.level", "debug")
	}
}

// loadConfig loads and validates configuration, then sets up logging
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("configuration validation failed: %w", err)
	}

	log, err := setupLogging(cfg)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}

func setupLogging(cfg *config.Config) (zerolog.Logger, error) {
	path := cfg.Logging.File
	if path == "" && cfg.UI.Enabled {
		path = defaultUILogFile
	}

	if path == "" {
		log, err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return log, fmt.Errorf("failed to setup logging: %w", err)
		}
		return log, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("failed to open log file: %w", err)
	}

	log, err := logger.SetupTo(f, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		f.Close()
		return log, fmt.Errorf("failed to setup logging: %w", err)
	}
	return log, nil
}
