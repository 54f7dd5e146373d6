// ABOUTME: serve command running the mixer as a long-lived service
// ABOUTME: Optionally exposes the net-mic endpoint and the terminal status view
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sendspin/sendspin-mixer/internal/app"
	"github.com/Sendspin/sendspin-mixer/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mixer until interrupted",
	Long: `Run the mixer against the configured output backend until SIGINT or SIGTERM.

With --netmic, remote microphones may connect to ws://<host>:<port>/mic and
are mixed in as live streams.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("netmic", false, "enable the net-mic websocket endpoint")
	serveCmd.Flags().IntP("port", "p", 8928, "net-mic endpoint port")
	serveCmd.Flags().String("name", "", "name advertised over mDNS (default: hostname-mixer)")
	serveCmd.Flags().Bool("mdns", true, "advertise the net-mic endpoint over mDNS")
	serveCmd.Flags().Bool("tui", false, "show the terminal status view")

	viper.BindPFlag("netmic.enabled", serveCmd.Flags().Lookup("netmic"))
	viper.BindPFlag("netmic.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("netmic.mdns", serveCmd.Flags().Lookup("mdns"))
	viper.BindPFlag("ui.enabled", serveCmd.Flags().Lookup("tui"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// an empty --name must not shadow the hostname default
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		viper.Set("netmic.name", name)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []app.Option
	var prog *tea.Program
	if cfg.UI.Enabled {
		controls := ui.NewControls()
		prog = ui.Run(cfg.NetMic.Name, controls)
		opts = append(opts,
			app.WithControls(controls),
			app.WithStatus(func(msg ui.StatusMsg) { prog.Send(msg) }, 0),
		)
	}

	a, err := app.New(cfg, log, opts...)
	if err != nil {
		return err
	}

	if prog != nil {
		go func() {
			if _, err := prog.Run(); err != nil {
				log.Error().Err(err).Msg("TUI failed")
			}
			stop()
		}()
		defer prog.Quit()
	}

	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("mixer failed: %w", err)
	}
	return nil
}
