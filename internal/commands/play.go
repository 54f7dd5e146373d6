// ABOUTME: play command mixing files through the scheduler
// ABOUTME: Plays the first file as music and layers the rest as sound effects
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sendspin/sendspin-mixer/internal/app"
)

var playInterval time.Duration

var playCmd = &cobra.Command{
	Use:   "play MUSIC [SOUND...]",
	Short: "Play a music file with sound effects layered on top",
	Long: `Play MUSIC through the mixer and trigger each SOUND in turn, --interval apart.
Supported formats: mp3, flac, ogg, wav and raw 48kHz stereo 16-bit pcm.
Every file must match the configured device format.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := app.New(cfg, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Play(ctx, args, playInterval)
	},
}

func init() {
	playCmd.Flags().DurationVarP(&playInterval, "interval", "i", 500*time.Millisecond, "delay between sound effects")
	rootCmd.AddCommand(playCmd)
}
