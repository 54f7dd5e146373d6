// ABOUTME: mic command streaming a file into a running mixer
// ABOUTME: Finds the mixer over mDNS unless an address is given
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sendspin/sendspin-mixer/internal/discovery"
	"github.com/Sendspin/sendspin-mixer/internal/logger"
	"github.com/Sendspin/sendspin-mixer/internal/netmic"
	"github.com/Sendspin/sendspin-mixer/pkg/audio/decode"
	"github.com/Sendspin/sendspin-mixer/pkg/audio/encode"
)

var (
	micServer string
	micCodec  string
	micName   string
)

var micCmd = &cobra.Command{
	Use:   "mic FILE",
	Short: "Stream a file into a mixer as a network microphone",
	Long: `Decode FILE and stream it in real time to a mixer's net-mic endpoint.
Without --server the first mixer found over mDNS is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runMic,
}

func init() {
	micCmd.Flags().StringVarP(&micServer, "server", "s", "", "endpoint URL, e.g. ws://host:8928/mic")
	micCmd.Flags().StringVar(&micCodec, "codec", "opus", "wire codec (pcm, opus)")
	micCmd.Flags().StringVar(&micName, "name", "", "session name shown by the mixer")
	rootCmd.AddCommand(micCmd)
}

func runMic(cmd *cobra.Command, args []string) error {
	level := "info"
	if verbose {
		level = "debug"
	}
	log, err := logger.Setup(level, "console")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := decode.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	url := micServer
	if url == "" {
		found, err := discovery.Browse(ctx, 3*time.Second)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return errors.New("no mixer found on the network, use --server")
		}
		url = found[0].URL()
		log.Info().Str("mixer", found[0].Name).Str("url", url).Msg("using discovered mixer")
	}

	enc, err := encode.New(micCodec, src.Format())
	if err != nil {
		return err
	}
	defer enc.Close()

	client, err := netmic.Dial(ctx, netmic.ClientConfig{
		URL:      url,
		Name:     micName,
		Format:   src.Format(),
		Realtime: true,
	}, enc, logger.WithComponent(log, "netmic"))
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Stream(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("streaming failed: %w", err)
	}
	return nil
}
