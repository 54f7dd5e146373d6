// ABOUTME: discover command listing mixers advertised on the local network
// ABOUTME: Prints the net-mic websocket address of every responder
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sendspin/sendspin-mixer/internal/discovery"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List mixers advertising a net-mic endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), discoverTimeout+time.Second)
		defer cancel()

		found, err := discovery.Browse(ctx, discoverTimeout)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(found) == 0 {
			fmt.Fprintln(w, "No mixers found")
			return nil
		}
		for _, ep := range found {
			fmt.Fprintf(w, "%-24s %s\n", ep.Name, ep.URL())
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().DurationVarP(&discoverTimeout, "timeout", "t", 3*time.Second, "how long to wait for responses")
	rootCmd.AddCommand(discoverCmd)
}
