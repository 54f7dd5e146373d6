package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sendspin/sendspin-mixer/internal/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version, git commit, and build date information for sendspin-mixer.",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s version %s\n", version.Product, version.Version)
		fmt.Fprintf(w, "Git commit: %s\n", version.GitCommit)
		fmt.Fprintf(w, "Built: %s\n", version.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
