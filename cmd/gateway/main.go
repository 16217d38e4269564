// Command gateway runs the marketplace storefront gateway: the edge gate,
// per-role route guards, same-origin session endpoints and the backend proxy.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gateway",
		Short: "Storefront gateway for the marketplace front end",
		Long: `The storefront gateway serves the marketplace front end and guards its
role areas (buyers, shops, instructors, service providers, admins).
Configuration is read from the environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		rolesCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gateway %s (%s)\n", version, commit)
		},
	}
}
