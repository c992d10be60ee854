package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fruitify/fruitbot/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "FruitBot %s\n", AppVersion)
	fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
	fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)

	cfg, err := config.Load()
	if err != nil {
		// Version output should work even with a broken or incomplete
		// configuration (e.g. missing API key).
		fmt.Fprintf(out, "\nConfiguration unavailable: %v\n", err)
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Provider: %s\n", cfg.Provider)
	fmt.Fprintf(out, "  Model: %s\n", cfg.FullModelName())
	fmt.Fprintf(out, "  Max steps: %d\n", cfg.MaxSteps)
	return nil
}
