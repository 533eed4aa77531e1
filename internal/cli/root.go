package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	defaultAPIURL = "http://localhost:9000"
	envAPIURL     = "RAPIDFIT_API_URL"
	envDataDir    = "RAPIDFIT_DATA_DIR"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rapidfit",
		Short:         "RapidFit command line client",
		Long:          "Track exercises and rapid tree progress locally, synced with the RapidFit API when logged in.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("api-url", "", "RapidFit API base URL (overrides "+envAPIURL+" env var)")
	rootCmd.PersistentFlags().String("data-dir", "", "Local cache directory (overrides "+envDataDir+" env var)")

	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newTreeCmd())
	rootCmd.AddCommand(newLogCmd())

	return rootCmd
}

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// resolveAPIURL returns the --api-url flag, then the env var, then the local default.
func resolveAPIURL(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		return u
	}
	if u := os.Getenv(envAPIURL); u != "" {
		return u
	}
	return defaultAPIURL
}

// resolveDataDir returns the --data-dir flag, then the env var, then ~/.rapidfit.
func resolveDataDir(cmd *cobra.Command) (string, error) {
	if d, _ := cmd.Flags().GetString("data-dir"); d != "" {
		return d, nil
	}
	if d := os.Getenv(envDataDir); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rapidfit"), nil
}
