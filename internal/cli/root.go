// Package cli defines the intake command tree.
package cli

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/intake/internal/config"
	"github.com/JonMunkholm/intake/internal/logging"
)

// state is shared by every subcommand once PersistentPreRunE has run.
type state struct {
	envFiles []string
	cfg      *config.Config
}

// New builds the root command.
func New() *cobra.Command {
	st := &state{}

	rootCmd := &cobra.Command{
		Use:           "intake",
		Short:         "Employee record intake service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Overload lets .env win over the inherited environment
			if err := godotenv.Overload(st.envFiles...); err != nil {
				slog.Debug("no .env file loaded, using environment variables", "error", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			st.cfg = cfg

			slog.Debug("configuration loaded", "config", cfg.String())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&st.envFiles, "env-file", nil,
		"dotenv files to load before reading configuration (default .env)")

	rootCmd.AddCommand(newServeCmd(st))
	rootCmd.AddCommand(newMigrateCmd(st))
	rootCmd.AddCommand(newSubmitCmd(st))
	rootCmd.AddCommand(newLookupCmd(st))

	return rootCmd
}
