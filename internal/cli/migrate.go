package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/intake/internal/app"
)

func newMigrateCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables or indices the configured store needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(cmd.Context(), st.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store.Migrate(cmd.Context()); err != nil {
				return err
			}
			slog.Info("migration complete", "driver", st.cfg.Storage.Driver)
			return nil
		},
	}
}
