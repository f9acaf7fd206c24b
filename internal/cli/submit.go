package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/intake/internal/api"
	"github.com/JonMunkholm/intake/internal/app"
	"github.com/JonMunkholm/intake/internal/core"
)

func newSubmitCmd(st *state) *cobra.Command {
	var sub core.Submission

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit one employee record",
		Example: `  intake submit --employee-id 1 --name "Ada Lovelace" --email ada@example.com \
    --phone 5551234567 --department Engineering --date-of-joining 2024-01-02 --role Engineer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(cmd.Context(), st.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Service.Submit(cmd.Context(), sub)
			if err := printJSON(cmd.OutOrStdout(), api.NewSubmitResponse(res)); err != nil {
				return err
			}
			if !res.Accepted() {
				if res.Err != nil {
					return fmt.Errorf("%s: %w", res.Message, res.Err)
				}
				return fmt.Errorf("%s", res.Message)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&sub.EmployeeID, "employee-id", "", "positive integer employee id")
	f.StringVar(&sub.Name, "name", "", "full name (letters and spaces)")
	f.StringVar(&sub.Email, "email", "", "email address")
	f.StringVar(&sub.Phone, "phone", "", "10-digit phone number")
	f.StringVar(&sub.Department, "department", "", "HR, Engineering or Marketing")
	f.StringVar(&sub.DateOfJoining, "date-of-joining", "", "YYYY-MM-DD, not in the future")
	f.StringVar(&sub.Role, "role", "", "job title")
	return cmd
}

func newLookupCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <employee-id>",
		Short: "Print one stored employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(cmd.Context(), st.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.Service.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.NewEmployeeResponse(rec))
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
