package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/JonMunkholm/intake/internal/core"
)

// Report logs a failed command with its support code and prints the user
// message to w when err maps to one. It returns the process exit code.
func Report(w io.Writer, err error) int {
	ue := core.NewUserError(err)
	if ue == nil {
		return 0
	}

	slog.Error("command failed", "error", ue.Technical, "code", ue.User.Code)
	if core.IsUserFacing(err) {
		fmt.Fprintln(w, core.FormatUserError(err))
	}
	return 1
}
