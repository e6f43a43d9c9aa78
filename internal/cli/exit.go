package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"etcherng/internal/exitcode"
	repoerrors "etcherng/internal/infrastructure/errors"
)

// ExitError carries the process exit status of a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(err error) error {
	return &ExitError{Code: exitcode.ValidationError, Err: err}
}

// validateArgs reports argument count mistakes as validation failures
func validateArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.Canceled) {
		return exitcode.Cancelled
	}
	if repoerrors.IsValidation(err) {
		return exitcode.ValidationError
	}
	return exitcode.GeneralError
}
