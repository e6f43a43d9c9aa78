package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"etcherng/internal/repository"
	"etcherng/internal/session"
	"etcherng/internal/settings"
)

// NewSettingsCmd creates the settings command
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change application settings",
		Long: `Read and change the settings the flasher window uses, without opening it.
Known settings: fullscreen, verify, autoBlockmapping, decompressFirst.`,
	}

	cmd.AddCommand(newSettingsListCmd())
	cmd.AddCommand(newSettingsGetCmd())
	cmd.AddCommand(newSettingsSetCmd())
	cmd.AddCommand(newSettingsResetWindowCmd())

	return cmd
}

// withSettings runs fn against the settings model of the user's store
func withSettings(cmd *cobra.Command, fn func(model *settings.Model) error) error {
	return withStore(cmd, func(repo repository.SettingsRepository, env *Env) error {
		return fn(settings.New(repo, env.Logger))
	})
}

// withStore opens the user's settings store for the duration of fn
func withStore(cmd *cobra.Command, fn func(repo repository.SettingsRepository, env *Env) error) error {
	env, err := NewEnv(cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		if closeErr := env.Close(); closeErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close settings store: %v\n", closeErr)
		}
	}()

	repo, err := env.OpenStore(cmd.Context())
	if err != nil {
		return err
	}
	return fn(repo, env)
}

func newSettingsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every setting with its current value",
		Args:  validateArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSettings(cmd, func(model *settings.Model) error {
				values, err := model.All(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tVALUE\tDEFAULT")
				for _, name := range settings.Names() {
					def, _ := settings.Default(name)
					fmt.Fprintf(w, "%s\t%t\t%t\n", name, values[name], def)
				}
				return w.Flush()
			})
		},
	}
}

func newSettingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print the value of a setting",
		Args:  validateArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(model *settings.Model) error {
				value, err := model.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <true|false>",
		Short: "Change a setting",
		Args:  validateArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseBool(args[1])
			if err != nil {
				return usageError(fmt.Errorf("invalid value %q for %s: expected true or false", args[1], args[0]))
			}
			return withSettings(cmd, func(model *settings.Model) error {
				return model.Set(cmd.Context(), args[0], value)
			})
		},
	}
}

func newSettingsResetWindowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-window",
		Short: "Forget the saved window position",
		Long:  `The next launch places the window where the OS chooses.`,
		Args:  validateArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(repo repository.SettingsRepository, env *Env) error {
				return session.NewStore(repo, env.Logger).Clear(cmd.Context())
			})
		},
	}
}
