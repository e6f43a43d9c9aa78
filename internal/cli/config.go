package cli

import (
	"fmt"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"etcherng/internal/config"
)

// openFile is swapped in tests
var openFile = browser.OpenFile

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage etcher-ng configuration",
		Long:  `Print the path of config.toml or open it with the default application.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the full path of the config file",
		Args:  validateArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), manager.ConfigFile())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open the config file with the default application",
		Args:  validateArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := openFile(manager.ConfigFile()); err != nil {
				return fmt.Errorf("failed to open %s: %w", manager.ConfigFile(), err)
			}
			return nil
		},
	})

	return cmd
}

// loadConfig makes sure config.toml exists so path and edit point at a real file
func loadConfig(cmd *cobra.Command) (*config.Manager, error) {
	env, err := NewEnv(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	_ = env.Close()
	return env.Manager, nil
}
