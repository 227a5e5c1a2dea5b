// Package cli builds the nosleep command line.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stigoleg/nosleep/internal/config"
)

const description = "Keeps an idle-triggered screen lock from engaging by nudging the pointer just before the OS timeout."

// ExitError carries a process exit code out of a command.
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

// NewRootCmd returns the nosleep root command.
func NewRootCmd(version string) *cobra.Command {
	var flags *config.Flags

	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Hold off the idle screen lock",
		Long:          description,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.ShowVersion {
				printVersion(cmd.OutOrStdout(), version)
				return nil
			}
			return run(cmd.Context(), flags, version)
		},
	}

	flags = config.BindFlags(rootCmd.Flags())
	rootCmd.AddCommand(NewVersionCmd(version))
	return rootCmd
}

// NewVersionCmd creates the version command.
func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printVersion(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func printVersion(w io.Writer, version string) {
	_, _ = fmt.Fprintf(w, "%s version %s\n", config.AppName, version)
}
