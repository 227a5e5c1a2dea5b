package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stigoleg/nosleep/internal/cli"
)

// gen-docs writes shell completions and a man page for the nosleep command.
// Completions come from cobra; the man page is a small roff rendering of the
// root command's flag set.

func main() {
	root := cli.NewRootCmd("docs")
	if err := writeCompletions(root); err != nil {
		fail(err)
	}
	if err := writeMan(root); err != nil {
		fail(err)
	}
}

func fail(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "gen-docs: %v\n", err)
	os.Exit(1)
}

func writeCompletions(root *cobra.Command) error {
	base := filepath.Join("docs", "completions")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return err
	}
	name := root.Name()

	if err := root.GenBashCompletionFileV2(filepath.Join(base, name+".bash"), true); err != nil {
		return err
	}
	if err := root.GenZshCompletionFile(filepath.Join(base, "_"+name)); err != nil {
		return err
	}
	if err := root.GenFishCompletionFile(filepath.Join(base, name+".fish"), true); err != nil {
		return err
	}
	return root.GenPowerShellCompletionFileWithDesc(filepath.Join(base, name+".ps1"))
}

func writeMan(root *cobra.Command) error {
	if err := os.MkdirAll("man", 0o755); err != nil {
		return err
	}
	name := root.Name()

	var b strings.Builder
	b.WriteString(".TH \"" + strings.ToUpper(name) + "\" \"1\" \"\" \"nosleep\" \"User Commands\"\n")
	b.WriteString(".SH NAME\n" + name + " \\- " + root.Short + "\n")
	b.WriteString(".SH SYNOPSIS\n.B " + name + "\n[\\fIflags\\fR]\n")
	b.WriteString(".SH DESCRIPTION\n" + root.Long + "\n")
	b.WriteString(".SH OPTIONS\n")
	root.Flags().VisitAll(func(f *pflag.Flag) {
		b.WriteString(".TP\n\\fB" + manFlag(f) + "\\fR\n" + f.Usage + "\n")
	})
	b.WriteString(".SH COMMANDS\n")
	for _, sub := range root.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		b.WriteString(".TP\n\\fB" + sub.Name() + "\\fR\n" + sub.Short + "\n")
	}
	b.WriteString(".SH EXAMPLES\n")
	b.WriteString(".TP\n\\fB" + name + "\\fR\nRun from the system tray.\n")
	b.WriteString(".TP\n\\fB" + name + " --mode tui -d 2h30m\\fR\nHold off the lock for 2 hours 30 minutes from the terminal UI.\n")
	b.WriteString(".TP\n\\fB" + name + " --mode headless -c 17:00\\fR\nRun without UI until five o'clock.\n")
	b.WriteString(".SH FILES\n.TP\n" + "config.toml\nSettings in the per-user config directory (TOML or YAML).\n")
	return os.WriteFile(filepath.Join("man", name+".1"), []byte(b.String()), 0o644)
}

func manFlag(f *pflag.Flag) string {
	var names string
	if f.Shorthand != "" {
		names = "\\-" + f.Shorthand + ", "
	}
	names += "\\-\\-" + f.Name
	if f.Value.Type() != "bool" {
		names += " <" + f.Value.Type() + ">"
	}
	return names
}
