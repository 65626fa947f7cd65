// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind claimlink-signer:
// a tree of commands with pflag flag sets, generated help, and typo
// suggestions for unknown commands and flags.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the command tree. A node either groups
// Subcommands or does work in Run; a node with both runs Run only when
// no subcommand word is given.
type Command struct {
	Name string

	// Summary is the one-line text shown in the parent's command list.
	Summary string

	// Description heads the command's own help. Summary is used when
	// it is empty.
	Description string

	// Usage replaces the generated usage line.
	Usage string

	Examples []Example

	// Flags returns a new flag set for each parse. Variables it binds
	// must be fresh or reset by the caller.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run gets the positional arguments that remain after flags.
	Run func(args []string) error

	// Output receives help text. Unset nodes inherit it from their
	// parent; the root falls back to os.Stderr.
	Output io.Writer

	parent *Command
}

// Example is one annotated invocation in the help output.
type Example struct {
	Description string
	Command     string
}

// errNoSubcommand is returned when a group node is invoked without one
// of its subcommands.
var errNoSubcommand = errors.New("subcommand required")

// usageError is a command-line mistake. Its message ends with a pointer
// to the help of the command that rejected the input.
type usageError struct {
	message string
	command string
}

func (e *usageError) Error() string {
	return fmt.Sprintf("%s\n\nRun '%s --help' for usage.", e.message, e.command)
}

// Execute resolves args against the tree and runs the selected command.
func (c *Command) Execute(args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(c.output())
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub := c.find(args[0])
		if sub == nil {
			return c.unknownCommand(args[0])
		}
		sub.parent = c
		return sub.Execute(args[1:])
	}

	if c.Run == nil {
		c.PrintHelp(c.output())
		switch {
		case len(c.Subcommands) == 0:
			return fmt.Errorf("no action defined for %q", c.fullName())
		case len(args) == 0:
			return errNoSubcommand
		default:
			return fmt.Errorf("%w (got flag %q)", errNoSubcommand, args[0])
		}
	}

	positional, err := c.parse(args)
	if err != nil {
		return err
	}
	return c.Run(positional)
}

func (c *Command) find(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

func (c *Command) unknownCommand(name string) error {
	message := fmt.Sprintf("unknown command %q", name)
	if suggestion := suggestCommand(name, c.Subcommands); suggestion != "" {
		message += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return &usageError{message: message, command: c.fullName()}
}

// parse applies the command's flags to args and returns what is left.
func (c *Command) parse(args []string) ([]string, error) {
	if c.Flags == nil {
		return args, nil
	}
	flagSet := c.Flags()
	flagSet.SetOutput(io.Discard)
	err := flagSet.Parse(args)
	if err == nil {
		return flagSet.Args(), nil
	}

	message := err.Error()
	if strings.Contains(message, "unknown flag") || strings.Contains(message, "unknown shorthand") {
		if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
			message += " (did you mean " + suggestion + "?)"
		}
	}
	return nil, &usageError{message: message, command: c.fullName()}
}

// PrintHelp writes the command's help to w.
func (c *Command) PrintHelp(w io.Writer) {
	var help strings.Builder
	name := c.fullName()

	if heading := c.Description; heading != "" || c.Summary != "" {
		if heading == "" {
			heading = c.Summary
		}
		help.WriteString(heading + "\n\n")
	}

	usage := c.Usage
	if usage == "" {
		usage = name + " [flags]"
		if len(c.Subcommands) > 0 {
			usage = name + " <command> [flags]"
		}
	}
	help.WriteString("Usage:\n  " + usage + "\n")

	if len(c.Subcommands) > 0 {
		help.WriteString("\nCommands:\n")
		table := tabwriter.NewWriter(&help, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if c.Flags != nil {
		if flags := c.Flags().FlagUsages(); flags != "" {
			help.WriteString("\nFlags:\n" + flags)
		}
	}

	if len(c.Examples) > 0 {
		help.WriteString("\nExamples:\n")
		for index, example := range c.Examples {
			if index > 0 {
				help.WriteString("\n")
			}
			if example.Description != "" {
				help.WriteString("  # " + example.Description + "\n")
			}
			help.WriteString("  " + example.Command + "\n")
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(&help, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
	io.WriteString(w, help.String())
}

// output walks up to the nearest node with an Output set.
func (c *Command) output() io.Writer {
	for command := c; command != nil; command = command.parent {
		if command.Output != nil {
			return command.Output
		}
	}
	return os.Stderr
}

// fullName is the space-separated path from the root, such as
// "claimlink-signer keygen".
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	}
	return false
}
