package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrlokans/librarian/internal/cli"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is an operator subcommand run against the library database.
type command interface {
	ParseFlags(args []string) error
	Run(ctx context.Context) error
}

var commands = []struct {
	name  string
	usage string
	new   func(cfg *config.Config) command
}{
	{"create-librarian", "Create a librarian account", func(cfg *config.Config) command { return cli.NewCreateLibrarianCommand(cfg) }},
	{"loans", "List currently borrowed books", func(cfg *config.Config) command { return cli.NewLoansCommand(cfg) }},
}

func main() {
	cfg := config.NewConfig()

	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	switch name {
	case "version":
		fmt.Printf("librarian %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := runCommand(c.new(cfg), os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
	printUsage()
	os.Exit(1)
}

func runCommand(cmd command, args []string) error {
	if err := cmd.ParseFlags(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cmd.Run(ctx)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  %-18s %s\n", "serve", "Start the HTTP server (default if no command given)")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(os.Stderr, "  %-18s %s\n", "version", "Print version information")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
