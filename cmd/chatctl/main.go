// chatctl talks to a running chatd and administers its store.
//
// Online commands (token, send, history, summary) go through gRPC.
// Offline commands (seed-user, seed-conversation, rotate-key, retire-key, inspect)
// open the BadgerDB files directly and need chatd to be stopped.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type command struct {
	usage string
	run   func(ctx context.Context, cli *CLI, args []string) error
}

var commands = map[string]command{
	"token":             {usage: "-as USER [-roles a,b]", run: runToken},
	"send":              {usage: "-as USER -conv ID -text TEXT", run: runSend},
	"history":           {usage: "-as USER -conv ID", run: runHistory},
	"summary":           {usage: "-as USER -conv ID", run: runSummary},
	"seed-user":         {usage: "-id ID [-name NAME] [-username U] [-role R] [-department D] [-email E]", run: runSeedUser},
	"seed-conversation": {usage: "-id ID -kind direct|group -participants a,b [-removed c]", run: runSeedConversation},
	"rotate-key":        {usage: "-conv ID", run: runRotateKey},
	"retire-key":        {usage: "-conv ID -version N", run: runRetireKey},
	"inspect":           {usage: "[-prefix msg:]", run: runInspect},
}

// CLI carries what every command needs.
type CLI struct {
	Config Config
	out    *os.File
}

func (c *CLI) success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if c.Config.Colours {
		msg = color.New(color.FgGreen).Render(msg)
	}
	fmt.Fprintln(c.out, msg)
}

func (c *CLI) header(text string) string {
	if c.Config.Colours {
		return color.New(color.BgBlack, color.FgGreen).Render(text)
	}
	return text
}

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		msg := fmt.Sprintf("chatctl: %v", err)
		if color.SupportColor() {
			msg = color.New(color.FgRed).Render(msg)
		}
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	_ = godotenv.Load()
	config, err := LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if len(args) == 0 {
		printUsage()
		return exitConfig, nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage()
		return exitConfig, fmt.Errorf("unknown command %q", args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	cli := &CLI{Config: config, out: os.Stdout}
	if err := cmd.run(ctx, cli, args[1:]); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

func printUsage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stderr, "usage: chatctl COMMAND [flags]")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", name, commands[name].usage)
	}
}
