// Command flightcrawl is the CLI surface: crawl, validate-configs,
// and probe, wired over the same engine core any embedding caller would
// use directly.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "flightcrawl",
		Usage: "multi-site flight-data acquisition engine",
		Commands: []*cli.Command{
			crawlCommand,
			validateConfigsCommand,
			probeCommand,
		},
	}

	err := app.RunContext(ctx, os.Args)
	if err == nil {
		return
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(exitErr.ExitCode())
	}

	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitConfigError)
}

// Exit codes:
const (
	exitSuccess       = 0
	exitConfigError   = 2
	exitPartialFailed = 3
	exitAllFailed     = 4
	exitCancelled     = 130
)
