package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/communitykit/activitysync/internal/bootstrap"
	"github.com/communitykit/activitysync/internal/config"
	"github.com/communitykit/activitysync/internal/version"

	"github.com/rs/zerolog/log"
)

func main() {
	// Define flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		version.Fprint(os.Stdout)
		os.Exit(0)
	}

	// Check if command is provided
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Handle subcommands
	switch args[0] {
	case "server":
		runServer()
	case "sync":
		runSync()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("Activity sync service for connected GitHub, Twitter/X and LinkedIn accounts")
	fmt.Println("\nCommands:")
	fmt.Println("  server    Start the HTTP server")
	fmt.Println("  sync      Run one sync batch and exit")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}

func runServer() {
	cfg := config.Load()
	if err := bootstrap.Run(context.Background(), cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func runSync() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := bootstrap.RunSyncOnce(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("sync failed")
		stop()
		os.Exit(1)
	}

	log.Info().
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Int("activities_inserted", summary.ActivitiesInserted).
		Int("tokens_refreshed", summary.TokensRefreshed).
		Msg("sync complete")
}
