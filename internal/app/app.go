package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "dedup":
		return runDedup(args[1:])
	case "trending":
		return runTrending(args[1:])
	case "seed":
		return runSeed(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "newsdesk CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  newsdesk <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health    Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  dedup     Detect duplicate news items and create review groups")
	fmt.Fprintln(os.Stderr, "  trending  Recompute trending scores for news and articles")
	fmt.Fprintln(os.Stderr, "  seed      Insert sample categories, tags and news items")
	fmt.Fprintln(os.Stderr, "  serve     Start Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"newsdesk <command> -h\" for command-specific flags.")
}
