// hivectl is an interactive shell over a hived data directory. It serves the
// same query surface the daemon exposes to reporting: range and day queries,
// chart buckets, summaries, retention policy control and manual sweeps.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/c-bata/go-prompt"

	"github.com/gabrielmt/hived/internal/logging"
	"github.com/gabrielmt/hived/internal/retention"
	"github.com/gabrielmt/hived/internal/settings"
	"github.com/gabrielmt/hived/internal/store"
)

func main() {
	dataDir := flag.String("data", "data", "hived data directory")
	dbPath := flag.String("db", "", "readings database path (overrides -data)")
	flag.Parse()

	// Keep the shell quiet; only warnings and errors reach the terminal.
	logging.Init(slog.LevelWarn, false)

	path := *dbPath
	if path == "" {
		path = *dataDir + "/hive.db"
	}

	storeCfg := store.DefaultConfig()
	storeCfg.Path = path

	db, err := store.Open(storeCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	pol := settings.Open(*dataDir + "/settings.json")
	ret := retention.New(db, pol)

	sh := &shell{db: db, ret: ret}

	fmt.Printf("hivectl: %s (type 'help' for commands)\n", path)
	p := prompt.New(
		sh.execute,
		completer,
		prompt.OptionPrefix("hivectl> "),
		prompt.OptionTitle("hivectl"),
	)
	p.Run()
}

var commands = []prompt.Suggest{
	{Text: "latest", Description: "Show the most recent reading"},
	{Text: "count", Description: "Count stored readings"},
	{Text: "day", Description: "day <YYYY-MM-DD>: readings of one day"},
	{Text: "range", Description: "range <start> <end>: readings in a range (RFC3339)"},
	{Text: "chart", Description: "chart <start> <end>: activity buckets with labels"},
	{Text: "summary", Description: "summary <start> <end>: totals and peak activity"},
	{Text: "stats", Description: "stats <start> <end>: measurement statistics"},
	{Text: "policy", Description: "policy [short|medium|long]: show or set retention"},
	{Text: "sweep", Description: "Run a retention sweep now"},
	{Text: "help", Description: "Show available commands"},
	{Text: "exit", Description: "Leave the shell"},
}

func completer(d prompt.Document) []prompt.Suggest {
	if d.TextBeforeCursor() == "" {
		return nil
	}
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}
