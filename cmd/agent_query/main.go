package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"netshield/db"
	"netshield/history"
	"netshield/netshield"

	"github.com/joho/godotenv"
)

// Runs the risk agent against the configured history store without going
// through the HTTP surface. Useful for inspecting what the dashboard's
// agent panel would report.
func main() {
	prompt := flag.String("prompt", "", "Question for the agent, e.g. 'how risky is 10.0.0.5?'")
	flag.Parse()

	_ = godotenv.Load()

	ctx := context.Background()

	// Same store selection as the server, so the tool reads the history
	// the server actually persisted.
	var store netshield.HistoryStore
	if db.UseJSONHistory() {
		store = history.NewStore(db.HistoryFilePath())
	} else {
		dbclient, err := db.NewDBClient(ctx)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer dbclient.Close()
		store = dbclient
	}

	agent := netshield.NewAgent(store)
	summary, err := agent.Summarize(ctx, *prompt)
	if err != nil {
		log.Fatalf("failed to build risk summary: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		log.Fatalf("failed to encode summary: %v", err)
	}

	fmt.Fprintf(os.Stderr, "risk level: %s (%d incidents)\n", summary.RiskLevel, summary.TotalIncidents)
}
