package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"netshield/classifier"
	"netshield/utils"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
)

func main() {
	err := utils.CreateFolder("db")
	if err != nil {
		logger := utils.GetLogger()
		err := xerrors.New(err)
		ctx := context.Background()
		logger.ErrorContext(ctx, "Failed to create db dir.", slog.Any("error", err))
	}

	if len(os.Args) < 2 {
		fmt.Println("Expected 'serve' subcommand")
		os.Exit(1)
	}
	_ = godotenv.Load()

	switch os.Args[1] {
	case "serve":
		// Check the AI engine before starting so a misconfigured
		// AI_ENGINE_URL shows up at boot rather than on first upload.
		engineURL := utils.GetEnv("AI_ENGINE_URL", "http://localhost:8000")
		probe := classifier.NewClient(engineURL, 5*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := probe.HealthCheck(ctx); err != nil {
			log.Printf("WARNING: AI engine at %s is unreachable: %v\n", engineURL, err)
			log.Println("The server will start but analysis will fail until the AI engine is up.")
		} else {
			log.Printf("AI engine at %s is available\n", engineURL)
		}
		cancel()

		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		protocol := serveCmd.String("proto", "http", "Protocol to use (http or https)")
		port := serveCmd.String("p", utils.GetEnv("PORT", "5000"), "Port to use")
		serveCmd.Parse(os.Args[2:])
		serve(*protocol, *port)
	default:
		fmt.Println("Expected 'serve' subcommand")
		os.Exit(1)
	}
}
