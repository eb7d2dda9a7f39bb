package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/dvloznov/momo-agent/internal/agent"
	"github.com/dvloznov/momo-agent/internal/config"
	"github.com/dvloznov/momo-agent/internal/logger"
	"github.com/dvloznov/momo-agent/internal/pipeline"
	"github.com/dvloznov/momo-agent/internal/tools"
)

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("agent", flag.ExitOnError)
	input := fs.String("input", "", "Path to the MoMo SMS batch JSON file")
	fs.Parse(os.Args[1:])

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Invalid configuration")
	}

	sessionID := uuid.NewString()
	log, closer, err := logger.NewSession(cfg.LogDir, sessionID)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to open session log")
	}
	defer closer.Close()

	if *input == "" {
		log.Fatal().Msg("Usage: agent -input PATH")
	}

	ctx := logger.WithContext(context.Background(), log)

	messages, err := pipeline.LoadMessages(*input)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load messages")
	}

	normalizer := pipeline.NewNormalizer(pipeline.Config{
		DefaultCurrency: cfg.DefaultCurrency,
		ParseWorkers:    cfg.ParseWorkers,
	})
	ledger, failures := normalizer.Normalize(ctx, messages)

	registry, err := tools.ForLedger(ledger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build tool registry")
	}

	a, err := agent.New(ctx, cfg.GeminiModel, registry, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start agent")
	}

	fmt.Printf("Loaded %d transactions (%d messages skipped). Ask about your spending; 'exit' to quit.\n",
		ledger.Len(), len(failures))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		answer, err := a.Ask(ctx, question)
		if err != nil {
			log.Error().Err(err).Msg("Question failed")
			fmt.Println("Something went wrong; see the session log for details.")
			continue
		}
		fmt.Printf("\nagent> %s\n\n", answer)
	}

	log.Info().Msg("chat session ended")
}
