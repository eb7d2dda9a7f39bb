package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/dvloznov/momo-agent/internal/config"
	"github.com/dvloznov/momo-agent/internal/export"
	"github.com/dvloznov/momo-agent/internal/logger"
	"github.com/dvloznov/momo-agent/internal/pipeline"
	"github.com/dvloznov/momo-agent/internal/report"
)

var reportFiles = map[report.Period]string{
	report.PeriodWeek:  "report_weekly.md",
	report.PeriodMonth: "report_monthly.md",
	report.PeriodYear:  "report_yearly.md",
}

func main() {
	_ = godotenv.Load()
	log := logger.New()

	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	input := fs.String("input", "", "Path to the MoMo SMS batch JSON file")
	out := fs.String("out", "", "Output directory for the CSV export and reports")
	fs.Parse(os.Args[1:])

	if *input == "" || *out == "" {
		log.Fatal().Msg("Usage: analyze -input PATH -out DIR")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()
	ctx := logger.WithContext(context.Background(), log)

	messages, err := pipeline.LoadMessages(*input)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load messages")
	}
	log.Info().Str("input", *input).Int("messages", len(messages)).Msg("Starting analysis")

	normalizer := pipeline.NewNormalizer(pipeline.Config{
		DefaultCurrency: cfg.DefaultCurrency,
		ParseWorkers:    cfg.ParseWorkers,
	})
	ledger, failures := normalizer.Normalize(ctx, messages)
	for _, f := range failures {
		log.Warn().Str("message_id", f.MessageID).Str("reason", f.Reason).Msg("Message skipped")
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}

	csvPath := filepath.Join(*out, "transactions.csv")
	if err := writeCSV(csvPath, ledger); err != nil {
		log.Fatal().Err(err).Msg("Failed to write transaction export")
	}
	fmt.Printf("Wrote: %s\n", csvPath)

	for period, filename := range reportFiles {
		path := filepath.Join(*out, filename)
		r := export.RenderReport(ledger, period)
		if err := os.WriteFile(path, []byte(r.Markdown), 0o644); err != nil {
			log.Fatal().Err(err).Str("period", string(period)).Msg("Failed to write report")
		}
		fmt.Printf("Wrote: %s\n", path)
	}

	log.Info().
		Int("transactions", ledger.Len()).
		Int("skipped", len(failures)).
		Msg("Analysis completed")
}

func writeCSV(path string, ledger *pipeline.Ledger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.WriteTransactionsCSV(f, ledger); err != nil {
		return err
	}
	return f.Close()
}
