package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rs/zerolog"

	"github.com/cartloom/marketplace/backend/internal/adapters/search"
	"github.com/cartloom/marketplace/backend/internal/application/services"
	"github.com/cartloom/marketplace/backend/internal/evaluation"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/typesense"
	"github.com/cartloom/marketplace/backend/pkg/config"
)

func main() {
	goldenPath := flag.String("golden", "config/golden_queries.json", "path to the golden query set")
	minIntentAccuracy := flag.Float64("min-intent-accuracy", 0, "fail if intent accuracy falls below this (0 disables)")
	minRecall := flag.Float64("min-recall", 0, "fail if recall@10 falls below this (0 disables)")
	minMRR := flag.Float64("min-mrr", 0, "fail if mrr@10 falls below this (0 disables)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Fatalf("Failed to connect to Typesense: %v", err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	index := search.NewTypesenseAdapter(tsClient, &logger)
	queryService := services.NewQueryUnderstandingService(cfg.NLP, &logger)

	queries, err := evaluation.LoadGoldenQueries(*goldenPath)
	if err != nil {
		log.Fatalf("Failed to load golden queries: %v", err)
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		log.Fatalf("Invalid golden queries: %v", err)
	}

	runner := evaluation.NewRunner(queryService, index)
	summary, err := runner.Run(context.Background(), queries)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	guardrails := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MinIntentAccuracy: *minIntentAccuracy,
		MinRecallAt10:     *minRecall,
		MinMRRAt10:        *minMRR,
	})
	violations := guardrails.Check(summary)
	for _, v := range violations {
		fmt.Fprintln(os.Stderr, "guardrail violation:", v)
	}
	if len(violations) > 0 {
		os.Exit(1)
	}
}
