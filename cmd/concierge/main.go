// Package main provides the concierge CLI: it grows a task specification
// through an interactive interview and recorded production events, then
// prints the synthesized system prompt.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/concierge/pkg/agent"
	"github.com/entrhq/concierge/pkg/config"
	"github.com/entrhq/concierge/pkg/events"
	"github.com/entrhq/concierge/pkg/executor/cli"
	"github.com/entrhq/concierge/pkg/llm/openai"
	"github.com/entrhq/concierge/pkg/logging"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	Model       string
	BaseURL     string
	APIKey      string
	BankFile    string
	EventsFile  string
	SaveBank    string
	MaxRounds   int
	NoInterview bool
	ShowVersion bool
}

func main() {
	cliConfig := parseFlags()

	if cliConfig.ShowVersion {
		fmt.Printf("Concierge v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cliConfig); err != nil {
		cancel()
		log.Printf("Session failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cliConfig := &CLIConfig{}

	flag.StringVar(&cliConfig.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cliConfig.Model, "model", "", "LLM model to use")
	flag.StringVar(&cliConfig.BaseURL, "base-url", "", "OpenAI-compatible API base URL")
	flag.StringVar(&cliConfig.APIKey, "api-key", "", "API key (defaults to environment)")
	flag.StringVar(&cliConfig.BankFile, "bank", "", "Seed knowledge bank JSON file")
	flag.StringVar(&cliConfig.EventsFile, "events", "", "Production events JSON file to learn from")
	flag.StringVar(&cliConfig.SaveBank, "save-bank", "", "Write the final knowledge bank JSON to this file")
	flag.IntVar(&cliConfig.MaxRounds, "max-rounds", 0, "Interview round cap (0 uses the configured default)")
	flag.BoolVar(&cliConfig.NoInterview, "no-interview", false, "Skip the interview, learn from events only")
	flag.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Concierge - Interview-Driven Prompt Builder\n\n")
		fmt.Fprintf(os.Stderr, "Usage: concierge [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Start from scratch with an interview\n")
		fmt.Fprintf(os.Stderr, "  concierge\n\n")
		fmt.Fprintf(os.Stderr, "  # Seed the bank and fold in production events\n")
		fmt.Fprintf(os.Stderr, "  concierge -bank task.json -events incidents.json\n\n")
		fmt.Fprintf(os.Stderr, "  # Regenerate the prompt without interviewing\n")
		fmt.Fprintf(os.Stderr, "  concierge -bank task.json -no-interview\n\n")
	}

	flag.Parse()
	return cliConfig
}

// run executes one concierge session
func run(ctx context.Context, cliConfig *CLIConfig) error {
	cfg, err := config.Load(cliConfig.ConfigFile)
	if err != nil {
		return err
	}

	// CLI flags override file and environment values
	if cliConfig.Model != "" {
		cfg.Model = cliConfig.Model
	}
	if cliConfig.BaseURL != "" {
		cfg.BaseURL = cliConfig.BaseURL
	}
	if cliConfig.APIKey != "" {
		cfg.APIKey = cliConfig.APIKey
	}
	if cliConfig.MaxRounds > 0 {
		cfg.MaxRounds = cliConfig.MaxRounds
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	providerOpts := []openai.ProviderOption{
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		providerOpts = append(providerOpts, openai.WithBaseURL(cfg.BaseURL))
	}
	provider, err := openai.NewProvider(cfg.APIKey, providerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	logger, logErr := logging.New("concierge")
	if logErr != nil {
		log.Printf("Warning: file logging unavailable: %v", logErr)
	}
	defer logger.Close()

	agentOpts := []agent.Option{
		agent.WithMaxRounds(cfg.MaxRounds),
		agent.WithLogger(logger),
	}
	if cliConfig.BankFile != "" {
		seed, readErr := os.ReadFile(cliConfig.BankFile)
		if readErr != nil {
			return fmt.Errorf("failed to read bank file: %w", readErr)
		}
		agentOpts = append(agentOpts, agent.WithSeedJSON(seed))
	}
	eventOpts := []events.Option{events.WithConcurrency(cfg.EventConcurrency)}
	if cfg.EventTypeFilter != "" {
		eventOpts = append(eventOpts, events.WithTypeFilter(cfg.EventTypeFilter))
	}
	agentOpts = append(agentOpts, agent.WithEventOptions(eventOpts...))

	con, err := agent.New(provider, agentOpts...)
	if err != nil {
		return err
	}

	executor := cli.NewExecutor()

	if !cliConfig.NoInterview {
		if _, err := executor.RunInterview(ctx, con); err != nil {
			return err
		}
	}

	if cliConfig.EventsFile != "" {
		batch, loadErr := loadEvents(cliConfig.EventsFile)
		if loadErr != nil {
			return loadErr
		}
		report, learnErr := con.LearnFromEvents(ctx, batch)
		if learnErr != nil {
			return learnErr
		}
		fmt.Printf("Learned from %d events (%d applied, %d failed, %d skipped)\n",
			len(report.Events),
			report.Count(events.OutcomeApplied)+report.Count(events.OutcomePartial),
			report.Count(events.OutcomeFailed),
			report.Count(events.OutcomeSkipped))
	}

	if con.Bank().IsEmpty() {
		return fmt.Errorf("nothing learned: the knowledge bank is empty")
	}

	if err := executor.StreamPrompt(ctx, con); err != nil {
		return err
	}

	if cliConfig.SaveBank != "" {
		if err := saveBank(con, cliConfig.SaveBank); err != nil {
			return err
		}
		fmt.Printf("Knowledge bank written to %s\n", cliConfig.SaveBank)
	}

	usage := con.Usage()
	logger.Infof("session extraction usage: %d tokens", usage.TotalTokens)
	return nil
}

// loadEvents reads a JSON array of {type, data} records
func loadEvents(path string) ([]events.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events file: %w", err)
	}

	var records []struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse events file: %w", err)
	}

	batch := make([]events.Event, 0, len(records))
	for _, r := range records {
		batch = append(batch, events.New(r.Type, r.Data))
	}
	return batch, nil
}

// saveBank writes the final bank JSON for seeding future sessions
func saveBank(con *agent.Concierge, path string) error {
	rendered, err := con.Bank().ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(rendered+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write bank file: %w", err)
	}
	return nil
}
