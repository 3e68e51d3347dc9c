// Package main provides the TabPilot terminal browsing agent.
// It drives a Chromium window through Playwright and lets an LLM read the
// active tab and act on it, with a chat-first interface in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/entrhq/tabpilot/pkg/agent"
	"github.com/entrhq/tabpilot/pkg/agent/decision"
	"github.com/entrhq/tabpilot/pkg/agent/prompts"
	"github.com/entrhq/tabpilot/pkg/browser"
	appconfig "github.com/entrhq/tabpilot/pkg/config"
	"github.com/entrhq/tabpilot/pkg/executor/tui"
	"github.com/entrhq/tabpilot/pkg/llm/providers"
	"github.com/entrhq/tabpilot/pkg/logging"
	"github.com/entrhq/tabpilot/pkg/reminder"
	"github.com/entrhq/tabpilot/pkg/session"
	"github.com/entrhq/tabpilot/pkg/telemetry"
	toolsbrowser "github.com/entrhq/tabpilot/pkg/tools/browser"
	"github.com/entrhq/tabpilot/pkg/types"
)

const version = "0.1.0" // Version of TabPilot

// eventBuffer sizes the agent event channel drained by the front end.
const eventBuffer = 64

// Config holds the command line configuration
type Config struct {
	ConfigPath  string
	StoragePath string
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Prompt      string
	Headless    bool
	AcceptTerms bool
	ShowVersion bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("TabPilot v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if runErr := run(ctx, config); runErr != nil {
		cancel()
		log.Fatalf("Application error: %v", runErr)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.ConfigPath, "config", "", "Settings file, .json or .yaml (default ~/.tabpilot/config.json)")
	flag.StringVar(&config.StoragePath, "storage", "", "Chat storage file; .db or .sqlite selects SQLite (default ~/.tabpilot/storage.json)")
	flag.StringVar(&config.Provider, "provider", "", "AI provider: gemini, openai, claude, perplexity, openrouter or custom")
	flag.StringVar(&config.Model, "model", "", "Model id for the selected provider")
	flag.StringVar(&config.APIKey, "api-key", "", "API key for the selected provider")
	flag.StringVar(&config.BaseURL, "base-url", "", "Base URL of an OpenAI-compatible endpoint (custom provider)")
	flag.StringVar(&config.Prompt, "prompt", "", "Run a single request without the chat UI and print the answer")
	flag.BoolVar(&config.Headless, "headless", false, "Run the browser without a visible window")
	flag.BoolVar(&config.AcceptTerms, "accept-terms", false, "Accept the terms of use without the interactive prompt")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "TabPilot - an AI agent that browses for you\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tabpilot [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY,\n")
		fmt.Fprintf(os.Stderr, "  PERPLEXITY_API_KEY, OPENROUTER_API_KEY   API keys per provider\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tabpilot                                       # Chat UI\n")
		fmt.Fprintf(os.Stderr, "  tabpilot -provider openai -model gpt-4o\n")
		fmt.Fprintf(os.Stderr, "  tabpilot -headless -prompt \"weather in Lisbon today\"\n")
	}

	flag.Parse()
	return config
}

func (c *Config) overrides() appconfig.Overrides {
	return appconfig.Overrides{
		Provider: c.Provider,
		Model:    c.Model,
		APIKey:   c.APIKey,
		BaseURL:  c.BaseURL,
	}
}

// app holds the wired components shared by both front ends.
type app struct {
	cfg       *appconfig.Config
	sessions  *session.Manager
	host      *browser.PlaywrightHost
	reminders *reminder.Scheduler
	conv      *agent.Conversation
	events    chan *types.AgentEvent
	closers   []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

// reminderRelay forwards fired reminders to the attached front end. Timer
// goroutines call fire concurrently with attach.
type reminderRelay struct {
	target atomic.Pointer[func(types.Reminder)]
}

func (r *reminderRelay) attach(fn func(types.Reminder)) {
	r.target.Store(&fn)
}

func (r *reminderRelay) fire(rem types.Reminder) {
	if fn := r.target.Load(); fn != nil {
		(*fn)(rem)
	}
}

// run wires the application and starts the selected front end
func run(ctx context.Context, config *Config) error {
	shutdown, err := telemetry.Init(ctx, telemetry.Options{Version: version})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(flushCtx)
	}()

	cfg, err := appconfig.Load(config.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Restored reminders can fire before the UI exists.
	relay := &reminderRelay{}

	a, err := wire(ctx, config, cfg, relay.fire)
	if err != nil {
		return err
	}
	defer a.close()

	if config.Prompt != "" {
		return runHeadless(ctx, a, config)
	}

	exec := tui.NewExecutor(a.conv, a.sessions, a.cfg, a.reminders, a.events)
	relay.attach(exec.ReminderFired)

	if err := exec.Run(ctx); err != nil {
		return fmt.Errorf("executor error: %w", err)
	}
	return nil
}

// wire builds storage, browser, scheduler and agent.
func wire(ctx context.Context, config *Config, cfg *appconfig.Config, onFire func(types.Reminder)) (*app, error) {
	a := &app{cfg: cfg, events: make(chan *types.AgentEvent, eventBuffer)}

	kv, closeKV, err := openStorage(config.StoragePath)
	if err != nil {
		return nil, err
	}
	if closeKV != nil {
		a.closers = append(a.closers, closeKV)
	}

	a.sessions = session.NewManager(kv)
	if err := a.sessions.Load(); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load chats: %w", err)
	}
	if config.AcceptTerms && !a.sessions.Consented() {
		if err := a.sessions.AcceptTerms(); err != nil {
			a.close()
			return nil, err
		}
	}

	a.host = browser.NewPlaywrightHost(browser.Options{
		Headless: config.Headless || cfg.Browser.IsHeadless(),
		Bell:     os.Stderr,
	})
	if err := a.host.Start(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	a.closers = append(a.closers, a.host.Close)

	schedLog, err := logging.NewLogger("reminder")
	if err != nil {
		schedLog.Warnf("Failed to initialize reminder logger, using stderr fallback: %v", err)
	}
	a.reminders = reminder.New(a.sessions, a.host,
		reminder.WithOnFire(onFire),
		reminder.WithLogger(schedLog),
	)
	a.closers = append(a.closers, func() error { a.reminders.Stop(); return nil })
	if _, err := a.reminders.Restore(ctx); err != nil {
		schedLog.Warnf("failed to restore reminders: %v", err)
	}

	capturer, err := toolsbrowser.NewCapturer(a.host, cfg.Browser.Patterns())
	if err != nil {
		a.close()
		return nil, err
	}
	actions := toolsbrowser.NewExecutor(a.host, a.reminders, cfg.Browser.ExecutorOptions())

	maxLoops, _ := cfg.Agent.Limits()
	systemPrompt := prompts.NewPromptBuilder().
		WithActions(decision.Catalogue()).
		WithCustomInstructions(cfg.Agent.GetCustomInstructions()).
		Build()

	ag := agent.New(providers.Default(), capturer, actions,
		agent.WithSystemPrompt(systemPrompt),
		agent.WithMaxLoops(maxLoops),
		agent.WithRetryPolicy(cfg.Agent.RetryPolicy()),
		agent.WithEvents(a.events),
	)
	a.conv = agent.NewConversation(ag, a.sessions, cfg, agent.WithOverrides(config.overrides()))
	return a, nil
}

// openStorage picks the KV backend from the file extension.
func openStorage(path string) (session.KV, func() error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		kv, err := session.NewSQLiteKV(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open chat storage: %w", err)
		}
		return kv, kv.Close, nil
	default:
		kv, err := session.NewFileKV(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open chat storage: %w", err)
		}
		return kv, nil, nil
	}
}
