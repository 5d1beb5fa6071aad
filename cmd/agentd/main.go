package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agentteam/internal/adapter/memory"
	"agentteam/internal/adapter/provider"
	"agentteam/internal/infra/config"
	"agentteam/internal/infra/logger"
	"agentteam/internal/infra/tracer"
	"agentteam/internal/usecase/agents"
	"agentteam/internal/usecase/ratelimit"
	"agentteam/internal/usecase/team"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "agentd:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		convID     = flag.String("conversation", "local", "conversation id for the interactive session")
		senderID   = flag.String("sender", "operator", "sender id for the interactive session")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	store, err := memory.NewSQLiteStore(cfg.Memory.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := provider.NewRegistry()
	for _, pc := range cfg.Providers {
		p := provider.NewBreakerProvider(
			provider.NewThrottledProvider(
				provider.NewOpenAIProvider(pc, log),
				pc.ThrottleRPS, pc.ThrottleBurst, log),
			provider.BreakerConfig{}, log)
		if err := registry.Register(p); err != nil {
			return err
		}
		log.Info("provider registered", "provider", pc.Name, "model", pc.Model)
	}
	providerName := defaultProvider(cfg)

	limits := make(map[string]ratelimit.Limits, len(cfg.RateLimit.Providers))
	for name, w := range cfg.RateLimit.Providers {
		limits[name] = ratelimit.Limits{PerMinute: w.PerMinute, PerHour: w.PerHour, PerDay: w.PerDay}
	}
	limiter := ratelimit.New(limits, log)
	limiter.SetFallback(ratelimit.Limits{
		PerMinute: cfg.RateLimit.Default.PerMinute,
		PerHour:   cfg.RateLimit.Default.PerHour,
		PerDay:    cfg.RateLimit.Default.PerDay,
	})

	deps := agents.Deps{
		Providers: registry,
		Limiter:   limiter,
		LongTerm:  store,
		Logger:    log,
	}

	orch := agents.NewOrchestrator(providerName, deps)
	for _, s := range agents.NewRoster(providerName, deps) {
		if err := orch.RegisterSpecialist(s); err != nil {
			return err
		}
	}

	convStore := team.NewStore(cfg.Team.Language, cfg.Team.MaxConversations, log)
	tm := team.New(orch, convStore, log, team.WithIdleTTL(cfg.Team.IdleTTL))
	defer tm.Close()

	if cfg.Team.EvictionSchedule != "" {
		if err := tm.StartEvictionLoop(cfg.Team.EvictionSchedule); err != nil {
			return err
		}
	}

	log.Info("agent team ready",
		"providers", registry.List(),
		"agents", len(tm.ListAgents()),
	)
	printBanner(tm)

	return interactLoop(ctx, tm, *convID, *senderID)
}

// defaultProvider picks the provider agents bind to: the first configured
// one, or a placeholder name that will surface as a clear not-found error.
func defaultProvider(cfg config.Config) string {
	if len(cfg.Providers) > 0 {
		return cfg.Providers[0].Name
	}
	return "default"
}

func printBanner(tm *team.Team) {
	fmt.Println("Agent team ready. Type a message, or @agentid to address one directly. Ctrl-D exits.")
	for _, info := range tm.ListAgents() {
		fmt.Printf("  %s %s (@%s) - %s\n", info.Emoji, info.Name, info.ID, info.Role)
	}
}

// interactLoop reads stdin lines and routes each through the team.
func interactLoop(ctx context.Context, tm *team.Team, convID, senderID string) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		resp := tm.HandleIncoming(ctx, team.Request{
			ConversationID: convID,
			SenderID:       senderID,
			Text:           text,
		})
		fmt.Printf("\n%s\n\n", resp.Content)
	}
}
