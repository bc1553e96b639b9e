// Package main is the entry point for the recruiter agent.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/aria-ai/recruiter-agent/internal/config"
	"github.com/aria-ai/recruiter-agent/internal/drafter"
	"github.com/aria-ai/recruiter-agent/internal/engine"
	"github.com/aria-ai/recruiter-agent/internal/handler"
	"github.com/aria-ai/recruiter-agent/internal/middleware"
	"github.com/aria-ai/recruiter-agent/internal/notify"
	"github.com/aria-ai/recruiter-agent/internal/profile"
	"github.com/aria-ai/recruiter-agent/internal/store"
	"github.com/aria-ai/recruiter-agent/internal/transport"
	"github.com/aria-ai/recruiter-agent/internal/transport/gmail"
	"github.com/aria-ai/recruiter-agent/internal/transport/smsgateway"
	"github.com/aria-ai/recruiter-agent/pkg/logger"
	"github.com/aria-ai/recruiter-agent/pkg/tracing"
)

func main() {
	app := &cli.App{
		Name:  "recruiter-agent",
		Usage: "autonomous recruiter correspondence agent",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "process new messages once and exit",
				Action: runOnce,
			},
			{
				Name:   "daemon",
				Usage:  "poll continuously and serve the status API",
				Action: runDaemon,
			},
			{
				Name:   "status",
				Usage:  "print active conversations",
				Action: runStatus,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// agent bundles everything the commands need, with a single close path.
type agent struct {
	cfg          *config.Config
	log          *logger.Logger
	store        store.Store
	orchestrator *engine.Orchestrator
	closers      []func()
}

func (a *agent) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildAgent(ctx context.Context) (*agent, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.SetGlobal(log)

	a := &agent{cfg: cfg, log: log}
	a.closers = append(a.closers, func() { log.Sync() })

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "recruiter-agent", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			a.closers = append(a.closers, func() { tracing.Shutdown(ctx, tp) })
		}
	}

	// Storage
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		a.store = pg
	} else {
		log.Warn("no DATABASE_URL set, conversation state will not survive restarts")
		a.store = store.NewMemoryStore()
	}

	// Candidate profile and prompts
	prof, err := profile.LoadProfile(cfg.ProfilePath)
	if err != nil {
		a.close()
		return nil, err
	}
	prompts, err := profile.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		a.close()
		return nil, err
	}

	// LLM drafter
	provider := drafter.Provider(cfg.DefaultLLM)
	apiKey := cfg.AnthropicAPIKey
	if provider == drafter.ProviderOpenAI {
		apiKey = cfg.OpenAIAPIKey
	}
	if apiKey == "" {
		a.close()
		return nil, fmt.Errorf("no API key configured for LLM provider %q", provider)
	}
	client, err := drafter.NewClient(provider, apiKey, cfg.LLMModel)
	if err != nil {
		a.close()
		return nil, err
	}
	dr := drafter.New(client, prof, prompts, log)

	// Transports
	if cfg.GmailAccessToken == "" {
		a.close()
		return nil, fmt.Errorf("GMAIL_ACCESS_TOKEN is required")
	}
	signature := cfg.EmailSignature
	if signature == "" {
		signature = prof.Signature
	}
	email := gmail.New(gmail.Config{
		Tokens:    gmail.StaticToken(cfg.GmailAccessToken),
		Signature: signature,
		Query:     cfg.GmailQuery,
	})
	transports := []transport.Transport{email}
	if cfg.SMSEnabled {
		transports = append(transports, smsgateway.New(email, cfg.SMSDefaultGateway))
	}

	// Escalation feed
	var sink engine.EscalationSink
	if cfg.NATSURL != "" {
		notifier, err := notify.Connect(ctx, notify.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, notifier.Close)
		sink = notifier
	}

	// Policy thresholds come from the profile unless overridden by env
	salaryFloor := cfg.SalaryFloor
	if salaryFloor == 0 {
		salaryFloor = prof.JobCriteria.AutoDecline.SalaryBelow
	}
	negotiationKeywords := cfg.NegotiationKeywords
	if negotiationKeywords == nil {
		negotiationKeywords = prompts.ResponseAnalysis.NegotiationKeywords
	}
	declineKeywords := cfg.DeclineKeywords
	if declineKeywords == nil {
		declineKeywords = prompts.ResponseAnalysis.DeclineKeywords
	}
	recruiterKeywords := cfg.RecruiterKeywords
	if recruiterKeywords == nil {
		recruiterKeywords = engine.DefaultRecruiterKeywords
	}

	a.orchestrator = engine.NewOrchestrator(
		transports,
		a.store,
		dr,
		engine.EscalationPolicy{
			SalaryFloor: salaryFloor,
			Keywords:    negotiationKeywords,
		},
		engine.RelevanceFilter{Keywords: recruiterKeywords},
		sink,
		engine.Options{
			BatchSize:       cfg.BatchSize,
			HistoryWindow:   cfg.HistoryWindow,
			DeclineKeywords: declineKeywords,
		},
		log,
	)
	return a, nil
}

func runOnce(c *cli.Context) error {
	ctx := c.Context
	a, err := buildAgent(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sum, err := a.orchestrator.ProcessNewMessages(ctx)
	if err != nil {
		return err
	}
	a.log.Info("cycle complete",
		zap.Int("advanced", sum.Advanced),
		zap.Int("sent", sum.Sent),
		zap.Int("held", sum.Held),
		zap.Int("escalated", sum.Escalated),
		zap.Int("filtered", sum.Filtered),
		zap.Int("failed", sum.Failed),
	)
	return nil
}

func runDaemon(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildAgent(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	server := newStatusServer(a)
	go func() {
		a.log.Info("status API listening", zap.String("port", a.cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("server error", zap.Error(err))
		}
	}()

	a.log.Info("daemon started", zap.Duration("poll_interval", a.cfg.PollInterval))

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	cycle := func() {
		sum, err := a.orchestrator.ProcessNewMessages(ctx)
		if err != nil {
			a.log.Error("cycle failed", zap.Error(err))
			return
		}
		a.log.Info("cycle complete",
			zap.Int("advanced", sum.Advanced),
			zap.Int("sent", sum.Sent),
			zap.Int("held", sum.Held),
			zap.Int("escalated", sum.Escalated),
			zap.Int("filtered", sum.Filtered),
			zap.Int("failed", sum.Failed),
		)
	}

	cycle()
	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.log.Error("server forced to shutdown", zap.Error(err))
			}
			return nil
		case <-ticker.C:
			cycle()
		}
	}
}

func runStatus(c *cli.Context) error {
	ctx := c.Context
	a, err := buildAgent(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	convs, err := a.store.ListActive(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "THREAD\tCHANNEL\tCOMPANY\tPOSITION\tSTAGE\tMSGS\tESCALATED\tUPDATED")
	for _, conv := range convs {
		escalated := ""
		if conv.RequiresEscalation {
			escalated = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			conv.ThreadID,
			conv.Channel,
			orDash(conv.Facts.Company),
			orDash(conv.Facts.Position),
			conv.Stage,
			len(conv.History),
			escalated,
			conv.UpdatedAt.Format(time.RFC3339),
		)
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newStatusServer(a *agent) *http.Server {
	healthHandler := handler.NewHealthHandler(a.store)
	conversationHandler := handler.NewConversationHandler(a.store, a.log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(a.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(a.cfg.JWTSecret))
		r.Use(middleware.RateLimit(a.cfg.RateLimitRequests, a.cfg.RateLimitWindow))

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Get("/{id}", conversationHandler.Get)
		})
	})

	return &http.Server{
		Addr:         ":" + a.cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  a.cfg.ServerReadTimeout,
		WriteTimeout: a.cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
}
