// Package server provides the public entry point for initializing the
// AGENTESE gateway server.
//
// This package exists in pkg/ (not internal/) so an enterprise build can
// import it and compose the full server with its own ObserverResolver
// and node registrations.
//
// Usage (OSS):
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(fmt.Sprintf(":%d", srv.Port), srv.Handler)
package server

import (
	"context"
	"fmt"
	"os"

	"net/http"

	"github.com/agentese/logos/internal/alias"
	"github.com/agentese/logos/internal/budget"
	"github.com/agentese/logos/internal/config"
	"github.com/agentese/logos/internal/container"
	"github.com/agentese/logos/internal/gateway"
	"github.com/agentese/logos/internal/logos"
	"github.com/agentese/logos/internal/observer"
	"github.com/agentese/logos/internal/registry"
	"github.com/agentese/logos/internal/specgraph"
	"github.com/agentese/logos/internal/subscription"
	"github.com/agentese/logos/internal/telemetry"
	"github.com/agentese/logos/pkg/contracts"

	"github.com/rs/zerolog/log"
)

// Server holds the initialized AGENTESE gateway.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Logos is the resolver. Callers register aspect handlers through
	// Nodes before traffic starts.
	Logos *logos.Logos

	// Nodes is the path registry. Exposed so an embedding program can
	// register its own [world]/[domain]/[concept] nodes and aspects
	// before calling ListenAndServe.
	Nodes *registry.Registry

	// Aliases is the alias registry, seeded from Config.AliasFile if it
	// exists. Exposed so callers can register additional aliases or
	// persist changes back with Aliases.Save.
	Aliases *alias.Registry

	// Archetypes is the observer archetype registry. Exposed so callers
	// can widen or narrow the default capability grants before serving.
	Archetypes *observer.ArchetypeRegistry

	// Subscriptions is the event fan-out manager behind subscribe().
	Subscriptions *subscription.Manager

	// Resolvers is the pluggable observer-resolution chain. An
	// enterprise build prepends an OIDC/mTLS resolver via
	// Resolvers.RegisterResolver before serving.
	Resolvers contracts.ObserverResolverChain

	// Ledger is the durable budget ledger, set only when
	// AGENTESE_LEDGER_URL points at a reachable Postgres instance. Nil
	// means accounts are enforced in-memory only for the process
	// lifetime.
	Ledger budget.LedgerStore

	// replayLog is closed on Shutdown if it is Postgres-backed.
	replayLog *subscription.PostgresReplayLog

	// Config is the resolved server configuration.
	Config *config.Config

	// Port is the port the server should listen on.
	Port int

	// shutdownFunc flushes telemetry on graceful shutdown.
	shutdownFunc func(context.Context) error
}

// New initializes the gateway with configuration from the environment.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the gateway with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	aliases := alias.NewRegistry()
	if cfg.AliasFile != "" {
		if _, statErr := os.Stat(cfg.AliasFile); statErr == nil {
			if loadErr := aliases.Load(cfg.AliasFile); loadErr != nil {
				log.Warn().Err(loadErr).Str("file", cfg.AliasFile).Msg("⚠️  alias file present but failed to load")
			} else {
				log.Info().Str("file", cfg.AliasFile).Int("count", len(aliases.List())).Msg("✅ aliases loaded")
			}
		}
	}

	nodes := registry.New()
	cont := container.New()
	archetypes := observer.NewArchetypeRegistry()

	var replay subscription.ReplayLog = subscription.NewInMemoryReplayLog(1000)
	var pgReplayLog *subscription.PostgresReplayLog
	if cfg.ReplayLogURL != "" {
		pgReplay, replayErr := subscription.NewPostgresReplayLog(ctx, cfg.ReplayLogURL)
		if replayErr != nil {
			log.Warn().Err(replayErr).Msg("⚠️  postgres replay log init failed, falling back to in-memory replay")
		} else {
			replay = pgReplay
			pgReplayLog = pgReplay
		}
	}
	subs := subscription.NewManager(replay)

	lg := logos.New(aliases, nodes, cont, archetypes, subs,
		cfg.Budget.Initial, cfg.Budget.Max, cfg.Budget.RefillRate)
	log.Info().Msg("✅ resolver initialized")

	if cfg.SpecRoot != "" && cfg.ImplRoot != "" {
		if discovery, audit, auditErr := specgraph.FullAudit(cfg.SpecRoot, cfg.ImplRoot); auditErr != nil {
			log.Warn().Err(auditErr).Msg("⚠️  spec/impl audit failed")
		} else {
			drifted := 0
			for _, entry := range audit.Entries {
				if entry.Status != specgraph.Aligned {
					drifted++
				}
			}
			log.Info().
				Int("specs", len(discovery.SpecPaths)).
				Int("impls", len(discovery.ImplPaths)).
				Int("drifted", drifted).
				Msg("✅ spec/impl audit complete")
		}
	}

	var ledger budget.LedgerStore
	if cfg.LedgerURL != "" {
		pgLedger, ledgerErr := budget.NewPostgresLedger(ctx, cfg.LedgerURL)
		if ledgerErr != nil {
			log.Warn().Err(ledgerErr).Msg("⚠️  postgres ledger init failed, accounts stay in-memory only")
		} else {
			ledger = pgLedger
		}
	}
	lg.Ledger = ledger

	resolvers := gateway.NewResolverChain()

	router := gateway.NewRouter(cfg, &gateway.Router{
		Logos:     lg,
		Nodes:     nodes,
		Version:   cfg.Version,
		Prefix:    "/a",
		Resolvers: resolvers,
		Aliases:   aliases,
	})

	return &Server{
		Handler:       router,
		Logos:         lg,
		Nodes:         nodes,
		Aliases:       aliases,
		Archetypes:    archetypes,
		Subscriptions: subs,
		Resolvers:     resolvers,
		Ledger:        ledger,
		replayLog:     pgReplayLog,
		Config:        cfg,
		Port:          cfg.Port,
		shutdownFunc:  shutdown,
	}, nil
}

// Shutdown flushes telemetry and closes the ledger and replay-log
// connections, if any. Should be called on graceful shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.Ledger != nil {
		if err := s.Ledger.Close(ctx); err != nil {
			return err
		}
	}
	if s.replayLog != nil {
		if err := s.replayLog.Close(ctx); err != nil {
			return err
		}
	}
	if s.shutdownFunc != nil {
		return s.shutdownFunc(ctx)
	}
	return nil
}
