package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/campaign-optimizer/internal/api"
	"github.com/ignite/campaign-optimizer/internal/cache"
	"github.com/ignite/campaign-optimizer/internal/config"
	"github.com/ignite/campaign-optimizer/internal/engine"
	"github.com/ignite/campaign-optimizer/internal/repository/postgres"
	"github.com/ignite/campaign-optimizer/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("[server] config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Rule set: Postgres when a database is configured, otherwise the YAML
	// rules from the config file.
	rules := cfg.Rules
	var ruleRepo *postgres.RuleRepo
	var decisionLog api.DecisionLog
	if cfg.Database.Enabled {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("[server] database: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("[server] database ping: %v", err)
		}

		ruleRepo = postgres.NewRuleRepo(db)
		dbRules, err := ruleRepo.ListEnabled(ctx)
		if err != nil {
			log.Fatalf("[server] loading rules: %v", err)
		}
		if len(dbRules) > 0 {
			rules = dbRules
			log.Printf("[server] loaded %d rules from database", len(dbRules))
		}
		decisionLog = postgres.NewDecisionLogRepo(db)
	}

	eng, err := engine.NewEngine(engine.Options{
		Rules:         rules,
		MonthlyBudget: cfg.Budget.MonthlyTotal,
		Tables:        cfg.BidAdjustments,
	})
	if err != nil {
		log.Fatalf("[server] engine: %v", err)
	}

	var resultCache *cache.ResultCache
	if cfg.Redis.Enabled {
		resultCache, err = cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL())
		if err != nil {
			log.Fatalf("[server] redis: %v", err)
		}
		defer resultCache.Close()
	}

	archive, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("[server] storage: %v", err)
	}

	handlers := api.NewHandlers(eng, resultCache, archive, decisionLog)
	server := api.NewServer(cfg.Server, handlers)

	// Scheduled batches alongside the on-demand API trigger.
	go runScheduledBatches(ctx, cfg.Batch.Interval(), eng, ruleRepo, handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	go func() {
		log.Printf("[server] listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[server] listen: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Printf("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown: %v", err)
		os.Exit(1)
	}
}

// runScheduledBatches triggers a decision pass on a fixed interval and, when
// a rule repository is present, persists the updated execution timestamps so
// frequency gates survive restarts.
func runScheduledBatches(ctx context.Context, interval time.Duration, eng *engine.Engine, ruleRepo *postgres.RuleRepo, handlers *api.Handlers) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if eng.Store().CampaignCount() == 0 && eng.Store().CustomerCount() == 0 {
				continue
			}
			result, err := eng.RunBatch(ctx)
			if err != nil {
				log.Printf("[server] scheduled batch: %v", err)
				continue
			}
			handlers.PersistBatch(ctx, result)
			if ruleRepo != nil {
				if err := ruleRepo.SaveExecutionTimes(ctx, eng.Rules()); err != nil {
					log.Printf("[server] saving rule timestamps: %v", err)
				}
			}
		}
	}
}
