package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"oc-checklist-service/internal/app"
	"oc-checklist-service/internal/catalog"
	"oc-checklist-service/internal/config"
	"oc-checklist-service/internal/domain"
	"oc-checklist-service/internal/infra/memory"
	pgstore "oc-checklist-service/internal/infra/postgres"
	redisstore "oc-checklist-service/internal/infra/redis"
	transport "oc-checklist-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the checklist server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	idleTTL := config.TTLDuration(cfg.Evaluation.IdleTTL, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	static, err := staticChecklists(cfg.Checklist.Files)
	if err != nil {
		return err
	}
	var loader memory.ChecklistLoader = memory.NewStaticChecklistLoader(static...)
	if pool != nil {
		loader = memory.ChainLoader{pgstore.NewChecklistLoader(pool), loader}
	}

	checklistTTL := config.TTLDuration(cfg.Checklist.TTL, 10*time.Minute)
	var checklists app.ChecklistRepository
	if redisClient != nil {
		checklists = redisstore.NewChecklistRepository(redisClient, loader, checklistTTL)
	} else {
		checklists = memory.NewChecklistRepository(loader, checklistTTL)
	}

	var sessions sessionStore
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, idleTTL)
	} else {
		sessions = memory.NewSessionStore(idleTTL)
	}
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, sessions, idleTTL/4)

	var records app.RecordStore = memory.NewRecordStore()
	if pool != nil {
		records = pgstore.NewRecordStore(pool)
	}

	service := app.NewEvaluationService(sessions, checklists, records)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	transport.NewRESTHandler(service).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting checklist service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

type sessionStore interface {
	app.SessionRepository
	Sweep(ctx context.Context) int
}

// sweepSessions evicts idle evaluations until ctx is done.
func sweepSessions(ctx context.Context, store sessionStore, every time.Duration) {
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(ctx); n > 0 {
				log.Printf("closed %d idle evaluations", n)
			}
		}
	}
}

// staticChecklists returns the built-in checklist plus any configured taxonomy files.
func staticChecklists(files []string) ([]domain.Checklist, error) {
	checklists := []domain.Checklist{catalog.Default()}
	for _, f := range files {
		checklist, err := catalog.LoadFile(f)
		if err != nil {
			return nil, err
		}
		log.Printf("loaded checklist %s from %s", checklist.ID, f)
		checklists = append(checklists, checklist)
	}
	return checklists, nil
}
