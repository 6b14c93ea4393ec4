package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"oc-checklist-service/internal/app"
	"oc-checklist-service/internal/catalog"
	"oc-checklist-service/internal/domain"
	pgstore "oc-checklist-service/internal/infra/postgres"
	pgmigrations "oc-checklist-service/internal/infra/postgres/migrations"
	infraredis "oc-checklist-service/internal/infra/redis"
)

func TestSubmitEvaluationEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgstore.NewChecklistLoader(pool)
	checklist := catalog.Default()
	if err := loader.SaveChecklist(ctx, checklist); err != nil {
		t.Fatalf("seed checklist: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	checklists := infraredis.NewChecklistRepository(redisClient, loader, 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	records := pgstore.NewRecordStore(pool)
	service := app.NewEvaluationService(sessions, checklists, records)

	ev, err := service.Start(ctx, catalog.DefaultID, "auditor-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, cat := range checklist.Categories {
		for _, sec := range cat.Sections {
			for _, item := range sec.Items {
				answer := domain.AnswerYes
				if item.ID == "M1.2" {
					answer = domain.AnswerNo
				}
				if _, err := service.Answer(ctx, ev.ID, item.ID, answer); err != nil {
					t.Fatalf("answer %s: %v", item.ID, err)
				}
			}
		}
	}

	_, err = service.Submit(ctx, ev.ID, app.SubmitOptions{})
	var missing *domain.MissingEvidenceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected evidence warning, got %v", err)
	}

	locked, err := service.Submit(ctx, ev.ID, app.SubmitOptions{ConfirmMissingEvidence: true})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if locked.State != domain.StateLocked {
		t.Fatalf("expected locked, got %s", locked.State)
	}

	record, err := records.GetRecord(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Report.Total.Missed != 2 || record.Report.Total.Rank != domain.RankSAT {
		t.Fatalf("unexpected record total: %+v", record.Report.Total)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "oc", "POSTGRES_PASSWORD": "ocpass", "POSTGRES_DB": "ocdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://oc:ocpass@%s:%s/ocdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
