package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"oc-checklist-service/internal/catalog"
	"oc-checklist-service/internal/config"
	"oc-checklist-service/internal/domain"
	pgstore "oc-checklist-service/internal/infra/postgres"
	redisstore "oc-checklist-service/internal/infra/redis"
	"oc-checklist-service/internal/qsc"
)

// NewImportCmd validates a checklist taxonomy and stores it in Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var file, formFile string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a checklist (or QSC form) file and upsert it into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			checklist, err := readChecklistSource(file, formFile)
			if err != nil {
				return err
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgstore.NewChecklistLoader(pool).SaveChecklist(cmd.Context(), checklist); err != nil {
				return err
			}
			if cfg.Redis.Addr != "" {
				if err := invalidateCachedChecklist(cmd.Context(), cfg, checklist.ID); err != nil {
					log.Printf("invalidate cached checklist %s: %v", checklist.ID, err)
				}
			}
			log.Printf("imported checklist %s (%d categories)", checklist.ID, len(checklist.Categories))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "checklist taxonomy JSON file")
	cmd.Flags().StringVar(&formFile, "form", "", "QSC form JSON file")
	cmd.MarkFlagsMutuallyExclusive("file", "form")
	cmd.MarkFlagsOneRequired("file", "form")
	return cmd
}

// invalidateCachedChecklist drops the shared Redis copy so running servers
// pick up the imported taxonomy on their next read.
func invalidateCachedChecklist(ctx context.Context, cfg config.Config, checklistID string) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()
	return redisstore.NewChecklistRepository(client, nil, 0).Invalidate(ctx, checklistID)
}

// readChecklistSource loads a checklist from a taxonomy file, a QSC form file,
// or the built-in catalog when both are empty.
func readChecklistSource(file, formFile string) (domain.Checklist, error) {
	switch {
	case file != "":
		return catalog.LoadFile(file)
	case formFile != "":
		data, err := os.ReadFile(formFile)
		if err != nil {
			return domain.Checklist{}, fmt.Errorf("read form %s: %w", formFile, err)
		}
		var form qsc.Form
		if err := json.Unmarshal(data, &form); err != nil {
			return domain.Checklist{}, fmt.Errorf("decode form: %w", err)
		}
		checklist := form.Checklist()
		if err := catalog.Validate(checklist); err != nil {
			return domain.Checklist{}, err
		}
		return checklist, nil
	default:
		return catalog.Default(), nil
	}
}
