package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"lexrag/config"
	"lexrag/internal/adapter/store"
	"lexrag/internal/metrics"
	"lexrag/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index [law...]",
	Short: "Build the vector index from chunk files",
	Long: `Rebuild the judgment collection from the preprocessed chunk files.
Every listed law type is deleted from the collection and re-added.

Examples:
  lexrag index          # all configured law types
  lexrag index 민법 상법`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	lawTypes, err := selectLawTypes(cfg, args)
	if err != nil {
		return err
	}

	var cl closers
	defer cl.Close()

	embedder, err := newEmbedder(ctx, cfg, &cl)
	if err != nil {
		return err
	}
	var st *store.BoltStore
	coll, err := openIndex(ctx, cfg, embedder, func(bs *store.BoltStore) error {
		st = bs
		return checkMigration(bs, cfg)
	}, &cl)
	if err != nil {
		return err
	}

	uc := usecase.NewIndexUseCase(coll, cfg.Corpus, cfg.Index.PublicRatio, metrics.New(), logger.Named("index"))

	bar := newProgressBar(len(lawTypes), "Indexing")
	start := time.Now()
	done := 0
	results, err := uc.Rebuild(ctx, lawTypes, func(r usecase.IndexResult) {
		done++
		_ = bar.Add(1)

		// Calculate and display ETA
		perLaw := time.Since(start) / time.Duration(done)
		eta := perLaw * time.Duration(len(lawTypes)-done)
		bar.Describe(fmt.Sprintf("[cyan]Indexing[reset] %s ETA: %s", r.LawType, formatDuration(eta)))
	})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if st != nil {
		if err := st.Migrate(cfg); err != nil {
			return fmt.Errorf("failed to update schema info: %w", err)
		}
	}

	total, err := uc.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nIndexing complete:\n")
	for _, r := range results {
		switch {
		case r.Skipped:
			fmt.Printf("  %-10s skipped (chunk file not found)\n", r.LawType)
		case r.Expected > 0 && r.Chunks != r.Expected:
			fmt.Printf("  %-10s %4d added / %d chunks (expected %d)\n", r.LawType, r.Added, r.Chunks, r.Expected)
		default:
			fmt.Printf("  %-10s %4d added / %d chunks\n", r.LawType, r.Added, r.Chunks)
		}
	}
	fmt.Printf("  Documents in collection: %d (%s)\n", total, formatDuration(time.Since(start)))
	fmt.Printf("\nIndex stored at: %s\n", indexLocation())
	return nil
}

// checkMigration clears the bolt index when its embedding settings changed and
// upgrades the schema otherwise.
func checkMigration(st *store.BoltStore, cfg *config.Config) error {
	migrationResult, err := st.CheckMigration(cfg)
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}

	if migrationResult.NeedsRebuild {
		fmt.Printf("Index rebuild required: %s\n", migrationResult.Reason)
		fmt.Println("Clearing existing index...")
		if err := st.Clear(); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	} else if migrationResult.NeedsMigration {
		fmt.Printf("Running schema migration: %s\n", migrationResult.Reason)
		if err := st.Migrate(cfg); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func indexLocation() string {
	cfg := GetConfig()
	if cfg.Index.Backend == "pgvector" {
		return fmt.Sprintf("postgres (%s), collection %s", cfg.Index.PostgresEnv, cfg.Index.Collection)
	}
	return fmt.Sprintf("%s, collection %s", cfg.Index.Path, cfg.Index.Collection)
}
