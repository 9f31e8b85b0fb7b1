package main

import (
	"fmt"

	"github.com/OFFIS-RIT/studymap/internal/util"
	pgstore "github.com/OFFIS-RIT/studymap/pkg/store/pgx"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the Postgres embedding cache",
}

var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply embedding cache migrations to DATABASE_URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL, err := cacheDatabaseURL()
		if err != nil {
			return err
		}
		if err := pgstore.Migrate(databaseURL); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached embeddings older than --days for --model",
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL, err := cacheDatabaseURL()
		if err != nil {
			return err
		}
		model, _ := cmd.Flags().GetString("model")
		days, _ := cmd.Flags().GetInt("days")
		if model == "" {
			model = util.GetEnv("AI_EMBED_MODEL")
		}
		if model == "" {
			return fmt.Errorf("--model or AI_EMBED_MODEL is required")
		}

		pool, err := pgstore.NewPool(cmd.Context(), databaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := pgstore.NewEmbeddingCache(pool).Prune(cmd.Context(), model, days)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d cached embeddings\n", n)
		return nil
	},
}

func cacheDatabaseURL() (string, error) {
	databaseURL := util.GetEnv("DATABASE_URL")
	if databaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL is not set")
	}
	return databaseURL, nil
}

func init() {
	cachePruneCmd.Flags().String("model", "", "embedding model (default: AI_EMBED_MODEL)")
	cachePruneCmd.Flags().Int("days", 30, "delete entries older than this many days")

	cacheCmd.AddCommand(cacheMigrateCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
