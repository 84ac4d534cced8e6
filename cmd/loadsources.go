package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lunbi/lunbi/db"
	"github.com/lunbi/lunbi/internal/config"
	"github.com/lunbi/lunbi/internal/database"
	"github.com/lunbi/lunbi/internal/log"
	"github.com/lunbi/lunbi/internal/source"
)

var loadSourcesCmd = &cobra.Command{
	Use:   "load-sources [csv file]",
	Short: "Load the article catalog into the sources table",
	Long: `Load the article catalog from a CSV file with a title,url,md_filename
header row. Existing records are updated in place, keyed by md_filename.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoadSources,
}

func init() {
	rootCmd.AddCommand(loadSourcesCmd)
}

func runLoadSources(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := log.New(log.Config{Level: slog.LevelInfo, JSON: cfg.LogJSON})

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()

	store := source.NewStore(pool, logger.With("component", "source"))

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading catalog header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"title", "url", "md_filename"} {
		if _, ok := col[required]; !ok {
			return fmt.Errorf("catalog is missing required column %q", required)
		}
	}

	var loaded int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading catalog row: %w", err)
		}

		title, url, filename := row[col["title"]], row[col["url"]], row[col["md_filename"]]
		if title == "" || url == "" || filename == "" {
			logger.Warn("skipping incomplete catalog row", "row", row)
			continue
		}

		if _, err := store.Upsert(ctx, title, url, filename); err != nil {
			return fmt.Errorf("upserting source %q: %w", filename, err)
		}
		loaded++
	}

	logger.Info("catalog loaded", "sources", loaded)
	fmt.Printf("loaded %d sources\n", loaded)
	return nil
}
