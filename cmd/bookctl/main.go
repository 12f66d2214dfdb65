package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/booklibrary/backend/internal/config"
	"github.com/booklibrary/backend/internal/database"
	"github.com/booklibrary/backend/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env is what every command needs once configuration is loaded
type env struct {
	cfg    *config.Config
	db     *sql.DB
	logger *zap.Logger
}

func (e *env) close() {
	e.db.Close()
	e.logger.Sync()
}

// setup loads configuration, connects to the database and applies migrations
func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &env{cfg: cfg, db: db, logger: log}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookctl",
		Short:         "Operator tools for the book library service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCreateAdminCmd(), newImportBooksCmd())
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
