package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockcast/internal/repository/postgres"
	"github.com/andresuchdata/stockcast/pkg/logger"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db-url",
				Usage:   "Database connection string (defaults to the DB_* settings)",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Directory containing the migration scripts",
				Value: "./scripts/migrations",
			},
		},
		Action: func(c *cli.Context) error {
			url := c.String("db-url")
			if url == "" {
				url = postgres.URL(&configFrom(c).Database)
			}

			applied, err := postgres.Migrate(c.Context, url, c.String("dir"))
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if len(applied) == 0 {
				logger.Log.Info().Msg("database is up to date")
				return nil
			}
			logger.Log.Info().Strs("applied", applied).Msg("migrations applied")
			return nil
		},
	}
}
