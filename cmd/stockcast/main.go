package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/pkg/logger"
)

const configKey = "config"

func loadConfig(c *cli.Context) error {
	cfg := config.Load()
	logger.SetFormat(cfg.Log.Format)
	logger.SetLevel(cfg.Log.Level)
	if c.Bool("verbose") {
		logger.SetLevel("debug")
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Load()
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "stockcast",
		Usage:    "Inventory analytics and purchase recommendations",
		Metadata: map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: loadConfig,
		Commands: []*cli.Command{
			analyzeCommand(),
			fetchCommand(),
			pullCommand(),
			migrateCommand(),
			clearCacheCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
