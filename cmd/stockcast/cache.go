package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/pkg/logger"
)

func clearCacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear-cache",
		Usage: "Drop every cached demand forecast from Redis",
		Action: func(c *cli.Context) error {
			cfg := configFrom(c).Cache
			if !cfg.Enabled {
				return fmt.Errorf("CACHE_ENABLED is false, nothing to clear")
			}
			fc, err := cache.NewForecastCache(cfg)
			if err != nil {
				return err
			}
			if err := fc.InvalidateAll(c.Context); err != nil {
				return err
			}
			logger.Log.Info().Msg("forecast cache cleared")
			return nil
		},
	}
}
