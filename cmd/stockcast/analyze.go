package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/export"
	"github.com/andresuchdata/stockcast/internal/ingest"
	"github.com/andresuchdata/stockcast/internal/metrics"
	"github.com/andresuchdata/stockcast/internal/pipeline"
	"github.com/andresuchdata/stockcast/internal/repository"
	"github.com/andresuchdata/stockcast/internal/service"
	"github.com/andresuchdata/stockcast/internal/storage"
	"github.com/andresuchdata/stockcast/internal/table"
	"github.com/andresuchdata/stockcast/pkg/logger"
)

type analyzeOptions struct {
	HistoryPath string
	DemandPath  string
	ColumnsPath string
	OutDir      string
	Upload      bool
	Params      domain.Params
}

// columnMapping is the layout of the --columns file.
type columnMapping struct {
	History *table.HistoryColumns `json:"history"`
	Demand  *table.DemandColumns  `json:"demand"`
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Compute historical metrics and purchase recommendations from sheets on disk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "history",
				Usage:    "Historical inventory sheet (.csv or .xlsx)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "demand",
				Usage: "Planned future demand sheet; switches to manual mode",
			},
			&cli.StringFlag{
				Name:  "columns",
				Usage: "JSON file mapping column roles to sheet headers",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Directory for the result tables (defaults to APP_DATA_DIR)",
			},
			&cli.BoolFlag{
				Name:  "upload",
				Usage: "Also upload the result tables to the configured object storage",
			},
			&cli.StringFlag{Name: "model", Usage: "auto, naive, moving_average, ses, holt_winters or sarima"},
			&cli.StringFlag{Name: "convention", Usage: "auto, positive, negative or abs"},
			&cli.IntFlag{Name: "horizon", Usage: "Months to forecast in auto mode"},
			&cli.IntFlag{Name: "seasonal-periods", Usage: "Season length in months"},
			&cli.IntFlag{Name: "test-size", Usage: "Months held out for backtesting"},
			&cli.Float64Flag{Name: "interest-rate", Usage: "Annual interest rate in percent"},
			&cli.Float64Flag{Name: "lead-time-days", Usage: "Replenishment lead time in days"},
			&cli.Float64Flag{Name: "safety-fraction", Usage: "Safety stock as a fraction of demand"},
		},
		Action: func(c *cli.Context) error {
			cfg := configFrom(c)
			opts := analyzeOptions{
				HistoryPath: c.String("history"),
				DemandPath:  c.String("demand"),
				ColumnsPath: c.String("columns"),
				OutDir:      c.String("out"),
				Upload:      c.Bool("upload"),
				Params:      paramsFromFlags(c, cfg.Analysis.Params()),
			}
			if opts.OutDir == "" {
				opts.OutDir = cfg.App.DataDir
			}
			return runAnalyze(c.Context, cfg, opts, c.App.Writer)
		},
	}
}

// paramsFromFlags overrides base with the flags the caller set.
func paramsFromFlags(c *cli.Context, base domain.Params) domain.Params {
	p := base
	if c.IsSet("model") {
		p.Model = c.String("model")
	}
	if c.IsSet("convention") {
		p.Convention = domain.Convention(c.String("convention"))
	}
	if c.IsSet("horizon") {
		p.Horizon = c.Int("horizon")
	}
	if c.IsSet("seasonal-periods") {
		p.SeasonalPeriods = c.Int("seasonal-periods")
	}
	if c.IsSet("test-size") {
		p.TestSize = c.Int("test-size")
	}
	if c.IsSet("interest-rate") {
		p.InterestRate = c.Float64("interest-rate")
	}
	if c.IsSet("lead-time-days") {
		p.LeadTimeDays = c.Float64("lead-time-days")
	}
	if c.IsSet("safety-fraction") {
		p.SafetyFraction = c.Float64("safety-fraction")
	}
	return p
}

func loadColumns(path string) (table.HistoryColumns, table.DemandColumns, error) {
	hist, demand := table.DefaultHistoryColumns(), table.DefaultDemandColumns()
	if path == "" {
		return hist, demand, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return hist, demand, fmt.Errorf("failed to read column mapping: %w", err)
	}
	var m columnMapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return hist, demand, fmt.Errorf("failed to parse column mapping %s: %w", path, err)
	}
	if m.History != nil {
		hist = *m.History
	}
	if m.Demand != nil {
		demand = *m.Demand
	}
	return hist, demand, nil
}

func runAnalyze(ctx context.Context, cfg *config.Config, opts analyzeOptions, out io.Writer) error {
	// 1. Read the input sheets
	histCols, demandCols, err := loadColumns(opts.ColumnsPath)
	if err != nil {
		return err
	}
	history, err := ingest.HistoryFile(opts.HistoryPath, histCols)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	var demand []domain.DemandSeries
	if opts.DemandPath != "" {
		if demand, err = ingest.DemandFile(opts.DemandPath, demandCols); err != nil {
			return fmt.Errorf("failed to load demand: %w", err)
		}
	}
	logger.Log.Info().
		Int("series", len(history)).
		Int("demand_series", len(demand)).
		Msg("input loaded")

	// 2. Wire a one-shot service
	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("forecast cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}
	var store storage.ObjectStorage
	if opts.Upload {
		if store, err = storage.New(cfg.Storage); err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("--upload needs STORAGE_PROVIDER to be set")
		}
	}
	runner := pipeline.NewRunner(service.RunnerConfig(cfg.Analysis), metrics.Observer{}, forecastCache)
	svc := service.NewAnalysisService(runner, repository.NewMemoryRepository(), store, service.Options{
		Defaults:      cfg.Analysis.Params(),
		StoragePrefix: cfg.Storage.Prefix,
	})

	// 3. Run
	rep, err := svc.Analyze(ctx, service.Request{
		History:      history,
		FutureDemand: demand,
		Params:       opts.Params,
	})
	if err != nil {
		return err
	}

	// 4. Write the result tables
	if err := writeResults(opts.OutDir, rep.Result); err != nil {
		return err
	}
	logger.Log.Info().
		Str("run_id", rep.Run.ID).
		Str("mode", string(rep.Result.Mode)).
		Str("dir", opts.OutDir).
		Str("export", rep.Run.ExportLocation).
		Msg("analysis written")

	fmt.Fprintln(out, rep.Result.HistoricalExplanation)
	fmt.Fprintln(out)
	fmt.Fprintln(out, rep.Result.ForecastExplanation)
	return nil
}

func writeResults(dir string, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}

	files, err := export.Files(res.Metrics, res.Recommendations)
	if err != nil {
		return err
	}
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
