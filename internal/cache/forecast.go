package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/forecast"
	"github.com/andresuchdata/stockcast/internal/pipeline/purchase"
)

// DemandKey identifies one forecast: the same usage history forecast with the
// same settings always yields the same demand.
type DemandKey struct {
	Series   domain.SeriesKey
	Last     time.Time
	Usage    []float64
	Horizon  int
	Model    string
	TestSize int
	Params   forecast.Params
}

type ForecastCache interface {
	GetDemand(ctx context.Context, key DemandKey) (purchase.Demand, bool, error)
	SetDemand(ctx context.Context, key DemandKey, demand purchase.Demand) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	store *demandStore
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	store, err := openDemandStore(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{store: store}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetDemand(ctx context.Context, key DemandKey) (purchase.Demand, bool, error) {
	payload, ok, err := c.store.load(ctx, demandKeyHash(key))
	if err != nil || !ok {
		return purchase.Demand{}, false, err
	}

	demand, err := decodeDemand(payload)
	if err != nil {
		return purchase.Demand{}, false, err
	}
	return demand, true, nil
}

func (c *redisForecastCache) SetDemand(ctx context.Context, key DemandKey, demand purchase.Demand) error {
	payload, err := encodeDemand(demand)
	if err != nil {
		return err
	}

	return c.store.save(ctx, demandKeyHash(key), payload)
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	_, err := c.store.purge(ctx)
	return err
}

func (n *noopForecastCache) GetDemand(ctx context.Context, key DemandKey) (purchase.Demand, bool, error) {
	return purchase.Demand{}, false, nil
}

func (n *noopForecastCache) SetDemand(ctx context.Context, key DemandKey, demand purchase.Demand) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func demandKeyHash(key DemandKey) string {
	usage := make([]string, len(key.Usage))
	for i, v := range key.Usage {
		usage[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	parts := []string{
		"series=" + key.Series.String(),
		"last=" + key.Last.UTC().Format(time.RFC3339),
		"usage=" + strings.Join(usage, ","),
		"horizon=" + strconv.Itoa(key.Horizon),
		"model=" + strings.ToLower(strings.TrimSpace(key.Model)),
		"test_size=" + strconv.Itoa(key.TestSize),
		fmt.Sprintf("params=%+v", key.Params),
	}

	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

type demandPayload struct {
	Points    []pointPayload    `json:"points"`
	Model     string            `json:"model"`
	Strategy  string            `json:"strategy"`
	Selection *selectionPayload `json:"selection,omitempty"`
}

type pointPayload struct {
	Period time.Time     `json:"period"`
	Demand domain.Number `json:"demand"`
}

type selectionPayload struct {
	Model   string                     `json:"model"`
	Skipped bool                       `json:"skipped"`
	Reason  string                     `json:"reason"`
	Metrics map[string]accuracyPayload `json:"metrics"`
}

type accuracyPayload struct {
	MAPE domain.Number `json:"mape"`
	MAE  domain.Number `json:"mae"`
	RMSE domain.Number `json:"rmse"`
	Bias domain.Number `json:"bias"`
}

func encodeDemand(d purchase.Demand) ([]byte, error) {
	p := demandPayload{Model: d.Model, Strategy: d.Strategy}
	for _, pt := range d.Points {
		p.Points = append(p.Points, pointPayload{Period: pt.Period, Demand: domain.Number(pt.Demand)})
	}
	if d.Selection != nil {
		sel := &selectionPayload{
			Model:   d.Selection.Model.String(),
			Skipped: d.Selection.Skipped,
			Reason:  d.Selection.Reason,
			Metrics: make(map[string]accuracyPayload, len(d.Selection.Metrics)),
		}
		for kind, acc := range d.Selection.Metrics {
			sel.Metrics[kind.String()] = accuracyPayload{
				MAPE: domain.Number(acc.MAPE),
				MAE:  domain.Number(acc.MAE),
				RMSE: domain.Number(acc.RMSE),
				Bias: domain.Number(acc.Bias),
			}
		}
		p.Selection = sel
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode forecast cache: %w", err)
	}
	return payload, nil
}

func decodeDemand(payload []byte) (purchase.Demand, error) {
	var p demandPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return purchase.Demand{}, fmt.Errorf("decode forecast cache: %w", err)
	}

	d := purchase.Demand{Model: p.Model, Strategy: p.Strategy}
	for _, pt := range p.Points {
		d.Points = append(d.Points, domain.DemandPoint{Period: pt.Period, Demand: float64(pt.Demand)})
	}
	if p.Selection != nil {
		model, err := forecast.ParseKind(p.Selection.Model)
		if err != nil {
			return purchase.Demand{}, fmt.Errorf("decode forecast cache: %w", err)
		}
		sel := &forecast.Selection{
			Model:   model,
			Skipped: p.Selection.Skipped,
			Reason:  p.Selection.Reason,
			Metrics: make(map[forecast.Kind]forecast.Accuracy, len(p.Selection.Metrics)),
		}
		for name, acc := range p.Selection.Metrics {
			kind, err := forecast.ParseKind(name)
			if err != nil {
				return purchase.Demand{}, fmt.Errorf("decode forecast cache: %w", err)
			}
			sel.Metrics[kind] = forecast.Accuracy{
				MAPE: float64(acc.MAPE),
				MAE:  float64(acc.MAE),
				RMSE: float64(acc.RMSE),
				Bias: float64(acc.Bias),
			}
		}
		d.Selection = sel
	}
	return d, nil
}
