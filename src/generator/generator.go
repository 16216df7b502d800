package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"sales-observer/src/logger"
	"sales-observer/src/models"
)

// -----------------------------------------------------------------------------
// Transaction Generator (load/demo feed, push model)
// -----------------------------------------------------------------------------

// regionWeights skews the feed: East and North dominate, Central trails.
var regionWeights = []struct {
	region string
	weight float64
}{
	{"North", 0.25},
	{"South", 0.20},
	{"East", 0.30},
	{"West", 0.15},
	{"Central", 0.10},
}

// Evening/business hours produce larger batches than the small hours.
var peakHours = map[int]bool{
	9: true, 10: true, 11: true, 12: true, 13: true, 14: true,
	15: true, 16: true, 17: true, 18: true, 19: true, 20: true,
}

// -----------------------------------------------------------------------------

type TransactionGenerator struct {
	Config *models.MConfig
	Logger *logger.Logger
	rng    *rand.Rand
}

// -----------------------------------------------------------------------------

func NewTransactionGenerator(cfg *models.MConfig, log *logger.Logger) *TransactionGenerator {
	return &TransactionGenerator{
		Config: cfg,
		Logger: log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// -----------------------------------------------------------------------------

// Start pushes random transaction batches into out at the configured interval
// until ctx is cancelled.
func (g *TransactionGenerator) Start(ctx context.Context, out chan<- []models.MTransaction, wg *sync.WaitGroup) error {
	interval := time.Duration(g.Config.Generator.IntervalSeconds) * time.Second

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		g.Logger.Info("Generator started (batch=%d every %v)", g.Config.Generator.BatchSize, interval)

		for {
			select {
			case <-ticker.C:
				batch := g.GenerateBatch(time.Now())
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				g.Logger.Info("Generator stopped")
				return
			}
		}
	}()

	return nil
}

// -----------------------------------------------------------------------------

// GenerateBatch produces one batch of plausible records, larger during peak
// hours and smaller overnight.
func (g *TransactionGenerator) GenerateBatch(now time.Time) []models.MTransaction {
	size := float64(g.Config.Generator.BatchSize)
	switch {
	case peakHours[now.Hour()]:
		size *= 1.5
	case now.Hour() >= 22 || now.Hour() <= 6:
		size *= 0.8
	}

	n := int(math.Max(1, math.Round(size)))
	batch := make([]models.MTransaction, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, g.generateOne(now))
	}
	return batch
}

// -----------------------------------------------------------------------------

func (g *TransactionGenerator) generateOne(now time.Time) models.MTransaction {
	// Long-tailed value distribution, clamped to the domain bound.
	value := g.rng.ExpFloat64() * 150
	if value < 1 {
		value = 1 + g.rng.Float64()*9
	}
	if value > models.MaxTransactionValue {
		value = models.MaxTransactionValue
	}
	value = math.Round(value*100) / 100

	// Spread timestamps over the last few seconds so the recent-activity
	// window sees gradual growth instead of lockstep batches.
	jitter := time.Duration(g.rng.Int63n(int64(3 * time.Second)))

	return models.MTransaction{
		Category:   models.Categories[g.rng.Intn(len(models.Categories))],
		Value:      value,
		Timestamp:  now.Add(-jitter),
		Region:     g.pickRegion(),
		CustomerID: fmt.Sprintf("CUST_%06d", g.rng.Intn(1000000)),
	}
}

// -----------------------------------------------------------------------------

func (g *TransactionGenerator) pickRegion() string {
	roll := g.rng.Float64()
	acc := 0.0
	for _, rw := range regionWeights {
		acc += rw.weight
		if roll < acc {
			return rw.region
		}
	}
	return regionWeights[len(regionWeights)-1].region
}
