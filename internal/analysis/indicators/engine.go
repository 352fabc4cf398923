// Package indicators provides technical indicator calculations over
// normalized OHLCV series. Every calculation is a pure function of its
// input: outputs are parallel series aligned index-for-index with the
// bars, with explicit undefined values inside warm-up regions.
package indicators

import (
	"context"
	"fmt"
	"sync"

	"stocklab/internal/models"
	"stocklab/internal/series"
)

// Indicator is the interface for single-series indicators. MinBars reports
// the warm-up requirement; with fewer bars the output is entirely
// undefined but still aligned to the input length.
type Indicator interface {
	Name() string
	MinBars() int
	Calculate(bars []models.Bar) series.Series
}

// Engine computes a registered set of indicators in parallel using a
// worker pool. Calculations share nothing but the read-only input slice,
// so no coordination beyond result collection is needed.
type Engine struct {
	workers    int
	indicators map[string]Indicator
	mu         sync.RWMutex
}

// NewEngine creates an engine with the given number of workers.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		workers:    workers,
		indicators: make(map[string]Indicator),
	}
}

// Register adds an indicator to the engine.
func (e *Engine) Register(ind Indicator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indicators[ind.Name()] = ind
}

// CalculateAll calculates every registered indicator in parallel and
// returns the results keyed by indicator name.
func (e *Engine) CalculateAll(ctx context.Context, bars []models.Bar) map[string]series.Series {
	e.mu.RLock()
	pending := make([]Indicator, 0, len(e.indicators))
	for _, ind := range e.indicators {
		pending = append(pending, ind)
	}
	e.mu.RUnlock()

	results := make(map[string]series.Series, len(pending))
	var mu sync.Mutex
	var wg sync.WaitGroup

	work := make(chan Indicator, len(pending))
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ind := range work {
				select {
				case <-ctx.Done():
					return
				default:
					values := ind.Calculate(bars)
					mu.Lock()
					results[ind.Name()] = values
					mu.Unlock()
				}
			}
		}()
	}

	for _, ind := range pending {
		work <- ind
	}
	close(work)
	wg.Wait()

	return results
}

// Calculate calculates a specific registered indicator by name.
func (e *Engine) Calculate(ctx context.Context, name string, bars []models.Bar) (series.Series, error) {
	e.mu.RLock()
	ind, ok := e.indicators[name]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("indicator %s not found", name)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return ind.Calculate(bars), nil
	}
}

// List returns the names of all registered indicators.
func (e *Engine) List() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.indicators))
	for name := range e.indicators {
		names = append(names, name)
	}
	return names
}
