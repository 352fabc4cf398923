// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"stocklab/internal/models"
)

// BarStore defines the interface for the local bar cache.
type BarStore interface {
	SaveBars(ctx context.Context, symbol, timeframe string, bars []models.Bar) error
	GetBars(ctx context.Context, symbol, timeframe string, from, to string) ([]models.Bar, error)
	LastFetched(ctx context.Context, symbol, timeframe string) (time.Time, error)
	SetLastFetched(ctx context.Context, symbol, timeframe string, t time.Time) error
	Close() error
}
