package weather

import (
	"context"
)

// Provider abstracts a single weather data source (e.g. Open-Meteo).
// Implementations make exactly one attempt per call.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, coords Coordinates) (Snapshot, error)
}
