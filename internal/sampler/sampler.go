package sampler

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/kmorrow/bikeweather/internal/pipeline"
	"github.com/kmorrow/bikeweather/pkg/models"
)

// Options configures a sampling run. One of Size or Fraction must be
// positive; when Fraction is set it takes precedence over Size. The seed is
// injected configuration, never a global default, so the same table and
// options always select the same rows.
type Options struct {
	Seed     int64
	Size     int
	Fraction float64
	Logger   *slog.Logger
}

// Sample returns a deterministic uniform subset of the trip table with the
// same columns, preserving source order. An undersized (but non-empty)
// table degrades gracefully: the full table is returned and a warning
// logged. Only an empty table is an error.
func Sample(trips []models.Trip, opts Options) ([]models.Trip, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	n := opts.Size
	if opts.Fraction > 0 {
		n = int(math.Ceil(float64(len(trips)) * opts.Fraction))
	}

	if len(trips) == 0 {
		return nil, &pipeline.InsufficientDataError{Requested: n, Available: 0}
	}

	if n <= 0 {
		return nil, fmt.Errorf("a positive sample size or fraction is required")
	}

	if n >= len(trips) {
		if n > len(trips) {
			log.Warn("sample size exceeds table size, returning full table",
				"requested", n, "available", len(trips))
		}
		out := make([]models.Trip, len(trips))
		copy(out, trips)
		return out, nil
	}

	// A seeded permutation gives a uniform draw without replacement; the
	// selected indices are re-sorted so output keeps the source order.
	rng := rand.New(rand.NewSource(opts.Seed))
	indices := rng.Perm(len(trips))[:n]
	sort.Ints(indices)

	out := make([]models.Trip, 0, n)
	for _, i := range indices {
		out = append(out, trips[i])
	}

	return out, nil
}
