package assets

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/gltut/pkg/formats"
)

// Result holds the outcome of decoding one asset.
type Result struct {
	Asset    Asset
	Summary  string
	Err      error
	Duration time.Duration
}

// OK reports whether the asset decoded cleanly.
func (r Result) OK() bool {
	return r.Err == nil
}

// Validate decodes every scanned asset using a pool of workers, bypassing the
// cache. Results are in scan order. The returned error combines every
// per-asset failure and is nil when all assets decoded.
func (m *Manager) Validate(ctx context.Context, workers int) ([]Result, error) {
	assets, err := m.Scan()
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(assets))
	var processed atomic.Int64
	start := time.Now()

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = validateAsset(assets[idx])
				processed.Add(1)
			}
		}()
	}

	fed := 0
feed:
	for ; fed < len(assets); fed++ {
		select {
		case jobs <- fed:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	// Anything not handed to a worker is reported as cancelled.
	for i := fed; i < len(assets); i++ {
		results[i] = Result{Asset: assets[i], Err: ctx.Err()}
	}

	var errs error
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Asset.Name, r.Err))
		}
	}

	m.log.Info("validation finished",
		zap.Int("assets", len(assets)),
		zap.Int64("decoded", processed.Load()),
		zap.Int("failed", failed),
		zap.Int("workers", workers),
		zap.Duration("elapsed", time.Since(start)),
	)

	return results, errs
}

func validateAsset(a Asset) Result {
	start := time.Now()
	v, err := decode(a.Path, a.Kind)
	r := Result{Asset: a, Err: err, Duration: time.Since(start)}
	if err == nil {
		r.Summary = Describe(v)
	}
	return r
}

// Describe returns a one-line summary of a decoded asset.
func Describe(v any) string {
	switch a := v.(type) {
	case *formats.BMP:
		return fmt.Sprintf("%dx%d, %d pixel bytes", a.Width, a.Height, len(a.Pixels))
	case *formats.OBJ:
		return fmt.Sprintf("%d triangles, %d face vertices", a.FaceCount(), len(a.Positions))
	default:
		return fmt.Sprintf("%T", v)
	}
}
