package stabilize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Guard holds the stabilizers acquired for one run.
type Guard struct {
	logger   *slog.Logger
	acquired []Stabilizer
	released bool
}

// Acquire acquires the stabilizers in order. Stabilizers that report
// ErrNotSupported are skipped. If any other acquisition fails, the ones
// already acquired are released in reverse order before returning.
func Acquire(
	ctx context.Context,
	logger *slog.Logger,
	stabilizers ...Stabilizer,
) (*Guard, error) {
	g := &Guard{logger: logger}

	for _, s := range stabilizers {
		err := s.Acquire(ctx)
		if errors.Is(err, ErrNotSupported) {
			logger.WarnContext(ctx, "stabilizer skipped",
				slog.String("stabilizer", s.Name()),
				slog.String("reason", err.Error()),
			)

			continue
		}

		if err != nil {
			return nil, errors.Join(
				fmt.Errorf("acquire %s: %w", s.Name(), err),
				g.Release(ctx),
			)
		}

		logger.InfoContext(ctx, "stabilizer acquired",
			slog.String("stabilizer", s.Name()),
		)

		g.acquired = append(g.acquired, s)
	}

	return g, nil
}

// Active returns the names of the acquired stabilizers.
func (g *Guard) Active() []string {
	if g == nil || g.released {
		return nil
	}

	names := make([]string, len(g.acquired))
	for i, s := range g.acquired {
		names[i] = s.Name()
	}

	return names
}

// Release restores every acquired stabilizer in reverse order. Every
// stabilizer is attempted; failures are joined. Calling Release again is
// a no-op.
func (g *Guard) Release(ctx context.Context) error {
	if g == nil || g.released {
		return nil
	}

	g.released = true

	var errs []error

	for i := len(g.acquired) - 1; i >= 0; i-- {
		s := g.acquired[i]

		if err := s.Release(ctx); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", s.Name(), err))

			continue
		}

		g.logger.InfoContext(ctx, "stabilizer released",
			slog.String("stabilizer", s.Name()),
		)
	}

	return errors.Join(errs...)
}
