package tabroom

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// step is one strategy of a fallback chain.
type step[T any] struct {
	name string
	run  func(ctx context.Context) (T, error)
}

// runChain tries steps in order and returns the first success. A login wall
// stops the chain at once since no later step can get past it. Any other
// failure is logged and the next step runs. When nothing succeeds the result
// is ErrNotFound, unless every step that reached the network failed in
// transport, in which case that transport error is returned.
func runChain[T any](ctx context.Context, log *zap.Logger, chain string, steps []step[T]) (T, error) {
	var zero T
	var lastTransport error
	reached := false

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return zero, crerr.Mark(crerr.Wrap(err, chain), ErrUpstreamUnavailable)
		}
		v, err := s.run(ctx)
		switch {
		case err == nil:
			strategyResults.WithLabelValues(chain, s.name, "hit").Inc()
			log.Debug("strategy hit", zap.String("chain", chain), zap.String("strategy", s.name))
			return v, nil
		case crerr.Is(err, errSkip):
			strategyResults.WithLabelValues(chain, s.name, "skip").Inc()
			continue
		case crerr.Is(err, ErrSessionInvalid):
			strategyResults.WithLabelValues(chain, s.name, "session_invalid").Inc()
			log.Info("login wall during chain", zap.String("chain", chain), zap.String("strategy", s.name))
			return zero, err
		case crerr.Is(err, ErrUpstreamUnavailable):
			strategyResults.WithLabelValues(chain, s.name, "error").Inc()
			lastTransport = err
		default:
			strategyResults.WithLabelValues(chain, s.name, "miss").Inc()
			reached = true
		}
		log.Debug("strategy failed", zap.String("chain", chain), zap.String("strategy", s.name), zap.Error(err))
	}

	if lastTransport != nil && !reached {
		return zero, lastTransport
	}
	return zero, notFoundf("%s: no strategy succeeded", chain)
}
