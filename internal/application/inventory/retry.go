package inventory

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// RetryPolicy reintentos con backoff exponencial y jitter, solo ante contención.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// backoff espera para el intento n (1 = primer reintento), con jitter en [d/2, d].
func (p RetryPolicy) backoff(n int) time.Duration {
	if p.BaseBackoff <= 0 {
		return 0
	}
	d := p.BaseBackoff << (n - 1)
	if d <= 0 || (p.MaxBackoff > 0 && d > p.MaxBackoff) {
		d = p.MaxBackoff
	}
	half := d / 2
	return half + rand.N(half+1)
}

// retryOnContention ejecuta fn hasta MaxAttempts veces mientras el error sea de contención.
// Errores de negocio y cancelaciones se devuelven de inmediato.
func retryOnContention(ctx context.Context, p RetryPolicy, fn func(attempt int) error, onRetry func(attempt int, wait time.Duration, err error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(attempt)
		if err == nil || !domain.IsRetryable(err) || attempt == attempts {
			return err
		}
		wait := p.backoff(attempt)
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return err
}
