package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrAllCredentialsExhausted is returned once every credential in the
	// pool has failed with a quota error.
	ErrAllCredentialsExhausted = errors.New("all credentials exhausted")

	// ErrNoCredentials is returned by a pool built without credentials.
	ErrNoCredentials = fmt.Errorf("%w: no credentials configured", ErrAllCredentialsExhausted)

	// ErrQuotaExceeded marks an error as quota or rate-limit class. Adapters
	// wrap provider errors with it so the pool knows to switch credentials.
	ErrQuotaExceeded = errors.New("credential quota exceeded")
)

// DefaultSwitchInterval is the minimum spacing between two credential switches.
const DefaultSwitchInterval = 500 * time.Millisecond

// IsQuotaError reports whether err is marked with ErrQuotaExceeded.
func IsQuotaError(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// Options configures a Pool.
type Options struct {
	// SwitchInterval spaces out consecutive switches. Zero means
	// DefaultSwitchInterval; a negative value disables pacing.
	SwitchInterval time.Duration

	// IsQuotaError classifies op errors. Defaults to IsQuotaError.
	IsQuotaError func(error) bool

	Logger *slog.Logger
}

// Status is a point-in-time view of the pool cursor.
type Status struct {
	Active    int  `json:"active"`
	Total     int  `json:"total"`
	Exhausted bool `json:"exhausted"`
}

// Pool hands out credentials in order. The cursor only moves forward.
type Pool struct {
	mu      sync.Mutex
	creds   []string
	cursor  int
	limiter *rate.Limiter
	isQuota func(error) bool
	logger  *slog.Logger
}

// NewPool creates a pool over creds, ignoring blank entries.
func NewPool(creds []string, opts Options) *Pool {
	cleaned := make([]string, 0, len(creds))
	for _, c := range creds {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}

	interval := opts.SwitchInterval
	if interval == 0 {
		interval = DefaultSwitchInterval
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	isQuota := opts.IsQuotaError
	if isQuota == nil {
		isQuota = IsQuotaError
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Pool{
		creds:   cleaned,
		limiter: rate.NewLimiter(limit, 1),
		isQuota: isQuota,
		logger:  logger.With("component", "credential_pool"),
	}
}

// Invoke runs op with the active credential. A quota error advances the
// cursor and op is retried with the next credential; any other error is
// returned as-is without advancing. When the last credential fails with a
// quota error the returned error wraps ErrAllCredentialsExhausted and the
// op error.
func (p *Pool) Invoke(ctx context.Context, op func(ctx context.Context, credential string) error) error {
	for {
		idx, cred, err := p.current()
		if err != nil {
			return err
		}

		opErr := op(ctx, cred)
		if opErr == nil {
			return nil
		}
		if !p.isQuota(opErr) {
			return opErr
		}

		if p.advance(idx) {
			p.logger.Warn("credential quota exhausted, switching",
				"credential_index", idx,
				"next_index", idx+1,
				"total", len(p.creds))
		}

		if p.Status().Exhausted {
			p.logger.Error("all credentials exhausted", "total", len(p.creds))
			return fmt.Errorf("%w: %w", ErrAllCredentialsExhausted, opErr)
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting to switch credential: %w", err)
		}
	}
}

// Status returns the current cursor position.
func (p *Pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Active:    p.cursor,
		Total:     len(p.creds),
		Exhausted: p.cursor >= len(p.creds),
	}
}

func (p *Pool) current() (int, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.creds) == 0 {
		return 0, "", ErrNoCredentials
	}
	if p.cursor >= len(p.creds) {
		return p.cursor, "", ErrAllCredentialsExhausted
	}
	return p.cursor, p.creds[p.cursor], nil
}

// advance moves the cursor past failed, unless another caller already did.
func (p *Pool) advance(failed int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor != failed {
		return false
	}
	p.cursor++
	return true
}
