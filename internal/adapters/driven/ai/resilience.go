package ai

import (
	"context"
	"errors"
	"net"
	"regexp"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/logger"
)

// DefaultQueryCacheSize is the number of query embeddings kept in memory.
const DefaultQueryCacheSize = 256

// defaultBackoff is used when the policy has no backoff.
const defaultBackoff = 500 * time.Millisecond

// transientPattern matches provider errors worth retrying.
var transientPattern = regexp.MustCompile(
	`(?i)(timeout|temporarily|try again|unavailable|overloaded|rate limit|too many requests|resource exhausted|\b429\b|\b50[0234]\b)`)

// RetryPolicy retries transient failures with exponential backoff.
// MaxRetries of zero makes a single attempt.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// PolicyFrom builds a policy from settings.
func PolicyFrom(s domain.ResilienceSettings) RetryPolicy {
	return RetryPolicy{MaxRetries: s.MaxRetries, Backoff: s.Backoff}
}

// Do runs fn until it succeeds, fails permanently or retries run out.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	base := p.Backoff
	if base <= 0 {
		base = defaultBackoff
	}
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}

	backoff := retry.WithMaxRetries(uint64(retries), // #nosec G115 -- clamped above
		retry.WithCappedDuration(20*base, retry.NewExponential(base)))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			logger.Debug("%s attempt %d failed, retryable: %v", op, attempt, err)
			return retry.RetryableError(err)
		}
		return err
	})
}

// IsTransient reports whether err is likely to succeed on retry.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return transientPattern.MatchString(err.Error())
}

// ==================== Embedding ====================

// EmbeddingOptions configures the embedding decorator.
type EmbeddingOptions struct {
	Policy RetryPolicy

	// RequestsPerSecond limits provider calls. Zero disables limiting.
	RequestsPerSecond float64

	// CacheSize bounds the query embedding cache. Zero disables caching.
	CacheSize int
}

// resilientEmbedding adds rate limiting, retries and a query cache.
type resilientEmbedding struct {
	next    driven.EmbeddingService
	policy  RetryPolicy
	limiter *rate.Limiter
	cache   *lru.Cache[string, []float32]
}

var _ driven.EmbeddingService = (*resilientEmbedding)(nil)

// WithEmbeddingResilience decorates next.
func WithEmbeddingResilience(next driven.EmbeddingService, opts EmbeddingOptions) (driven.EmbeddingService, error) {
	r := &resilientEmbedding{next: next, policy: opts.Policy}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, []float32](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}
	return r, nil
}

// Embed returns a cached vector for a repeated query.
func (r *resilientEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if r.cache != nil {
		if vec, ok := r.cache.Get(text); ok {
			return cloneVector(vec), nil
		}
	}

	var vec []float32
	err := r.policy.Do(ctx, "embed", func(ctx context.Context) error {
		if err := r.wait(ctx); err != nil {
			return err
		}
		var err error
		vec, err = r.next.Embed(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.Add(text, cloneVector(vec))
	}
	return vec, nil
}

// EmbedBatch embeds a batch under the rate limit and retry policy.
func (r *resilientEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := r.policy.Do(ctx, "embed batch", func(ctx context.Context) error {
		if err := r.wait(ctx); err != nil {
			return err
		}
		var err error
		vectors, err = r.next.EmbedBatch(ctx, texts)
		return err
	})
	return vectors, err
}

// ModelName returns the decorated model name.
func (r *resilientEmbedding) ModelName() string {
	return r.next.ModelName()
}

// Close closes the decorated service.
func (r *resilientEmbedding) Close() error {
	return r.next.Close()
}

func (r *resilientEmbedding) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

func cloneVector(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}

// ==================== LLM ====================

// resilientLLM retries transient generation failures.
type resilientLLM struct {
	next   driven.LLMService
	policy RetryPolicy
}

var _ driven.LLMService = (*resilientLLM)(nil)

// WithLLMResilience decorates next.
func WithLLMResilience(next driven.LLMService, policy RetryPolicy) driven.LLMService {
	return &resilientLLM{next: next, policy: policy}
}

// Chat generates a reply under the retry policy.
func (r *resilientLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var reply string
	err := r.policy.Do(ctx, "chat", func(ctx context.Context) error {
		var err error
		reply, err = r.next.Chat(ctx, messages, opts)
		return err
	})
	return reply, err
}

// ModelName returns the decorated model name.
func (r *resilientLLM) ModelName() string {
	return r.next.ModelName()
}

// Close closes the decorated service.
func (r *resilientLLM) Close() error {
	return r.next.Close()
}
