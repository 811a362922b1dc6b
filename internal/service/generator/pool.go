package generator

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/rs/zerolog"
)

// ModelClient talks to the external generation service with a single credential.
type ModelClient interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
}

// Credential pairs a client with a label that is safe to log.
type Credential struct {
	ID     string
	Client ModelClient
}

// Operation is one unit of work executed against a selected credential.
type Operation func(ctx context.Context, cred Credential) (*models.GenerationResult, error)

// ClientPool rotates calls over its credentials. The cursor is shared by all callers
// and advanced on every selection, successful or not.
type ClientPool struct {
	credentials []Credential
	cursor      atomic.Uint64
	logger      zerolog.Logger
}

func NewClientPool(credentials []Credential, logger zerolog.Logger) *ClientPool {
	return &ClientPool{
		credentials: credentials,
		logger:      logger,
	}
}

func (p *ClientPool) next() Credential {
	idx := p.cursor.Add(1) - 1
	return p.credentials[idx%uint64(len(p.credentials))]
}

// Call runs op on the next credential. A rate-limited credential is skipped in favour of
// the following one, at most once per configured credential. Every other failure is
// returned to the caller classified.
func (p *ClientPool) Call(ctx context.Context, op Operation) (*models.GenerationResult, error) {
	n := len(p.credentials)
	if n == 0 {
		return nil, ErrNoCredentials
	}

	var lastErr error
	for i := 0; i < n; i++ {
		cred := p.next()

		result, err := op(ctx, cred)
		if err == nil {
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = Classify(err)
		if !errors.Is(lastErr, ErrRateLimited) || n == 1 {
			return nil, lastErr
		}

		p.logger.Warn().
			Str("credential", cred.ID).
			Int("failover", i+1).
			Int("credentials", n).
			Msg("Credential rate limited, rotating to next")
	}

	return nil, lastErr
}
