package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/rs/zerolog"
)

type statusError struct {
	code int
}

func (e *statusError) Error() string       { return fmt.Sprintf("status %d", e.code) }
func (e *statusError) HTTPStatusCode() int { return e.code }

type reply struct {
	text string
	err  error
}

// scriptedClient returns its replies in order and repeats the last one.
type scriptedClient struct {
	mu       sync.Mutex
	replies  []reply
	requests []models.GenerationRequest
}

func (c *scriptedClient) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)
	r := reply{text: "ok"}
	if len(c.replies) > 0 {
		r = c.replies[0]
		if len(c.replies) > 1 {
			c.replies = c.replies[1:]
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &models.GenerationResult{
		Text:  r.text,
		Usage: models.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}, nil
}

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func (c *scriptedClient) lastRequest() models.GenerationRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[len(c.requests)-1]
}

func singlePool(client ModelClient) *ClientPool {
	return NewClientPool([]Credential{{ID: "key-1", Client: client}}, zerolog.Nop())
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *sleepRecorder) total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total time.Duration
	for _, d := range s.delays {
		total += d
	}
	return total
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

type memorySource map[string][]byte

func (m memorySource) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

// rawExtractor treats the stored bytes as already-extracted text unless err is set.
type rawExtractor struct {
	err error
}

func (e rawExtractor) Extract(fileName, mimeType string, data []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return string(data), nil
}

type usageSink struct {
	mu      sync.Mutex
	records []*models.UsageRecord
	err     error
}

func (s *usageSink) Record(ctx context.Context, record *models.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return s.err
}
