package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/repository"
)

// memoryProcessingRepo applies the same transition table as the SQL repository.
type memoryProcessingRepo struct {
	mu      sync.Mutex
	records map[string]*models.ProcessingRecord
	order   []string
	writes  int
}

func newMemoryProcessingRepo(records ...models.ProcessingRecord) *memoryProcessingRepo {
	r := &memoryProcessingRepo{records: make(map[string]*models.ProcessingRecord)}
	for i := range records {
		rec := records[i]
		r.records[rec.MaterialID] = &rec
		r.order = append(r.order, rec.MaterialID)
	}
	return r
}

func (r *memoryProcessingRepo) get(id string) *models.ProcessingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

func (r *memoryProcessingRepo) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *memoryProcessingRepo) Create(ctx context.Context, record *models.ProcessingRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.MaterialID]; ok {
		return false, nil
	}
	r.writes++
	record.Status = models.ProcessingStatusPending
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	cp := *record
	r.records[record.MaterialID] = &cp
	r.order = append(r.order, record.MaterialID)
	return true, nil
}

func (r *memoryProcessingRepo) GetByMaterialID(ctx context.Context, materialID string) (*models.ProcessingRecord, error) {
	return r.get(materialID), nil
}

func (r *memoryProcessingRepo) UpdateDocument(ctx context.Context, ref models.DocumentRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[ref.MaterialID]
	if !ok {
		return nil
	}
	r.writes++
	rec.DocumentKey, rec.FileName, rec.MimeType = ref.Key, ref.FileName, ref.MimeType
	return nil
}

func (r *memoryProcessingRepo) Transition(ctx context.Context, materialID string, next models.ProcessingStatus, processingError *string) (*models.ProcessingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[materialID]
	if !ok {
		return nil, nil
	}
	if !rec.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", repository.ErrTransitionRejected, rec.Status, next)
	}

	r.writes++
	rec.Status = next
	rec.ProcessingError = nil
	if next == models.ProcessingStatusFailed && processingError != nil {
		msg := *processingError
		rec.ProcessingError = &msg
	}
	now := time.Now()
	if next == models.ProcessingStatusProcessing {
		rec.Attempts++
		rec.StartedAt = &now
	}
	rec.UpdatedAt = now
	cp := *rec
	return &cp, nil
}

func (r *memoryProcessingRepo) SaveSummary(ctx context.Context, materialID, summary string) (*models.ProcessingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[materialID]
	if !ok {
		return nil, nil
	}
	r.writes++
	rec.Summary = summary
	rec.HasSummary = true
	cp := *rec
	return &cp, nil
}

func (r *memoryProcessingRepo) SaveQuestionState(ctx context.Context, materialID string, quality models.QuestionQuality) (*models.ProcessingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[materialID]
	if !ok {
		return nil, nil
	}
	r.writes++
	rec.HasQuestions = true
	rec.QuestionQuality = &quality
	cp := *rec
	return &cp, nil
}

func (r *memoryProcessingRepo) GetByStatus(ctx context.Context, status models.ProcessingStatus, limit int) ([]models.ProcessingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ProcessingRecord
	for _, id := range r.order {
		if rec := r.records[id]; rec.Status == status && len(out) < limit {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memoryProcessingRepo) GetStalled(ctx context.Context, startedBefore time.Time, limit int) ([]models.ProcessingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ProcessingRecord
	for _, id := range r.order {
		rec := r.records[id]
		if rec.Status != models.ProcessingStatusProcessing || rec.StartedAt == nil || !rec.StartedAt.Before(startedBefore) {
			continue
		}
		if len(out) < limit {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memoryProcessingRepo) GetStats(ctx context.Context) (*models.ProcessingStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.ProcessingStats{Total: len(r.records)}
	for _, rec := range r.records {
		switch rec.Status {
		case models.ProcessingStatusPending:
			stats.Pending++
		case models.ProcessingStatusProcessing:
			stats.Processing++
		case models.ProcessingStatusCompleted:
			stats.Completed++
		case models.ProcessingStatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

func (r *memoryProcessingRepo) Ping(ctx context.Context) error { return nil }

type memoryQuestionRepo struct {
	mu        sync.Mutex
	questions map[string][]models.Question
}

func newMemoryQuestionRepo() *memoryQuestionRepo {
	return &memoryQuestionRepo{questions: make(map[string][]models.Question)}
}

func (r *memoryQuestionRepo) ReplaceForMaterial(ctx context.Context, materialID string, questions []models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[materialID] = append([]models.Question(nil), questions...)
	return nil
}

func (r *memoryQuestionRepo) GetByMaterialID(ctx context.Context, materialID string) ([]models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.questions[materialID], nil
}

type memoryStatusCache struct {
	mu       sync.Mutex
	statuses map[string]models.ProcessingStatusResponse
	sets     int
	// failOn makes Set fail for entries carrying that status.
	failOn models.ProcessingStatus
}

func newMemoryStatusCache() *memoryStatusCache {
	return &memoryStatusCache{statuses: make(map[string]models.ProcessingStatusResponse)}
}

func (c *memoryStatusCache) Get(ctx context.Context, materialID string) (*models.ProcessingStatusResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.statuses[materialID]
	if !ok {
		return nil, nil
	}
	return &status, nil
}

func (c *memoryStatusCache) Set(ctx context.Context, status *models.ProcessingStatusResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.failOn != "" && status.Status == c.failOn {
		return fmt.Errorf("redis: connection refused")
	}
	c.statuses[status.MaterialID] = *status
	return nil
}

func (c *memoryStatusCache) Delete(ctx context.Context, materialID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.statuses, materialID)
	return nil
}

func (c *memoryStatusCache) cached(materialID string) (models.ProcessingStatusResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.statuses[materialID]
	return status, ok
}

func (c *memoryStatusCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func (c *memoryStatusCache) Ping(ctx context.Context) error { return nil }
func (c *memoryStatusCache) Close() error                   { return nil }

type published struct {
	exchange   string
	routingKey string
	payload    interface{}
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
	// onPublish runs after a message is recorded, outside the lock, the way a
	// consumer picks a job up as soon as it lands on the queue.
	onPublish func(routingKey string, payload interface{})
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	return p.PublishJSON(ctx, exchange, routingKey, body)
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, exchange, routingKey string, payload interface{}) error {
	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return p.err
	}
	p.messages = append(p.messages, published{exchange: exchange, routingKey: routingKey, payload: payload})
	hook := p.onPublish
	p.mu.Unlock()

	if hook != nil {
		hook(routingKey, payload)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) byRoutingKey(key string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, m := range p.messages {
		if m.routingKey == key {
			out = append(out, m)
		}
	}
	return out
}

type summarizerFunc func(ctx context.Context, ref models.DocumentRef) (string, error)

func (f summarizerFunc) GenerateSummary(ctx context.Context, ref models.DocumentRef) (string, error) {
	return f(ctx, ref)
}

type questionGeneratorFunc func(ctx context.Context, ref models.DocumentRef) (*models.QuestionSet, error)

func (f questionGeneratorFunc) GenerateQuestions(ctx context.Context, ref models.DocumentRef) (*models.QuestionSet, error) {
	return f(ctx, ref)
}

type memoryReportRepo struct {
	mu      sync.Mutex
	reports []models.PlagiarismReport
}

func (r *memoryReportRepo) Create(ctx context.Context, report *models.PlagiarismReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report.ID = fmt.Sprintf("report-%d", len(r.reports)+1)
	r.reports = append(r.reports, *report)
	return nil
}

func (r *memoryReportRepo) GetLatestByMaterialID(ctx context.Context, materialID string) (*models.PlagiarismReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.reports) - 1; i >= 0; i-- {
		if r.reports[i].MaterialID == materialID {
			report := r.reports[i]
			return &report, nil
		}
	}
	return nil, nil
}

type analyzerFunc func(ctx context.Context, ref models.DocumentRef) *models.PlagiarismReport

func (f analyzerFunc) RunOriginalityCheck(ctx context.Context, ref models.DocumentRef) *models.PlagiarismReport {
	return f(ctx, ref)
}

type memoryUsageRepo struct {
	mu      sync.Mutex
	records []models.UsageRecord
	ctxErrs []error
	stats   []models.UsageStats
}

func (r *memoryUsageRepo) Insert(ctx context.Context, record *models.UsageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	r.records = append(r.records, *record)
	return nil
}

func (r *memoryUsageRepo) GetStats(ctx context.Context) ([]models.UsageStats, error) {
	return r.stats, nil
}
