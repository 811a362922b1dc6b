package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/repository"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/analyzer"
	"github.com/rs/zerolog"
)

type OriginalityService interface {
	RunCheck(ctx context.Context, materialID string, req models.OriginalityCheckRequest) (*models.PlagiarismReport, error)
	GetLatestReport(ctx context.Context, materialID string) (*models.PlagiarismReport, error)
}

type originalityService struct {
	processingRepo repository.ProcessingRepository
	reportRepo     repository.ReportRepository
	analyzer       analyzer.OriginalityAnalyzer
	logger         zerolog.Logger
}

func NewOriginalityService(
	processingRepo repository.ProcessingRepository,
	reportRepo repository.ReportRepository,
	analyzer analyzer.OriginalityAnalyzer,
	logger zerolog.Logger,
) OriginalityService {
	return &originalityService{
		processingRepo: processingRepo,
		reportRepo:     reportRepo,
		analyzer:       analyzer,
		logger:         logger,
	}
}

// RunCheck analyzes the document named by req, or the one recorded for the material
// when req carries no key, and stores the report.
func (s *originalityService) RunCheck(ctx context.Context, materialID string, req models.OriginalityCheckRequest) (*models.PlagiarismReport, error) {
	ref, err := s.resolveDocument(ctx, materialID, req)
	if err != nil {
		return nil, err
	}

	report := s.analyzer.RunOriginalityCheck(ctx, ref)

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save originality report: %w", err)
	}

	s.logger.Info().
		Str("material_id", materialID).
		Str("report_id", report.ID).
		Int("overall_score", report.OverallScore).
		Msg("Originality report saved")

	return report, nil
}

func (s *originalityService) GetLatestReport(ctx context.Context, materialID string) (*models.PlagiarismReport, error) {
	report, err := s.reportRepo.GetLatestByMaterialID(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to get originality report: %w", err)
	}
	if report == nil {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, materialID)
	}
	return report, nil
}

func (s *originalityService) resolveDocument(ctx context.Context, materialID string, req models.OriginalityCheckRequest) (models.DocumentRef, error) {
	materialID = strings.TrimSpace(materialID)
	if materialID == "" {
		return models.DocumentRef{}, fmt.Errorf("%w: material_id is required", ErrInvalidRequest)
	}

	if key := strings.TrimSpace(req.DocumentKey); key != "" {
		return models.DocumentRef{
			MaterialID: materialID,
			Key:        key,
			FileName:   req.FileName,
			MimeType:   req.MimeType,
		}, nil
	}

	record, err := s.processingRepo.GetByMaterialID(ctx, materialID)
	if err != nil {
		return models.DocumentRef{}, fmt.Errorf("failed to load processing record: %w", err)
	}
	if record == nil {
		return models.DocumentRef{}, fmt.Errorf("%w: %s has no document, pass document_key", ErrMaterialNotFound, materialID)
	}
	return record.DocumentRef(), nil
}
