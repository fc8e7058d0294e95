package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"talentscreen/cv-evaluator/internal/models"
	"talentscreen/cv-evaluator/internal/repositories"
)

const (
	DocTypeJobDescription = "job_description"
	DocTypeStudyCase      = "study_case"
)

// Backoff between job-level retries of the pipeline itself. This is distinct
// from the per-call LLM retry layer.
var jobRetryBackoff = []time.Duration{
	5 * time.Second,
	15 * time.Second,
	45 * time.Second,
}

type EvaluatorService interface {
	EvaluateCandidate(ctx context.Context, evalID uuid.UUID) error
}

type evaluatorService struct {
	evalRepo    repositories.EvaluationRepository
	fileRepo    repositories.UploadedFileRepository
	store       VectorStore
	pipeline    EvaluationPipeline
	maxAttempts int
}

func NewEvaluatorService(
	evalRepo repositories.EvaluationRepository,
	fileRepo repositories.UploadedFileRepository,
	store VectorStore,
	pipeline EvaluationPipeline,
	maxAttempts int,
) EvaluatorService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &evaluatorService{
		evalRepo:    evalRepo,
		fileRepo:    fileRepo,
		store:       store,
		pipeline:    pipeline,
		maxAttempts: maxAttempts,
	}
}

// EvaluateCandidate runs one queued evaluation end to end: context upserts,
// rubric seeding, then the scoring pipeline with job-level retries. The
// evaluation either completes with a full result or is marked failed with the
// error preserved; there is no partial result.
func (e *evaluatorService) EvaluateCandidate(ctx context.Context, evalID uuid.UUID) error {
	evaluation, err := e.evalRepo.FindByID(evalID)
	if err != nil {
		return fmt.Errorf("failed to get evaluation: %w", err)
	}
	tenantID := evaluation.TenantID

	if err := e.evalRepo.UpdateStatus(evalID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	log.Printf("🔄 Starting evaluation %s (tenant %s)\n", evalID, tenantID)

	// Make the request's own context retrievable before scoring.
	meta := map[string]string{"evaluation_id": evalID.String()}
	if err := e.store.Upsert(ctx, tenantID, DocTypeJobDescription, evaluation.JobDescription, meta); err != nil {
		e.evalRepo.UpdateError(evalID, err.Error())
		return fmt.Errorf("failed to store job description: %w", err)
	}
	if err := e.store.Upsert(ctx, tenantID, DocTypeStudyCase, evaluation.StudyCaseBrief, meta); err != nil {
		e.evalRepo.UpdateError(evalID, err.Error())
		return fmt.Errorf("failed to store study case brief: %w", err)
	}
	if err := e.store.EnsureRubricSeeded(ctx, tenantID); err != nil {
		e.evalRepo.UpdateError(evalID, err.Error())
		return fmt.Errorf("failed to seed scoring rubric: %w", err)
	}

	cvFile, err := e.fileRepo.FindByID(tenantID, evaluation.CVFileID)
	if err != nil {
		e.evalRepo.UpdateError(evalID, fmt.Sprintf("CV file not found: %v", err))
		return fmt.Errorf("failed to get CV file: %w", err)
	}

	projectFile, err := e.fileRepo.FindByID(tenantID, evaluation.ProjectFileID)
	if err != nil {
		e.evalRepo.UpdateError(evalID, fmt.Sprintf("Project file not found: %v", err))
		return fmt.Errorf("failed to get project file: %w", err)
	}

	result, err := e.runWithRetry(ctx, tenantID, cvFile.TextExtracted, projectFile.TextExtracted)
	if err != nil {
		e.evalRepo.UpdateError(evalID, err.Error())
		return fmt.Errorf("evaluation pipeline failed: %w", err)
	}

	log.Println("💾 Saving evaluation results...")
	updateData := &repositories.EvaluationUpdateData{
		CVMatchRate:     &result.CVMatchRate,
		CVFeedback:      &result.CVFeedback,
		ProjectScore:    &result.ProjectScore,
		ProjectFeedback: &result.ProjectFeedback,
		OverallSummary:  &result.OverallSummary,
	}

	if err := e.evalRepo.UpdateResult(evalID, updateData); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	log.Printf("✅ Evaluation %s completed successfully\n", evalID)
	return nil
}

// runWithRetry re-invokes the whole pipeline on transient failure, backing off
// 5s/15s/45s between attempts.
func (e *evaluatorService) runWithRetry(ctx context.Context, tenantID uuid.UUID, cvText, projectText string) (*EvaluationResult, error) {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		result, err := e.pipeline.Run(ctx, tenantID, cvText, projectText, DocTypeJobDescription, DocTypeStudyCase)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if attempt == e.maxAttempts {
			break
		}

		delay := jobRetryBackoff[len(jobRetryBackoff)-1]
		if attempt-1 < len(jobRetryBackoff) {
			delay = jobRetryBackoff[attempt-1]
		}

		log.Printf("⚠️  Pipeline attempt %d failed: %v. Retrying in %s...\n", attempt, err, delay)

		select {
		case <-ctx.Done():
			return nil, lastErr
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}
