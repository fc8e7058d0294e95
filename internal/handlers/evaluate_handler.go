package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"talentscreen/cv-evaluator/internal/models"
	"talentscreen/cv-evaluator/internal/repositories"
	"talentscreen/cv-evaluator/internal/services"
)

type EvaluationHandler struct {
	evalRepo repositories.EvaluationRepository
	fileRepo repositories.UploadedFileRepository
	worker   services.Worker
}

func NewEvaluationHandler(
	evalRepo repositories.EvaluationRepository,
	fileRepo repositories.UploadedFileRepository,
	worker services.Worker,
) *EvaluationHandler {
	return &EvaluationHandler{
		evalRepo: evalRepo,
		fileRepo: fileRepo,
		worker:   worker,
	}
}

// HandleEvaluate handles POST /evaluate
func (h *EvaluationHandler) HandleEvaluate(c *fiber.Ctx) error {
	tenant := tenantID(c)

	var req models.EvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if req.JobDescription == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_description is required",
		})
	}

	if req.StudyCaseBrief == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "study_case_brief is required",
		})
	}

	cvFileID, err := uuid.Parse(req.CVFileID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid cv_file_id format",
		})
	}

	projectFileID, err := uuid.Parse(req.ProjectFileID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project_file_id format",
		})
	}

	// Verify files exist for this tenant
	if _, err := h.fileRepo.FindByID(tenant, cvFileID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "CV file not found",
		})
	}

	if _, err := h.fileRepo.FindByID(tenant, projectFileID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project report file not found",
		})
	}

	evaluation := &models.Evaluation{
		ID:             uuid.New(),
		TenantID:       tenant,
		CVFileID:       cvFileID,
		ProjectFileID:  projectFileID,
		JobDescription: req.JobDescription,
		StudyCaseBrief: req.StudyCaseBrief,
		Status:         models.StatusQueued,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := h.evalRepo.Create(evaluation); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create evaluation job",
		})
	}

	// Enqueue job to worker
	h.worker.EnqueueJob(evaluation.ID)

	// Return job ID immediately
	return c.Status(fiber.StatusAccepted).JSON(models.EvaluateResponse{
		ID:     evaluation.ID.String(),
		Status: string(models.StatusQueued),
	})
}
