package handlers

import (
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"talentscreen/cv-evaluator/internal/models"
	"talentscreen/cv-evaluator/internal/repositories"
	"talentscreen/cv-evaluator/internal/services"
)

type UploadHandler struct {
	fileRepo       repositories.UploadedFileRepository
	storageService services.StorageService
	extractor      services.TextExtractor
	maxFileSize    int64
}

func NewUploadHandler(
	fileRepo repositories.UploadedFileRepository,
	storageService services.StorageService,
	extractor services.TextExtractor,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		fileRepo:       fileRepo,
		storageService: storageService,
		extractor:      extractor,
		maxFileSize:    maxFileSize,
	}
}

// HandleUpload handles POST /upload. Both files are required; their text is
// extracted eagerly so evaluations only ever see plain text.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	tenant := tenantID(c)

	cvFile, err := c.FormFile("cv")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "cv file is required",
		})
	}

	projectFile, err := c.FormFile("project_report")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "project_report file is required",
		})
	}

	cvID, err := h.saveAndExtract(tenant, cvFile, "cv")
	if err != nil {
		return h.uploadError(c, "CV", err)
	}

	projectID, err := h.saveAndExtract(tenant, projectFile, "project_report")
	if err != nil {
		return h.uploadError(c, "Project report", err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.UploadResponse{
		CVFileID:      cvID.String(),
		ProjectFileID: projectID.String(),
	})
}

func (h *UploadHandler) saveAndExtract(tenant uuid.UUID, file *multipart.FileHeader, fileType string) (uuid.UUID, error) {
	if file.Size > h.maxFileSize {
		return uuid.Nil, fmt.Errorf("file too large, max size: %d bytes", h.maxFileSize)
	}

	filename, filePath, err := h.storageService.SaveFile(file, fileType)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save file: %w", err)
	}

	mime := file.Header.Get("Content-Type")

	text, err := h.extractor.Extract(filePath, mime)
	if err != nil {
		h.storageService.DeleteFile(filename)
		return uuid.Nil, fmt.Errorf("failed to extract text: %w", err)
	}

	record := &models.UploadedFile{
		ID:            uuid.New(),
		TenantID:      tenant,
		OriginalName:  file.Filename,
		MimeType:      mime,
		Path:          filePath,
		TextExtracted: text,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := h.fileRepo.Create(record); err != nil {
		h.storageService.DeleteFile(filename)
		return uuid.Nil, fmt.Errorf("failed to save file record: %w", err)
	}

	return record.ID, nil
}

func (h *UploadHandler) uploadError(c *fiber.Ctx, label string, err error) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error": fmt.Sprintf("%s upload failed: %v", label, err),
	})
}
