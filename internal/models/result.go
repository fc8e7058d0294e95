package models

type UploadResponse struct {
	CVFileID      string `json:"cv_file_id"`
	ProjectFileID string `json:"project_file_id"`
}

type EvaluateRequest struct {
	CVFileID       string `json:"cv_file_id" validate:"required,uuid"`
	ProjectFileID  string `json:"project_file_id" validate:"required,uuid"`
	JobDescription string `json:"job_description" validate:"required"`
	StudyCaseBrief string `json:"study_case_brief" validate:"required"`
}

type EvaluateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ResultResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Result       *EvaluationData `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

type EvaluationData struct {
	CVMatchRate     float64 `json:"cv_match_rate"`
	CVFeedback      string  `json:"cv_feedback"`
	ProjectScore    float64 `json:"project_score"`
	ProjectFeedback string  `json:"project_feedback"`
	OverallSummary  string  `json:"overall_summary"`
}
