package services

import (
	"context"
	"encoding/json"
	"math"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// EvaluationResult is the final scoring payload for one candidate.
type EvaluationResult struct {
	CVMatchRate     float64 `json:"cv_match_rate"`
	CVFeedback      string  `json:"cv_feedback"`
	ProjectScore    float64 `json:"project_score"`
	ProjectFeedback string  `json:"project_feedback"`
	OverallSummary  string  `json:"overall_summary"`
}

// EvaluationPipeline produces a deterministic-shape, bounded-quality scoring
// result from unreliable LLM output. Malformed completions degrade individual
// fields; the only fatal failure is a provider call exhausting its retries.
type EvaluationPipeline interface {
	Run(ctx context.Context, tenantID uuid.UUID, cvText, projectText, jobContextType, studyContextType string) (*EvaluationResult, error)
}

type evaluationPipeline struct {
	llm         LLMClient
	store       VectorStore
	temperature float64
}

func NewEvaluationPipeline(llm LLMClient, store VectorStore, temperature float64) EvaluationPipeline {
	if temperature <= 0 {
		temperature = 0.2
	}
	return &evaluationPipeline{
		llm:         llm,
		store:       store,
		temperature: temperature,
	}
}

// Run implements EvaluationPipeline.
func (p *evaluationPipeline) Run(ctx context.Context, tenantID uuid.UUID, cvText, projectText, jobContextType, studyContextType string) (*EvaluationResult, error) {
	// Retrieve RAG context. The three lookups are independent and read-only,
	// so they run in parallel. A missing document yields empty context, which
	// the pipeline tolerates; an embedding failure is fatal.
	var jd, rubric, study string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		jd, err = p.topMatch(gctx, tenantID, "criteria for cv scoring", jobContextType)
		return err
	})
	g.Go(func() (err error) {
		rubric, err = p.topMatch(gctx, tenantID, "standardized scoring rubric", DocTypeScoringRubric)
		return err
	})
	g.Go(func() (err error) {
		study, err = p.topMatch(gctx, tenantID, "project requirements", studyContextType)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// ---- Step 1: Extract structured CV info ----
	extractSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"skills":           map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"experience_years": map[string]interface{}{"type": "number"},
			"projects":         map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"achievements":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
		"required": []string{"skills", "experience_years"},
	}

	cvExtract, err := p.jsonCall(ctx, []ChatMessage{
		{Role: RoleSystem, Content: "Extract structured info from the CV text. Reply JSON only."},
		{Role: RoleUser, Content: encodeJSON(map[string]interface{}{
			"cv_text": cvText,
			"schema":  extractSchema,
		})},
	})
	if err != nil {
		return nil, err
	}

	// Prepare rubric safely: unparsable or absent content becomes empty maps.
	var rubricMap map[string]interface{}
	if err := json.Unmarshal([]byte(rubric), &rubricMap); err != nil {
		rubricMap = map[string]interface{}{}
	}
	cvRubric := subMap(rubricMap, "cv")
	projRubric := subMap(rubricMap, "project")

	// ---- Step 2-3: CV match rate & feedback ----
	cvEval, err := p.jsonCall(ctx, []ChatMessage{
		{Role: RoleSystem, Content: "You are a precise evaluator. Use the rubric (1-5). Respond in JSON only with {scores:{...}, feedback}"},
		{Role: RoleUser, Content: encodeJSON(map[string]interface{}{
			"rubric":          cvRubric,
			"job_description": jd,
			"cv_structured":   cvExtract,
		})},
	})
	if err != nil {
		return nil, err
	}

	cvScores := clampScores(cvEval["scores"])
	cvMatchRate := normalizeRubric(cvScores, 5, 1.0) // 0..1

	// ---- Step 4: Project evaluation (two-pass: initial → refine) ----
	projEval1, err := p.jsonCall(ctx, []ChatMessage{
		{Role: RoleSystem, Content: "Score the project using rubric (1-5). JSON only: {scores:{...}, feedback}"},
		{Role: RoleUser, Content: encodeJSON(map[string]interface{}{
			"rubric":           projRubric,
			"study_case_brief": study,
			"project_report":   projectText,
		})},
	})
	if err != nil {
		return nil, err
	}

	// Refinement pass; only its output is used downstream.
	projEval2, err := p.jsonCall(ctx, []ChatMessage{
		{Role: RoleSystem, Content: "Refine previous scoring. Penalize missing error handling, retries & tests. JSON only: {scores:{...}, feedback}"},
		{Role: RoleUser, Content: encodeJSON(map[string]interface{}{
			"previous_scoring": projEval1,
			"project_report":   projectText,
		})},
	})
	if err != nil {
		return nil, err
	}

	projScores := clampScores(projEval2["scores"])
	projectScore := normalizeRubric(projScores, 5, 10.0) // 0..10

	// ---- Summary synthesis ----
	summary, err := p.jsonCall(ctx, []ChatMessage{
		{Role: RoleSystem, Content: `Write a concise JSON summary with key "overall_summary".`},
		{Role: RoleUser, Content: encodeJSON(map[string]interface{}{
			"cv_match_rate":    cvMatchRate,
			"cv_feedback":      stringField(cvEval, "feedback", ""),
			"project_score":    projectScore,
			"project_feedback": stringField(projEval2, "feedback", ""),
			"notes": map[string]interface{}{
				"cv_scores_present":      len(cvScores) > 0,
				"project_scores_present": len(projScores) > 0,
			},
		})},
	})
	if err != nil {
		return nil, err
	}

	return &EvaluationResult{
		CVMatchRate:     roundTo(cvMatchRate, 2),
		CVFeedback:      stringField(cvEval, "feedback", "No CV feedback generated."),
		ProjectScore:    roundTo(projectScore, 1),
		ProjectFeedback: stringField(projEval2, "feedback", "No project feedback generated."),
		OverallSummary:  stringField(summary, "overall_summary", "Summary unavailable."),
	}, nil
}

func (p *evaluationPipeline) topMatch(ctx context.Context, tenantID uuid.UUID, query, docType string) (string, error) {
	matches, err := p.store.Search(ctx, tenantID, query, docType, 1)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0].Content, nil
}

// jsonCall sends messages expecting a JSON object back. A malformed completion
// gets one corrective call at temperature 0; if that also fails to parse, the
// call degrades to an empty object. Transport errors (the retry layer already
// exhausted) propagate.
func (p *evaluationPipeline) jsonCall(ctx context.Context, messages []ChatMessage) (map[string]interface{}, error) {
	content, err := p.llm.Chat(ctx, messages, p.temperature)
	if err != nil {
		return nil, err
	}

	if parsed, ok := decodeJSONObject(content); ok {
		return parsed, nil
	}

	fixed, err := p.llm.Chat(ctx, []ChatMessage{
		{Role: RoleSystem, Content: "Fix the following into valid JSON only, no explanation."},
		{Role: RoleUser, Content: content},
	}, 0.0)
	if err != nil {
		return nil, err
	}

	if parsed, ok := decodeJSONObject(fixed); ok {
		return parsed, nil
	}

	return map[string]interface{}{}, nil
}

func decodeJSONObject(text string) (map[string]interface{}, bool) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || parsed == nil {
		return nil, false
	}
	return parsed, true
}

// clampScores rounds each raw score to the nearest integer (half away from
// zero) and clamps it into [1,5]. Anything that is not a score map yields an
// empty result.
func clampScores(raw interface{}) map[string]int {
	out := map[string]int{}

	scores, ok := raw.(map[string]interface{})
	if !ok {
		return out
	}

	for k, v := range scores {
		n := int(math.Round(toFloat(v)))
		if n < 1 {
			n = 1
		}
		if n > 5 {
			n = 5
		}
		out[k] = n
	}

	return out
}

// normalizeRubric maps equally-weighted 1-5 scores onto [0,scale]. Empty score
// sets yield 0.0 rather than dividing by zero.
func normalizeRubric(scores map[string]int, maxPerCriterion int, scale float64) float64 {
	n := len(scores)
	if n == 0 {
		return 0.0
	}

	sum := 0
	for _, v := range scores {
		sum += v
	}

	return float64(sum) / float64(maxPerCriterion*n) * scale
}

func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func stringField(m map[string]interface{}, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func subMap(m map[string]interface{}, key string) map[string]interface{} {
	if sub, ok := m[key].(map[string]interface{}); ok {
		return sub
	}
	return map[string]interface{}{}
}

func encodeJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
