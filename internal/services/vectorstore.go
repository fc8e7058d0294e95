package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"talentscreen/cv-evaluator/internal/models"
	"talentscreen/cv-evaluator/internal/repositories"
)

const DocTypeScoringRubric = "scoring_rubric"

type VectorStore interface {
	Upsert(ctx context.Context, tenantID uuid.UUID, docType, content string, meta map[string]string) error
	EnsureRubricSeeded(ctx context.Context, tenantID uuid.UUID) error
	Search(ctx context.Context, tenantID uuid.UUID, query, docType string, k int) ([]ContextMatch, error)
}

type ContextMatch struct {
	Type    string
	Content string
	Score   float64
}

// vectorStore keeps one embedded document per (tenant, type) and ranks them by
// dot product over unit-norm vectors, which equals cosine similarity. The
// corpus is a handful of reference documents, so a linear scan is the whole
// search index.
type vectorStore struct {
	llm     LLMClient
	docRepo repositories.ContextDocumentRepository
}

func NewVectorStore(llm LLMClient, docRepo repositories.ContextDocumentRepository) VectorStore {
	return &vectorStore{
		llm:     llm,
		docRepo: docRepo,
	}
}

// Upsert implements VectorStore. The content is embedded, L2-normalized, and
// replaces the current document for the type.
func (vs *vectorStore) Upsert(ctx context.Context, tenantID uuid.UUID, docType, content string, meta map[string]string) error {
	embedding, err := vs.llm.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed document content: %w", err)
	}

	doc := &models.ContextDocument{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Type:      docType,
		Content:   content,
		Embedding: normalizeVector(embedding),
		Meta:      meta,
	}

	if err := vs.docRepo.UpsertByType(doc); err != nil {
		return fmt.Errorf("failed to upsert context document: %w", err)
	}

	return nil
}

// EnsureRubricSeeded implements VectorStore. Seeds the default scoring rubric
// once; an existing rubric is never overwritten.
func (vs *vectorStore) EnsureRubricSeeded(ctx context.Context, tenantID uuid.UUID) error {
	exists, err := vs.docRepo.ExistsByType(tenantID, DocTypeScoringRubric)
	if err != nil {
		return fmt.Errorf("failed to check scoring rubric: %w", err)
	}
	if exists {
		return nil
	}

	rubric, err := json.MarshalIndent(defaultRubric(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode default rubric: %w", err)
	}

	return vs.Upsert(ctx, tenantID, DocTypeScoringRubric, string(rubric), map[string]string{"version": "1"})
}

// Search implements VectorStore. Missing documents are not an error: callers
// get an empty (or short) result list and degrade to "no context available".
func (vs *vectorStore) Search(ctx context.Context, tenantID uuid.UUID, query, docType string, k int) ([]ContextMatch, error) {
	q, err := vs.llm.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	q = normalizeVector(q)

	docs, err := vs.docRepo.List(tenantID, docType)
	if err != nil {
		return nil, fmt.Errorf("failed to load context documents: %w", err)
	}

	matches := make([]ContextMatch, 0, len(docs))
	for _, d := range docs {
		matches = append(matches, ContextMatch{
			Type:    d.Type,
			Content: d.Content,
			Score:   dotProduct(q, d.Embedding),
		})
	}

	// Stable sort keeps insertion order between equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < len(matches) {
		matches = matches[:k]
	}

	return matches, nil
}

func dotProduct(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// normalizeVector scales v to unit length. An all-zero vector is returned
// unchanged to avoid dividing by zero.
func normalizeVector(v []float64) []float64 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += x * x
	}

	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return v
	}

	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// defaultRubric is the seed scoring rubric: criterion name to a human-readable
// 1-5 description, split into CV and project sections.
func defaultRubric() map[string]map[string]string {
	return map[string]map[string]string{
		"cv": {
			"technical_skills_match": "1-5: backend, DBs, APIs, cloud, AI/LLM exposure",
			"experience_level":       "1-5: years + project complexity",
			"relevant_achievements":  "1-5: impact, scale",
			"cultural_fit":           "1-5: communication, learning attitude",
		},
		"project": {
			"correctness":   "1-5: meets prompt design, chaining, RAG, error handling",
			"code_quality":  "1-5: clean, modular, testable",
			"resilience":    "1-5: failures, retries, backoff",
			"documentation": "1-5: README, trade-offs",
			"creativity":    "1-5: extras (auth, deployment, dashboards)",
		},
	}
}
