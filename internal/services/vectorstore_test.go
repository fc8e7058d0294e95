package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentscreen/cv-evaluator/internal/models"
)

// embeddingLLM maps text to vectors through a lookup table, falling back to a
// fixed vector. Embed calls are counted so seeding tests can check idempotence.
type embeddingLLM struct {
	vectors    map[string][]float64
	fallback   []float64
	embedCalls int
	embedErr   error
}

func (e *embeddingLLM) Chat(ctx context.Context, messages []ChatMessage, temperature float64) (string, error) {
	return "{}", nil
}

func (e *embeddingLLM) Embed(ctx context.Context, text string) ([]float64, error) {
	e.embedCalls++
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	if v, ok := e.vectors[text]; ok {
		return append([]float64(nil), v...), nil
	}
	if e.fallback != nil {
		return append([]float64(nil), e.fallback...), nil
	}
	return []float64{1, 0, 0}, nil
}

// memDocRepo is an insertion-ordered in-memory ContextDocumentRepository.
type memDocRepo struct {
	docs []models.ContextDocument
}

func (m *memDocRepo) UpsertByType(doc *models.ContextDocument) error {
	for i := range m.docs {
		if m.docs[i].TenantID == doc.TenantID && m.docs[i].Type == doc.Type {
			m.docs[i].Content = doc.Content
			m.docs[i].Embedding = doc.Embedding
			m.docs[i].Meta = doc.Meta
			return nil
		}
	}
	m.docs = append(m.docs, *doc)
	return nil
}

func (m *memDocRepo) List(tenantID uuid.UUID, docType string) ([]models.ContextDocument, error) {
	var out []models.ContextDocument
	for _, d := range m.docs {
		if d.TenantID != tenantID {
			continue
		}
		if docType != "" && d.Type != docType {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memDocRepo) ExistsByType(tenantID uuid.UUID, docType string) (bool, error) {
	for _, d := range m.docs {
		if d.TenantID == tenantID && d.Type == docType {
			return true, nil
		}
	}
	return false, nil
}

func TestUpsertNormalizesEmbedding(t *testing.T) {
	tenant := uuid.New()
	repo := &memDocRepo{}
	llm := &embeddingLLM{vectors: map[string][]float64{"hello": {3, 4}}}
	store := NewVectorStore(llm, repo)

	require.NoError(t, store.Upsert(context.Background(), tenant, "job_description", "hello", nil))

	require.Len(t, repo.docs, 1)
	assert.InDelta(t, 0.6, repo.docs[0].Embedding[0], 1e-9)
	assert.InDelta(t, 0.8, repo.docs[0].Embedding[1], 1e-9)
}

func TestUpsertKeepsZeroVector(t *testing.T) {
	tenant := uuid.New()
	repo := &memDocRepo{}
	llm := &embeddingLLM{vectors: map[string][]float64{"empty": {0, 0, 0}}}
	store := NewVectorStore(llm, repo)

	require.NoError(t, store.Upsert(context.Background(), tenant, "job_description", "empty", nil))

	require.Len(t, repo.docs, 1)
	assert.Equal(t, models.Vector{0, 0, 0}, repo.docs[0].Embedding)
}

func TestUpsertReplacesByType(t *testing.T) {
	tenant := uuid.New()
	repo := &memDocRepo{}
	store := NewVectorStore(&embeddingLLM{}, repo)

	require.NoError(t, store.Upsert(context.Background(), tenant, "job_description", "first", nil))
	require.NoError(t, store.Upsert(context.Background(), tenant, "job_description", "second", nil))

	require.Len(t, repo.docs, 1)
	assert.Equal(t, "second", repo.docs[0].Content)
}

func TestUpsertPropagatesEmbedFailure(t *testing.T) {
	embedErr := errors.New("embedding backend down")
	store := NewVectorStore(&embeddingLLM{embedErr: embedErr}, &memDocRepo{})

	err := store.Upsert(context.Background(), uuid.New(), "job_description", "text", nil)
	require.ErrorIs(t, err, embedErr)
}

func TestEnsureRubricSeededIdempotent(t *testing.T) {
	tenant := uuid.New()
	repo := &memDocRepo{}
	llm := &embeddingLLM{}
	store := NewVectorStore(llm, repo)

	require.NoError(t, store.EnsureRubricSeeded(context.Background(), tenant))
	require.NoError(t, store.EnsureRubricSeeded(context.Background(), tenant))

	require.Len(t, repo.docs, 1)
	assert.Equal(t, DocTypeScoringRubric, repo.docs[0].Type)
	assert.Equal(t, 1, llm.embedCalls)

	var rubric map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(repo.docs[0].Content), &rubric))
	assert.Contains(t, rubric, "cv")
	assert.Contains(t, rubric, "project")
	assert.Contains(t, rubric["cv"], "technical_skills_match")
	assert.Contains(t, rubric["project"], "resilience")
}

func TestSearchRoundTrip(t *testing.T) {
	tenant := uuid.New()
	repo := &memDocRepo{}
	llm := &embeddingLLM{vectors: map[string][]float64{
		"stored content": {1, 2, 2},
		"the query":      {1, 2, 2},
	}}
	store := NewVectorStore(llm, repo)

	require.NoError(t, store.Upsert(context.Background(), tenant, "x", "stored content", nil))

	matches, err := store.Search(context.Background(), tenant, "the query", "x", 2)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "x", matches[0].Type)
	assert.Equal(t, "stored content", matches[0].Content)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestSearchFiltersAndRanks(t *testing.T) {
	tenant := uuid.New()
	repo := &memDocRepo{}
	llm := &embeddingLLM{vectors: map[string][]float64{
		"close doc": {1, 0},
		"far doc":   {0, 1},
		"query":     {1, 0},
	}}
	store := NewVectorStore(llm, repo)

	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, tenant, "study_case", "far doc", nil))
	require.NoError(t, store.Upsert(ctx, tenant, "job_description", "close doc", nil))

	// Unfiltered: closest first.
	matches, err := store.Search(ctx, tenant, "query", "", 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "close doc", matches[0].Content)

	// Filtered to a single type.
	matches, err = store.Search(ctx, tenant, "query", "study_case", 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "far doc", matches[0].Content)

	// k truncates.
	matches, err = store.Search(ctx, tenant, "query", "", 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSearchEmptyStoreReturnsNoMatches(t *testing.T) {
	store := NewVectorStore(&embeddingLLM{}, &memDocRepo{})

	matches, err := store.Search(context.Background(), uuid.New(), "anything", "job_description", 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchTieBreakKeepsInsertionOrder(t *testing.T) {
	tenant := uuid.New()
	repo := &memDocRepo{}
	llm := &embeddingLLM{fallback: []float64{1, 0}}
	store := NewVectorStore(llm, repo)

	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, tenant, "a", "first doc", nil))
	require.NoError(t, store.Upsert(ctx, tenant, "b", "second doc", nil))
	require.NoError(t, store.Upsert(ctx, tenant, "c", "third doc", nil))

	matches, err := store.Search(ctx, tenant, "query", "", 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "first doc", matches[0].Content)
	assert.Equal(t, "second doc", matches[1].Content)
	assert.Equal(t, "third doc", matches[2].Content)
}

func TestSearchScopedToTenant(t *testing.T) {
	repo := &memDocRepo{}
	store := NewVectorStore(&embeddingLLM{}, repo)

	ctx := context.Background()
	tenantA := uuid.New()
	tenantB := uuid.New()
	require.NoError(t, store.Upsert(ctx, tenantA, "job_description", "tenant A jd", nil))

	matches, err := store.Search(ctx, tenantB, "query", "job_description", 1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
