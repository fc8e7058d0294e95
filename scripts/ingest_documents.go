package main

import (
	"context"
	"flag"
	"log"

	"talentscreen/cv-evaluator/internal/config"
	"talentscreen/cv-evaluator/internal/repositories"
	"talentscreen/cv-evaluator/internal/services"
)

// Seeds reference documents (job description, study case brief) into the
// context store for a tenant, plus the default scoring rubric.
func main() {
	tenantFlag := flag.String("tenant", "default", "tenant id or slug to ingest documents for")
	flag.Parse()

	log.Println("🚀 Starting document ingestion...")

	cfg := config.Load()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	tenantRepo := repositories.NewTenantRepository(db)
	contextRepo := repositories.NewContextDocumentRepository(db)

	tenant, err := tenantRepo.FindByIDOrSlug(*tenantFlag)
	if err != nil {
		log.Fatalf("❌ Failed to resolve tenant %q: %v", *tenantFlag, err)
	}

	ctx := context.Background()

	geminiClient, err := services.NewGeminiClient(ctx, services.GeminiConfig{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		EmbedModels: []string{cfg.Gemini.EmbedModel, "gemini-embedding-001"},
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini client: %v", err)
	}
	llm := services.NewRetryingLLMClient(geminiClient)

	vectorStore := services.NewVectorStore(llm, contextRepo)

	pdfParser := services.NewPDFParserService()
	extractor := services.NewTextExtractor(pdfParser, true)

	documents := []struct {
		Path    string
		DocType string
		Name    string
	}{
		{
			Path:    "./reference_docs/job_description.pdf",
			DocType: services.DocTypeJobDescription,
			Name:    "Job Description - Product Engineer (Backend)",
		},
		{
			Path:    "./reference_docs/case_study_brief.pdf",
			DocType: services.DocTypeStudyCase,
			Name:    "Case Study Brief",
		},
	}

	successCount := 0
	failCount := 0

	for _, doc := range documents {
		log.Printf("\n📄 Processing: %s", doc.Name)
		log.Printf("   Path: %s", doc.Path)
		log.Printf("   Type: %s", doc.DocType)

		text, err := extractor.Extract(doc.Path, "")
		if err != nil {
			log.Printf("❌ Failed to extract %s: %v", doc.Name, err)
			failCount++
			continue
		}

		meta := map[string]string{"source": doc.Path, "name": doc.Name}
		if err := vectorStore.Upsert(ctx, tenant.ID, doc.DocType, text, meta); err != nil {
			log.Printf("❌ Failed to upsert %s: %v", doc.Name, err)
			failCount++
			continue
		}

		log.Printf("✅ Ingested %s", doc.Name)
		successCount++
	}

	if err := vectorStore.EnsureRubricSeeded(ctx, tenant.ID); err != nil {
		log.Fatalf("❌ Failed to seed scoring rubric: %v", err)
	}
	log.Println("✅ Scoring rubric seeded")

	log.Printf("\n🏁 Ingestion finished: %d succeeded, %d failed\n", successCount, failCount)
}
