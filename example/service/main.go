package main

import (
	"context"
	"fmt"
	"log"
	"time"

	medrag "github.com/curatohealth/medrag"
	"github.com/curatohealth/medrag/model"
)

// This example wires the service from the environment. Depending on the
// variables set it uses OpenAI or a local ONNX model for embeddings, OpenAI
// or Claude for generation, and an in-memory or pgvector-backed store. See
// the ServiceConfiguration doc for the variable names.
func main() {
	documents := []*model.MedicalDocument{
		{
			ID:      "htn-1",
			Title:   "Hypertension overview",
			Content: "Hypertension is blood pressure above 140/90. It often has no symptoms and is diagnosed by repeated measurements over several visits.",
			Metadata: model.DocumentMetadata{
				Source:      "Clinical Guidelines 2024",
				Speciality:  "cardiology",
				Condition:   "hypertension",
				LastUpdated: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
				Reliability: model.ReliabilityHigh,
			},
		},
		{
			ID:      "dm-1",
			Title:   "Type 2 diabetes overview",
			Content: "Type 2 diabetes is a chronic condition affecting how the body processes blood sugar. First line management includes diet, exercise and metformin.",
			Metadata: model.DocumentMetadata{
				Source:      "Endocrinology Handbook",
				Speciality:  "endocrinology",
				Condition:   "diabetes",
				Reliability: model.ReliabilityHigh,
			},
		},
	}

	service, err := medrag.NewServiceFromEnv(documents)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	ctx := context.Background()
	if err := service.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}

	response, err := service.Query(ctx, medrag.QueryRequest{
		Text:      "what is the first line treatment for type 2 diabetes",
		PatientID: "demo",
	})
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	fmt.Printf("Answer:\n%s\n\n", response.Answer)
	fmt.Printf("Confidence: %.2f\n", response.Confidence)
	for _, source := range response.SourceRefs() {
		fmt.Printf("Source: %s (%s)\n", source.Title, source.Source)
	}
	fmt.Printf("Processed in %dms using %d documents\n", response.Meta.ProcessingTimeMs, response.Meta.DocumentsUsed)
}
