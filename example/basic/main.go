package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	medrag "github.com/curatohealth/medrag"
	"github.com/curatohealth/medrag/core/embedding"
	"github.com/curatohealth/medrag/core/synthesis"
	"github.com/curatohealth/medrag/model"
)

// This example runs the full pipeline without any network backend: a
// word-overlap embedder and a template generator stand in for the real
// OpenAI/Claude backends, so it is runnable anywhere.
func main() {
	documents := []*model.MedicalDocument{
		{
			ID:      "htn-1",
			Title:   "Hypertension overview",
			Content: "Hypertension is blood pressure above 140/90. It often has no symptoms and is diagnosed by repeated measurements.",
			Metadata: model.DocumentMetadata{
				Source:      "Clinical Guidelines 2024",
				Speciality:  "cardiology",
				Condition:   "hypertension",
				LastUpdated: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
				Reliability: model.ReliabilityHigh,
			},
		},
		{
			ID:      "flu-1",
			Title:   "Influenza overview",
			Content: "Influenza is a viral respiratory infection causing fever, cough and body aches.",
			Metadata: model.DocumentMetadata{
				Source:      "Infectious Disease Handbook",
				Speciality:  "infectious diseases",
				Condition:   "influenza",
				Reliability: model.ReliabilityMedium,
			},
		},
	}

	embedder := embedding.EmbedFunc{
		Fn: func(ctx context.Context, text string) ([]float32, error) {
			return bagOfWordsVector(text), nil
		},
		Dim: len(vocabulary),
	}

	generator := synthesis.GeneratorFunc(func(ctx context.Context, request synthesis.GenerationRequest) (string, error) {
		return "Based on the reference material: " + request.Prompt[:min(120, len(request.Prompt))] + "...", nil
	})

	service, err := medrag.New(medrag.Options{
		Embedder:  embedder,
		Generator: generator,
		Documents: documents,
		OnEmergency: func(query *model.MedicalQuery, tier model.UrgencyTier) {
			fmt.Printf(">>> EMERGENCY signal for query %s\n", query.ID)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	ctx := context.Background()
	if err := service.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}

	for _, text := range []string{
		"what is hypertension",
		"sangramento intenso",
	} {
		response, err := service.Query(ctx, medrag.QueryRequest{Text: text, PatientID: "demo"})
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}

		fmt.Printf("\nQ: %s\n", text)
		fmt.Printf("A: %s\n", response.Answer)
		fmt.Printf("Confidence: %.2f, warnings: %v\n", response.Confidence, response.Warnings)
		for _, source := range response.SourceRefs() {
			fmt.Printf("Source: %s (%s, %s)\n", source.Title, source.Source, source.Reliability)
		}
	}
}

// vocabulary spans the demo documents and queries; the embedder counts word
// occurrences per vocabulary slot.
var vocabulary = []string{
	"hypertension", "blood", "pressure", "influenza", "viral", "fever", "cough", "sangramento",
}

func bagOfWordsVector(text string) []float32 {
	lowered := strings.ToLower(text)
	vector := make([]float32, len(vocabulary))
	for i, word := range vocabulary {
		if strings.Contains(lowered, word) {
			vector[i] = 1
		}
	}
	return vector
}
