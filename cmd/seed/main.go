package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-tutor-be/internal/bootstrap"
	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Sample curriculum material so a fresh install has something to answer
// questions about.
var sampleDocuments = []dto.CreateDocumentRequest{
	{
		Title:  "Photosynthesis Basics",
		Source: "seed",
		Content: "Photosynthesis is the process by which green plants convert light energy " +
			"into chemical energy. It takes place in the chloroplasts, where chlorophyll " +
			"absorbs sunlight. The inputs are carbon dioxide and water, and the outputs " +
			"are glucose and oxygen. The overall equation is 6CO2 + 6H2O + light -> " +
			"C6H12O6 + 6O2. Photosynthesis has two stages: the light-dependent reactions " +
			"and the Calvin cycle.",
	},
	{
		Title:  "Cellular Respiration",
		Source: "seed",
		Content: "Cellular respiration releases the energy stored in glucose. It occurs in " +
			"the mitochondria and produces ATP, the energy currency of the cell. Aerobic " +
			"respiration requires oxygen and yields about 36 ATP per glucose molecule. " +
			"The three stages are glycolysis, the Krebs cycle, and the electron transport " +
			"chain. Cellular respiration is essentially the reverse of photosynthesis.",
	},
	{
		Title:  "The Water Cycle",
		Source: "seed",
		Content: "The water cycle describes how water moves through Earth's atmosphere, " +
			"surface, and underground. The main processes are evaporation, condensation, " +
			"precipitation, and collection. Solar energy drives evaporation from oceans " +
			"and lakes. Water vapor condenses into clouds, falls as rain or snow, and " +
			"collects in bodies of water to begin the cycle again.",
	},
}

// relationshipSeed links the lead chunk of one document to another.
type relationshipSeed struct {
	fromTitle string
	toTitle   string
	relType   string
}

var sampleRelationships = []relationshipSeed{
	{fromTitle: "Photosynthesis Basics", toTitle: "Cellular Respiration", relType: "RELATED_TO"},
	{fromTitle: "Photosynthesis Basics", toTitle: "The Water Cycle", relType: "RELATED_TO"},
}

func main() {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	ctx := context.Background()

	// Ingestion runs through the same consumer as the API path.
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Failed to start consumer: %v", err)
	}

	fmt.Println(cyan("=== Seeding knowledge base ==="))

	docIds := map[string]uuid.UUID{}
	for i := range sampleDocuments {
		doc := &sampleDocuments[i]

		var existing model.Document
		if err := gormDB.Where("title = ? AND source = ?", doc.Title, "seed").First(&existing).Error; err == nil {
			fmt.Printf("%s %s (already exists)\n", yellow("SKIP"), doc.Title)
			docIds[doc.Title] = existing.Id
			continue
		}

		res, err := container.KnowledgeService.CreateDocument(ctx, doc)
		if err != nil {
			log.Fatalf("Failed to create document %q: %v", doc.Title, err)
		}
		docIds[doc.Title] = res.Id
		fmt.Printf("%s %s (%s)\n", green("DOC "), doc.Title, res.Id)
	}

	// Wait for the consumer to chunk, embed, and mirror every document.
	fmt.Println(cyan("Waiting for ingestion..."))
	deadline := time.Now().Add(2 * time.Minute)
	for _, id := range docIds {
		for {
			var doc model.Document
			if err := gormDB.First(&doc, "id = ?", id).Error; err != nil {
				log.Fatalf("Failed to poll document %s: %v", id, err)
			}
			if doc.ChunkCount > 0 {
				break
			}
			if time.Now().After(deadline) {
				log.Fatalf("Timed out waiting for document %s to ingest", id)
			}
			time.Sleep(2 * time.Second)
		}
	}

	fmt.Println(cyan("=== Seeding relationships ==="))
	for _, rel := range sampleRelationships {
		fromId, okFrom := docIds[rel.fromTitle]
		toId, okTo := docIds[rel.toTitle]
		if !okFrom || !okTo {
			fmt.Printf("%s %s -> %s (missing document)\n", yellow("SKIP"), rel.fromTitle, rel.toTitle)
			continue
		}

		req := &dto.CreateRelationshipRequest{
			FromId: fmt.Sprintf("%s_chunk_0", fromId),
			ToId:   fmt.Sprintf("%s_chunk_0", toId),
			Type:   rel.relType,
		}
		if err := container.KnowledgeService.CreateRelationship(ctx, req); err != nil {
			log.Fatalf("Failed to create relationship %s -> %s: %v", rel.fromTitle, rel.toTitle, err)
		}
		fmt.Printf("%s %s -[%s]-> %s\n", green("REL "), rel.fromTitle, rel.relType, rel.toTitle)
	}

	fmt.Println(green("✅ Seed completed"))
}
