package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/colligo/internal/app"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

const snippetLength = 200

func runIngest(ctx context.Context, application *app.App, scope models.Scope) error {
	result := application.Ingest(ctx, *ingestPath, scope)

	if result.DocumentID != "" {
		fmt.Printf("Document: %s\n", result.DocumentID)
	}
	if !result.Success {
		return fmt.Errorf("ingestion failed: %s", result.Error)
	}

	doc, err := application.Status(ctx, result.DocumentID)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %s: %d chunks, status %s\n", doc.Name, doc.ChunkCount, doc.Status)
	return nil
}

func runSearch(ctx context.Context, application *app.App, scope models.Scope) error {
	results, err := application.Search(ctx, *searchQuery, scope, *resultLimit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No matching passages found")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. %s (chunk %d, relevance %.3f)\n", i+1, result.DocumentName, result.ChunkIndex, result.Relevance)
		fmt.Printf("   %s\n\n", snippet(result.Content))
	}
	return nil
}

func runStatus(ctx context.Context, application *app.App) error {
	doc, err := application.Status(ctx, *statusID)
	if err != nil {
		return err
	}

	fmt.Printf("ID:       %s\n", doc.ID)
	fmt.Printf("Name:     %s\n", doc.Name)
	fmt.Printf("Status:   %s\n", doc.Status)
	if doc.Error != "" {
		fmt.Printf("Error:    %s\n", doc.Error)
	}
	if doc.ProjectID != "" {
		fmt.Printf("Project:  %s\n", doc.ProjectID)
	}
	if doc.TaskID != "" {
		fmt.Printf("Task:     %s\n", doc.TaskID)
	}
	fmt.Printf("Chunks:   %d\n", doc.ChunkCount)
	fmt.Printf("Size:     %d bytes\n", doc.FileSize)
	fmt.Printf("Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	if doc.ProcessedAt != nil {
		fmt.Printf("Finished: %s\n", doc.ProcessedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runDelete(ctx context.Context, application *app.App) error {
	if err := application.Delete(ctx, *deleteID); err != nil {
		return err
	}

	fmt.Printf("Deleted %s\n", *deleteID)
	return nil
}

func runList(ctx context.Context, application *app.App, scope models.Scope) error {
	docs, err := application.List(ctx, &interfaces.ListOptions{
		ProjectID: scope.ProjectID,
		TaskID:    scope.TaskID,
		Limit:     *resultLimit,
	})
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("No documents indexed")
		return nil
	}

	fmt.Printf("%-42s %-10s %6s  %-19s %s\n", "ID", "STATUS", "CHUNKS", "CREATED", "NAME")
	for _, doc := range docs {
		fmt.Printf("%-42s %-10s %6d  %-19s %s\n",
			doc.ID, doc.Status, doc.ChunkCount, doc.CreatedAt.Format("2006-01-02 15:04:05"), doc.Name)
	}
	return nil
}

// snippet flattens whitespace and truncates passage content for display
func snippet(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	if len(flat) <= snippetLength {
		return flat
	}
	return flat[:snippetLength] + "..."
}
