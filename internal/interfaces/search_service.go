package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// SearchService retrieves chunks by semantic similarity. Results come only
// from completed documents; scope fields, when populated, must all match.
type SearchService interface {
	// Search embeds the query and returns up to limit chunks ordered by
	// ascending distance. A limit of 0 uses the default. When the
	// embedding provider is unavailable the result is empty, not an error.
	Search(ctx context.Context, query string, scope models.Scope, limit int) ([]models.SearchResult, error)
}
