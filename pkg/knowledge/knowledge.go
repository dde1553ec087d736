package knowledge

import "context"

// Searcher defines the knowledge-base search capability consumed by the
// workflow engine. Implementations may fail or time out; the caller decides
// what a failure means.
type Searcher interface {
	// Search returns user-presentable text for the top maxResults documents
	// matching the query.
	Search(ctx context.Context, query string, maxResults int) (string, error)
}

// Package-level singleton instance
var searcherInstance *OpenSearchSearcher

// Init initializes the OpenSearch searcher singleton with config.
func Init(cfg OpenSearchConfig) error {
	if !cfg.Enabled {
		return nil
	}

	searcher, err := NewOpenSearchSearcher(cfg)
	if err != nil {
		return err
	}
	searcherInstance = searcher
	return nil
}

// NewSearcher returns the singleton searcher instance.
// Returns nil if knowledge search is not enabled or not initialized.
func NewSearcher() *OpenSearchSearcher {
	return searcherInstance
}
