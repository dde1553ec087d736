package knowledge

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

// DefaultMaxResults is used when an action does not configure max_results.
const DefaultMaxResults = 3

// OpenSearchConfig holds OpenSearch configuration
type OpenSearchConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addresses   []string `toml:"addresses"`
	Username    string   `toml:"username"`
	Password    string   `toml:"password"`
	IndexName   string   `toml:"index"`
	InsecureSSL bool     `toml:"insecure_ssl"`
}

// Validate checks OpenSearch configuration
func (c *OpenSearchConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Addresses) == 0 {
		return fmt.Errorf("addresses is required when knowledge search is enabled")
	}
	if c.IndexName == "" {
		return fmt.Errorf("index is required when knowledge search is enabled")
	}
	return nil
}

// OpenSearchSearcher implements Searcher over an OpenSearch BM25 index.
// Documents carry title, content and source fields.
type OpenSearchSearcher struct {
	client    *opensearchapi.Client
	indexName string
}

var _ Searcher = (*OpenSearchSearcher)(nil)

// NewOpenSearchSearcher creates a new OpenSearch-backed searcher
func NewOpenSearchSearcher(cfg OpenSearchConfig) (*OpenSearchSearcher, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Transport: transport,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}

	return &OpenSearchSearcher{
		client:    client,
		indexName: cfg.IndexName,
	}, nil
}

// Search runs a multi-match query and formats the top hits into reply text
func (s *OpenSearchSearcher) Search(ctx context.Context, query string, maxResults int) (string, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	body, err := json.Marshal(map[string]any{
		"size": maxResults,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"title^2", "content"},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to build search query: %w", err)
	}

	resp, err := s.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{s.indexName},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return "", fmt.Errorf("knowledge search failed: %w", err)
	}

	if resp.Hits.Total.Value == 0 || len(resp.Hits.Hits) == 0 {
		return "📚 I couldn't find anything relevant in the knowledge base. Please contact support for assistance.", nil
	}

	var b strings.Builder
	b.WriteString("📚 **Found relevant information:**\n")

	for _, hit := range resp.Hits.Hits {
		var doc struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			Source  string `json:"source"`
		}
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}

		b.WriteString("\n• ")
		if doc.Title != "" {
			b.WriteString("*" + doc.Title + "*\n")
		}
		b.WriteString(snippet(doc.Content, 300))
		if doc.Source != "" {
			b.WriteString("\n  (source: " + doc.Source + ")")
		}
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String()), nil
}

// snippet truncates content at a rune boundary
func snippet(content string, max int) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "…"
}
