package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/parley-ai/parley/pkg/core/types"
	"github.com/parley-ai/parley/pkg/gateway/tools/adapters/exa"
)

// ToolKnowledgeSearch is the name the knowledge tool is exposed under.
const ToolKnowledgeSearch = "knowledge_search"

const defaultKnowledgeResults = 5

// KnowledgeSearch answers queries against the agent's configured knowledge
// source by searching the web restricted to that source's domain.
type KnowledgeSearch struct {
	client     *exa.Client
	source     string
	host       string
	maxResults int
}

// NewKnowledgeSearch builds the executor for one knowledge source URL.
// Returns nil when the source has no usable host.
func NewKnowledgeSearch(client *exa.Client, source string, maxResults int) *KnowledgeSearch {
	host := sourceHost(source)
	if host == "" {
		return nil
	}
	if maxResults <= 0 {
		maxResults = defaultKnowledgeResults
	}
	return &KnowledgeSearch{client: client, source: strings.TrimSpace(source), host: host, maxResults: maxResults}
}

func (k *KnowledgeSearch) Definition() types.ToolDefinition {
	return types.ToolDefinition{
		Name:        ToolKnowledgeSearch,
		Description: fmt.Sprintf("Search the agent's knowledge source (%s) for pages relevant to a query. Use this before answering questions about its content.", k.host),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Natural-language search query.",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (k *KnowledgeSearch) Execute(ctx context.Context, input map[string]any) (*types.ToolResult, error) {
	query, _ := input["query"].(string)
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	hits, err := k.client.Search(ctx, query, []string{k.host}, k.maxResults)
	if err != nil {
		return nil, fmt.Errorf("knowledge search: %w", err)
	}

	results := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		results = append(results, map[string]any{
			"id":      h.ID,
			"title":   h.Title,
			"url":     h.URL,
			"snippet": h.Snippet,
		})
	}
	return &types.ToolResult{Output: map[string]any{"results": results}, Source: k.source}, nil
}

// sourceHost extracts the hostname from a knowledge source URL. Bare domains
// without a scheme are accepted.
func sourceHost(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	if !strings.Contains(source, "://") {
		source = "https://" + source
	}
	u, err := url.Parse(source)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
