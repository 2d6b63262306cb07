package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const azureAPIVersion = "2023-11-01"

type AzureOptions struct {
	Service string
	Index   string
	APIKey  string
	// Endpoint overrides the https://<service>.search.windows.net default.
	Endpoint string
}

type azureSearcher struct {
	endpoint string
	index    string
	apiKey   string
	client   *http.Client
}

type azureSearchRequest struct {
	Search                string `json:"search"`
	QueryType             string `json:"queryType"`
	QueryLanguage         string `json:"queryLanguage"`
	SemanticConfiguration string `json:"semanticConfiguration"`
	Filter                string `json:"filter,omitempty"`
	Top                   int    `json:"top"`
	Count                 bool   `json:"count"`
}

type azureCaption struct {
	Text string `json:"text"`
}

type azureDocument struct {
	Score    float64        `json:"@search.score"`
	Captions []azureCaption `json:"@search.captions"`

	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	SourceFile string `json:"sourceFile"`

	// SharePoint-indexed documents expose metadata under different names.
	SpoItemID   string `json:"metadata_spo_item_id"`
	SpoItemName string `json:"metadata_spo_item_name"`
}

type azureSearchResponse struct {
	Count int64           `json:"@odata.count"`
	Value []azureDocument `json:"value"`
	Error *azureError     `json:"error"`
}

type azureError struct {
	Message string `json:"message"`
}

// NewAzureSearcher talks to an Azure AI Search index over its REST API
// using semantic ranking. A semantic configuration named "default" is
// assumed to exist on the index.
func NewAzureSearcher(opts AzureOptions) Searcher {
	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.search.windows.net", opts.Service)
	}

	return &azureSearcher{
		endpoint: endpoint,
		index:    opts.Index,
		apiKey:   opts.APIKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *azureSearcher) Search(ctx context.Context, query string, opts Options) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, fmt.Errorf("search query is empty")
	}

	top := opts.Top
	if top <= 0 {
		top = defaultTop
	}

	payload := azureSearchRequest{
		Search:                query,
		QueryType:             "semantic",
		QueryLanguage:         "en-us",
		SemanticConfiguration: "default",
		Filter:                opts.Filter,
		Top:                   top,
		Count:                 true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", s.endpoint, s.index, azureAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call search API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(data) > 0 {
			return Result{}, fmt.Errorf("search API error (status %s): %s", resp.Status, string(data))
		}
		return Result{}, fmt.Errorf("search API returned status %s", resp.Status)
	}

	var parsed azureSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("decode search response: %w", err)
	}
	if parsed.Error != nil {
		return Result{}, fmt.Errorf("search API error: %s", parsed.Error.Message)
	}

	snippets := make([]Snippet, 0, len(parsed.Value))
	for _, doc := range parsed.Value {
		snippet := Snippet{
			ID:         firstNonEmpty(doc.ID, doc.SpoItemID),
			Title:      firstNonEmpty(doc.Title, doc.SpoItemName),
			Content:    doc.Content,
			SourceFile: firstNonEmpty(doc.SourceFile, doc.SpoItemName),
			Score:      doc.Score,
		}
		if len(doc.Captions) > 0 {
			snippet.Caption = doc.Captions[0].Text
		}
		snippets = append(snippets, snippet)
	}

	count := int(parsed.Count)
	if count == 0 {
		count = len(snippets)
	}

	return Result{Count: count, Snippets: snippets}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
