// internal/store/search.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"msme-insights/internal/models"
)

// ExtractionDocument is the denormalized record indexed per completed
// extraction for free-text search over the insight corpus.
type ExtractionDocument struct {
	JobID             string                          `json:"jobId"`
	ConversationID    string                          `json:"conversationId"`
	UserID            string                          `json:"userId"`
	Attributes        models.NormalizedUserAttributes `json:"attributes"`
	SchemeInterests   []models.SchemeMention          `json:"schemeInterests"`
	DetectedLanguages []string                        `json:"detectedLanguages"`
	CompletedAt       time.Time                       `json:"completedAt"`
}

// Indexer writes completed extractions into Elasticsearch. It is an optional
// sink: callers treat index failures as non-fatal.
type Indexer struct {
	client *elasticsearch.Client
	index  string
}

func NewIndexer(client *elasticsearch.Client, index string) *Indexer {
	return &Indexer{client: client, index: index}
}

func (i *Indexer) IndexExtraction(ctx context.Context, doc ExtractionDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal extraction document: %w", err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithDocumentID(doc.JobID),
		i.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index extraction: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index extraction: %s", res.Status())
	}
	return nil
}
