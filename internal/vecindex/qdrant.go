package vecindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QdrantIndex is a minimal REST client to Qdrant. Qdrant point ids must be
// uuids, so external ids are mapped through uuid.NewSHA1 and the original id
// travels in the payload.
type QdrantIndex struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

type QdrantConfig struct {
	URL        string        `json:"url"`
	APIKey     string        `json:"api_key"`
	Collection string        `json:"collection"`
	Timeout    time.Duration `json:"-"`
}

var qdrantIDSpace = uuid.MustParse("9f2c1c2e-5b4a-4f6e-8d3a-6c1f0b7a9e21")

func NewQdrantIndex(cfg QdrantConfig) *QdrantIndex {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "chunks"
	}
	return &QdrantIndex{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection if it does not exist. Qdrant answers 200 for a
// matching existing schema, so repeated startup is safe.
func (q *QdrantIndex) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return q.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", q.collection), body, nil)
}

func (q *QdrantIndex) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		payload := map[string]interface{}{"vector_id": rec.ID}
		for k, v := range rec.Metadata {
			payload[k] = v
		}
		points = append(points, map[string]interface{}{
			"id":      pointID(rec.ID),
			"vector":  rec.Values,
			"payload": payload,
		})
	}
	body := map[string]interface{}{"points": points}
	return q.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", q.collection), body, nil)
}

func (q *QdrantIndex) Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if len(filter) > 0 {
		must := make([]map[string]interface{}, 0, len(filter))
		for k, v := range filter {
			must = append(must, map[string]interface{}{
				"key":   k,
				"match": map[string]interface{}{"value": v},
			})
		}
		body["filter"] = map[string]interface{}{"must": must}
	}
	var resp struct {
		Result []struct {
			Score   float64                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", q.collection), body, &resp); err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		match := Match{Score: r.Score, Metadata: make(map[string]string)}
		for k, v := range r.Payload {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if k == "vector_id" {
				match.ID = s
				continue
			}
			match.Metadata[k] = s
		}
		if match.ID == "" {
			continue
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (q *QdrantIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	points := make([]string, 0, len(ids))
	for _, id := range ids {
		points = append(points, pointID(id))
	}
	body := map[string]interface{}{"points": points}
	return q.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", q.collection), body, nil)
}

func pointID(id string) string {
	return uuid.NewSHA1(qdrantIDSpace, []byte(id)).String()
}

func (q *QdrantIndex) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("qdrant %s %s failed: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
