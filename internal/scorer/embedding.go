package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const defaultEmbeddingsURL = "https://api.openai.com/v1/embeddings"

// Embedding scores by cosine similarity of OpenAI text embeddings, scaled
// to 0..100. Both texts go out in a single embeddings request.
type Embedding struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewEmbedding(apiKey, model string) *Embedding {
	return &Embedding{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultEmbeddingsURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (e *Embedding) Score(ctx context.Context, submitted, truth string) (int, error) {
	vectors, err := e.embed(ctx, []string{submitted, truth})
	if err != nil {
		return 0, err
	}
	similarity := 1 - cosineDistance(vectors[0], vectors[1])
	if similarity < 0 {
		similarity = 0
	}
	return int(math.Round(similarity * 100)), nil
}

func (e *Embedding) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if strings.TrimSpace(e.apiKey) == "" {
		return nil, errors.New("embedding scorer: API key is not configured")
	}
	cleaned := make([]string, 0, len(inputs))
	for _, input := range inputs {
		candidate := strings.TrimSpace(input)
		if candidate == "" {
			return nil, errors.New("embedding input cannot be empty")
		}
		cleaned = append(cleaned, candidate)
	}

	payload, err := json.Marshal(embeddingRequest{Model: e.model, Input: cleaned})
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(e.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reach embeddings endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding request failed (%d)", resp.StatusCode)
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("embedding error: %s", parsed.Error.Message)
	}
	if len(parsed.Data) != len(cleaned) {
		return nil, errors.New("embedding response count mismatch")
	}

	out := make([][]float32, len(cleaned))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(cleaned) {
			return nil, errors.New("embedding response index out of range")
		}
		out[item.Index] = item.Embedding
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, errors.New("missing embedding in response")
		}
	}
	return out, nil
}

func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
