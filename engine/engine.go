// Package engine wraps the external move-generation/analysis service. The
// rest of the system consumes only two primitives: a best move and a position
// evaluation. Chess rules live entirely on the other side of this boundary.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Engine interface {
	BestMove(ctx context.Context, fen string) (string, error)
	Evaluate(ctx context.Context, fen string) (float64, error)
}

type analysisResponse struct {
	BestMove string  `json:"best_move"`
	Score    float64 `json:"score"`
}

// HTTPEngine talks to an analysis service (a UCI engine behind an HTTP
// frontend) over two GET endpoints. Timeouts bound every call; retrying is
// the service's own concern.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

func NewHTTPEngine(baseURL string, timeout time.Duration) *HTTPEngine {
	return &HTTPEngine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *HTTPEngine) analyze(ctx context.Context, path, fen string) (*analysisResponse, error) {
	endpoint := fmt.Sprintf("%s%s?fen=%s", e.baseURL, path, url.QueryEscape(fen))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis service returned status %d", resp.StatusCode)
	}

	var payload analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	return &payload, nil
}

func (e *HTTPEngine) BestMove(ctx context.Context, fen string) (string, error) {
	payload, err := e.analyze(ctx, "/bestmove", fen)
	if err != nil {
		return "", err
	}
	return payload.BestMove, nil
}

func (e *HTTPEngine) Evaluate(ctx context.Context, fen string) (float64, error) {
	payload, err := e.analyze(ctx, "/evaluate", fen)
	if err != nil {
		return 0, err
	}
	return payload.Score, nil
}
