// Package semantic provides a client for the ML match service, which scores
// candidate-job affinity from embeddings.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the match service operations.
type Client interface {
	// FindMatches scores candidates against a job. An empty candidate
	// filter asks the service to consider its whole candidate index.
	FindMatches(ctx context.Context, req MatchRequest) ([]Match, error)
}

// MatchRequest asks the service to score candidates for one job.
type MatchRequest struct {
	JobID        string   `json:"job_id"`
	CandidateIDs []string `json:"candidate_ids,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	MinScore     float64  `json:"min_score,omitempty"`
}

// Match is one scored candidate from the service. CombinedScore and
// CriteriaScore are on a 0-100 scale; CosineSimilarity is the raw
// embedding similarity in [0,1].
type Match struct {
	CandidateID      string   `json:"candidate_id"`
	CosineSimilarity float64  `json:"cosine_similarity"`
	CriteriaScore    float64  `json:"criteria_score"`
	CombinedScore    float64  `json:"combined_score"`
	MatchedCriteria  []string `json:"matched_criteria,omitempty"`
	MissingCriteria  []string `json:"missing_criteria,omitempty"`
}

type matchResponse struct {
	Matches []Match `json:"matches"`
}

// Option configures the semantic client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate (10 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a match service client.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// postJSON sends a JSON POST with exponential backoff retries on transient
// failures (429, 500, 502, 503). Returns the response body and status code
// on success, or the last error after exhausting retries.
func (c *httpClient) postJSON(ctx context.Context, url string, payload []byte) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, 0, eris.Wrap(err, "semantic: create request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "semantic: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("semantic: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) FindMatches(ctx context.Context, req MatchRequest) ([]Match, error) {
	if req.JobID == "" {
		return nil, eris.New("semantic: job id is empty")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "semantic: rate limit")
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "semantic: marshal request")
	}

	body, statusCode, err := c.postJSON(ctx, c.baseURL+"/api/v1/match", payload)
	if err != nil {
		return nil, eris.Wrapf(err, "semantic: match request for job %s", req.JobID)
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("semantic: unexpected status %d: %s", statusCode, string(body))
	}

	var result matchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "semantic: unmarshal response")
	}
	return result.Matches, nil
}
