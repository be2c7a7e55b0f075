package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const userAgent = "beatvideo/0.3"

// Generator produces a raw scene list for a topic. Its output is untrusted
// and must go through Normalize before use.
type Generator interface {
	Generate(ctx context.Context, topic, contentType string) (*Script, error)
}

// HTTPGenerator asks a script endpoint (usually the LLM proxy route) for a
// script.
type HTTPGenerator struct {
	endpoint string
	client   *http.Client
}

// NewHTTPGenerator returns a generator posting to endpoint.
func NewHTTPGenerator(endpoint string, timeout time.Duration) *HTTPGenerator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPGenerator{
		endpoint: strings.TrimSpace(endpoint),
		client:   &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Topic       string `json:"topic"`
	ContentType string `json:"contentType"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, topic, contentType string) (*Script, error) {
	if g.endpoint == "" {
		return nil, errors.New("script generator endpoint not configured")
	}

	body, err := json.Marshal(generateRequest{Topic: topic, ContentType: contentType})
	if err != nil {
		return nil, errors.Wrap(err, "encode generate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build generate request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call script generator")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read generator response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("script generator returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return Decode(data)
}

// Decode parses a JSON script body.
func Decode(data []byte) (*Script, error) {
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decode script")
	}
	return &s, nil
}
