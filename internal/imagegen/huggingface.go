package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// huggingFaceProvider is the primary HTTP provider family: an ordered list of
// inference models tried sequentially. HTTP 200 means success and stop; 503
// means the model is still warming up, try the next one; any other status or
// transport error also moves to the next model.
type huggingFaceProvider struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	models     []string
}

func newHuggingFaceProvider(httpClient *http.Client, endpoint, apiKey string, models []string) *huggingFaceProvider {
	return &huggingFaceProvider{
		httpClient: httpClient,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		apiKey:     apiKey,
		models:     models,
	}
}

func (p *huggingFaceProvider) Name() string { return "huggingface" }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
	Seed   int `json:"seed,omitempty"`
}

func (p *huggingFaceProvider) Generate(ctx context.Context, req Request) ([]byte, error) {
	var lastErr error
	for _, model := range p.models {
		data, err := p.generateWithModel(ctx, model, req)
		if err != nil {
			log.Warn().
				Err(err).
				Str("model", model).
				Msg("Hugging Face model attempt failed, trying next model")
			lastErr = err
			continue
		}
		return data, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no models configured")
	}
	return nil, fmt.Errorf("all models exhausted: %w", lastErr)
}

func (p *huggingFaceProvider) generateWithModel(ctx context.Context, model string, req Request) ([]byte, error) {
	body, err := json.Marshal(hfRequest{
		Inputs: req.Prompt,
		Parameters: hfParameters{
			Width:  req.Width,
			Height: req.Height,
			Seed:   req.Seed,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.endpoint + "/models/" + model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("empty response body")
		}
		return data, nil
	case http.StatusServiceUnavailable:
		// Model is loading on the inference backend
		return nil, fmt.Errorf("model %s warming up (503)", model)
	default:
		return nil, fmt.Errorf("unexpected status %d from model %s", resp.StatusCode, model)
	}
}
