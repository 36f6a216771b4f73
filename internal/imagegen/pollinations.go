package imagegen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// pollinationsProvider is the secondary HTTP provider: a single GET with the
// prompt in the URL path and width/height/model/seed as query parameters,
// raw image bytes in the response body.
type pollinationsProvider struct {
	httpClient *http.Client
	endpoint   string
	model      string
}

func newPollinationsProvider(httpClient *http.Client, endpoint, model string) *pollinationsProvider {
	if model == "" {
		model = "flux"
	}
	return &pollinationsProvider{
		httpClient: httpClient,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		model:      model,
	}
}

func (p *pollinationsProvider) Name() string { return "pollinations" }

func (p *pollinationsProvider) Generate(ctx context.Context, req Request) ([]byte, error) {
	params := url.Values{}
	params.Set("width", strconv.Itoa(req.Width))
	params.Set("height", strconv.Itoa(req.Height))
	params.Set("model", p.model)
	params.Set("seed", strconv.Itoa(req.Seed))

	apiURL := p.endpoint + "/prompt/" + url.PathEscape(req.Prompt) + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	return data, nil
}
