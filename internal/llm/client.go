package llm

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	unifiedgenai "google.golang.org/genai"
)

// maxGeminiResponseLogBytes is the max length of a Gemini response body to log in full (to avoid huge logs).
const maxGeminiResponseLogBytes = 8192

// Config holds the explicit client configuration. Created once per process,
// immutable thereafter; there is no ambient key lookup.
type Config struct {
	APIKey          string
	APIEndpoint     string // optional Gemini API base URL override
	ModelText       string // story and character description
	ModelTranscribe string // audio transcription
	CallTimeout     time.Duration
}

// Client wraps the Gemini API for text generation and audio transcription
type Client struct {
	cfg           Config
	llmText       llms.Model
	unifiedClient *unifiedgenai.Client // unified genai SDK for audio transcription
}

// NewClient creates a new LLM client from an explicit config.
func NewClient(cfg Config) *Client {
	if cfg.ModelText == "" {
		cfg.ModelText = "gemini-2.5-flash"
	}
	if cfg.ModelTranscribe == "" {
		cfg.ModelTranscribe = cfg.ModelText
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}

	// Optional custom HTTP client for langchaingo when using a custom endpoint
	var langchaingoHTTPClient *http.Client
	if cfg.APIEndpoint != "" {
		langchaingoHTTPClient = httpClientForEndpoint(cfg.APIEndpoint)
	}

	textOpts := []googleai.Option{googleai.WithAPIKey(cfg.APIKey), googleai.WithDefaultModel(cfg.ModelText)}
	if langchaingoHTTPClient != nil {
		textOpts = append(textOpts, googleai.WithHTTPClient(langchaingoHTTPClient))
	}
	llmText, err := googleai.New(context.Background(), textOpts...)
	if err != nil {
		log.Error().Err(err).Str("model", cfg.ModelText).Msg("Failed to initialize text model")
	}

	// Unified genai client for audio transcription
	var unifiedClient *unifiedgenai.Client
	if cfg.APIKey != "" {
		unifiedCfg := &unifiedgenai.ClientConfig{APIKey: cfg.APIKey}
		if cfg.APIEndpoint != "" {
			unifiedCfg.HTTPOptions = unifiedgenai.HTTPOptions{BaseURL: cfg.APIEndpoint}
		}
		unifiedClient, err = unifiedgenai.NewClient(context.Background(), unifiedCfg)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize unified genai client for transcription")
		}
	}

	log.Info().
		Str("model_text", cfg.ModelText).
		Str("model_transcribe", cfg.ModelTranscribe).
		Str("api_endpoint", cfg.APIEndpoint).
		Bool("transcription", unifiedClient != nil).
		Msg("LLM client initialized")

	return &Client{
		cfg:           cfg,
		llmText:       llmText,
		unifiedClient: unifiedClient,
	}
}

// CanTranscribe reports whether audio transcription is available.
func (c *Client) CanTranscribe() bool {
	return c.unifiedClient != nil
}

// httpClientForEndpoint returns an http.Client that rewrites request URLs to the given base endpoint.
func httpClientForEndpoint(baseEndpoint string) *http.Client {
	base, err := url.Parse(baseEndpoint)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", baseEndpoint).Msg("Invalid GEMINI_API_ENDPOINT, using default")
		return nil
	}
	base.Path = strings.TrimSuffix(base.Path, "/")
	return &http.Client{
		Transport: &endpointRoundTripper{base: base, next: http.DefaultTransport},
	}
}

// endpointRoundTripper rewrites request URLs to a custom base (scheme, host, path prefix).
type endpointRoundTripper struct {
	base *url.URL
	next http.RoundTripper
}

func (e *endpointRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	req2.URL.Scheme = e.base.Scheme
	req2.URL.Host = e.base.Host
	req2.URL.Path = path.Join(e.base.Path, strings.TrimPrefix(req.URL.Path, "/"))
	if req.URL.RawQuery != "" {
		req2.URL.RawQuery = req.URL.RawQuery
	}
	return e.next.RoundTrip(req2)
}

// logGeminiResponse logs Gemini response text, truncating if over maxGeminiResponseLogBytes.
func logGeminiResponse(caller, raw string) {
	if len(raw) <= maxGeminiResponseLogBytes {
		log.Info().Str("caller", caller).Str("gemini_response", raw).Msg("Gemini response")
		return
	}
	log.Info().
		Str("caller", caller).
		Str("gemini_response", raw[:maxGeminiResponseLogBytes]+"... [truncated]").
		Int("gemini_response_len", len(raw)).
		Msg("Gemini response")
}
