package imagegen

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// geminiProvider generates images natively through Gemini with strict IMAGE
// modality. Tried first in the chain when an API key is configured.
type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGeminiProvider(apiKey, apiEndpoint, model string) *geminiProvider {
	if model == "" {
		model = "gemini-3-pro-image-preview"
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(apiEndpoint))
	}
	client, err := genai.NewClient(context.Background(), opts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize genai client for image generation")
		return nil
	}

	return &geminiProvider{client: client, model: model}
}

func (p *geminiProvider) Name() string { return "gemini" }

// Generate calls Gemini with the image prompt and expects an image Blob in
// the response (strict modality). The seed and dimensions in the request are
// not supported by this API and are ignored.
func (p *geminiProvider) Generate(ctx context.Context, req Request) ([]byte, error) {
	model := p.client.GenerativeModel(p.model)
	// Strict modality: request native image output
	setResponseModality(model, []string{"IMAGE"})

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, err
	}

	for i, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for j, part := range cand.Content.Parts {
			blob, ok := part.(genai.Blob)
			if !ok || len(blob.Data) == 0 {
				continue
			}
			log.Info().
				Str("provider", "gemini").
				Int64("image_size_bytes", int64(len(blob.Data))).
				Str("mime_type", blob.MIMEType).
				Int("candidate", i).
				Int("part", j).
				Msg("Gemini response (image blob)")
			return blob.Data, nil
		}
	}

	return nil, fmt.Errorf("no image blob in response (strict modality: expected IMAGE)")
}

// setResponseModality sets model.ResponseModality when the genai SDK exposes it.
// Uses reflection so it no-ops on older SDKs that don't have the field.
func setResponseModality(model *genai.GenerativeModel, modalities []string) {
	v := reflect.ValueOf(model).Elem()
	f := v.FieldByName("ResponseModality")
	if !f.IsValid() || !f.CanSet() {
		log.Debug().Msg("ResponseModality not available on GenerativeModel (SDK may not support it yet)")
		return
	}
	// ResponseModality is []string
	if f.Kind() == reflect.Slice && f.Type().Elem().Kind() == reflect.String {
		f.Set(reflect.ValueOf(modalities))
		log.Debug().Strs("modality", modalities).Msg("Set ResponseModality on GenerativeModel")
	}
}
