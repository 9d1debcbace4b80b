package staging

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/brianking74/Property-Stage/internal/errs"
)

// GeminiTransformer implements Transformer against the Gemini API.
type GeminiTransformer struct {
	client *genai.Client
}

var _ Transformer = (*GeminiTransformer)(nil)

// NewGeminiTransformer constructs a transformer. An empty API key is
// reported as a credential error so the caller can route the user into the
// key-selection flow instead of attempting a request.
func NewGeminiTransformer(ctx context.Context, apiKey string) (*GeminiTransformer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", errs.ErrInvalidCredential)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiTransformer{client: client}, nil
}

// Transform sends one generate-content request carrying the image and the
// staging instruction, and extracts the returned image payload.
func (t *GeminiTransformer) Transform(ctx context.Context, req Request) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(normalizeImagePayload(req.Image), "image/jpeg"),
		genai.NewPartFromText(req.Instruction),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{}
	if req.AspectRatio != "" || req.Resolution != "" {
		cfg.ImageConfig = &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   req.Resolution,
		}
	}

	resp, err := t.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, classify(err)
	}
	return extractImage(resp)
}

// extractImage returns the first inline image payload from the response and
// classifies responses that carry none.
func extractImage(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil {
		return nil, errs.ErrNoImageReturned
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", errs.ErrServiceRefused, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, errs.ErrNoImageReturned
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return p.InlineData.Data, nil
			}
		}
	}
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonImageSafety:
		return nil, fmt.Errorf("%w: candidate finished with %s", errs.ErrServiceRefused, cand.FinishReason)
	}
	return nil, errs.ErrNoImageReturned
}
