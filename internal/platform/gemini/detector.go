package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/template"

	"google.golang.org/genai"

	"github.com/phrazzld/scout-api/internal/config"
	"github.com/phrazzld/scout-api/internal/detection"
	"github.com/phrazzld/scout-api/internal/domain"
)

// defaultTarget is what the model is asked to find when the caller
// supplies no prompt of their own.
const defaultTarget = "items"

// promptData holds the fields available to the prompt template.
type promptData struct {
	Target string
}

// boxSchema mirrors one element of the model's JSON output. box_2d is
// [ymin, xmin, ymax, xmax], normalized to 0–1000.
type boxSchema struct {
	Box2D      []int   `json:"box_2d"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Detector implements detection.Detector using the Gemini API.
type Detector struct {
	logger         *slog.Logger
	client         *genai.Client
	model          string
	promptTemplate *template.Template
}

// New creates a Detector with the provided dependencies.
//
// Parameters:
//   - ctx: Context for client initialization, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing the API key, model name, and prompt template path
//
// Returns a properly initialized Detector or an error if initialization fails.
func New(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Detector, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", detection.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", detection.ErrInvalidConfig)
	}

	if cfg.PromptTemplatePath == "" {
		return nil, fmt.Errorf("%w: prompt template path cannot be empty", detection.ErrInvalidConfig)
	}

	templateContent, err := os.ReadFile(cfg.PromptTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
			detection.ErrInvalidConfig, cfg.PromptTemplatePath, err)
	}

	promptTemplate, err := template.New("detect").Parse(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			detection.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			detection.ErrInvalidConfig, err)
	}

	return &Detector{
		logger:         logger,
		client:         client,
		model:          cfg.ModelName,
		promptTemplate: promptTemplate,
	}, nil
}

// Detect analyzes the image and returns the objects found in it. Transient
// API failures carry their HTTP status (via remoteError) for the caller's
// retry classification; malformed or safety-blocked responses are terminal.
func (d *Detector) Detect(
	ctx context.Context,
	input detection.ImageInput,
) ([]domain.Detection, error) {
	if len(input.Data) == 0 {
		return nil, detection.ErrEmptyImage
	}

	prompt, err := d.createPrompt(ctx, input.Prompt)
	if err != nil {
		return nil, err
	}

	d.logger.DebugContext(ctx, "calling Gemini API",
		"model", d.model,
		"mime_type", input.MimeType,
		"image_bytes", len(input.Data))

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(input.Data, input.MimeType),
		}, genai.RoleUser),
	}

	resp, err := d.client.Models.GenerateContent(ctx, d.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, wrapAPIError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	return parseDetections(text)
}

// createPrompt renders the prompt template with the caller's target
// description, falling back to the default when none is given.
func (d *Detector) createPrompt(ctx context.Context, target string) (string, error) {
	if target == "" {
		target = defaultTarget
	}

	var promptBuffer bytes.Buffer
	if err := d.promptTemplate.Execute(&promptBuffer, promptData{Target: target}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	prompt := promptBuffer.String()
	d.logger.DebugContext(ctx, "prompt generated",
		"target", target,
		"prompt_length", len(prompt))

	return prompt, nil
}

// responseText extracts the text payload from a GenerateContent response,
// rejecting empty and safety-blocked responses.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", detection.ErrInvalidResponse)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", detection.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason %s", detection.ErrContentBlocked, candidate.FinishReason)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", detection.ErrInvalidResponse)
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		text += part.Text
	}

	if text == "" {
		return "", fmt.Errorf("%w: no text in response", detection.ErrInvalidResponse)
	}

	return text, nil
}

// parseDetections converts the model's JSON bounding-box list into domain
// detections. The model occasionally wraps its JSON in a markdown fence;
// strip it before decoding.
func parseDetections(text string) ([]domain.Detection, error) {
	cleaned := stripCodeFence(text)

	var boxes []boxSchema
	if err := json.Unmarshal([]byte(cleaned), &boxes); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			detection.ErrInvalidResponse, err)
	}

	detections := make([]domain.Detection, 0, len(boxes))
	for i, box := range boxes {
		if box.Label == "" {
			return nil, fmt.Errorf("%w: detection %d missing label", detection.ErrInvalidResponse, i)
		}
		if len(box.Box2D) != 4 {
			return nil, fmt.Errorf("%w: detection %d has %d box coordinates, want 4",
				detection.ErrInvalidResponse, i, len(box.Box2D))
		}

		detections = append(detections, domain.Detection{
			Label: box.Label,
			Box: domain.BoundingBox{
				YMin: box.Box2D[0],
				XMin: box.Box2D[1],
				YMax: box.Box2D[2],
				XMax: box.Box2D[3],
			},
			Confidence: box.Confidence,
		})
	}

	return detections, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence, if present.
func stripCodeFence(text string) string {
	trimmed := bytes.TrimSpace([]byte(text))
	if !bytes.HasPrefix(trimmed, []byte("```")) {
		return string(trimmed)
	}

	trimmed = bytes.TrimPrefix(trimmed, []byte("```json"))
	trimmed = bytes.TrimPrefix(trimmed, []byte("```"))
	trimmed = bytes.TrimSuffix(bytes.TrimSpace(trimmed), []byte("```"))
	return string(bytes.TrimSpace(trimmed))
}
