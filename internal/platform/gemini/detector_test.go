package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/phrazzld/scout-api/internal/detection"
	"github.com/phrazzld/scout-api/internal/domain"
	"github.com/phrazzld/scout-api/internal/retry"
)

func TestParseDetections(t *testing.T) {
	text := `[
		{"box_2d": [100, 120, 480, 660], "label": "cat"},
		{"box_2d": [0, 0, 1000, 1000], "label": "sofa", "confidence": 0.93}
	]`

	detections, err := parseDetections(text)
	require.NoError(t, err)
	require.Len(t, detections, 2)

	assert.Equal(t, domain.Detection{
		Label: "cat",
		Box:   domain.BoundingBox{YMin: 100, XMin: 120, YMax: 480, XMax: 660},
	}, detections[0])
	assert.Equal(t, "sofa", detections[1].Label)
	assert.Equal(t, 0.93, detections[1].Confidence)
}

func TestParseDetectionsStripsCodeFence(t *testing.T) {
	text := "```json\n[{\"box_2d\": [1, 2, 3, 4], \"label\": \"dog\"}]\n```"

	detections, err := parseDetections(text)
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.Equal(t, "dog", detections[0].Label)
}

func TestParseDetectionsEmptyResult(t *testing.T) {
	detections, err := parseDetections("[]")
	require.NoError(t, err)
	assert.Empty(t, detections)
}

func TestParseDetectionsRejectsMalformedEntries(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not JSON", "the image shows a cat"},
		{"missing label", `[{"box_2d": [1, 2, 3, 4]}]`},
		{"short box", `[{"box_2d": [1, 2, 3], "label": "cat"}]`},
		{"long box", `[{"box_2d": [1, 2, 3, 4, 5], "label": "cat"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseDetections(tt.text)
			assert.ErrorIs(t, err, detection.ErrInvalidResponse)
		})
	}
}

func TestWrapAPIErrorExposesStatusToClassifier(t *testing.T) {
	apiErr := genai.APIError{Code: 429, Message: "resource exhausted", Status: "RESOURCE_EXHAUSTED"}
	wrapped := wrapAPIError(fmt.Errorf("generate content: %w", apiErr))

	// The retry layer must see the status without knowing about genai.
	assert.True(t, retry.Retryable(wrapped))

	var sc interface{ StatusCode() int }
	require.ErrorAs(t, wrapped, &sc)
	assert.Equal(t, 429, sc.StatusCode())

	// Wrapping must not lose the underlying API error.
	var unwrapped genai.APIError
	assert.ErrorAs(t, wrapped, &unwrapped)
}

func TestWrapAPIErrorPassesThroughPlainErrors(t *testing.T) {
	plain := errors.New("network connection refused")
	assert.Equal(t, plain, wrapAPIError(plain))
}

func TestResponseText(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		_, err := responseText(nil)
		assert.ErrorIs(t, err, detection.ErrInvalidResponse)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, err := responseText(&genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, detection.ErrInvalidResponse)
	})

	t.Run("safety blocked", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{FinishReason: genai.FinishReasonSafety},
			},
		}
		_, err := responseText(resp)
		assert.ErrorIs(t, err, detection.ErrContentBlocked)
	})

	t.Run("joined parts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{
					Content: &genai.Content{
						Parts: []*genai.Part{
							{Text: "[{\"box_2d\": [1, 2, 3, 4],"},
							{Text: " \"label\": \"cat\"}]"},
						},
					},
				},
			},
		}
		text, err := responseText(resp)
		require.NoError(t, err)
		assert.Contains(t, text, "cat")
	})
}

func TestCreatePrompt(t *testing.T) {
	tmpl, err := template.New("detect").Parse("Detect {{.Target}} in the image.")
	require.NoError(t, err)

	d := &Detector{
		logger:         slog.New(slog.NewTextHandler(os.Stdout, nil)),
		promptTemplate: tmpl,
	}

	prompt, err := d.createPrompt(context.Background(), "traffic cones")
	require.NoError(t, err)
	assert.Equal(t, "Detect traffic cones in the image.", prompt)

	// Empty target falls back to the default.
	prompt, err = d.createPrompt(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Detect items in the image.", prompt)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `[]`, stripCodeFence("```json\n[]\n```"))
	assert.Equal(t, `[]`, stripCodeFence("```\n[]\n```"))
	assert.Equal(t, `[]`, stripCodeFence("  []  "))
	assert.Equal(t, `[{"label": "cat"}]`, stripCodeFence(`[{"label": "cat"}]`))
}
