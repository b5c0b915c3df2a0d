package describe

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sashabaranov/go-openai"
	"github.com/shelfsight/shelfsight/config"
	"github.com/shelfsight/shelfsight/internal"
	"github.com/shelfsight/shelfsight/pkg/models"
)

var log = internal.GetLogger()

const (
	describeTimeout     = 60 * time.Second
	describeMaxAttempts = 3
)

const describePromptTemplate = `You are a retail apparel analyst. Look at the image and describe the
single most prominent piece of apparel in it. Respond with a JSON object
only, no prose, with exactly these keys:

  "apparel_type": one of [{{.ApparelTypes}}], or what you see if none apply
  "color": the dominant color of the apparel
  "gender": "men", "women", "boys", "girls" or "unisex"
  "gender_confidence": your confidence in the gender, between 0 and 1
  "pattern": the pattern, e.g. "solid", "striped", "plaid"
  "features": notable features such as hood, zipper, pockets, print
  "brand": the brand if clearly visible

If a field is not discernible, use an empty string.`

var _ models.ImageDescriber = &VisionDescriber{}

// VisionDescriber asks a vision-capable chat model for the apparel
// attributes of an image.
type VisionDescriber struct {
	client       *openai.Client
	model        string
	maxImageEdge int
	prompt       string
}

func NewVisionDescriber(cfg *config.Config) (*VisionDescriber, error) {
	if cfg.Describer.APIKey == "" {
		return nil, fmt.Errorf("describer API key is not set")
	}
	clientCfg := openai.DefaultConfig(cfg.Describer.APIKey)
	if cfg.Describer.BaseURL != "" {
		clientCfg.BaseURL = cfg.Describer.BaseURL
	}
	prompt, err := internal.ParsePrompt(describePromptTemplate, map[string]string{
		"ApparelTypes": `"` + strings.Join(approvedApparels, `", "`) + `"`,
	})
	if err != nil {
		return nil, fmt.Errorf("parse describe prompt: %w", err)
	}
	return &VisionDescriber{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Describer.Model,
		maxImageEdge: cfg.Describer.MaxImageEdge,
		prompt:       prompt,
	}, nil
}

// Describe downscales the image, sends it to the vision model and returns
// the normalized apparel attributes.
func (d *VisionDescriber) Describe(
	ctx context.Context,
	imageData []byte,
) (*models.ApparelAttributes, error) {
	if len(imageData) == 0 {
		return nil, fmt.Errorf("%w: image data is empty", models.ErrInvalidInput)
	}

	scaled, err := downscaleImage(imageData, d.maxImageEdge)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	resp, err := d.createCompletion(ctx, scaled)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDescribeFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: empty completion", models.ErrDescribeFailed)
	}

	attrs, err := parseAttributes(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	normalizeAttributes(attrs)
	return attrs, nil
}

func (d *VisionDescriber) createCompletion(
	ctx context.Context,
	imageData []byte,
) (openai.ChatCompletionResponse, error) {
	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData)
	req := openai.ChatCompletionRequest{
		Model:       d.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: d.prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: imageURL,
						},
					},
				},
			},
		},
	}

	return retry.DoWithData(
		func() (openai.ChatCompletionResponse, error) {
			timeoutCtx, cancel := context.WithTimeout(ctx, describeTimeout)
			defer cancel()
			return d.client.CreateChatCompletion(timeoutCtx, req)
		},
		retry.Attempts(describeMaxAttempts),
		retry.Context(ctx),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Warningf("describe completion retry (attempt %d): %v", n+1, err)
		}),
	)
}
