package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const DefaultModel = "gemini-2.0-flash"

// Generator turns a prompt into generated markdown.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// contentModel is the slice of genai.Models the client depends on.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type ClientConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

type AIClient struct {
	models      contentModel
	model       string
	temperature float32
	logger      *slog.Logger
}

var _ Generator = (*AIClient)(nil)

func NewAIClient(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*AIClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewAIClient")
	defer span.End()

	if cfg.APIKey == "" {
		err := fmt.Errorf("%w: gemini api key is not set", types.ErrGeneration)
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", types.ErrGeneration, err)
	}

	span.SetStatus(codes.Ok, "AI client created successfully")
	return newAIClient(client.Models, cfg, logger), nil
}

func newAIClient(models contentModel, cfg ClientConfig, logger *slog.Logger) *AIClient {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &AIClient{
		models:      models,
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Generate sends a single-turn prompt and returns the response text. Any
// failure, including an empty answer, is reported as types.ErrGeneration.
func (ai *AIClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Generate", trace.WithAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.String("model", ai.model),
	))
	defer span.End()

	l := ai.logger.With(slog.String("method", "Generate"), slog.String("model", ai.model))
	start := time.Now()

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(ai.temperature)}
	result, err := ai.models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate content")
		l.ErrorContext(ctx, "Gemini request failed", slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", types.ErrGeneration, err)
	}
	if result == nil {
		err = errors.New("empty response")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty response")
		return "", fmt.Errorf("%w: %v", types.ErrGeneration, err)
	}

	responseText := result.Text()
	if strings.TrimSpace(responseText) == "" {
		err = errors.New("response contained no text")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty response")
		return "", fmt.Errorf("%w: %v", types.ErrGeneration, err)
	}

	l.InfoContext(ctx, "Content generated",
		slog.Int("response_length", len(responseText)),
		slog.Duration("elapsed", time.Since(start)))
	span.SetAttributes(attribute.Int("response.length", len(responseText)))
	span.SetStatus(codes.Ok, "Content generated successfully")
	return responseText, nil
}
