package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rmgen/rmgen-backend/config"
	"github.com/rmgen/rmgen-backend/model"
	openai "github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
	genai "google.golang.org/genai"
)

var errEmptyGeneration = errors.New("the model returned no content")

// Generator sends a prompt to the generative-text service and returns the text untouched
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewGenerator builds the generator of the configured provider.
// A provider that cannot be initialised (missing key, ...) yields a generator failing every
// call, so the rest of the API keeps working.
func NewGenerator(ctx context.Context, cfg config.Config, httpClient *http.Client) Generator {
	var generator Generator
	var err error

	switch cfg.Generator.Provider {
	case config.ProviderOpenAI:
		generator, err = NewOpenAIGenerator(cfg.Generator.APIKey, cfg.Generator.Model, cfg.Generator.BaseURL, httpClient)
	default:
		generator, err = NewGeminiGenerator(ctx, cfg.Generator.APIKey, cfg.Generator.Model, cfg.Generator.BaseURL, httpClient)
	}

	if err != nil {
		log.WithError(err).WithField("provider", cfg.Generator.Provider).Error("generative-text service unavailable")
		return unavailableGenerator{reason: err.Error()}
	}

	log.WithFields(log.Fields{
		"provider": cfg.Generator.Provider,
		"model":    cfg.Generator.Model,
	}).Info("generative-text service configured")

	return generator
}

type unavailableGenerator struct {
	reason string
}

func (g unavailableGenerator) Generate(context.Context, string) (string, error) {
	return "", &model.GenerationError{Detail: g.reason}
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator wraps the official genai client, baseURL is optional
func NewGeminiGenerator(ctx context.Context, apiKey, modelName, baseURL string, httpClient *http.Client) (Generator, error) {
	if apiKey == "" {
		return nil, errors.New("missing gemini api key")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}

	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, err
	}

	return geminiGenerator{client: client, model: modelName}, nil
}

func (g geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	log.WithField("promptBytes", len(prompt)).Debug("send prompt to gemini")

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", &model.GenerationError{Detail: err.Error()}
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &model.GenerationError{Detail: errEmptyGeneration.Error()}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	if text.Len() == 0 {
		return "", &model.GenerationError{Detail: errEmptyGeneration.Error()}
	}

	return text.String(), nil
}

type openAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator targets any OpenAI compatible chat completion API
func NewOpenAIGenerator(apiKey, modelName, baseURL string, httpClient *http.Client) (Generator, error) {
	if apiKey == "" {
		return nil, errors.New("missing openai api key")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	return openAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
	}, nil
}

func (g openAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	log.WithField("promptBytes", len(prompt)).Debug("send prompt to openai")

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &model.GenerationError{Detail: err.Error()}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &model.GenerationError{Detail: errEmptyGeneration.Error()}
	}

	return resp.Choices[0].Message.Content, nil
}
