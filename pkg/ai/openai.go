package ai

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ Completion = (*Service)(nil)

type Service struct {
	client *openai.Client
	logger *log.Logger
	model  string
}

func NewOpenAIService(logger *log.Logger, apiKey string, baseUrl string, model string) *Service {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseUrl),
	)
	return &Service{
		client: &client,
		logger: logger,
		model:  model,
	}
}

func (s *Service) Complete(ctx context.Context, systemPrompt string, userInput string) (string, error) {
	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userInput),
		},
		Model: s.model,
	})
	if err != nil {
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no completion choices")
	}

	return completion.Choices[0].Message.Content, nil
}
