package answer

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are an assistant that answers questions based on provided document context.
Answer accurately using only the provided context. If the context does not
contain enough information, say so clearly. Be concise but thorough, and cite
specific details from the context when relevant.`

const defaultVisionPrompt = "Describe the content of this image, including any visible text."

// OpenAIGenerator generates answers through the OpenAI chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator. model falls back to gpt-4o when
// empty. baseURL may be empty for the default API endpoint.
func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai generator: missing API key")
	}
	if model == "" {
		model = openai.GPT4o
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// GenerateAnswer asks the model to answer query using docContext.
func (g *OpenAIGenerator) GenerateAnswer(ctx context.Context, query, docContext string) (string, error) {
	userPrompt := fmt.Sprintf("Context from documents:\n%s\n\nQuestion: %s\n\nPlease answer the question based on the context provided above.", docContext, query)
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// DescribeImage sends an image (as a data URL) with a prompt to a
// vision-capable model and returns the description.
func (g *OpenAIGenerator) DescribeImage(ctx context.Context, prompt, imageDataURL string) (string, error) {
	if prompt == "" {
		prompt = defaultVisionPrompt
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageDataURL}},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (g *OpenAIGenerator) Close() error {
	return nil
}
