package openai

import (
	"context"
	"math"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/faqchat/generator"
)

type openAIGenerator struct {
	options generator.Options
	client  *openai.Client
}

func (g *openAIGenerator) Generate(ctx context.Context, req generator.Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.System,
	})

	for _, msg := range req.History {
		role := openai.ChatMessageRoleUser
		if msg.Role == generator.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	request := openai.ChatCompletionRequest{
		Model:    g.options.Model,
		Messages: messages,
		// the client drops a literal zero from the payload, so send the
		// smallest value it will serialize
		Temperature: math.SmallestNonzeroFloat32,
	}

	rsp, err := g.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", &generator.Error{Message: err.Error()}
	}

	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return "", &generator.Error{Message: "no response from OpenAI"}
	}

	return rsp.Choices[0].Message.Content, nil
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &openAIGenerator{
		options: options,
	}

	client := openai.NewClient(options.ApiKey)

	g.client = client

	return g
}
