package engine

import (
	"context"
	"strings"
)

type Option func(*Options)

type Options struct {
	TopK         int
	SystemPrompt string
	Context      context.Context
}

func WithTopK(k int) Option {
	return func(o *Options) {
		o.TopK = k
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		TopK:         5,
		SystemPrompt: defaultSystemPrompt,
		Context:      context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.TopK < 1 {
		options.TopK = 5
	}
	if len(strings.TrimSpace(options.SystemPrompt)) == 0 {
		options.SystemPrompt = defaultSystemPrompt
	}
	return options
}
