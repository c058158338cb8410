package conversation

import (
	"context"
	"log/slog"
	"strings"
)

// defaultFallback is what a thread shows when an engine call fails. A
// chat must stay usable after a failed turn, so failures become this
// assistant message instead of surfacing to the caller.
const defaultFallback = "There was an error, can you try asking again?"

type Option func(*Options)

type Options struct {
	Fallback string
	Logger   *slog.Logger
	Context  context.Context
}

func WithFallback(fallback string) Option {
	return func(o *Options) {
		o.Fallback = fallback
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Fallback: defaultFallback,
		Logger:   slog.Default(),
		Context:  context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if len(strings.TrimSpace(options.Fallback)) == 0 {
		options.Fallback = defaultFallback
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return options
}
