package ingest

import (
	"context"
	"log/slog"
)

type Option func(*Options)

type Options struct {
	BatchSize int
	Dimension int
	Logger    *slog.Logger
	Context   context.Context
}

func WithBatchSize(size int) Option {
	return func(o *Options) {
		o.BatchSize = size
	}
}

func WithDimension(dimension int) Option {
	return func(o *Options) {
		o.Dimension = dimension
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		BatchSize: 10,
		Dimension: 1536,
		Logger:    slog.Default(),
		Context:   context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.BatchSize < 1 {
		options.BatchSize = 10
	}
	return options
}
