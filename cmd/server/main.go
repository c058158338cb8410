package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/w-h-a/faqchat"
	"github.com/w-h-a/faqchat/config"
	"github.com/w-h-a/faqchat/embedder"
	openaiembedder "github.com/w-h-a/faqchat/embedder/openai"
	"github.com/w-h-a/faqchat/generator"
	anthropicgenerator "github.com/w-h-a/faqchat/generator/anthropic"
	openaigenerator "github.com/w-h-a/faqchat/generator/openai"
	"github.com/w-h-a/faqchat/index"
	"github.com/w-h-a/faqchat/index/pinecone"
	"github.com/w-h-a/faqchat/index/postgres"
	httpserver "github.com/w-h-a/faqchat/server/http"
)

var (
	cfg struct {
		// Server config
		Address string `help:"Address for the http server to listen on" default:":3000"`
		EnvFile string `help:"Optional .env file to load" default:".env"`

		// Provider config
		Index     string `help:"Vector index backend (pinecone or postgres)" default:"pinecone"`
		Generator string `help:"Completion provider (openai or anthropic)" default:"openai"`
	}
)

func main() {
	_ = kong.Parse(&cfg)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	conf, err := config.Load(cfg.EnvFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var idx index.Index

	switch cfg.Index {
	case "postgres":
		if err := conf.RequirePostgres(); err != nil {
			log.Fatalf("bad config: %v", err)
		}
		idx = postgres.NewIndex(
			index.WithLocation(conf.PostgresURL),
			index.WithDimension(conf.Dimension),
		)
	default:
		if err := conf.RequirePinecone(); err != nil {
			log.Fatalf("bad config: %v", err)
		}
		idx = pinecone.NewIndex(
			index.WithLocation(conf.PineconeIndexHost),
			index.WithApiKey(conf.PineconeApiKey),
			index.WithDimension(conf.Dimension),
		)
	}

	emb := openaiembedder.NewEmbedder(
		embedder.WithApiKey(conf.OpenAIApiKey),
		embedder.WithModel(conf.EmbeddingModel),
		embedder.WithDimension(conf.Dimension),
	)

	var gen generator.Generator

	switch cfg.Generator {
	case "anthropic":
		gen = anthropicgenerator.NewGenerator(
			generator.WithApiKey(conf.AnthropicApiKey),
			generator.WithModel(conf.CompletionModel),
		)
	default:
		gen = openaigenerator.NewGenerator(
			generator.WithApiKey(conf.OpenAIApiKey),
			generator.WithModel(conf.CompletionModel),
		)
	}

	chat := faqchat.New(emb, idx, gen, conf.TopK, conf.BatchSize, conf.Dimension, "")

	server := httpserver.NewServer(
		chat.Engine(),
		idx,
		httpserver.WithAddress(cfg.Address),
		httpserver.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		if err := server.Stop(context.Background()); err != nil {
			logger.Error("failed to stop server", "error", err)
		}
	}()

	if err := server.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
