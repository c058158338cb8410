package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/w-h-a/faqchat/config"
	"github.com/w-h-a/faqchat/embedder"
	openaiembedder "github.com/w-h-a/faqchat/embedder/openai"
	"github.com/w-h-a/faqchat/index"
	"github.com/w-h-a/faqchat/index/pinecone"
	"github.com/w-h-a/faqchat/index/postgres"
	"github.com/w-h-a/faqchat/ingest"
)

var (
	cfg struct {
		Corpus  string `help:"Path to the FAQ corpus file" default:"data/faq.json"`
		EnvFile string `help:"Optional .env file to load" default:".env"`
		Index   string `help:"Vector index backend (pinecone or postgres)" default:"pinecone"`
	}
)

func main() {
	_ = kong.Parse(&cfg)
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	conf, err := config.Load(cfg.EnvFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// validate shape before talking to any provider
	corpus, err := ingest.LoadCorpus(cfg.Corpus)
	if err != nil {
		log.Fatalf("❌ failed to load corpus: %v", err)
	}
	fmt.Printf("Found %d FAQ items\n", len(corpus))

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

	pipeline := ingest.New(
		emb,
		idx,
		ingest.WithBatchSize(conf.BatchSize),
		ingest.WithDimension(conf.Dimension),
		ingest.WithLogger(logger),
	)

	report, err := pipeline.Ingest(ctx, corpus)
	if err != nil {
		log.Fatalf("❌ ingestion failed after %d entries: %v", report.Entries, err)
	}

	fmt.Println("✅ FAQ upload completed successfully!")
	fmt.Printf("Total items processed: %d\n", report.Entries)
	fmt.Printf("Total vectors created: %d\n", report.Vectors)
}
