package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/w-h-a/faqchat"
	"github.com/w-h-a/faqchat/config"
	"github.com/w-h-a/faqchat/embedder"
	openaiembedder "github.com/w-h-a/faqchat/embedder/openai"
	"github.com/w-h-a/faqchat/generator"
	openaigenerator "github.com/w-h-a/faqchat/generator/openai"
	"github.com/w-h-a/faqchat/index"
	"github.com/w-h-a/faqchat/index/memory"
)

var (
	cfg struct {
		Corpus  string `help:"Path to the FAQ corpus to load at startup" default:"data/faq.json"`
		EnvFile string `help:"Optional .env file to load" default:".env"`
	}
)

// A local REPL over an in-memory index: ingest the corpus, then chat.
// Threads are managed with /new, /delete, and /threads.
func main() {
	_ = kong.Parse(&cfg)
	ctx := context.Background()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	conf, err := config.Load(cfg.EnvFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if len(conf.OpenAIApiKey) == 0 {
		log.Fatalf("bad config: %v", &config.Error{Missing: []string{"OPENAI_API_KEY"}})
	}

	emb := openaiembedder.NewEmbedder(
		embedder.WithApiKey(conf.OpenAIApiKey),
		embedder.WithModel(conf.EmbeddingModel),
		embedder.WithDimension(conf.Dimension),
	)

	idx := memory.NewIndex(
		index.WithDimension(conf.Dimension),
	)

	gen := openaigenerator.NewGenerator(
		generator.WithApiKey(conf.OpenAIApiKey),
		generator.WithModel(conf.CompletionModel),
	)

	chat := faqchat.New(emb, idx, gen, conf.TopK, conf.BatchSize, conf.Dimension, "")

	report, err := chat.IngestFile(ctx, cfg.Corpus)
	if err != nil {
		log.Fatalf("❌ failed to ingest corpus: %v", err)
	}
	fmt.Printf("✅ Ingested %d entries (%d vectors)\n", report.Entries, report.Vectors)

	fmt.Println("faqchat REPL. Type a question, or /new, /delete, /threads. Empty line quits.")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("Error reading input:", err)
			continue
		}
		input = strings.TrimSpace(input)
		if len(input) == 0 {
			fmt.Println("Goodbye!")
			return
		}

		switch {
		case input == "/new":
			id := chat.CreateThread()
			fmt.Printf("Started thread %s\n", id)
			continue
		case input == "/delete":
			if err := chat.DeleteThread(chat.ActiveThread()); err != nil {
				fmt.Println("Cannot delete:", err)
			}
			continue
		case input == "/threads":
			for _, info := range chat.Threads() {
				marker := " "
				if info.Id == chat.ActiveThread() {
					marker = "*"
				}
				fmt.Printf("%s %s  %s\n", marker, info.Id, info.Title)
			}
			continue
		}

		done, err := chat.Submit(ctx, chat.ActiveThread(), input)
		if err != nil {
			fmt.Println("Error submitting message:", err)
			continue
		}
		<-done

		turns, err := chat.History(chat.ActiveThread())
		if err != nil || len(turns) == 0 {
			continue
		}
		fmt.Printf("%s\n", turns[len(turns)-1].Text)
	}
}
