package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/agent"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/api"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/chat"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/config"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/embeddings"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/ingestion"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/llm"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/rag"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/router"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/search"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/session"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "chat":
		chatCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Error("unknown command", zap.String("command", os.Args[1]))
		printUsage()
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.Addr, "listen address")
	if err := flags.Parse(args); err != nil {
		logger.Fatal("parse serve flags", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, cleanup, err := buildChatService(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("setup chat service", zap.Error(err))
	}
	defer cleanup()

	server := api.New(svc, logger)
	if err := api.Serve(ctx, *addr, server, logger); err != nil {
		logger.Fatal("http server", zap.Error(err))
	}
}

func ingestCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	dataDir := flags.String("dir", cfg.DataDir, "path to directory containing documents")
	docType := flags.String("type", "policy", "document type (policy, form, faq)")
	if err := flags.Parse(args); err != nil {
		logger.Fatal("parse ingest flags", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	index, err := newIndex(cfg, logger)
	if err != nil {
		logger.Fatal("qdrant setup", zap.Error(err))
	}
	if err := index.EnsureCollection(ctx); err != nil {
		logger.Fatal("ensure collection", zap.Error(err))
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatal("embedder setup", zap.Error(err))
	}

	chunker := rag.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, logger)
	svc := ingestion.NewService(chunker, embedder, index, logger)

	total, err := svc.IngestDirectory(ctx, *dataDir, *docType)
	if err != nil {
		logger.Fatal("ingestion failed", zap.Error(err))
	}
	logger.Info("ingestion complete", zap.Int("chunks", total))
}

func chatCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	message := flags.String("message", "", "message to send")
	sessionID := flags.String("session", "", "session id for conversation continuity")
	if err := flags.Parse(args); err != nil {
		logger.Fatal("parse chat flags", zap.Error(err))
	}

	if strings.TrimSpace(*message) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*message = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatal("read question", zap.Error(err))
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, cleanup, err := buildChatService(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("setup chat service", zap.Error(err))
	}
	defer cleanup()

	resp, err := svc.ProcessMessage(ctx, *message, *sessionID)
	if err != nil {
		logger.Fatal("chat failed", zap.Error(err))
	}

	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for idx, source := range resp.Sources {
			switch {
			case source.URL != "":
				fmt.Printf("%d. %s (%s)\n", idx+1, source.Title, source.URL)
			default:
				fmt.Printf("%d. %s\n", idx+1, source.Source)
			}
		}
	}
	fmt.Printf("\nSession: %s\n", resp.SessionID)
}

func clearCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatal("parse clear flags", zap.Error(err))
	}

	if !*confirmed {
		fmt.Print("This will permanently delete the indexed knowledge base. Continue? [y/N]: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			logger.Info("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Info("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	index, err := newIndex(cfg, logger)
	if err != nil {
		logger.Fatal("qdrant setup", zap.Error(err))
	}
	if err := index.DropCollection(ctx); err != nil {
		logger.Fatal("drop collection", zap.Error(err))
	}
	logger.Info("knowledge base cleared", zap.String("collection", cfg.QdrantCollection))
}

func buildChatService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*chat.Service, func(), error) {
	index, err := newIndex(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("qdrant setup: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder setup: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("llm setup: %w", err)
	}

	redisClient, cleanup := newRedisClient(ctx, cfg, logger)

	var sessions session.Store
	if redisClient != nil {
		sessions = session.NewRedisStore(redisClient, cfg.SessionTTL, logger)
	} else {
		sessions = session.NewMemoryStore()
	}

	searchClient := search.NewTavilyClient(search.TavilyConfig{
		APIKey:     cfg.TavilyAPIKey,
		BaseURL:    cfg.TavilyBaseURL,
		MaxResults: cfg.TavilyMaxResults,
		CacheTTL:   cfg.SearchCacheTTL,
	}, redisClient, logger)

	retriever := rag.NewHybridRetriever(embedder, index, cfg.TopKResults, cfg.SimilarityThreshold, logger)
	orchestrator := agent.New(llmClient, retriever, searchClient, router.New(logger), logger)

	return chat.NewService(orchestrator, sessions, logger), cleanup, nil
}

func newIndex(cfg config.Config, logger *zap.Logger) (*rag.QdrantIndex, error) {
	return rag.NewQdrantIndex(rag.QdrantConfig{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Dimension:  cfg.EmbeddingDimension,
	}, logger)
}

// newRedisClient connects to Redis, falling back to nil (in-memory
// sessions, no search cache) when it is unreachable.
func newRedisClient(ctx context.Context, cfg config.Config, logger *zap.Logger) (*redis.Client, func()) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory sessions", zap.Error(err))
		return nil, func() {}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-memory sessions", zap.Error(err))
		_ = client.Close()
		return nil, func() {}
	}

	return client, func() { _ = client.Close() }
}

func printUsage() {
	fmt.Println("Usage: bank-support <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  serve    Run the HTTP API")
	fmt.Println("  ingest   Ingest documents into the knowledge base (use --dir and --type)")
	fmt.Println("  chat     Ask a one-off question from the command line")
	fmt.Println("  clear    Remove the indexed knowledge base")
}
