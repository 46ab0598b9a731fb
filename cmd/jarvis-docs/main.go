package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jarvis-docs/server/config"
	"github.com/jarvis-docs/server/internal/api"
	"github.com/jarvis-docs/server/internal/asr"
	"github.com/jarvis-docs/server/internal/documents"
	"github.com/jarvis-docs/server/internal/embeddings"
	"github.com/jarvis-docs/server/internal/llm"
	"github.com/jarvis-docs/server/internal/logger"
	"github.com/jarvis-docs/server/internal/memory"
	"github.com/jarvis-docs/server/internal/objectstore"
	"github.com/jarvis-docs/server/internal/ocr"
	"github.com/jarvis-docs/server/internal/rag"
	"github.com/jarvis-docs/server/internal/store"
)

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	logger.Init(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	db, err := store.New(cfg.Database.ConnectionString)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	objects, err := objectstore.New(
		cfg.ObjectStore.Endpoint,
		cfg.ObjectStore.AccessKey,
		cfg.ObjectStore.SecretKey,
		cfg.ObjectStore.Bucket,
		cfg.ObjectStore.UseSSL,
	)
	if err != nil {
		return fmt.Errorf("failed to create object store client: %w", err)
	}

	textEmb := embeddings.NewClient(cfg.Embeddings.BaseURL, cfg.Embeddings.APIKey, cfg.Embeddings.TextModel)
	captionEmb := embeddings.NewClient(cfg.Embeddings.BaseURL, cfg.Embeddings.APIKey, cfg.Embeddings.CaptionModel)

	index := store.NewIndex(db, textEmb, captionEmb)
	mem := memory.NewStore(db, textEmb)

	parser := documents.NewParser(objects, ocr.NewClient(cfg.OCR.BaseURL))
	processor := documents.NewProcessor(parser, index)

	retriever := rag.NewRetriever(textEmb, index)
	answerer := rag.NewAnswerer(llm.NewClient(
		cfg.LLM.BaseURL,
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.MaxTokens,
		cfg.LLM.Temp,
	))

	transcriber := asr.NewClient(cfg.ASR.BaseURL, cfg.ASR.Model)

	server := api.NewServer(processor, retriever, answerer, mem, transcriber, cfg.Retrieval.TopK)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Router(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigCh:
		logger.Info("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}
	return nil
}
