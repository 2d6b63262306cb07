package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fabfab/ddq-agent/api"
	"github.com/fabfab/ddq-agent/config"
	"github.com/fabfab/ddq-agent/ddq"
	"github.com/fabfab/ddq-agent/docgen"
	"github.com/fabfab/ddq-agent/llm"
	"github.com/fabfab/ddq-agent/search"
	"github.com/fabfab/ddq-agent/storage"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		serveCmd(logger, os.Args[2:])
	case "ask":
		askCmd(logger, os.Args[2:])
	case "templates":
		templatesCmd()
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// buildService constructs the shared pipeline clients once for the
// process lifetime. None of them are rebuilt per request.
func buildService(ctx context.Context, cfg config.Config, logger *log.Logger) (*ddq.Service, error) {
	searcher, err := search.NewSearcher(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("search setup: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm setup: %w", err)
	}
	llmClient = llm.NewRetrying(llmClient, llm.RetryOptions{
		MaxAttempts: cfg.LLM.MaxRetries,
		RPS:         cfg.LLM.RPS,
	}, logger)

	store, err := storage.NewS3Store(ctx, storage.S3Options{
		Bucket:   cfg.Storage.Bucket,
		Region:   cfg.Storage.Region,
		Endpoint: cfg.Storage.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("blob storage setup: %w", err)
	}

	archiver := docgen.NewArchiver(store, cfg.Storage.Prefix, logger)

	return ddq.NewService(searcher, llmClient, archiver, logger, ddq.ServiceOptions{
		SearchTop:       cfg.Search.Top,
		MaxPromptChars:  cfg.MaxPromptChars,
		MaxContextChars: cfg.MaxContextChars,
	}), nil
}

func serveCmd(logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// A failed client setup is recorded, not retried: the server still
	// starts and answers every request with 503.
	svc, err := buildService(ctx, cfg, logger)
	if err != nil {
		logger.Printf("service initialization failed, requests will be rejected: %v", err)
		svc = nil
	}

	var answerSvc api.AnswerService
	if svc != nil {
		answerSvc = svc
	}
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.New(answerSvc, cfg.APIKey, logger),
	}

	go func() {
		logger.Printf("listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}

func askCmd(logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	question := flags.String("question", "", "DDQ question to answer")
	template := flags.String("template", "", "document template name")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := buildService(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("service setup: %v", err)
	}

	resp, err := svc.Answer(ctx, ddq.Request{Prompt: *question, Template: *template})
	if err != nil {
		logger.Fatalf("answer failed: %v", err)
	}

	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for idx, source := range resp.Sources {
			fmt.Printf("%d. %s\n", idx+1, source)
		}
	}
	fmt.Println()
	fmt.Printf("Document: %s\n", resp.DocumentURL)
}

func templatesCmd() {
	for _, name := range docgen.Names() {
		fmt.Println(name)
	}
}

func printUsage() {
	fmt.Println("Usage: ddq-agent <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  serve      Start the HTTP API")
	fmt.Println("  ask        Answer a single DDQ question from the command line")
	fmt.Println("  templates  List available document templates")
}
