package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/ejfox/pinboard-news/config"
	"github.com/ejfox/pinboard-news/internal/article"
	"github.com/ejfox/pinboard-news/internal/limiter"
	"github.com/ejfox/pinboard-news/internal/news"
	"github.com/ejfox/pinboard-news/internal/openrouter"
	"github.com/ejfox/pinboard-news/internal/pinboard"
	"github.com/ejfox/pinboard-news/internal/store"
	"github.com/ejfox/pinboard-news/pkg/api"
)

func main() {
	var (
		configFile = flag.String("config", "news.yaml", "Path to configuration file")
		httpAddr   = flag.String("addr", "", "HTTP listen address (overrides config)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", *configFile, err)
	}
	if *httpAddr != "" {
		cfg.Server.HTTPAddr = *httpAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := store.NewRedisStore(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer kv.Close()

	repo := article.NewRepository(kv)
	pin := pinboard.NewClient(&cfg.Pinboard)
	source := pinboard.NewCachedSource(pin, kv)
	llm := openrouter.NewClient(&cfg.OpenRouter)

	// One limiter per process: pipeline runs triggered by concurrent
	// requests share the same upstream budget.
	lim := limiter.New(&cfg.Limiter)
	pipeline := news.NewPipeline(pin, llm, lim, repo, kv)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})

	newsAPI := api.New(repo, pipeline, source, llm, cfg)
	newsAPI.RegisterRoutes(app)

	go func() {
		log.Printf("Starting news API on %s", cfg.Server.HTTPAddr)
		if err := app.Listen(cfg.Server.HTTPAddr); err != nil {
			log.Fatalf("Fiber app failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Fiber shutdown failed: %v", err)
	}
	log.Println("Server exited properly")
}
