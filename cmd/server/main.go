package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Chiga36/Story-Generator/internal/config"
	"github.com/Chiga36/Story-Generator/internal/database"
	"github.com/Chiga36/Story-Generator/internal/handlers"
	"github.com/Chiga36/Story-Generator/internal/imagegen"
	"github.com/Chiga36/Story-Generator/internal/kafka"
	"github.com/Chiga36/Story-Generator/internal/llm"
	"github.com/Chiga36/Story-Generator/internal/pipeline"
	"github.com/Chiga36/Story-Generator/internal/services"
	"github.com/Chiga36/Story-Generator/internal/storage"
	"github.com/Chiga36/Story-Generator/migrations"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Starting Story Generator server")

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := migrations.Run(db.SQLDB()); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	if err := os.MkdirAll(cfg.ImagesDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.ImagesDir).Msg("Failed to create images directory")
	}

	storyRepo := database.NewStoryRepository(db)
	audioRepo := database.NewAudioRepository(db)

	llmClient := llm.NewClient(llm.Config{
		APIKey:          cfg.GeminiAPIKey,
		APIEndpoint:     cfg.GeminiAPIEndpoint,
		ModelText:       cfg.GeminiModelText,
		ModelTranscribe: cfg.GeminiModelTranscribe,
		CallTimeout:     cfg.TextTimeout,
	})

	var transcriber services.Transcriber
	if llmClient.CanTranscribe() {
		transcriber = llmClient
	}

	// Dispatch through Kafka when brokers are configured; otherwise run the
	// pipeline in-process in the background.
	var publisher services.GenerationPublisher
	var processor services.GenerationProcessor
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicGenerations)
		defer producer.Close()
		publisher = producer
	} else {
		log.Warn().Msg("No Kafka brokers configured, processing generations in-process")
		processor = newInProcessProcessor(cfg, storyRepo, llmClient)
	}

	storyService := services.NewStoryService(storyRepo, audioRepo, publisher, processor, transcriber, cfg)

	var storageClient *storage.Client
	if cfg.S3Bucket != "" {
		storageClient, err = storage.NewClient(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket,
			cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3PublicURL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize storage client")
		}
	}

	h := handlers.NewHandler(storyService, storageClient, cfg)
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server exited")
}

// newInProcessProcessor builds the full pipeline for the no-broker deployment.
func newInProcessProcessor(cfg *config.Config, storyRepo *database.StoryRepository, llmClient *llm.Client) *pipeline.Processor {
	imageClient := imagegen.NewClient(imagegen.Config{
		ImagesDir:            cfg.ImagesDir,
		Timeout:              cfg.ImageTimeout,
		GeminiAPIKey:         cfg.GeminiAPIKey,
		GeminiAPIEndpoint:    cfg.GeminiAPIEndpoint,
		GeminiModel:          cfg.GeminiModelImage,
		HFEndpoint:           cfg.HFEndpoint,
		HFAPIKey:             cfg.HFAPIKey,
		HFModels:             cfg.HFModels,
		PollinationsEndpoint: cfg.PollinationsEndpoint,
		PollinationsModel:    cfg.PollinationsModel,
	})
	placeholder := imagegen.NewPlaceholder(cfg.ImagesDir)
	composer := imagegen.NewComposer(cfg.ImagesDir)

	orchestrator := pipeline.NewOrchestrator(llmClient, imageClient, placeholder, composer, cfg.SceneMode)
	return pipeline.NewProcessor(storyRepo, orchestrator)
}
