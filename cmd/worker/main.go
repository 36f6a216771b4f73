package main

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/Chiga36/Story-Generator/internal/config"
	"github.com/Chiga36/Story-Generator/internal/database"
	"github.com/Chiga36/Story-Generator/internal/imagegen"
	"github.com/Chiga36/Story-Generator/internal/kafka"
	"github.com/Chiga36/Story-Generator/internal/llm"
	"github.com/Chiga36/Story-Generator/internal/pipeline"
	"github.com/Chiga36/Story-Generator/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// GenerationHandler implements kafka.MessageHandler
type GenerationHandler struct {
	processor *pipeline.Processor
	storyRepo *database.StoryRepository
	storage   *storage.Client // optional image mirror
	imagesDir string
}

func (h *GenerationHandler) HandleMessage(ctx context.Context, msg *kafka.GenerationMessage) error {
	log.Info().
		Str("generation_id", msg.GenerationID.String()).
		Msg("Processing generation")

	if err := h.processor.Process(ctx, msg.GenerationID); err != nil {
		return err
	}
	if h.storage != nil {
		h.mirrorImages(ctx, msg.GenerationID)
	}
	return nil
}

// mirrorImages copies the generation's images to S3 so a server on another
// box can serve them. Mirror failures are logged, not returned; the record
// is already terminal.
func (h *GenerationHandler) mirrorImages(ctx context.Context, id uuid.UUID) {
	gen, err := h.storyRepo.GetByID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("generation_id", id.String()).Msg("Failed to reload generation for image mirror")
		return
	}
	for _, filename := range []*string{gen.CharacterImage, gen.BackgroundImage, gen.CombinedImage} {
		if filename == nil || *filename == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(h.imagesDir, *filename))
		if err != nil {
			log.Warn().Err(err).Str("filename", *filename).Msg("Failed to read image for mirror")
			continue
		}
		key := "images/" + *filename
		if err := h.storage.Upload(ctx, key, bytes.NewReader(data), "image/png", int64(len(data))); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to mirror image to S3")
		}
	}
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Starting Story Generator worker")

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal().Msg("KAFKA_BROKERS must be set for the worker")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.ImagesDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.ImagesDir).Msg("Failed to create images directory")
	}

	storyRepo := database.NewStoryRepository(db)

	llmClient := llm.NewClient(llm.Config{
		APIKey:      cfg.GeminiAPIKey,
		APIEndpoint: cfg.GeminiAPIEndpoint,
		ModelText:   cfg.GeminiModelText,
		CallTimeout: cfg.TextTimeout,
	})

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
	processor := pipeline.NewProcessor(storyRepo, orchestrator)

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

	handler := &GenerationHandler{
		processor: processor,
		storyRepo: storyRepo,
		storage:   storageClient,
		imagesDir: cfg.ImagesDir,
	}

	consumer := kafka.NewConsumer(
		cfg.KafkaBrokers,
		cfg.KafkaTopicGenerations,
		cfg.KafkaConsumerGroup,
		handler,
	)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	log.Info().Msg("Worker started, consuming generations...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Consumer shutdown complete")
	case <-time.After(30 * time.Second):
		log.Warn().Msg("Consumer shutdown timeout")
	}

	log.Info().Msg("Worker exited")
}
