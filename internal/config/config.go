package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Scene modes. Two behaviors exist for the final artifact: "generate" produces
// a third cohesive scene image directly from the user's prompt; "composite"
// overlays the character portrait onto the background image.
const (
	SceneModeGenerate  = "generate"
	SceneModeComposite = "composite"
)

// Config holds application configuration
type Config struct {
	// Server
	HTTPAddr string
	LogLevel string

	// Database
	DatabaseURL string

	// Kafka (optional; when no brokers are set the server processes
	// generations in-process instead of dispatching to the worker)
	KafkaBrokers          []string
	KafkaConsumerGroup    string
	KafkaTopicGenerations string

	// Gemini API
	GeminiAPIKey          string
	GeminiAPIEndpoint     string // if set, overrides default Gemini API base URL
	GeminiModelText       string // story and character description, e.g. gemini-2.5-flash
	GeminiModelImage      string // native image generation, e.g. gemini-3-pro-image-preview
	GeminiModelTranscribe string // audio transcription, e.g. gemini-2.5-flash

	// Image providers
	HFEndpoint           string // Hugging Face inference base URL
	HFAPIKey             string
	HFModels             []string // tried in order; 503 means warming, try next
	PollinationsEndpoint string
	PollinationsModel    string

	// Generation
	ImagesDir    string
	ExportsDir   string
	SceneMode    string // generate or composite
	TextTimeout  time.Duration
	ImageTimeout time.Duration
	PromptMinLen int
	PromptMaxLen int
	MaxAudioSize int64 // bytes

	// S3 export archive (optional; disabled when bucket is empty)
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		KafkaBrokers:          getEnvList("KAFKA_BROKERS", nil),
		KafkaConsumerGroup:    getEnv("KAFKA_CONSUMER_GROUP", "storygen-worker-main"),
		KafkaTopicGenerations: getEnv("KAFKA_TOPIC_GENERATIONS", "storygen.generations.v1"),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiAPIEndpoint:     getEnv("GEMINI_API_ENDPOINT", ""),
		GeminiModelText:       getEnv("GEMINI_MODEL_TEXT", "gemini-2.5-flash"),
		GeminiModelImage:      getEnv("GEMINI_MODEL_IMAGE", "gemini-3-pro-image-preview"),
		GeminiModelTranscribe: getEnv("GEMINI_MODEL_TRANSCRIBE", "gemini-2.5-flash"),

		HFEndpoint: getEnv("HF_ENDPOINT", "https://api-inference.huggingface.co"),
		HFAPIKey:   getEnv("HF_API_KEY", ""),
		HFModels: getEnvList("HF_MODELS", []string{
			"stabilityai/stable-diffusion-xl-base-1.0",
			"stabilityai/stable-diffusion-2-1",
		}),
		PollinationsEndpoint: getEnv("POLLINATIONS_ENDPOINT", "https://image.pollinations.ai"),
		PollinationsModel:    getEnv("POLLINATIONS_MODEL", "flux"),

		ImagesDir:    getEnv("IMAGES_DIR", "media/generated_images"),
		ExportsDir:   getEnv("EXPORTS_DIR", "media/exports"),
		SceneMode:    getSceneMode(),
		TextTimeout:  getEnvDuration("TEXT_TIMEOUT", 60*time.Second),
		ImageTimeout: getEnvDuration("IMAGE_TIMEOUT", 90*time.Second),
		PromptMinLen: getEnvInt("PROMPT_MIN_LENGTH", 10),
		PromptMaxLen: getEnvInt("PROMPT_MAX_LENGTH", 1000),
		MaxAudioSize: getEnvInt64("MAX_AUDIO_SIZE", 10*1024*1024), // 10MB

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),
	}
}

func getSceneMode() string {
	mode := getEnv("SCENE_MODE", SceneModeGenerate)
	if mode != SceneModeGenerate && mode != SceneModeComposite {
		return SceneModeGenerate
	}
	return mode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
