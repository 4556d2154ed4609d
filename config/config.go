// Package config loads application settings from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr string

	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string
	Temperature float32
	MaxTokens   int

	TavilyAPIKey     string
	TavilyBaseURL    string
	TavilyMaxResults int
	SearchCacheTTL   time.Duration

	RedisURL   string
	SessionTTL time.Duration

	QdrantHost       string
	QdrantPort       int
	QdrantAPIKey     string
	QdrantCollection string

	EmbeddingAPIKey    string
	EmbeddingBaseURL   string
	EmbeddingModel     string
	EmbeddingDimension int

	ChunkSize           int
	ChunkOverlap        int
	TopKResults         int
	SimilarityThreshold float64

	DataDir string
}

func Load() Config {
	return Config{
		Addr: getEnv("ADDR", ":8000"),

		GroqAPIKey:  getEnv("GROQ_API_KEY", ""),
		GroqBaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		Temperature: float32(getEnvFloat("TEMPERATURE", 0.7)),
		MaxTokens:   getEnvInt("MAX_TOKENS", 2000),

		TavilyAPIKey:     getEnv("TAVILY_API_KEY", ""),
		TavilyBaseURL:    getEnv("TAVILY_BASE_URL", "https://api.tavily.com"),
		TavilyMaxResults: getEnvInt("TAVILY_MAX_RESULTS", 5),
		SearchCacheTTL:   getEnvDuration("SEARCH_CACHE_TTL", time.Hour),

		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379"),
		SessionTTL: getEnvDuration("SESSION_TTL", time.Hour),

		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "bank_documents"),

		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimension: getEnvInt("EMBEDDING_DIMENSION", 384),

		ChunkSize:           getEnvInt("CHUNK_SIZE", 512),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 50),
		TopKResults:         getEnvInt("TOP_K_RESULTS", 5),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.7),

		DataDir: getEnv("DATA_DIR", "./data"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
