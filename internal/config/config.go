package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port          int
	DataPath      string
	DBPath        string
	UploadPath    string
	SubtitlePath  string
	GeminiAPIKey  string
	GeminiModel   string
	JWTSecret     string
	AdminUsername string
	AdminPassword string
	CORSOrigins   []string
	MaxUploadMB   int64
}

func Load() *Config {
	port, _ := strconv.Atoi(getEnv("PORT", "8080"))
	dataPath := getEnv("DATA_PATH", "/data")

	// The transcription service credential is the one required setting:
	// without it every transcription attempt would fail, so refuse to start.
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		log.Fatal("GEMINI_API_KEY not set; the transcription service cannot be reached without it")
	}

	// JWT secret: require explicit setting or generate random
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatalf("Failed to generate random JWT secret: %v", err)
		}
		jwtSecret = hex.EncodeToString(b)
		log.Println("WARNING: JWT_SECRET not set, using random secret. Sessions will not survive restarts. Set JWT_SECRET env var for persistent sessions.")
	}

	// CORS origins: comma-separated list or "*" (default)
	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	maxUploadMB, _ := strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "200"), 10, 64)
	if maxUploadMB <= 0 {
		maxUploadMB = 200
	}

	return &Config{
		Port:          port,
		DataPath:      dataPath,
		DBPath:        getEnv("DB_PATH", dataPath+"/audioscribe.db"),
		UploadPath:    getEnv("UPLOAD_PATH", dataPath+"/uploads"),
		SubtitlePath:  getEnv("SUBTITLE_PATH", dataPath+"/subtitles"),
		GeminiAPIKey:  geminiKey,
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		JWTSecret:     jwtSecret,
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
		CORSOrigins:   corsOrigins,
		MaxUploadMB:   maxUploadMB,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
