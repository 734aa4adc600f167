package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	// Gemini
	GeminiAPIKey     string
	GeminiModel      string
	GeminiUploadMode string
	GeminiBaseURL    string

	// Image normalization
	ImageMaxWidth  int
	ImageMaxHeight int
	ImageFormat    string
	// Larger sources are rejected before decoding
	ImageMaxSourcePixels int64
	TempDir              string

	// OCR backend: gemini or tesseract
	OCRBackend         string
	TesseractLanguages []string

	QualityHints          bool
	MaxConcurrentAnalyses int

	StaticDir            string
	CORSAllowedOrigins   []string
	ImageURLAllowedHosts []string
	// ImageURLAllowPrivate lets image_url reach loopback and private networks
	ImageURLAllowPrivate bool

	AzureStorageAccount string
	AzureStorageKey     string

	LogLevel  string
	LogFormat string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob storage credentials are configured
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// LoadFromEnv reads an optional .env file, then the environment, and validates the result
func LoadFromEnv() (*Config, error) {
	// A missing .env file is fine; real environment variables take precedence
	_ = godotenv.Load()

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8000"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 45*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // 20MB

		GeminiAPIKey:     firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY"),
		GeminiModel:      getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiUploadMode: strings.ToLower(getEnvOrDefault("GEMINI_UPLOAD_MODE", "inline")),
		GeminiBaseURL:    os.Getenv("GEMINI_BASE_URL"),

		ImageMaxWidth:        int(parseIntOrDefault("IMAGE_MAX_WIDTH", 1600)),
		ImageMaxHeight:       int(parseIntOrDefault("IMAGE_MAX_HEIGHT", 2300)),
		ImageFormat:          strings.ToLower(getEnvOrDefault("IMAGE_FORMAT", "png")),
		ImageMaxSourcePixels: parseIntOrDefault("IMAGE_MAX_SOURCE_PIXELS", 50_000_000),
		TempDir:              os.Getenv("TEMP_DIR"),

		OCRBackend:         strings.ToLower(getEnvOrDefault("OCR_BACKEND", "gemini")),
		TesseractLanguages: parseListOrDefault("TESSERACT_LANGUAGES", []string{"tur", "eng"}),

		QualityHints:          parseBoolOrDefault("QUALITY_HINTS", true),
		MaxConcurrentAnalyses: int(parseIntOrDefault("MAX_CONCURRENT_ANALYSES", 0)),

		StaticDir:            getEnvOrDefault("STATIC_DIR", "static"),
		CORSAllowedOrigins:   parseListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ImageURLAllowedHosts: parseListOrDefault("IMAGE_URL_ALLOWED_HOSTS", nil),
		ImageURLAllowPrivate: parseBoolOrDefault("IMAGE_URL_ALLOW_PRIVATE", false),

		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("GOOGLE_API_KEY (or GEMINI_API_KEY) must be set")
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.ImageMaxWidth <= 0 || c.ImageMaxHeight <= 0 {
		return fmt.Errorf("image bounds must be > 0 (got %dx%d)", c.ImageMaxWidth, c.ImageMaxHeight)
	}
	if c.ImageMaxSourcePixels < 0 {
		return fmt.Errorf("IMAGE_MAX_SOURCE_PIXELS must be >= 0 (got %d)", c.ImageMaxSourcePixels)
	}
	if c.MaxConcurrentAnalyses < 0 {
		return fmt.Errorf("MAX_CONCURRENT_ANALYSES must be >= 0 (got %d)", c.MaxConcurrentAnalyses)
	}

	if err := oneOf("GEMINI_UPLOAD_MODE", c.GeminiUploadMode, "inline", "files"); err != nil {
		return err
	}
	if err := oneOf("IMAGE_FORMAT", c.ImageFormat, "png", "jpeg", "jpg"); err != nil {
		return err
	}
	if err := oneOf("OCR_BACKEND", c.OCRBackend, "gemini", "tesseract"); err != nil {
		return err
	}
	if c.OCRBackend == "tesseract" && len(c.TesseractLanguages) == 0 {
		return fmt.Errorf("TESSERACT_LANGUAGES must not be empty when OCR_BACKEND=tesseract")
	}
	if (c.AzureStorageAccount == "") != (c.AzureStorageKey == "") {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %q (expected one of %s)", key, value, strings.Join(allowed, ", "))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// parseListOrDefault splits a comma separated value, dropping empty items
func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
