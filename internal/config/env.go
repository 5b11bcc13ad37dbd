package config

import (
    "errors"
    "io/fs"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// ServerConfig defines the HTTP listener and request limits.
type ServerConfig struct {
    Port            string
    MaxUploadMB     int
    MaxInflight     int
    InflightWait    time.Duration
    ShutdownTimeout time.Duration
}

// PreviewConfig defines thumbnail rendering.
type PreviewConfig struct {
    Scale    float64
    MaxPages int
    Format   string // "png"|"jpeg"
    Quality  int
    Color    string // "rgb"|"gray"
}

// CodecConfig defines PDF encoding behavior.
type CodecConfig struct {
    Optimize bool
}

// ArtifactConfig defines where operation results are kept for download.
type ArtifactConfig struct {
    Backend  string // "memory"|"redis"
    TTL      time.Duration
    RedisURL string
}

// S3Config defines the optional export bucket.
type S3Config struct {
    Bucket          string
    Prefix          string
    Region          string
    Endpoint        string
    AccessKeyID     string
    SecretAccessKey string
}

// WebConfig defines dashboard access.
type WebConfig struct {
    Username     string
    PasswordHash string
}

// Config is the top-level configuration.
type Config struct {
    Logging   LoggingConfig
    Axiom     AxiomConfig
    Server    ServerConfig
    Preview   PreviewConfig
    Codec     CodecConfig
    Artifacts ArtifactConfig
    S3        S3Config
    Web       WebConfig
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
    if len(paths) == 0 { paths = []string{".env"} }
    for _, p := range paths {
        if err := godotenv.Load(p); err != nil {
            if errors.Is(err, fs.ErrNotExist) { continue }
            return err
        }
    }
    return nil
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/pdfmanager.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_pdfmanager",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Server = ServerConfig{
        Port:            getEnv("PORT", "8080"),
        MaxUploadMB:     parseInt(getEnv("MAX_UPLOAD_MB", "64"), 64),
        MaxInflight:     parseInt(getEnv("MAX_INFLIGHT", "4"), 4),
        InflightWait:    parseDuration(getEnv("INFLIGHT_WAIT", "2s"), 2*time.Second),
        ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
    }
    if cfg.Server.MaxUploadMB <= 0 { cfg.Server.MaxUploadMB = 64 }

    cfg.Preview = PreviewConfig{
        Scale:    parseFloat(getEnv("PREVIEW_SCALE", "0.5"), 0.5),
        MaxPages: parseInt(getEnv("PREVIEW_MAX_PAGES", "50"), 50),
        Format:   strings.ToLower(getEnv("PREVIEW_FORMAT", "png")),
        Quality:  parseInt(getEnv("PREVIEW_JPEG_QUALITY", "85"), 85),
        Color:    strings.ToLower(getEnv("PREVIEW_COLOR", "rgb")),
    }
    if cfg.Preview.Scale <= 0 { cfg.Preview.Scale = 0.5 }

    cfg.Codec = CodecConfig{
        Optimize: parseBool(getEnv("PDF_OPTIMIZE", "true")),
    }

    cfg.Artifacts = ArtifactConfig{
        Backend:  strings.ToLower(getEnv("ARTIFACT_STORE", "memory")),
        TTL:      parseDuration(getEnv("ARTIFACT_TTL", "15m"), 15*time.Minute),
        RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
    }

    cfg.S3 = S3Config{
        Bucket:          getEnv("S3_BUCKET", ""),
        Prefix:          strings.Trim(getEnv("S3_PREFIX", "pdfmanager"), "/"),
        Region:          getEnv("AWS_REGION", ""),
        Endpoint:        getEnv("S3_ENDPOINT", ""),
        AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
        SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
    }

    cfg.Web = WebConfig{
        Username:     getEnv("WEB_USERNAME", ""),
        PasswordHash: getEnv("WEB_PASSWORD_HASH", ""),
    }

    return cfg
}

// MaxUploadBytes is the request body cap derived from MaxUploadMB.
func (c ServerConfig) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseFloat(s string, def float64) float64 {
    if s == "" { return def }
    if f, err := strconv.ParseFloat(s, 64); err == nil { return f }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
