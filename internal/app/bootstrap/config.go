package bootstrap

import (
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the site backend.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	PublicBaseURL     string
	TrustProxyHeaders bool

	DatabaseURL string
	MaxDBConns  int32
	RedisURL    string

	KafkaBrokers     []string
	KafkaTopicPrefix string

	MailTransport    string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPImplicitTLS  bool
	SMTPTimeout      time.Duration
	MailFromAddress  string
	MailFromName     string
	AdminEmail       string
	InquiryEmail     string
	RFQEmail         string
	StorageBackend   string
	StorageRoot      string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKeyID    string
	S3SecretKey      string
	S3KeyPrefix      string
	S3URLExpiry      time.Duration
	MaxDocumentBytes int64

	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	JWTIssuer         string
	AllowEphemeralJWT bool
	BcryptCost        int

	AccessTokenTTL     time.Duration
	SessionTTL         time.Duration
	SessionAbsoluteTTL time.Duration
	LockoutDuration    time.Duration
	FailedThreshold    int

	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	TokenWindow       time.Duration
	TokenUsageLimit   int
	ArtifactCategory  string
	LeadLimit         int
	RFQLimit          int
	InvestorLimit     int
	RateLimitWindow   time.Duration
	MaxAttachmentSize int64

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
}

// configFile mirrors configs/default.yaml.
type configFile struct {
	Service struct {
		ID                string `yaml:"id"`
		HTTPPort          int    `yaml:"http_port"`
		GRPCPort          int    `yaml:"grpc_port"`
		PublicBaseURL     string `yaml:"public_base_url"`
		TrustProxyHeaders *bool  `yaml:"trust_proxy_headers"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaPrefix  string   `yaml:"kafka_topic_prefix"`
	} `yaml:"dependencies"`
	Mail struct {
		Transport   string `yaml:"transport"`
		Host        string `yaml:"smtp_host"`
		Port        int    `yaml:"smtp_port"`
		Username    string `yaml:"smtp_username"`
		ImplicitTLS *bool  `yaml:"smtp_implicit_tls"`
		FromAddress string `yaml:"from_address"`
		FromName    string `yaml:"from_name"`
		AdminEmail  string `yaml:"admin_email"`
		Inquiry     string `yaml:"inquiry_notification_email"`
		RFQ         string `yaml:"rfq_notification_email"`
	} `yaml:"mail"`
	Storage struct {
		Backend          string `yaml:"backend"`
		Root             string `yaml:"root"`
		Bucket           string `yaml:"s3_bucket"`
		Region           string `yaml:"s3_region"`
		Endpoint         string `yaml:"s3_endpoint"`
		KeyPrefix        string `yaml:"s3_key_prefix"`
		URLExpiry        string `yaml:"s3_url_expiry"`
		MaxDocumentBytes int64  `yaml:"max_document_bytes"`
	} `yaml:"storage"`
	Admin struct {
		BootstrapEmail string `yaml:"bootstrap_email"`
		JWTKeyID       string `yaml:"jwt_key_id"`
		JWTIssuer      string `yaml:"jwt_issuer"`
		AccessTokenTTL string `yaml:"access_token_ttl"`
		SessionTTL     string `yaml:"session_ttl"`
	} `yaml:"admin"`
	Investor struct {
		TokenWindow string `yaml:"token_window"`
		UsageLimit  int    `yaml:"usage_limit"`
		Category    string `yaml:"category"`
	} `yaml:"investor"`
	RateLimits struct {
		Lead     int    `yaml:"lead_per_window"`
		RFQ      int    `yaml:"rfq_per_window"`
		Investor int    `yaml:"investor_per_window"`
		Window   string `yaml:"window"`
	} `yaml:"rate_limits"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "site-backend",
		HTTPPort:           8080,
		GRPCPort:           9090,
		PublicBaseURL:      "http://localhost:8080",
		MaxDBConns:         20,
		KafkaTopicPrefix:   "nodrystarts.site",
		MailTransport:      "smtp",
		SMTPPort:           587,
		SMTPTimeout:        15 * time.Second,
		MailFromAddress:    "noreply@nodrystarts.com",
		MailFromName:       "No Dry Starts",
		StorageBackend:     "local",
		StorageRoot:        "media",
		S3URLExpiry:        15 * time.Minute,
		MaxDocumentBytes:   50 << 20,
		JWTKeyID:           "site-admin-key-1",
		JWTIssuer:          "nodrystarts-site",
		AllowEphemeralJWT:  true,
		BcryptCost:         12,
		AccessTokenTTL:     time.Hour,
		SessionTTL:         24 * time.Hour,
		SessionAbsoluteTTL: 7 * 24 * time.Hour,
		LockoutDuration:    30 * time.Minute,
		FailedThreshold:    5,
		TokenWindow:        48 * time.Hour,
		TokenUsageLimit:    3,
		ArtifactCategory:   "investor",
		LeadLimit:          10,
		RFQLimit:           5,
		InvestorLimit:      3,
		RateLimitWindow:    time.Hour,
		MaxAttachmentSize:  10 << 20,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		OutboxClaimTTL:     30 * time.Second,
		OutboxMaxRetries:   5,
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := applyFile(&cfg, raw); err != nil {
			return Config{}, err
		}
	case !os.IsNotExist(err):
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&cfg.ServiceID, f.Service.ID)
	setInt(&cfg.HTTPPort, f.Service.HTTPPort)
	setInt(&cfg.GRPCPort, f.Service.GRPCPort)
	setString(&cfg.PublicBaseURL, f.Service.PublicBaseURL)
	if f.Service.TrustProxyHeaders != nil {
		cfg.TrustProxyHeaders = *f.Service.TrustProxyHeaders
	}

	setString(&cfg.DatabaseURL, f.Dependencies.PostgresURL)
	setString(&cfg.RedisURL, f.Dependencies.RedisURL)
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	setString(&cfg.KafkaTopicPrefix, f.Dependencies.KafkaPrefix)

	setString(&cfg.MailTransport, f.Mail.Transport)
	setString(&cfg.SMTPHost, f.Mail.Host)
	setInt(&cfg.SMTPPort, f.Mail.Port)
	setString(&cfg.SMTPUsername, f.Mail.Username)
	if f.Mail.ImplicitTLS != nil {
		cfg.SMTPImplicitTLS = *f.Mail.ImplicitTLS
	}
	setString(&cfg.MailFromAddress, f.Mail.FromAddress)
	setString(&cfg.MailFromName, f.Mail.FromName)
	setString(&cfg.AdminEmail, f.Mail.AdminEmail)
	setString(&cfg.InquiryEmail, f.Mail.Inquiry)
	setString(&cfg.RFQEmail, f.Mail.RFQ)

	setString(&cfg.StorageBackend, f.Storage.Backend)
	setString(&cfg.StorageRoot, f.Storage.Root)
	setString(&cfg.S3Bucket, f.Storage.Bucket)
	setString(&cfg.S3Region, f.Storage.Region)
	setString(&cfg.S3Endpoint, f.Storage.Endpoint)
	setString(&cfg.S3KeyPrefix, f.Storage.KeyPrefix)
	if f.Storage.MaxDocumentBytes > 0 {
		cfg.MaxDocumentBytes = f.Storage.MaxDocumentBytes
	}

	setString(&cfg.BootstrapAdminEmail, f.Admin.BootstrapEmail)
	setString(&cfg.JWTKeyID, f.Admin.JWTKeyID)
	setString(&cfg.JWTIssuer, f.Admin.JWTIssuer)

	setString(&cfg.ArtifactCategory, f.Investor.Category)
	setInt(&cfg.TokenUsageLimit, f.Investor.UsageLimit)

	setInt(&cfg.LeadLimit, f.RateLimits.Lead)
	setInt(&cfg.RFQLimit, f.RateLimits.RFQ)
	setInt(&cfg.InvestorLimit, f.RateLimits.Investor)

	durations := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{"storage.s3_url_expiry", f.Storage.URLExpiry, &cfg.S3URLExpiry},
		{"admin.access_token_ttl", f.Admin.AccessTokenTTL, &cfg.AccessTokenTTL},
		{"admin.session_ttl", f.Admin.SessionTTL, &cfg.SessionTTL},
		{"investor.token_window", f.Investor.TokenWindow, &cfg.TokenWindow},
		{"rate_limits.window", f.RateLimits.Window, &cfg.RateLimitWindow},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("parse config file: invalid duration for %s: %q", d.name, d.raw)
		}
		*d.target = parsed
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.PublicBaseURL = envOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.TrustProxyHeaders = envBool("TRUST_PROXY_HEADERS", cfg.TrustProxyHeaders)

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopicPrefix = envOrDefault("KAFKA_TOPIC_PREFIX", cfg.KafkaTopicPrefix)

	cfg.MailTransport = strings.ToLower(strings.TrimSpace(envOrDefault("MAIL_TRANSPORT", cfg.MailTransport)))
	cfg.SMTPHost = envOrDefault("EMAIL_HOST", cfg.SMTPHost)
	cfg.SMTPPort = envInt("EMAIL_PORT", cfg.SMTPPort)
	cfg.SMTPUsername = envOrDefault("EMAIL_HOST_USER", cfg.SMTPUsername)
	cfg.SMTPPassword = envOrDefault("EMAIL_HOST_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPImplicitTLS = envBool("EMAIL_USE_SSL", cfg.SMTPImplicitTLS)
	cfg.SMTPTimeout = envDuration("EMAIL_TIMEOUT", cfg.SMTPTimeout)
	cfg.MailFromAddress = envOrDefault("DEFAULT_FROM_EMAIL", cfg.MailFromAddress)
	cfg.MailFromName = envOrDefault("DEFAULT_FROM_NAME", cfg.MailFromName)
	cfg.AdminEmail = envOrDefault("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.InquiryEmail = envOrDefault("INQUIRY_NOTIFICATION_EMAIL", cfg.InquiryEmail)
	cfg.RFQEmail = envOrDefault("RFQ_NOTIFICATION_EMAIL", cfg.RFQEmail)

	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(envOrDefault("STORAGE_BACKEND", cfg.StorageBackend)))
	cfg.StorageRoot = envOrDefault("MEDIA_ROOT", cfg.StorageRoot)
	cfg.S3Bucket = envOrDefault("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Region = envOrDefault("S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = envOrDefault("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKeyID = envOrDefault("S3_ACCESS_KEY_ID", cfg.S3AccessKeyID)
	cfg.S3SecretKey = envOrDefault("S3_SECRET_ACCESS_KEY", cfg.S3SecretKey)
	cfg.S3KeyPrefix = envOrDefault("S3_KEY_PREFIX", cfg.S3KeyPrefix)
	cfg.S3URLExpiry = envDuration("S3_URL_EXPIRY", cfg.S3URLExpiry)

	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.JWTIssuer = envOrDefault("JWT_ISSUER", cfg.JWTIssuer)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.AccessTokenTTL = envDuration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	cfg.SessionTTL = envDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.LockoutDuration = time.Duration(envInt("ACCOUNT_LOCKOUT_MINUTES", int(cfg.LockoutDuration.Minutes()))) * time.Minute
	cfg.BootstrapAdminEmail = envOrDefault("ADMIN_BOOTSTRAP_EMAIL", cfg.BootstrapAdminEmail)
	cfg.BootstrapAdminPassword = envOrDefault("ADMIN_BOOTSTRAP_PASSWORD", cfg.BootstrapAdminPassword)

	cfg.TokenWindow = envDuration("INVESTOR_TOKEN_WINDOW", cfg.TokenWindow)
	cfg.TokenUsageLimit = envInt("INVESTOR_TOKEN_USAGE_LIMIT", cfg.TokenUsageLimit)
	cfg.ArtifactCategory = envOrDefault("INVESTOR_DOCUMENT_CATEGORY", cfg.ArtifactCategory)
	cfg.LeadLimit = envInt("LEAD_RATE_LIMIT", cfg.LeadLimit)
	cfg.RFQLimit = envInt("RFQ_RATE_LIMIT", cfg.RFQLimit)
	cfg.InvestorLimit = envInt("INVESTOR_RATE_LIMIT", cfg.InvestorLimit)
	cfg.RateLimitWindow = envDuration("RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	cfg.MaxAttachmentSize = int64(envInt("RFQ_MAX_ATTACHMENT_BYTES", int(cfg.MaxAttachmentSize)))
	cfg.MaxDocumentBytes = int64(envInt("MAX_DOCUMENT_BYTES", int(cfg.MaxDocumentBytes)))

	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	switch c.MailTransport {
	case "log":
	case "smtp":
		if c.AdminEmail == "" {
			return fmt.Errorf("missing ADMIN_EMAIL")
		}
		if _, err := mail.ParseAddress(c.AdminEmail); err != nil {
			return fmt.Errorf("invalid ADMIN_EMAIL: %w", err)
		}
		if c.SMTPHost == "" {
			return fmt.Errorf("missing EMAIL_HOST")
		}
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", c.MailTransport)
	}
	switch c.StorageBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("missing S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if (c.JWTPrivateKeyPEM == "" || c.JWTPublicKeyPEM == "") && !c.AllowEphemeralJWT {
		return fmt.Errorf("missing JWT_PRIVATE_KEY_PEM or JWT_PUBLIC_KEY_PEM")
	}
	if c.TokenUsageLimit <= 0 {
		return fmt.Errorf("investor token usage limit must be positive")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}

// envDuration accepts Go duration strings ("48h", "15m").
func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
