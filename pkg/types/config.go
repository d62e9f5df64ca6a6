package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"30"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`

	// Remote REST backend
	BackendBaseURL    string `envconfig:"BACKEND_BASE_URL"`
	BackendTimeoutSec uint   `envconfig:"BACKEND_TIMEOUT_SEC" default:"10"`
	BackendJWKSURL    string `envconfig:"BACKEND_JWKS_URL"`

	// Upper bound for a single document upload, in bytes
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"` // 10 MiB

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}
