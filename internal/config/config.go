package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MinJWTSecretLength is the shortest signing secret the service accepts.
const MinJWTSecretLength = 32

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Log struct {
		Level string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret             string
		Issuer                string
		Audience              string
		AccessTokenTTLMinutes int
		RefreshTokenTTLDays   int
	}
	Audit struct {
		BufferSize          int
		WriteTimeoutSeconds int
	}
	RateLimit struct {
		AuthPerMinute int
		Burst         int
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.path", "data/catalog.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.issuer", "catalog-service")
	v.SetDefault("auth.audience", "catalog-clients")
	v.SetDefault("auth.accesstokenttlminutes", 60)
	v.SetDefault("auth.refreshtokenttldays", 7)
	v.SetDefault("audit.buffersize", 256)
	v.SetDefault("audit.writetimeoutseconds", 5)
	v.SetDefault("ratelimit.authperminute", 30)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "audit-archive")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports configuration the service cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth jwt secret is required")
	}
	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("auth jwt secret must be at least %d bytes", MinJWTSecretLength)
	}
	if strings.TrimSpace(c.Auth.Issuer) == "" || strings.TrimSpace(c.Auth.Audience) == "" {
		return fmt.Errorf("auth issuer and audience are required")
	}
	if c.Auth.AccessTokenTTLMinutes <= 0 {
		return fmt.Errorf("auth access token ttl must be positive")
	}
	if c.Auth.RefreshTokenTTLDays <= 0 {
		return fmt.Errorf("auth refresh token ttl must be positive")
	}
	return nil
}

// AccessTokenTTL returns the configured access-token lifetime.
func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the configured refresh-token lifetime.
func (c Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.Auth.RefreshTokenTTLDays) * 24 * time.Hour
}

// AuditWriteTimeout bounds a single audit write.
func (c Config) AuditWriteTimeout() time.Duration {
	if c.Audit.WriteTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Audit.WriteTimeoutSeconds) * time.Second
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
