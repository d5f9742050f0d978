package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Client    ClientConfig
	Poll      PollConfig
	Auth      AuthConfig
	Log       LogConfig
	DevServer DevServerConfig
}

type ClientConfig struct {
	BaseURL string
	Timeout int // seconds
	// The production deployment fronts a self-signed certificate; all
	// three original front-ends skip verification.
	InsecureSkipVerify bool
}

type PollConfig struct {
	IntervalMS int
	MaxCycles  int
}

type AuthConfig struct {
	CredentialsPath string
}

type LogConfig struct {
	Level string
	Env   string
}

type DevServerConfig struct {
	Port          string
	JWTSecret     string
	TokenTTLHours int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("client.base_url", "VIDEOKIT_BASE_URL")
	_ = viper.BindEnv("client.timeout", "VIDEOKIT_TIMEOUT")
	_ = viper.BindEnv("client.insecure_skip_verify", "VIDEOKIT_INSECURE_SKIP_VERIFY")
	_ = viper.BindEnv("poll.interval_ms", "VIDEOKIT_POLL_INTERVAL_MS")
	_ = viper.BindEnv("poll.max_cycles", "VIDEOKIT_POLL_MAX_CYCLES")
	_ = viper.BindEnv("auth.credentials_path", "VIDEOKIT_CREDENTIALS_PATH")
	_ = viper.BindEnv("log.level", "LOG_LEVEL")
	_ = viper.BindEnv("log.env", "APP_ENV")
	_ = viper.BindEnv("devserver.port", "DEVSERVER_PORT")
	_ = viper.BindEnv("devserver.jwt_secret", "DEVSERVER_JWT_SECRET")
	_ = viper.BindEnv("devserver.token_ttl_hours", "DEVSERVER_TOKEN_TTL_HOURS")
	_ = viper.BindEnv("devserver.redis_addr", "REDIS_ADDR")
	_ = viper.BindEnv("devserver.redis_password", "REDIS_PASSWORD")
	_ = viper.BindEnv("devserver.redis_db", "REDIS_DB")

	// Defaults
	viper.SetDefault("client.base_url", "https://82.156.59.17:8000")
	viper.SetDefault("client.timeout", 30)
	viper.SetDefault("client.insecure_skip_verify", true)
	viper.SetDefault("poll.interval_ms", 2500)
	viper.SetDefault("poll.max_cycles", 24)
	viper.SetDefault("auth.credentials_path", defaultCredentialsPath())
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.env", "development")
	viper.SetDefault("devserver.port", "8000")
	viper.SetDefault("devserver.jwt_secret", "change-me-in-production")
	viper.SetDefault("devserver.token_ttl_hours", 72)
	viper.SetDefault("devserver.redis_addr", "localhost:6379")
	viper.SetDefault("devserver.redis_password", "")
	viper.SetDefault("devserver.redis_db", 0)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Client: ClientConfig{
			BaseURL:            viper.GetString("client.base_url"),
			Timeout:            viper.GetInt("client.timeout"),
			InsecureSkipVerify: viper.GetBool("client.insecure_skip_verify"),
		},
		Poll: PollConfig{
			IntervalMS: viper.GetInt("poll.interval_ms"),
			MaxCycles:  viper.GetInt("poll.max_cycles"),
		},
		Auth: AuthConfig{
			CredentialsPath: viper.GetString("auth.credentials_path"),
		},
		Log: LogConfig{
			Level: viper.GetString("log.level"),
			Env:   viper.GetString("log.env"),
		},
		DevServer: DevServerConfig{
			Port:          viper.GetString("devserver.port"),
			JWTSecret:     viper.GetString("devserver.jwt_secret"),
			TokenTTLHours: viper.GetInt("devserver.token_ttl_hours"),
			RedisAddr:     viper.GetString("devserver.redis_addr"),
			RedisPassword: viper.GetString("devserver.redis_password"),
			RedisDB:       viper.GetInt("devserver.redis_db"),
		},
	}

	return cfg, nil
}

func defaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "credentials.json"
	}
	return filepath.Join(home, ".videokit", "credentials.json")
}
