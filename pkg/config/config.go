package config

import (
	"fmt"
	"time"
)

// Chat definition chat_service YAML structure
type Chat struct {
	Port       string        `mapstructure:"port"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`

	MongoSQL   DatabaseConfig  `mapstructure:"mongo"`
	PostgreSQL DatabaseConfig  `mapstructure:"pg"`
	Redis      RedisConfig     `mapstructure:"redis"`
	MinIO      MinIOConfig     `mapstructure:"minio"`
	Kafka      KafkaConfig     `mapstructure:"kafka"`
	JWT        JWTConfig       `mapstructure:"jwt"`
	Assistant  AssistantConfig `mapstructure:"assistant"`
	Upload     UploadConfig    `mapstructure:"upload"`
	RateLimit  RateLimitConfig `mapstructure:"ratelimit"`
	WebSocket  WebSocketConfig `mapstructure:"websocket"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	RedisDB int    `mapstructure:"redis_db"`
	Addr    string `mapstructure:"addr"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// MinIOConfig definition object storage setting
type MinIOConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	PublicURL     string `mapstructure:"public_url"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// KafkaConfig definition reconcile topic setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// JWTConfig definition token setting
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// AssistantConfig definition AI responder setting
type AssistantConfig struct {
	MemberID        string        `mapstructure:"member_id"`
	Name            string        `mapstructure:"name"`
	Email           string        `mapstructure:"email"`
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	ContextLimit    int           `mapstructure:"context_limit"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// UploadConfig definition attachment limits
type UploadConfig struct {
	MaxSize int64 `mapstructure:"max_size"`
}

// RateLimitConfig definition send / typing / auth limits
type RateLimitConfig struct {
	SendPerMinute int           `mapstructure:"send_per_minute"`
	AuthAttempts  int           `mapstructure:"auth_attempts"`
	AuthWindow    time.Duration `mapstructure:"auth_window"`
	TypingPerSec  float64 `mapstructure:"typing_per_sec"`
	TypingBurst   int     `mapstructure:"typing_burst"`
}

// WebSocketConfig definition keepalive
type WebSocketConfig struct {
	PingInterval time.Duration `mapstructure:"ping_interval"`
	PongWait     time.Duration `mapstructure:"pong_wait"`
	WriteWait    time.Duration `mapstructure:"write_wait"`
}

// ApplyDefaults fill zero values with the service defaults
func (c *Chat) ApplyDefaults() {
	if c.Port == "" {
		c.Port = "3000"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 24 * time.Hour
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "vach_chat_service"
	}
	if c.Assistant.MemberID == "" {
		c.Assistant.MemberID = "671a00000000000000000001"
	}
	if c.Assistant.Name == "" {
		c.Assistant.Name = "AI Assistant"
	}
	if c.Assistant.Email == "" {
		c.Assistant.Email = "ai@assistant.bot"
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = "gemini-2.5-flash"
	}
	if c.Assistant.BaseURL == "" {
		c.Assistant.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Assistant.Temperature == 0 {
		c.Assistant.Temperature = 0.7
	}
	if c.Assistant.MaxOutputTokens == 0 {
		c.Assistant.MaxOutputTokens = 1024
	}
	if c.Assistant.ContextLimit == 0 {
		c.Assistant.ContextLimit = 20
	}
	if c.Assistant.Timeout == 0 {
		c.Assistant.Timeout = 30 * time.Second
	}
	if c.Upload.MaxSize == 0 {
		c.Upload.MaxSize = 5 * 1024 * 1024
	}
	if c.RateLimit.SendPerMinute == 0 {
		c.RateLimit.SendPerMinute = 30
	}
	if c.RateLimit.AuthAttempts == 0 {
		c.RateLimit.AuthAttempts = 5
	}
	if c.RateLimit.AuthWindow == 0 {
		c.RateLimit.AuthWindow = 15 * time.Minute
	}
	if c.RateLimit.TypingPerSec == 0 {
		c.RateLimit.TypingPerSec = 5
	}
	if c.RateLimit.TypingBurst == 0 {
		c.RateLimit.TypingBurst = 10
	}
	if c.WebSocket.PingInterval == 0 {
		c.WebSocket.PingInterval = 30 * time.Second
	}
	if c.WebSocket.PongWait == 0 {
		c.WebSocket.PongWait = 60 * time.Second
	}
	if c.WebSocket.WriteWait == 0 {
		c.WebSocket.WriteWait = 10 * time.Second
	}
}

// MongoURI mongo connection string
func (d DatabaseConfig) MongoURI() string {
	if d.User == "" {
		return fmt.Sprintf("mongodb://%s:%d", d.Host, d.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%d", d.User, d.Password, d.Host, d.Port)
}

// PostgresDSN postgres connection string
func (d DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Database)
}
