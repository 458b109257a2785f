package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 对局配置
type GameConfig struct {
	MaxScore int `yaml:"max_score"` // 每局的目标分
}

// SecurityConfig 连接安全配置
type SecurityConfig struct {
	ConnectionsPerMinute int      `yaml:"connections_per_minute"` // 单 IP 每分钟新建连接上限
	MessagesPerSecond    int      `yaml:"messages_per_second"`    // 单连接每秒消息上限
	AllowedOrigins       []string `yaml:"allowed_origins"`        // 允许的 Origin，空表示只允许同源
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 1797
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 1024
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Game.MaxScore == 0 {
		cfg.Game.MaxScore = 40
	}
	if cfg.Security.ConnectionsPerMinute == 0 {
		cfg.Security.ConnectionsPerMinute = 30
	}
	if cfg.Security.MessagesPerSecond == 0 {
		cfg.Security.MessagesPerSecond = 20
	}
}
