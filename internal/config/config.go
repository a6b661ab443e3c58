package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DatabaseType 数据库类型
type DatabaseType string

const (
	DatabaseTypeSQLite DatabaseType = "sqlite"
	DatabaseTypeMySQL  DatabaseType = "mysql"
)

// SQLiteConfig SQLite 数据库配置
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// MySQLConfig MySQL 数据库配置
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Charset  string `yaml:"charset"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type   DatabaseType `yaml:"type"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	MySQL  MySQLConfig  `yaml:"mysql"`
}

// ServerConfig 本地网关监听配置
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// YunhuConfig 云湖平台接入配置
type YunhuConfig struct {
	// BaseURL 平台 OpenAPI 基础地址
	BaseURL string `yaml:"base_url"`
	// Timeout 单次请求超时（秒）
	Timeout int `yaml:"timeout"`
	// UserAgent 请求 UA（不模拟浏览器指纹，仅标识本客户端）
	UserAgent string `yaml:"user_agent"`
	// Platform 登录时上报的平台标识
	Platform string `yaml:"platform"`
	// Proxy 出口代理，支持 http:// https:// socks5://
	Proxy string `yaml:"proxy"`
}

// TokenConfig 本地 Token 持久化配置
type TokenConfig struct {
	// File 加密后的 Token 文件
	File string `yaml:"file"`
	// KeyFile 对称密钥文件（不存在时自动生成）
	KeyFile string `yaml:"key_file"`
}

// Config 应用配置
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Yunhu    YunhuConfig
	Token    TokenConfig

	// 运行时配置（从数据库设置加载或动态更新）
	AdminPassword     string
	APIKey            string
	EnableIPRateLimit bool
	IPRateLimitWindow int // 秒
	IPRateLimitMax    int
	MaxErrorCount     int

	// 调试模式
	Debug bool
}

// Load 返回默认配置
func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type: DatabaseTypeSQLite,
			SQLite: SQLiteConfig{
				Path: "data.sqlite3",
			},
			MySQL: MySQLConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "",
				Database: "yunhu-api",
				Charset:  "utf8mb4",
			},
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 18666,
		},
		Yunhu: YunhuConfig{
			BaseURL:   "https://chat-go.jwzhd.com/v1",
			Timeout:   30,
			UserAgent: "yunhu-api/1.0",
			Platform:  "Web",
			Proxy:     "",
		},
		Token: TokenConfig{
			File:    "token.enc",
			KeyFile: "secret.key",
		},
		AdminPassword:     "admin",
		APIKey:            "",
		EnableIPRateLimit: false,
		IPRateLimitWindow: 60,
		IPRateLimitMax:    100,
		MaxErrorCount:     30,
		Debug:             false,
	}
}

// fileConfig YAML 配置文件结构
type fileConfig struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Yunhu    YunhuConfig    `yaml:"yunhu"`
	Token    TokenConfig    `yaml:"token"`
	Debug    bool           `yaml:"debug"`
}

// ConfigFileName 默认配置文件名
const ConfigFileName = "config.yaml"

// LoadConfig 加载配置：默认值 <- config.yaml <- 环境变量（含 .env）
func LoadConfig() (*Config, error) {
	cfg := Load()

	// .env 仅作补充，不覆盖已有环境变量
	_ = godotenv.Load()

	data, err := os.ReadFile(ConfigFileName)
	if err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, err
		}
		applyFileConfig(cfg, &fc)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyFileConfig 将配置文件中的非零值合并到配置
func applyFileConfig(cfg *Config, fc *fileConfig) {
	if fc.Database.Type != "" {
		cfg.Database.Type = fc.Database.Type
	}
	if fc.Database.SQLite.Path != "" {
		cfg.Database.SQLite.Path = fc.Database.SQLite.Path
	}
	if fc.Database.MySQL.Host != "" {
		cfg.Database.MySQL = fc.Database.MySQL
		if cfg.Database.MySQL.Charset == "" {
			cfg.Database.MySQL.Charset = "utf8mb4"
		}
	}
	if fc.Server.Host != "" {
		cfg.Server.Host = fc.Server.Host
	}
	if fc.Server.Port > 0 {
		cfg.Server.Port = fc.Server.Port
	}
	if fc.Yunhu.BaseURL != "" {
		cfg.Yunhu.BaseURL = fc.Yunhu.BaseURL
	}
	if fc.Yunhu.Timeout > 0 {
		cfg.Yunhu.Timeout = fc.Yunhu.Timeout
	}
	if fc.Yunhu.UserAgent != "" {
		cfg.Yunhu.UserAgent = fc.Yunhu.UserAgent
	}
	if fc.Yunhu.Platform != "" {
		cfg.Yunhu.Platform = fc.Yunhu.Platform
	}
	if fc.Yunhu.Proxy != "" {
		cfg.Yunhu.Proxy = fc.Yunhu.Proxy
	}
	if fc.Token.File != "" {
		cfg.Token.File = fc.Token.File
	}
	if fc.Token.KeyFile != "" {
		cfg.Token.KeyFile = fc.Token.KeyFile
	}
	cfg.Debug = fc.Debug
}

// applyEnvOverrides 环境变量优先级最高
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("YUNHU_BASE_URL"); v != "" {
		cfg.Yunhu.BaseURL = v
	}
	if v := os.Getenv("YUNHU_PROXY"); v != "" {
		cfg.Yunhu.Proxy = v
	}
	if v := os.Getenv("YUNHU_ADMIN_PASSWORD"); v != "" {
		cfg.AdminPassword = v
	}
	if v := os.Getenv("YUNHU_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port <= 65535 {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("YUNHU_DEBUG"); v == "1" || v == "true" {
		cfg.Debug = true
	}
}
