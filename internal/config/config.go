package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Jira     JiraConfig     `yaml:"jira"`
	GitHub   GitHubConfig   `yaml:"github"`
	Push     PushConfig     `yaml:"push"`
	Files    FilesConfig    `yaml:"files"`
	Cron     CronConfig     `yaml:"cron"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

// APIKeySeed is a named API key from the config file, hashed into the
// database at bootstrap.
type APIKeySeed struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

type AuthConfig struct {
	JWTSecret     string       `yaml:"jwt_secret"`
	TokenTTLHours int          `yaml:"token_ttl_hours"`
	APIKeys       []APIKeySeed `yaml:"api_keys"`
}

// RedisConfig backs the notification bus and the push delivery queue.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JiraConfig struct {
	BaseURL  string `yaml:"base_url"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`
	// Default assignee for the implicit JQL used when the client sends none
	DefaultAssignee string `yaml:"default_assignee"`
}

type GitHubConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

type PushConfig struct {
	Enabled         bool   `yaml:"enabled"`
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subject         string `yaml:"subject"` // mailto: contact for VAPID
}

type FilesConfig struct {
	DataDir string `yaml:"data_dir"`
}

// CronConfig holds cron expressions for the scheduled jobs. Empty values
// fall back to the defaults in DefaultConfig.
type CronConfig struct {
	E2EReport       string `yaml:"e2e_report"`
	TodoReminder    string `yaml:"todo_reminder"`
	TodoCleanup     string `yaml:"todo_cleanup"`
	PullRequestScan string `yaml:"pull_request_scan"`
	RetentionSweep  string `yaml:"retention_sweep"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "mysql",
			DSN:    "devboard:devboard@tcp(localhost:3306)/devboard?charset=utf8mb4&parseTime=True&loc=Local",
		},
		Auth: AuthConfig{
			JWTSecret:     "devboard-secret-key-change-in-production",
			TokenTTLHours: 12,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
		},
		Files: FilesConfig{
			DataDir: "./data",
		},
		Cron: CronConfig{
			E2EReport:       "30 6 * * *",
			TodoReminder:    "0 9 * * *",
			TodoCleanup:     "0 7 * * 1",
			PullRequestScan: "0 10 * * *",
			RetentionSweep:  "0 3 * * *",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if key := os.Getenv("API_KEY"); key != "" {
		c.Auth.APIKeys = append(c.Auth.APIKeys, APIKeySeed{Name: "default", Key: key})
	}
	if baseURL := os.Getenv("JIRA_BASE_URL"); baseURL != "" {
		c.Jira.BaseURL = baseURL
	}
	if email := os.Getenv("JIRA_EMAIL"); email != "" {
		c.Jira.Email = email
	}
	if token := os.Getenv("JIRA_API_TOKEN"); token != "" {
		c.Jira.APIToken = token
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.GitHub.Token = token
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		c.Files.DataDir = dir
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}
