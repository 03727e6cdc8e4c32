package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Addr string `yaml:"-"` // 不从配置文件读取，而是在加载后计算
	} `yaml:"server"`
	Log struct {
		Level    string `yaml:"level"`
		Format   string `yaml:"format"`
		Output   string `yaml:"output"`
		FilePath string `yaml:"file_path"`
	} `yaml:"log"`

	DB struct {
		Driver          string `yaml:"driver"` // mysql / sqlite
		Path            string `yaml:"path"`   // sqlite 数据库文件路径
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		Username        string `yaml:"username"`
		Password        string `yaml:"password"`
		Database        string `yaml:"database"`
		Charset         string `yaml:"charset"`
		ParseTime       bool   `yaml:"parse_time"`
		DSN             string `yaml:"-"`                 // 不从配置文件读取，而是在加载后计算
		MaxOpenConns    int    `yaml:"max_open_conns"`    // 最大打开连接数
		MaxIdleConns    int    `yaml:"max_idle_conns"`    // 最大空闲连接数
		ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // 连接最大生命周期（分钟）
	} `yaml:"database"`
	Reddit struct {
		ClientID        string   `yaml:"client_id"`
		ClientSecret    string   `yaml:"client_secret"`
		Username        string   `yaml:"username"`
		Password        string   `yaml:"password"`
		UserAgent       string   `yaml:"user_agent"`
		AuthURL         string   `yaml:"auth_url"`
		APIURL          string   `yaml:"api_url"`
		Subreddits      []string `yaml:"subreddits"`
		Keywords        []string `yaml:"keywords"`
		MaxPosts        int      `yaml:"max_posts"`         // 每个子版块最多抓取的帖子数
		RateLimitSec    int      `yaml:"rate_limit_sec"`    // 两次 Reddit 请求之间的最小间隔（秒）
		TimeoutSec      int      `yaml:"timeout_sec"`       // 请求超时时间,单位:秒
		CommentsPerPost int      `yaml:"comments_per_post"` // 每个帖子最多读取的顶层评论数
	} `yaml:"reddit"`
	LLM struct {
		Provider   string   `yaml:"provider"` // siliconflow / gemini
		APIKeys    []string `yaml:"api_keys"` // 每个 key 一个并发通道
		Model      string   `yaml:"model"`
		BaseURL    string   `yaml:"base_url"`
		TimeoutSec int      `yaml:"timeout_sec"`
		Gemini     struct {
			Models []struct {
				Name string `yaml:"name"`
				RPM  int    `yaml:"rpm"`
				RPD  int    `yaml:"rpd"`
			} `yaml:"models"`
		} `yaml:"gemini"`
	} `yaml:"llm"`
	Intent struct {
		MinIntent        string  `yaml:"min_intent"`        // HIGH / MEDIUM / LOW
		MinConfidence    float64 `yaml:"min_confidence"`    // 0.0 - 1.0
		IncludeResources bool    `yaml:"include_resources"` // 回复中是否附带资源链接
		PacingMs         int     `yaml:"pacing_ms"`         // 两次分类调用之间的固定间隔（毫秒）
	} `yaml:"intent"`
	Messaging struct {
		Enabled       bool   `yaml:"enabled"`
		Transport     string `yaml:"transport"` // reddit / telegram
		CooldownHours int    `yaml:"cooldown_hours"`
		TelegramToken string `yaml:"telegram_token"`
		TelegramChat  int64  `yaml:"telegram_chat_id"`
		WebhookURL    string `yaml:"webhook_url"` // 运营审核系统的推送地址
		WebhookAPIKey string `yaml:"webhook_api_key"`
	} `yaml:"messaging"`
	Scheduler struct {
		Enabled          bool `yaml:"enabled"`
		IntervalMinutes  int  `yaml:"interval_minutes"`   // 监控周期（分钟）
		CheckIntervalSec int  `yaml:"check_interval_sec"` // 调度器检查间隔（秒）
	} `yaml:"scheduler"`
}

// 原程序的默认监控子版块与关键词
var (
	defaultSubreddits = []string{
		"buildapc", "gadgets", "homeautomation", "software", "technology",
		"marketing", "productivity", "smallbusiness", "startups", "entrepreneur",
	}
	defaultKeywords = []string{
		"recommend", "looking for", "best", "alternative to", "vs", "compare",
		"should I buy", "worth it", "experience with", "thinking about getting",
		"need advice", "purchase", "buying", "suggest",
	}
)

// Load 加载配置，优先 config.yaml，其次环境变量
func Load() *Config {
	return LoadFrom("config.yaml")
}

// LoadFrom 从指定路径加载配置
func LoadFrom(path string) *Config {
	// 首先尝试加载.env文件中的环境变量
	_ = godotenv.Load() // 忽略错误，如果.env文件不存在，继续使用系统环境变量

	var cfg Config
	// 未在配置文件中出现的布尔项保持默认值
	cfg.Intent.IncludeResources = true

	data, err := os.ReadFile(path)
	if err != nil {
		// 如果config.yaml不存在，则完全从环境变量加载配置
		return loadFromEnv()
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf("Error loading %s: %v, falling back to environment variables", path, err)
		return loadFromEnv()
	}
	log.Printf("Loading configuration from %s", path)

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

func loadFromEnv() *Config {
	var cfg Config

	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	cfg.DB.Driver = os.Getenv("DB_DRIVER")
	cfg.DB.Path = os.Getenv("DB_PATH")
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	cfg.Reddit.ClientID = os.Getenv("REDDIT_CLIENT_ID")
	cfg.Reddit.Username = os.Getenv("REDDIT_USERNAME")
	cfg.Reddit.UserAgent = os.Getenv("REDDIT_USER_AGENT")
	cfg.LLM.Provider = os.Getenv("LLM_PROVIDER")
	cfg.Intent.IncludeResources = true

	if v := os.Getenv("MONITORING_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scheduler.IntervalMinutes = n
		}
	}
	if v := os.Getenv("MAX_POSTS_PER_SUBREDDIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Reddit.MaxPosts = n
		}
	}
	if v := os.Getenv("DM_COOLDOWN_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Messaging.CooldownHours = n
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	log.Println("配置从环境变量加载，部分配置可能缺失")
	return &cfg
}

// applyEnvOverrides 从环境变量中加载敏感信息
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_USERNAME"); v != "" {
		cfg.DB.Username = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.DB.Password = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Reddit.ClientSecret = v
	}
	if v := os.Getenv("REDDIT_PASSWORD"); v != "" {
		cfg.Reddit.Password = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Messaging.TelegramToken = v
	}
	if v := os.Getenv("WEBHOOK_API_KEY"); v != "" {
		cfg.Messaging.WebhookAPIKey = v
	}

	// LLM API密钥，多个 key 用逗号分隔
	keyEnv := "SILICONFLOW_API_KEY"
	if strings.EqualFold(cfg.LLM.Provider, "gemini") {
		keyEnv = "GEMINI_API_KEY"
	}
	if v := os.Getenv(keyEnv); v != "" {
		cfg.LLM.APIKeys = splitList(v)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	cfg.Server.Addr = fmt.Sprintf(":%d", cfg.Server.Port)

	if cfg.DB.Driver == "" {
		cfg.DB.Driver = "mysql"
	}
	if cfg.DB.Driver == "sqlite" && cfg.DB.Path == "" {
		cfg.DB.Path = "data/reddit_intent.db"
	}
	// 计算 DB.DSN 字段
	if cfg.DB.Driver == "mysql" && cfg.DB.DSN == "" && cfg.DB.Host != "" {
		if cfg.DB.Charset == "" {
			cfg.DB.Charset = "utf8mb4"
		}
		parseTime := ""
		if cfg.DB.ParseTime {
			parseTime = "&parseTime=true"
		}
		cfg.DB.DSN = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s%s",
			cfg.DB.Username,
			cfg.DB.Password,
			cfg.DB.Host,
			cfg.DB.Port,
			cfg.DB.Database,
			cfg.DB.Charset,
			parseTime)
	}

	if cfg.Reddit.AuthURL == "" {
		cfg.Reddit.AuthURL = "https://www.reddit.com"
	}
	if cfg.Reddit.APIURL == "" {
		cfg.Reddit.APIURL = "https://oauth.reddit.com"
	}
	if cfg.Reddit.UserAgent == "" {
		cfg.Reddit.UserAgent = "reddit_intent/1.0"
	}
	if len(cfg.Reddit.Subreddits) == 0 {
		cfg.Reddit.Subreddits = append([]string(nil), defaultSubreddits...)
	}
	if len(cfg.Reddit.Keywords) == 0 {
		cfg.Reddit.Keywords = append([]string(nil), defaultKeywords...)
	}
	if cfg.Reddit.MaxPosts <= 0 {
		cfg.Reddit.MaxPosts = 25
	}
	if cfg.Reddit.RateLimitSec <= 0 {
		cfg.Reddit.RateLimitSec = 2
	}
	if cfg.Reddit.TimeoutSec <= 0 {
		cfg.Reddit.TimeoutSec = 30
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "siliconflow"
	}
	if cfg.LLM.TimeoutSec <= 0 {
		cfg.LLM.TimeoutSec = 60
	}

	if cfg.Intent.MinIntent == "" {
		cfg.Intent.MinIntent = "MEDIUM"
	}
	if cfg.Intent.MinConfidence == 0 {
		cfg.Intent.MinConfidence = 0.6
	}
	if cfg.Intent.PacingMs <= 0 {
		cfg.Intent.PacingMs = 1000
	}

	if cfg.Messaging.Transport == "" {
		cfg.Messaging.Transport = "reddit"
	}
	if cfg.Messaging.CooldownHours <= 0 {
		cfg.Messaging.CooldownHours = 24
	}

	if cfg.Scheduler.IntervalMinutes <= 0 {
		cfg.Scheduler.IntervalMinutes = 30
	}
	if cfg.Scheduler.CheckIntervalSec <= 0 {
		cfg.Scheduler.CheckIntervalSec = 60
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
