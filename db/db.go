package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reddit_intent/config"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

var (
	DB *sql.DB // 数据库连接
)

// InitWithConfig 根据配置初始化数据库连接池并建表
func InitWithConfig(cfg *config.Config) error {
	var err error
	switch cfg.DB.Driver {
	case "sqlite":
		err = InitSQLite(cfg.DB.Path)
	case "mysql", "":
		err = InitMySQLWithConfig(cfg)
	default:
		return fmt.Errorf("unsupported database driver: %q", cfg.DB.Driver)
	}
	if err != nil {
		return err
	}
	return Migrate()
}

// InitMySQLWithConfig 使用配置初始化 MySQL 连接池
func InitMySQLWithConfig(cfg *config.Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("mysql dsn is empty")
	}

	conn, err := sql.Open("mysql", cfg.DB.DSN)
	if err != nil {
		return err
	}

	// 从配置读取连接池参数，提供默认值保护
	maxOpenConns := cfg.DB.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 20 // 默认最大连接数
	}

	maxIdleConns := cfg.DB.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 5 // 默认最大空闲连接数
	}

	connMaxLifetime := cfg.DB.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 60 // 默认连接最大生命周期（分钟）
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return err
	}
	DB = conn
	return nil
}

// InitSQLite 打开（必要时创建）本地 SQLite 数据库
func InitSQLite(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return err
	}
	DB = conn
	return nil
}

// Migrate 建表；语句同时兼容 MySQL 与 SQLite
func Migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS monitor_cycles (
			id                  VARCHAR(32) PRIMARY KEY,
			started_at          BIGINT NOT NULL,
			finished_at         BIGINT NOT NULL,
			subreddits          TEXT,
			min_intent          VARCHAR(16) NOT NULL,
			min_confidence      DOUBLE NOT NULL,
			posts_scraped       INT NOT NULL DEFAULT 0,
			high_intent_content INT NOT NULL DEFAULT 0,
			responses_generated INT NOT NULL DEFAULT 0,
			messages_sent       INT NOT NULL DEFAULT 0,
			error               TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS intent_responses (
			id                VARCHAR(32) PRIMARY KEY,
			cycle_id          VARCHAR(32) NOT NULL,
			seq               INT NOT NULL,
			source_id         VARCHAR(64) NOT NULL,
			content_kind      VARCHAR(16) NOT NULL,
			author            VARCHAR(128) NOT NULL,
			subreddit         VARCHAR(128),
			category          VARCHAR(16) NOT NULL,
			subject           TEXT,
			message           TEXT,
			products_services TEXT,
			include_resources INT NOT NULL DEFAULT 0,
			sent              INT NOT NULL DEFAULT 0,
			created_at        BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS prompt_templates (
			kind       VARCHAR(32) PRIMARY KEY,
			template   TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
	}

	for _, q := range schema {
		if _, err := DB.Exec(q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close 关闭数据库连接
func Close() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}
