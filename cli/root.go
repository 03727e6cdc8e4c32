// Package cli implements the reddit_intent commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reddit_intent/config"
	"reddit_intent/db"
	"reddit_intent/logger"
	"reddit_intent/repository"
	"reddit_intent/services"
)

var configPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "reddit_intent",
	Short: "Reddit buyer-intent monitor",
	Long:  "Scrapes Reddit for buyer-intent posts and comments, classifies them with a language model and drafts personalized direct messages.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

type app struct {
	cfg     *config.Config
	monitor *services.Monitor
}

// bootstrap 加载配置、初始化日志与数据库，并装配监控器
func bootstrap(ctx context.Context) (*app, error) {
	cfg := config.LoadFrom(configPath)

	if err := logger.Init(cfg); err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}
	logger.Info("日志系统初始化成功", "level", cfg.Log.Level, "format", cfg.Log.Format, "output", cfg.Log.Output)

	if err := db.InitWithConfig(cfg); err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	logger.Info("数据库连接成功", "driver", cfg.DB.Driver)

	lanes, err := services.NewCompletionLanes(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("语言模型通道已就绪", "provider", cfg.LLM.Provider, "lanes", len(lanes))

	reddit := services.NewRedditSource(cfg)

	var messenger services.Messenger
	if dm, err := services.NewDirectMessengerFromConfig(cfg, reddit); err != nil {
		logger.Warn("私信发送未启用", "transport", cfg.Messaging.Transport, "error", err)
	} else {
		messenger = dm
	}

	monitor := services.NewMonitor(reddit, lanes, repository.Store{}, messenger, services.DefaultsFromConfig(cfg))
	return &app{cfg: cfg, monitor: monitor}, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
