package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"academic-journal/backend/config"
	applogger "academic-journal/backend/pkg/logger"
)

// 构建时通过 -ldflags 注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "学业日志与出勤/成绩统计服务",
		// 不带子命令时启动 HTTP 服务
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml 与 ./config.yaml）")

	cmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		tokenCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "打印版本信息",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("journal %s (build: %s)\n", Version, BuildTime)
			},
		},
	)
	return cmd
}

// bootstrap 加载配置并初始化日志，供各子命令共用
func bootstrap(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, logger, nil
}
