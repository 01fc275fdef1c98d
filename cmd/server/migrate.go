package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"academic-journal/backend/pkg/database"
)

func migrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "应用全部未执行的迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLDB(*configPath, func(deps migrateDeps) error {
				return database.RunMigrations(deps.db, deps.logger)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "回滚最近的迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLDB(*configPath, func(deps migrateDeps) error {
				return database.RollbackMigrations(deps.db, steps, deps.logger)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "回滚步数")
	cmd.AddCommand(down)

	return cmd
}

type migrateDeps struct {
	db     *sql.DB
	logger *zap.Logger
}

// withSQLDB 打开数据库连接执行 fn，结束后关闭连接
func withSQLDB(configPath string, fn func(migrateDeps) error) error {
	cfg, logger, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	return fn(migrateDeps{db: sqlDB, logger: logger})
}
