package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"academic-journal/backend/pkg/jwt"
	"academic-journal/backend/pkg/redis"
)

// tokenCmd 运维与联调用的 Token 管理
// 服务本身不做密码登录，身份由外部系统签发或由此命令签发
func tokenCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "签发或吊销 Access Token",
	}
	cmd.AddCommand(tokenIssueCmd(configPath), tokenRevokeCmd(configPath))
	return cmd
}

func tokenIssueCmd(configPath *string) *cobra.Command {
	var (
		userID  string
		role    string
		groupID string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "签发 Access Token",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case jwt.RoleAdmin, jwt.RoleTeacher, jwt.RoleStudent:
			default:
				return fmt.Errorf("角色无效: %q（admin / teacher / student）", role)
			}
			if role == jwt.RoleStudent && groupID == "" {
				return fmt.Errorf("学生 Token 需要 --group")
			}
			if userID == "" {
				userID = uuid.NewString()
			}

			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			token, claims, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(userID, role, groupID, ttl)
			if err != nil {
				return fmt.Errorf("签发 Token 失败: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user_id: %s\nrole:    %s\njti:     %s\nexpires: %s\n\n%s\n",
				claims.UserID, claims.Role, claims.ID, claims.ExpiresAt.Time.Format(time.RFC3339), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "用户 ID（teacher_id / student_id），为空时随机生成")
	cmd.Flags().StringVar(&role, "role", jwt.RoleTeacher, "角色: admin / teacher / student")
	cmd.Flags().StringVar(&groupID, "group", "", "学生所属小组 ID")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "有效期，0 表示使用 auth.access_token_ttl")
	return cmd
}

func tokenRevokeCmd(configPath *string) *cobra.Command {
	var (
		jti string
		ttl time.Duration
	)

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "将 Token 加入 Redis 黑名单",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jti == "" {
				return fmt.Errorf("--jti 不能为空")
			}

			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if ttl <= 0 {
				ttl = cfg.Auth.AccessTokenTTL
			}

			rdb, err := redis.NewClient(&cfg.Redis, logger)
			if err != nil {
				return err
			}
			defer rdb.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := rdb.BlacklistToken(ctx, jti, ttl); err != nil {
				return fmt.Errorf("吊销 Token 失败: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "已吊销 %s（%s 内有效）\n", jti, ttl)
			return nil
		},
	}

	cmd.Flags().StringVar(&jti, "jti", "", "Token ID（issue 输出中的 jti）")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "黑名单保留时长，默认与 Token 有效期一致")
	return cmd
}
