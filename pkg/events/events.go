// Package events 通过 NATS 发布审计事件。
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"academic-journal/backend/config"
)

// 审计动作
const (
	ActionGradeChange = "GRADE_CHANGE"
)

// AuditEvent 审计事件
type AuditEvent struct {
	Action      string    `json:"action"`
	RecordID    string    `json:"record_id"`
	GroupID     string    `json:"group_id"`
	SubjectID   string    `json:"subject_id"`
	Date        string    `json:"date"`
	PerformedBy string    `json:"performed_by"`
	Role        string    `json:"role"`
	Changed     int       `json:"changed"` // 变更的学生标记数
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher 审计事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event AuditEvent) error
	Close()
}

// ── NATS 实现 ──

type natsPublisher struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

// NewPublisher 按配置创建发布器，URL 为空时返回空实现
func NewPublisher(cfg *config.NATSConfig, logger *zap.Logger) (Publisher, error) {
	if cfg.URL == "" {
		logger.Info("未配置 NATS，审计事件不发布")
		return NopPublisher{}, nil
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("academic-journal"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS 连接断开", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("NATS 连接失败: %w", err)
	}

	logger.Info("NATS 连接成功", zap.String("url", cfg.URL))
	return &natsPublisher{nc: nc, prefix: cfg.SubjectPrefix, logger: logger}, nil
}

// Subject 事件主题，如 journal.record.grade_change
func Subject(prefix, action string) string {
	if prefix == "" {
		prefix = "journal"
	}
	return fmt.Sprintf("%s.record.%s", prefix, strings.ToLower(action))
}

func (p *natsPublisher) Publish(ctx context.Context, event AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化审计事件失败: %w", err)
	}
	return p.nc.Publish(Subject(p.prefix, event.Action), data)
}

func (p *natsPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.logger.Warn("NATS drain 失败", zap.Error(err))
	}
}

// NopPublisher 不发布任何事件
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AuditEvent) error { return nil }
func (NopPublisher) Close()                                   {}
