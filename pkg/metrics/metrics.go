// Package metrics 暴露 Prometheus 指标：HTTP 请求、懒创建结果与网格构建耗时。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "academic_journal"

// 懒创建结果
const (
	OutcomeFound    = "found"    // 记录已存在
	OutcomeCreated  = "created"  // 本次请求创建
	OutcomeConflict = "conflict" // 并发插入落败，已重新读取
)

// Metrics 指标集合，nil 接收者上的所有方法均为空操作
type Metrics struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	materialized    *prometheus.CounterVec
	gridBuild       *prometheus.HistogramVec
	recordsUpdated  prometheus.Counter
	eventsPublished *prometheus.CounterVec
}

// New 创建独立 Registry 并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		materialized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_materializations_total",
			Help:      "课节记录获取结果（已存在 / 新建 / 冲突重读）",
		}, []string{"outcome"}),
		gridBuild: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grid_build_seconds",
			Help:      "网格构建耗时",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
		}, []string{"view"}),
		recordsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_records_updated_total",
			Help:      "课节记录更新次数",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_events_published_total",
			Help:      "审计事件发布结果",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.materialized,
		m.gridBuild,
		m.recordsUpdated,
		m.eventsPublished,
	)
	return m
}

// Handler /metrics 端点
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Materialized 记录一次懒创建结果
func (m *Metrics) Materialized(outcome string) {
	if m == nil {
		return
	}
	m.materialized.WithLabelValues(outcome).Inc()
}

// ObserveGridBuild 记录网格构建耗时，view 为 weekly / semester / student
func (m *Metrics) ObserveGridBuild(view string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.gridBuild.WithLabelValues(view).Observe(elapsed.Seconds())
}

// RecordUpdated 记录一次课节记录更新
func (m *Metrics) RecordUpdated() {
	if m == nil {
		return
	}
	m.recordsUpdated.Inc()
}

// EventPublished 记录审计事件发布结果
func (m *Metrics) EventPublished(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(result).Inc()
}
