package monitor

import (
	"context"
	"sync"
	"time"
)

// SlowQueryLog 慢查询日志项
type SlowQueryLog struct {
	ID        int64
	SQL       string
	Duration  time.Duration
	Timestamp time.Time
	RowCount  int64
	Error     string
}

// SlowQueryAnalyzer 慢查询分析器，保留最近 maxEntries 条记录
type SlowQueryAnalyzer struct {
	mu          sync.RWMutex
	slowQueries []*SlowQueryLog
	threshold   time.Duration
	maxEntries  int
	nextID      int64
}

// NewSlowQueryAnalyzer 创建慢查询分析器
func NewSlowQueryAnalyzer(threshold time.Duration, maxEntries int) *SlowQueryAnalyzer {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &SlowQueryAnalyzer{
		slowQueries: make([]*SlowQueryLog, 0, maxEntries),
		threshold:   threshold,
		maxEntries:  maxEntries,
		nextID:      1,
	}
}

// IsSlowQuery 检查是否为慢查询；阈值为 0 时关闭记录
func (s *SlowQueryAnalyzer) IsSlowQuery(duration time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold > 0 && duration >= s.threshold
}

// RecordSlowQuery 记录慢查询，返回记录 ID；未达阈值时返回 0
func (s *SlowQueryAnalyzer) RecordSlowQuery(sql string, duration time.Duration, rowCount int64, errMsg string) int64 {
	if !s.IsSlowQuery(duration) {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := &SlowQueryLog{
		ID:        s.nextID,
		SQL:       sql,
		Duration:  duration,
		Timestamp: time.Now(),
		RowCount:  rowCount,
		Error:     errMsg,
	}
	s.slowQueries = append(s.slowQueries, log)
	s.nextID++

	// 超出最大条目数时移除最旧的记录
	if len(s.slowQueries) > s.maxEntries {
		s.slowQueries = s.slowQueries[1:]
	}
	return log.ID
}

// GetAllSlowQueries 获取所有慢查询
func (s *SlowQueryAnalyzer) GetAllSlowQueries() []*SlowQueryLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*SlowQueryLog, len(s.slowQueries))
	copy(result, s.slowQueries)
	return result
}

// GetSlowQueryCount 获取慢查询总数
func (s *SlowQueryAnalyzer) GetSlowQueryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slowQueries)
}

// Clear 清空所有慢查询
func (s *SlowQueryAnalyzer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slowQueries = make([]*SlowQueryLog, 0, s.maxEntries)
	s.nextID = 1
}

// GetThreshold 获取慢查询阈值
func (s *SlowQueryAnalyzer) GetThreshold() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold
}

// MonitorContext 单次查询的监控上下文
type MonitorContext struct {
	Metrics   *MetricsCollector
	SlowQuery *SlowQueryAnalyzer
	Ctx       context.Context
	StartTime time.Time
	SQL       string
}

// NewMonitorContext 创建监控上下文
func NewMonitorContext(ctx context.Context, metrics *MetricsCollector, slowQuery *SlowQueryAnalyzer, sql string) *MonitorContext {
	return &MonitorContext{
		Metrics:   metrics,
		SlowQuery: slowQuery,
		Ctx:       ctx,
		StartTime: time.Now(),
		SQL:       sql,
	}
}

// End 结束监控并记录结果
func (mc *MonitorContext) End(rowCount int64, err error) time.Duration {
	duration := time.Since(mc.StartTime)
	mc.Metrics.RecordQuery(duration, err == nil)

	if mc.SlowQuery != nil && mc.SlowQuery.IsSlowQuery(duration) {
		var errMsg string
		if err != nil {
			errMsg = err.Error()
		}
		mc.SlowQuery.RecordSlowQuery(mc.SQL, duration, rowCount, errMsg)
		mc.Metrics.RecordSlowQuery()
	}
	return duration
}
