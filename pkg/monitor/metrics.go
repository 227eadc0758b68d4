package monitor

import (
	"maps"
	"sync"
	"time"
)

// MetricsCollector 行访问与查询指标收集器
type MetricsCollector struct {
	mu               sync.RWMutex
	queryCount       int64
	querySuccess     int64
	queryError       int64
	totalDuration    time.Duration
	slowQueryCount   int64
	deliveries       map[string]int64
	nullSubstitution map[string]int64
	rowIDErrors      map[string]int64
	serializeErrors  map[string]int64
	rowsScanned      map[string]int64
	startTime        time.Time
}

// NewMetricsCollector 创建监控指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		deliveries:       make(map[string]int64),
		nullSubstitution: make(map[string]int64),
		rowIDErrors:      make(map[string]int64),
		serializeErrors:  make(map[string]int64),
		rowsScanned:      make(map[string]int64),
		startTime:        time.Now(),
	}
}

// RecordQuery 记录查询
func (m *MetricsCollector) RecordQuery(duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queryCount++
	m.totalDuration += duration
	if success {
		m.querySuccess++
	} else {
		m.queryError++
	}
}

// RecordSlowQuery 记录慢查询
func (m *MetricsCollector) RecordSlowQuery() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slowQueryCount++
}

// RecordDelivery counts one column value delivered as kind ("int", "text", ...)
func (m *MetricsCollector) RecordDelivery(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries[kind]++
}

// RecordNullSubstitution counts a NULL delivered in place of a value that did
// not fit its declared column type.
func (m *MetricsCollector) RecordNullSubstitution(tableName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nullSubstitution[tableName]++
}

// RecordRowIDError 记录行 ID 解析失败
func (m *MetricsCollector) RecordRowIDError(tableName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rowIDErrors[tableName]++
}

// RecordSerializeError 记录行序列化失败
func (m *MetricsCollector) RecordSerializeError(tableName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serializeErrors[tableName]++
}

// RecordRows 记录表扫描的行数
func (m *MetricsCollector) RecordRows(tableName string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rowsScanned[tableName] += n
}

// GetQueryCount 获取查询总数
func (m *MetricsCollector) GetQueryCount() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queryCount
}

// GetQueryError 获取错误查询数
func (m *MetricsCollector) GetQueryError() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queryError
}

// GetDeliveries 获取某种结果类型的交付次数
func (m *MetricsCollector) GetDeliveries(kind string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deliveries[kind]
}

// GetNullSubstitutions 获取某表的 NULL 替代次数
func (m *MetricsCollector) GetNullSubstitutions(tableName string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nullSubstitution[tableName]
}

// GetRowIDErrors 获取某表的行 ID 错误数
func (m *MetricsCollector) GetRowIDErrors(tableName string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rowIDErrors[tableName]
}

// GetSerializeErrors 获取某表的序列化失败次数
func (m *MetricsCollector) GetSerializeErrors(tableName string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.serializeErrors[tableName]
}

// GetRowsScanned 获取某表扫描过的行数
func (m *MetricsCollector) GetRowsScanned(tableName string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rowsScanned[tableName]
}

// Reset 重置所有指标
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queryCount = 0
	m.querySuccess = 0
	m.queryError = 0
	m.totalDuration = 0
	m.slowQueryCount = 0
	m.deliveries = make(map[string]int64)
	m.nullSubstitution = make(map[string]int64)
	m.rowIDErrors = make(map[string]int64)
	m.serializeErrors = make(map[string]int64)
	m.rowsScanned = make(map[string]int64)
	m.startTime = time.Now()
}

// Metrics 指标快照
type Metrics struct {
	QueryCount        int64
	QuerySuccess      int64
	QueryError        int64
	SuccessRate       float64
	AvgDuration       time.Duration
	SlowQueryCount    int64
	Deliveries        map[string]int64
	NullSubstitutions map[string]int64
	RowIDErrors       map[string]int64
	SerializeErrors   map[string]int64
	RowsScanned       map[string]int64
	Uptime            time.Duration
}

// GetSnapshot 获取指标快照
func (m *MetricsCollector) GetSnapshot() *Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var successRate float64
	var avgDuration time.Duration
	if m.queryCount > 0 {
		successRate = float64(m.querySuccess) / float64(m.queryCount) * 100
		avgDuration = m.totalDuration / time.Duration(m.queryCount)
	}

	return &Metrics{
		QueryCount:        m.queryCount,
		QuerySuccess:      m.querySuccess,
		QueryError:        m.queryError,
		SuccessRate:       successRate,
		AvgDuration:       avgDuration,
		SlowQueryCount:    m.slowQueryCount,
		Deliveries:        maps.Clone(m.deliveries),
		NullSubstitutions: maps.Clone(m.nullSubstitution),
		RowIDErrors:       maps.Clone(m.rowIDErrors),
		SerializeErrors:   maps.Clone(m.serializeErrors),
		RowsScanned:       maps.Clone(m.rowsScanned),
		Uptime:            time.Since(m.startTime),
	}
}
