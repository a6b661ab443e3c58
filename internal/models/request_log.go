package models

// RequestLog 平台操作审计日志
// Operation 为网关侧操作名（ban/unban/kick/tag.create 等）
// UpstreamCode 为云湖接口返回的业务码（1 表示成功）
type RequestLog struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	Timestamp    string  `gorm:"size:50;index:idx_logs_timestamp;index:idx_logs_op_time,priority:2" json:"timestamp"`
	ClientIP     string  `gorm:"column:client_ip;size:45;index" json:"client_ip"`
	Operation    string  `gorm:"size:50;index:idx_logs_op_time,priority:1" json:"operation"`
	GroupID      *string `gorm:"column:group_id;size:64;index" json:"group_id,omitempty"`
	TargetID     *string `gorm:"column:target_id;size:64" json:"target_id,omitempty"`
	AccountID    *string `gorm:"column:account_id;size:36;index" json:"account_id,omitempty"`
	UpstreamCode int     `gorm:"column:upstream_code" json:"upstream_code"`
	StatusCode   int     `gorm:"column:status_code" json:"status_code"`
	IsSuccess    bool    `gorm:"column:is_success;index" json:"is_success"`
	DurationMs   int64   `gorm:"column:duration_ms" json:"duration_ms"`
	ErrorMessage *string `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
}

// TableName 指定表名
func (RequestLog) TableName() string {
	return "request_logs"
}

// LogFilters 日志查询过滤器
type LogFilters struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	ClientIP  *string `json:"client_ip"`
	Operation *string `json:"operation"`
	GroupID   *string `json:"group_id"`
	IsSuccess *bool   `json:"is_success"`
}

// RequestStats 请求统计
type RequestStats struct {
	TotalRequests   int64           `json:"total_requests"`
	SuccessRequests int64           `json:"success_requests"`
	FailedRequests  int64           `json:"failed_requests"`
	SuccessRate     float64         `json:"success_rate"`
	AvgDurationMs   float64         `json:"avg_duration_ms"`
	TopOperations   []OperationStat `json:"top_operations"`
}

// OperationStat 按操作维度的统计
type OperationStat struct {
	Operation    string `json:"operation"`
	RequestCount int64  `json:"request_count"`
}
