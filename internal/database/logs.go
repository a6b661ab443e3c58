package database

import (
	"context"
	"time"

	"yunhu-api/internal/logger"
	"yunhu-api/internal/models"

	"gorm.io/gorm"
)

// CreateRequestLog 创建请求日志
func (db *DB) CreateRequestLog(ctx context.Context, log *models.RequestLog) error {
	return db.gorm.WithContext(ctx).Create(log).Error
}

// BatchCreateRequestLogs 批量写入请求日志（事务内逐条，单条失败不中断）
func (db *DB) BatchCreateRequestLogs(ctx context.Context, logs []*models.RequestLog) error {
	if len(logs) == 0 {
		return nil
	}

	return db.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, log := range logs {
			if err := tx.Create(log).Error; err != nil {
				logger.Debug("批量写入日志失败（单条）: %v", err)
			}
		}
		return nil
	})
}

// applyLogFilters 应用日志过滤条件到 GORM 查询
func applyLogFilters(query *gorm.DB, filters *models.LogFilters) *gorm.DB {
	if filters == nil {
		return query
	}

	if filters.StartTime != nil {
		query = query.Where("timestamp >= ?", *filters.StartTime)
	}
	if filters.EndTime != nil {
		query = query.Where("timestamp <= ?", *filters.EndTime)
	}
	if filters.ClientIP != nil {
		query = query.Where("client_ip = ?", *filters.ClientIP)
	}
	if filters.Operation != nil {
		query = query.Where("operation = ?", *filters.Operation)
	}
	if filters.GroupID != nil {
		query = query.Where("group_id = ?", *filters.GroupID)
	}
	if filters.IsSuccess != nil {
		query = query.Where("is_success = ?", *filters.IsSuccess)
	}

	return query
}

// GetRequestLogs 查询请求日志（按时间倒序分页）
func (db *DB) GetRequestLogs(ctx context.Context, filters *models.LogFilters, limit, offset int) ([]*models.RequestLog, error) {
	query := db.gorm.WithContext(ctx).Model(&models.RequestLog{})
	query = applyLogFilters(query, filters)
	query = query.Order("timestamp DESC").Limit(limit).Offset(offset)

	var logs []*models.RequestLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// GetRequestLogsCount 获取请求日志总数
func (db *DB) GetRequestLogsCount(ctx context.Context, filters *models.LogFilters) (int64, error) {
	query := db.gorm.WithContext(ctx).Model(&models.RequestLog{})
	query = applyLogFilters(query, filters)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetRequestStats 获取请求统计
func (db *DB) GetRequestStats(ctx context.Context, filters *models.LogFilters) (*models.RequestStats, error) {
	stats := &models.RequestStats{}

	type basicStats struct {
		TotalRequests   int64
		SuccessRequests int64
		FailedRequests  int64
		AvgDurationMs   float64
	}
	var basic basicStats

	query := db.gorm.WithContext(ctx).Model(&models.RequestLog{}).
		Select(`COUNT(*) as total_requests,
			COALESCE(SUM(CASE WHEN is_success = true THEN 1 ELSE 0 END), 0) as success_requests,
			COALESCE(SUM(CASE WHEN is_success = false THEN 1 ELSE 0 END), 0) as failed_requests,
			COALESCE(AVG(duration_ms), 0) as avg_duration_ms`)
	query = applyLogFilters(query, filters)
	if err := query.Scan(&basic).Error; err != nil {
		return nil, err
	}

	stats.TotalRequests = basic.TotalRequests
	stats.SuccessRequests = basic.SuccessRequests
	stats.FailedRequests = basic.FailedRequests
	stats.AvgDurationMs = basic.AvgDurationMs
	if basic.TotalRequests > 0 {
		stats.SuccessRate = float64(basic.SuccessRequests) / float64(basic.TotalRequests) * 100
	}

	// 按操作维度 Top 10
	opQuery := db.gorm.WithContext(ctx).Model(&models.RequestLog{}).
		Select("operation, COUNT(*) as request_count").
		Group("operation").
		Order("request_count DESC").
		Limit(10)
	opQuery = applyLogFilters(opQuery, filters)
	if err := opQuery.Scan(&stats.TopOperations).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// CleanupOldLogs 删除超过保留期的日志，返回删除条数
func (db *DB) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays).Format("2006-01-02 15:04:05")
	result := db.gorm.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.RequestLog{})
	return result.RowsAffected, result.Error
}
