package api

import (
	"io"
	"strconv"

	"yunhu-api/internal/logger"
	"yunhu-api/internal/models"

	"github.com/gin-gonic/gin"
)

// parseLogFilters 从查询参数构建日志过滤器
func parseLogFilters(c *gin.Context) *models.LogFilters {
	filters := &models.LogFilters{}

	if v := c.Query("start_time"); v != "" {
		filters.StartTime = &v
	}
	if v := c.Query("end_time"); v != "" {
		filters.EndTime = &v
	}
	if v := c.Query("client_ip"); v != "" {
		filters.ClientIP = &v
	}
	if v := c.Query("operation"); v != "" {
		filters.Operation = &v
	}
	if v := c.Query("group_id"); v != "" {
		filters.GroupID = &v
	}
	if v := c.Query("is_success"); v != "" {
		b := v == "true" || v == "1"
		filters.IsSuccess = &b
	}

	return filters
}

// handleGetLogs 分页查询审计日志
func (s *Server) handleGetLogs(c *gin.Context) {
	logger.Debug("查询审计日志 - 请求来源: %s", c.ClientIP())

	filters := parseLogFilters(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := s.db.GetRequestLogs(c.Request.Context(), filters, limit, offset)
	if err != nil {
		logger.Error("查询审计日志失败: %v", err)
		c.JSON(500, gin.H{"error": "查询审计日志失败"})
		return
	}

	total, err := s.db.GetRequestLogsCount(c.Request.Context(), filters)
	if err != nil {
		logger.Error("统计审计日志失败: %v", err)
		c.JSON(500, gin.H{"error": "统计审计日志失败"})
		return
	}

	if logs == nil {
		logs = []*models.RequestLog{}
	}

	c.JSON(200, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// handleGetStats 返回审计日志统计
func (s *Server) handleGetStats(c *gin.Context) {
	logger.Debug("查询审计统计 - 请求来源: %s", c.ClientIP())

	stats, err := s.db.GetRequestStats(c.Request.Context(), parseLogFilters(c))
	if err != nil {
		logger.Error("查询审计统计失败: %v", err)
		c.JSON(500, gin.H{"error": "查询审计统计失败"})
		return
	}

	c.JSON(200, stats)
}

type cleanupRequest struct {
	RetentionDays int `json:"retentionDays"`
}

// handleCleanupLogs 清理过期审计日志
func (s *Server) handleCleanupLogs(c *gin.Context) {
	var req cleanupRequest
	// 请求体可为空，默认按系统设置的保留天数清理
	_ = c.ShouldBindJSON(&req)

	retentionDays := req.RetentionDays
	if retentionDays <= 0 {
		settings, err := s.db.GetSettings(c.Request.Context())
		if err != nil {
			logger.Error("获取系统设置失败: %v", err)
			c.JSON(500, gin.H{"error": "获取系统设置失败"})
			return
		}
		retentionDays = settings.LogRetentionDays
	}

	deleted, err := s.db.CleanupOldLogs(c.Request.Context(), retentionDays)
	if err != nil {
		logger.Error("清理审计日志失败: %v", err)
		c.JSON(500, gin.H{"error": "清理审计日志失败"})
		return
	}

	logger.Info("审计日志清理完成 - 保留 %d 天，删除 %d 条", retentionDays, deleted)
	c.JSON(200, gin.H{
		"deleted":       deleted,
		"retentionDays": retentionDays,
	})
}

// handleLogStream 实时推送服务日志（SSE）
func (s *Server) handleLogStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// 发送连接成功消息
	c.SSEvent("connected", "ok")
	c.Writer.Flush()

	logCh := logger.Subscribe()
	defer logger.Unsubscribe(logCh)

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-logCh:
			if !ok {
				return false
			}
			c.SSEvent("log", msg)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// handleGetSettings 获取系统设置
func (s *Server) handleGetSettings(c *gin.Context) {
	logger.Info("获取系统设置 - 请求来源: %s", c.ClientIP())

	settings, err := s.db.GetSettings(c.Request.Context())
	if err != nil {
		logger.Error("获取系统设置失败: %v", err)
		c.JSON(500, gin.H{"error": "获取系统设置失败"})
		return
	}

	c.JSON(200, gin.H{
		"adminPassword":     settings.AdminPassword,
		"apiKey":            settings.APIKey,
		"debugLog":          settings.DebugLog,
		"enableRequestLog":  settings.EnableRequestLog,
		"logRetentionDays":  settings.LogRetentionDays,
		"enableIPRateLimit": settings.EnableIPRateLimit,
		"ipRateLimitWindow": settings.IPRateLimitWindow,
		"ipRateLimitMax":    settings.IPRateLimitMax,
		"port":              settings.Port,
		"baseUrl":           s.cfg.Yunhu.BaseURL,
		"hasToken":          s.tokens.HasToken(),
		"version":           s.version,
	})
}

// handleUpdateSettings 更新系统设置
func (s *Server) handleUpdateSettings(c *gin.Context) {
	logger.Info("更新系统设置 - 请求来源: %s", c.ClientIP())

	var updates models.SettingsUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		logger.Warn("更新设置失败 - 无效的请求格式: %v", err)
		c.JSON(400, gin.H{"error": "无效的请求格式"})
		return
	}

	if err := s.db.UpdateSettings(c.Request.Context(), &updates); err != nil {
		logger.Error("更新系统设置失败: %v", err)
		c.JSON(500, gin.H{"error": "更新系统设置失败"})
		return
	}

	// 动态更新服务器配置
	if updates.AdminPassword != nil && *updates.AdminPassword != "" {
		s.cfg.AdminPassword = *updates.AdminPassword
		logger.Info("管理员密码已动态更新")
	}
	if updates.APIKey != nil {
		s.cfg.APIKey = *updates.APIKey
		logger.Info("API key 配置已动态更新")
	}
	if updates.EnableRequestLog != nil {
		s.requestLog.Store(*updates.EnableRequestLog)
	}
	if updates.DebugLog != nil {
		logger.SetDebugEnabled(*updates.DebugLog)
		s.cfg.Debug = *updates.DebugLog
	}
	if updates.EnableIPRateLimit != nil {
		s.cfg.EnableIPRateLimit = *updates.EnableIPRateLimit
	}
	if updates.IPRateLimitMax != nil {
		s.cfg.IPRateLimitMax = *updates.IPRateLimitMax
	}
	if updates.IPRateLimitWindow != nil {
		s.cfg.IPRateLimitWindow = *updates.IPRateLimitWindow
	}

	logger.Info("系统设置更新成功")
	settings, _ := s.db.GetSettings(c.Request.Context())
	c.JSON(200, settings)
}
