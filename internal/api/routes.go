package api

import (
	"github.com/gin-gonic/gin"
)

// setupRoutes 配置所有 HTTP 路由
func (s *Server) setupRoutes(r *gin.Engine) {
	// 健康检查与版本
	r.GET("/healthz", s.handleHealthCheck)
	r.GET("/version", s.handleVersion)

	// 业务接口（可选 API Key 认证 + IP 限流）
	v1 := r.Group("/v1")
	v1.Use(s.ipRateLimitMiddleware(), s.requireAPIKey)
	{
		v1.POST("/user/login", s.handleUserLogin)
		v1.POST("/user/logout", s.handleUserLogout)

		v1.POST("/group/ban", s.handleGroupBan)
		v1.POST("/group/unban", s.handleGroupUnban)
		v1.POST("/group/kick", s.handleGroupKick)
		v1.POST("/group/join", s.handleGroupJoin)
		v1.POST("/group/leave", s.handleGroupLeave)

		v1.POST("/tag/create", s.handleTagCreate)
		v1.POST("/tag/edit", s.handleTagEdit)
		v1.POST("/tag/delete", s.handleTagDelete)

		v1.POST("/friend/apply", s.handleFriendApply)
		v1.POST("/friend/delete", s.handleFriendDelete)
	}

	// 管理接口（管理员密码认证）
	admin := r.Group("/v2")
	admin.Use(s.requireAdmin)
	{
		admin.GET("/accounts", s.handleListAccounts)
		admin.POST("/accounts", s.handleCreateAccount)
		admin.PATCH("/accounts/:id", s.handleUpdateAccount)
		admin.DELETE("/accounts/:id", s.handleDeleteAccount)
		admin.POST("/accounts/:id/login", s.handleAccountLogin)

		admin.GET("/logs", s.handleGetLogs)
		admin.GET("/logs/stats", s.handleGetStats)
		admin.POST("/logs/cleanup", s.handleCleanupLogs)
		admin.GET("/logs/stream", s.handleLogStream)

		admin.GET("/settings", s.handleGetSettings)
		admin.PUT("/settings", s.handleUpdateSettings)
	}
}

// handleHealthCheck 返回服务健康状态
func (s *Server) handleHealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// handleVersion 返回版本信息
func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(200, gin.H{"version": s.version})
}
