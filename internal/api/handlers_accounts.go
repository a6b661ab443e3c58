package api

import (
	"time"

	"yunhu-api/internal/logger"
	"yunhu-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handleListAccounts 列出所有账号
func (s *Server) handleListAccounts(c *gin.Context) {
	logger.Debug("获取账号列表 - 请求来源: %s", c.ClientIP())

	// 可选的过滤参数
	var enabled *bool
	if enabledStr := c.Query("enabled"); enabledStr != "" {
		e := enabledStr == "true" || enabledStr == "1"
		enabled = &e
	}

	accounts, err := s.db.ListAccounts(c.Request.Context(), enabled)
	if err != nil {
		logger.Error("获取账号列表失败: %v", err)
		c.JSON(500, gin.H{"error": "获取账号列表失败"})
		return
	}

	if accounts == nil {
		accounts = []*models.Account{}
	}

	// 列表中不回传密码
	for _, acc := range accounts {
		acc.Password = nil
	}

	c.JSON(200, accounts)
}

// handleCreateAccount 创建新账号
func (s *Server) handleCreateAccount(c *gin.Context) {
	logger.Info("创建新账号 - 请求来源: %s", c.ClientIP())

	var req models.AccountCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("创建账号失败 - 请求格式错误: %v", err)
		c.JSON(400, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	if existing, err := s.db.GetAccountByEmail(c.Request.Context(), req.Email); err != nil {
		logger.Error("查询账号失败: %v", err)
		c.JSON(500, gin.H{"error": "查询账号失败"})
		return
	} else if existing != nil {
		c.JSON(400, gin.H{"error": "该邮箱已存在"})
		return
	}

	// 设置默认值
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	acc := &models.Account{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
		Token:    req.Token,
		Enabled:  enabled,
	}

	if err := s.db.CreateAccount(c.Request.Context(), acc); err != nil {
		logger.Error("创建账号失败: %v", err)
		c.JSON(500, gin.H{"error": "创建账号失败"})
		return
	}

	logger.Info("账号已创建: %s (%s)", acc.Email, acc.ID)
	acc.Password = nil
	c.JSON(200, acc)
}

// handleUpdateAccount 更新账号信息
func (s *Server) handleUpdateAccount(c *gin.Context) {
	id := c.Param("id")
	logger.Info("更新账号: %s - 请求来源: %s", id, c.ClientIP())

	var req models.AccountUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("更新账号失败 - 请求格式错误: %v", err)
		c.JSON(400, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	if err := s.db.UpdateAccount(c.Request.Context(), id, &req); err != nil {
		logger.Error("更新账号失败: %v", err)
		c.JSON(500, gin.H{"error": "更新账号失败"})
		return
	}

	acc, err := s.db.GetAccount(c.Request.Context(), id)
	if err != nil || acc == nil {
		c.JSON(404, gin.H{"error": "账号不存在"})
		return
	}

	acc.Password = nil
	c.JSON(200, acc)
}

// handleDeleteAccount 删除账号
func (s *Server) handleDeleteAccount(c *gin.Context) {
	id := c.Param("id")
	logger.Info("删除账号: %s - 请求来源: %s", id, c.ClientIP())

	if err := s.db.DeleteAccount(c.Request.Context(), id); err != nil {
		logger.Error("删除账号失败: %v", err)
		c.JSON(404, gin.H{"error": "账号不存在"})
		return
	}

	c.JSON(200, gin.H{"message": "账号已删除"})
}

// handleAccountLogin 使用已保存的凭证登录指定账号，成功后刷新本地 Token
func (s *Server) handleAccountLogin(c *gin.Context) {
	id := c.Param("id")
	logger.Info("账号登录: %s - 请求来源: %s", id, c.ClientIP())

	acc, err := s.db.GetAccount(c.Request.Context(), id)
	if err != nil {
		logger.Error("查询账号失败: %v", err)
		c.JSON(500, gin.H{"error": "查询账号失败"})
		return
	}
	if acc == nil {
		c.JSON(404, gin.H{"error": "账号不存在"})
		return
	}
	if acc.Password == nil || *acc.Password == "" {
		c.JSON(400, gin.H{"error": "账号未保存密码"})
		return
	}

	start := time.Now()
	result, err := s.yh.Login(c.Request.Context(), acc.Email, *acc.Password)
	if err != nil {
		if markErr := s.db.MarkAccountLogin(c.Request.Context(), acc.ID, false, "", "", ""); markErr != nil {
			logger.Warn("记录登录结果失败: %v", markErr)
		}
		logger.Warn("账号登录失败: %s - %v", acc.Email, err)
		s.queueLog(c, opLogin, nil, nil, -1, false, time.Since(start), err.Error())
		c.JSON(502, gin.H{"error": "登录失败: " + err.Error()})
		return
	}

	if err := s.tokens.Save(result.Token); err != nil {
		logger.Error("保存 Token 失败: %v", err)
	}
	if err := s.db.MarkAccountLogin(c.Request.Context(), acc.ID, true, result.Token, result.User.ID, result.User.Nickname); err != nil {
		logger.Warn("记录登录结果失败: %v", err)
	}

	logger.Info("账号登录成功: %s (用户: %s)", acc.Email, result.User.Nickname)
	s.queueLog(c, opLogin, nil, nil, 1, true, time.Since(start), "")
	c.JSON(200, gin.H{
		"message":  "登录成功",
		"userInfo": result.User,
	})
}
