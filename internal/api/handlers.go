package api

import (
	"time"

	"yunhu-api/internal/logger"
	"yunhu-api/internal/models"
	"yunhu-api/internal/yunhu"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 网关侧操作名（写入审计日志）
const (
	opLogin       = "user.login"
	opLogout      = "user.logout"
	opBan         = "group.ban"
	opUnban       = "group.unban"
	opKick        = "group.kick"
	opJoin        = "group.join"
	opLeave       = "group.leave"
	opTagCreate   = "tag.create"
	opTagEdit     = "tag.edit"
	opTagDelete   = "tag.delete"
	opFriendApply = "friend.apply"
	opFriendDel   = "friend.delete"
)

// requireToken 获取本地 Token，没有时按原接口语义返回 code -1
func (s *Server) requireToken(c *gin.Context) (string, bool) {
	token, err := s.tokens.Token()
	if err != nil {
		logger.Warn("业务请求被拒绝 - 未登录 - 来源: %s", c.ClientIP())
		c.JSON(200, gin.H{"code": -1, "msg": "Authentication required"})
		return "", false
	}
	return token, true
}

// finishOp 统一处理操作结果：按上游包裹格式响应并写入审计日志
func (s *Server) finishOp(c *gin.Context, operation string, groupID, targetID *string, start time.Time, err error) {
	duration := time.Since(start)

	if err == nil {
		c.JSON(200, gin.H{"code": 1, "msg": "success"})
		s.queueLog(c, operation, groupID, targetID, yunhu.CodeOK, true, duration, "")
		return
	}

	if apiErr, ok := yunhu.IsAPIError(err); ok {
		code := apiErr.Code
		if code == 0 {
			code = -1
		}
		c.JSON(200, gin.H{"code": code, "msg": apiErr.Msg})
		s.queueLog(c, operation, groupID, targetID, code, false, duration, apiErr.Msg)
		return
	}

	c.JSON(200, gin.H{"code": -1, "msg": err.Error()})
	s.queueLog(c, operation, groupID, targetID, -1, false, duration, err.Error())
}

// bindJSON 解析请求体，失败时响应 code -8（参数错误）
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(200, gin.H{"code": -8, "msg": "参数错误: " + err.Error()})
		return false
	}
	return true
}

// ===== 用户 =====

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleUserLogin 邮箱登录；成功后把 Token 加密落盘并同步到账号库
func (s *Server) handleUserLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	// 已有有效 Token 时不重复登录（与原接口语义一致）
	if s.tokens.HasToken() {
		logger.Info("已存在有效 Token，无需重复登录")
		c.JSON(200, gin.H{"code": 1, "msg": "already logged in"})
		return
	}

	start := time.Now()
	result, err := s.yh.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.syncAccountLogin(c, req.Email, nil, false)
		s.finishOp(c, opLogin, nil, nil, start, err)
		return
	}

	if err := s.tokens.Save(result.Token); err != nil {
		logger.Error("保存 Token 失败: %v", err)
	}
	s.syncAccountLogin(c, req.Email, result, true)

	c.JSON(200, gin.H{
		"code": 1,
		"msg":  "success",
		"data": gin.H{"userInfo": result.User},
	})
	s.queueLog(c, opLogin, nil, nil, yunhu.CodeOK, true, time.Since(start), "")
}

// syncAccountLogin 把登录结果同步到账号库（账号不存在时自动建档）
func (s *Server) syncAccountLogin(c *gin.Context, email string, result *yunhu.LoginResult, success bool) {
	ctx := c.Request.Context()

	acc, err := s.db.GetAccountByEmail(ctx, email)
	if err != nil {
		logger.Warn("查询账号失败: %v", err)
		return
	}
	if acc == nil {
		acc = &models.Account{
			ID:      uuid.New().String(),
			Email:   email,
			Enabled: true,
		}
		if err := s.db.CreateAccount(ctx, acc); err != nil {
			logger.Warn("创建账号记录失败: %v", err)
			return
		}
	}

	token, userID, nickname := "", "", ""
	if result != nil {
		token = result.Token
		userID = result.User.ID
		nickname = result.User.Nickname
	}
	if err := s.db.MarkAccountLogin(ctx, acc.ID, success, token, userID, nickname); err != nil {
		logger.Warn("记录登录结果失败: %v", err)
	}
}

// handleUserLogout 注销：清除本地 Token
func (s *Server) handleUserLogout(c *gin.Context) {
	start := time.Now()
	err := s.tokens.Clear()
	if err == nil {
		logger.Info("已注销")
	}
	s.finishOp(c, opLogout, nil, nil, start, err)
}

// ===== 群管理 =====

type banRequest struct {
	GroupID  string `json:"groupId" binding:"required"`
	UserID   string `json:"userId" binding:"required"`
	Duration string `json:"duration" binding:"required"`
}

// handleGroupBan 禁言群成员
func (s *Server) handleGroupBan(c *gin.Context) {
	var req banRequest
	if !bindJSON(c, &req) {
		return
	}
	token, ok := s.requireToken(c)
	if !ok {
		return
	}

	start := time.Now()
	err := s.yh.BanMember(c.Request.Context(), token, req.GroupID, req.UserID, req.Duration)
	s.finishOp(c, opBan, &req.GroupID, &req.UserID, start, err)
}

type memberRequest struct {
	GroupID string `json:"groupId" binding:"required"`
	UserID  string `json:"userId" binding:"required"`
}

// handleGroupUnban 解除禁言
func (s *Server) handleGroupUnban(c *gin.Context) {
	var req memberRequest
	if !bindJSON(c, &req) {
		return
	}
	token, ok := s.requireToken(c)
	if !ok {
		return
	}

	start := time.Now()
	err := s.yh.UnbanMember(c.Request.Context(), token, req.GroupID, req.UserID)
	s.finishOp(c, opUnban, &req.GroupID, &req.UserID, start, err)
}

// handleGroupKick 踢出群成员
func (s *Server) handleGroupKick(c *gin.Context) {
	var req memberRequest
	if !bindJSON(c, &req) {
		return
	}
	token, ok := s.requireToken(c)
	if !ok {
		return
	}

	start := time.Now()
	err := s.yh.RemoveMember(c.Request.Context(), token, req.GroupID, req.UserID)
	s.finishOp(c, opKick, &req.GroupID, &req.UserID, start, err)
}

type groupRequest struct {
	GroupID string `json:"groupId" binding:"required"`
}

// handleGroupJoin 加入群
func (s *Server) handleGroupJoin(c *gin.Context) {
	var req groupRequest
	if !bindJSON(c, &req) {
		return
	}
	token, ok := s.requireToken(c)
	if !ok {
		return
	}

	start := time.Now()
	err := s.yh.JoinGroup(c.Request.Context(), token, req.GroupID)
	s.finishOp(c, opJoin, &req.GroupID, nil, start, err)
}

// handleGroupLeave 退出群
func (s *Server) handleGroupLeave(c *gin.Context) {
	var req groupRequest
	if !bindJSON(c, &req) {
		return
	}
	token, ok := s.requireToken(c)
	if !ok {
		return
	}

	start := time.Now()
	err := s.yh.LeaveGroup(c.Request.Context(), token, req.GroupID)
	s.finishOp(c, opLeave, &req.GroupID, nil, start, err)
}

// ===== 标签 =====

type tagRequest struct {
	ID      int64  `json:"id"`
	GroupID string `json:"groupId"`
	Tag     string `json:"tag"`
	Color   string `json:"color"`
	Desc    string `json:"desc"`
	Sort    int    `json:"sort"`
}

// handleTagCreate 创建标签
func (s *Server) handleTagCreate(c *gin.Context) {
	var req tagRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.GroupID == "" || req.Tag == "" {
		c.JSON(200, gin.H{"code": -8, "msg": "参数错误: groupId 和 tag 必填"})
		return
	}
	token, ok := s.requireToken(c)
	if !ok {
		return
	}

	start := time.Now()
	err := s.yh.CreateTag(c.Request.Context(), token, yunhu.TagParam{
		GroupID: req.GroupID,
		Tag:     req.Tag,
		Color:   req.Color,
		Desc:    req.Desc,
		Sort:    req.Sort,
	})
	s.finishOp(c, opTagCreate, &req.GroupID, nil, start, err)
}

// handleTagEdit 编辑标签
func (s *Server) handleTagEdit(c *gin.Context) {
	var req tagRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ID == 0 || req.GroupID == "" || req.Tag == "" {
		c.JSON(200, gin.H{"code": -8, "msg": "参数错误: id、groupId 和 tag 必填"})
		return
	}
	token, ok := s.requireToken(c)
	if !ok {
		return
	}

	start := time.Now()
	err := s.yh.EditTag(c.Request.Context(), token, yunhu.TagParam{
		ID:      req.ID,
		GroupID: req.GroupID,
		Tag:     req.Tag,
		Color:   req.Color,
		Desc:    req.Desc,
		Sort:    req.Sort,
	})
	s.finishOp(c, opTagEdit, &req.GroupID, nil, start, err)
}

type tagDeleteRequest struct {
	ID int64 `json:"id" binding:"required"`
}

// handleTagDelete 删除标签
func (s *Server) handleTagDelete(c *gin.Context) {
	var req tagDeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	token, ok := s.requireToken(c)
	if !ok {
		return
	}

	start := time.Now()
	err := s.yh.DeleteTag(c.Request.Context(), token, req.ID)
	s.finishOp(c, opTagDelete, nil, nil, start, err)
}

// ===== 好友 =====

type friendApplyRequest struct {
	ChatID   string `json:"chatId" binding:"required"`
	ChatType int    `json:"chatType"`
	Remark   string `json:"remark"`
}

// handleFriendApply 发起好友申请
func (s *Server) handleFriendApply(c *gin.Context) {
	var req friendApplyRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ChatType == 0 {
		req.ChatType = yunhu.ChatTypeUser
	}
	token, ok := s.requireToken(c)
	if !ok {
		return
	}

	start := time.Now()
	err := s.yh.ApplyFriend(c.Request.Context(), token, req.ChatID, req.ChatType, req.Remark)
	s.finishOp(c, opFriendApply, nil, &req.ChatID, start, err)
}

type friendDeleteRequest struct {
	ChatID string `json:"chatId" binding:"required"`
}

// handleFriendDelete 删除好友
func (s *Server) handleFriendDelete(c *gin.Context) {
	var req friendDeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	token, ok := s.requireToken(c)
	if !ok {
		return
	}

	start := time.Now()
	err := s.yh.DeleteFriend(c.Request.Context(), token, req.ChatID)
	s.finishOp(c, opFriendDel, nil, &req.ChatID, start, err)
}
