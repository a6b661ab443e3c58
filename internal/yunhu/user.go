package yunhu

import (
	"context"
	"fmt"

	"yunhu-api/internal/logger"
)

// UserInfo 登录返回的用户信息
type UserInfo struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	AvatarID string `json:"avatarId"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token string   `json:"token"`
	User  UserInfo `json:"userInfo"`
}

// Login 使用邮箱和密码登录，成功后返回平台签发的 Token
// Token 的持久化由调用方负责（见 auth.TokenStore）
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
		"deviceId": c.deviceID,
		"platform": c.platform,
	}

	var result LoginResult
	if err := c.postJSON(ctx, pathEmailLogin, "", payload, &result); err != nil {
		logger.Error("登录失败 - 邮箱: %s, 错误: %v", email, err)
		return nil, err
	}
	if result.Token == "" {
		return nil, fmt.Errorf("登录响应缺少 Token")
	}

	logger.Info("登录成功 - 邮箱: %s", email)
	return &result, nil
}
