// Package yunhu 封装云湖平台 OpenAPI 的客户端 SDK
// 所有操作基于共享的 http.Client（连接复用），按 context 控制超时与取消
package yunhu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"yunhu-api/internal/config"
	"yunhu-api/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/net/proxy"
)

// 上游接口路径
const (
	pathEmailLogin   = "/user/email-login"
	pathGagMember    = "/group/gag-member"
	pathRemoveMember = "/group/remove-member"
	pathJoinGroup    = "/group/join"
	pathQuitGroup    = "/group/quit"
	pathTagCreate    = "/group-tag/create"
	pathTagEdit      = "/group-tag/edit"
	pathTagDelete    = "/group-tag/delete"
	pathFriendApply  = "/friend/apply"
	pathFriendDelete = "/friend/delete-friend"
)

// tokenHeader 平台使用自定义 token 请求头而非 Authorization
const tokenHeader = "token"

// Client 云湖 OpenAPI 客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	platform   string
	deviceID   string
}

// NewClient 创建客户端，支持 HTTP/HTTPS/SOCKS5 出口代理
func NewClient(cfg *config.Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second
	transport.ForceAttemptHTTP2 = true

	if cfg.Yunhu.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Yunhu.Proxy)
		if err != nil {
			logger.Error("代理 URL 解析失败: %v", err)
		} else if proxyURL.Scheme == "socks5" {
			dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
			if err != nil {
				logger.Error("SOCKS5 代理配置失败: %v", err)
			} else {
				transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				}
				logger.Info("已配置 SOCKS5 代理: %s", cfg.Yunhu.Proxy)
			}
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.Info("已配置 HTTP/HTTPS 代理: %s", cfg.Yunhu.Proxy)
		}
	}

	timeout := time.Duration(cfg.Yunhu.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:   strings.TrimRight(cfg.Yunhu.BaseURL, "/"),
		userAgent: cfg.Yunhu.UserAgent,
		platform:  cfg.Yunhu.Platform,
		// 每个客户端实例一个设备标识，登录时上报
		deviceID: uuid.New().String(),
	}
}

// response 上游统一响应包裹，code == 1 表示成功
type response struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// postJSON 发送 POST 请求并解析响应包裹
// token 为空时不携带认证头（仅登录接口）；out 非 nil 时解析 data 字段
func (c *Client) postJSON(ctx context.Context, path, token string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		logger.Error("云湖请求失败 - %s, 耗时: %v, 错误: %v", path, duration, err)
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	logger.Debug("云湖响应 - %s, 状态码: %d, 耗时: %v", path, resp.StatusCode, duration)

	if resp.StatusCode >= 400 {
		return &APIError{
			HTTPStatus: resp.StatusCode,
			Msg:        strings.TrimSpace(string(respBody)),
		}
	}

	var env response
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	if env.Code != CodeOK {
		return &APIError{
			Code:       env.Code,
			Msg:        env.Msg,
			HTTPStatus: resp.StatusCode,
		}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("解析响应 data 失败: %w", err)
		}
	}
	return nil
}
