package api

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"yunhu-api/internal/auth"
	"yunhu-api/internal/config"
	"yunhu-api/internal/database"
	"yunhu-api/internal/logger"
	"yunhu-api/internal/models"
	"yunhu-api/internal/ratelimit"
	"yunhu-api/internal/yunhu"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Server 本地网关，把云湖 SDK 操作暴露为 HTTP 接口
type Server struct {
	cfg     *config.Config
	db      *database.DB
	yh      *yunhu.Client
	tokens  *auth.TokenStore
	limiter *ratelimit.Limiter

	logChan    chan *models.RequestLog
	logWg      sync.WaitGroup
	closing    atomic.Bool
	closeOnce  sync.Once
	requestLog atomic.Bool // 审计日志开关，随系统设置动态更新

	version string
}

// NewServer 创建 API 服务器并启动日志写入 worker
func NewServer(cfg *config.Config, db *database.DB, tokens *auth.TokenStore, version string) *Server {
	window := time.Duration(cfg.IPRateLimitWindow) * time.Second

	s := &Server{
		cfg:     cfg,
		db:      db,
		yh:      yunhu.NewClient(cfg),
		tokens:  tokens,
		limiter: ratelimit.New(window),
		logChan: make(chan *models.RequestLog, 1000),
		version: version,
	}
	s.requestLog.Store(true)
	if settings, err := db.GetSettings(context.Background()); err == nil {
		s.requestLog.Store(settings.EnableRequestLog)
	}

	s.startLogWorker()
	return s
}

// Router 构建 gin 路由
func (s *Server) Router() *gin.Engine {
	if s.cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// 访问日志中间件
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.LogRequest(method, path, c.ClientIP(), c.Writer.Status(), time.Since(start))
	})

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "*")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	s.setupRoutes(r)
	return r
}

// requireAdmin 管理接口认证中间件
func (s *Server) requireAdmin(c *gin.Context) {
	var password string

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		password = strings.TrimSpace(authHeader[7:])
	} else if token := c.Query("token"); token != "" {
		// SSE 等不支持自定义 header 的场景，从 URL 参数读取
		password = token
	} else {
		logger.Warn("管理员认证失败 - 未提供令牌 - 来源: %s", c.ClientIP())
		c.JSON(401, gin.H{"error": "未授权访问", "code": "UNAUTHORIZED"})
		c.Abort()
		return
	}

	if password != s.cfg.AdminPassword {
		logger.Warn("管理员认证失败 - 无效密码 - 来源: %s", c.ClientIP())
		c.JSON(401, gin.H{"error": "密码错误", "code": "INVALID_PASSWORD"})
		c.Abort()
		return
	}

	c.Next()
}

// requireAPIKey 业务接口认证中间件；未配置 API Key 时直接放行
func (s *Server) requireAPIKey(c *gin.Context) {
	if s.cfg.APIKey == "" {
		c.Next()
		return
	}

	authHeader := c.GetHeader("Authorization")
	key := ""
	if strings.HasPrefix(authHeader, "Bearer ") {
		key = strings.TrimSpace(authHeader[7:])
	}
	if key != s.cfg.APIKey {
		logger.Warn("API Key 认证失败 - 来源: %s", c.ClientIP())
		c.JSON(401, gin.H{"code": -1, "msg": "无效的 API Key"})
		c.Abort()
		return
	}

	c.Next()
}

// ipRateLimitMiddleware IP 滑动窗口限流中间件
func (s *Server) ipRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.cfg.EnableIPRateLimit {
			c.Next()
			return
		}

		allowed, count, _ := s.limiter.Allow(c.ClientIP(), s.cfg.IPRateLimitMax)
		if !allowed {
			logger.Warn("IP 限流触发 - IP: %s, 窗口内请求数: %d", c.ClientIP(), count)
			c.JSON(429, gin.H{"code": -1, "msg": "请求过于频繁，请稍后再试"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// queueLog 把操作日志投递到异步写入队列
func (s *Server) queueLog(c *gin.Context, operation string, groupID, targetID *string, upstreamCode int, success bool, duration time.Duration, errMsg string) {
	if s.closing.Load() || !s.requestLog.Load() {
		return
	}

	log := &models.RequestLog{
		ID:           uuid.New().String(),
		Timestamp:    models.CurrentTime(),
		ClientIP:     c.ClientIP(),
		Operation:    operation,
		GroupID:      groupID,
		TargetID:     targetID,
		UpstreamCode: upstreamCode,
		StatusCode:   c.Writer.Status(),
		IsSuccess:    success,
		DurationMs:   duration.Milliseconds(),
	}
	if errMsg != "" {
		log.ErrorMessage = &errMsg
	}

	select {
	case s.logChan <- log:
	default:
		logger.Warn("日志通道已满，丢弃日志")
	}
}

// startLogWorker 启动日志批量写入 worker
func (s *Server) startLogWorker() {
	s.logWg.Add(1)
	go func() {
		defer s.logWg.Done()
		batch := make([]*models.RequestLog, 0, 100)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		flush := func() {
			if len(batch) == 0 {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := s.db.BatchCreateRequestLogs(ctx, batch); err != nil {
				logger.Debug("批量写入请求日志失败: %v - 日志数量: %d", err, len(batch))
			}
			cancel()
			batch = make([]*models.RequestLog, 0, 100)
		}

		for {
			select {
			case log, ok := <-s.logChan:
				if !ok {
					flush()
					return
				}
				batch = append(batch, log)
				if len(batch) >= 100 {
					flush()
				}
			case <-ticker.C:
				flush()
			}
		}
	}()
}

// Close 关闭服务器后台任务（日志 worker、限流器），可安全重复调用
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		close(s.logChan)
		s.logWg.Wait()
		s.limiter.Stop()
	})
}
