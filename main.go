package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yunhu-api/internal/api"
	"yunhu-api/internal/auth"
	"yunhu-api/internal/config"
	"yunhu-api/internal/database"
	"yunhu-api/internal/logger"

	_ "time/tzdata" // 嵌入时区数据库，解决 Windows 下时区加载失败问题
)

// Version 版本号，通过 ldflags 注入
var Version = "dev"

func main() {
	// 解析命令行参数
	portFlag := flag.Int("port", 0, "服务器监听端口（优先级最高，0 表示使用配置文件或默认值 18666）")
	flag.IntVar(portFlag, "p", 0, "服务器监听端口（-port 的简写）")
	dataDirFlag := flag.String("data-dir", "", "数据目录路径（存放数据库、日志和 Token 文件，不指定则使用当前工作目录）")
	flag.Parse()

	// 设置时区为北京时间（UTC+8）
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		log.Printf("警告: 加载时区失败，使用 UTC+8: %v", err)
		loc = time.FixedZone("CST", 8*3600)
	}
	time.Local = loc

	// 确定数据目录（仅当通过 -data-dir 参数指定时才使用）
	dataDir := *dataDirFlag
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			log.Fatalf("创建数据目录失败: %v", err)
		}
		// 切换到数据目录，使数据库、日志和 Token 文件都存放在此目录
		if err := os.Chdir(dataDir); err != nil {
			log.Fatalf("切换到数据目录失败: %v", err)
		}
	}

	// 初始化日志系统
	if err := logger.Init(); err != nil {
		log.Fatalf("初始化日志系统失败: %v", err)
	}
	logger.Info("=== 云湖网关 %s 启动中 ===", Version)
	if dataDir != "" {
		logger.Info("数据目录: %s", dataDir)
	}
	logger.Info("系统时区: %s", time.Local.String())

	// 加载配置（默认值 < config.yaml < .env < 环境变量）
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warn("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Load()
	}
	logger.SetDebugEnabled(cfg.Debug)
	logger.Info("配置已加载 - 平台地址: %s, 端口: %d", cfg.Yunhu.BaseURL, cfg.Server.Port)

	// 初始化数据库
	db, err := database.New(cfg)
	if err != nil {
		logger.Error("初始化数据库失败: %v", err)
		log.Fatalf("数据库初始化失败: %v", err)
	}
	defer db.Close()
	logger.Info("数据库初始化成功")

	// 从数据库加载设置并更新配置（GetSettings 会把动态设置同步回 cfg）
	settings, err := db.GetSettings(context.Background())
	if err != nil {
		logger.Warn("从数据库加载设置失败，使用默认配置: %v", err)
	} else if settings.DebugLog {
		logger.SetDebugEnabled(true)
	}

	// 确定最终端口：命令行参数 > 配置文件/环境变量 > 系统配置
	if *portFlag > 0 && *portFlag <= 65535 {
		cfg.Server.Port = *portFlag
		logger.Info("使用命令行指定端口: %d", cfg.Server.Port)
	} else if settings != nil && settings.PortConfigured {
		cfg.Server.Port = settings.Port
		logger.Info("使用系统配置端口: %d", cfg.Server.Port)
	}

	// 初始化 Token 存储（密钥文件不存在时自动生成）
	tokens, err := auth.NewTokenStore(cfg)
	if err != nil {
		logger.Error("初始化 Token 存储失败: %v", err)
		log.Fatalf("Token 存储初始化失败: %v", err)
	}
	if tokens.HasToken() {
		logger.Info("已加载本地登录凭证")
	} else {
		logger.Info("未找到本地登录凭证，请先调用 /v1/user/login 登录")
	}

	// 创建 API 服务器
	server := api.NewServer(cfg, db, tokens, Version)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 300 * time.Second, // SSE 日志流需要较长超时
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器监听中 - 地址: http://%s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP 服务器启动失败: %v", err)
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 后台任务：按保留天数自动清理审计日志
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				settings, err := db.GetSettings(context.Background())
				if err != nil || !settings.EnableRequestLog || settings.LogRetentionDays <= 0 {
					continue
				}
				deleted, err := db.CleanupOldLogs(context.Background(), settings.LogRetentionDays)
				if err != nil {
					logger.Error("自动清理审计日志失败: %v", err)
				} else if deleted > 0 {
					logger.Info("自动清理审计日志完成，删除 %d 条记录（保留 %d 天）", deleted, settings.LogRetentionDays)
				}
			case <-cleanupDone:
				return
			}
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到关闭信号，正在优雅关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	close(cleanupDone)

	// 停止日志 worker 和限流器
	server.Close()

	// 先关闭 SSE 订阅者，让日志流连接能够正常结束
	logger.CloseSubscribers()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("服务器强制关闭: %v", err)
	}

	logger.Info("=== 云湖网关 %s 已停止 ===", Version)
	logger.Close()
	log.Println("服务器已退出")
}
