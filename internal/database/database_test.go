package database

import (
	"context"
	"testing"

	"yunhu-api/internal/config"
	"yunhu-api/internal/models"

	"github.com/google/uuid"
)

// setupTestDB 创建测试数据库（使用 SQLite 内存数据库）
func setupTestDB(t *testing.T) *DB {
	cfg := config.Load()
	cfg.Database.SQLite.Path = ":memory:"

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("创建测试数据库失败: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// TestAccountCRUD 测试账号的增删改查
func TestAccountCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	accID := uuid.New().String()

	t.Run("CreateAccount", func(t *testing.T) {
		acc := &models.Account{
			ID:      accID,
			Email:   "user@example.com",
			Enabled: true,
		}
		if err := db.CreateAccount(ctx, acc); err != nil {
			t.Fatalf("创建账号失败: %v", err)
		}

		got, err := db.GetAccount(ctx, accID)
		if err != nil {
			t.Fatalf("获取账号失败: %v", err)
		}
		if got == nil {
			t.Fatal("账号不存在")
		}
		if got.Email != "user@example.com" {
			t.Errorf("邮箱不匹配: got %s", got.Email)
		}
		if got.CreatedAt == "" {
			t.Error("创建时间未自动填充")
		}
	})

	t.Run("GetAccountByEmail", func(t *testing.T) {
		got, err := db.GetAccountByEmail(ctx, "user@example.com")
		if err != nil {
			t.Fatalf("按邮箱获取账号失败: %v", err)
		}
		if got == nil || got.ID != accID {
			t.Error("按邮箱查询结果错误")
		}

		missing, err := db.GetAccountByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("查询不存在账号报错: %v", err)
		}
		if missing != nil {
			t.Error("不存在的账号应返回 nil")
		}
	})

	t.Run("ListAccounts", func(t *testing.T) {
		accounts, err := db.ListAccounts(ctx, nil)
		if err != nil {
			t.Fatalf("列出账号失败: %v", err)
		}
		if len(accounts) != 1 {
			t.Errorf("账号数量错误: %d", len(accounts))
		}

		disabled := false
		accounts, err = db.ListAccounts(ctx, &disabled)
		if err != nil {
			t.Fatalf("按启用状态过滤失败: %v", err)
		}
		if len(accounts) != 0 {
			t.Errorf("禁用账号数量应为 0, got %d", len(accounts))
		}
	})

	t.Run("UpdateAccount", func(t *testing.T) {
		updates := &models.AccountUpdate{
			Nickname: strPtr("新昵称"),
			Enabled:  boolPtr(false),
		}
		if err := db.UpdateAccount(ctx, accID, updates); err != nil {
			t.Fatalf("更新账号失败: %v", err)
		}

		got, _ := db.GetAccount(ctx, accID)
		if got.Nickname == nil || *got.Nickname != "新昵称" {
			t.Error("昵称未更新")
		}
		if got.Enabled {
			t.Error("启用状态未更新")
		}
	})

	t.Run("UpdateMissingAccount", func(t *testing.T) {
		err := db.UpdateAccount(ctx, "no-such-id", &models.AccountUpdate{Nickname: strPtr("x")})
		if err == nil {
			t.Error("更新不存在的账号应报错")
		}
	})

	t.Run("MarkAccountLogin", func(t *testing.T) {
		if err := db.MarkAccountLogin(ctx, accID, true, "tok-1", "u100", "登录昵称"); err != nil {
			t.Fatalf("记录登录结果失败: %v", err)
		}

		got, _ := db.GetAccount(ctx, accID)
		if got.Token == nil || *got.Token != "tok-1" {
			t.Error("Token 未保存")
		}
		if got.SuccessCount != 1 {
			t.Errorf("成功次数错误: %d", got.SuccessCount)
		}
		if got.LastLoginStatus == nil || *got.LastLoginStatus != "success" {
			t.Error("登录状态未记录")
		}

		if err := db.MarkAccountLogin(ctx, accID, false, "", "", ""); err != nil {
			t.Fatalf("记录登录失败状态失败: %v", err)
		}
		got, _ = db.GetAccount(ctx, accID)
		if got.ErrorCount != 1 {
			t.Errorf("失败次数错误: %d", got.ErrorCount)
		}
	})

	t.Run("DeleteAccount", func(t *testing.T) {
		if err := db.DeleteAccount(ctx, accID); err != nil {
			t.Fatalf("删除账号失败: %v", err)
		}
		got, _ := db.GetAccount(ctx, accID)
		if got != nil {
			t.Error("账号应已删除")
		}
		if err := db.DeleteAccount(ctx, accID); err == nil {
			t.Error("重复删除应报错")
		}
	})
}

// TestRequestLogs 测试请求日志的写入与查询
func TestRequestLogs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	group := "g1"
	logs := []*models.RequestLog{
		{
			ID:           uuid.New().String(),
			Timestamp:    "2026-01-01 10:00:00",
			ClientIP:     "127.0.0.1",
			Operation:    "ban",
			GroupID:      &group,
			UpstreamCode: 1,
			StatusCode:   200,
			IsSuccess:    true,
			DurationMs:   120,
		},
		{
			ID:           uuid.New().String(),
			Timestamp:    "2026-01-01 10:01:00",
			ClientIP:     "127.0.0.1",
			Operation:    "kick",
			GroupID:      &group,
			UpstreamCode: -1,
			StatusCode:   200,
			IsSuccess:    false,
			DurationMs:   80,
		},
		{
			ID:         uuid.New().String(),
			Timestamp:  "2026-01-01 10:02:00",
			ClientIP:   "10.0.0.2",
			Operation:  "ban",
			StatusCode: 200,
			IsSuccess:  true,
			DurationMs: 100,
		},
	}

	if err := db.BatchCreateRequestLogs(ctx, logs); err != nil {
		t.Fatalf("批量写入日志失败: %v", err)
	}

	t.Run("QueryAll", func(t *testing.T) {
		got, err := db.GetRequestLogs(ctx, nil, 10, 0)
		if err != nil {
			t.Fatalf("查询日志失败: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("日志数量错误: %d", len(got))
		}
		// 按时间倒序
		if got[0].Operation != "ban" || got[0].Timestamp != "2026-01-01 10:02:00" {
			t.Error("日志排序错误")
		}
	})

	t.Run("FilterByOperation", func(t *testing.T) {
		op := "ban"
		got, err := db.GetRequestLogs(ctx, &models.LogFilters{Operation: &op}, 10, 0)
		if err != nil {
			t.Fatalf("按操作过滤失败: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("过滤结果数量错误: %d", len(got))
		}
	})

	t.Run("Count", func(t *testing.T) {
		success := false
		count, err := db.GetRequestLogsCount(ctx, &models.LogFilters{IsSuccess: &success})
		if err != nil {
			t.Fatalf("统计日志数失败: %v", err)
		}
		if count != 1 {
			t.Errorf("失败日志数错误: %d", count)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		stats, err := db.GetRequestStats(ctx, nil)
		if err != nil {
			t.Fatalf("获取统计失败: %v", err)
		}
		if stats.TotalRequests != 3 || stats.SuccessRequests != 2 {
			t.Errorf("统计错误: %+v", stats)
		}
		if len(stats.TopOperations) == 0 || stats.TopOperations[0].Operation != "ban" {
			t.Errorf("操作统计错误: %+v", stats.TopOperations)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		deleted, err := db.CleanupOldLogs(ctx, 7)
		if err != nil {
			t.Fatalf("清理日志失败: %v", err)
		}
		if deleted != 3 {
			t.Errorf("清理条数错误: %d", deleted)
		}
	})
}

// TestSettings 测试设置的读取与更新
func TestSettings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		settings, err := db.GetSettings(ctx)
		if err != nil {
			t.Fatalf("获取设置失败: %v", err)
		}
		if settings.AdminPassword != "admin" {
			t.Errorf("默认管理密码错误: %s", settings.AdminPassword)
		}
		if settings.PortConfigured {
			t.Error("初始状态不应标记端口已配置")
		}
	})

	t.Run("Update", func(t *testing.T) {
		updates := &models.SettingsUpdate{
			AdminPassword:     strPtr("new-pass"),
			APIKey:            strPtr("sk-test"),
			EnableIPRateLimit: boolPtr(true),
		}
		if err := db.UpdateSettings(ctx, updates); err != nil {
			t.Fatalf("更新设置失败: %v", err)
		}

		settings, _ := db.GetSettings(ctx)
		if settings.AdminPassword != "new-pass" {
			t.Errorf("管理密码未更新: %s", settings.AdminPassword)
		}
		if settings.APIKey != "sk-test" {
			t.Errorf("API Key 未更新: %s", settings.APIKey)
		}
		if !settings.EnableIPRateLimit {
			t.Error("限流开关未更新")
		}
		// 运行时配置应同步刷新
		if db.cfg.AdminPassword != "new-pass" {
			t.Error("运行时配置未同步")
		}
	})

	t.Run("UpsertTwice", func(t *testing.T) {
		if err := db.UpdateSettings(ctx, &models.SettingsUpdate{AdminPassword: strPtr("pass2")}); err != nil {
			t.Fatalf("二次更新设置失败: %v", err)
		}
		settings, _ := db.GetSettings(ctx)
		if settings.AdminPassword != "pass2" {
			t.Errorf("设置未覆盖更新: %s", settings.AdminPassword)
		}
	})
}
