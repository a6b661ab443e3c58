package database

import (
	"context"
	"fmt"
	"strconv"

	"yunhu-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetSettings 获取系统设置（数据库值覆盖默认值，同时刷新运行时配置）
func (db *DB) GetSettings(ctx context.Context) (*models.Settings, error) {
	settings := &models.Settings{
		AdminPassword:     db.cfg.AdminPassword,
		APIKey:            db.cfg.APIKey,
		DebugLog:          false,
		EnableRequestLog:  true,
		LogRetentionDays:  7,
		EnableIPRateLimit: db.cfg.EnableIPRateLimit,
		IPRateLimitWindow: db.cfg.IPRateLimitWindow,
		IPRateLimitMax:    db.cfg.IPRateLimitMax,
		Port:              db.cfg.Server.Port,
	}

	var settingsList []models.Setting
	if err := db.gorm.WithContext(ctx).Find(&settingsList).Error; err != nil {
		return settings, nil
	}

	for _, s := range settingsList {
		switch s.Key {
		case "admin_password":
			settings.AdminPassword = s.Value
			db.cfg.AdminPassword = s.Value
		case "api_key":
			settings.APIKey = s.Value
			db.cfg.APIKey = s.Value
		case "debug_log":
			settings.DebugLog = s.Value == "true"
		case "enable_request_log":
			settings.EnableRequestLog = s.Value == "true"
		case "log_retention_days":
			if v, err := strconv.Atoi(s.Value); err == nil && v >= 0 {
				settings.LogRetentionDays = v
			}
		case "enable_ip_rate_limit":
			settings.EnableIPRateLimit = s.Value == "true"
			db.cfg.EnableIPRateLimit = settings.EnableIPRateLimit
		case "ip_rate_limit_window":
			if v, err := strconv.Atoi(s.Value); err == nil && v > 0 {
				settings.IPRateLimitWindow = v
				db.cfg.IPRateLimitWindow = v
			}
		case "ip_rate_limit_max":
			if v, err := strconv.Atoi(s.Value); err == nil && v > 0 {
				settings.IPRateLimitMax = v
				db.cfg.IPRateLimitMax = v
			}
		case "port":
			if v, err := strconv.Atoi(s.Value); err == nil && v > 0 {
				settings.Port = v
				settings.PortConfigured = true
			}
		}
	}

	return settings, nil
}

// UpdateSettings 更新设置（nil 字段不变）
func (db *DB) UpdateSettings(ctx context.Context, updates *models.SettingsUpdate) error {
	return db.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsertSetting := func(key, value string) error {
			setting := models.Setting{Key: key, Value: value}
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "setting_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"setting_value"}),
			}).Create(&setting).Error
		}

		if updates.AdminPassword != nil {
			if err := upsertSetting("admin_password", *updates.AdminPassword); err != nil {
				return err
			}
			db.cfg.AdminPassword = *updates.AdminPassword
		}
		if updates.APIKey != nil {
			if err := upsertSetting("api_key", *updates.APIKey); err != nil {
				return err
			}
			db.cfg.APIKey = *updates.APIKey
		}
		if updates.DebugLog != nil {
			if err := upsertSetting("debug_log", boolToString(*updates.DebugLog)); err != nil {
				return err
			}
		}
		if updates.EnableRequestLog != nil {
			if err := upsertSetting("enable_request_log", boolToString(*updates.EnableRequestLog)); err != nil {
				return err
			}
		}
		if updates.LogRetentionDays != nil {
			if err := upsertSetting("log_retention_days", fmt.Sprintf("%d", *updates.LogRetentionDays)); err != nil {
				return err
			}
		}
		if updates.EnableIPRateLimit != nil {
			if err := upsertSetting("enable_ip_rate_limit", boolToString(*updates.EnableIPRateLimit)); err != nil {
				return err
			}
			db.cfg.EnableIPRateLimit = *updates.EnableIPRateLimit
		}
		if updates.IPRateLimitWindow != nil {
			if err := upsertSetting("ip_rate_limit_window", fmt.Sprintf("%d", *updates.IPRateLimitWindow)); err != nil {
				return err
			}
			db.cfg.IPRateLimitWindow = *updates.IPRateLimitWindow
		}
		if updates.IPRateLimitMax != nil {
			if err := upsertSetting("ip_rate_limit_max", fmt.Sprintf("%d", *updates.IPRateLimitMax)); err != nil {
				return err
			}
			db.cfg.IPRateLimitMax = *updates.IPRateLimitMax
		}
		if updates.Port != nil {
			if err := upsertSetting("port", fmt.Sprintf("%d", *updates.Port)); err != nil {
				return err
			}
		}

		return nil
	})
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
