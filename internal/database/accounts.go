package database

import (
	"context"
	"errors"
	"fmt"

	"yunhu-api/internal/models"

	"gorm.io/gorm"
)

// CreateAccount 创建账号
func (db *DB) CreateAccount(ctx context.Context, acc *models.Account) error {
	if acc.CreatedAt == "" {
		acc.CreatedAt = models.CurrentTime()
	}
	if acc.UpdatedAt == "" {
		acc.UpdatedAt = models.CurrentTime()
	}
	return db.gorm.WithContext(ctx).Create(acc).Error
}

// GetAccount 按 ID 获取账号，不存在时返回 nil
func (db *DB) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var acc models.Account
	err := db.gorm.WithContext(ctx).First(&acc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

// GetAccountByEmail 按邮箱获取账号，不存在时返回 nil
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	err := db.gorm.WithContext(ctx).First(&acc, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

// ListAccounts 列出账号；enabled 为 nil 时不过滤
func (db *DB) ListAccounts(ctx context.Context, enabled *bool) ([]*models.Account, error) {
	query := db.gorm.WithContext(ctx).Model(&models.Account{})
	if enabled != nil {
		query = query.Where("enabled = ?", *enabled)
	}

	var accounts []*models.Account
	if err := query.Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// UpdateAccount 更新账号的非 nil 字段
func (db *DB) UpdateAccount(ctx context.Context, id string, updates *models.AccountUpdate) error {
	fields := map[string]interface{}{
		"updated_at": models.CurrentTime(),
	}
	if updates.Email != nil {
		fields["email"] = *updates.Email
	}
	if updates.Password != nil {
		fields["password"] = *updates.Password
	}
	if updates.Nickname != nil {
		fields["nickname"] = *updates.Nickname
	}
	if updates.Token != nil {
		fields["token"] = *updates.Token
	}
	if updates.Enabled != nil {
		fields["enabled"] = *updates.Enabled
	}

	result := db.gorm.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("账号不存在: %s", id)
	}
	return nil
}

// DeleteAccount 删除账号
func (db *DB) DeleteAccount(ctx context.Context, id string) error {
	result := db.gorm.WithContext(ctx).Delete(&models.Account{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("账号不存在: %s", id)
	}
	return nil
}

// MarkAccountLogin 记录账号登录结果；成功时同步更新 Token 和用户信息
func (db *DB) MarkAccountLogin(ctx context.Context, id string, success bool, token, userID, nickname string) error {
	now := models.CurrentTime()
	fields := map[string]interface{}{
		"last_login_time": now,
		"updated_at":      now,
	}
	if success {
		fields["last_login_status"] = "success"
		fields["token"] = token
		if userID != "" {
			fields["user_id"] = userID
		}
		if nickname != "" {
			fields["nickname"] = nickname
		}
		fields["success_count"] = gorm.Expr("success_count + 1")
	} else {
		fields["last_login_status"] = "failed"
		fields["error_count"] = gorm.Expr("error_count + 1")
	}

	return db.gorm.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(fields).Error
}
