package models

import "time"

// Account 表示一个已保存的云湖平台账号
// Token 为平台签发的登录凭证，随登录操作更新；本地磁盘副本另行加密存储
type Account struct {
	ID              string  `gorm:"primaryKey;size:36" json:"id"`
	Email           string  `gorm:"size:255;uniqueIndex" json:"email"`
	Password        *string `gorm:"size:255" json:"password,omitempty"`
	Nickname        *string `gorm:"size:255" json:"nickname"`
	UserID          *string `gorm:"column:user_id;size:64;index" json:"user_id"`
	Token           *string `gorm:"type:text" json:"token"`
	LastLoginTime   *string `gorm:"column:last_login_time;size:50;index" json:"last_login_time"`
	LastLoginStatus *string `gorm:"column:last_login_status;size:50" json:"last_login_status"`
	CreatedAt       string  `gorm:"column:created_at;size:50;index:idx_enabled_created,priority:2" json:"created_at"`
	UpdatedAt       string  `gorm:"column:updated_at;size:50" json:"updated_at"`
	Enabled         bool    `gorm:"default:true;index;index:idx_enabled_created,priority:1" json:"enabled"`
	ErrorCount      int     `gorm:"column:error_count;default:0" json:"error_count"`
	SuccessCount    int     `gorm:"column:success_count;default:0" json:"success_count"`
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}

// AccountCreate 表示创建新账号的数据
type AccountCreate struct {
	Email    string  `json:"email" binding:"required"`
	Password *string `json:"password"`
	Nickname *string `json:"nickname"`
	Token    *string `json:"token"`
	Enabled  *bool   `json:"enabled"`
}

// AccountUpdate 表示更新账号的数据（nil 字段不变）
type AccountUpdate struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Nickname *string `json:"nickname"`
	Token    *string `json:"token"`
	Enabled  *bool   `json:"enabled"`
}

// CurrentTime 返回当前本地时间的格式字符串
func CurrentTime() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
