package yunhu

import (
	"context"
	"fmt"

	"yunhu-api/internal/logger"
)

// GagDurations 平台接受的禁言时长（10 秒 / 1 小时 / 6 小时 / 12 小时 / 解除）
var GagDurations = []string{"10", "1h", "6h", "12h", "0"}

// GagUnban 解除禁言的时长值
const GagUnban = "0"

// IsValidGagDuration 校验禁言时长是否被平台接受
func IsValidGagDuration(d string) bool {
	for _, v := range GagDurations {
		if v == d {
			return true
		}
	}
	return false
}

// BanMember 在群内禁言用户，duration 必须是 GagDurations 之一
func (c *Client) BanMember(ctx context.Context, token, groupID, userID, duration string) error {
	if !IsValidGagDuration(duration) {
		return fmt.Errorf("不支持的禁言时长: %s（可选: %v）", duration, GagDurations)
	}

	payload := map[string]string{
		"groupId": groupID,
		"userId":  userID,
		"gag":     duration,
	}
	if err := c.postJSON(ctx, pathGagMember, token, payload, nil); err != nil {
		logger.Error("禁言失败 - 群: %s, 用户: %s, 错误: %v", groupID, userID, err)
		return err
	}

	if duration == GagUnban {
		logger.Info("已解除 %s 群用户 %s 的禁言", groupID, userID)
	} else {
		logger.Info("已禁言 %s 群用户 %s，时长 %s", groupID, userID, duration)
	}
	return nil
}

// UnbanMember 解除禁言（等价于禁言时长 "0"）
func (c *Client) UnbanMember(ctx context.Context, token, groupID, userID string) error {
	return c.BanMember(ctx, token, groupID, userID, GagUnban)
}

// RemoveMember 将用户踢出群
func (c *Client) RemoveMember(ctx context.Context, token, groupID, userID string) error {
	payload := map[string]string{
		"groupId": groupID,
		"userId":  userID,
	}
	if err := c.postJSON(ctx, pathRemoveMember, token, payload, nil); err != nil {
		logger.Error("踢出失败 - 群: %s, 用户: %s, 错误: %v", groupID, userID, err)
		return err
	}

	logger.Info("已踢出 %s 群用户 %s", groupID, userID)
	return nil
}

// JoinGroup 加入群
func (c *Client) JoinGroup(ctx context.Context, token, groupID string) error {
	payload := map[string]string{
		"groupId": groupID,
	}
	if err := c.postJSON(ctx, pathJoinGroup, token, payload, nil); err != nil {
		logger.Error("加群失败 - 群: %s, 错误: %v", groupID, err)
		return err
	}

	logger.Info("已加入群 %s", groupID)
	return nil
}

// LeaveGroup 退出群
func (c *Client) LeaveGroup(ctx context.Context, token, groupID string) error {
	payload := map[string]string{
		"groupId": groupID,
	}
	if err := c.postJSON(ctx, pathQuitGroup, token, payload, nil); err != nil {
		logger.Error("退群失败 - 群: %s, 错误: %v", groupID, err)
		return err
	}

	logger.Info("已退出群 %s", groupID)
	return nil
}
