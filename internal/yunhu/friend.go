package yunhu

import (
	"context"

	"yunhu-api/internal/logger"
)

// 好友申请的会话类型
const (
	ChatTypeUser  = 1 // 用户
	ChatTypeGroup = 2 // 群
)

// ApplyFriend 发起好友/入群申请
// chatType 为 ChatTypeUser 或 ChatTypeGroup，remark 为申请附言
func (c *Client) ApplyFriend(ctx context.Context, token, chatID string, chatType int, remark string) error {
	payload := map[string]interface{}{
		"chatId":   chatID,
		"chatType": chatType,
		"remark":   remark,
	}
	if err := c.postJSON(ctx, pathFriendApply, token, payload, nil); err != nil {
		logger.Error("好友申请失败 - 目标: %s, 错误: %v", chatID, err)
		return err
	}

	logger.Info("已向 %s 发起好友申请", chatID)
	return nil
}

// DeleteFriend 删除好友
func (c *Client) DeleteFriend(ctx context.Context, token, chatID string) error {
	payload := map[string]string{
		"chatId": chatID,
	}
	if err := c.postJSON(ctx, pathFriendDelete, token, payload, nil); err != nil {
		logger.Error("删除好友失败 - 目标: %s, 错误: %v", chatID, err)
		return err
	}

	logger.Info("已删除好友 %s", chatID)
	return nil
}
