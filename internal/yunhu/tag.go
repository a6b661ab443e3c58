package yunhu

import (
	"context"

	"yunhu-api/internal/logger"
)

// DefaultTagColor 标签默认颜色
const DefaultTagColor = "#2196F3"

// TagParam 创建/编辑标签的参数
// ID 仅编辑时需要；Color 为空时使用 DefaultTagColor
type TagParam struct {
	ID      int64  `json:"id,omitempty"`
	GroupID string `json:"groupId"`
	Tag     string `json:"tag"`
	Color   string `json:"color"`
	Desc    string `json:"desc,omitempty"`
	Sort    int    `json:"sort"`
}

func (p *TagParam) fillDefaults() {
	if p.Color == "" {
		p.Color = DefaultTagColor
	}
}

// CreateTag 在群内创建标签
func (c *Client) CreateTag(ctx context.Context, token string, p TagParam) error {
	p.fillDefaults()
	if err := c.postJSON(ctx, pathTagCreate, token, &p, nil); err != nil {
		logger.Error("创建标签失败 - 群: %s, 标签: %s, 错误: %v", p.GroupID, p.Tag, err)
		return err
	}

	logger.Info("已在 %s 群创建标签 %s", p.GroupID, p.Tag)
	return nil
}

// EditTag 编辑已有标签（按 ID）
func (c *Client) EditTag(ctx context.Context, token string, p TagParam) error {
	p.fillDefaults()
	if err := c.postJSON(ctx, pathTagEdit, token, &p, nil); err != nil {
		logger.Error("编辑标签失败 - 群: %s, 标签ID: %d, 错误: %v", p.GroupID, p.ID, err)
		return err
	}

	logger.Info("已编辑 %s 群的标签 %d 为 %s", p.GroupID, p.ID, p.Tag)
	return nil
}

// DeleteTag 删除标签（按 ID）
func (c *Client) DeleteTag(ctx context.Context, token string, id int64) error {
	payload := map[string]int64{
		"id": id,
	}
	if err := c.postJSON(ctx, pathTagDelete, token, payload, nil); err != nil {
		logger.Error("删除标签失败 - 标签ID: %d, 错误: %v", id, err)
		return err
	}

	logger.Info("已删除标签 %d", id)
	return nil
}
