package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"yunhu-api/internal/config"
	"yunhu-api/internal/logger"
)

const (
	// TokenEnv 明文 Token 环境变量（兼容早期版本），优先于本地加密文件，永不落盘
	TokenEnv = "YUNHU_TOKEN"
	// TokenKeyEnv 加密密钥环境变量，设置后不再读写密钥文件
	TokenKeyEnv = "YUNHU_TOKEN_KEY"
)

// ErrNoToken 本地没有可用 Token
var ErrNoToken = errors.New("未登录，本地没有可用 Token")

// TokenStore 管理登录 Token 的本地持久化
// 磁盘上只存 AES-GCM 加密后的密文，密钥来自环境变量或 0600 权限的密钥文件
type TokenStore struct {
	mu      sync.Mutex
	path    string
	keyPath string
	cipher  *tokenCipher

	token  string // 内存缓存
	loaded bool
}

// NewTokenStore 创建 TokenStore 并就绪加密密钥
func NewTokenStore(cfg *config.Config) (*TokenStore, error) {
	key, err := loadOrCreateKey(cfg.Token.KeyFile)
	if err != nil {
		return nil, err
	}
	c, err := newTokenCipher(key)
	if err != nil {
		return nil, err
	}
	return &TokenStore{
		path:    cfg.Token.File,
		keyPath: cfg.Token.KeyFile,
		cipher:  c,
	}, nil
}

// loadOrCreateKey 获取加密密钥：环境变量 > 密钥文件 > 新生成
func loadOrCreateKey(keyPath string) ([]byte, error) {
	if raw := strings.TrimSpace(os.Getenv(TokenKeyEnv)); raw != "" {
		key, err := decodeKey(raw)
		if err != nil {
			return nil, fmt.Errorf("解析 %s 失败: %w", TokenKeyEnv, err)
		}
		return key, nil
	}

	if data, err := os.ReadFile(keyPath); err == nil {
		key, err := decodeKey(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("读取密钥文件 %s 失败: %w", keyPath, err)
		}
		return key, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("读取密钥文件失败: %w", err)
	}

	key, err := generateKey()
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(keyPath, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("写入密钥文件失败: %w", err)
	}
	logger.Info("已生成新的 Token 加密密钥: %s", keyPath)
	return key, nil
}

// Token 返回当前 Token；环境变量覆盖 > 内存缓存 > 加密文件
func (s *TokenStore) Token() (string, error) {
	if env := strings.TrimSpace(os.Getenv(TokenEnv)); env != "" {
		return env, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		if s.token == "" {
			return "", ErrNoToken
		}
		return s.token, nil
	}
	return s.loadLocked()
}

// loadLocked 从磁盘读取并解密 Token，调用方需持有锁
// 读取或解密失败时不缓存结果，后续调用仍报告原始错误
func (s *TokenStore) loadLocked() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			logger.Debug("未找到本地 Token 文件: %s", s.path)
			return "", ErrNoToken
		}
		return "", fmt.Errorf("读取 Token 文件失败: %w", err)
	}

	token, err := s.cipher.Decrypt(strings.TrimSpace(string(data)))
	if err != nil {
		logger.Error("Token 解密失败（密钥变更或文件损坏）: %v", err)
		return "", fmt.Errorf("Token 解密失败: %w", err)
	}

	s.token = token
	s.loaded = true
	logger.Info("Token 加载成功")
	return token, nil
}

// Save 加密保存 Token 到磁盘并更新内存缓存
func (s *TokenStore) Save(token string) error {
	if token == "" {
		return errors.New("Token 为空，拒绝保存")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	encrypted, err := s.cipher.Encrypt(token)
	if err != nil {
		return fmt.Errorf("Token 加密失败: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(encrypted), 0600); err != nil {
		return fmt.Errorf("写入 Token 文件失败: %w", err)
	}

	s.token = token
	s.loaded = true
	logger.Info("Token 保存成功")
	return nil
}

// Clear 清除内存缓存并删除 Token 文件
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.loaded = true

	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("删除 Token 文件失败: %w", err)
	}
	logger.Info("Token 已清除")
	return nil
}

// HasToken 返回是否已有可用 Token
func (s *TokenStore) HasToken() bool {
	_, err := s.Token()
	return err == nil
}
