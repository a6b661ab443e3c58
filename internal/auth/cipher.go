package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// KeySize 对称密钥长度（AES-256）
const KeySize = 32

// ErrInvalidCiphertext 密文损坏或密钥不匹配
var ErrInvalidCiphertext = errors.New("invalid token ciphertext")

// tokenCipher 对 Token 做 AES-GCM 加解密
// 磁盘格式: base64(nonce || ciphertext)
type tokenCipher struct {
	aead cipher.AEAD
}

// newTokenCipher 根据 32 字节密钥创建加解密器
func newTokenCipher(key []byte) (*tokenCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("密钥长度错误: %d, 需要 %d 字节", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("创建 AES cipher 失败: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("创建 GCM 失败: %w", err)
	}
	return &tokenCipher{aead: aead}, nil
}

// Encrypt 加密明文并返回 base64 字符串
func (c *tokenCipher) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("生成 nonce 失败: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(append(nonce, sealed...)), nil
}

// Decrypt 解密 base64 密文
func (c *tokenCipher) Decrypt(input string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	ns := c.aead.NonceSize()
	if len(data) < ns {
		return "", ErrInvalidCiphertext
	}
	plain, err := c.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}

// generateKey 生成随机密钥
func generateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("生成密钥失败: %w", err)
	}
	return key, nil
}

// decodeKey 解析环境变量中的密钥：原始 32 字符或 base64 编码
func decodeKey(raw string) ([]byte, error) {
	if len(raw) == KeySize {
		return []byte(raw), nil
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("密钥解码失败: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("密钥长度错误: %d, 需要 %d 字节", len(key), KeySize)
	}
	return key, nil
}
