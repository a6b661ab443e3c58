package yunhu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"yunhu-api/internal/config"
)

// fakeUpstream 记录最近一次请求的假云湖服务
type fakeUpstream struct {
	lastPath   string
	lastToken  string
	lastBody   map[string]interface{}
	statusCode int
	response   string
}

func (f *fakeUpstream) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.lastPath = r.URL.Path
		f.lastToken = r.Header.Get("token")
		f.lastBody = map[string]interface{}{}
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)

		if f.statusCode != 0 {
			w.WriteHeader(f.statusCode)
		}
		w.Write([]byte(f.response))
	}
}

// newTestClient 创建指向假服务的客户端
func newTestClient(t *testing.T, upstream *fakeUpstream) (*Client, *httptest.Server) {
	t.Helper()

	ts := httptest.NewServer(upstream.handler())
	t.Cleanup(ts.Close)

	cfg := config.Load()
	cfg.Yunhu.BaseURL = ts.URL
	return NewClient(cfg), ts
}

// TestLogin 测试邮箱登录
func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		upstream := &fakeUpstream{
			response: `{"code":1,"msg":"success","data":{"token":"tok-123","userInfo":{"id":"u1","nickname":"测试"}}}`,
		}
		client, _ := newTestClient(t, upstream)

		result, err := client.Login(context.Background(), "a@b.com", "pass")
		if err != nil {
			t.Fatalf("登录失败: %v", err)
		}
		if result.Token != "tok-123" {
			t.Errorf("Token 不匹配: got %q", result.Token)
		}
		if result.User.Nickname != "测试" {
			t.Errorf("昵称不匹配: got %q", result.User.Nickname)
		}
		if upstream.lastPath != pathEmailLogin {
			t.Errorf("请求路径错误: %s", upstream.lastPath)
		}
		if upstream.lastToken != "" {
			t.Error("登录请求不应携带 token 头")
		}
		// 登录请求必须上报 deviceId 和 platform
		if v, _ := upstream.lastBody["deviceId"].(string); v == "" {
			t.Error("请求体缺少 deviceId")
		}
		if upstream.lastBody["platform"] != "Web" {
			t.Errorf("platform 不匹配: %v", upstream.lastBody["platform"])
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		upstream := &fakeUpstream{
			response: `{"code":-1,"msg":"密码错误"}`,
		}
		client, _ := newTestClient(t, upstream)

		_, err := client.Login(context.Background(), "a@b.com", "bad")
		apiErr, ok := IsAPIError(err)
		if !ok {
			t.Fatalf("期望 APIError, got %v", err)
		}
		if apiErr.Code != -1 || apiErr.Msg != "密码错误" {
			t.Errorf("错误信息不匹配: %+v", apiErr)
		}
	})

	t.Run("MissingToken", func(t *testing.T) {
		upstream := &fakeUpstream{
			response: `{"code":1,"msg":"success","data":{}}`,
		}
		client, _ := newTestClient(t, upstream)

		if _, err := client.Login(context.Background(), "a@b.com", "pass"); err == nil {
			t.Error("缺少 Token 的成功响应应报错")
		}
	})
}

// TestBanMember 测试禁言与解除禁言
func TestBanMember(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		upstream := &fakeUpstream{response: `{"code":1,"msg":"success"}`}
		client, _ := newTestClient(t, upstream)

		if err := client.BanMember(context.Background(), "tok", "g1", "u1", "1h"); err != nil {
			t.Fatalf("禁言失败: %v", err)
		}
		if upstream.lastPath != pathGagMember {
			t.Errorf("请求路径错误: %s", upstream.lastPath)
		}
		if upstream.lastToken != "tok" {
			t.Errorf("token 头错误: %q", upstream.lastToken)
		}
		if upstream.lastBody["gag"] != "1h" {
			t.Errorf("禁言时长错误: %v", upstream.lastBody["gag"])
		}
	})

	t.Run("InvalidDuration", func(t *testing.T) {
		upstream := &fakeUpstream{response: `{"code":1,"msg":"success"}`}
		client, _ := newTestClient(t, upstream)

		err := client.BanMember(context.Background(), "tok", "g1", "u1", "30m")
		if err == nil {
			t.Fatal("不支持的时长应在本地被拒绝")
		}
		if upstream.lastPath != "" {
			t.Error("非法时长不应发起请求")
		}
	})

	t.Run("Unban", func(t *testing.T) {
		upstream := &fakeUpstream{response: `{"code":1,"msg":"success"}`}
		client, _ := newTestClient(t, upstream)

		if err := client.UnbanMember(context.Background(), "tok", "g1", "u1"); err != nil {
			t.Fatalf("解除禁言失败: %v", err)
		}
		if upstream.lastBody["gag"] != GagUnban {
			t.Errorf("解除禁言应发送时长 0, got %v", upstream.lastBody["gag"])
		}
	})
}

// TestGroupMembership 测试踢人、加群、退群
func TestGroupMembership(t *testing.T) {
	cases := []struct {
		name     string
		call     func(c *Client) error
		wantPath string
	}{
		{
			name:     "RemoveMember",
			call:     func(c *Client) error { return c.RemoveMember(context.Background(), "tok", "g1", "u1") },
			wantPath: pathRemoveMember,
		},
		{
			name:     "JoinGroup",
			call:     func(c *Client) error { return c.JoinGroup(context.Background(), "tok", "g1") },
			wantPath: pathJoinGroup,
		},
		{
			name:     "LeaveGroup",
			call:     func(c *Client) error { return c.LeaveGroup(context.Background(), "tok", "g1") },
			wantPath: pathQuitGroup,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			upstream := &fakeUpstream{response: `{"code":1,"msg":"success"}`}
			client, _ := newTestClient(t, upstream)

			if err := tc.call(client); err != nil {
				t.Fatalf("%s 失败: %v", tc.name, err)
			}
			if upstream.lastPath != tc.wantPath {
				t.Errorf("请求路径错误: got %s, want %s", upstream.lastPath, tc.wantPath)
			}
			if upstream.lastBody["groupId"] != "g1" {
				t.Errorf("groupId 错误: %v", upstream.lastBody["groupId"])
			}
		})
	}
}

// TestTags 测试标签操作
func TestTags(t *testing.T) {
	t.Run("CreateDefaultColor", func(t *testing.T) {
		upstream := &fakeUpstream{response: `{"code":1,"msg":"success"}`}
		client, _ := newTestClient(t, upstream)

		err := client.CreateTag(context.Background(), "tok", TagParam{GroupID: "g1", Tag: "萌新"})
		if err != nil {
			t.Fatalf("创建标签失败: %v", err)
		}
		if upstream.lastBody["color"] != DefaultTagColor {
			t.Errorf("默认颜色错误: %v", upstream.lastBody["color"])
		}
	})

	t.Run("Edit", func(t *testing.T) {
		upstream := &fakeUpstream{response: `{"code":1,"msg":"success"}`}
		client, _ := newTestClient(t, upstream)

		err := client.EditTag(context.Background(), "tok", TagParam{ID: 7, GroupID: "g1", Tag: "大佬", Color: "#FF0000"})
		if err != nil {
			t.Fatalf("编辑标签失败: %v", err)
		}
		if upstream.lastPath != pathTagEdit {
			t.Errorf("请求路径错误: %s", upstream.lastPath)
		}
		if upstream.lastBody["id"] != float64(7) {
			t.Errorf("标签 ID 错误: %v", upstream.lastBody["id"])
		}
		if upstream.lastBody["color"] != "#FF0000" {
			t.Errorf("显式颜色被覆盖: %v", upstream.lastBody["color"])
		}
	})

	t.Run("Delete", func(t *testing.T) {
		upstream := &fakeUpstream{response: `{"code":1,"msg":"success"}`}
		client, _ := newTestClient(t, upstream)

		if err := client.DeleteTag(context.Background(), "tok", 7); err != nil {
			t.Fatalf("删除标签失败: %v", err)
		}
		if upstream.lastPath != pathTagDelete {
			t.Errorf("请求路径错误: %s", upstream.lastPath)
		}
	})
}

// TestFriend 测试好友申请与删除
func TestFriend(t *testing.T) {
	t.Run("Apply", func(t *testing.T) {
		upstream := &fakeUpstream{response: `{"code":1,"msg":"success"}`}
		client, _ := newTestClient(t, upstream)

		err := client.ApplyFriend(context.Background(), "tok", "u2", ChatTypeUser, "你好")
		if err != nil {
			t.Fatalf("好友申请失败: %v", err)
		}
		if upstream.lastPath != pathFriendApply {
			t.Errorf("请求路径错误: %s", upstream.lastPath)
		}
		if upstream.lastBody["remark"] != "你好" {
			t.Errorf("附言错误: %v", upstream.lastBody["remark"])
		}
	})

	t.Run("Delete", func(t *testing.T) {
		upstream := &fakeUpstream{response: `{"code":1,"msg":"success"}`}
		client, _ := newTestClient(t, upstream)

		if err := client.DeleteFriend(context.Background(), "tok", "u2"); err != nil {
			t.Fatalf("删除好友失败: %v", err)
		}
		if upstream.lastBody["chatId"] != "u2" {
			t.Errorf("chatId 错误: %v", upstream.lastBody["chatId"])
		}
	})
}

// TestHTTPError 测试非 2xx 响应转换为 APIError
func TestHTTPError(t *testing.T) {
	upstream := &fakeUpstream{statusCode: 502, response: "bad gateway"}
	client, _ := newTestClient(t, upstream)

	err := client.RemoveMember(context.Background(), "tok", "g1", "u1")
	apiErr, ok := IsAPIError(err)
	if !ok {
		t.Fatalf("期望 APIError, got %v", err)
	}
	if apiErr.HTTPStatus != 502 {
		t.Errorf("HTTP 状态码错误: %d", apiErr.HTTPStatus)
	}
}
