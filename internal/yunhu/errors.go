package yunhu

import "fmt"

// CodeOK 上游业务成功码
const CodeOK = 1

// APIError 上游接口返回的业务错误
// Code 为业务码（非 1），HTTPStatus 为 HTTP 状态码
type APIError struct {
	Code       int
	Msg        string
	HTTPStatus int
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("云湖接口错误: %s(%d)", e.Msg, e.Code)
	}
	return fmt.Sprintf("云湖接口错误: HTTP %d: %s", e.HTTPStatus, e.Msg)
}

// IsAPIError 判断并提取上游业务错误
func IsAPIError(err error) (*APIError, bool) {
	apiErr, ok := err.(*APIError)
	return apiErr, ok
}
