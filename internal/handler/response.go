// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/kebiao/kebiao/internal/middleware"
	"github.com/kebiao/kebiao/pkg/errors"
	"github.com/kebiao/kebiao/pkg/model"
)

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应，status 判别值固定为 error
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  model.StatusError,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}

// respondNoData 返回无数据响应
func respondNoData(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  model.StatusNoData,
		"message": message,
	})
}

// resolveUserID 解析请求归属的用户
// 优先级：认证上下文 > 路径参数 {user} > 查询参数 user_id > 请求体
func resolveUserID(r *http.Request, bodyUserID string) (uuid.UUID, *errors.AppError) {
	if id, ok := middleware.UserIDFromContext(r.Context()); ok {
		return id, nil
	}
	candidate := r.PathValue("user")
	if candidate == "" {
		candidate = r.URL.Query().Get("user_id")
	}
	if candidate == "" {
		candidate = bodyUserID
	}
	if candidate == "" {
		return uuid.Nil, errors.New(errors.CodeInvalidInput, "缺少用户标识")
	}
	id, err := uuid.Parse(candidate)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的用户ID格式")
	}
	return id, nil
}
