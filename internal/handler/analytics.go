// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/kebiao/kebiao/internal/repository"
	"github.com/kebiao/kebiao/pkg/errors"
	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/stats"
	"github.com/kebiao/kebiao/pkg/validator"
)

// AnalyticsHandler 课表分析处理器
type AnalyticsHandler struct {
	repos     *repository.Repositories
	validator *validator.Validator
}

// NewAnalyticsHandler 创建课表分析处理器
func NewAnalyticsHandler(repos *repository.Repositories) *AnalyticsHandler {
	return &AnalyticsHandler{
		repos:     repos,
		validator: validator.New(),
	}
}

// Analytics 返回保存课表的分析结果
func (h *AnalyticsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	userID, appErr := resolveUserID(r, "")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	rec, err := h.repos.Timetable.GetByUser(r.Context(), userID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询课表失败"))
		return
	}
	if rec == nil || rec.Analytics == nil {
		respondNoData(w, "尚未生成课表，没有可分析的数据")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    model.StatusSuccess,
		"analytics": rec.Analytics,
	})
}

// Conflicts 对保存的课表做实时冲突检查
// 基础数据可能在生成之后被重新上传，因此冲突总是现算而非读存档
func (h *AnalyticsHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	userID, appErr := resolveUserID(r, "")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	rec, err := h.repos.Timetable.GetByUser(r.Context(), userID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询课表失败"))
		return
	}
	if rec == nil || rec.Raw == nil {
		respondNoData(w, "尚未生成课表")
		return
	}

	teachers, err := h.repos.Faculty.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询教师失败"))
		return
	}
	subjects, err := h.repos.Subjects.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询课程失败"))
		return
	}
	classes, err := h.repos.Classes.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询班级失败"))
		return
	}

	conflicts := h.validator.Validate(teachers, subjects, classes, rec.Raw.Assignments)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        model.StatusSuccess,
		"conflicts":     conflicts.Conflicts,
		"has_conflicts": conflicts.HasConflicts,
	})
}

// Workload 返回保存课表下的教师工作量报告
func (h *AnalyticsHandler) Workload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	userID, appErr := resolveUserID(r, "")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	rec, err := h.repos.Timetable.GetByUser(r.Context(), userID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询课表失败"))
		return
	}
	if rec == nil || rec.Raw == nil {
		respondNoData(w, "尚未生成课表")
		return
	}

	teachers, err := h.repos.Faculty.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询教师失败"))
		return
	}

	report := stats.NewWorkloadAnalyzer().Report(teachers, rec.Raw.Assignments)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":           model.StatusSuccess,
		"teacher_workload": report,
	})
}
