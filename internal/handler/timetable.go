// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kebiao/kebiao/internal/config"
	"github.com/kebiao/kebiao/internal/metrics"
	"github.com/kebiao/kebiao/internal/repository"
	"github.com/kebiao/kebiao/pkg/errors"
	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler"
	"github.com/kebiao/kebiao/pkg/scheduler/solver"
)

// TimetableHandler 课表生成处理器
type TimetableHandler struct {
	repos     *repository.Repositories
	generator *scheduler.Generator
	batch     *scheduler.BatchGenerator
	cfg       config.GeneratorConfig
}

// NewTimetableHandler 创建课表生成处理器
func NewTimetableHandler(repos *repository.Repositories, cfg config.GeneratorConfig) *TimetableHandler {
	return &TimetableHandler{
		repos:     repos,
		generator: scheduler.NewGenerator(),
		batch:     scheduler.NewBatchGenerator(),
		cfg:       cfg,
	}
}

// GenerateRequest 课表生成请求
// 教师/课程/班级可内联提供；缺省时使用已上传的快照数据
type GenerateRequest struct {
	UserID   string                  `json:"user_id,omitempty"`
	Strategy string                  `json:"strategy,omitempty"` // smart / legacy
	Seed     int64                   `json:"seed,omitempty"`
	Config   *model.GenerationConfig `json:"config,omitempty"`
	Teachers []TeacherInput          `json:"teachers,omitempty"`
	Subjects []SubjectInput          `json:"subjects,omitempty"`
	Classes  []ClassInput            `json:"classes,omitempty"`
}

// buildInput 组装生成输入：内联数据优先，否则读取快照
func (h *TimetableHandler) buildInput(ctx context.Context, userID uuid.UUID, req *GenerateRequest) (scheduler.Input, *errors.AppError) {
	in := scheduler.Input{UserID: userID, Config: model.DefaultGenerationConfig()}
	if req != nil && req.Config != nil {
		in.Config = *req.Config
	}

	inline := req != nil && (len(req.Teachers) > 0 || len(req.Subjects) > 0 || len(req.Classes) > 0)
	if inline {
		teachers, subjects, classes, appErr := convertInline(userID, req)
		if appErr != nil {
			return in, appErr
		}
		in.Teachers, in.Subjects, in.Classes = teachers, subjects, classes
		return in, nil
	}

	var err error
	if in.Teachers, err = h.repos.Faculty.ListByUser(ctx, userID); err != nil {
		return in, errors.Wrap(err, errors.CodeDatabaseError, "查询教师失败")
	}
	if in.Subjects, err = h.repos.Subjects.ListByUser(ctx, userID); err != nil {
		return in, errors.Wrap(err, errors.CodeDatabaseError, "查询课程失败")
	}
	if in.Classes, err = h.repos.Classes.ListByUser(ctx, userID); err != nil {
		return in, errors.Wrap(err, errors.CodeDatabaseError, "查询班级失败")
	}
	return in, nil
}

// convertInline 转换内联的基础数据
func convertInline(userID uuid.UUID, req *GenerateRequest) ([]*model.Teacher, []*model.Subject, []*model.ClassGroup, *errors.AppError) {
	teachers := make([]*model.Teacher, 0, len(req.Teachers))
	for _, in := range req.Teachers {
		id, appErr := parseID(in.ID)
		if appErr != nil {
			return nil, nil, nil, appErr
		}
		types := make([]model.SubjectType, 0, len(in.CourseTypes))
		for _, ct := range in.CourseTypes {
			types = append(types, model.ParseSubjectType(ct))
		}
		teachers = append(teachers, &model.Teacher{
			BaseModel: model.BaseModel{ID: id}, UserID: userID,
			Name: in.Name, Department: in.Department,
			CourseTypes: types, MaxCredits: in.MaxCredits,
			PrimarySubject: in.PrimarySubject, OtherSubjects: in.OtherSubjects,
		})
	}

	subjects := make([]*model.Subject, 0, len(req.Subjects))
	for _, in := range req.Subjects {
		id, appErr := parseID(in.ID)
		if appErr != nil {
			return nil, nil, nil, appErr
		}
		subjects = append(subjects, &model.Subject{
			BaseModel: model.BaseModel{ID: id}, UserID: userID,
			Name: in.Name, Code: in.Code, Department: in.Department,
			Credits: in.Credits, Type: model.ParseSubjectType(in.Type),
		})
	}

	classes := make([]*model.ClassGroup, 0, len(req.Classes))
	for _, in := range req.Classes {
		id, appErr := parseID(in.ID)
		if appErr != nil {
			return nil, nil, nil, appErr
		}
		var subjectIDs []uuid.UUID
		for _, raw := range in.SubjectIDs {
			sid, err := uuid.Parse(raw)
			if err != nil {
				return nil, nil, nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的课程ID格式: "+raw)
			}
			subjectIDs = append(subjectIDs, sid)
		}
		classes = append(classes, &model.ClassGroup{
			BaseModel: model.BaseModel{ID: id}, UserID: userID,
			Code: in.Code, Name: in.Name, Department: in.Department,
			Credits: in.Credits, SubjectIDs: subjectIDs,
		})
	}
	return teachers, subjects, classes, nil
}

// Generate 生成课表
func (h *TimetableHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	userID, appErr := resolveUserID(r, req.UserID)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	in, appErr := h.buildInput(r.Context(), userID, &req)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	if len(in.Teachers) == 0 && len(in.Subjects) == 0 && len(in.Classes) == 0 {
		respondNoData(w, "尚未上传基础数据，请先上传教师、课程和班级")
		return
	}

	strategy := solver.ParseStrategy(req.Strategy)
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.DefaultTimeout)
	defer cancel()

	start := time.Now()
	out, err := h.generator.Generate(ctx, in, strategy, seed)
	metrics.RecordGeneration(string(out.Method), err == nil, time.Since(start))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			respondError(w, errors.New(errors.CodeTimeout, "课表计算超时，请减少班级或课程数量"))
			return
		}
		respondGenerateError(w, err)
		return
	}

	metrics.SetTimetableScore(userID.String(), out.Score)
	metrics.SetConflictCount(userID.String(), len(out.Conflicts.Conflicts))
	if out.Statistics != nil {
		metrics.SetFillRate(userID.String(), out.Statistics.FillRate)
	}

	if err := h.persist(ctx, userID, out); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存课表失败"))
		return
	}

	respondJSON(w, http.StatusOK, out)
}

// Batch 批量生成课表变体，按得分降序返回
func (h *TimetableHandler) Batch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req struct {
		GenerateRequest
		Variations int `json:"variations,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	userID, appErr := resolveUserID(r, req.UserID)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	in, appErr := h.buildInput(r.Context(), userID, &req.GenerateRequest)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	if len(in.Teachers) == 0 && len(in.Subjects) == 0 && len(in.Classes) == 0 {
		respondNoData(w, "尚未上传基础数据，请先上传教师、课程和班级")
		return
	}

	count := req.Variations
	if count == 0 {
		count = in.Config.Variations
	}
	if count > h.cfg.MaxVariations {
		count = h.cfg.MaxVariations
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.DefaultTimeout)
	defer cancel()

	start := time.Now()
	variations, err := h.batch.Generate(ctx, in, count, seed)
	metrics.RecordGeneration(string(model.MethodSmart), err == nil, time.Since(start))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			respondError(w, errors.New(errors.CodeTimeout, "课表计算超时，请减少变体数量"))
			return
		}
		respondGenerateError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     model.StatusSuccess,
		"count":      len(variations),
		"variations": variations,
	})
}

// Optimize 在已保存的课表上做局部搜索优化
func (h *TimetableHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req struct {
		UserID string                  `json:"user_id,omitempty"`
		Seed   int64                   `json:"seed,omitempty"`
		Config *model.GenerationConfig `json:"config,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	userID, appErr := resolveUserID(r, req.UserID)
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
		respondNoData(w, "尚未生成课表，无法优化")
		return
	}

	in, appErr := h.buildInput(r.Context(), userID, &GenerateRequest{Config: req.Config})
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.OptimizeTime+h.cfg.DefaultTimeout)
	defer cancel()

	out, report, err := h.generator.Reoptimize(ctx, in, rec.Raw, seed)
	if err != nil {
		respondGenerateError(w, err)
		return
	}

	metrics.SetTimetableScore(userID.String(), out.Score)
	if err := h.persist(ctx, userID, out); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存课表失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    out.Status,
		"state":     out.State,
		"message":   out.Message,
		"score":     out.Score,
		"report":    report,
		"timetable": out.Result,
		"conflicts": out.Conflicts,
	})
}

// Get 获取当前保存的课表
func (h *TimetableHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	if rec == nil {
		respondNoData(w, "尚未生成课表")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            model.StatusSuccess,
		"generation_method": rec.Method,
		"score":             rec.Score,
		"timetable":         rec.Result,
		"warnings":          rec.Warnings,
		"created_at":        rec.CreatedAt,
	})
}

// persist 保存生成输出
func (h *TimetableHandler) persist(ctx context.Context, userID uuid.UUID, out *scheduler.Output) error {
	return h.repos.Timetable.Save(ctx, &repository.TimetableRecord{
		UserID:    userID,
		Method:    out.Method,
		Score:     out.Score,
		Result:    out.Result,
		Raw:       out.Timetable,
		Analytics: out.Analytics,
		Conflicts: out.Conflicts,
		Warnings:  out.Warnings,
	})
}

// respondGenerateError 把引擎错误映射为HTTP响应
func respondGenerateError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if e, ok := err.(*errors.AppError); ok {
		appErr = e
	} else {
		appErr = errors.Wrap(err, errors.CodeInternal, "课表生成失败")
	}
	respondError(w, appErr)
}
