// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/kebiao/kebiao/internal/repository"
	"github.com/kebiao/kebiao/pkg/errors"
	"github.com/kebiao/kebiao/pkg/model"
)

// DataHandler 基础数据处理器（教师/课程/班级快照）
type DataHandler struct {
	repos *repository.Repositories
}

// NewDataHandler 创建基础数据处理器
func NewDataHandler(repos *repository.Repositories) *DataHandler {
	return &DataHandler{repos: repos}
}

// TeacherInput 教师输入
type TeacherInput struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name"`
	Department     string   `json:"department"`
	CourseTypes    []string `json:"course_types"`
	MaxCredits     int      `json:"max_credits"`
	PrimarySubject string   `json:"primary_subject,omitempty"`
	OtherSubjects  []string `json:"other_subjects,omitempty"`
}

// SubjectInput 课程输入
type SubjectInput struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	Department string `json:"department"`
	Credits    int    `json:"credits"`
	Type       string `json:"type"`
}

// ClassInput 班级输入
type ClassInput struct {
	ID         string   `json:"id,omitempty"`
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Department string   `json:"department"`
	Credits    int      `json:"credits,omitempty"`
	SubjectIDs []string `json:"subject_ids,omitempty"`
}

// parseID 解析可选的实体ID，空串生成新ID
func parseID(raw string) (uuid.UUID, *errors.AppError) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的ID格式: "+raw)
	}
	return id, nil
}

// Faculty 教师快照端点：POST 覆盖上传，GET 列表
func (h *DataHandler) Faculty(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.uploadFaculty(w, r)
	case http.MethodGet:
		userID, appErr := resolveUserID(r, "")
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		teachers, err := h.repos.Faculty.ListByUser(r.Context(), userID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询教师失败"))
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":   model.StatusSuccess,
			"count":    len(teachers),
			"teachers": teachers,
		})
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

func (h *DataHandler) uploadFaculty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string         `json:"user_id,omitempty"`
		Teachers []TeacherInput `json:"teachers"`
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
	if len(req.Teachers) == 0 {
		respondError(w, errors.New(errors.CodeInvalidInput, "教师列表不能为空"))
		return
	}

	teachers := make([]*model.Teacher, 0, len(req.Teachers))
	for _, in := range req.Teachers {
		id, appErr := parseID(in.ID)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		types := make([]model.SubjectType, 0, len(in.CourseTypes))
		for _, ct := range in.CourseTypes {
			types = append(types, model.ParseSubjectType(ct))
		}
		teachers = append(teachers, &model.Teacher{
			BaseModel:      model.BaseModel{ID: id},
			UserID:         userID,
			Name:           in.Name,
			Department:     in.Department,
			CourseTypes:    types,
			MaxCredits:     in.MaxCredits,
			PrimarySubject: in.PrimarySubject,
			OtherSubjects:  in.OtherSubjects,
		})
	}

	if err := h.repos.Faculty.Replace(r.Context(), userID, teachers); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存教师快照失败"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  model.StatusSuccess,
		"count":   len(teachers),
		"message": "教师数据已更新",
	})
}

// Subjects 课程快照端点：POST 覆盖上传，GET 列表
func (h *DataHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.uploadSubjects(w, r)
	case http.MethodGet:
		userID, appErr := resolveUserID(r, "")
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		subjects, err := h.repos.Subjects.ListByUser(r.Context(), userID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询课程失败"))
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":   model.StatusSuccess,
			"count":    len(subjects),
			"subjects": subjects,
		})
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

func (h *DataHandler) uploadSubjects(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string         `json:"user_id,omitempty"`
		Subjects []SubjectInput `json:"subjects"`
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
	if len(req.Subjects) == 0 {
		respondError(w, errors.New(errors.CodeInvalidInput, "课程列表不能为空"))
		return
	}

	subjects := make([]*model.Subject, 0, len(req.Subjects))
	for _, in := range req.Subjects {
		id, appErr := parseID(in.ID)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		subjects = append(subjects, &model.Subject{
			BaseModel:  model.BaseModel{ID: id},
			UserID:     userID,
			Name:       in.Name,
			Code:       in.Code,
			Department: in.Department,
			Credits:    in.Credits,
			Type:       model.ParseSubjectType(in.Type),
		})
	}

	if err := h.repos.Subjects.Replace(r.Context(), userID, subjects); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存课程快照失败"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  model.StatusSuccess,
		"count":   len(subjects),
		"message": "课程数据已更新",
	})
}

// Classes 班级快照端点：POST 覆盖上传，GET 列表
func (h *DataHandler) Classes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.uploadClasses(w, r)
	case http.MethodGet:
		userID, appErr := resolveUserID(r, "")
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		classes, err := h.repos.Classes.ListByUser(r.Context(), userID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询班级失败"))
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  model.StatusSuccess,
			"count":   len(classes),
			"classes": classes,
		})
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

func (h *DataHandler) uploadClasses(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string       `json:"user_id,omitempty"`
		Classes []ClassInput `json:"classes"`
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
	if len(req.Classes) == 0 {
		respondError(w, errors.New(errors.CodeInvalidInput, "班级列表不能为空"))
		return
	}

	classes := make([]*model.ClassGroup, 0, len(req.Classes))
	for _, in := range req.Classes {
		id, appErr := parseID(in.ID)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		var subjectIDs []uuid.UUID
		for _, raw := range in.SubjectIDs {
			sid, err := uuid.Parse(raw)
			if err != nil {
				respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的课程ID格式: "+raw))
				return
			}
			subjectIDs = append(subjectIDs, sid)
		}
		classes = append(classes, &model.ClassGroup{
			BaseModel:  model.BaseModel{ID: id},
			UserID:     userID,
			Code:       in.Code,
			Name:       in.Name,
			Department: in.Department,
			Credits:    in.Credits,
			SubjectIDs: subjectIDs,
		})
	}

	if err := h.repos.Classes.Replace(r.Context(), userID, classes); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存班级快照失败"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  model.StatusSuccess,
		"count":   len(classes),
		"message": "班级数据已更新",
	})
}

// Clear 清除某用户的全部数据
func (h *DataHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}
	var req struct {
		UserID string `json:"user_id,omitempty"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	userID, appErr := resolveUserID(r, req.UserID)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	if err := h.repos.ClearUser(r.Context(), userID); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "清除数据失败"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  model.StatusSuccess,
		"message": "用户数据已清除",
	})
}

// Sample 写入一套内置的示例数据，便于快速体验生成流程
func (h *DataHandler) Sample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}
	var req struct {
		UserID string `json:"user_id,omitempty"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	userID, appErr := resolveUserID(r, req.UserID)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	teachers, subjects, classes := sampleDataset(userID)
	if err := h.repos.Faculty.Replace(r.Context(), userID, teachers); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "写入示例教师失败"))
		return
	}
	if err := h.repos.Subjects.Replace(r.Context(), userID, subjects); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "写入示例课程失败"))
		return
	}
	if err := h.repos.Classes.Replace(r.Context(), userID, classes); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "写入示例班级失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   model.StatusSuccess,
		"message":  "示例数据已写入",
		"teachers": len(teachers),
		"subjects": len(subjects),
		"classes":  len(classes),
	})
}

// sampleDataset 构造计算机学院的示例数据集
func sampleDataset(userID uuid.UUID) ([]*model.Teacher, []*model.Subject, []*model.ClassGroup) {
	dept := "Computer Science"

	subjects := []*model.Subject{
		{BaseModel: model.NewBaseModel(), UserID: userID, Name: "数据结构", Code: "CS201", Department: dept, Credits: 4, Type: model.SubjectTheory},
		{BaseModel: model.NewBaseModel(), UserID: userID, Name: "操作系统", Code: "CS301", Department: dept, Credits: 3, Type: model.SubjectTheory},
		{BaseModel: model.NewBaseModel(), UserID: userID, Name: "数据库原理", Code: "CS302", Department: dept, Credits: 3, Type: model.SubjectTheory},
		{BaseModel: model.NewBaseModel(), UserID: userID, Name: "程序设计实验", Code: "CS211", Department: dept, Credits: 2, Type: model.SubjectLab},
	}

	teachers := []*model.Teacher{
		{
			BaseModel: model.NewBaseModel(), UserID: userID,
			Name: "王建国", Department: dept,
			CourseTypes:    []model.SubjectType{model.SubjectTheory},
			MaxCredits:     16,
			PrimarySubject: "数据结构",
			OtherSubjects:  []string{"操作系统"},
		},
		{
			BaseModel: model.NewBaseModel(), UserID: userID,
			Name: "李晓梅", Department: dept,
			CourseTypes:    []model.SubjectType{model.SubjectTheory, model.SubjectLab},
			MaxCredits:     14,
			PrimarySubject: "数据库原理",
		},
		{
			BaseModel: model.NewBaseModel(), UserID: userID,
			Name: "张伟", Department: dept,
			CourseTypes: []model.SubjectType{model.SubjectLab, model.SubjectPractical},
			MaxCredits:  12,
		},
	}

	classes := []*model.ClassGroup{
		{BaseModel: model.NewBaseModel(), UserID: userID, Code: "CS-2301", Name: "计算机2301班", Department: dept},
		{BaseModel: model.NewBaseModel(), UserID: userID, Code: "CS-2302", Name: "计算机2302班", Department: dept},
	}

	return teachers, subjects, classes
}

// Compatibility 调试端点：每位教师的可授课程与无人可授的课程
func (h *DataHandler) Compatibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	userID, appErr := resolveUserID(r, "")
	if appErr != nil {
		respondError(w, appErr)
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
	if len(teachers) == 0 && len(subjects) == 0 {
		respondNoData(w, "尚未上传教师或课程数据")
		return
	}

	type subjectMatch struct {
		Subject string                    `json:"subject"`
		Code    string                    `json:"code"`
		Reason  model.CompatibilityReason `json:"reason"`
	}
	type teacherMapping struct {
		Teacher    string         `json:"teacher"`
		Department string         `json:"department"`
		Subjects   []subjectMatch `json:"subjects"`
	}

	mappings := make([]teacherMapping, 0, len(teachers))
	covered := make(map[uuid.UUID]bool)
	for _, t := range teachers {
		m := teacherMapping{Teacher: t.Name, Department: t.Department, Subjects: []subjectMatch{}}
		for _, s := range subjects {
			if reason := t.Compatibility(s); reason != model.ReasonNone {
				m.Subjects = append(m.Subjects, subjectMatch{Subject: s.Name, Code: s.Code, Reason: reason})
				covered[s.ID] = true
			}
		}
		mappings = append(mappings, m)
	}

	orphaned := make([]string, 0)
	for _, s := range subjects {
		if !covered[s.ID] {
			orphaned = append(orphaned, s.Name)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            model.StatusSuccess,
		"mapping":           mappings,
		"orphaned_subjects": orphaned,
	})
}
