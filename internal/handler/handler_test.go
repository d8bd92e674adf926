package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/internal/middleware"
	"github.com/kebiao/kebiao/pkg/errors"
	"github.com/kebiao/kebiao/pkg/model"
)

func TestResolveUserID(t *testing.T) {
	ctxUser := uuid.New()
	queryUser := uuid.New()
	bodyUser := uuid.New()

	t.Run("认证上下文优先", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/timetable?user_id="+queryUser.String(), nil)
		r = r.WithContext(middleware.WithUserID(r.Context(), ctxUser))

		got, appErr := resolveUserID(r, bodyUser.String())
		if appErr != nil {
			t.Fatalf("resolveUserID() error = %v", appErr)
		}
		if got != ctxUser {
			t.Errorf("应使用认证上下文中的用户，got %s", got)
		}
	})

	t.Run("查询参数次之", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/timetable?user_id="+queryUser.String(), nil)
		got, appErr := resolveUserID(r, bodyUser.String())
		if appErr != nil {
			t.Fatalf("resolveUserID() error = %v", appErr)
		}
		if got != queryUser {
			t.Errorf("应使用查询参数中的用户，got %s", got)
		}
	})

	t.Run("回退请求体", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/v1/timetable/generate", nil)
		got, appErr := resolveUserID(r, bodyUser.String())
		if appErr != nil {
			t.Fatalf("resolveUserID() error = %v", appErr)
		}
		if got != bodyUser {
			t.Errorf("应使用请求体中的用户，got %s", got)
		}
	})

	t.Run("全部缺失报错", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/timetable", nil)
		_, appErr := resolveUserID(r, "")
		if appErr == nil || appErr.Code != errors.CodeInvalidInput {
			t.Errorf("缺少用户标识应返回 INVALID_INPUT，got %v", appErr)
		}
	})

	t.Run("非法格式报错", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/timetable?user_id=not-a-uuid", nil)
		_, appErr := resolveUserID(r, "")
		if appErr == nil || appErr.Code != errors.CodeInvalidInput {
			t.Errorf("非法UUID应返回 INVALID_INPUT，got %v", appErr)
		}
	})
}

func TestParseID(t *testing.T) {
	id, appErr := parseID("")
	if appErr != nil {
		t.Fatalf("空ID应生成新ID，error = %v", appErr)
	}
	if id == uuid.Nil {
		t.Error("空ID应生成非零ID")
	}

	want := uuid.New()
	got, appErr := parseID(want.String())
	if appErr != nil || got != want {
		t.Errorf("parseID(%s) = %s, %v", want, got, appErr)
	}

	if _, appErr := parseID("bogus"); appErr == nil {
		t.Error("非法ID应报错")
	}
}

func TestConvertInline(t *testing.T) {
	userID := uuid.New()
	req := &GenerateRequest{
		Teachers: []TeacherInput{{
			Name: "王老师", Department: "Math",
			CourseTypes: []string{"Theory", "Lab"}, MaxCredits: 12,
		}},
		Subjects: []SubjectInput{{
			Name: "数学", Code: "MA101", Department: "Math", Credits: 3, Type: "Theory",
		}},
		Classes: []ClassInput{{Code: "MA-1", Name: "数学1班", Department: "Math"}},
	}

	teachers, subjects, classes, appErr := convertInline(userID, req)
	if appErr != nil {
		t.Fatalf("convertInline() error = %v", appErr)
	}
	if len(teachers) != 1 || len(subjects) != 1 || len(classes) != 1 {
		t.Fatal("转换数量不符")
	}
	if teachers[0].UserID != userID || subjects[0].UserID != userID || classes[0].UserID != userID {
		t.Error("所有实体应归属同一用户")
	}
	if len(teachers[0].CourseTypes) != 2 || teachers[0].CourseTypes[1] != model.SubjectLab {
		t.Errorf("课型转换错误: %v", teachers[0].CourseTypes)
	}
	if subjects[0].Type != model.SubjectTheory {
		t.Errorf("课程类型转换错误: %s", subjects[0].Type)
	}

	// 非法课程ID
	req.Classes[0].SubjectIDs = []string{"bogus"}
	if _, _, _, appErr := convertInline(userID, req); appErr == nil {
		t.Error("非法课程ID应报错")
	}
}

func TestSampleDataset(t *testing.T) {
	userID := uuid.New()
	teachers, subjects, classes := sampleDataset(userID)

	if len(teachers) == 0 || len(subjects) == 0 || len(classes) == 0 {
		t.Fatal("示例数据不能为空")
	}

	// 每门课程至少有一位可授教师，保证示例数据可直接生成课表
	for _, s := range subjects {
		found := false
		for _, tc := range teachers {
			if tc.CanTeach(s) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("示例课程 %s 没有可授教师", s.Name)
		}
	}

	// 示例数据总需求不超过教师总容量
	totalDemand := 0
	for _, s := range subjects {
		totalDemand += s.RequiredPeriods() * len(classes)
	}
	totalCapacity := 0
	for _, tc := range teachers {
		totalCapacity += tc.MaxCredits
	}
	if totalDemand > totalCapacity {
		t.Errorf("示例数据需求 %d 超过教师总容量 %d", totalDemand, totalCapacity)
	}
}
