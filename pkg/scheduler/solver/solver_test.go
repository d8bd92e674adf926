package solver

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/errors"
	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint/builtin"
)

func TestSmartSolver_SingleSubject(t *testing.T) {
	// 一个班级、一门4学分理论课、一位可授教师
	env := newTestEnv(t, 1, []subjectSpec{{name: "数据结构", code: "CS301", credits: 4, typ: model.SubjectTheory}}, 1)

	s := NewSmartSolver(env.manager, 42)
	result, err := s.Solve(context.Background(), env.ctx)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if !result.Success {
		t.Fatalf("Solve() 应成功，message = %s", result.Message)
	}
	if len(result.Assignments) != 4 {
		t.Errorf("应安排 4 节课时，got %d", len(result.Assignments))
	}

	// 4节课时占用4个不同时段
	slots := make(map[int]bool)
	for _, a := range result.Assignments {
		if slots[a.Slot.Index] {
			t.Errorf("时段 %s 被重复占用", a.Slot.String())
		}
		slots[a.Slot.Index] = true
	}

	// 教师负荷 4/20
	teacherID := env.teachers[0].ID
	if load := env.ctx.TeacherLoad(teacherID); load != 4 {
		t.Errorf("教师负荷 = %d, want 4", load)
	}
}

func TestSmartSolver_Deterministic(t *testing.T) {
	run := func(seed int64) []string {
		env := newTestEnv(t, 2, []subjectSpec{
			{name: "数据结构", code: "CS301", credits: 3, typ: model.SubjectTheory},
			{name: "操作系统", code: "CS302", credits: 3, typ: model.SubjectTheory},
		}, 2)
		s := NewSmartSolver(env.manager, seed)
		result, err := s.Solve(context.Background(), env.ctx)
		if err != nil {
			t.Fatalf("Solve() error = %v", err)
		}
		var keys []string
		for _, a := range result.Assignments {
			subj := env.ctx.GetSubject(a.SubjectID)
			cls := env.ctx.GetClass(a.ClassID)
			tch := env.ctx.GetTeacher(a.TeacherID)
			keys = append(keys, fmt.Sprintf("%s|%s|%s|%d", cls.Code, subj.Code, tch.Name, a.Slot.Index))
		}
		return keys
	}

	first := run(7)
	second := run(7)
	if len(first) != len(second) {
		t.Fatalf("同一种子应产生相同数量的分配：%d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("同一种子第 %d 项分配不一致：%s vs %s", i, first[i], second[i])
		}
	}
}

func TestSmartSolver_EmptyDemands(t *testing.T) {
	env := newTestEnv(t, 1, []subjectSpec{{name: "数据结构", code: "CS301", credits: 3, typ: model.SubjectTheory}}, 1)
	env.ctx.Demands = nil

	s := NewSmartSolver(env.manager, 1)
	_, err := s.Solve(context.Background(), env.ctx)
	if err == nil {
		t.Fatal("没有课时需求应返回错误")
	}
	if !errors.Is(err, errors.CodeInvalidInput) {
		t.Errorf("错误码 = %s, want %s", errors.GetCode(err), errors.CodeInvalidInput)
	}
}

func TestSmartSolver_OverSubscribedTeacher(t *testing.T) {
	// 唯一教师的周学分上限远小于总课时需求，应尽力而为并报告缺口
	env := newTestEnv(t, 3, []subjectSpec{
		{name: "数据结构", code: "CS301", credits: 4, typ: model.SubjectTheory},
		{name: "操作系统", code: "CS302", credits: 4, typ: model.SubjectTheory},
	}, 1)
	env.teachers[0].MaxCredits = 6

	s := NewSmartSolver(env.manager, 3)
	result, err := s.Solve(context.Background(), env.ctx)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if result.Success {
		t.Error("超订场景不应完全成功")
	}
	if len(result.Unplaced) == 0 {
		t.Error("应报告未安排的课时需求")
	}
	if len(result.Assignments) == 0 {
		t.Error("应保留已安排的部分结果")
	}
	if len(result.Assignments) > 6 {
		t.Errorf("分配数 %d 超过教师上限 6", len(result.Assignments))
	}
	// 缺口总数 = 总需求 - 已安排
	missing := 0
	for _, up := range result.Unplaced {
		missing += up.Missing
	}
	if missing != result.Statistics.TotalPeriods-len(result.Assignments) {
		t.Errorf("缺口统计不一致：missing=%d total=%d placed=%d",
			missing, result.Statistics.TotalPeriods, len(result.Assignments))
	}
}

func TestSmartSolver_BudgetExhausted(t *testing.T) {
	env := newTestEnv(t, 2, []subjectSpec{
		{name: "数据结构", code: "CS301", credits: 4, typ: model.SubjectTheory},
		{name: "操作系统", code: "CS302", credits: 4, typ: model.SubjectTheory},
	}, 2)

	s := NewSmartSolver(env.manager, 5)
	s.SetMaxIterations(3)
	result, err := s.Solve(context.Background(), env.ctx)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if !result.BudgetExhausted {
		t.Error("极小预算应触发预算耗尽")
	}
	if result.Success {
		t.Error("预算耗尽不应报告完全成功")
	}
}

func TestSmartSolver_ContextCancelled(t *testing.T) {
	env := newTestEnv(t, 2, []subjectSpec{
		{name: "数据结构", code: "CS301", credits: 4, typ: model.SubjectTheory},
	}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSmartSolver(env.manager, 1)
	if _, err := s.Solve(ctx, env.ctx); err == nil {
		t.Error("已取消的上下文应返回错误")
	}
}

func TestLegacySolver_FirstFit(t *testing.T) {
	env := newTestEnv(t, 1, []subjectSpec{
		{name: "数据结构", code: "CS301", credits: 3, typ: model.SubjectTheory},
	}, 1)

	s := NewLegacySolver(env.manager)
	result, err := s.Solve(context.Background(), env.ctx)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Solve() 应成功，message = %s", result.Message)
	}
	if len(result.Assignments) != 3 {
		t.Errorf("应安排 3 节课时，got %d", len(result.Assignments))
	}

	// 首次适配应占用最前面的时段
	for i, a := range result.Assignments {
		if a.Slot.Index != i {
			t.Errorf("第 %d 节应占用时段 %d，got %d", i, i, a.Slot.Index)
		}
	}
}

func TestLegacySolver_Deterministic(t *testing.T) {
	run := func() []int {
		env := newTestEnv(t, 2, []subjectSpec{
			{name: "数据结构", code: "CS301", credits: 3, typ: model.SubjectTheory},
			{name: "操作系统", code: "CS302", credits: 2, typ: model.SubjectTheory},
		}, 2)
		s := NewLegacySolver(env.manager)
		result, err := s.Solve(context.Background(), env.ctx)
		if err != nil {
			t.Fatalf("Solve() error = %v", err)
		}
		var idx []int
		for _, a := range result.Assignments {
			idx = append(idx, a.Slot.Index)
		}
		return idx
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("旧版求解器应完全确定：%d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("第 %d 项时段不一致：%d vs %d", i, first[i], second[i])
		}
	}
}

func TestParseStrategy(t *testing.T) {
	if ParseStrategy("legacy") != StrategyLegacy {
		t.Error(`ParseStrategy("legacy") 应返回 StrategyLegacy`)
	}
	if ParseStrategy("smart") != StrategySmart {
		t.Error(`ParseStrategy("smart") 应返回 StrategySmart`)
	}
	if ParseStrategy("unknown") != StrategySmart {
		t.Error("未知策略应回退为 StrategySmart")
	}
}

// 测试环境

type subjectSpec struct {
	name    string
	code    string
	credits int
	typ     model.SubjectType
}

type testEnv struct {
	ctx      *constraint.Context
	manager  *constraint.Manager
	teachers []*model.Teacher
}

// newTestEnv 构造 classes 个班级、specs 门课程、teacherCount 位教师的测试环境
// 所有教师同院系、可授全部课型，每班需要全部课程
func newTestEnv(t *testing.T, classes int, specs []subjectSpec, teacherCount int) *testEnv {
	t.Helper()
	userID := uuid.New()

	var subjects []*model.Subject
	for _, spec := range specs {
		subjects = append(subjects, &model.Subject{
			BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
			Name: spec.name, Code: spec.code, Department: "Computer Science",
			Credits: spec.credits, Type: spec.typ,
		})
	}

	var teachers []*model.Teacher
	for i := 0; i < teacherCount; i++ {
		teachers = append(teachers, &model.Teacher{
			BaseModel:   model.BaseModel{ID: uuid.New()},
			UserID:      userID,
			Name:        fmt.Sprintf("教师%d", i+1),
			Department:  "Computer Science",
			CourseTypes: []model.SubjectType{model.SubjectTheory, model.SubjectLab, model.SubjectPractical},
			MaxCredits:  20,
		})
	}

	var classGroups []*model.ClassGroup
	var demands []model.SubjectDemand
	for i := 0; i < classes; i++ {
		cg := &model.ClassGroup{
			BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
			Code: fmt.Sprintf("CS-%d", i+1), Name: fmt.Sprintf("计算机%d班", i+1),
			Department: "Computer Science",
		}
		classGroups = append(classGroups, cg)
		for _, subj := range subjects {
			demands = append(demands, model.SubjectDemand{
				ClassID: cg.ID, SubjectID: subj.ID, Periods: subj.RequiredPeriods(),
			})
		}
	}

	slots, err := model.BuildGrid(model.DefaultGridConfig())
	if err != nil {
		t.Fatalf("BuildGrid() error = %v", err)
	}

	ctx := constraint.NewContext(userID)
	ctx.Config = model.DefaultGenerationConfig()
	ctx.SetSubjects(subjects)
	ctx.SetClasses(classGroups)
	ctx.SetTeachers(teachers)
	ctx.SetSlots(slots)
	ctx.Demands = demands

	m := constraint.NewManager()
	builtin.RegisterDefaultConstraints(m, ctx.Config)

	return &testEnv{ctx: ctx, manager: m, teachers: teachers}
}
