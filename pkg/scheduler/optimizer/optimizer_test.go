package optimizer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint/builtin"
)

func TestOptimize_NeverDegrades(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			schedCtx, tt := buildDegradedTimetable()
			m := constraint.NewManager()
			builtin.RegisterDefaultConstraints(m, schedCtx.Config)

			evalCtx := schedCtx.Fork()
			evalCtx.SetAssignments(cloneAssignments(tt.Assignments))
			before := m.Evaluate(evalCtx)

			o := NewLocalSearchOptimizer(nil, m, seed)
			optimized, report, err := o.Optimize(context.Background(), schedCtx, tt)
			if err != nil {
				t.Fatalf("Optimize() error = %v", err)
			}

			evalCtx = schedCtx.Fork()
			evalCtx.SetAssignments(optimized.Assignments)
			after := m.Evaluate(evalCtx)

			if len(after.HardViolations) > len(before.HardViolations) {
				t.Errorf("硬冲突不应增加：before=%d after=%d",
					len(before.HardViolations), len(after.HardViolations))
			}
			if after.Score < before.Score && len(after.HardViolations) >= len(before.HardViolations) {
				t.Errorf("得分不应降低：before=%.2f after=%.2f", before.Score, after.Score)
			}
			if report.FinalScore < report.InitialScore && report.FinalHard >= report.InitialHard {
				t.Errorf("报告得分不应降低：initial=%.2f final=%.2f",
					report.InitialScore, report.FinalScore)
			}
		})
	}
}

func TestOptimize_ReturnsNewTimetable(t *testing.T) {
	schedCtx, tt := buildDegradedTimetable()
	m := constraint.NewManager()
	builtin.RegisterDefaultConstraints(m, schedCtx.Config)

	originalSlots := make([]int, len(tt.Assignments))
	for i, a := range tt.Assignments {
		originalSlots[i] = a.Slot.Index
	}

	o := NewLocalSearchOptimizer(nil, m, 42)
	optimized, _, err := o.Optimize(context.Background(), schedCtx, tt)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if optimized.ID == tt.ID {
		t.Error("优化应产生新的课表ID")
	}
	// 输入课表保持不变
	for i, a := range tt.Assignments {
		if a.Slot.Index != originalSlots[i] {
			t.Error("优化不应修改输入课表")
			break
		}
	}
}

func TestOptimize_RespectsTimeLimit(t *testing.T) {
	schedCtx, tt := buildDegradedTimetable()
	m := constraint.NewManager()
	builtin.RegisterDefaultConstraints(m, schedCtx.Config)

	cfg := DefaultConfig()
	cfg.MaxTime = time.Millisecond
	cfg.MaxIterations = 1 << 30

	o := NewLocalSearchOptimizer(cfg, m, 1)
	start := time.Now()
	_, _, err := o.Optimize(context.Background(), schedCtx, tt)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("优化未遵守时间上限")
	}
}

func TestTabuList(t *testing.T) {
	tl := NewTabuList(2)
	tl.Add(1)
	tl.Add(2)
	if !tl.Contains(1) || !tl.Contains(2) {
		t.Error("禁忌表应包含已添加的键")
	}
	tl.Add(3)
	if tl.Contains(1) {
		t.Error("超出容量时应淘汰最旧的键")
	}
	tl.Clear()
	if tl.Contains(2) || tl.Contains(3) {
		t.Error("清空后不应包含任何键")
	}
}

// buildDegradedTimetable 构造一张故意排得很差的课表：
// 两门实验课连排、课时全部堆在周一
func buildDegradedTimetable() (*constraint.Context, *model.Timetable) {
	userID := uuid.New()

	teacher := &model.Teacher{
		BaseModel:   model.BaseModel{ID: uuid.New()},
		UserID:      userID,
		Name:        "李老师",
		Department:  "Physics",
		CourseTypes: []model.SubjectType{model.SubjectTheory, model.SubjectLab},
		MaxCredits:  20,
	}
	subjTheory := &model.Subject{
		BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
		Name: "物理", Code: "PH101", Department: "Physics",
		Credits: 2, Type: model.SubjectTheory,
	}
	subjLab := &model.Subject{
		BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
		Name: "物理实验", Code: "PH102", Department: "Physics",
		Credits: 1, Type: model.SubjectLab,
	}
	class := &model.ClassGroup{
		BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
		Code: "PH-1", Name: "物理一班", Department: "Physics",
	}

	slots, err := model.BuildGrid(model.DefaultGridConfig())
	if err != nil {
		panic(err)
	}

	cfg := model.DefaultGenerationConfig()
	cfg.PreventBackToBackLabs = true
	cfg.BalanceDailyLoad = true

	ctx := constraint.NewContext(userID)
	ctx.Config = cfg
	ctx.SetSubjects([]*model.Subject{subjTheory, subjLab})
	ctx.SetClasses([]*model.ClassGroup{class})
	ctx.SetTeachers([]*model.Teacher{teacher})
	ctx.SetSlots(slots)
	ctx.Demands = []model.SubjectDemand{
		{ClassID: class.ID, SubjectID: subjTheory.ID, Periods: 2},
		{ClassID: class.ID, SubjectID: subjLab.ID, Periods: 2},
	}

	// 全部堆在周一：第1、2节实验连排，第3、4节理论
	assignments := []*model.Assignment{
		model.NewAssignment(class.ID, subjLab.ID, teacher.ID, slots[0]),
		model.NewAssignment(class.ID, subjLab.ID, teacher.ID, slots[1]),
		model.NewAssignment(class.ID, subjTheory.ID, teacher.ID, slots[2]),
		model.NewAssignment(class.ID, subjTheory.ID, teacher.ID, slots[3]),
	}
	tt := model.NewTimetable(userID, model.MethodSmart, assignments)
	return ctx, tt
}
