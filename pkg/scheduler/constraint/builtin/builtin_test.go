package builtin

import (
	"testing"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
)

func TestTeacherConflictConstraint(t *testing.T) {
	ctx, fix := createTestContext()
	c := NewTeacherConflictConstraint()

	// 空课表应通过
	valid, penalty, _ := c.Evaluate(ctx)
	if !valid || penalty != 0 {
		t.Errorf("空课表应通过，got valid=%v penalty=%d", valid, penalty)
	}

	// 同一教师两个班级同一时段
	ctx.SetAssignments([]*model.Assignment{
		model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[0]),
		model.NewAssignment(fix.classB.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[0]),
	})
	valid, penalty, violations := c.Evaluate(ctx)
	if valid {
		t.Error("教师时段冲突应判定无效")
	}
	if penalty != c.Weight() {
		t.Errorf("penalty = %d, want %d", penalty, c.Weight())
	}
	if len(violations) != 1 {
		t.Errorf("应有 1 条违反详情，got %d", len(violations))
	}

	// 增量检查：已占用时段不可再分配
	pending := model.NewAssignment(fix.classB.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[0])
	if ok, _ := c.EvaluateAssignment(ctx, pending); ok {
		t.Error("已占用时段的待定分配应被拒绝")
	}
	pending2 := model.NewAssignment(fix.classB.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[1])
	if ok, _ := c.EvaluateAssignment(ctx, pending2); !ok {
		t.Error("空闲时段的待定分配应通过")
	}
}

func TestClassConflictConstraint(t *testing.T) {
	ctx, fix := createTestContext()
	c := NewClassConflictConstraint()

	ctx.SetAssignments([]*model.Assignment{
		model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[0]),
		model.NewAssignment(fix.classA.ID, fix.subjPhysics.ID, fix.teacherPhysics.ID, fix.slots[0]),
	})

	valid, _, violations := c.Evaluate(ctx)
	if valid {
		t.Error("班级时段冲突应判定无效")
	}
	if len(violations) != 1 {
		t.Errorf("应有 1 条违反详情，got %d", len(violations))
	}

	pending := model.NewAssignment(fix.classA.ID, fix.subjPhysics.ID, fix.teacherPhysics.ID, fix.slots[0])
	if ok, _ := c.EvaluateAssignment(ctx, pending); ok {
		t.Error("班级已占用时段的待定分配应被拒绝")
	}
}

func TestTeacherCapacityConstraint(t *testing.T) {
	ctx, fix := createTestContext()
	c := NewTeacherCapacityConstraint()

	// 填满至上限
	var assignments []*model.Assignment
	for i := 0; i < fix.teacherMath.MaxCredits; i++ {
		assignments = append(assignments,
			model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[i]))
	}
	ctx.SetAssignments(assignments)

	if valid, _, _ := c.Evaluate(ctx); !valid {
		t.Error("达到上限但未超出应通过")
	}

	// 再加一节应被增量检查拒绝
	over := model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID,
		fix.slots[fix.teacherMath.MaxCredits])
	if ok, _ := c.EvaluateAssignment(ctx, over); ok {
		t.Error("超出周学分上限的待定分配应被拒绝")
	}

	// 超限后的整体评估应无效
	ctx.AddAssignment(over)
	valid, penalty, _ := c.Evaluate(ctx)
	if valid {
		t.Error("超出上限的课表应判定无效")
	}
	if penalty != c.Weight() {
		t.Errorf("超出 1 节 penalty = %d, want %d", penalty, c.Weight())
	}
}

func TestSubjectCompatibilityConstraint(t *testing.T) {
	ctx, fix := createTestContext()
	c := NewSubjectCompatibilityConstraint()

	tests := []struct {
		name    string
		teacher *model.Teacher
		subject *model.Subject
		wantOK  bool
	}{
		{"主讲课程匹配", fix.teacherMath, fix.subjMath, true},
		{"跨院系副课程匹配", fix.teacherMath, fix.subjStats, true},
		{"院系相同且课型可承担", fix.teacherPhysics, fix.subjPhysicsLab, true},
		{"无任何匹配依据", fix.teacherMath, fix.subjPhysicsLab, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := model.NewAssignment(fix.classA.ID, tt.subject.ID, tt.teacher.ID, fix.slots[0])
			ok, _ := c.EvaluateAssignment(ctx, a)
			if ok != tt.wantOK {
				t.Errorf("EvaluateAssignment() = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestMaxDailyPeriodsConstraint(t *testing.T) {
	ctx, fix := createTestContext()
	c := NewMaxDailyPeriodsConstraint(2)

	// 周一已有2节
	ctx.SetAssignments([]*model.Assignment{
		model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[0]),
		model.NewAssignment(fix.classA.ID, fix.subjPhysics.ID, fix.teacherPhysics.ID, fix.slots[1]),
	})

	// 周一第3节应被拒绝
	third := model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[2])
	if ok, _ := c.EvaluateAssignment(ctx, third); ok {
		t.Error("超出每日节数上限的待定分配应被拒绝")
	}

	// 周二仍可安排
	tuesday := model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[3])
	if ok, _ := c.EvaluateAssignment(ctx, tuesday); !ok {
		t.Error("其他工作日应可正常安排")
	}
}

func TestTimePreferenceConstraint(t *testing.T) {
	ctx, fix := createTestContext()
	c := NewTimePreferenceConstraint(30, map[string][]int{
		fix.subjMath.Name: {1, 2},
	})

	// 第1节符合偏好
	good := model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[0])
	if ok, penalty := c.EvaluateAssignment(ctx, good); !ok || penalty != 0 {
		t.Errorf("偏好节次应无惩罚，got ok=%v penalty=%d", ok, penalty)
	}

	// 第3节偏离偏好
	bad := model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[2])
	if ok, penalty := c.EvaluateAssignment(ctx, bad); ok || penalty != 30 {
		t.Errorf("偏离偏好节次应有惩罚，got ok=%v penalty=%d", ok, penalty)
	}

	// 未配置偏好的课程不扣分
	free := model.NewAssignment(fix.classA.ID, fix.subjPhysics.ID, fix.teacherPhysics.ID, fix.slots[2])
	if ok, penalty := c.EvaluateAssignment(ctx, free); !ok || penalty != 0 {
		t.Errorf("未配置偏好的课程应无惩罚，got ok=%v penalty=%d", ok, penalty)
	}
}

func TestBackToBackLabConstraint(t *testing.T) {
	ctx, fix := createTestContext()
	c := NewBackToBackLabConstraint(15)

	// 周一第1节已有实验课
	ctx.SetAssignments([]*model.Assignment{
		model.NewAssignment(fix.classA.ID, fix.subjPhysicsLab.ID, fix.teacherPhysics.ID, fix.slots[0]),
	})

	// 紧邻的第2节再排实验课应扣分
	adjacent := model.NewAssignment(fix.classA.ID, fix.subjPhysicsLab.ID, fix.teacherPhysics.ID, fix.slots[1])
	if ok, penalty := c.EvaluateAssignment(ctx, adjacent); ok || penalty == 0 {
		t.Errorf("连排实验课应有惩罚，got ok=%v penalty=%d", ok, penalty)
	}

	// 第2节排理论课不受影响
	theory := model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[1])
	if ok, penalty := c.EvaluateAssignment(ctx, theory); !ok || penalty != 0 {
		t.Errorf("理论课不应受连排实验约束影响，got ok=%v penalty=%d", ok, penalty)
	}

	// 第3节（隔一节）排实验课也不扣分
	gap := model.NewAssignment(fix.classA.ID, fix.subjPhysicsLab.ID, fix.teacherPhysics.ID, fix.slots[2])
	if ok, penalty := c.EvaluateAssignment(ctx, gap); !ok || penalty != 0 {
		t.Errorf("非相邻实验课应无惩罚，got ok=%v penalty=%d", ok, penalty)
	}

	// 整体评估：相邻一对只计一次
	ctx.AddAssignment(adjacent)
	_, penalty, violations := c.Evaluate(ctx)
	if penalty != 15 || len(violations) != 1 {
		t.Errorf("相邻一对应只计一次，got penalty=%d violations=%d", penalty, len(violations))
	}
}

func TestSubjectPriorityConstraint(t *testing.T) {
	ctx, fix := createTestContext()
	c := NewSubjectPriorityConstraint(20, map[string]int{
		fix.subjMath.Name: 5,
	})

	// 第1节无惩罚
	early := model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[0])
	if _, penalty := c.EvaluateAssignment(ctx, early); penalty != 0 {
		t.Errorf("第1节不应扣分，got penalty=%d", penalty)
	}

	// 第3节惩罚 = 5 * (3-1) = 10
	late := model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[2])
	if _, penalty := c.EvaluateAssignment(ctx, late); penalty != 10 {
		t.Errorf("第3节 penalty = %d, want 10", penalty)
	}
}

func TestDailyLoadBalanceConstraint(t *testing.T) {
	ctx, fix := createTestContext()
	c := NewDailyLoadBalanceConstraint(10)

	// 4节全堆在周一（共2天，日均2节，周一偏差 > 1）
	ctx.SetAssignments([]*model.Assignment{
		model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[0]),
		model.NewAssignment(fix.classA.ID, fix.subjPhysics.ID, fix.teacherPhysics.ID, fix.slots[1]),
		model.NewAssignment(fix.classA.ID, fix.subjMath.ID, fix.teacherMath.ID, fix.slots[2]),
	})
	pending := model.NewAssignment(fix.classA.ID, fix.subjPhysics.ID, fix.teacherPhysics.ID, fix.slots[2])

	if ok, penalty := c.EvaluateAssignment(ctx, pending); ok || penalty == 0 {
		t.Errorf("课时过度集中应有惩罚，got ok=%v penalty=%d", ok, penalty)
	}
}

func TestRegisterDefaultConstraints(t *testing.T) {
	m := constraint.NewManager()
	cfg := model.DefaultGenerationConfig()
	cfg.PreventBackToBackLabs = true
	cfg.BalanceDailyLoad = true
	cfg.TimePreferences = map[string][]int{"数学": {1}}

	RegisterDefaultConstraints(m, cfg)

	// 5 硬 + 时段偏好 + 连排实验 + 每日均衡 + 负荷均衡
	if m.Count() != 9 {
		t.Errorf("Count() = %d, want 9", m.Count())
	}
	hard := m.GetByCategory(constraint.CategoryHard)
	if len(hard) != 5 {
		t.Errorf("硬约束数量 = %d, want 5", len(hard))
	}
}

// 测试夹具

type fixture struct {
	teacherMath    *model.Teacher
	teacherPhysics *model.Teacher
	subjMath       *model.Subject
	subjStats      *model.Subject
	subjPhysics    *model.Subject
	subjPhysicsLab *model.Subject
	classA         *model.ClassGroup
	classB         *model.ClassGroup
	slots          []model.TimeSlot
}

func createTestContext() (*constraint.Context, *fixture) {
	userID := uuid.New()

	fix := &fixture{
		teacherMath: &model.Teacher{
			BaseModel:      model.BaseModel{ID: uuid.New()},
			UserID:         userID,
			Name:           "王老师",
			Department:     "Mathematics",
			CourseTypes:    []model.SubjectType{model.SubjectTheory},
			MaxCredits:     4,
			PrimarySubject: "数学",
			OtherSubjects:  []string{"统计学"},
		},
		teacherPhysics: &model.Teacher{
			BaseModel:      model.BaseModel{ID: uuid.New()},
			UserID:         userID,
			Name:           "李老师",
			Department:     "Physics",
			CourseTypes:    []model.SubjectType{model.SubjectTheory, model.SubjectLab},
			MaxCredits:     10,
			PrimarySubject: "物理",
		},
	}

	fix.subjMath = &model.Subject{
		BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
		Name: "数学", Code: "MA101", Department: "Mathematics",
		Credits: 3, Type: model.SubjectTheory,
	}
	fix.subjStats = &model.Subject{
		BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
		Name: "统计学", Code: "ST201", Department: "Statistics",
		Credits: 3, Type: model.SubjectTheory,
	}
	fix.subjPhysics = &model.Subject{
		BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
		Name: "物理", Code: "PH101", Department: "Physics",
		Credits: 3, Type: model.SubjectTheory,
	}
	fix.subjPhysicsLab = &model.Subject{
		BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
		Name: "物理实验", Code: "PH102", Department: "Physics",
		Credits: 2, Type: model.SubjectLab,
	}

	fix.classA = &model.ClassGroup{
		BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
		Code: "CS-A", Name: "计算机一班", Department: "Computer Science",
	}
	fix.classB = &model.ClassGroup{
		BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
		Code: "CS-B", Name: "计算机二班", Department: "Computer Science",
	}

	// 2天 x 3节的小网格
	grid := model.GridConfig{
		Days: []string{"Monday", "Tuesday"},
		TimeSlots: []model.PeriodTime{
			{Period: 1, Time: "09:00-10:00"},
			{Period: 2, Time: "10:00-11:00"},
			{Period: 3, Time: "11:00-12:00"},
		},
	}
	slots, err := model.BuildGrid(grid)
	if err != nil {
		panic(err)
	}
	fix.slots = slots

	ctx := constraint.NewContext(userID)
	ctx.SetSubjects([]*model.Subject{fix.subjMath, fix.subjStats, fix.subjPhysics, fix.subjPhysicsLab})
	ctx.SetClasses([]*model.ClassGroup{fix.classA, fix.classB})
	ctx.SetTeachers([]*model.Teacher{fix.teacherMath, fix.teacherPhysics})
	ctx.SetSlots(slots)
	return ctx, fix
}
