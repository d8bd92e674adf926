package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestTeacherCompatibility(t *testing.T) {
	teacher := &Teacher{
		BaseModel:      NewBaseModel(),
		Name:           "王老师",
		Department:     "Mathematics",
		CourseTypes:    []SubjectType{SubjectTheory},
		PrimarySubject: "数学",
		OtherSubjects:  []string{"统计学"},
	}

	tests := []struct {
		name    string
		subject Subject
		want    CompatibilityReason
	}{
		{"主讲课程", Subject{Name: "数学", Department: "Physics", Type: SubjectLab}, ReasonPrimary},
		{"副课程跨院系", Subject{Name: "统计学", Department: "Statistics", Type: SubjectLab}, ReasonSecondary},
		{"同院系且课型可承担", Subject{Name: "线性代数", Department: "Mathematics", Type: SubjectTheory}, ReasonDepartment},
		{"同院系但课型不可承担", Subject{Name: "数学实验", Department: "Mathematics", Type: SubjectLab}, ReasonNone},
		{"无任何匹配", Subject{Name: "物理", Department: "Physics", Type: SubjectTheory}, ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := teacher.Compatibility(&tt.subject); got != tt.want {
				t.Errorf("Compatibility() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubjectRequiredPeriods(t *testing.T) {
	tests := []struct {
		name    string
		credits int
		typ     SubjectType
		want    int
	}{
		{"理论课按学分", 3, SubjectTheory, 3},
		{"实验课双倍", 2, SubjectLab, 4},
		{"实践课双倍", 3, SubjectPractical, 6},
		{"实地课按学分", 2, SubjectFieldWork, 2},
		{"零学分无需求", 0, SubjectTheory, 0},
		{"负学分无需求", -1, SubjectLab, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Subject{Credits: tt.credits, Type: tt.typ}
			if got := s.RequiredPeriods(); got != tt.want {
				t.Errorf("RequiredPeriods() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseSubjectType(t *testing.T) {
	if ParseSubjectType("Lab") != SubjectLab {
		t.Error(`ParseSubjectType("Lab") 应返回 SubjectLab`)
	}
	if ParseSubjectType("未知类型") != SubjectTheory {
		t.Error("未知类型应回退为理论课")
	}
}

func TestBuildGrid(t *testing.T) {
	slots, err := BuildGrid(DefaultGridConfig())
	if err != nil {
		t.Fatalf("BuildGrid() error = %v", err)
	}
	if len(slots) != 36 {
		t.Fatalf("默认网格应为 6x6=36 个时段，got %d", len(slots))
	}

	// 线性下标连续且与 (天, 节次) 对应
	for i, s := range slots {
		if s.Index != i {
			t.Errorf("slots[%d].Index = %d", i, s.Index)
		}
	}
	if slots[0].Day != "Monday" || slots[0].Period != 1 {
		t.Errorf("首时段 = %s P%d, want Monday P1", slots[0].Day, slots[0].Period)
	}
	if slots[35].Day != "Saturday" || slots[35].Period != 6 {
		t.Errorf("末时段 = %s P%d, want Saturday P6", slots[35].Day, slots[35].Period)
	}

	// 默认网格：第3节在30分钟课间之后，第5节在午休之后
	if !slots[2].AfterBreak {
		t.Error("第3节应标记为课间之后")
	}
	if !slots[4].AfterLunch {
		t.Error("第5节应标记为午休之后")
	}
}

func TestBuildGrid_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  GridConfig
	}{
		{"缺少天数", GridConfig{TimeSlots: []PeriodTime{{Period: 1, Time: "09:00-10:00"}}}},
		{"缺少节次", GridConfig{Days: []string{"Monday"}}},
		{"时间格式非法", GridConfig{
			Days:      []string{"Monday"},
			TimeSlots: []PeriodTime{{Period: 1, Time: "morning"}},
		}},
		{"结束早于开始", GridConfig{
			Days:      []string{"Monday"},
			TimeSlots: []PeriodTime{{Period: 1, Time: "10:00-09:00"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildGrid(tt.cfg); err == nil {
				t.Error("应返回错误")
			}
		})
	}
}

func TestStatusForUtilization(t *testing.T) {
	tests := []struct {
		percent float64
		want    WorkloadStatus
	}{
		{110, WorkloadOverloaded},
		{100.5, WorkloadOverloaded},
		{100, WorkloadOptimal},
		{80, WorkloadOptimal},
		{79.9, WorkloadGood},
		{50, WorkloadGood},
		{49.9, WorkloadUnderutilized},
		{0, WorkloadUnderutilized},
	}
	for _, tt := range tests {
		if got := StatusForUtilization(tt.percent); got != tt.want {
			t.Errorf("StatusForUtilization(%.1f) = %s, want %s", tt.percent, got, tt.want)
		}
	}
}

func TestGenerationConfigGridConfig(t *testing.T) {
	cfg := DefaultGenerationConfig()
	grid := cfg.GridConfig()
	if len(grid.Days) != 6 || len(grid.TimeSlots) != 6 {
		t.Errorf("默认应回退 6x6 网格，got %dx%d", len(grid.Days), len(grid.TimeSlots))
	}

	cfg.Days = []string{"Monday", "Wednesday"}
	cfg.TimeSlots = []PeriodTime{{Period: 1, Time: "08:00-09:00"}}
	grid = cfg.GridConfig()
	if len(grid.Days) != 2 || len(grid.TimeSlots) != 1 {
		t.Errorf("自定义网格未生效，got %dx%d", len(grid.Days), len(grid.TimeSlots))
	}
}

func TestTimetableClone(t *testing.T) {
	userID := uuid.New()
	slots, err := BuildGrid(DefaultGridConfig())
	if err != nil {
		t.Fatal(err)
	}

	a := NewAssignment(uuid.New(), uuid.New(), uuid.New(), slots[0])
	tt := NewTimetable(userID, MethodSmart, []*Assignment{a})
	clone := tt.Clone()

	if clone.ID == tt.ID {
		t.Error("克隆应分配新ID")
	}
	clone.Assignments[0].Slot = slots[1]
	if tt.Assignments[0].Slot.Index == clone.Assignments[0].Slot.Index {
		t.Error("克隆应深拷贝分配")
	}
}
