package validator

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/model"
)

func TestValidate_CleanTimetable(t *testing.T) {
	fix := newFixture()
	assignments := []*model.Assignment{
		model.NewAssignment(fix.class.ID, fix.subject.ID, fix.teacher.ID, fix.slots[0]),
		model.NewAssignment(fix.class.ID, fix.subject.ID, fix.teacher.ID, fix.slots[1]),
	}

	result := New().Validate(fix.teachers(), fix.subjects(), fix.classes(), assignments)
	if result.HasConflicts {
		t.Errorf("无冲突课表不应报告冲突：%v", result.Conflicts)
	}
	if result.Conflicts == nil {
		t.Error("Conflicts 应为空切片而非 nil")
	}
}

func TestValidate_TeacherOverlap(t *testing.T) {
	fix := newFixture()
	assignments := []*model.Assignment{
		model.NewAssignment(fix.class.ID, fix.subject.ID, fix.teacher.ID, fix.slots[0]),
		model.NewAssignment(fix.classB.ID, fix.subject.ID, fix.teacher.ID, fix.slots[0]),
	}

	result := New().Validate(fix.teachers(), fix.subjects(), fix.classes(), assignments)
	if !result.HasConflicts {
		t.Fatal("教师重复排课应报告冲突")
	}
	found := false
	for _, c := range result.Conflicts {
		if strings.Contains(c, "Teacher 王老师 has overlapping classes on Monday period 1") {
			found = true
		}
	}
	if !found {
		t.Errorf("冲突描述不符合预期：%v", result.Conflicts)
	}
}

func TestValidate_ClassOverlap(t *testing.T) {
	fix := newFixture()
	assignments := []*model.Assignment{
		model.NewAssignment(fix.class.ID, fix.subject.ID, fix.teacher.ID, fix.slots[0]),
		model.NewAssignment(fix.class.ID, fix.subjectB.ID, fix.teacherB.ID, fix.slots[0]),
	}

	result := New().Validate(fix.teachers(), fix.subjects(), fix.classes(), assignments)
	if !result.HasConflicts {
		t.Fatal("班级重复排课应报告冲突")
	}
	if !strings.Contains(result.Conflicts[0], "has multiple subjects on Monday period 1") {
		t.Errorf("冲突描述不符合预期：%v", result.Conflicts)
	}
}

func TestValidate_CapacityOverrun(t *testing.T) {
	fix := newFixture()
	fix.teacher.MaxCredits = 2

	var assignments []*model.Assignment
	for i := 0; i < 3; i++ {
		assignments = append(assignments,
			model.NewAssignment(fix.class.ID, fix.subject.ID, fix.teacher.ID, fix.slots[i]))
	}

	result := New().Validate(fix.teachers(), fix.subjects(), fix.classes(), assignments)
	if !result.HasConflicts {
		t.Fatal("超出周学分上限应报告冲突")
	}
	if !strings.Contains(result.Conflicts[0], "exceeds weekly capacity: 3/2") {
		t.Errorf("冲突描述不符合预期：%v", result.Conflicts)
	}
}

func TestValidate_IncompatibleTeacher(t *testing.T) {
	fix := newFixture()
	// 数学教师被排去教物理实验课
	assignments := []*model.Assignment{
		model.NewAssignment(fix.class.ID, fix.subjectLab.ID, fix.teacher.ID, fix.slots[0]),
		model.NewAssignment(fix.class.ID, fix.subjectLab.ID, fix.teacher.ID, fix.slots[1]),
	}

	result := New().Validate(fix.teachers(), fix.subjects(), fix.classes(), assignments)
	if !result.HasConflicts {
		t.Fatal("资格不符应报告冲突")
	}
	// 同一 (教师, 课程) 组合只报一次
	count := 0
	for _, c := range result.Conflicts {
		if strings.Contains(c, "is not qualified to teach") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("资格冲突应去重，got %d 条", count)
	}
}

func TestValidateTimetable_Nil(t *testing.T) {
	fix := newFixture()
	result := New().ValidateTimetable(fix.teachers(), fix.subjects(), fix.classes(), nil)
	if result.HasConflicts {
		t.Error("空课表不应报告冲突")
	}
}

// 测试夹具

type fixture struct {
	teacher    *model.Teacher
	teacherB   *model.Teacher
	subject    *model.Subject
	subjectB   *model.Subject
	subjectLab *model.Subject
	class      *model.ClassGroup
	classB     *model.ClassGroup
	slots      []model.TimeSlot
}

func (f *fixture) teachers() []*model.Teacher {
	return []*model.Teacher{f.teacher, f.teacherB}
}

func (f *fixture) subjects() []*model.Subject {
	return []*model.Subject{f.subject, f.subjectB, f.subjectLab}
}

func (f *fixture) classes() []*model.ClassGroup {
	return []*model.ClassGroup{f.class, f.classB}
}

func newFixture() *fixture {
	userID := uuid.New()
	slots, err := model.BuildGrid(model.DefaultGridConfig())
	if err != nil {
		panic(err)
	}

	return &fixture{
		teacher: &model.Teacher{
			BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
			Name: "王老师", Department: "Mathematics",
			CourseTypes:    []model.SubjectType{model.SubjectTheory},
			MaxCredits:     20,
			PrimarySubject: "数学",
		},
		teacherB: &model.Teacher{
			BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
			Name: "李老师", Department: "Physics",
			CourseTypes:    []model.SubjectType{model.SubjectTheory, model.SubjectLab},
			MaxCredits:     20,
			PrimarySubject: "物理",
		},
		subject: &model.Subject{
			BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
			Name: "数学", Code: "MA101", Department: "Mathematics",
			Credits: 3, Type: model.SubjectTheory,
		},
		subjectB: &model.Subject{
			BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
			Name: "物理", Code: "PH101", Department: "Physics",
			Credits: 3, Type: model.SubjectTheory,
		},
		subjectLab: &model.Subject{
			BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
			Name: "物理实验", Code: "PH102", Department: "Physics",
			Credits: 2, Type: model.SubjectLab,
		},
		class: &model.ClassGroup{
			BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
			Code: "CS-A", Name: "计算机一班", Department: "Computer Science",
		},
		classB: &model.ClassGroup{
			BaseModel: model.BaseModel{ID: uuid.New()}, UserID: userID,
			Code: "CS-B", Name: "计算机二班", Department: "Computer Science",
		},
		slots: slots,
	}
}
