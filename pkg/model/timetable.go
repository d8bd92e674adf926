// Package model 定义课表引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// Assignment 一次排课决策：(班级, 课程, 教师, 时段) 四元组
type Assignment struct {
	ID        uuid.UUID `json:"id"`
	ClassID   uuid.UUID `json:"class_id"`
	SubjectID uuid.UUID `json:"subject_id"`
	TeacherID uuid.UUID `json:"teacher_id"`
	Slot      TimeSlot  `json:"slot"`
	Room      string    `json:"room"`
}

// NewAssignment 创建排课分配
func NewAssignment(classID, subjectID, teacherID uuid.UUID, slot TimeSlot) *Assignment {
	return &Assignment{
		ID:        uuid.New(),
		ClassID:   classID,
		SubjectID: subjectID,
		TeacherID: teacherID,
		Slot:      slot,
		Room:      "TBA",
	}
}

// Clone 深拷贝分配
func (a *Assignment) Clone() *Assignment {
	c := *a
	return &c
}

// Timetable 完整课表：覆盖所有班级课时需求的分配集合
// 一经返回即不可变；重新优化会产生新的 Timetable 值
type Timetable struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	Method      GenerationMethod `json:"generation_method"`
	Assignments []*Assignment    `json:"assignments"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// NewTimetable 创建课表
func NewTimetable(userID uuid.UUID, method GenerationMethod, assignments []*Assignment) *Timetable {
	return &Timetable{
		ID:          uuid.New(),
		UserID:      userID,
		Method:      method,
		Assignments: assignments,
		GeneratedAt: time.Now(),
	}
}

// Clone 深拷贝课表（重新优化在副本上进行）
func (t *Timetable) Clone() *Timetable {
	c := &Timetable{
		ID:          uuid.New(),
		UserID:      t.UserID,
		Method:      t.Method,
		Assignments: make([]*Assignment, len(t.Assignments)),
		GeneratedAt: t.GeneratedAt,
	}
	for i, a := range t.Assignments {
		c.Assignments[i] = a.Clone()
	}
	return c
}

// GenerationConfig 生成请求识别的配置项
type GenerationConfig struct {
	Days                  []string          `json:"days,omitempty"`
	TimeSlots             []PeriodTime      `json:"time_slots,omitempty"`
	SelectedClasses       []string          `json:"selected_classes,omitempty"`
	TimePreferences       map[string][]int  `json:"time_preferences,omitempty"`    // 课程名 -> 偏好节次
	TeacherPreferences    map[string]string `json:"teacher_preferences,omitempty"` // 课程名 -> 偏好教师名
	SubjectPriorities     map[string]int    `json:"subject_priorities,omitempty"`  // 课程名 -> 优先级
	AvoidConflicts        bool              `json:"avoid_conflicts"`
	MaxDailyHours         int               `json:"max_daily_hours,omitempty"`
	BreakDuration         int               `json:"break_duration,omitempty"`
	LunchBreak            bool              `json:"lunch_break"`
	PreventBackToBackLabs bool              `json:"prevent_back_to_back_labs"`
	BalanceDailyLoad      bool              `json:"balance_daily_load"`
	Variations            int               `json:"variations,omitempty"`
}

// DefaultGenerationConfig 返回默认生成配置
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		AvoidConflicts: true,
		MaxDailyHours:  6,
		BreakDuration:  30,
		LunchBreak:     true,
		Variations:     3,
	}
}

// GridConfig 由生成配置推导网格配置，缺省部分回退默认值
func (c GenerationConfig) GridConfig() GridConfig {
	grid := DefaultGridConfig()
	if len(c.Days) > 0 {
		grid.Days = c.Days
	}
	if len(c.TimeSlots) > 0 {
		grid.TimeSlots = c.TimeSlots
	}
	if c.BreakDuration > 0 {
		grid.BreakDuration = c.BreakDuration
	}
	grid.LunchBreak = c.LunchBreak
	return grid
}
