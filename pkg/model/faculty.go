// Package model 定义课表引擎的核心数据模型
package model

import "github.com/google/uuid"

// CompatibilityReason 教师与课程匹配的依据
type CompatibilityReason string

const (
	ReasonPrimary    CompatibilityReason = "primary"          // 主讲课程匹配
	ReasonSecondary  CompatibilityReason = "secondary"        // 副课程匹配
	ReasonDepartment CompatibilityReason = "department_match" // 院系+课型兜底匹配
	ReasonNone       CompatibilityReason = ""
)

// Teacher 教师
type Teacher struct {
	BaseModel
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	Department string    `json:"department" db:"department"`

	// 可承担的课程类型（Theory/Lab/Practical/Field Work）
	CourseTypes []SubjectType `json:"course_types" db:"course_types"`

	// 每周最大学分（可排节数上限）
	MaxCredits int `json:"max_credits" db:"max_credits"`

	// 主讲课程与副课程（按课程名匹配）
	PrimarySubject string   `json:"primary_subject" db:"primary_subject"`
	OtherSubjects  []string `json:"other_subjects" db:"other_subjects"`
}

// HasCourseType 检查教师是否可承担某课程类型
func (t *Teacher) HasCourseType(st SubjectType) bool {
	for _, ct := range t.CourseTypes {
		if ct == st {
			return true
		}
	}
	return false
}

// Compatibility 返回教师与课程的匹配依据
// 优先级：主讲课程 > 副课程（跨院系也成立） > 院系相同且课型可承担
// 仅院系相同但课型不可承担时视为不匹配
func (t *Teacher) Compatibility(s *Subject) CompatibilityReason {
	if s.Name != "" && s.Name == t.PrimarySubject {
		return ReasonPrimary
	}
	for _, other := range t.OtherSubjects {
		if other != "" && other == s.Name {
			return ReasonSecondary
		}
	}
	if t.Department == s.Department && t.HasCourseType(s.Type) {
		return ReasonDepartment
	}
	return ReasonNone
}

// CanTeach 检查教师是否可以讲授该课程
func (t *Teacher) CanTeach(s *Subject) bool {
	return t.Compatibility(s) != ReasonNone
}

// CanTakeLoad 检查教师是否还能承担额外节数
func (t *Teacher) CanTakeLoad(current, additional int) bool {
	return current+additional <= t.MaxCredits
}
