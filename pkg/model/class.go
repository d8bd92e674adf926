// Package model 定义课表引擎的核心数据模型
package model

import "github.com/google/uuid"

// ClassGroup 班级/教学班
type ClassGroup struct {
	BaseModel
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Code       string    `json:"code" db:"code"`
	Name       string    `json:"name" db:"name"`
	Department string    `json:"department" db:"department"`

	// 课程总学分（未显式指定课程列表时用于校验）
	Credits int `json:"credits" db:"credits"`

	// 显式指定的课程列表（为空时由归一化阶段按院系推导）
	SubjectIDs []uuid.UUID `json:"subject_ids,omitempty" db:"subject_ids"`
}

// SubjectDemand 班级对某课程的每周节数需求
type SubjectDemand struct {
	ClassID   uuid.UUID `json:"class_id"`
	SubjectID uuid.UUID `json:"subject_id"`
	Periods   int       `json:"periods"`
}
