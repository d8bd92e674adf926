// Package model 定义课表引擎的核心数据模型
package model

import "github.com/google/uuid"

// Subject 课程/科目
type Subject struct {
	BaseModel
	UserID     uuid.UUID   `json:"user_id" db:"user_id"`
	Name       string      `json:"name" db:"name"`
	Code       string      `json:"code" db:"code"`
	Department string      `json:"department" db:"department"`
	Credits    int         `json:"credits" db:"credits"`
	Type       SubjectType `json:"type" db:"type"`
}

// RequiredPeriods 返回每周需要排课的节数
// 实验/实践类课程每学分占用两节，其余按学分计
func (s *Subject) RequiredPeriods() int {
	if s.Credits <= 0 {
		return 0
	}
	if s.Type.IsLabLike() {
		return s.Credits * 2
	}
	return s.Credits
}
