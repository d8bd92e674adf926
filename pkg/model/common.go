// Package model 定义课表引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// SubjectType 课程类型
type SubjectType string

const (
	SubjectTheory    SubjectType = "Theory"     // 理论课
	SubjectLab       SubjectType = "Lab"        // 实验课
	SubjectPractical SubjectType = "Practical"  // 实践课
	SubjectFieldWork SubjectType = "Field Work" // 实地课
)

// ParseSubjectType 解析课程类型，未知类型回退为理论课
func ParseSubjectType(s string) SubjectType {
	switch SubjectType(s) {
	case SubjectTheory, SubjectLab, SubjectPractical, SubjectFieldWork:
		return SubjectType(s)
	default:
		return SubjectTheory
	}
}

// IsLabLike 判断是否为实验/实践类课程（每学分需要双倍课时）
func (t SubjectType) IsLabLike() bool {
	return t == SubjectLab || t == SubjectPractical
}

// WorkloadStatus 教师负荷状态
type WorkloadStatus string

const (
	WorkloadOverloaded    WorkloadStatus = "overloaded"    // >100%
	WorkloadOptimal       WorkloadStatus = "optimal"       // 80-100%
	WorkloadGood          WorkloadStatus = "good"          // 50-80%
	WorkloadUnderutilized WorkloadStatus = "underutilized" // <50%
)

// StatusForUtilization 根据利用率百分比返回负荷状态
func StatusForUtilization(percent float64) WorkloadStatus {
	switch {
	case percent > 100:
		return WorkloadOverloaded
	case percent >= 80:
		return WorkloadOptimal
	case percent >= 50:
		return WorkloadGood
	default:
		return WorkloadUnderutilized
	}
}

// ResultStatus 响应状态判别值
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
	StatusNoData  ResultStatus = "no_data"
)

// GenerationMethod 生成方法标识
type GenerationMethod string

const (
	MethodSmart  GenerationMethod = "smart"
	MethodLegacy GenerationMethod = "legacy"
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
