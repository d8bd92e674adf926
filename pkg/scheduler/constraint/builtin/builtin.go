// Package builtin 提供内置约束实现
package builtin

import (
	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
)

// 软约束默认权重
const (
	DefaultTimePreferenceWeight    = 30
	DefaultTeacherPreferenceWeight = 25
	DefaultWorkloadBalanceWeight   = 20
	DefaultBackToBackLabWeight     = 15
	DefaultSubjectPriorityWeight   = 20
	DefaultDailyLoadBalanceWeight  = 10

	// 负荷均衡容差（百分点）
	DefaultWorkloadTolerance = 20.0
)

// RegisterDefaultConstraints 按生成配置注册默认约束集
// 硬约束始终注册，软约束按配置开关注册
func RegisterDefaultConstraints(m *constraint.Manager, cfg model.GenerationConfig) {
	// 硬约束
	m.Register(NewTeacherConflictConstraint())
	m.Register(NewClassConflictConstraint())
	m.Register(NewTeacherCapacityConstraint())
	m.Register(NewSubjectCompatibilityConstraint())
	m.Register(NewMaxDailyPeriodsConstraint(cfg.MaxDailyHours))

	// 软约束
	if len(cfg.TimePreferences) > 0 {
		m.Register(NewTimePreferenceConstraint(DefaultTimePreferenceWeight, cfg.TimePreferences))
	}
	if len(cfg.TeacherPreferences) > 0 {
		m.Register(NewTeacherPreferenceConstraint(DefaultTeacherPreferenceWeight, cfg.TeacherPreferences))
	}
	if len(cfg.SubjectPriorities) > 0 {
		m.Register(NewSubjectPriorityConstraint(DefaultSubjectPriorityWeight, cfg.SubjectPriorities))
	}
	if cfg.PreventBackToBackLabs {
		m.Register(NewBackToBackLabConstraint(DefaultBackToBackLabWeight))
	}
	if cfg.BalanceDailyLoad {
		m.Register(NewDailyLoadBalanceConstraint(DefaultDailyLoadBalanceWeight))
	}
	m.Register(NewWorkloadBalanceConstraint(DefaultWorkloadBalanceWeight, DefaultWorkloadTolerance))
}
