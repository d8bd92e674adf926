// Package solver 提供课表求解器
package solver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
)

// Strategy 求解策略
type Strategy string

const (
	StrategySmart  Strategy = "smart"  // 稀缺度排序 + 回溯
	StrategyLegacy Strategy = "legacy" // 顺序首次适配
)

// ParseStrategy 解析求解策略，未知值回退为 smart
func ParseStrategy(s string) Strategy {
	if Strategy(s) == StrategyLegacy {
		return StrategyLegacy
	}
	return StrategySmart
}

// Method 返回策略对应的生成方法标识
func (s Strategy) Method() model.GenerationMethod {
	if s == StrategyLegacy {
		return model.MethodLegacy
	}
	return model.MethodSmart
}

// Solver 求解器接口
type Solver interface {
	// Solve 生成课表方案
	Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error)

	// Name 返回求解器名称
	Name() string
}

// UnplacedUnit 未能安排的课时
type UnplacedUnit struct {
	ClassID   uuid.UUID `json:"class_id"`
	SubjectID uuid.UUID `json:"subject_id"`
	Class     string    `json:"class"`
	Subject   string    `json:"subject"`
	Missing   int       `json:"missing_periods"`
	Reason    string    `json:"reason,omitempty"`
}

// Result 求解结果
type Result struct {
	Assignments      []*model.Assignment `json:"assignments"`
	Statistics       *Statistics         `json:"statistics"`
	ConstraintResult *constraint.Result  `json:"constraint_result"`
	Unplaced         []UnplacedUnit      `json:"unplaced,omitempty"`
	BudgetExhausted  bool                `json:"budget_exhausted"`
	Duration         time.Duration       `json:"duration"`
	Success          bool                `json:"success"`
	Message          string              `json:"message,omitempty"`
}

// Statistics 求解统计
type Statistics struct {
	TotalAssignments int     `json:"total_assignments"`
	PlacedPeriods    int     `json:"placed_periods"`
	TotalPeriods     int     `json:"total_periods"`
	FillRate         float64 `json:"fill_rate"`
	Iterations       int     `json:"iterations"`
	Backtracks       int     `json:"backtracks"`
}

// New 按策略创建求解器
func New(strategy Strategy, cm *constraint.Manager, seed int64) Solver {
	if strategy == StrategyLegacy {
		return NewLegacySolver(cm)
	}
	return NewSmartSolver(cm, seed)
}
