// Package scheduler 课表生成引擎的门面：归一化、生成、批量变体
package scheduler

import (
	"context"
	"fmt"

	"github.com/kebiao/kebiao/pkg/errors"
	"github.com/kebiao/kebiao/pkg/logger"
	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint/builtin"
	"github.com/kebiao/kebiao/pkg/scheduler/optimizer"
	"github.com/kebiao/kebiao/pkg/scheduler/solver"
	"github.com/kebiao/kebiao/pkg/stats"
	"github.com/kebiao/kebiao/pkg/validator"
)

// State 生成运行状态
type State string

const (
	StatePending          State = "PENDING"
	StateValidatingInput  State = "VALIDATING_INPUT"
	StateAssigning        State = "ASSIGNING"
	StateValidatingOutput State = "VALIDATING_OUTPUT"
	StateScored           State = "SCORED"
	StateDone             State = "DONE"
	StateDoneWithWarnings State = "DONE_WITH_WARNINGS"
	StateFailed           State = "FAILED"
)

// Output 一次生成运行的完整输出
type Output struct {
	Status     model.ResultStatus      `json:"status"`
	State      State                   `json:"state"`
	Method     model.GenerationMethod  `json:"generation_method"`
	Timetable  *model.Timetable        `json:"-"`
	Result     *model.GenerationResult `json:"timetable"`
	Analytics  *model.AnalyticsResult  `json:"analytics,omitempty"`
	Conflicts  *model.ConflictsResult  `json:"conflicts,omitempty"`
	Statistics *solver.Statistics      `json:"statistics,omitempty"`
	Warnings   []string                `json:"warnings,omitempty"`
	Score      float64                 `json:"score"`
	Message    string                  `json:"message,omitempty"`
}

// Generator 课表生成器
// 驱动 PENDING -> VALIDATING_INPUT -> ASSIGNING -> VALIDATING_OUTPUT -> SCORED -> DONE 状态机
type Generator struct {
	validator *validator.Validator
	logger    *logger.GeneratorLogger
}

// NewGenerator 创建课表生成器
func NewGenerator() *Generator {
	return &Generator{
		validator: validator.New(),
		logger:    logger.NewGeneratorLogger(),
	}
}

// transition 推进状态机并记录
func (g *Generator) transition(out *Output, next State) {
	logger.Get().Debug().
		Str("from", string(out.State)).
		Str("to", string(next)).
		Msg("生成状态流转")
	out.State = next
}

// Generate 执行一次课表生成
// 输入校验失败是致命错误；课时缺口与预算耗尽降级为警告并保留部分结果
func (g *Generator) Generate(ctx context.Context, in Input, strategy solver.Strategy, seed int64) (*Output, error) {
	out := &Output{
		State:  StatePending,
		Method: strategy.Method(),
		Status: model.StatusError,
	}

	// 输入校验
	g.transition(out, StateValidatingInput)
	schedCtx, err := Normalize(in)
	if err != nil {
		g.transition(out, StateFailed)
		out.Message = err.Error()
		return out, err
	}

	// 排课
	g.transition(out, StateAssigning)
	manager := constraint.NewManager()
	builtin.RegisterDefaultConstraints(manager, in.Config)

	res, err := solver.New(strategy, manager, seed).Solve(ctx, schedCtx)
	if err != nil {
		g.transition(out, StateFailed)
		out.Message = err.Error()
		return out, err
	}

	// 智能求解预算耗尽时回退旧版求解器，取安排得更多的结果
	if strategy == solver.StrategySmart && res.BudgetExhausted {
		fallbackCtx := schedCtx.Fork()
		if legacyRes, legacyErr := solver.NewLegacySolver(manager).Solve(ctx, fallbackCtx); legacyErr == nil &&
			len(legacyRes.Assignments) > len(res.Assignments) {
			res = legacyRes
			schedCtx = fallbackCtx
			out.Method = model.MethodLegacy
		}
	}

	warnings := make([]string, 0)
	if res.BudgetExhausted {
		warnings = append(warnings, errors.SearchBudgetExceeded(
			res.Statistics.PlacedPeriods, res.Statistics.TotalPeriods).Error())
	}
	for _, up := range res.Unplaced {
		warnings = append(warnings, errors.InfeasibleUnit(up.Class, up.Subject, up.Missing).Error())
	}

	out.Statistics = res.Statistics
	out.Timetable = model.NewTimetable(in.UserID, out.Method, res.Assignments)

	// 输出校验
	g.transition(out, StateValidatingOutput)
	out.Conflicts = g.validator.Validate(in.Teachers, in.Subjects, in.Classes, res.Assignments)

	// 评分
	g.transition(out, StateScored)
	out.Analytics = stats.Analyze(stats.AnalysisInput{
		Method:      out.Method,
		Teachers:    in.Teachers,
		Subjects:    in.Subjects,
		Assignments: res.Assignments,
		Conflicts:   out.Conflicts.Conflicts,
		TotalDemand: TotalDemand(schedCtx),
		Config:      in.Config,
	})
	out.Score = out.Analytics.Efficiency.Score
	out.Result = RenderResult(schedCtx, res.Assignments)
	out.Warnings = warnings

	// 收尾
	if len(res.Assignments) == 0 {
		out.Status = model.StatusNoData
	} else {
		out.Status = model.StatusSuccess
	}

	if len(warnings) > 0 || out.Conflicts.HasConflicts {
		g.transition(out, StateDoneWithWarnings)
		out.Message = fmt.Sprintf("课表已生成，%d 条警告", len(warnings)+len(out.Conflicts.Conflicts))
	} else {
		g.transition(out, StateDone)
		out.Message = "课表生成成功"
	}
	return out, nil
}

// Reoptimize 在已有课表上做有界局部搜索，返回不劣于输入的新课表
func (g *Generator) Reoptimize(ctx context.Context, in Input, tt *model.Timetable, seed int64) (*Output, *optimizer.Report, error) {
	out := &Output{
		State:  StatePending,
		Method: tt.Method,
		Status: model.StatusError,
	}

	g.transition(out, StateValidatingInput)
	schedCtx, err := Normalize(in)
	if err != nil {
		g.transition(out, StateFailed)
		out.Message = err.Error()
		return out, nil, err
	}

	g.transition(out, StateAssigning)
	manager := constraint.NewManager()
	builtin.RegisterDefaultConstraints(manager, in.Config)

	opt := optimizer.NewLocalSearchOptimizer(nil, manager, seed)
	optimized, report, err := opt.Optimize(ctx, schedCtx, tt)
	if err != nil {
		g.transition(out, StateFailed)
		out.Message = err.Error()
		return out, report, err
	}

	g.transition(out, StateValidatingOutput)
	out.Conflicts = g.validator.Validate(in.Teachers, in.Subjects, in.Classes, optimized.Assignments)

	g.transition(out, StateScored)
	out.Analytics = stats.Analyze(stats.AnalysisInput{
		Method:      tt.Method,
		Teachers:    in.Teachers,
		Subjects:    in.Subjects,
		Assignments: optimized.Assignments,
		Conflicts:   out.Conflicts.Conflicts,
		TotalDemand: TotalDemand(schedCtx),
		Config:      in.Config,
	})
	out.Score = out.Analytics.Efficiency.Score
	out.Timetable = optimized
	out.Result = RenderResult(schedCtx, optimized.Assignments)
	out.Status = model.StatusSuccess

	if out.Conflicts.HasConflicts {
		g.transition(out, StateDoneWithWarnings)
	} else {
		g.transition(out, StateDone)
	}
	out.Message = fmt.Sprintf("优化完成：%.1f -> %.1f", report.InitialScore, report.FinalScore)
	return out, report, nil
}
