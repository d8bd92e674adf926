// Package solver 提供课表求解器
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/errors"
	"github.com/kebiao/kebiao/pkg/logger"
	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
)

// LegacySolver 旧版求解器
// 按输入顺序逐班级首次适配，不回溯、不考虑软约束；结果完全确定
type LegacySolver struct {
	constraintManager *constraint.Manager
	logger            *logger.GeneratorLogger
}

// NewLegacySolver 创建旧版求解器
func NewLegacySolver(cm *constraint.Manager) *LegacySolver {
	return &LegacySolver{
		constraintManager: cm,
		logger:            logger.NewGeneratorLogger(),
	}
}

// Name 返回求解器名称
func (s *LegacySolver) Name() string {
	return "LegacySolver"
}

// Solve 首次适配生成课表
func (s *LegacySolver) Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error) {
	startTime := time.Now()
	s.logger.StartGeneration(schedCtx.UserID.String(),
		len(schedCtx.Teachers), len(schedCtx.Subjects), len(schedCtx.Classes))

	result := &Result{
		Assignments: make([]*model.Assignment, 0),
		Statistics:  &Statistics{},
	}

	if len(schedCtx.Teachers) == 0 {
		return result, errors.InvalidInput("teachers", "没有可用教师")
	}
	if len(schedCtx.Slots) == 0 {
		return result, errors.InvalidInput("slots", "课表网格为空")
	}
	if len(schedCtx.Demands) == 0 {
		return result, errors.InvalidInput("demands", "没有课时需求")
	}

	iterations := 0
	totalPeriods := 0
	var unplaced []UnplacedUnit

	// 严格按需求的输入顺序排课
	for _, d := range schedCtx.Demands {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if d.Periods <= 0 {
			continue
		}
		totalPeriods += d.Periods

		missing := 0
		for p := 0; p < d.Periods; p++ {
			iterations++
			if !s.placeFirstFit(schedCtx, d.ClassID, d.SubjectID) {
				missing++
			}
		}

		if missing > 0 {
			up := UnplacedUnit{
				ClassID:   d.ClassID,
				SubjectID: d.SubjectID,
				Missing:   missing,
				Reason:    "没有满足硬约束的可用时段",
			}
			if cg := schedCtx.GetClass(d.ClassID); cg != nil {
				up.Class = cg.Name
			}
			if subj := schedCtx.GetSubject(d.SubjectID); subj != nil {
				up.Subject = subj.Name
			}
			s.logger.UnplacedUnit(up.Class, up.Subject, up.Missing)
			unplaced = append(unplaced, up)
		}
	}

	result.Assignments = schedCtx.Assignments
	result.Unplaced = unplaced
	result.ConstraintResult = s.constraintManager.Evaluate(schedCtx)
	result.Duration = time.Since(startTime)

	result.Statistics.TotalAssignments = len(result.Assignments)
	result.Statistics.PlacedPeriods = len(result.Assignments)
	result.Statistics.TotalPeriods = totalPeriods
	result.Statistics.Iterations = iterations
	if totalPeriods > 0 {
		result.Statistics.FillRate = float64(result.Statistics.PlacedPeriods) / float64(totalPeriods) * 100
	}

	result.Success = result.ConstraintResult.IsValid && len(unplaced) == 0
	if result.Success {
		result.Message = fmt.Sprintf("排课成功，满足率 %.1f%%", result.Statistics.FillRate)
	} else {
		result.Message = fmt.Sprintf("存在 %d 项无法安排的课时需求", len(unplaced))
	}

	s.logger.GenerationComplete(schedCtx.UserID.String(), result.Duration, result.ConstraintResult.Score)
	return result, nil
}

// placeFirstFit 为一节课时找到第一个满足硬约束的 (时段, 教师) 组合
func (s *LegacySolver) placeFirstFit(schedCtx *constraint.Context, classID, subjectID uuid.UUID) bool {
	subj := schedCtx.GetSubject(subjectID)
	if subj == nil {
		return false
	}

	for _, slot := range schedCtx.Slots {
		if schedCtx.ClassBusy(classID, slot.Index) {
			continue
		}
		for _, t := range schedCtx.Teachers {
			if !t.CanTeach(subj) {
				continue
			}
			pending := model.NewAssignment(classID, subjectID, t.ID, slot)
			if ok, _ := s.constraintManager.CanAssign(schedCtx, pending); !ok {
				continue
			}
			schedCtx.AddAssignment(pending)
			return true
		}
	}
	return false
}
