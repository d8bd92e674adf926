// Package solver 提供课表求解器
package solver

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/errors"
	"github.com/kebiao/kebiao/pkg/logger"
	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
)

// SmartSolver 智能求解器
// 按稀缺度排序课时需求，逐节选择软约束代价最低的 (教师, 时段) 组合，
// 死路时在预算内回溯；同一种子下结果可复现
type SmartSolver struct {
	constraintManager *constraint.Manager
	logger            *logger.GeneratorLogger
	seed              int64
	maxIterations     int
	maxBacktracks     int
}

// NewSmartSolver 创建智能求解器
func NewSmartSolver(cm *constraint.Manager, seed int64) *SmartSolver {
	return &SmartSolver{
		constraintManager: cm,
		logger:            logger.NewGeneratorLogger(),
		seed:              seed,
		maxIterations:     20000,
		maxBacktracks:     1000,
	}
}

// Name 返回求解器名称
func (s *SmartSolver) Name() string {
	return "SmartSolver"
}

// SetMaxIterations 设置搜索预算（尝试次数上限）
func (s *SmartSolver) SetMaxIterations(max int) {
	s.maxIterations = max
}

// SetMaxBacktracks 设置回溯次数上限
func (s *SmartSolver) SetMaxBacktracks(max int) {
	s.maxBacktracks = max
}

// unit 单节课时需求
type unit struct {
	classID   uuid.UUID
	subjectID uuid.UUID
}

// option 一个可行的 (教师, 时段) 选项
type option struct {
	teacherID uuid.UUID
	slot      model.TimeSlot
	penalty   int
}

// frame 回溯栈帧：某个课时的候选选项与游标
type frame struct {
	options []option
	cursor  int
	placed  bool
}

// Solve 生成课表
func (s *SmartSolver) Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error) {
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

	rng := rand.New(rand.NewSource(s.seed))
	units := s.buildUnits(schedCtx)
	result.Statistics.TotalPeriods = len(units)

	frames := make([]*frame, len(units))
	skipped := make([]bool, len(units))
	iterations := 0
	backtracks := 0
	budgetExhausted := false

	i := 0
	for i < len(units) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if frames[i] == nil {
			frames[i] = &frame{options: s.buildOptions(schedCtx, units[i], rng)}
			skipped[i] = false
		}
		f := frames[i]

		if f.cursor < len(f.options) {
			iterations++
			opt := f.options[f.cursor]
			f.cursor++

			if iterations > s.maxIterations {
				budgetExhausted = true
				break
			}

			a := model.NewAssignment(units[i].classID, units[i].subjectID, opt.teacherID, opt.slot)
			schedCtx.AddAssignment(a)
			f.placed = true
			i++
			continue
		}

		// 死路：回溯到最近一个已放置的课时
		if backtracks < s.maxBacktracks {
			j := i - 1
			for j >= 0 && (frames[j] == nil || !frames[j].placed) {
				j--
			}
			if j >= 0 {
				backtracks++
				schedCtx.RemoveLastAssignment()
				frames[j].placed = false
				for k := j + 1; k <= i; k++ {
					frames[k] = nil
					skipped[k] = false
				}
				i = j
				continue
			}
		}

		// 回溯预算耗尽或无处可退：放弃该课时，尽力而为继续
		skipped[i] = true
		i++
	}

	// 搜索预算耗尽后对剩余课时做单遍贪心补位
	if budgetExhausted {
		for ; i < len(units); i++ {
			opts := s.buildOptions(schedCtx, units[i], rng)
			if len(opts) == 0 {
				skipped[i] = true
				continue
			}
			a := model.NewAssignment(units[i].classID, units[i].subjectID, opts[0].teacherID, opts[0].slot)
			schedCtx.AddAssignment(a)
		}
	}

	result.Assignments = schedCtx.Assignments
	result.Unplaced = s.collectUnplaced(schedCtx, units, skipped)
	result.BudgetExhausted = budgetExhausted
	result.ConstraintResult = s.constraintManager.Evaluate(schedCtx)
	result.Duration = time.Since(startTime)

	result.Statistics.TotalAssignments = len(result.Assignments)
	result.Statistics.PlacedPeriods = len(result.Assignments)
	result.Statistics.Iterations = iterations
	result.Statistics.Backtracks = backtracks
	if result.Statistics.TotalPeriods > 0 {
		result.Statistics.FillRate = float64(result.Statistics.PlacedPeriods) /
			float64(result.Statistics.TotalPeriods) * 100
	}

	result.Success = result.ConstraintResult.IsValid && len(result.Unplaced) == 0 && !budgetExhausted
	switch {
	case budgetExhausted:
		result.Message = fmt.Sprintf("搜索预算耗尽，已安排 %d/%d 课时",
			result.Statistics.PlacedPeriods, result.Statistics.TotalPeriods)
	case len(result.Unplaced) > 0:
		result.Message = fmt.Sprintf("存在 %d 项无法安排的课时需求", len(result.Unplaced))
	case !result.ConstraintResult.IsValid:
		result.Message = fmt.Sprintf("存在 %d 个硬约束违反", len(result.ConstraintResult.HardViolations))
	default:
		result.Message = fmt.Sprintf("排课成功，满足率 %.1f%%", result.Statistics.FillRate)
	}

	s.logger.GenerationComplete(schedCtx.UserID.String(), result.Duration, result.ConstraintResult.Score)
	return result, nil
}

// buildUnits 把课时需求展开为单节课时，按稀缺度排序
// 可授教师少的课程先排，其次节数多的、优先级高的先排
func (s *SmartSolver) buildUnits(schedCtx *constraint.Context) []unit {
	type demandInfo struct {
		demand     model.SubjectDemand
		candidates int
		priority   int
		sortKey    string
	}

	infos := make([]demandInfo, 0, len(schedCtx.Demands))
	for _, d := range schedCtx.Demands {
		if d.Periods <= 0 {
			continue
		}
		info := demandInfo{demand: d, candidates: len(s.candidates(schedCtx, d.SubjectID))}
		if subj := schedCtx.GetSubject(d.SubjectID); subj != nil {
			info.priority = schedCtx.Config.SubjectPriorities[subj.Name]
			info.sortKey = subj.Name
		}
		if cg := schedCtx.GetClass(d.ClassID); cg != nil {
			info.sortKey = cg.Code + "|" + info.sortKey
		}
		infos = append(infos, info)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].candidates != infos[j].candidates {
			return infos[i].candidates < infos[j].candidates
		}
		if infos[i].demand.Periods != infos[j].demand.Periods {
			return infos[i].demand.Periods > infos[j].demand.Periods
		}
		if infos[i].priority != infos[j].priority {
			return infos[i].priority > infos[j].priority
		}
		return infos[i].sortKey < infos[j].sortKey
	})

	var units []unit
	for _, info := range infos {
		for p := 0; p < info.demand.Periods; p++ {
			units = append(units, unit{classID: info.demand.ClassID, subjectID: info.demand.SubjectID})
		}
	}
	return units
}

// candidates 返回课程的可授教师，缓存未命中时现算
func (s *SmartSolver) candidates(schedCtx *constraint.Context, subjectID uuid.UUID) []*model.Teacher {
	if cached := schedCtx.CandidateTeachers(subjectID); cached != nil {
		return cached
	}
	subj := schedCtx.GetSubject(subjectID)
	if subj == nil {
		return nil
	}
	var out []*model.Teacher
	for _, t := range schedCtx.Teachers {
		if t.CanTeach(subj) {
			out = append(out, t)
		}
	}
	schedCtx.SetCandidates(subjectID, out)
	return out
}

// buildOptions 枚举课时的可行 (教师, 时段) 选项，按软约束代价升序
// 先用种子随机打乱再稳定排序，等代价选项的先后由种子决定
func (s *SmartSolver) buildOptions(schedCtx *constraint.Context, u unit, rng *rand.Rand) []option {
	var options []option
	for _, t := range s.candidates(schedCtx, u.subjectID) {
		for _, slot := range schedCtx.Slots {
			pending := model.NewAssignment(u.classID, u.subjectID, t.ID, slot)
			if ok, _ := s.constraintManager.CanAssign(schedCtx, pending); !ok {
				continue
			}
			penalty := s.constraintManager.GetPenalty(schedCtx, pending)
			options = append(options, option{teacherID: t.ID, slot: slot, penalty: penalty})
		}
	}

	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].penalty < options[j].penalty
	})
	return options
}

// collectUnplaced 汇总未能安排的课时，按 (班级, 课程) 聚合
func (s *SmartSolver) collectUnplaced(schedCtx *constraint.Context, units []unit, skipped []bool) []UnplacedUnit {
	missing := make(map[unit]int)
	var order []unit
	for i, u := range units {
		if !skipped[i] {
			continue
		}
		if missing[u] == 0 {
			order = append(order, u)
		}
		missing[u]++
	}

	var out []UnplacedUnit
	for _, u := range order {
		up := UnplacedUnit{
			ClassID:   u.classID,
			SubjectID: u.subjectID,
			Missing:   missing[u],
			Reason:    "没有满足硬约束的可用时段",
		}
		if cg := schedCtx.GetClass(u.classID); cg != nil {
			up.Class = cg.Name
		}
		if subj := schedCtx.GetSubject(u.subjectID); subj != nil {
			up.Subject = subj.Name
		}
		s.logger.UnplacedUnit(up.Class, up.Subject, up.Missing)
		out = append(out, up)
	}
	return out
}
