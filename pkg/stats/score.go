// Package stats 提供课表统计分析功能
package stats

import (
	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/model"
)

// 综合得分的各维度权重，总和为100
const (
	conflictWeight    = 45.0 // 冲突
	fulfillmentWeight = 25.0 // 需求满足率
	preferenceWeight  = 15.0 // 偏好满足度
	utilizationWeight = 15.0 // 教师利用率
)

// 利用率理想区间
const (
	optimalUtilLow  = 80.0
	optimalUtilHigh = 100.0
)

// Scorer 课表评分器
// 得分在 0-100 之间：冲突更少、满足率更高、偏好更符合则得分单调更高
type Scorer struct {
	config model.GenerationConfig
}

// NewScorer 创建评分器
func NewScorer(cfg model.GenerationConfig) *Scorer {
	return &Scorer{config: cfg}
}

// Efficiency 计算课表效率指标
// totalDemand 为本次生成的总课时需求数，conflicts 为校验器输出的冲突列表
func (s *Scorer) Efficiency(
	teachers []*model.Teacher,
	subjects []*model.Subject,
	assignments []*model.Assignment,
	conflicts []string,
	totalDemand int,
) model.EfficiencyMetrics {
	metrics := model.EfficiencyMetrics{}

	// 冲突率
	base := len(assignments)
	if base == 0 {
		base = 1
	}
	metrics.ConflictRatio = clamp01(float64(len(conflicts)) / float64(base))

	// 需求满足率
	if totalDemand > 0 {
		metrics.FulfillmentRate = clamp01(float64(len(assignments)) / float64(totalDemand))
	} else {
		metrics.FulfillmentRate = 1
	}

	// 平均利用率
	metrics.AvgUtilizationPercent = s.avgUtilization(teachers, assignments)

	// 偏好满足度
	metrics.PreferenceSatisfaction = s.preferenceSatisfaction(teachers, subjects, assignments)

	score := 100.0
	score -= conflictWeight * metrics.ConflictRatio
	score -= fulfillmentWeight * (1 - metrics.FulfillmentRate)
	score -= preferenceWeight * (1 - metrics.PreferenceSatisfaction)
	score -= utilizationWeight * utilizationPenalty(metrics.AvgUtilizationPercent)

	if score < 0 {
		score = 0
	}
	metrics.Score = score
	return metrics
}

// avgUtilization 计算有排课教师的平均利用率
func (s *Scorer) avgUtilization(teachers []*model.Teacher, assignments []*model.Assignment) float64 {
	loads := make(map[uuid.UUID]int)
	for _, a := range assignments {
		loads[a.TeacherID]++
	}

	total := 0.0
	active := 0
	for _, t := range teachers {
		if loads[t.ID] == 0 {
			continue
		}
		total += Utilization(loads[t.ID], t.MaxCredits)
		active++
	}
	if active == 0 {
		return 0
	}
	return total / float64(active)
}

// preferenceSatisfaction 计算配置偏好的满足比例
// 没有配置任何偏好时视为完全满足
func (s *Scorer) preferenceSatisfaction(
	teachers []*model.Teacher,
	subjects []*model.Subject,
	assignments []*model.Assignment,
) float64 {
	if len(s.config.TimePreferences) == 0 && len(s.config.TeacherPreferences) == 0 {
		return 1
	}

	subjectNames := make(map[uuid.UUID]string, len(subjects))
	for _, subj := range subjects {
		subjectNames[subj.ID] = subj.Name
	}
	teacherNames := make(map[uuid.UUID]string, len(teachers))
	for _, t := range teachers {
		teacherNames[t.ID] = t.Name
	}

	checked := 0
	satisfied := 0
	for _, a := range assignments {
		name := subjectNames[a.SubjectID]

		if periods, ok := s.config.TimePreferences[name]; ok && len(periods) > 0 {
			checked++
			for _, p := range periods {
				if p == a.Slot.Period {
					satisfied++
					break
				}
			}
		}
		if wanted, ok := s.config.TeacherPreferences[name]; ok && wanted != "" {
			checked++
			if teacherNames[a.TeacherID] == wanted {
				satisfied++
			}
		}
	}
	if checked == 0 {
		return 1
	}
	return float64(satisfied) / float64(checked)
}

// utilizationPenalty 返回利用率偏离理想区间的归一化惩罚 (0-1)
func utilizationPenalty(avgUtil float64) float64 {
	switch {
	case avgUtil >= optimalUtilLow && avgUtil <= optimalUtilHigh:
		return 0
	case avgUtil < optimalUtilLow:
		return clamp01((optimalUtilLow - avgUtil) / optimalUtilLow)
	default:
		return clamp01((avgUtil - optimalUtilHigh) / optimalUtilHigh)
	}
}

// clamp01 把值收敛到 [0, 1]
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AnalysisInput 课表分析输入
type AnalysisInput struct {
	Method      model.GenerationMethod
	Teachers    []*model.Teacher
	Subjects    []*model.Subject
	Assignments []*model.Assignment
	Conflicts   []string
	TotalDemand int
	Config      model.GenerationConfig
}

// Analyze 生成完整的课表分析结果
func Analyze(in AnalysisInput) *model.AnalyticsResult {
	issues := in.Conflicts
	if issues == nil {
		issues = []string{}
	}
	return &model.AnalyticsResult{
		GenerationMethod: in.Method,
		TeacherWorkload:  NewWorkloadAnalyzer().Report(in.Teachers, in.Assignments),
		ValidationIssues: issues,
		ScheduleStats:    ComputeScheduleStats(in.Assignments),
		Efficiency: NewScorer(in.Config).Efficiency(
			in.Teachers, in.Subjects, in.Assignments, in.Conflicts, in.TotalDemand),
	}
}
