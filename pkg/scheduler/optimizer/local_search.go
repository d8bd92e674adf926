// Package optimizer 提供课表优化算法
package optimizer

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/kebiao/kebiao/pkg/logger"
	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
)

// Config 优化配置
type Config struct {
	MaxIterations    int           `json:"max_iterations"`    // 最大迭代次数
	MaxTime          time.Duration `json:"max_time"`          // 最大运行时间
	TabuSize         int           `json:"tabu_size"`         // 禁忌表大小
	NeighborhoodSize int           `json:"neighborhood_size"` // 每轮生成的邻域解数量
	StopOnPlateau    bool          `json:"stop_on_plateau"`   // 平台期停止
	PlateauThreshold int           `json:"plateau_threshold"` // 平台期阈值（无改进迭代次数）
}

// DefaultConfig 默认优化配置
func DefaultConfig() *Config {
	return &Config{
		MaxIterations:    500,
		MaxTime:          15 * time.Second,
		TabuSize:         50,
		NeighborhoodSize: 20,
		StopOnPlateau:    true,
		PlateauThreshold: 80,
	}
}

// Solution 一个候选课表方案
type Solution struct {
	Assignments   []*model.Assignment
	Score         float64
	HardConflicts int
}

// Clone 深拷贝方案
func (s *Solution) Clone() *Solution {
	clone := &Solution{
		Assignments:   make([]*model.Assignment, len(s.Assignments)),
		Score:         s.Score,
		HardConflicts: s.HardConflicts,
	}
	for i, a := range s.Assignments {
		clone.Assignments[i] = a.Clone()
	}
	return clone
}

// betterThan 判断方案是否严格优于另一方案
// 先比硬约束违反数，再比软约束得分
func (s *Solution) betterThan(other *Solution) bool {
	if s.HardConflicts != other.HardConflicts {
		return s.HardConflicts < other.HardConflicts
	}
	return s.Score > other.Score
}

// Report 优化报告
type Report struct {
	InitialScore  float64       `json:"initial_score"`
	FinalScore    float64       `json:"final_score"`
	InitialHard   int           `json:"initial_hard_conflicts"`
	FinalHard     int           `json:"final_hard_conflicts"`
	Iterations    int           `json:"iterations"`
	AcceptedMoves int           `json:"accepted_moves"`
	Improved      bool          `json:"improved"`
	Duration      time.Duration `json:"duration"`
}

// LocalSearchOptimizer 局部搜索优化器
// 只接受不增加硬冲突且不降低得分的移动，优化永不使课表变差
type LocalSearchOptimizer struct {
	config    *Config
	manager   *constraint.Manager
	neighbors *NeighborhoodGenerator
	tabuList  *TabuList
	rng       *rand.Rand
	logger    *logger.GeneratorLogger
}

// NewLocalSearchOptimizer 创建局部搜索优化器
func NewLocalSearchOptimizer(config *Config, cm *constraint.Manager, seed int64) *LocalSearchOptimizer {
	if config == nil {
		config = DefaultConfig()
	}
	rng := rand.New(rand.NewSource(seed))
	return &LocalSearchOptimizer{
		config:    config,
		manager:   cm,
		neighbors: NewNeighborhoodGenerator(rng),
		tabuList:  NewTabuList(config.TabuSize),
		rng:       rng,
		logger:    logger.NewGeneratorLogger(),
	}
}

// Optimize 在已有课表上做有界局部搜索
// 返回的课表不会比输入差；无改进时返回输入的副本
func (o *LocalSearchOptimizer) Optimize(ctx context.Context, schedCtx *constraint.Context, tt *model.Timetable) (*model.Timetable, *Report, error) {
	start := time.Now()

	current := o.evaluate(schedCtx, cloneAssignments(tt.Assignments))
	best := current.Clone()

	report := &Report{
		InitialScore: current.Score,
		InitialHard:  current.HardConflicts,
	}

	noImprovement := 0

	for i := 0; i < o.config.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			report.Iterations = i
			o.finish(report, best, start)
			return o.toTimetable(tt, best), report, ctx.Err()
		default:
		}

		if time.Since(start) > o.config.MaxTime {
			report.Iterations = i
			break
		}
		report.Iterations = i + 1

		candidate := o.bestNeighbor(schedCtx, current)
		if candidate == nil {
			noImprovement++
		} else {
			moveKey := hashAssignments(candidate.Assignments)
			if o.tabuList.Contains(moveKey) || !candidate.betterThan(current) {
				// 不优于当前解的邻域解一律拒绝
				noImprovement++
			} else {
				current = candidate
				o.tabuList.Add(moveKey)
				if current.betterThan(best) {
					best = current.Clone()
					noImprovement = 0
				} else {
					noImprovement++
				}
			}
		}

		if o.config.StopOnPlateau && noImprovement >= o.config.PlateauThreshold {
			break
		}
	}

	o.finish(report, best, start)
	return o.toTimetable(tt, best), report, nil
}

// bestNeighbor 生成邻域解并返回其中最优者
func (o *LocalSearchOptimizer) bestNeighbor(schedCtx *constraint.Context, current *Solution) *Solution {
	var best *Solution
	for i := 0; i < o.config.NeighborhoodSize; i++ {
		assignments := o.neighbors.GenerateNeighbor(schedCtx, current.Assignments)
		if assignments == nil {
			continue
		}
		candidate := o.evaluate(schedCtx, assignments)
		if best == nil || candidate.betterThan(best) {
			best = candidate
		}
	}
	return best
}

// evaluate 在独立上下文中评估分配集合
func (o *LocalSearchOptimizer) evaluate(schedCtx *constraint.Context, assignments []*model.Assignment) *Solution {
	evalCtx := schedCtx.Fork()
	evalCtx.SetAssignments(assignments)
	result := o.manager.Evaluate(evalCtx)
	return &Solution{
		Assignments:   assignments,
		Score:         result.Score,
		HardConflicts: len(result.HardViolations),
	}
}

// finish 填充报告尾部字段
func (o *LocalSearchOptimizer) finish(report *Report, best *Solution, start time.Time) {
	report.FinalScore = best.Score
	report.FinalHard = best.HardConflicts
	report.Improved = best.Score > report.InitialScore || best.HardConflicts < report.InitialHard
	report.Duration = time.Since(start)

	logger.Get().Info().
		Float64("initial_score", report.InitialScore).
		Float64("final_score", report.FinalScore).
		Int("iterations", report.Iterations).
		Bool("improved", report.Improved).
		Dur("duration", report.Duration).
		Msg("局部搜索优化完成")
}

// toTimetable 把最优方案包装为新课表
func (o *LocalSearchOptimizer) toTimetable(base *model.Timetable, best *Solution) *model.Timetable {
	tt := model.NewTimetable(base.UserID, base.Method, best.Assignments)
	return tt
}

// cloneAssignments 深拷贝分配列表
func cloneAssignments(assignments []*model.Assignment) []*model.Assignment {
	out := make([]*model.Assignment, len(assignments))
	for i, a := range assignments {
		out[i] = a.Clone()
	}
	return out
}

// hashAssignments 计算分配集合的哈希 (使用FNV-1a算法)
func hashAssignments(assignments []*model.Assignment) uint64 {
	if len(assignments) == 0 {
		return 0
	}
	h := fnv.New64a()
	for _, a := range assignments {
		h.Write(a.ClassID[:])
		h.Write(a.SubjectID[:])
		h.Write(a.TeacherID[:])
		h.Write([]byte{byte(a.Slot.Index), byte(a.Slot.Index >> 8)})
	}
	return h.Sum64()
}

// TabuList 禁忌表（使用uint64哈希作为键提高性能）
type TabuList struct {
	items   map[uint64]struct{}
	order   []uint64
	maxSize int
	mu      sync.RWMutex
}

// NewTabuList 创建禁忌表
func NewTabuList(size int) *TabuList {
	return &TabuList{
		items:   make(map[uint64]struct{}),
		order:   make([]uint64, 0, size),
		maxSize: size,
	}
}

// Add 添加到禁忌表
func (t *TabuList) Add(key uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.items[key]; exists {
		return
	}

	// 超出容量时移除最旧的
	if len(t.order) >= t.maxSize {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.items, oldest)
	}

	t.items[key] = struct{}{}
	t.order = append(t.order, key)
}

// Contains 检查是否在禁忌表中
func (t *TabuList) Contains(key uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.items[key]
	return exists
}

// Clear 清空禁忌表
func (t *TabuList) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[uint64]struct{})
	t.order = t.order[:0]
}
