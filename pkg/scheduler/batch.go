// Package scheduler 课表生成引擎的门面：归一化、生成、批量变体
package scheduler

import (
	"context"
	"sort"
	"sync"

	"github.com/kebiao/kebiao/pkg/errors"
	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint/builtin"
	"github.com/kebiao/kebiao/pkg/scheduler/solver"
	"github.com/kebiao/kebiao/pkg/stats"
)

// 批量变体数量边界
const (
	MinVariations = 1
	MaxVariations = 10
)

// BatchGenerator 批量变体生成器
// 从同一基准种子派生 N 个独立种子并行求解，按得分降序返回候选课表
type BatchGenerator struct {
	generator *Generator
	workers   int
}

// NewBatchGenerator 创建批量变体生成器
func NewBatchGenerator() *BatchGenerator {
	return &BatchGenerator{
		generator: NewGenerator(),
		workers:   4,
	}
}

// SetWorkers 设置并行工作协程数
func (b *BatchGenerator) SetWorkers(workers int) {
	if workers > 0 {
		b.workers = workers
	}
}

// Generate 生成 N 个课表变体
// 变体数量收敛到 [1, 10]，结果按得分降序排列并重新编号
func (b *BatchGenerator) Generate(ctx context.Context, in Input, count int, baseSeed int64) ([]*model.Variation, error) {
	if count < MinVariations {
		count = MinVariations
	}
	if count > MaxVariations {
		count = MaxVariations
	}

	// 归一化一次，每个变体在独立的上下文副本上求解
	baseCtx, err := Normalize(in)
	if err != nil {
		return nil, err
	}
	totalDemand := TotalDemand(baseCtx)

	type job struct {
		index int
		seed  int64
	}
	type result struct {
		index int
		v     *model.Variation
	}
	jobChan := make(chan job, count)
	resultChan := make(chan result, count)

	var wg sync.WaitGroup
	workers := b.workers
	if workers > count {
		workers = count
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if v := b.solveVariation(ctx, in, baseCtx, totalDemand, j.seed); v != nil {
					resultChan <- result{index: j.index, v: v}
				}
			}
		}()
	}

	go func() {
		for i := 0; i < count; i++ {
			// 质数步长派生种子，避免相邻变体探索过于接近
			jobChan <- job{index: i, seed: baseSeed + int64(i)*7919}
		}
		close(jobChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// 按种子派生顺序归位后再排序，得分相同时保持派生顺序，
	// 同一基准种子的重复调用才能产出相同的排名
	ordered := make([]*model.Variation, count)
	for r := range resultChan {
		ordered[r.index] = r.v
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var variations []*model.Variation
	for _, v := range ordered {
		if v != nil {
			variations = append(variations, v)
		}
	}
	if len(variations) == 0 {
		return nil, errors.ErrNoFeasibleSolution
	}

	// 按得分降序排名，重新编号为 1..N
	sort.SliceStable(variations, func(i, j int) bool {
		return variations[i].Score > variations[j].Score
	})
	for i, v := range variations {
		v.Index = i + 1
	}
	return variations, nil
}

// solveVariation 求解单个变体
func (b *BatchGenerator) solveVariation(ctx context.Context, in Input, baseCtx *constraint.Context, totalDemand int, seed int64) *model.Variation {
	schedCtx := baseCtx.Fork()

	manager := constraint.NewManager()
	builtin.RegisterDefaultConstraints(manager, in.Config)

	res, err := solver.NewSmartSolver(manager, seed).Solve(ctx, schedCtx)
	if err != nil {
		return nil
	}

	conflicts := b.generator.validator.Validate(in.Teachers, in.Subjects, in.Classes, res.Assignments)
	metrics := stats.NewScorer(in.Config).Efficiency(
		in.Teachers, in.Subjects, res.Assignments, conflicts.Conflicts, totalDemand)

	return &model.Variation{
		Timetable:       RenderResult(schedCtx, res.Assignments),
		TeacherWorkload: stats.NewWorkloadAnalyzer().Report(in.Teachers, res.Assignments),
		Score:           metrics.Score,
	}
}
