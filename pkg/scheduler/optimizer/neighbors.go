// Package optimizer 提供课表优化算法
package optimizer

import (
	"math/rand"

	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
)

// MoveType 邻域移动类型
type MoveType int

const (
	MoveRelocate    MoveType = iota // 把一节课移到空闲时段
	MoveSwapSlots                   // 交换同一班级两节课的时段
	MoveSwapTeacher                 // 换一位可授教师
)

// NeighborhoodGenerator 邻域生成器
type NeighborhoodGenerator struct {
	rng         *rand.Rand
	moveWeights map[MoveType]float64
}

// NewNeighborhoodGenerator 创建邻域生成器
func NewNeighborhoodGenerator(rng *rand.Rand) *NeighborhoodGenerator {
	return &NeighborhoodGenerator{
		rng: rng,
		moveWeights: map[MoveType]float64{
			MoveRelocate:    0.45, // 45% 移动时段
			MoveSwapSlots:   0.35, // 35% 交换时段
			MoveSwapTeacher: 0.20, // 20% 更换教师
		},
	}
}

// SetMoveWeights 设置移动类型权重
func (n *NeighborhoodGenerator) SetMoveWeights(weights map[MoveType]float64) {
	n.moveWeights = weights
}

// GenerateNeighbor 生成邻域解，失败返回 nil
func (n *NeighborhoodGenerator) GenerateNeighbor(schedCtx *constraint.Context, current []*model.Assignment) []*model.Assignment {
	if len(current) == 0 {
		return nil
	}

	switch n.selectMoveType() {
	case MoveSwapSlots:
		return n.swapSlotsMove(current)
	case MoveSwapTeacher:
		return n.swapTeacherMove(schedCtx, current)
	default:
		return n.relocateMove(schedCtx, current)
	}
}

// selectMoveType 按权重选择移动类型
func (n *NeighborhoodGenerator) selectMoveType() MoveType {
	r := n.rng.Float64()
	cumulative := 0.0

	for moveType, weight := range n.moveWeights {
		cumulative += weight
		if r < cumulative {
			return moveType
		}
	}

	return MoveRelocate
}

// relocateMove 把随机一节课移到该班级空闲的时段
func (n *NeighborhoodGenerator) relocateMove(schedCtx *constraint.Context, current []*model.Assignment) []*model.Assignment {
	if len(schedCtx.Slots) == 0 {
		return nil
	}

	neighbor := cloneAssignments(current)
	idx := n.rng.Intn(len(neighbor))
	target := neighbor[idx]

	// 该班级已占用的时段
	occupied := make(map[int]bool)
	for _, a := range neighbor {
		if a.ClassID == target.ClassID {
			occupied[a.Slot.Index] = true
		}
	}

	var free []model.TimeSlot
	for _, slot := range schedCtx.Slots {
		if !occupied[slot.Index] {
			free = append(free, slot)
		}
	}
	if len(free) == 0 {
		return nil
	}

	target.Slot = free[n.rng.Intn(len(free))]
	return neighbor
}

// swapSlotsMove 交换同一班级两节课的时段
func (n *NeighborhoodGenerator) swapSlotsMove(current []*model.Assignment) []*model.Assignment {
	if len(current) < 2 {
		return nil
	}

	neighbor := cloneAssignments(current)
	i := n.rng.Intn(len(neighbor))

	// 在同班级内找第二节课
	var sameClass []int
	for j, a := range neighbor {
		if j != i && a.ClassID == neighbor[i].ClassID {
			sameClass = append(sameClass, j)
		}
	}
	if len(sameClass) == 0 {
		return nil
	}
	j := sameClass[n.rng.Intn(len(sameClass))]

	neighbor[i].Slot, neighbor[j].Slot = neighbor[j].Slot, neighbor[i].Slot
	return neighbor
}

// swapTeacherMove 为随机一节课换一位可授教师
func (n *NeighborhoodGenerator) swapTeacherMove(schedCtx *constraint.Context, current []*model.Assignment) []*model.Assignment {
	neighbor := cloneAssignments(current)
	idx := n.rng.Intn(len(neighbor))
	target := neighbor[idx]

	candidates := schedCtx.CandidateTeachers(target.SubjectID)
	if len(candidates) == 0 {
		subj := schedCtx.GetSubject(target.SubjectID)
		if subj == nil {
			return nil
		}
		for _, t := range schedCtx.Teachers {
			if t.CanTeach(subj) {
				candidates = append(candidates, t)
			}
		}
	}

	var others []*model.Teacher
	for _, t := range candidates {
		if t.ID != target.TeacherID {
			others = append(others, t)
		}
	}
	if len(others) == 0 {
		return nil
	}

	target.TeacherID = others[n.rng.Intn(len(others))].ID
	return neighbor
}
