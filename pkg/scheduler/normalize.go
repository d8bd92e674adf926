// Package scheduler 课表生成引擎的门面：归一化、生成、批量变体
package scheduler

import (
	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/errors"
	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
)

// Input 一次生成运行的原始输入
type Input struct {
	UserID   uuid.UUID
	Teachers []*model.Teacher
	Subjects []*model.Subject
	Classes  []*model.ClassGroup
	Config   model.GenerationConfig
}

// Normalize 校验原始输入并构建排课上下文
// 校验失败返回 INVALID_INPUT / NO_COMPATIBLE_TEACHER 类错误，属于致命错误
func Normalize(in Input) (*constraint.Context, error) {
	if len(in.Subjects) == 0 {
		return nil, errors.InvalidInput("subjects", "没有可排的课程")
	}
	if len(in.Teachers) == 0 {
		return nil, errors.InvalidInput("teachers", "没有可用教师")
	}
	if len(in.Classes) == 0 {
		return nil, errors.InvalidInput("classes", "没有需要排课的班级")
	}

	classes, err := selectClasses(in.Classes, in.Config.SelectedClasses)
	if err != nil {
		return nil, err
	}

	slots, err := model.BuildGrid(in.Config.GridConfig())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "课表网格配置无效")
	}

	ctx := constraint.NewContext(in.UserID)
	ctx.Config = in.Config
	ctx.SetSubjects(in.Subjects)
	ctx.SetClasses(classes)
	ctx.SetTeachers(in.Teachers)
	ctx.SetSlots(slots)

	demands, err := deriveDemands(ctx, classes, in.Subjects)
	if err != nil {
		return nil, err
	}
	ctx.Demands = demands

	// 归一化阶段一次性解析可授教师，零候选视为致命输入错误
	seen := make(map[uuid.UUID]bool)
	for _, d := range demands {
		if seen[d.SubjectID] {
			continue
		}
		seen[d.SubjectID] = true

		subj := ctx.GetSubject(d.SubjectID)
		var candidates []*model.Teacher
		for _, t := range in.Teachers {
			if t.CanTeach(subj) {
				candidates = append(candidates, t)
			}
		}
		if len(candidates) == 0 {
			return nil, errors.NoCompatibleTeacher(subj.Name)
		}
		ctx.SetCandidates(d.SubjectID, candidates)
	}

	return ctx, nil
}

// selectClasses 按配置筛选班级，匹配班级代码或名称
func selectClasses(classes []*model.ClassGroup, selected []string) ([]*model.ClassGroup, error) {
	if len(selected) == 0 {
		return classes, nil
	}

	wanted := make(map[string]bool, len(selected))
	for _, s := range selected {
		wanted[s] = true
	}

	var out []*model.ClassGroup
	for _, cg := range classes {
		if wanted[cg.Code] || wanted[cg.Name] {
			out = append(out, cg)
		}
	}
	if len(out) == 0 {
		return nil, errors.InvalidInput("selected_classes", "筛选后没有任何班级")
	}
	return out, nil
}

// deriveDemands 推导每个班级的课时需求
// 班级显式关联课程时使用关联列表，否则回退为同院系课程
func deriveDemands(ctx *constraint.Context, classes []*model.ClassGroup, subjects []*model.Subject) ([]model.SubjectDemand, error) {
	var demands []model.SubjectDemand

	for _, cg := range classes {
		var classSubjects []*model.Subject

		if len(cg.SubjectIDs) > 0 {
			for _, id := range cg.SubjectIDs {
				subj := ctx.GetSubject(id)
				if subj == nil {
					return nil, errors.InvalidInput("subject_ids",
						"班级 "+cg.Name+" 引用了不存在的课程 "+id.String())
				}
				classSubjects = append(classSubjects, subj)
			}
		} else {
			for _, subj := range subjects {
				if subj.Department == cg.Department {
					classSubjects = append(classSubjects, subj)
				}
			}
		}

		if len(classSubjects) == 0 {
			return nil, errors.InvalidInput("classes",
				"班级 "+cg.Name+" 没有任何可排课程")
		}

		for _, subj := range classSubjects {
			periods := subj.RequiredPeriods()
			if periods <= 0 {
				continue
			}
			demands = append(demands, model.SubjectDemand{
				ClassID:   cg.ID,
				SubjectID: subj.ID,
				Periods:   periods,
			})
		}
	}

	if len(demands) == 0 {
		return nil, errors.InvalidInput("subjects", "所有课程的学分均为0，没有课时需求")
	}
	return demands, nil
}

// TotalDemand 返回上下文的总课时需求数
func TotalDemand(ctx *constraint.Context) int {
	total := 0
	for _, d := range ctx.Demands {
		total += d.Periods
	}
	return total
}
