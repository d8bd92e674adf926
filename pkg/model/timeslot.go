// Package model 定义课表引擎的核心数据模型
package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeSlot 课表网格中的一个 (星期, 节次) 坐标
type TimeSlot struct {
	Index      int    `json:"index"` // 网格内的线性下标 dayIdx*periodsPerDay+periodIdx
	Day        string `json:"day"`
	Period     int    `json:"period"`
	StartTime  string `json:"start_time"` // HH:MM
	EndTime    string `json:"end_time"`   // HH:MM
	AfterBreak bool   `json:"after_break,omitempty"`
	AfterLunch bool   `json:"after_lunch,omitempty"`
}

// String 返回可读描述
func (ts TimeSlot) String() string {
	return fmt.Sprintf("%s P%d (%s-%s)", ts.Day, ts.Period, ts.StartTime, ts.EndTime)
}

// PeriodTime 节次时间配置，Time 格式 "HH:MM-HH:MM"
type PeriodTime struct {
	Period int    `json:"period"`
	Time   string `json:"time"`
}

// GridConfig 课表网格配置
type GridConfig struct {
	Days          []string     `json:"days"`
	TimeSlots     []PeriodTime `json:"time_slots"`
	BreakDuration int          `json:"break_duration,omitempty"` // 课间休息分钟数，默认30
	LunchBreak    bool         `json:"lunch_break,omitempty"`
}

// DefaultGridConfig 返回默认网格：6天 x 6节
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Days: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		TimeSlots: []PeriodTime{
			{Period: 1, Time: "09:00-10:00"},
			{Period: 2, Time: "10:00-11:00"},
			{Period: 3, Time: "11:30-12:30"},
			{Period: 4, Time: "12:30-13:30"},
			{Period: 5, Time: "14:30-15:30"},
			{Period: 6, Time: "15:30-16:30"},
		},
		BreakDuration: 30,
		LunchBreak:    true,
	}
}

// BuildGrid 根据配置构建课表网格
// 纯函数；仅在天数或节次为空、时间格式非法时失败
func BuildGrid(cfg GridConfig) ([]TimeSlot, error) {
	if len(cfg.Days) == 0 {
		return nil, fmt.Errorf("网格配置缺少天数")
	}
	if len(cfg.TimeSlots) == 0 {
		return nil, fmt.Errorf("网格配置缺少节次")
	}

	breakDur := cfg.BreakDuration
	if breakDur <= 0 {
		breakDur = 30
	}

	type periodSpec struct {
		period     int
		start, end string
		afterBreak bool
		afterLunch bool
	}

	specs := make([]periodSpec, 0, len(cfg.TimeSlots))
	var prevEnd time.Time
	for i, pt := range cfg.TimeSlots {
		start, end, err := parsePeriodTime(pt.Time)
		if err != nil {
			return nil, fmt.Errorf("节次 %d 时间非法: %w", pt.Period, err)
		}
		spec := periodSpec{period: pt.Period, start: start.Format("15:04"), end: end.Format("15:04")}
		if spec.period == 0 {
			spec.period = i + 1
		}
		if i > 0 {
			gap := start.Sub(prevEnd)
			if gap >= time.Duration(breakDur)*time.Minute {
				if cfg.LunchBreak && gap > time.Duration(breakDur)*time.Minute {
					spec.afterLunch = true
				} else {
					spec.afterBreak = true
				}
			}
		}
		prevEnd = end
		specs = append(specs, spec)
	}

	grid := make([]TimeSlot, 0, len(cfg.Days)*len(specs))
	for di, day := range cfg.Days {
		for pi, spec := range specs {
			grid = append(grid, TimeSlot{
				Index:      di*len(specs) + pi,
				Day:        day,
				Period:     spec.period,
				StartTime:  spec.start,
				EndTime:    spec.end,
				AfterBreak: spec.afterBreak,
				AfterLunch: spec.afterLunch,
			})
		}
	}
	return grid, nil
}

// parsePeriodTime 解析 "HH:MM-HH:MM"
func parsePeriodTime(s string) (start, end time.Time, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return start, end, fmt.Errorf("期望 HH:MM-HH:MM，实际 %q", s)
	}
	start, err = time.Parse("15:04", strings.TrimSpace(parts[0]))
	if err != nil {
		return start, end, err
	}
	end, err = time.Parse("15:04", strings.TrimSpace(parts[1]))
	if err != nil {
		return start, end, err
	}
	if !end.After(start) {
		return start, end, fmt.Errorf("结束时间须晚于开始时间: %q", s)
	}
	return start, end, nil
}
