// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kebiao/kebiao/pkg/model"
)

// TimetableRecord 持久化的课表生成结果
// 课表本体、分析与冲突以 JSONB 存储，每个用户只保留最新一份
type TimetableRecord struct {
	ID        uuid.UUID               `json:"id"`
	UserID    uuid.UUID               `json:"user_id"`
	Method    model.GenerationMethod  `json:"generation_method"`
	Score     float64                 `json:"score"`
	Result    *model.GenerationResult `json:"timetable"`
	Raw       *model.Timetable        `json:"-"` // 原始分配，重新优化时需要
	Analytics *model.AnalyticsResult  `json:"analytics,omitempty"`
	Conflicts *model.ConflictsResult  `json:"conflicts,omitempty"`
	Warnings  []string                `json:"warnings,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// TimetableRepository 课表仓储
// 写入按用户串行化：同一用户的旧课表在同一事务内被替换
type TimetableRepository struct {
	db Transactor
}

// NewTimetableRepository 创建课表仓储
func NewTimetableRepository(db Transactor) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// Save 保存生成结果，替换该用户已有的课表
func (r *TimetableRepository) Save(ctx context.Context, rec *TimetableRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()

	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("序列化课表失败: %w", err)
	}
	rawJSON, _ := json.Marshal(rec.Raw)
	analyticsJSON, _ := json.Marshal(rec.Analytics)
	conflictsJSON, _ := json.Marshal(rec.Conflicts)
	warningsJSON, _ := json.Marshal(rec.Warnings)

	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM timetables WHERE user_id = $1`, rec.UserID); err != nil {
			return fmt.Errorf("清除旧课表失败: %w", err)
		}

		query := `
			INSERT INTO timetables (
				id, user_id, generation_method, score,
				result, raw, analytics, conflicts, warnings, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		if _, err := tx.ExecContext(ctx, query,
			rec.ID, rec.UserID, string(rec.Method), rec.Score,
			resultJSON, rawJSON, analyticsJSON, conflictsJSON, warningsJSON, rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("写入课表失败: %w", err)
		}
		return nil
	})
}

// GetByUser 获取某用户的课表，不存在时返回 nil
func (r *TimetableRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*TimetableRecord, error) {
	query := `
		SELECT id, user_id, generation_method, score,
			result, raw, analytics, conflicts, warnings, created_at
		FROM timetables
		WHERE user_id = $1
	`

	rec := &TimetableRecord{}
	var method string
	var resultJSON, rawJSON, analyticsJSON, conflictsJSON, warningsJSON []byte

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&rec.ID, &rec.UserID, &method, &rec.Score,
		&resultJSON, &rawJSON, &analyticsJSON, &conflictsJSON, &warningsJSON, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询课表失败: %w", err)
	}

	rec.Method = model.GenerationMethod(method)
	json.Unmarshal(resultJSON, &rec.Result)
	json.Unmarshal(rawJSON, &rec.Raw)
	json.Unmarshal(analyticsJSON, &rec.Analytics)
	json.Unmarshal(conflictsJSON, &rec.Conflicts)
	json.Unmarshal(warningsJSON, &rec.Warnings)
	return rec, nil
}

// DeleteByUser 删除某用户的课表
func (r *TimetableRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM timetables WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("删除课表失败: %w", err)
	}
	return nil
}
