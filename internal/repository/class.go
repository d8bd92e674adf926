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

// ClassRepository 班级快照仓储
type ClassRepository struct {
	db Transactor
}

// NewClassRepository 创建班级仓储
func NewClassRepository(db Transactor) *ClassRepository {
	return &ClassRepository{db: db}
}

// Replace 在事务内整体替换某用户的班级快照
func (r *ClassRepository) Replace(ctx context.Context, userID uuid.UUID, classes []*model.ClassGroup) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM class_groups WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("清除班级快照失败: %w", err)
		}

		query := `
			INSERT INTO class_groups (
				id, user_id, code, name, department, credits, subject_ids, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		now := time.Now()
		for _, c := range classes {
			if c.ID == uuid.Nil {
				c.ID = uuid.New()
			}
			c.UserID = userID

			subjectsJSON, _ := json.Marshal(c.SubjectIDs)

			if _, err := tx.ExecContext(ctx, query,
				c.ID, c.UserID, c.Code, c.Name, c.Department, c.Credits, subjectsJSON, now, now,
			); err != nil {
				return fmt.Errorf("写入班级 '%s' 失败: %w", c.Code, err)
			}
		}
		return nil
	})
}

// ListByUser 获取某用户的全部班级
func (r *ClassRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.ClassGroup, error) {
	query := `
		SELECT id, user_id, code, name, department, credits, subject_ids, created_at, updated_at
		FROM class_groups
		WHERE user_id = $1
		ORDER BY code
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("查询班级列表失败: %w", err)
	}
	defer rows.Close()

	var classes []*model.ClassGroup
	for rows.Next() {
		c := &model.ClassGroup{}
		var subjectsJSON []byte
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Code, &c.Name, &c.Department, &c.Credits, &subjectsJSON,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描班级数据失败: %w", err)
		}
		json.Unmarshal(subjectsJSON, &c.SubjectIDs)
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// CountByUser 统计某用户的班级数量
func (r *ClassRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM class_groups WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("统计班级数量失败: %w", err)
	}
	return count, nil
}
