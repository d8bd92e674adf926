// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kebiao/kebiao/pkg/model"
)

// SubjectRepository 课程快照仓储
type SubjectRepository struct {
	db Transactor
}

// NewSubjectRepository 创建课程仓储
func NewSubjectRepository(db Transactor) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// Replace 在事务内整体替换某用户的课程快照
func (r *SubjectRepository) Replace(ctx context.Context, userID uuid.UUID, subjects []*model.Subject) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("清除课程快照失败: %w", err)
		}

		query := `
			INSERT INTO subjects (
				id, user_id, name, code, department, credits, type, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		now := time.Now()
		for _, s := range subjects {
			if s.ID == uuid.Nil {
				s.ID = uuid.New()
			}
			s.UserID = userID

			if _, err := tx.ExecContext(ctx, query,
				s.ID, s.UserID, s.Name, s.Code, s.Department, s.Credits, string(s.Type), now, now,
			); err != nil {
				return fmt.Errorf("写入课程 '%s' 失败: %w", s.Name, err)
			}
		}
		return nil
	})
}

// ListByUser 获取某用户的全部课程
func (r *SubjectRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Subject, error) {
	query := `
		SELECT id, user_id, name, code, department, credits, type, created_at, updated_at
		FROM subjects
		WHERE user_id = $1
		ORDER BY code
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("查询课程列表失败: %w", err)
	}
	defer rows.Close()

	var subjects []*model.Subject
	for rows.Next() {
		s := &model.Subject{}
		var typ string
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Name, &s.Code, &s.Department, &s.Credits, &typ,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描课程数据失败: %w", err)
		}
		s.Type = model.ParseSubjectType(typ)
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// CountByUser 统计某用户的课程数量
func (r *SubjectRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subjects WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("统计课程数量失败: %w", err)
	}
	return count, nil
}
