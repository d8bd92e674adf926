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

// FacultyRepository 教师快照仓储
// 上传即替换：同一用户的教师集合整体覆盖
type FacultyRepository struct {
	db Transactor
}

// NewFacultyRepository 创建教师仓储
func NewFacultyRepository(db Transactor) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// Replace 在事务内整体替换某用户的教师快照
func (r *FacultyRepository) Replace(ctx context.Context, userID uuid.UUID, teachers []*model.Teacher) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM teachers WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("清除教师快照失败: %w", err)
		}

		query := `
			INSERT INTO teachers (
				id, user_id, name, department, course_types,
				max_credits, primary_subject, other_subjects, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		now := time.Now()
		for _, t := range teachers {
			if t.ID == uuid.Nil {
				t.ID = uuid.New()
			}
			t.UserID = userID

			typesJSON, _ := json.Marshal(t.CourseTypes)
			othersJSON, _ := json.Marshal(t.OtherSubjects)

			if _, err := tx.ExecContext(ctx, query,
				t.ID, t.UserID, t.Name, t.Department, typesJSON,
				t.MaxCredits, t.PrimarySubject, othersJSON, now, now,
			); err != nil {
				return fmt.Errorf("写入教师 '%s' 失败: %w", t.Name, err)
			}
		}
		return nil
	})
}

// ListByUser 获取某用户的全部教师
func (r *FacultyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Teacher, error) {
	query := `
		SELECT id, user_id, name, department, course_types,
			max_credits, primary_subject, other_subjects, created_at, updated_at
		FROM teachers
		WHERE user_id = $1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("查询教师列表失败: %w", err)
	}
	defer rows.Close()

	var teachers []*model.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

// CountByUser 统计某用户的教师数量
func (r *FacultyRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM teachers WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("统计教师数量失败: %w", err)
	}
	return count, nil
}

// scanTeacher 扫描单行教师数据
func scanTeacher(row Scanner) (*model.Teacher, error) {
	t := &model.Teacher{}
	var typesJSON, othersJSON []byte

	err := row.Scan(
		&t.ID, &t.UserID, &t.Name, &t.Department, &typesJSON,
		&t.MaxCredits, &t.PrimarySubject, &othersJSON, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描教师数据失败: %w", err)
	}

	json.Unmarshal(typesJSON, &t.CourseTypes)
	json.Unmarshal(othersJSON, &t.OtherSubjects)
	return t, nil
}
