// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// DB 数据库接口
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx 事务接口
type Tx interface {
	DB
	Commit() error
	Rollback() error
}

// Scanner 行扫描接口
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Transactor 事务执行器，由 database.DB 实现
type Transactor interface {
	DB
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Repositories 聚合全部仓储，共享同一个数据库连接
type Repositories struct {
	Faculty   *FacultyRepository
	Subjects  *SubjectRepository
	Classes   *ClassRepository
	Timetable *TimetableRepository

	db Transactor
}

// New 创建仓储聚合
func New(db Transactor) *Repositories {
	return &Repositories{
		Faculty:   NewFacultyRepository(db),
		Subjects:  NewSubjectRepository(db),
		Classes:   NewClassRepository(db),
		Timetable: NewTimetableRepository(db),
		db:        db,
	}
}

// ClearUser 删除某用户的全部数据（教师、课程、班级、课表）
func (r *Repositories) ClearUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"timetables", "teachers", "subjects", "class_groups"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = $1", userID); err != nil {
				return err
			}
		}
		return nil
	})
}
