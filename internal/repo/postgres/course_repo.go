package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCourseNotFound = errors.New("course not found")

type CourseRepo struct {
	pool *pgxpool.Pool
}

type CourseRecord struct {
	ID           int64
	Title        string
	Description  *string
	Category     string
	ProductID    *string
	MaterialsURL *string
	CreatedAt    time.Time
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

func (r *CourseRepo) FindByID(ctx context.Context, courseID int64) (CourseRecord, error) {
	if r.pool == nil {
		return CourseRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if courseID <= 0 {
		return CourseRecord{}, fmt.Errorf("invalid course id")
	}

	course, err := scanCourse(r.pool.QueryRow(ctx, `
SELECT id, title, description, category, product_id, materials_url, created_at
FROM courses
WHERE id = $1
`, courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CourseRecord{}, ErrCourseNotFound
		}
		return CourseRecord{}, fmt.Errorf("find course by id: %w", err)
	}

	return course, nil
}

func (r *CourseRepo) List(ctx context.Context) ([]CourseRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, title, description, category, product_id, materials_url, created_at
FROM courses
ORDER BY created_at, id
`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []CourseRecord
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course row: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate course rows: %w", err)
	}

	return courses, nil
}

func scanCourse(row pgx.Row) (CourseRecord, error) {
	var course CourseRecord
	if err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.Category,
		&course.ProductID,
		&course.MaterialsURL,
		&course.CreatedAt,
	); err != nil {
		return CourseRecord{}, err
	}
	return course, nil
}
