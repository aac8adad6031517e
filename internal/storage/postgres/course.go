package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

// CourseRepository holds *sql.DB because recording watch progress is a
// read-modify-write over the enrollment meta and runs in a transaction.
type CourseRepository struct {
	db *sql.DB
}

func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func unmarshalModules(raw []byte) ([]models.CourseModule, error) {
	modules := []models.CourseModule{}
	if len(raw) == 0 {
		return modules, nil
	}
	if err := json.Unmarshal(raw, &modules); err != nil {
		return nil, fmt.Errorf("unmarshal course modules: %w", err)
	}
	return modules, nil
}

func (r *CourseRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	query := `SELECT id, title, description, image_url, modules, created_at, updated_at
	            FROM courses ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		var (
			c   models.Course
			raw []byte
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.ImageURL, &raw, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		if c.Modules, err = unmarshalModules(raw); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *CourseRepository) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	var (
		c   models.Course
		raw []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, image_url, modules, created_at, updated_at FROM courses WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Title, &c.Description, &c.ImageURL, &raw, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	if c.Modules, err = unmarshalModules(raw); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) CreateCourse(ctx context.Context, title string, description, imageURL *string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO courses (title, description, image_url) VALUES ($1, $2, $3) RETURNING id`,
		title, description, imageURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create course: %w", err)
	}
	return id, nil
}

func (r *CourseRepository) UpdateCourse(ctx context.Context, c models.Course) error {
	modules := c.Modules
	if modules == nil {
		modules = []models.CourseModule{}
	}
	raw, err := json.Marshal(modules)
	if err != nil {
		return fmt.Errorf("marshal course modules: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE courses SET title = $1, description = $2, image_url = $3, modules = $4::jsonb, updated_at = now()
		  WHERE id = $5`,
		c.Title, c.Description, c.ImageURL, raw, c.ID)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrCourseNotFound
	}
	return nil
}

func (r *CourseRepository) DeleteCourse(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrCourseNotFound
	}
	return nil
}

// Enroll is idempotent; the returned timestamp is nil when the user was
// already enrolled.
func (r *CourseRepository) Enroll(ctx context.Context, userID, courseID int64) (*time.Time, error) {
	var enrolledAt time.Time
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO enrollments (user_id, course_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, course_id) DO NOTHING
		 RETURNING enrolled_at`,
		userID, courseID,
	).Scan(&enrolledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}
	return &enrolledAt, nil
}

func (r *CourseRepository) Unenroll(ctx context.Context, userID, courseID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM enrollments WHERE user_id = $1 AND course_id = $2`, userID, courseID); err != nil {
		return fmt.Errorf("unenroll: %w", err)
	}
	return nil
}

func (r *CourseRepository) ListEnrollments(ctx context.Context, userID int64) ([]models.Enrollment, error) {
	query := `SELECT e.course_id, e.enrolled_at, e.meta, e.status, e.completed_at, c.title, c.image_url
	            FROM enrollments e
	            JOIN courses c ON c.id = e.course_id
	           WHERE e.user_id = $1
	           ORDER BY e.enrolled_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []models.Enrollment{}
	for rows.Next() {
		var (
			e   models.Enrollment
			raw []byte
		)
		if err := rows.Scan(&e.CourseID, &e.EnrolledAt, &raw, &e.Status, &e.CompletedAt, &e.Title, &e.ImageURL); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal enrollment meta: %w", err)
			}
		}
		e.UserID = userID
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

func (r *CourseRepository) GetEnrollment(ctx context.Context, userID, courseID int64) (*models.Enrollment, error) {
	var (
		e   models.Enrollment
		raw []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT enrolled_at, meta, status, completed_at FROM enrollments
		  WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	).Scan(&e.EnrolledAt, &raw, &e.Status, &e.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &e.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal enrollment meta: %w", err)
		}
	}
	e.UserID = userID
	e.CourseID = courseID
	return &e, nil
}

// RecordProgress marks one video watched and flips the enrollment to
// completed once every video in the course has been seen.
func (r *CourseRepository) RecordProgress(ctx context.Context, userID, courseID int64, moduleIdx, videoIdx int) (*models.CourseProgress, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO enrollments (user_id, course_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID); err != nil {
		return nil, fmt.Errorf("ensure enrollment: %w", err)
	}

	var rawModules []byte
	err = tx.QueryRowContext(ctx, `SELECT modules FROM courses WHERE id = $1`, courseID).Scan(&rawModules)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCourseNotFound
		}
		return nil, fmt.Errorf("load course modules: %w", err)
	}
	modules, err := unmarshalModules(rawModules)
	if err != nil {
		return nil, err
	}
	totalVideos := 0
	for _, m := range modules {
		totalVideos += len(m.Videos)
	}

	var rawMeta []byte
	err = tx.QueryRowContext(ctx,
		`SELECT meta FROM enrollments WHERE user_id = $1 AND course_id = $2 FOR UPDATE`,
		userID, courseID,
	).Scan(&rawMeta)
	if err != nil {
		return nil, fmt.Errorf("lock enrollment: %w", err)
	}

	meta := models.EnrollmentMeta{}
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &meta); err != nil {
			return nil, fmt.Errorf("unmarshal enrollment meta: %w", err)
		}
	}
	if meta.Watched == nil {
		meta.Watched = map[string][]int{}
	}

	mKey := fmt.Sprintf("m%d", moduleIdx)
	seen := false
	for _, v := range meta.Watched[mKey] {
		if v == videoIdx {
			seen = true
			break
		}
	}
	if !seen {
		meta.Watched[mKey] = append(meta.Watched[mKey], videoIdx)
	}

	watchedCount := meta.WatchedCount()

	status := models.EnrollmentStatusActive
	var completedAt *time.Time
	if totalVideos > 0 && watchedCount >= totalVideos {
		now := time.Now().UTC()
		completedAt = &now
		status = models.EnrollmentStatusCompleted
	}

	newMeta, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal enrollment meta: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE enrollments SET meta = $1::jsonb, completed_at = $2, status = $3
		  WHERE user_id = $4 AND course_id = $5`,
		newMeta, completedAt, status, userID, courseID); err != nil {
		return nil, fmt.Errorf("update enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &models.CourseProgress{
		WatchedCount: watchedCount,
		TotalVideos:  totalVideos,
		Completed:    completedAt != nil,
	}, nil
}
