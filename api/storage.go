package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"

	queryTimeout = 5 * time.Second
)

var (
	errRecordNotFound = errors.New("record not found")
	errDuplicateEmail = errors.New("duplicate email")
)

type userStore interface {
	getUserByEmail(ctx context.Context, email string) (*user, error)
	getUserByID(ctx context.Context, id string) (*user, error)
	insertUser(ctx context.Context, u *user) error
	updateUser(ctx context.Context, u *user) error
}

type taskStore interface {
	getTasksForUser(ctx context.Context, userID string) ([]*task, error)
	getTaskByID(ctx context.Context, id string) (*task, error)
	insertTask(ctx context.Context, t *task) error
	updateTask(ctx context.Context, t *task) error
	deleteTask(ctx context.Context, t *task) error
	getTaskStatusCounts(ctx context.Context, userID string) ([]statusCount, error)
}

func openDB(cfg config) (*sql.DB, error) {
	switch cfg.db.driver {
	case driverPostgres, driverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.db.driver)
	}

	db, err := sql.Open(cfg.db.driver, cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	if cfg.db.driver == driverSQLite {
		// every new connection to :memory: would see an empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.db.maxOpenConnections)
		db.SetMaxIdleConns(cfg.db.maxIdleConnections)
		db.SetConnMaxIdleTime(cfg.db.maxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

type storage struct {
	db     *sql.DB
	driver string
}

func newStorage(db *sql.DB, driver string) *storage {
	return &storage{
		db:     db,
		driver: driver,
	}
}

var placeholderRegexp = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites postgres-style $N placeholders into SQLite's ?N form.
func (s *storage) rebind(query string) string {
	if s.driver == driverSQLite {
		return placeholderRegexp.ReplaceAllString(query, "?$1")
	}
	return query
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return strings.Contains(strings.ToLower(sqliteErr.Error()), "unique constraint failed")
	}
	return false
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (s *storage) scanUser(row *sql.Row) (*user, error) {
	var u user
	var createdAt, updatedAt int64
	var hash string
	err := row.Scan(&u.ID, &createdAt, &updatedAt, &u.Name, &u.Email, &hash, &u.Avatar)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, errRecordNotFound
		default:
			return nil, err
		}
	}
	u.PasswordHash = []byte(hash)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return &u, nil
}

func (s *storage) getUserByEmail(ctx context.Context, email string) (*user, error) {
	query := `SELECT id, created_at, updated_at, name, email, password_hash, avatar
			  FROM users
			  WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return s.scanUser(s.db.QueryRowContext(ctx, s.rebind(query), email))
}

func (s *storage) getUserByID(ctx context.Context, id string) (*user, error) {
	query := `SELECT id, created_at, updated_at, name, email, password_hash, avatar
			  FROM users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return s.scanUser(s.db.QueryRowContext(ctx, s.rebind(query), id))
}

// insertUser persists u. The caller sets ID and timestamps.
func (s *storage) insertUser(ctx context.Context, u *user) error {
	query := `INSERT INTO users (id, created_at, updated_at, name, email, password_hash, avatar)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.rebind(query),
		u.ID, toMillis(u.CreatedAt), toMillis(u.UpdatedAt), u.Name, u.Email, string(u.PasswordHash), u.Avatar)
	if err != nil {
		if isUniqueViolation(err) {
			return errDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *storage) updateUser(ctx context.Context, u *user) error {
	query := `UPDATE users SET name = $1, password_hash = $2, avatar = $3, updated_at = $4
			  WHERE id = $5`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(query), u.Name, string(u.PasswordHash), u.Avatar, toMillis(u.UpdatedAt), u.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errRecordNotFound
	}
	return nil
}

const taskColumns = `id, user_id, title, description, category, status, due_date, due_time, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task, error) {
	var t task
	var createdAt, updatedAt int64
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Category, &t.Status,
		&t.DueDate, &t.DueTime, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return &t, nil
}

func (s *storage) getTasksForUser(ctx context.Context, userID string) ([]*task, error) {
	query := `SELECT ` + taskColumns + `
			  FROM tasks
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.rebind(query), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *storage) getTaskByID(ctx context.Context, id string) (*task, error) {
	query := `SELECT ` + taskColumns + `
			  FROM tasks
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	t, err := scanTask(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, errRecordNotFound
		default:
			return nil, err
		}
	}
	return t, nil
}

func (s *storage) insertTask(ctx context.Context, t *task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.rebind(query), t.ID, t.UserID, t.Title, t.Description, t.Category,
		t.Status, t.DueDate, t.DueTime, toMillis(t.CreatedAt), toMillis(t.UpdatedAt))
	return err
}

// updateTask writes every mutable column. The owner is part of the filter so a
// task can never change hands.
func (s *storage) updateTask(ctx context.Context, t *task) error {
	query := `UPDATE tasks
			  SET title = $1, description = $2, category = $3, status = $4, due_date = $5, due_time = $6, updated_at = $7
			  WHERE id = $8 AND user_id = $9`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(query), t.Title, t.Description, t.Category, t.Status,
		t.DueDate, t.DueTime, toMillis(t.UpdatedAt), t.ID, t.UserID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *storage) deleteTask(ctx context.Context, t *task) error {
	query := `DELETE FROM tasks
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(query), t.ID, t.UserID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *storage) getTaskStatusCounts(ctx context.Context, userID string) ([]statusCount, error) {
	query := `SELECT category, status, COUNT(*)
			  FROM tasks
			  WHERE user_id = $1
			  GROUP BY category, status
			  ORDER BY category, status`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.rebind(query), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []statusCount
	for rows.Next() {
		var c statusCount
		if err := rows.Scan(&c.Category, &c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
