// Package storage implements the data access gateway over SQLite. It is
// the persistent backend: accounts, sessions, categories, and transactions
// all live here, owner-scoped on every query.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"keuangan/internal/auth"
	"keuangan/internal/core"
	"keuangan/internal/gateway"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type Repository struct {
	db         *sql.DB
	sessionTTL time.Duration
}

var _ gateway.Gateway = (*Repository)(nil)

func NewRepository(dbPath string, sessionTTL time.Duration) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if sessionTTL <= 0 {
		sessionTTL = 30 * 24 * time.Hour
	}

	return &Repository{db: db, sessionTTL: sessionTTL}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser registers an account with a bcrypt-hashed password.
func (r *Repository) CreateUser(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`,
		id, email, hash)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id, "email", email)
	return id, nil
}

// UserByEmail returns the user id for an email, or gateway.ErrNotFound.
func (r *Repository) UserByEmail(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE email = ?`, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", gateway.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query user: %w", err)
	}
	return id, nil
}

// SignIn implements gateway.Authenticator.
func (r *Repository) SignIn(ctx context.Context, email, password string) (core.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		userID string
		hash   string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = ?`, email).
		Scan(&userID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, gateway.ErrInvalidCredentials
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("query user: %w", err)
	}
	if !auth.CheckPassword(password, hash) {
		return core.Session{}, gateway.ErrInvalidCredentials
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return core.Session{}, err
	}
	expiresAt := time.Now().Add(r.sessionTTL)

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt); err != nil {
		return core.Session{}, fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "Session opened", "user_id", userID)
	return core.Session{Token: token, UserID: userID, Email: email, ExpiresAt: expiresAt}, nil
}

// Session implements gateway.Authenticator.
func (r *Repository) Session(ctx context.Context, token string) (core.Session, error) {
	var (
		sess      core.Session
		expiresAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT s.token, s.user_id, u.email, s.expires_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ?`, token).
		Scan(&sess.Token, &sess.UserID, &sess.Email, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, gateway.ErrNoSession
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("query session: %w", err)
	}
	if time.Now().After(expiresAt) {
		_, _ = r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return core.Session{}, gateway.ErrNoSession
	}
	sess.ExpiresAt = expiresAt
	return sess, nil
}

// SignOut implements gateway.Authenticator.
func (r *Repository) SignOut(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanExpiredSessions removes sessions past their expiry.
func (r *Repository) CleanExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now())
	return err
}

// ListCategories implements gateway.CategoryTable.
func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, user_id, created_at
		FROM categories
		WHERE user_id = ?
		ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.UserID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertCategory implements gateway.CategoryTable.
func (r *Repository) InsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, type, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Type), c.UserID, c.CreatedAt)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "category_id", c.ID, "name", c.Name, "type", c.Type)
	return c, nil
}

// DeleteCategory implements gateway.CategoryTable. The reference check runs
// first so callers get gateway.ErrConflict; the FK RESTRICT is a backstop.
func (r *Repository) DeleteCategory(ctx context.Context, userID, id string) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ? AND user_id = ?`,
		id, userID).Scan(&refs); err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		return gateway.ErrConflict
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return gateway.ErrConflict
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gateway.ErrNotFound
	}

	slog.InfoContext(ctx, "Category deleted", "category_id", id)
	return nil
}

// ListTransactions implements gateway.TransactionTable. Rows come back
// joined with the category name, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.amount_cents, t.description, t.type,
		       COALESCE(t.category_id, ''), COALESCE(c.name, ''),
		       t.user_id, t.date, t.created_at
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ?
		ORDER BY t.created_at DESC, t.rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTransaction returns a single transaction by id regardless of sync
// state. Used by the mirror worker.
func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT t.id, t.amount_cents, t.description, t.type,
		       COALESCE(t.category_id, ''), COALESCE(c.name, ''),
		       t.user_id, t.date, t.created_at
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, gateway.ErrNotFound
	}
	return t, err
}

// InsertTransaction implements gateway.TransactionTable.
func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = uuid.NewString()
	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	t.CreatedAt = time.Now()

	var categoryID any
	if t.CategoryID != "" {
		categoryID = t.CategoryID
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount_cents, description, type, category_id, user_id, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Amount.Cents, t.Description, string(t.Type),
		categoryID, t.UserID, t.Date.Format(dateLayout), t.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.Transaction{}, gateway.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"description", t.Description,
		"amount_cents", t.Amount.Cents,
		"type", t.Type)
	return t, nil
}

// DeleteTransaction implements gateway.TransactionTable.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gateway.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// PendingSyncTransactions returns ids of rows not yet mirrored, oldest first.
func (r *Repository) PendingSyncTransactions(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM transactions
		WHERE sync_status = 'pending'
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending sync: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkSynced flags a transaction as mirrored.
func (r *Repository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// MarkSyncError flags a transaction whose mirroring failed.
func (r *Repository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "transaction_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		typ     string
		dateStr string
	)
	if err := row.Scan(&t.ID, &t.Amount.Cents, &t.Description, &typ,
		&t.CategoryID, &t.CategoryName, &t.UserID, &dateStr, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, sql.ErrNoRows
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(typ)
	if d, err := time.Parse(dateLayout, dateStr); err == nil {
		t.Date = d
	}
	return t, nil
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "FOREIGN KEY")
}
