package users

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Sydnethy/2537-Assignment1-SJ/internal/users/migrations"
)

// PostgresRepository は PostgreSQL の users テーブルを使う Repository 実装です。
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository は PostgresRepository を作成します。
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// OpenPostgres は pgx ドライバーで接続を開き、疎通を確認します。
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// gooseUpContext はテストで差し替えるための goose.UpContext のラッパーです。
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate は埋め込みマイグレーションを適用します。
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, r.db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Insert(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, fmt.Errorf("user is nil")
	}
	out := *user
	if out.UserType == "" {
		out.UserType = TypeUser
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	query :=
		`INSERT INTO users (name, email, password, user_type, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		out.Name, out.Email, out.Password, string(out.UserType), out.CreatedAt).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	out.ID = strconv.FormatInt(id, 10)
	return &out, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) ([]*User, error) {
	query :=
		`SELECT id, name, email, password, user_type, created_at FROM users
		 WHERE email = $1
		 ORDER BY id`
	return r.query(ctx, query, email)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*User, error) {
	query :=
		`SELECT id, name, email, '' AS password, user_type, created_at FROM users
		 ORDER BY id`
	return r.query(ctx, query)
}

func (r *PostgresRepository) SetType(ctx context.Context, email string, userType Type) (int64, error) {
	if !userType.Valid() {
		return 0, ErrInvalidType
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET user_type = $1 WHERE email = $2`, string(userType), email)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		var (
			id       int64
			u        User
			userType string
		)
		if err := rows.Scan(&id, &u.Name, &u.Email, &u.Password, &userType, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		u.ID = strconv.FormatInt(id, 10)
		u.UserType = Type(userType)
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
