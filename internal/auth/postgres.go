package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// notDeleted is the shared tombstone predicate every read funnels through.
const notDeleted = "deleted_at is null"

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const userColumns = `id, name, email, phone, password_hash, role, status,
	password_changed_at, coalesce(one_time_token_hash, ''),
	coalesce(one_time_token_expires_at, 'epoch'::timestamptz),
	created_at, updated_at, deleted_at`

func (s *PGStore) Create(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, `
		insert into users(id, name, email, phone, password_hash, role, status,
			password_changed_at, one_time_token_hash, one_time_token_expires_at,
			created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,nullif($9,''),$10,$11,$12)
	`, u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, string(u.Role), string(u.Status),
		u.PasswordChangedAt, u.OneTimeTokenHash, nullTime(u.OneTimeTokenExpiresAt),
		u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1 and `+notDeleted, id)
	return scanUser(row)
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1 and `+notDeleted, email)
	return scanUser(row)
}

func (s *PGStore) FindByOneTimeTokenHash(ctx context.Context, hash string, now time.Time) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users
		 where one_time_token_hash=$1 and one_time_token_expires_at > $2 and `+notDeleted,
		hash, now)
	return scanUser(row)
}

func (s *PGStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users where `+notDeleted+` order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, u *User) error {
	result, err := s.db.ExecContext(ctx, `
		update users
		set name=$2, phone=$3, password_hash=$4, role=$5, status=$6,
			password_changed_at=$7, one_time_token_hash=nullif($8,''),
			one_time_token_expires_at=$9, updated_at=$10
		where id=$1 and `+notDeleted,
		u.ID, u.Name, u.Phone, u.PasswordHash, string(u.Role), string(u.Status),
		u.PasswordChangedAt, u.OneTimeTokenHash, nullTime(u.OneTimeTokenExpiresAt),
		u.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) MarkDeleted(ctx context.Context, id string, when time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		update users set deleted_at=$2, status=$3, updated_at=$2
		where id=$1 and `+notDeleted,
		id, when, string(StatusInactive))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u         User
		role      string
		status    string
		tokenExp  time.Time
		deletedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &role, &status,
		&u.PasswordChangedAt, &u.OneTimeTokenHash, &tokenExp,
		&u.CreatedAt, &u.UpdatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = Role(role)
	u.Status = Status(status)
	if !tokenExp.IsZero() && tokenExp.Unix() != 0 {
		u.OneTimeTokenExpiresAt = tokenExp
	}
	if deletedAt.Valid {
		deleted := deletedAt.Time
		u.DeletedAt = &deleted
	}
	return &u, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
