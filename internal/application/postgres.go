package application

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGStore implements Store using PostgreSQL. The capacity gate serializes on
// the site row via select-for-update, and a partial unique index on
// (applicant_id, site_id) where deleted_at is null backstops duplicates.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const notDeleted = "deleted_at is null"

const appColumns = `id, site_id, applicant_id, name, email, phone, status,
	created_at, updated_at`

// Create ignores the caller-supplied capacity and re-reads required_handymen
// under the site row lock, so the count it compares against cannot go stale
// between read and insert.
func (s *PGStore) Create(ctx context.Context, app *Application, _ int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var capacity int
	err = tx.QueryRowContext(ctx,
		`select required_handymen from sites where id=$1 for update`,
		app.SiteID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSiteNotFound
	}
	if err != nil {
		return err
	}

	// Duplicate check comes before the capacity compare: an applicant who
	// already holds a live application gets the duplicate answer even when
	// the site is full, matching the in-memory store.
	var dup bool
	err = tx.QueryRowContext(ctx,
		`select exists(select 1 from applications where site_id=$1 and applicant_id=$2 and `+notDeleted+`)`,
		app.SiteID, app.ApplicantID).Scan(&dup)
	if err != nil {
		return err
	}
	if dup {
		return ErrDuplicateApplication
	}

	var active int
	err = tx.QueryRowContext(ctx,
		`select count(*) from applications where site_id=$1 and `+notDeleted,
		app.SiteID).Scan(&active)
	if err != nil {
		return err
	}
	if active >= capacity {
		return ErrCapacityExceeded
	}

	_, err = tx.ExecContext(ctx, `
		insert into applications(id, site_id, applicant_id, name, email, phone,
			status, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, app.ID, app.SiteID, app.ApplicantID, app.Name, app.Email, app.Phone,
		app.Status, app.CreatedAt, app.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateApplication
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PGStore) Find(ctx context.Context, id string) (*Application, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+appColumns+` from applications where id=$1 and `+notDeleted, id)
	return scanApp(row)
}

func (s *PGStore) ListBySite(ctx context.Context, siteID string) ([]*Application, error) {
	return s.list(ctx, `select `+appColumns+` from applications
		where site_id=$1 and `+notDeleted+` order by created_at asc`, siteID)
}

func (s *PGStore) ListByApplicant(ctx context.Context, applicantID string) ([]*Application, error) {
	return s.list(ctx, `select `+appColumns+` from applications
		where applicant_id=$1 and `+notDeleted+` order by created_at asc`, applicantID)
}

func (s *PGStore) ListAll(ctx context.Context) ([]*Application, error) {
	return s.list(ctx, `select `+appColumns+` from applications
		where `+notDeleted+` order by created_at asc`)
}

func (s *PGStore) CountActiveBySite(ctx context.Context, siteID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`select count(*) from applications where site_id=$1 and `+notDeleted,
		siteID).Scan(&count)
	return count, err
}

func (s *PGStore) Update(ctx context.Context, app *Application) error {
	result, err := s.db.ExecContext(ctx, `
		update applications
		set name=$2, email=$3, phone=$4, status=$5, updated_at=$6
		where id=$1 and `+notDeleted,
		app.ID, app.Name, app.Email, app.Phone, app.Status, app.UpdatedAt)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *PGStore) SetStatus(ctx context.Context, id string, status Status, when time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		update applications set status=$2, updated_at=$3
		where id=$1 and `+notDeleted, id, status, when)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *PGStore) AcceptAllPending(ctx context.Context, siteID string, when time.Time) ([]*Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		update applications set status=$2, updated_at=$3
		where site_id=$1 and status='pending' and `+notDeleted+`
		returning `+appColumns, siteID, StatusAccepted, when)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Application
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, app)
	}
	return res, rows.Err()
}

func (s *PGStore) MarkDeleted(ctx context.Context, id, deletedBy string, when time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		update applications set deleted_at=$2, deleted_by=$3, updated_at=$2
		where id=$1 and `+notDeleted, id, when, deletedBy)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *PGStore) list(ctx context.Context, query string, args ...any) ([]*Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Application
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, app)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApp(row rowScanner) (*Application, error) {
	var app Application
	err := row.Scan(&app.ID, &app.SiteID, &app.ApplicantID, &app.Name,
		&app.Email, &app.Phone, &app.Status, &app.CreatedAt, &app.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
