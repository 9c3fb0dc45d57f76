package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func pendingApp() *Application {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &Application{
		ID:          "01HXAPP0000000000000000001",
		SiteID:      "01HXSITE000000000000000001",
		ApplicantID: "01HXUSER000000000000000001",
		Name:        "Asha Mwinyi",
		Email:       "asha@example.com",
		Phone:       "+255712345678",
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestPGCreateLocksSiteRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	app := pendingApp()
	mock.ExpectBegin()
	mock.ExpectQuery("select required_handymen from sites where id=\\$1 for update").
		WithArgs(app.SiteID).
		WillReturnRows(sqlmock.NewRows([]string{"required_handymen"}).AddRow(3))
	mock.ExpectQuery("select exists\\(select 1 from applications").
		WithArgs(app.SiteID, app.ApplicantID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("select count\\(\\*\\) from applications").
		WithArgs(app.SiteID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("insert into applications").
		WithArgs(app.ID, app.SiteID, app.ApplicantID, app.Name, app.Email,
			app.Phone, app.Status, app.CreatedAt, app.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := NewPGStore(db).Create(context.Background(), app, 0); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGCreateCapacityExceeded(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	app := pendingApp()
	mock.ExpectBegin()
	mock.ExpectQuery("select required_handymen from sites").
		WithArgs(app.SiteID).
		WillReturnRows(sqlmock.NewRows([]string{"required_handymen"}).AddRow(2))
	mock.ExpectQuery("select exists\\(select 1 from applications").
		WithArgs(app.SiteID, app.ApplicantID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("select count\\(\\*\\) from applications").
		WithArgs(app.SiteID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	if err := NewPGStore(db).Create(context.Background(), app, 0); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGCreateMissingSite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	app := pendingApp()
	mock.ExpectBegin()
	mock.ExpectQuery("select required_handymen from sites").
		WithArgs(app.SiteID).
		WillReturnRows(sqlmock.NewRows([]string{"required_handymen"}))
	mock.ExpectRollback()

	if err := NewPGStore(db).Create(context.Background(), app, 0); !errors.Is(err, ErrSiteNotFound) {
		t.Fatalf("expected ErrSiteNotFound, got %v", err)
	}
}

func TestPGCreateDuplicateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	app := pendingApp()
	mock.ExpectBegin()
	mock.ExpectQuery("select required_handymen from sites").
		WithArgs(app.SiteID).
		WillReturnRows(sqlmock.NewRows([]string{"required_handymen"}).AddRow(3))
	mock.ExpectQuery("select exists\\(select 1 from applications").
		WithArgs(app.SiteID, app.ApplicantID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("select count\\(\\*\\) from applications").
		WithArgs(app.SiteID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("insert into applications").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	if err := NewPGStore(db).Create(context.Background(), app, 0); !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}
}

func TestPGCreateDuplicateWinsOverFullSite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	app := pendingApp()
	mock.ExpectBegin()
	mock.ExpectQuery("select required_handymen from sites").
		WithArgs(app.SiteID).
		WillReturnRows(sqlmock.NewRows([]string{"required_handymen"}).AddRow(2))
	mock.ExpectQuery("select exists\\(select 1 from applications").
		WithArgs(app.SiteID, app.ApplicantID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	// An applicant already occupying a slot on a full site gets the
	// duplicate answer, not the capacity one.
	if err := NewPGStore(db).Create(context.Background(), app, 0); !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGSetStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update applications set status").
		WithArgs("missing", StatusAccepted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPGStore(db).SetStatus(context.Background(), "missing", StatusAccepted, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGAcceptAllPendingReturnsTouchedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"id", "site_id", "applicant_id", "name", "email", "phone",
		"status", "created_at", "updated_at"}
	mock.ExpectQuery("update applications set status").
		WithArgs("site-1", StatusAccepted, now).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a1", "site-1", "u1", "Asha", "asha@example.com", "+255712345678", "accepted", now, now).
			AddRow("a2", "site-1", "u2", "Baraka", "baraka@example.com", "+255612345678", "accepted", now, now))

	apps, err := NewPGStore(db).AcceptAllPending(context.Background(), "site-1", now)
	if err != nil {
		t.Fatalf("AcceptAllPending: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(apps))
	}
	if apps[0].Status != StatusAccepted || apps[1].Status != StatusAccepted {
		t.Fatal("returned rows must carry the accepted status")
	}
}
