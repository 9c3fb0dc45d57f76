package site

import (
	"context"
	"errors"
	"testing"
	"time"

	"ramani.co.tz/internal/auth"
	"ramani.co.tz/internal/ids"
)

func testEngineer() auth.User {
	return auth.User{
		ID:    ids.New(),
		Name:  "Neema Joseph",
		Email: "neema@example.com",
		Phone: "+255712000002",
		Role:  auth.RoleEngineer,
	}
}

func validParams() CreateParams {
	return CreateParams{
		Title: "Kigamboni Bridge Works",
		Address: Address{
			Street:  "Kigamboni Road",
			City:    "Dar es Salaam",
			Region:  "Dar es Salaam",
			Country: "Tanzania",
		},
		RequiredHandymen: 4,
		SkillsRequired:   []string{"welding", "concrete"},
		StartDate:        time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PaymentPerDay:    "30000 TZS",
		Description:      "Bridge deck repairs",
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(NewInMemory())
	ctx := context.Background()
	owner := testEngineer()

	cases := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"empty title", func(p *CreateParams) { p.Title = " " }},
		{"zero capacity", func(p *CreateParams) { p.RequiredHandymen = 0 }},
		{"negative capacity", func(p *CreateParams) { p.RequiredHandymen = -2 }},
		{"missing city", func(p *CreateParams) { p.Address.City = "" }},
		{"missing dates", func(p *CreateParams) { p.StartDate = time.Time{} }},
		{"end before start", func(p *CreateParams) { p.EndDate = p.StartDate.AddDate(0, -1, 0) }},
		{"missing payment", func(p *CreateParams) { p.PaymentPerDay = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			if _, err := svc.Create(ctx, owner, params); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreateAndGet(t *testing.T) {
	svc := NewService(NewInMemory())
	ctx := context.Background()
	owner := testEngineer()

	posting, err := svc.Create(ctx, owner, validParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if posting.EngineerID != owner.ID || posting.EngineerName != owner.Name {
		t.Fatal("ownership must come from the calling engineer")
	}

	got, err := svc.Get(ctx, posting.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != posting.Title {
		t.Fatalf("expected %q, got %q", posting.Title, got.Title)
	}

	if _, err := svc.Get(ctx, ids.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListScoping(t *testing.T) {
	svc := NewService(NewInMemory())
	ctx := context.Background()
	owner := testEngineer()
	other := testEngineer()

	if _, err := svc.Create(ctx, owner, validParams()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, other, validParams()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(all))
	}

	mine, err := svc.ListMine(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 1 || mine[0].EngineerID != owner.ID {
		t.Fatalf("expected only the owner's posting, got %d", len(mine))
	}
}

func TestUpdateOwnership(t *testing.T) {
	svc := NewService(NewInMemory())
	ctx := context.Background()
	owner := testEngineer()

	posting, err := svc.Create(ctx, owner, validParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	capacity := 7
	updated, err := svc.Update(ctx, owner, posting.ID, UpdateParams{RequiredHandymen: &capacity})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.RequiredHandymen != 7 {
		t.Fatalf("expected capacity 7, got %d", updated.RequiredHandymen)
	}

	// admins may mutate any posting
	admin := auth.User{ID: ids.New(), Role: auth.RoleAdmin}
	title := "Renamed Works"
	if _, err := svc.Update(ctx, admin, posting.ID, UpdateParams{Title: &title}); err != nil {
		t.Fatalf("admin update: %v", err)
	}

	// strangers may not
	stranger := testEngineer()
	if _, err := svc.Update(ctx, stranger, posting.ID, UpdateParams{Title: &title}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	zero := 0
	if _, err := svc.Update(ctx, owner, posting.ID, UpdateParams{RequiredHandymen: &zero}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteOwnership(t *testing.T) {
	svc := NewService(NewInMemory())
	ctx := context.Background()
	owner := testEngineer()

	posting, err := svc.Create(ctx, owner, validParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	stranger := testEngineer()
	if err := svc.Delete(ctx, stranger, posting.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := svc.Delete(ctx, owner, posting.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, posting.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
