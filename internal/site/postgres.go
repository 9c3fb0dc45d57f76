package site

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const siteColumns = `id, engineer_id, engineer_name, title, street,
	coalesce(house_number, ''), city, region, country, required_handymen,
	skills_required, start_date, end_date, payment_per_day,
	coalesce(description, ''), posted_at, updated_at`

func (s *PGStore) Create(ctx context.Context, posting *Site) error {
	skills, err := json.Marshal(posting.SkillsRequired)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into sites(id, engineer_id, engineer_name, title, street, house_number,
			city, region, country, required_handymen, skills_required,
			start_date, end_date, payment_per_day, description, posted_at, updated_at)
		values ($1,$2,$3,$4,$5,nullif($6,''),$7,$8,$9,$10,$11,$12,$13,$14,nullif($15,''),$16,$17)
	`, posting.ID, posting.EngineerID, posting.EngineerName, posting.Title,
		posting.Address.Street, posting.Address.HouseNumber, posting.Address.City,
		posting.Address.Region, posting.Address.Country, posting.RequiredHandymen,
		skills, posting.StartDate, posting.EndDate, posting.PaymentPerDay,
		posting.Description, posting.PostedAt, posting.UpdatedAt)
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*Site, error) {
	row := s.db.QueryRowContext(ctx, `select `+siteColumns+` from sites where id=$1`, id)
	return scanSite(row)
}

func (s *PGStore) List(ctx context.Context) ([]*Site, error) {
	return s.list(ctx, `select `+siteColumns+` from sites order by posted_at asc`)
}

func (s *PGStore) ListByEngineer(ctx context.Context, engineerID string) ([]*Site, error) {
	return s.list(ctx,
		`select `+siteColumns+` from sites where engineer_id=$1 order by posted_at asc`,
		engineerID)
}

func (s *PGStore) list(ctx context.Context, query string, args ...any) ([]*Site, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Site
	for rows.Next() {
		posting, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, posting)
	}
	return res, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, posting *Site) error {
	skills, err := json.Marshal(posting.SkillsRequired)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		update sites
		set title=$2, street=$3, house_number=nullif($4,''), city=$5, region=$6,
			country=$7, required_handymen=$8, skills_required=$9, start_date=$10,
			end_date=$11, payment_per_day=$12, description=nullif($13,''), updated_at=$14
		where id=$1
	`, posting.ID, posting.Title, posting.Address.Street, posting.Address.HouseNumber,
		posting.Address.City, posting.Address.Region, posting.Address.Country,
		posting.RequiredHandymen, skills, posting.StartDate, posting.EndDate,
		posting.PaymentPerDay, posting.Description, posting.UpdatedAt)
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

func (s *PGStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `delete from sites where id=$1`, id)
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

func scanSite(row rowScanner) (*Site, error) {
	var (
		posting Site
		skills  []byte
	)
	err := row.Scan(&posting.ID, &posting.EngineerID, &posting.EngineerName,
		&posting.Title, &posting.Address.Street, &posting.Address.HouseNumber,
		&posting.Address.City, &posting.Address.Region, &posting.Address.Country,
		&posting.RequiredHandymen, &skills, &posting.StartDate, &posting.EndDate,
		&posting.PaymentPerDay, &posting.Description, &posting.PostedAt, &posting.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(skills) > 0 {
		_ = json.Unmarshal(skills, &posting.SkillsRequired)
	}
	return &posting, nil
}
