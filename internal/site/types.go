package site

import (
	"errors"
	"time"
)

// Address locates a construction site.
type Address struct {
	Street      string `json:"street"`
	HouseNumber string `json:"house_number,omitempty"`
	City        string `json:"city"`
	Region      string `json:"region"`
	Country     string `json:"country"`
}

// Site is a job posting. Owned exclusively by the posting engineer; mutable
// only by its owner or an admin.
type Site struct {
	ID           string `json:"id"`
	EngineerID   string `json:"engineer_id"`
	EngineerName string `json:"engineer_name"`

	Title   string  `json:"title"`
	Address Address `json:"address"`

	// RequiredHandymen is the capacity boundary: the maximum number of
	// non-deleted applications the site accepts.
	RequiredHandymen int      `json:"required_handymen"`
	SkillsRequired   []string `json:"skills_required"`

	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	PaymentPerDay string    `json:"payment_per_day"`
	Description   string    `json:"description,omitempty"`

	PostedAt  time.Time `json:"posted_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrNotFound     = errors.New("no site found with that ID")
	ErrInvalidInput = errors.New("invalid site input")
)
