package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Worker struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Skills    []string  `json:"skills"` // lowercase tokens
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WorkerRepositoryInterface interface {
	// Upsert inserts a new worker or fully replaces an existing one,
	// matched by id or by phone identity.
	Upsert(ctx context.Context, w *Worker) error
	FindByID(ctx context.Context, id string) (*Worker, error)
	// FindCandidates returns active workers holding the skill token.
	// Order is unspecified; the matcher re-sorts.
	FindCandidates(ctx context.Context, service string) ([]Worker, error)
	// CountBySkill counts workers holding the skill regardless of the
	// active flag (used to tell "none eligible" from "none active").
	CountBySkill(ctx context.Context, service string) (int, error)
	List(ctx context.Context, limit int) ([]Worker, error)
	CountActive(ctx context.Context) (int, error)
	SetActive(ctx context.Context, id string, active bool) error
}

func NewWorker(name string, skills []string, phone, email string, lat, lon float64) (*Worker, error) {
	w := &Worker{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Skills:    NormalizeSkills(skills),
		Phone:     strings.TrimSpace(phone),
		Email:     strings.TrimSpace(strings.ToLower(email)),
		Lat:       lat,
		Lon:       lon,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *Worker) Validate() error {
	if w.Name == "" {
		return errors.New("name is required")
	}
	if len(w.Skills) == 0 {
		return errors.New("at least one skill is required")
	}
	if w.Phone == "" && w.Email == "" {
		return errors.New("phone or email is required")
	}
	return nil
}

func (w *Worker) HasSkill(service string) bool {
	service = strings.ToLower(strings.TrimSpace(service))
	for _, s := range w.Skills {
		if s == service {
			return true
		}
	}
	return false
}

// NormalizeSkills lowercases, trims and de-duplicates skill tokens.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))

	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}

	return out
}
