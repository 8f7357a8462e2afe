package model

import (
	"time"
)

type Service struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title       string    `json:"title" bson:"title" validate:"required,min=2,max=100"`
	DurationMin int       `json:"duration_min" bson:"duration_min" validate:"required,min=5,max=480"`
	PriceCents  int64     `json:"price_cents" bson:"price_cents" validate:"min=0"`
	Active      bool      `json:"active" bson:"active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Duration returns the fixed service length used for slot generation.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMin) * time.Minute
}
