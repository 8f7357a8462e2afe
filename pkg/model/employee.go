package model

import "time"

type Employee struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name       string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email      string    `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone      string    `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Active     bool      `json:"active" bson:"active"`
	ServiceIDs []string  `json:"service_ids,omitempty" bson:"service_ids,omitempty" validate:"omitempty,dive,mongodb"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Offers reports whether the employee is assigned the given service.
func (e *Employee) Offers(serviceID string) bool {
	for _, id := range e.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}
