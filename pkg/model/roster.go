package model

import "time"

// WeeklyAvailabilitySlot is one recurring working window for an employee on a
// given weekday. Multiple rows per employee/weekday represent split shifts;
// rows for the same employee/weekday must not overlap.
type WeeklyAvailabilitySlot struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EmployeeID string    `json:"employee_id" bson:"employee_id" validate:"required,mongodb"`
	Weekday    int       `json:"weekday" bson:"weekday" validate:"min=0,max=6"`
	StartTime  string    `json:"start_time" bson:"start_time" validate:"required,time_of_day"`
	EndTime    string    `json:"end_time" bson:"end_time" validate:"required,time_of_day"`
	Available  bool      `json:"available" bson:"available"`
	Recurring  bool      `json:"recurring" bson:"recurring"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// WeeklySlotUpdate carries a partial update to a weekly slot. Pointer fields
// distinguish "leave unchanged" from an explicit false.
type WeeklySlotUpdate struct {
	StartTime string `json:"start_time,omitempty" validate:"omitempty,time_of_day"`
	EndTime   string `json:"end_time,omitempty" validate:"omitempty,time_of_day"`
	Available *bool  `json:"available,omitempty"`
	Recurring *bool  `json:"recurring,omitempty"`
}

// AvailabilityException overrides the recurring weekly schedule for one
// specific date. At most one exception per employee/date exists; the unique
// index on (employee_id, date) enforces it.
type AvailabilityException struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EmployeeID string    `json:"employee_id" bson:"employee_id" validate:"required,mongodb"`
	Date       string    `json:"date" bson:"date" validate:"required,calendar_date"`
	Available  bool      `json:"available" bson:"available"`
	StartTime  string    `json:"start_time,omitempty" bson:"start_time,omitempty" validate:"omitempty,time_of_day"`
	EndTime    string    `json:"end_time,omitempty" bson:"end_time,omitempty" validate:"omitempty,time_of_day"`
	Reason     string    `json:"reason,omitempty" bson:"reason,omitempty" validate:"omitempty,max=200"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Window is a contiguous start/end time-of-day range during which an employee
// is working, sourced from either the weekly schedule or a same-date exception.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
