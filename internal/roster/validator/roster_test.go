package validator

import (
	"testing"

	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

func newValidator() *RosterValidator {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "roster-validator-test",
	})
	return NewRosterValidator(log)
}

func TestValidateWeeklySlot(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name    string
		slot    model.WeeklyAvailabilitySlot
		wantErr bool
	}{
		{
			name: "valid slot",
			slot: model.WeeklyAvailabilitySlot{
				EmployeeID: "507f1f77bcf86cd799439011",
				Weekday:    1,
				StartTime:  "09:00",
				EndTime:    "17:00",
				Available:  true,
				Recurring:  true,
			},
			wantErr: false,
		},
		{
			name: "missing employee",
			slot: model.WeeklyAvailabilitySlot{
				Weekday:   1,
				StartTime: "09:00",
				EndTime:   "17:00",
			},
			wantErr: true,
		},
		{
			name: "weekday out of range",
			slot: model.WeeklyAvailabilitySlot{
				EmployeeID: "507f1f77bcf86cd799439011",
				Weekday:    7,
				StartTime:  "09:00",
				EndTime:    "17:00",
			},
			wantErr: true,
		},
		{
			name: "malformed time",
			slot: model.WeeklyAvailabilitySlot{
				EmployeeID: "507f1f77bcf86cd799439011",
				Weekday:    1,
				StartTime:  "9am",
				EndTime:    "17:00",
			},
			wantErr: true,
		},
		{
			name: "end before start",
			slot: model.WeeklyAvailabilitySlot{
				EmployeeID: "507f1f77bcf86cd799439011",
				Weekday:    1,
				StartTime:  "17:00",
				EndTime:    "09:00",
			},
			wantErr: true,
		},
		{
			name: "zero-length slot",
			slot: model.WeeklyAvailabilitySlot{
				EmployeeID: "507f1f77bcf86cd799439011",
				Weekday:    1,
				StartTime:  "09:00",
				EndTime:    "09:00",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateWeeklySlot(&tt.slot)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWeeklySlot() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateException(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name    string
		exc     model.AvailabilityException
		wantErr bool
	}{
		{
			name: "day off",
			exc: model.AvailabilityException{
				EmployeeID: "507f1f77bcf86cd799439011",
				Date:       "2026-09-07",
				Available:  false,
				Reason:     "public holiday",
			},
			wantErr: false,
		},
		{
			name: "extra availability with hours",
			exc: model.AvailabilityException{
				EmployeeID: "507f1f77bcf86cd799439011",
				Date:       "2026-09-07",
				Available:  true,
				StartTime:  "10:00",
				EndTime:    "14:00",
			},
			wantErr: false,
		},
		{
			name: "malformed date",
			exc: model.AvailabilityException{
				EmployeeID: "507f1f77bcf86cd799439011",
				Date:       "07/09/2026",
				Available:  false,
			},
			wantErr: true,
		},
		{
			name: "start without end",
			exc: model.AvailabilityException{
				EmployeeID: "507f1f77bcf86cd799439011",
				Date:       "2026-09-07",
				Available:  true,
				StartTime:  "10:00",
			},
			wantErr: true,
		},
		{
			name: "unavailable with hours",
			exc: model.AvailabilityException{
				EmployeeID: "507f1f77bcf86cd799439011",
				Date:       "2026-09-07",
				Available:  false,
				StartTime:  "10:00",
				EndTime:    "14:00",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateException(&tt.exc)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateException() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
