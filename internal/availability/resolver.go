package availability

import (
	"slotbook/pkg/config"
	"slotbook/pkg/model"
)

// ResolveWindows computes the working windows for one employee on one date.
// A date-specific exception overrides the recurring weekly schedule entirely:
// an unavailable exception means a day off regardless of the roster, an
// available one replaces it with a single window (the whole day when the
// exception carries no hours). Without an exception, each recurring available
// weekly row for the date's weekday is one window.
func ResolveWindows(exception *model.AvailabilityException, weekly []*model.WeeklyAvailabilitySlot) []model.Window {
	if exception != nil {
		if !exception.Available {
			return nil
		}
		window := model.Window{Start: config.DayStart, End: config.DayEnd}
		if exception.StartTime != "" {
			window.Start = exception.StartTime
		}
		if exception.EndTime != "" {
			window.End = exception.EndTime
		}
		return []model.Window{window}
	}

	var windows []model.Window
	for _, slot := range weekly {
		if !slot.Recurring || !slot.Available {
			continue
		}
		windows = append(windows, model.Window{Start: slot.StartTime, End: slot.EndTime})
	}
	return windows
}

// WindowContaining returns the first window that fully contains
// [startMin, endMin), or false when the range falls outside every window.
func WindowContaining(windows []model.Window, startMin, endMin int) (model.Window, bool) {
	for _, w := range windows {
		ws, err := ParseClock(w.Start)
		if err != nil {
			continue
		}
		we, err := ParseClock(w.End)
		if err != nil {
			continue
		}
		if startMin >= ws && endMin <= we {
			return w, true
		}
	}
	return model.Window{}, false
}
