package availability

import (
	"sort"

	"slotbook/pkg/model"
)

// Busy is an occupied range in minutes from midnight, half-open.
type Busy struct {
	StartMin int
	EndMin   int
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
// Half-open semantics: ranges that merely touch never conflict.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// GenerateSlots walks each window at the given stride and collects every
// start time where an appointment of durationMin would fit inside the window
// without overlapping a busy range. The stride is deliberately independent of
// the duration; results from all windows are merged, de-duplicated and
// sorted ascending.
func GenerateSlots(windows []model.Window, durationMin, strideMin int, busy []Busy) []string {
	if durationMin <= 0 || strideMin <= 0 {
		return []string{}
	}

	seen := make(map[int]struct{})
	var starts []int

	for _, w := range windows {
		ws, err := ParseClock(w.Start)
		if err != nil {
			continue
		}
		we, err := ParseClock(w.End)
		if err != nil {
			continue
		}

		for cursor := ws; cursor+durationMin <= we; cursor += strideMin {
			if overlapsAny(cursor, cursor+durationMin, busy) {
				continue
			}
			if _, ok := seen[cursor]; ok {
				continue
			}
			seen[cursor] = struct{}{}
			starts = append(starts, cursor)
		}
	}

	sort.Ints(starts)

	slots := make([]string, 0, len(starts))
	for _, s := range starts {
		slots = append(slots, FormatClock(s))
	}
	return slots
}

func overlapsAny(startMin, endMin int, busy []Busy) bool {
	for _, b := range busy {
		if Overlaps(startMin, endMin, b.StartMin, b.EndMin) {
			return true
		}
	}
	return false
}
