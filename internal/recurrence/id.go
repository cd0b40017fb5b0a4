package recurrence

import (
	"strings"
	"time"
)

const idLayout = "20060102T150405Z"

// OccurrenceID names a generated occurrence. The first occurrence of a series
// carries the master id itself so that it stays addressable as the series.
func OccurrenceID(masterID string, masterStart, slot time.Time) string {
	if slot.Equal(masterStart) {
		return masterID
	}
	return masterID + "_" + slot.UTC().Format(idLayout)
}

// ParseOccurrenceID splits a generated id into master id and slot. ok is false
// for plain row ids.
func ParseOccurrenceID(id string) (masterID string, slot time.Time, ok bool) {
	i := strings.LastIndexByte(id, '_')
	if i <= 0 || i == len(id)-1 {
		return "", time.Time{}, false
	}
	t, err := time.Parse(idLayout, id[i+1:])
	if err != nil {
		return "", time.Time{}, false
	}
	return id[:i], t, true
}
