package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/noah-isme/petcal-api/internal/models"
)

var weekdays = map[string]rrule.Weekday{
	"MO": rrule.MO,
	"TU": rrule.TU,
	"WE": rrule.WE,
	"TH": rrule.TH,
	"FR": rrule.FR,
	"SA": rrule.SA,
	"SU": rrule.SU,
}

var frequencies = map[models.Frequency]rrule.Frequency{
	models.FrequencyDaily:   rrule.DAILY,
	models.FrequencyWeekly:  rrule.WEEKLY,
	models.FrequencyMonthly: rrule.MONTHLY,
	models.FrequencyYearly:  rrule.YEARLY,
}

// ParseWeekday accepts "MO", "Mon", "monday" and similar spellings.
func ParseWeekday(raw string) (rrule.Weekday, bool) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if len(token) < 2 {
		return rrule.Weekday{}, false
	}
	wd, ok := weekdays[token[:2]]
	return wd, ok
}

// NormalizeDays maps weekday spellings to two-letter tokens in input order,
// dropping duplicates.
func NormalizeDays(days []string) ([]string, error) {
	out := make([]string, 0, len(days))
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		if _, ok := ParseWeekday(d); !ok {
			return nil, fmt.Errorf("unknown weekday %q", d)
		}
		token := strings.ToUpper(strings.TrimSpace(d))[:2]
		if seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out, nil
}

// Rule builds the rrule for a series whose first occurrence starts at
// dtstart. The recurrence end date is inclusive of its whole day. When both
// an end date and an occurrence count are set the series stops at whichever
// is reached first.
func Rule(rec models.Recurrence, dtstart time.Time) (*rrule.RRule, error) {
	freq, ok := frequencies[rec.FrequencyType]
	if !ok {
		return nil, fmt.Errorf("unsupported frequency %q", rec.FrequencyType)
	}
	opt := rrule.ROption{
		Freq:     freq,
		Interval: rec.Interval(),
		Dtstart:  dtstart,
	}
	if rec.FrequencyType == models.FrequencyWeekly {
		for _, d := range rec.Days {
			wd, ok := ParseWeekday(d)
			if !ok {
				return nil, fmt.Errorf("unknown weekday %q", d)
			}
			opt.Byweekday = append(opt.Byweekday, wd)
		}
	}
	if rec.EndDate != nil {
		y, m, d := rec.EndDate.In(dtstart.Location()).Date()
		opt.Until = time.Date(y, m, d, 23, 59, 59, 0, dtstart.Location())
	}
	if rec.Occurrences != nil {
		if *rec.Occurrences < 1 {
			return nil, fmt.Errorf("occurrences must be at least 1")
		}
		opt.Count = *rec.Occurrences
	}
	return rrule.NewRRule(opt)
}

// RRuleValue renders the RRULE property value for rec, without DTSTART.
func RRuleValue(rec models.Recurrence, dtstart time.Time) (string, error) {
	r, err := Rule(rec, dtstart)
	if err != nil {
		return "", err
	}
	return r.OrigOptions.RRuleString(), nil
}
