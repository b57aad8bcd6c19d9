// Package slotparser turns free-form Japanese candidate-date text into
// structured (date, startTime, endTime) slots.
//
// One logical candidate per line, e.g.
//
//	7/20(月) 10:00~11:00 / 12:00~13:00、15:00~16:00
//
// Lines without a leading M/D date are skipped; time-range tokens that do
// not parse are dropped without affecting their siblings. The parser never
// fails; wholly unparseable input yields an empty result.
package slotparser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var jst = time.FixedZone("JST", 9*60*60)

// Slot is a tentative meeting option. Date is midnight JST of the candidate
// day; times keep their HH:MM form.
type Slot struct {
	Date      time.Time
	StartTime string
	EndTime   string
}

// Times resolves the slot to absolute JST instants. It fails on hours the
// range regex admits but the clock does not, e.g. "25:00".
func (s Slot) Times() (start, end time.Time, err error) {
	if start, err = s.at(s.StartTime); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end, err = s.at(s.EndTime); err != nil {
		return time.Time{}, time.Time{}, err
	}

	return start, end, nil
}

func (s Slot) at(hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", hhmm, err)
	}

	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), t.Hour(), t.Minute(), 0, 0, jst), nil
}

var (
	bulletRe    = regexp.MustCompile(`^[-・]`)
	dateRe      = regexp.MustCompile(`^(\d+)/(\d+)(?:\s*\([月火水木金土日]\))?\s*`)
	separatorRe = regexp.MustCompile(`[/,、]`)
	timeRangeRe = regexp.MustCompile(`(\d{1,2}:\d{2})\s*[-~～]\s*(\d{1,2}:\d{2})`)
)

// Parse extracts candidate slots from text, preserving input order. Months
// earlier than the current one roll over to next year.
func Parse(text string) []Slot {
	return parseAt(text, time.Now().In(jst))
}

func parseAt(text string, now time.Time) []Slot {
	var slots []Slot

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(bulletRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}

		dateMatch := dateRe.FindStringSubmatch(line)
		if dateMatch == nil {
			continue
		}

		month, _ := strconv.Atoi(dateMatch[1])
		day, _ := strconv.Atoi(dateMatch[2])

		year := now.Year()
		if month < int(now.Month()) {
			year++
		}
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, jst)

		rest := line[len(dateMatch[0]):]
		for _, token := range separatorRe.Split(rest, -1) {
			rangeMatch := timeRangeRe.FindStringSubmatch(strings.TrimSpace(token))
			if rangeMatch == nil {
				continue
			}

			slots = append(slots, Slot{
				Date:      date,
				StartTime: rangeMatch[1],
				EndTime:   rangeMatch[2],
			})
		}
	}

	return slots
}
