package filters

import (
	"strconv"

	"github.com/dinefind/core/internal/models"
)

const minutesPerWeek = 7 * 24 * 60

// Apply removes candidates that fail the final filters. Pure function:
// no logging, no mutation of inputs. Candidates with unknown metadata
// are kept, which is why UnknownExcluded stays zero under the
// conservative policy.
func Apply(candidates []models.Candidate, f models.FinalFilters) ([]models.Candidate, models.FilterStats) {
	stats := models.FilterStats{Before: len(candidates)}
	kept := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if satisfies(c, f) {
			kept = append(kept, c)
		}
	}
	stats.After = len(kept)
	stats.Removed = stats.Before - stats.After
	return kept, stats
}

func satisfies(c models.Candidate, f models.FinalFilters) bool {
	if !openStateSatisfied(c, f) {
		return false
	}
	if f.PriceLevel != nil && !priceSatisfied(c.PriceLevel, *f.PriceLevel) {
		return false
	}
	// kosher, accessible and parking are accepted as constraints but the
	// provider exposes no signal for them, so they never remove anything
	return true
}

// priceSatisfied treats budget constraints (1-2) as a ceiling and
// upscale constraints (3-4) as a floor. Unknown price is kept.
func priceSatisfied(price, want int) bool {
	if price == 0 {
		return true
	}
	if want <= 2 {
		return price <= want
	}
	return price >= want
}

func openStateSatisfied(c models.Candidate, f models.FinalFilters) bool {
	switch f.OpenState {
	case models.OpenStateNow:
		return c.OpenNow == nil || *c.OpenNow
	case models.OpenStateAt:
		if f.OpenAt == nil || len(c.Periods) == 0 {
			return true
		}
		at, ok := parseWeekMinute(f.OpenAt.Day, f.OpenAt.Time)
		if !ok {
			return true
		}
		return openAtMinute(c.Periods, at)
	case models.OpenStateBetween:
		if f.OpenBetween == nil || len(c.Periods) == 0 {
			return true
		}
		start, okStart := parseWeekMinute(f.OpenBetween.Day, f.OpenBetween.Start)
		end, okEnd := parseWeekMinute(f.OpenBetween.Day, f.OpenBetween.End)
		if !okStart || !okEnd {
			return true
		}
		if end <= start {
			end += minutesPerWeek
		}
		return openDuringRange(c.Periods, start, end)
	default:
		return true
	}
}

func openAtMinute(periods []models.OpenPeriod, at int) bool {
	for _, p := range periods {
		start, end, ok := periodInterval(p)
		if !ok {
			continue
		}
		for _, shift := range []int{0, minutesPerWeek} {
			t := at + shift
			if t >= start && t < end {
				return true
			}
		}
	}
	return false
}

func openDuringRange(periods []models.OpenPeriod, start, end int) bool {
	for _, p := range periods {
		pStart, pEnd, ok := periodInterval(p)
		if !ok {
			continue
		}
		for _, shift := range []int{-minutesPerWeek, 0, minutesPerWeek} {
			s := start + shift
			e := end + shift
			if max(pStart, s) < min(pEnd, e) {
				return true
			}
		}
	}
	return false
}

// periodInterval converts a weekly period into [start, end) minutes.
// A period with no close time means always open. Intervals crossing the
// week boundary extend past minutesPerWeek.
func periodInterval(p models.OpenPeriod) (int, int, bool) {
	start, ok := parseWeekMinute(p.OpenDay, p.OpenTime)
	if !ok {
		return 0, 0, false
	}
	if p.CloseTime == "" {
		return 0, minutesPerWeek, true
	}
	end, ok := parseWeekMinute(p.CloseDay, p.CloseTime)
	if !ok {
		return 0, 0, false
	}
	if end <= start {
		end += minutesPerWeek
	}
	return start, end, true
}

func parseWeekMinute(day int, clock string) (int, bool) {
	if day < 0 || day > 6 || len(clock) != 5 || clock[2] != ':' {
		return 0, false
	}
	h, err := strconv.Atoi(clock[:2])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(clock[3:])
	if err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return day*24*60 + h*60 + m, true
}
