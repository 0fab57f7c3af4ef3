// Package aggregate derives the dashboard cards and chart series from a
// dataset store for a resolved selection. Every function is pure.
package aggregate

import (
	"clubstats/internal/core"
	"clubstats/internal/selection"
)

// Source is the read-only data the aggregator filters. *dataset.Store
// satisfies it.
type Source interface {
	Roster() []core.ClubRecord
	Membership() []core.YearlyMembership
	Sessions() []core.YearlySession
}

// Gender series labels.
const (
	LabelMales   = "Males"
	LabelFemales = "Females"
)

// CardTotals are the summed roster counts. Total is summed from the source
// total column and may differ from Males+Females.
type CardTotals struct {
	Males   int64 `json:"males"`
	Females int64 `json:"females"`
	Total   int64 `json:"total"`
}

// GenderPoint is one slice of the gender proportion chart.
type GenderPoint struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// MembershipPoint is one club row of the membership chart.
type MembershipPoint struct {
	Club  string `json:"club"`
	Y2023 int64  `json:"2023"`
	Y2024 int64  `json:"2024"`
}

// SessionPoint is one club row of the reading session chart.
type SessionPoint struct {
	Club  string  `json:"club"`
	Y2023 float64 `json:"2023"`
	Y2024 float64 `json:"2024"`
}

// View is every aggregate for one selection.
type View struct {
	Selection  selection.Selection `json:"-"`
	Cards      CardTotals          `json:"cards"`
	Gender     []GenderPoint       `json:"gender"`
	Membership []MembershipPoint   `json:"membership"`
	Sessions   []SessionPoint      `json:"sessions"`
}

// Clone returns a deep copy of v.
func (v View) Clone() View {
	out := v
	out.Selection.Clubs = cloneSlice(v.Selection.Clubs)
	out.Gender = cloneSlice(v.Gender)
	out.Membership = cloneSlice(v.Membership)
	out.Sessions = cloneSlice(v.Sessions)
	return out
}

// cloneSlice keeps nil and empty distinct so JSON output does not change.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// ComputeCardTotals sums the roster rows of the selected clubs.
func ComputeCardTotals(src Source, sel selection.Selection) CardTotals {
	set := sel.Set()
	var t CardTotals
	for _, r := range src.Roster() {
		if _, ok := set[r.Club]; !ok {
			continue
		}
		t.Males += r.Males
		t.Females += r.Females
		t.Total += r.Total
	}
	return t
}

// ComputeGenderSeries returns the Males and Females slices, in that order.
func ComputeGenderSeries(src Source, sel selection.Selection) []GenderPoint {
	return genderSeries(ComputeCardTotals(src, sel))
}

func genderSeries(t CardTotals) []GenderPoint {
	return []GenderPoint{
		{Label: LabelMales, Value: t.Males},
		{Label: LabelFemales, Value: t.Females},
	}
}

// ComputeMembershipSeries returns one point per selected membership row in
// store order. Duplicate rows for a club stay separate points.
func ComputeMembershipSeries(src Source, sel selection.Selection) []MembershipPoint {
	set := sel.Set()
	out := []MembershipPoint{}
	for _, m := range src.Membership() {
		if _, ok := set[m.Club]; ok {
			out = append(out, MembershipPoint{Club: m.Club, Y2023: m.Total2023, Y2024: m.Total2024})
		}
	}
	return out
}

// ComputeSessionSeries returns one point per selected session row in store
// order. Duplicate rows for a club stay separate points.
func ComputeSessionSeries(src Source, sel selection.Selection) []SessionPoint {
	set := sel.Set()
	out := []SessionPoint{}
	for _, s := range src.Sessions() {
		if _, ok := set[s.Club]; ok {
			out = append(out, SessionPoint{Club: s.Club, Y2023: s.Average2023, Y2024: s.Average2024})
		}
	}
	return out
}

// Computer produces a View for a selection.
type Computer interface {
	Compute(sel selection.Selection) View
}

// Aggregator computes views from a fixed source.
type Aggregator struct {
	src Source
}

// New returns an Aggregator over src.
func New(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Compute runs every aggregate against the same selection value.
func (a *Aggregator) Compute(sel selection.Selection) View {
	cards := ComputeCardTotals(a.src, sel)
	return View{
		Selection:  sel,
		Cards:      cards,
		Gender:     genderSeries(cards),
		Membership: ComputeMembershipSeries(a.src, sel),
		Sessions:   ComputeSessionSeries(a.src, sel),
	}
}
