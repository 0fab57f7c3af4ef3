package http

import (
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"clubstats/internal/selection"
)

// formClub composes a submitted club value the way canonical names are
// composed. Whitespace and control characters are part of the name.
func formClub(s string) string {
	return norm.NFC.String(s)
}

// clubsFromForm returns the submitted club values without blanks.
func clubsFromForm(r *http.Request) []string {
	values := r.PostForm["club"]
	clubs := make([]string, 0, len(values))
	for _, v := range values {
		if c := formClub(v); strings.TrimSpace(c) != "" {
			clubs = append(clubs, c)
		}
	}
	return clubs
}

// wantsJSON reports whether a non-HTMX client asked for JSON.
func wantsJSON(r *http.Request) bool {
	if r.Header.Get("HX-Request") != "" {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// summarize describes a selection for the dashboard header.
func summarize(sel selection.Selection) string {
	switch {
	case sel.All:
		return "all reading clubs"
	case len(sel.Clubs) == 0:
		return "no reading clubs"
	case len(sel.Clubs) == 1:
		return sel.Clubs[0]
	default:
		return strconv.Itoa(len(sel.Clubs)) + " reading clubs"
	}
}
