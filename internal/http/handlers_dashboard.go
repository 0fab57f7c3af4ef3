package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clubstats/internal/aggregate"
	"clubstats/internal/charts"
	"clubstats/internal/controller"
	"clubstats/internal/log"
	"clubstats/internal/selection"
)

// handleDashboardPartial renders the cards and charts partial.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	s.writeDashboard(w, r, NewHTMXResponse(), s.currentView(r.Context()))
}

// handleSetSelection replaces the selection with the submitted club values.
// An empty submission selects nothing; club=all selects every club.
func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(st *selection.State) error {
		return st.SetSelection(clubsFromForm(r))
	})
}

// handleToggle flips one club in or out of the selection.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(st *selection.State) error {
		club := formClub(r.PostForm.Get("club"))
		if strings.TrimSpace(club) == "" {
			return errMissingClub
		}
		return st.Toggle(club)
	})
}

// handleSelectAll selects every club.
func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(st *selection.State) error {
		st.SetAll()
		return nil
	})
}

var errMissingClub = errors.New("missing club")

// mutate applies a selection change and responds with the recomputed view.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, apply func(*selection.State) error) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError(r, "invalid form").Write(w)
		return
	}

	logger := log.FromContext(r.Context())
	if err := apply(s.dash.State()); err != nil {
		switch {
		case errors.Is(err, selection.ErrUnknownClub):
			logger.WarnContext(r.Context(), "Rejected selection change",
				log.FieldError, err,
				"error_type", log.ErrorTypeValidation)
			UnprocessableEntityError(r, err.Error()).TriggerSelectionRejected(err.Error()).Write(w)
		case errors.Is(err, errMissingClub):
			BadRequestError(r, err.Error()).Write(w)
		default:
			logger.ErrorContext(r.Context(), "Selection change failed", log.FieldError, err)
			InternalServerError(r, "selection change failed").Write(w)
		}
		return
	}

	view := s.currentView(r.Context())
	logger.InfoContext(r.Context(), "Selection changed",
		log.FieldVersion, view.Version,
		log.FieldSelectionSize, len(view.Selection.Clubs),
		log.FieldSelectAll, view.Selection.All,
		log.FieldOperation, log.OpSelect)

	b := NewHTMXResponse().TriggerSelectionChanged(view.Version, len(view.Selection.Clubs), view.Selection.All)
	if wantsJSON(r) {
		b.BodyJSON(newDashboardJSON(view, s.dash.Status())).Write(w)
		return
	}
	s.writeDashboard(w, r, b, view)
}

func (s *Server) writeDashboard(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, view controller.View) {
	if s.templates == nil {
		InternalServerError(r, "templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard", newDashboardData(view)); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", "dashboard")
		InternalServerError(r, "render failed").Write(w)
		return
	}
	b.BodyHTML(buf.String()).Write(w)
}

// handleClubs lists the selector options, "Select All" first.
func (s *Server) handleClubs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	sel := s.dash.State().Current()
	writeJSON(w, http.StatusOK, clubsJSON{
		Options:  clubOptions(s.dash.State().Universe(), sel),
		Selected: newSelectionJSON(sel),
	})
}

// handleDashboardJSON returns the published view.
func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	view := s.currentView(r.Context())
	writeJSON(w, http.StatusOK, newDashboardJSON(view, s.dash.Status()))
}

// handleChart serves /charts/{gender,membership,sessions}.svg.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/charts/")
	kind, ok := strings.CutSuffix(name, ".svg")
	if !ok || kind == "" || strings.Contains(kind, "/") {
		NotFoundError(r, "unknown chart").Write(w)
		return
	}

	view := s.currentView(r.Context())
	var buf bytes.Buffer
	if err := charts.Render(&buf, kind, view.View, charts.Size{}); err != nil {
		if errors.Is(err, charts.ErrUnknownChart) {
			NotFoundError(r, "unknown chart").Write(w)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart render failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"chart", kind)
		InternalServerError(r, "chart render failed").Write(w)
		return
	}

	b := NewHTMXResponse().ContentType(charts.ContentType)
	// A request naming the published version may be cached briefly.
	if r.URL.Query().Get("v") == strconv.FormatUint(view.Version, 10) {
		b.CacheControl("private, max-age=300")
	} else {
		b.CacheControl("no-store")
	}
	b.Body(buf.Bytes()).Write(w)
}

const pageTitle = "Community Reading Project"

type clubOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

type chartRef struct {
	Kind  string
	Title string
	URL   string
}

type indexData struct {
	Title     string
	Options   []clubOption
	Dashboard dashboardData
}

type dashboardData struct {
	Version uint64
	Summary string
	Cards   aggregate.CardTotals
	Charts  []chartRef
}

type selectionJSON struct {
	All   bool     `json:"all"`
	Clubs []string `json:"clubs"`
}

type clubsJSON struct {
	Options  []clubOption  `json:"options"`
	Selected selectionJSON `json:"selected"`
}

type dashboardJSON struct {
	Version    uint64        `json:"version"`
	ComputedAt time.Time     `json:"computed_at"`
	Status     string        `json:"status"`
	Selection  selectionJSON `json:"selection"`
	aggregate.View
}

// clubOptions puts "Select All" first, then the universe in roster order.
// While everything is selected only "Select All" is marked.
func clubOptions(universe []string, sel selection.Selection) []clubOption {
	opts := make([]clubOption, 0, len(universe)+1)
	opts = append(opts, clubOption{Value: selection.AllValue, Label: "Select All", Selected: sel.All})
	for _, c := range universe {
		opts = append(opts, clubOption{Value: c, Label: c, Selected: !sel.All && sel.Has(c)})
	}
	return opts
}

func newDashboardData(v controller.View) dashboardData {
	d := dashboardData{
		Version: v.Version,
		Summary: summarize(v.Selection),
		Cards:   v.Cards,
	}
	for _, c := range []struct{ kind, title string }{
		{charts.KindGender, charts.TitleGender},
		{charts.KindMembership, charts.TitleMembership},
		{charts.KindSessions, charts.TitleSessions},
	} {
		d.Charts = append(d.Charts, chartRef{
			Kind:  c.kind,
			Title: c.title,
			URL:   "/charts/" + c.kind + ".svg?v=" + strconv.FormatUint(v.Version, 10),
		})
	}
	return d
}

func newSelectionJSON(sel selection.Selection) selectionJSON {
	clubs := sel.Clubs
	if clubs == nil {
		clubs = []string{}
	}
	return selectionJSON{All: sel.All, Clubs: clubs}
}

func newDashboardJSON(v controller.View, status controller.Status) dashboardJSON {
	return dashboardJSON{
		Version:    v.Version,
		ComputedAt: v.ComputedAt,
		Status:     status.String(),
		Selection:  newSelectionJSON(v.Selection),
		View:       v.View,
	}
}
