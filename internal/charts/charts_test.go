package charts

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"clubstats/internal/aggregate"
)

// wellFormed reports whether b parses as XML with an svg root.
func wellFormed(t *testing.T, b []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.Strict = false
	var root string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("invalid SVG: %v\n%s", err, b)
		}
		if se, ok := tok.(xml.StartElement); ok && root == "" {
			root = se.Name.Local
		}
	}
	if root != "svg" {
		t.Fatalf("root element = %q, want svg", root)
	}
}

func sampleView() aggregate.View {
	return aggregate.View{
		Gender: []aggregate.GenderPoint{{Label: "Males", Value: 10}, {Label: "Females", Value: 8}},
		Membership: []aggregate.MembershipPoint{
			{Club: "Kunsu ", Y2023: 20, Y2024: 22},
			{Club: "Kunsu ", Y2023: 25, Y2024: 27},
			{Club: "Mankranso ", Y2023: 12, Y2024: 18},
		},
		Sessions: []aggregate.SessionPoint{
			{Club: "Kunsu ", Y2023: 2.5, Y2024: 3.25},
			{Club: "Mankranso ", Y2023: 1, Y2024: 4},
		},
	}
}

func TestRenderAllKinds(t *testing.T) {
	v := sampleView()
	for _, kind := range []string{KindGender, KindMembership, KindSessions} {
		t.Run(kind, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Render(&buf, kind, v, Size{}); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !strings.Contains(buf.String(), "<svg") {
				t.Fatalf("not an SVG: %.200s", buf.String())
			}
		})
	}
}

func TestRenderEmptySeries(t *testing.T) {
	empty := aggregate.View{
		Gender:     []aggregate.GenderPoint{{Label: "Males"}, {Label: "Females"}},
		Membership: []aggregate.MembershipPoint{},
		Sessions:   nil,
	}
	titles := map[string]string{
		KindGender:     TitleGender,
		KindMembership: TitleMembership,
		KindSessions:   TitleSessions,
	}
	for kind, title := range titles {
		t.Run(kind, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Render(&buf, kind, empty, Size{Width: 300, Height: 200}); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			wellFormed(t, buf.Bytes())
			if !strings.Contains(buf.String(), title) || !strings.Contains(buf.String(), "No data") {
				t.Errorf("placeholder missing title or note: %s", buf.String())
			}
		})
	}
}

func TestSingleClub(t *testing.T) {
	tests := []struct {
		name   string
		render func(io.Writer) error
	}{
		{"sessions", func(w io.Writer) error {
			return Sessions(w, []aggregate.SessionPoint{{Club: "Mankranso ", Y2023: 3, Y2024: 3}}, Size{})
		}},
		{"sessions zero", func(w io.Writer) error {
			return Sessions(w, []aggregate.SessionPoint{{Club: "Kunsu ", Y2023: 0, Y2024: 0}}, Size{})
		}},
		{"membership", func(w io.Writer) error {
			return Membership(w, []aggregate.MembershipPoint{{Club: "Mankranso ", Y2023: 12, Y2024: 18}}, Size{})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.render(&buf); err != nil {
				t.Fatalf("render error = %v", err)
			}
			wellFormed(t, buf.Bytes())
			if strings.Contains(buf.String(), "No data") {
				t.Fatalf("single club chart fell back to the placeholder")
			}
			if !strings.Contains(buf.String(), "Mankranso") && !strings.Contains(buf.String(), "Kunsu") {
				t.Errorf("club label missing from axis")
			}
		})
	}
}

func TestRenderBufferedReturnsError(t *testing.T) {
	boom := errors.New("boom")
	var buf bytes.Buffer
	err := renderBuffered(&buf, TitleSessions, func(w io.Writer) error {
		_, _ = io.WriteString(w, "<svg")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), TitleSessions) {
		t.Errorf("error %q does not name the chart", err)
	}
	if buf.Len() != 0 {
		t.Errorf("partial output written: %q", buf.String())
	}
}

func TestRenderUnknownKind(t *testing.T) {
	err := Render(io.Discard, "pie", aggregate.View{}, Size{})
	if !errors.Is(err, ErrUnknownChart) {
		t.Fatalf("err = %v, want ErrUnknownChart", err)
	}
}

func TestPlaceholderEscapesTitle(t *testing.T) {
	var buf bytes.Buffer
	if err := placeholder(&buf, "A & <B>", Size{Width: 10, Height: 10}); err != nil {
		t.Fatal(err)
	}
	wellFormed(t, buf.Bytes())
	if strings.Contains(buf.String(), "<B>") {
		t.Error("title not escaped")
	}
}

func TestYMax(t *testing.T) {
	if got := yMax(nil, []float64{0, 0}); got != 1 {
		t.Errorf("yMax(zeros) = %v, want 1", got)
	}
	if got := yMax([]float64{10}, []float64{5}); math.Abs(got-11) > 1e-9 {
		t.Errorf("yMax = %v, want 11", got)
	}
}
