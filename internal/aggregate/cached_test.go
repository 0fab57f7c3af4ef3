package aggregate

import (
	"reflect"
	"testing"
	"time"

	"clubstats/internal/selection"
)

type countingComputer struct {
	calls int
	next  *Aggregator
}

func (c *countingComputer) Compute(sel selection.Selection) View {
	c.calls++
	return c.next.Compute(sel)
}

func TestCachedReusesResults(t *testing.T) {
	inner := &countingComputer{next: New(src)}
	c := NewCached(inner, 8, time.Minute)

	first := c.Compute(sel("Kunsu "))
	second := c.Compute(sel("Kunsu "))
	if inner.calls != 1 {
		t.Fatalf("expected one computation, got %d", inner.calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached view differs")
	}

	first.Membership[0].Y2023 = 999
	if third := c.Compute(sel("Kunsu ")); third.Membership[0].Y2023 != 20 {
		t.Fatalf("cache entry mutated through returned view")
	}
}

func TestCachedKeepsSelectionFlag(t *testing.T) {
	inner := &countingComputer{next: New(src)}
	c := NewCached(inner, 8, time.Minute)

	explicit := c.Compute(sel("Mankranso ", "Boatengkrom "))
	everything := c.Compute(all())
	if inner.calls != 1 {
		t.Fatalf("ALL and the full explicit set should share an entry, got %d calls", inner.calls)
	}
	if explicit.Selection.All || !everything.Selection.All {
		t.Fatalf("selection flags lost: %+v / %+v", explicit.Selection, everything.Selection)
	}
	if explicit.Cards != everything.Cards {
		t.Fatalf("cards differ")
	}
	if st := c.Cache().Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("stats = %+v", st)
	}
}
