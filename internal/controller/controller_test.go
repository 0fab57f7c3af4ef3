package controller

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"clubstats/internal/aggregate"
	"clubstats/internal/core"
	"clubstats/internal/selection"
)

type testStore struct{}

func (testStore) Universe() []string { return []string{"A", "B", "C"} }

func (testStore) Contains(club string) bool { return club == "A" || club == "B" || club == "C" }

func (testStore) Roster() []core.ClubRecord {
	return []core.ClubRecord{
		{Club: "A", Males: 1, Females: 2, Total: 3},
		{Club: "B", Males: 10, Females: 20, Total: 30},
		{Club: "C", Males: 100, Females: 200, Total: 300},
	}
}

func (testStore) Membership() []core.YearlyMembership { return nil }

func (testStore) Sessions() []core.YearlySession { return nil }

// gate blocks Compute for selections whose key is registered until released.
type gate struct {
	next aggregate.Computer

	mu      sync.Mutex
	blocked map[string]chan struct{}
	started chan string
}

func newGate(next aggregate.Computer) *gate {
	return &gate{next: next, blocked: map[string]chan struct{}{}, started: make(chan string, 16)}
}

func (g *gate) block(key string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := make(chan struct{})
	g.blocked[key] = ch
	return ch
}

func (g *gate) Compute(sel selection.Selection) aggregate.View {
	g.started <- sel.Key()
	g.mu.Lock()
	ch := g.blocked[sel.Key()]
	g.mu.Unlock()
	if ch != nil {
		<-ch
	}
	return g.next.Compute(sel)
}

func waitStarted(t *testing.T, g *gate, key string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case k := <-g.started:
			if k == key {
				return
			}
		case <-timeout:
			t.Fatalf("computation for %q never started", key)
		}
	}
}

func start(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		running := c.running
		c.mu.Unlock()
		if running {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("controller did not start")
		}
		time.Sleep(time.Millisecond)
	}
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
}

func TestInitialViewIsAll(t *testing.T) {
	st := selection.New(testStore{})
	c := New(st, aggregate.New(testStore{}), Options{})
	v := c.View()
	if !v.Selection.All || v.Cards.Total != 333 || v.Version != 0 {
		t.Fatalf("initial view = %+v", v)
	}
	if c.Status() != Idle {
		t.Fatalf("status = %v", c.Status())
	}
}

func TestPublishesOnChange(t *testing.T) {
	st := selection.New(testStore{})
	c := New(st, aggregate.New(testStore{}), Options{})

	var mu sync.Mutex
	var got []View
	c.Subscribe(func(v View) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})
	start(t, c)

	if err := st.SetSelection([]string{"B"}); err != nil {
		t.Fatalf("select: %v", err)
	}
	waitIdle(t, c)

	v := c.View()
	if v.Version != 1 || v.Cards != (aggregate.CardTotals{Males: 10, Females: 20, Total: 30}) {
		t.Fatalf("view = %+v", v)
	}
	if v.Gender[0].Value != v.Cards.Males {
		t.Fatalf("cards and series from different snapshots: %+v", v)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriber saw %d views", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLastWriterWins(t *testing.T) {
	for _, workers := range []int{1, 2} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			st := selection.New(testStore{})
			g := newGate(aggregate.New(testStore{}))
			c := New(st, g, Options{Workers: workers})
			<-g.started // initial view

			var mu sync.Mutex
			var versions []uint64
			var clubs [][]string
			c.Subscribe(func(v View) {
				mu.Lock()
				versions = append(versions, v.Version)
				clubs = append(clubs, v.Selection.Clubs)
				mu.Unlock()
			})
			start(t, c)

			release := g.block("A")
			if err := st.SetSelection([]string{"A"}); err != nil {
				t.Fatalf("select A: %v", err)
			}
			waitStarted(t, g, "A")
			if c.Status() != Computing {
				t.Fatalf("status while A runs = %v", c.Status())
			}

			if err := st.SetSelection([]string{"B"}); err != nil {
				t.Fatalf("select B: %v", err)
			}
			if workers > 1 {
				waitIdle(t, c)
			}
			close(release)
			waitIdle(t, c)

			deadline := time.Now().Add(2 * time.Second)
			for c.Discarded() < 1 {
				if time.Now().After(deadline) {
					t.Fatalf("stale result for A was never discarded")
				}
				time.Sleep(5 * time.Millisecond)
			}

			v := c.View()
			if v.Version != 2 || !reflect.DeepEqual(v.Selection.Clubs, []string{"B"}) || v.Cards.Total != 30 {
				t.Fatalf("final view = %+v", v)
			}
			if c.Status() != Idle {
				t.Fatalf("status = %v", c.Status())
			}

			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			defer mu.Unlock()
			if !reflect.DeepEqual(versions, []uint64{2}) {
				t.Fatalf("published versions = %v", versions)
			}
			if !reflect.DeepEqual(clubs, [][]string{{"B"}}) {
				t.Fatalf("published selections = %v", clubs)
			}
		})
	}
}

func TestCoalescesPendingRequests(t *testing.T) {
	st := selection.New(testStore{})
	g := newGate(aggregate.New(testStore{}))
	c := New(st, g, Options{Workers: 1})
	<-g.started
	start(t, c)

	release := g.block("A")
	_ = st.SetSelection([]string{"A"})
	waitStarted(t, g, "A")
	_ = st.SetSelection([]string{"B"})
	_ = st.SetSelection([]string{"C"})
	close(release)
	waitIdle(t, c)

	if v := c.View(); v.Version != 3 || v.Cards.Total != 300 {
		t.Fatalf("final view = %+v", v)
	}
	// B was replaced in the pending slot before any worker picked it up.
	for {
		select {
		case k := <-g.started:
			if k == "B" {
				t.Fatalf("superseded pending selection B was computed")
			}
		default:
			return
		}
	}
}

func TestWaitIdleWithoutRun(t *testing.T) {
	st := selection.New(testStore{})
	c := New(st, aggregate.New(testStore{}), Options{})
	if err := c.WaitIdle(context.Background()); err != nil {
		t.Fatalf("idle controller: %v", err)
	}
	st.SetAll()
	if err := c.WaitIdle(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestRunTwice(t *testing.T) {
	c := New(selection.New(testStore{}), aggregate.New(testStore{}), Options{})
	start(t, c)
	if err := c.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Run returned %v", err)
	}
}

// changeOnFirst mutates the selection from inside its first Compute call.
type changeOnFirst struct {
	next   aggregate.Computer
	mutate func()
	once   sync.Once
}

func (c *changeOnFirst) Compute(sel selection.Selection) aggregate.View {
	c.once.Do(c.mutate)
	return c.next.Compute(sel)
}

func TestChangeDuringInitialCompute(t *testing.T) {
	st := selection.New(testStore{})
	agg := &changeOnFirst{next: aggregate.New(testStore{})}
	agg.mutate = func() {
		if err := st.SetSelection([]string{"C"}); err != nil {
			t.Errorf("select C: %v", err)
		}
	}
	c := New(st, agg, Options{})

	if v := c.View(); v.Version != 0 || !v.Selection.All {
		t.Fatalf("initial view = %+v", v)
	}
	start(t, c)
	waitIdle(t, c)

	v := c.View()
	if v.Version != 1 || !reflect.DeepEqual(v.Selection.Clubs, []string{"C"}) || v.Cards.Total != 300 {
		t.Fatalf("change made during the initial compute was lost: %+v", v)
	}
}
