package overview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

type fakeStream struct {
	ch        chan models.Snapshot
	closeOnce sync.Once
	closed    chan struct{}
	err       error
}

func newFakeStream() *fakeStream {
	return &fakeStream{ch: make(chan models.Snapshot, 4), closed: make(chan struct{})}
}

func (s *fakeStream) Snapshots() <-chan models.Snapshot { return s.ch }
func (s *fakeStream) Err() error { return s.err }
func (s *fakeStream) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		close(s.ch)
	})
}

// fail ends the stream with err, the way a dropped change stream does.
func (s *fakeStream) fail(err error) {
	s.err = err
	s.Close()
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

type fakeSource struct {
	mu      sync.Mutex
	streams []*fakeStream
	filters []models.RecordFilter
	err     error
}

func (f *fakeSource) Subscribe(_ context.Context, filter models.RecordFilter) (models.SnapshotStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := newFakeStream()
	f.streams = append(f.streams, s)
	f.filters = append(f.filters, filter)
	return s, nil
}

func (f *fakeSource) stream(i int) *fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[i]
}

var lines = []models.LineCode{"A", "B", "C"}

func receive(t *testing.T, v *View) State {
	t.Helper()
	select {
	case st, ok := <-v.Updates():
		if !ok {
			t.Fatal("updates channel closed")
		}
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for overview update")
	}
	return State{}
}

func TestViewAggregatesSnapshots(t *testing.T) {
	src := &fakeSource{}
	v := NewView(src, lines, nil)
	defer v.Close()

	if got := len(v.Current().Lines); got != len(lines) {
		t.Fatalf("initial state should list every line, got %d", got)
	}

	if err := v.Select(context.Background(), "B"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if src.filters[0].Shift != "B" {
		t.Errorf("subscription filter = %+v", src.filters[0])
	}

	ts := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	src.stream(0).ch <- models.Snapshot{Records: []models.HourlyRecord{
		{Line: "A", Timestamp: ts, Target: 10, Actual: 8},
		{Line: "Z", Timestamp: ts, Target: 99, Actual: 99},
	}, At: ts}

	st := receive(t, v)
	if st.Shift != "B" || len(st.Lines) != len(lines) {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.Lines[0].Line != "A" || st.Lines[0].ActualTotal != 8 {
		t.Errorf("line A should lead with its totals, got %+v", st.Lines[0])
	}

	// A later snapshot replaces the previous state rather than patching it.
	src.stream(0).ch <- models.Snapshot{Records: nil, At: ts.Add(time.Minute)}
	st = receive(t, v)
	for _, agg := range st.Lines {
		if agg.ActualTotal != 0 || len(agg.Records) != 0 {
			t.Errorf("stale data kept for line %s: %+v", agg.Line, agg)
		}
	}
}

func TestViewSelectReleasesPreviousSubscription(t *testing.T) {
	src := &fakeSource{}
	v := NewView(src, lines, nil)

	if err := v.Select(context.Background(), "A"); err != nil {
		t.Fatal(err)
	}
	if err := v.Select(context.Background(), "X"); err != nil {
		t.Fatal(err)
	}

	if !src.stream(0).isClosed() {
		t.Error("previous subscription must be closed before a new one is used")
	}
	if src.stream(1).isClosed() {
		t.Error("current subscription closed too early")
	}

	v.Close()
	v.Close()
	if !src.stream(1).isClosed() {
		t.Error("Close must release the active subscription")
	}
	if _, ok := <-v.Updates(); ok {
		t.Error("updates channel should be closed")
	}
	if err := v.Select(context.Background(), "B"); !errors.Is(err, ErrClosed) {
		t.Errorf("Select after Close = %v, want ErrClosed", err)
	}
}

func TestViewSelectPropagatesSubscribeError(t *testing.T) {
	boom := errors.New("store unreachable")
	v := NewView(&fakeSource{err: boom}, lines, nil)
	defer v.Close()

	if err := v.Select(context.Background(), ""); !errors.Is(err, boom) {
		t.Errorf("Select = %v, want %v", err, boom)
	}
}

func TestRegistryCloseSession(t *testing.T) {
	src := &fakeSource{}
	reg := NewRegistry(src, lines, nil)

	v1, _ := reg.Open("s1")
	v2, release2 := reg.Open("s1")
	v3, release3 := reg.Open("s2")
	defer release3()

	for _, v := range []*View{v1, v2, v3} {
		if err := v.Select(context.Background(), ""); err != nil {
			t.Fatal(err)
		}
	}
	if reg.Len() != 3 {
		t.Fatalf("Len = %d, want 3", reg.Len())
	}

	reg.CloseSession("s1")
	if !src.stream(0).isClosed() || !src.stream(1).isClosed() {
		t.Error("views of the ended session must be closed")
	}
	if src.stream(2).isClosed() {
		t.Error("views of other sessions must stay open")
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1", reg.Len())
	}

	release2()
	if reg.Len() != 1 {
		t.Errorf("releasing an already closed view changed the count: %d", reg.Len())
	}
}

func TestViewReportsFailedSubscription(t *testing.T) {
	src := &fakeSource{}
	v := NewView(src, lines, nil)
	defer v.Close()

	if err := v.Select(context.Background(), ""); err != nil {
		t.Fatalf("Select: %v", err)
	}
	ts := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	src.stream(0).ch <- models.Snapshot{Records: []models.HourlyRecord{{Line: "A", Timestamp: ts, Actual: 3}}, At: ts}
	receive(t, v)

	boom := errors.New("change stream ended")
	src.stream(0).fail(boom)

	select {
	case err := <-v.Failures():
		if !errors.Is(err, boom) {
			t.Fatalf("failure = %v, want %v", err, boom)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription failure was not reported")
	}
	if !errors.Is(v.Err(), boom) {
		t.Errorf("Err() = %v", v.Err())
	}

	// Selecting again clears the failure and resubscribes.
	if err := v.Select(context.Background(), "A"); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if v.Err() != nil {
		t.Errorf("Err() after reselect = %v", v.Err())
	}
	src.stream(1).ch <- models.Snapshot{At: ts.Add(time.Minute)}
	if st := receive(t, v); st.Shift != "A" {
		t.Errorf("state after reselect = %+v", st)
	}
}

func TestViewCloseIsNotAFailure(t *testing.T) {
	src := &fakeSource{}
	v := NewView(src, lines, nil)
	if err := v.Select(context.Background(), "B"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	v.Close()

	select {
	case err := <-v.Failures():
		t.Fatalf("unexpected failure %v", err)
	default:
	}
	if v.Err() != nil {
		t.Errorf("Err() = %v", v.Err())
	}
}
