package slides

import (
	"reflect"
	"testing"

	"drawdeck/internal/domain"
)

func frame(id string, x, y float64) domain.Element {
	return domain.Element{ID: id, Type: domain.TypeFrame, X: x, Y: y, Width: 400, Height: 300}
}

func ids(fs []domain.Element) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.ID
	}
	return out
}

func TestReconcileIdempotent(t *testing.T) {
	s := NewStore(nil, nil)
	live := []domain.Element{frame("a", 0, 0), frame("b", 500, 0)}
	first := s.Reconcile(live)
	second := s.Reconcile(live)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reconcile not idempotent: %v vs %v", ids(first), ids(second))
	}
	// Same content must short-circuit to the same underlying slice.
	if len(second) > 0 && &first[0] != &second[0] {
		t.Fatalf("expected the previous slice to be returned unchanged")
	}
}

func TestReconcileAppendsNewFramesAtEnd(t *testing.T) {
	s := NewStore(nil, nil)
	s.SetOrder([]domain.Element{frame("a", 0, 0), frame("b", 500, 0)})
	got := s.Reconcile([]domain.Element{frame("c", 0, 500), frame("a", 0, 0), frame("b", 500, 0)})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v want %v", ids(got), want)
	}
}

func TestReconcileDropsMissingFrames(t *testing.T) {
	s := NewStore(nil, nil)
	s.SetOrder([]domain.Element{frame("a", 0, 0), frame("b", 500, 0), frame("c", 0, 500)})
	got := s.Reconcile([]domain.Element{frame("a", 0, 0), frame("c", 0, 500)})
	want := []string{"a", "c"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v want %v", ids(got), want)
	}
}

func TestReconcileUsesLatestLiveObjects(t *testing.T) {
	s := NewStore(nil, nil)
	s.SetOrder([]domain.Element{frame("a", 0, 0)})
	moved := frame("a", 250, 0)
	got := s.Reconcile([]domain.Element{moved})
	if got[0].X != 250 {
		t.Fatalf("expected fresh live object in order, got x=%v", got[0].X)
	}
}

func TestFirstReconcileSeedsFromPersistedOrder(t *testing.T) {
	s := NewStore([]string{"b", "a", "zombie"}, nil)
	live := []domain.Element{frame("a", 0, 0), frame("b", 500, 0), frame("c", 0, 500)}
	got := s.Reconcile(live)
	want := []string{"b", "a", "c"} // persisted survivors first, then fresh frames
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v want %v", ids(got), want)
	}
}

func TestFirstReconcileFallsBackToReadingOrder(t *testing.T) {
	s := NewStore([]string{"gone1", "gone2"}, nil)
	live := []domain.Element{frame("low", 0, 500), frame("right", 500, 0), frame("left", 0, 0)}
	got := s.Reconcile(live)
	want := []string{"left", "right", "low"} // row 1 left-to-right, then row 2
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v want %v", ids(got), want)
	}
}

func TestPersistCalledWithNonEmptyOrderOnly(t *testing.T) {
	var calls [][]string
	s := NewStore(nil, func(order []string) { calls = append(calls, order) })

	s.Reconcile(nil) // empty scene, nothing to persist
	if len(calls) != 0 {
		t.Fatalf("persist called for empty order")
	}

	s.Reconcile([]domain.Element{frame("a", 0, 0)})
	if len(calls) != 1 || !reflect.DeepEqual(calls[0], []string{"a"}) {
		t.Fatalf("unexpected persist calls: %v", calls)
	}

	// Unchanged reconcile must not write again.
	s.Reconcile([]domain.Element{frame("a", 0, 0)})
	if len(calls) != 1 {
		t.Fatalf("persist called on unchanged order")
	}
}

func TestPlaybackFiltersToLiveFrames(t *testing.T) {
	s := NewStore(nil, nil)
	s.SetOrder([]domain.Element{frame("b", 500, 0), frame("a", 0, 0), frame("x", 0, 900)})
	live := []domain.Element{frame("a", 0, 0), frame("b", 500, 0)}
	got := s.Playback(live)
	want := []string{"b", "a"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v want %v", ids(got), want)
	}
}

func TestPlaybackFallsBackToReadingOrder(t *testing.T) {
	s := NewStore(nil, nil)
	live := []domain.Element{frame("b", 500, 0), frame("a", 0, 0)}
	got := s.Playback(live)
	want := []string{"a", "b"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v want %v", ids(got), want)
	}
}
