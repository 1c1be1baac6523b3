package presentation

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"drawdeck/internal/canvas"
	"drawdeck/internal/domain"
	"drawdeck/internal/slides"
)

// fakeInput is a window-style event source tracking listener lifecycle.
type fakeInput struct {
	mu     sync.Mutex
	keys   []func(Key) bool
	wheels []func() bool
	adds   int
}

func (f *fakeInput) AddKeyListener(fn func(Key) bool) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, fn)
	f.adds++
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.keys = nil
	}
}

func (f *fakeInput) AddWheelListener(fn func() bool) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wheels = append(f.wheels, fn)
	f.adds++
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.wheels = nil
	}
}

func (f *fakeInput) pressKey(k Key) bool {
	f.mu.Lock()
	fns := append([]func(Key) bool(nil), f.keys...)
	f.mu.Unlock()
	consumed := false
	for _, fn := range fns {
		if fn(k) {
			consumed = true
		}
	}
	return consumed
}

func (f *fakeInput) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys) + len(f.wheels)
}

func threeFrameScene() []domain.Element {
	return []domain.Element{
		{ID: "f1", Type: domain.TypeFrame, X: 0, Y: 0, Width: 400, Height: 300},
		{ID: "f2", Type: domain.TypeFrame, X: 500, Y: 0, Width: 400, Height: 300},
		{ID: "f3", Type: domain.TypeFrame, X: 0, Y: 500, Width: 400, Height: 300},
		{ID: "s1", Type: "rectangle", FrameID: "f1", X: 10, Y: 10, Width: 50, Height: 50},
		{ID: "s2", Type: "rectangle", FrameID: "f2", X: 510, Y: 10, Width: 50, Height: 50},
		{ID: "s3", Type: "rectangle", FrameID: "f3", X: 10, Y: 510, Width: 50, Height: 50},
	}
}

func newFixture(t *testing.T, elements []domain.Element) (*Controller, *canvas.Memory, *fakeInput, *[]string) {
	t.Helper()
	mem := canvas.NewMemory(1280, 720)
	mem.ReplaceScene(elements, nil)
	in := &fakeInput{}
	var notices []string
	c := NewController(Config{
		Canvas:      mem,
		Slides:      slides.NewStore(nil, nil),
		Input:       in,
		Notify:      func(msg string) { notices = append(notices, msg) },
		SettleDelay: time.Hour, // keep async fits out of deterministic tests
	})
	return c, mem, in, &notices
}

func visibleIDs(els []domain.Element) map[string]bool {
	out := map[string]bool{}
	for _, el := range els {
		if !el.IsDeleted {
			out[el.ID] = true
		}
	}
	return out
}

func TestStartWithoutFramesNotifiesAndStaysIdle(t *testing.T) {
	bare := []domain.Element{{ID: "s1", Type: "rectangle"}}
	c, mem, _, notices := newFixture(t, bare)

	var changes int
	defer mem.OnChange(func(canvas.ChangeEvent) { changes++ })()

	c.Start()
	if c.Presenting() {
		t.Fatalf("controller went presenting without frames")
	}
	if len(*notices) != 1 {
		t.Fatalf("expected one notification, got %d", len(*notices))
	}
	if changes != 0 {
		t.Fatalf("scene mutated on refused start")
	}
}

func TestStartScenarioReadingOrderAndSlideZero(t *testing.T) {
	c, mem, _, _ := newFixture(t, threeFrameScene())
	c.Start()

	if !c.Presenting() {
		t.Fatalf("not presenting")
	}
	if c.CurrentSlide() != 0 || c.SlideCount() != 3 {
		t.Fatalf("slide %d of %d, want 0 of 3", c.CurrentSlide(), c.SlideCount())
	}
	// Row 1 left-to-right, then row 2: frame order f1, f2, f3.
	s := c.session
	got := []string{s.slides[0].ID, s.slides[1].ID, s.slides[2].ID}
	if !reflect.DeepEqual(got, []string{"f1", "f2", "f3"}) {
		t.Fatalf("slide sequence %v", got)
	}
	if mem.AppState().ActiveTool != domain.ToolLaser {
		t.Fatalf("active tool %q, want laser", mem.AppState().ActiveTool)
	}
	if vis := visibleIDs(mem.Elements()); len(vis) != 1 || !vis["s1"] {
		t.Fatalf("slide 0 visible set %v", vis)
	}
}

func TestNavigationIsolatesFromPristineSnapshot(t *testing.T) {
	c, mem, _, _ := newFixture(t, threeFrameScene())
	c.Start()
	c.Next()
	if c.CurrentSlide() != 1 {
		t.Fatalf("slide %d, want 1", c.CurrentSlide())
	}
	if vis := visibleIDs(mem.Elements()); len(vis) != 1 || !vis["s2"] {
		t.Fatalf("slide 1 visible set %v", vis)
	}
	c.Prev()
	if vis := visibleIDs(mem.Elements()); len(vis) != 1 || !vis["s1"] {
		t.Fatalf("back to slide 0, visible set %v", vis)
	}
}

func TestBoundaryNavigationIsNoOp(t *testing.T) {
	c, _, _, _ := newFixture(t, threeFrameScene())
	c.Start()

	c.Prev()
	if c.CurrentSlide() != 0 {
		t.Fatalf("prev at 0 moved to %d", c.CurrentSlide())
	}
	c.Next()
	c.Next()
	c.Next() // already at last
	if c.CurrentSlide() != 2 {
		t.Fatalf("next at last moved to %d", c.CurrentSlide())
	}
}

func TestRoundTripRestore(t *testing.T) {
	elements := threeFrameScene()
	c, mem, _, _ := newFixture(t, elements)
	st := domain.AppState{
		ScrollX: 120, ScrollY: -40,
		Zoom:       domain.Zoom{Value: 1.75},
		Theme:      "dark",
		ActiveTool: "rectangle",
	}
	mem.ReplaceScene(elements, &st)

	c.Start()
	c.Exit()

	if c.Presenting() {
		t.Fatalf("still presenting after exit")
	}
	if got := mem.AppState(); got != st {
		t.Fatalf("app state not restored: got %+v want %+v", got, st)
	}
	if got := mem.Elements(); !reflect.DeepEqual(got, elements) {
		t.Fatalf("elements not restored verbatim")
	}
}

func TestExitDefaultsToSelectionTool(t *testing.T) {
	c, mem, _, _ := newFixture(t, threeFrameScene())
	c.Start()
	c.Exit()
	if tool := mem.AppState().ActiveTool; tool != domain.ToolSelection {
		t.Fatalf("tool %q after exit, want selection", tool)
	}
}

func TestKeyboardNavigationAndTeardown(t *testing.T) {
	c, _, in, _ := newFixture(t, threeFrameScene())

	if in.listenerCount() != 0 {
		t.Fatalf("listeners before start")
	}
	c.Start()
	if in.listenerCount() != 2 {
		t.Fatalf("expected key+wheel listeners, got %d", in.listenerCount())
	}

	if !in.pressKey(KeyArrowRight) || c.CurrentSlide() != 1 {
		t.Fatalf("ArrowRight not consumed or no advance")
	}
	if !in.pressKey(KeySpace) || c.CurrentSlide() != 2 {
		t.Fatalf("Space not consumed or no advance")
	}
	if !in.pressKey(KeyArrowUp) || c.CurrentSlide() != 1 {
		t.Fatalf("ArrowUp not consumed or no retreat")
	}
	if in.pressKey("x") {
		t.Fatalf("unrelated key consumed")
	}

	if !in.pressKey(KeyEscape) || c.Presenting() {
		t.Fatalf("Escape did not exit")
	}
	if in.listenerCount() != 0 {
		t.Fatalf("listeners leaked after exit: %d", in.listenerCount())
	}

	// Repeated cycles must not accumulate listeners.
	c.Start()
	c.Exit()
	c.Start()
	if in.listenerCount() != 2 {
		t.Fatalf("listener count %d after repeated cycles", in.listenerCount())
	}
	c.Exit()
}

func TestWheelSuppressedOnlyWhilePresenting(t *testing.T) {
	c, _, _, _ := newFixture(t, threeFrameScene())
	if c.handleWheel() {
		t.Fatalf("wheel consumed while idle")
	}
	c.Start()
	if !c.handleWheel() {
		t.Fatalf("wheel not consumed while presenting")
	}
	c.Exit()
}

func TestRescanTracksCanvas(t *testing.T) {
	c, mem, _, _ := newFixture(t, threeFrameScene())
	order := c.Rescan()
	if len(order) != 3 {
		t.Fatalf("rescan found %d frames", len(order))
	}

	// Remove f2 from the scene and rescan.
	var remaining []domain.Element
	for _, el := range threeFrameScene() {
		if el.ID != "f2" && el.FrameID != "f2" {
			remaining = append(remaining, el)
		}
	}
	mem.ReplaceScene(remaining, nil)
	order = c.Rescan()
	if len(order) != 2 || order[0].ID != "f1" || order[1].ID != "f3" {
		t.Fatalf("rescan after delete: %v", order)
	}
}

func TestSlideMembersQuery(t *testing.T) {
	c, _, _, _ := newFixture(t, threeFrameScene())
	frame := domain.Element{ID: "f2", Type: domain.TypeFrame}
	members := c.SlideMembers(frame)
	if len(members) != 1 || members[0].ID != "s2" {
		t.Fatalf("members of f2: %v", members)
	}
}
