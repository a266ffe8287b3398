package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/postboard/internal/imaging"
	"github.com/debemdeboas/postboard/internal/model"
	"github.com/debemdeboas/postboard/internal/post"
)

// manualEncoder hands out one pending channel per Encode call so tests can
// decide when, and in what order, encodes resolve.
type manualEncoder struct {
	mu      sync.Mutex
	pending map[string]chan imaging.Result
	ctxs    map[string]context.Context
}

func newManualEncoder() *manualEncoder {
	return &manualEncoder{
		pending: make(map[string]chan imaging.Result),
		ctxs:    make(map[string]context.Context),
	}
}

func (m *manualEncoder) Encode(ctx context.Context, src imaging.Source) <-chan imaging.Result {
	ch := make(chan imaging.Result, 1)
	m.mu.Lock()
	m.pending[src.Name()] = ch
	m.ctxs[src.Name()] = ctx
	m.mu.Unlock()
	return ch
}

func (m *manualEncoder) resolve(name string, r imaging.Result) {
	m.mu.Lock()
	ch := m.pending[name]
	m.mu.Unlock()
	ch <- r
	close(ch)
}

func (m *manualEncoder) ctx(name string) context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctxs[name]
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for image selection to settle")
	}
}

func src(name string) imaging.Source {
	return imaging.BytesSource{Filename: name}
}

func newTestController() (*Controller, *post.Store, *manualEncoder) {
	store := post.New(nil)
	enc := newManualEncoder()
	return NewController(store, enc, zerolog.Nop()), store, enc
}

func fill(t *testing.T, c *Controller, title, content, image string) {
	t.Helper()
	for field, value := range map[Field]string{FieldTitle: title, FieldContent: content, FieldImage: image} {
		if err := c.SetField(field, value); err != nil {
			t.Fatalf("SetField(%s) failed: %v", field, err)
		}
	}
}

func TestSetField(t *testing.T) {
	c, _, _ := newTestController()

	fill(t, c, "t", "c", "i")
	if err := c.SetField(FieldContent, "changed"); err != nil {
		t.Fatal(err)
	}

	draft, _, _ := c.Snapshot()
	want := model.Draft{Title: "t", Content: "changed", Image: "i"}
	if draft != want {
		t.Errorf("Expected %+v, got %+v", want, draft)
	}

	if err := c.SetField("date", "x"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
	if after, _, _ := c.Snapshot(); after != want {
		t.Errorf("Expected unknown field to change nothing, got %+v", after)
	}
}

func TestSubmitCreates(t *testing.T) {
	c, store, _ := newTestController()

	fill(t, c, "Hello", "World", "data:img1")
	if got := c.Submit(); got != Created {
		t.Fatalf("Expected Created, got %v", got)
	}

	if store.Len() != 1 {
		t.Fatalf("Expected one post, got %d", store.Len())
	}
	draft, _, editing := c.Snapshot()
	if !draft.IsEmpty() || editing {
		t.Errorf("Expected clean Idle state, got %+v editing=%v", draft, editing)
	}
}

// A subscriber stuck in a slow save must not block readers of the form.
func TestSnapshotDuringSlowSave(t *testing.T) {
	c, store, _ := newTestController()

	entered := make(chan struct{})
	release := make(chan struct{})
	store.Subscribe(func([]model.Post) {
		close(entered)
		<-release
	})

	fill(t, c, "Hello", "World", "data:img1")
	result := make(chan Outcome, 1)
	go func() { result <- c.Submit() }()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the subscriber")
	}

	snapshot := make(chan struct{})
	go func() {
		c.Snapshot()
		close(snapshot)
	}()
	select {
	case <-snapshot:
	case <-time.After(5 * time.Second):
		t.Fatal("Snapshot blocked while a subscriber was saving")
	}

	close(release)
	if got := <-result; got != Created {
		t.Fatalf("Expected Created, got %v", got)
	}
	if draft, _, editing := c.Snapshot(); !draft.IsEmpty() || editing {
		t.Errorf("Expected reset after submit, got %+v editing=%v", draft, editing)
	}
}

func TestEditStateMachine(t *testing.T) {
	c, store, _ := newTestController()
	fill(t, c, "Hello", "World", "data:img1")
	c.Submit()
	original := store.List()[0]

	c.StartEdit(original)
	draft, target, editing := c.Snapshot()
	if !editing || target != original.ID {
		t.Fatalf("Expected Editing(%d), got editing=%v target=%d", original.ID, editing, target)
	}
	if draft != model.DraftFromPost(original) {
		t.Errorf("Expected draft copied from post, got %+v", draft)
	}

	c.SetField(FieldContent, "Updated")
	if got := c.Submit(); got != Updated {
		t.Fatalf("Expected Updated, got %v", got)
	}

	if store.Len() != 1 {
		t.Fatalf("Expected edit not to create a post, got %d posts", store.Len())
	}
	updated := store.List()[0]
	if updated.Content != "Updated" || updated.ID != original.ID || updated.Date != original.Date {
		t.Errorf("Unexpected post after edit: %+v", updated)
	}

	if _, _, editing := c.Snapshot(); editing {
		t.Error("Expected Idle after submit")
	}
}

func TestRejectedSubmitStillResets(t *testing.T) {
	t.Run("Incomplete create", func(t *testing.T) {
		c, store, _ := newTestController()
		fill(t, c, "", "x", "data:imgX")

		if got := c.Submit(); got != Rejected {
			t.Errorf("Expected Rejected, got %v", got)
		}
		if store.Len() != 0 {
			t.Errorf("Expected no post, got %d", store.Len())
		}
		if draft, _, _ := c.Snapshot(); !draft.IsEmpty() {
			t.Errorf("Expected draft reset, got %+v", draft)
		}
	})

	t.Run("Update against a vanished post", func(t *testing.T) {
		c, store, _ := newTestController()
		fill(t, c, "t", "c", "i")
		c.Submit()
		p := store.List()[0]

		c.StartEdit(p)
		store.Delete(p.ID)

		if got := c.Submit(); got != Rejected {
			t.Errorf("Expected Rejected, got %v", got)
		}
		if store.Len() != 0 {
			t.Errorf("Expected update not to resurrect the post, got %d posts", store.Len())
		}
		draft, _, editing := c.Snapshot()
		if editing || !draft.IsEmpty() {
			t.Errorf("Expected Idle with empty draft, got %+v editing=%v", draft, editing)
		}
	})
}

func TestCancel(t *testing.T) {
	c, _, _ := newTestController()
	c.StartEdit(model.Post{ID: 7, Title: "t", Content: "c", Image: "i", Date: "d"})
	c.Cancel()

	draft, target, editing := c.Snapshot()
	if editing || target != 0 || !draft.IsEmpty() {
		t.Errorf("Expected Idle, got %+v target=%d editing=%v", draft, target, editing)
	}
}

func TestSelectImage(t *testing.T) {
	t.Run("Result lands in the image field", func(t *testing.T) {
		c, _, enc := newTestController()
		c.SetField(FieldTitle, "keep me")

		done := c.SelectImage(src("a.png"))
		enc.resolve("a.png", imaging.Result{DataURI: "data:image/png;base64,AA=="})
		wait(t, done)

		draft, _, _ := c.Snapshot()
		if draft.Image != "data:image/png;base64,AA==" || draft.Title != "keep me" {
			t.Errorf("Unexpected draft %+v", draft)
		}
	})

	t.Run("Nil source is skipped", func(t *testing.T) {
		c, _, _ := newTestController()
		c.SetField(FieldImage, "old")
		wait(t, c.SelectImage(nil))
		if draft, _, _ := c.Snapshot(); draft.Image != "old" {
			t.Errorf("Expected image untouched, got %q", draft.Image)
		}
	})

	t.Run("Read failure leaves previous value", func(t *testing.T) {
		c, _, enc := newTestController()
		c.SetField(FieldImage, "old")

		done := c.SelectImage(src("bad.png"))
		enc.resolve("bad.png", imaging.Result{Err: errors.New("read failed")})
		wait(t, done)

		if draft, _, _ := c.Snapshot(); draft.Image != "old" {
			t.Errorf("Expected image untouched, got %q", draft.Image)
		}
	})

	t.Run("Most recent selection wins", func(t *testing.T) {
		c, _, enc := newTestController()

		first := c.SelectImage(src("first.png"))
		second := c.SelectImage(src("second.png"))

		// The newer selection resolves first, the stale one last.
		enc.resolve("second.png", imaging.Result{DataURI: "data:second"})
		wait(t, second)
		enc.resolve("first.png", imaging.Result{DataURI: "data:first"})
		wait(t, first)

		if draft, _, _ := c.Snapshot(); draft.Image != "data:second" {
			t.Errorf("Expected the most recent selection to win, got %q", draft.Image)
		}
	})

	t.Run("Pending encode does not leak into the next draft", func(t *testing.T) {
		c, _, enc := newTestController()
		fill(t, c, "t", "c", "i")

		done := c.SelectImage(src("slow.png"))
		c.Submit()
		enc.resolve("slow.png", imaging.Result{DataURI: "data:slow"})
		wait(t, done)

		if draft, _, _ := c.Snapshot(); !draft.IsEmpty() {
			t.Errorf("Expected fresh draft to stay empty, got %+v", draft)
		}
	})

	t.Run("Close drops late results and cancels encodes", func(t *testing.T) {
		c, _, enc := newTestController()

		done := c.SelectImage(src("late.png"))
		c.Close()

		if err := enc.ctx("late.png").Err(); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected encode context to be cancelled, got %v", err)
		}

		enc.resolve("late.png", imaging.Result{DataURI: "data:late"})
		wait(t, done)

		if draft, _, _ := c.Snapshot(); draft.Image != "" {
			t.Errorf("Expected no mutation after close, got %q", draft.Image)
		}

		wait(t, c.SelectImage(src("after.png")))
	})
}

func TestSelectImageWithRealEncoder(t *testing.T) {
	store := post.New(nil)
	c := NewController(store, imaging.NewEncoder(zerolog.Nop()), zerolog.Nop())
	defer c.Close()

	wait(t, c.SelectImage(imaging.BytesSource{Filename: "a.txt", Data: []byte("hi")}))
	c.SetField(FieldTitle, "t")
	c.SetField(FieldContent, "c")

	if got := c.Submit(); got != Created {
		t.Fatalf("Expected Created, got %v", got)
	}
	if img := store.List()[0].Image; img != "data:text/plain;base64,aGk=" {
		t.Errorf("Unexpected stored image %q", img)
	}
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{Created: "created", Updated: "updated", Rejected: "rejected"} {
		if o.String() != want {
			t.Errorf("Expected %q, got %q", want, o.String())
		}
	}
}
