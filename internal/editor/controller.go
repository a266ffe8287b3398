// Package editor holds the transient form state: the draft being typed and
// whether submitting it creates a new post or updates an existing one.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/postboard/internal/imaging"
	"github.com/debemdeboas/postboard/internal/model"
)

var ErrUnknownField = errors.New("unknown draft field")

type Field string

const (
	FieldTitle   Field = "title"
	FieldContent Field = "content"
	FieldImage   Field = "image"
)

// Store is the part of post.Store the controller drives.
type Store interface {
	Create(d model.Draft) (model.Post, bool)
	Update(id model.PostID, d model.Draft) bool
}

// ImageEncoder is satisfied by *imaging.Encoder.
type ImageEncoder interface {
	Encode(ctx context.Context, src imaging.Source) <-chan imaging.Result
}

type Outcome int

const (
	Rejected Outcome = iota
	Created
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "rejected"
	}
}

type Controller struct {
	mu        sync.Mutex
	draft     model.Draft
	target    model.PostID
	editing   bool
	selection uuid.UUID
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc

	store   Store
	encoder ImageEncoder
	logger  zerolog.Logger
}

func NewController(store Store, encoder ImageEncoder, logger zerolog.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		ctx:     ctx,
		cancel:  cancel,
		store:   store,
		encoder: encoder,
		logger:  logger,
	}
}

// SetField overwrites exactly one draft field.
func (c *Controller) SetField(name Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case FieldTitle:
		c.draft.Title = value
	case FieldContent:
		c.draft.Content = value
	case FieldImage:
		c.draft.Image = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// StartEdit loads p into the draft and routes the next submit to Update.
func (c *Controller) StartEdit(p model.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.draft = model.DraftFromPost(p)
	c.target = p.ID
	c.editing = true
	c.selection = uuid.Nil
	c.logger.Debug().Stringer("post_id", p.ID).Msg("Editing post")
}

// Cancel leaves edit mode and clears the draft.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Submit sends the draft to the store. The draft and edit mode are reset
// whether or not the store accepted it; the Outcome says which happened.
// The store, and the subscribers it runs, are called without holding the
// controller lock, so a slow save does not block Snapshot.
func (c *Controller) Submit() Outcome {
	c.mu.Lock()
	draft, target, editing := c.draft, c.target, c.editing
	c.mu.Unlock()

	outcome := Rejected
	if editing {
		if c.store.Update(target, draft) {
			outcome = Updated
		}
	} else if _, ok := c.store.Create(draft); ok {
		outcome = Created
	}

	c.logger.Debug().Stringer("outcome", outcome).Bool("editing", editing).Msg("Draft submitted")

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	return outcome
}

// SelectImage encodes src in the background and stores the result in the
// image field. Only the most recent selection can land: a slower, older
// encode finishing later is discarded, as is one that was pending when the
// draft was reset or replaced, and anything resolving after Close. A nil
// src is ignored. The returned channel closes once the result has been
// applied or dropped.
func (c *Controller) SelectImage(src imaging.Source) <-chan struct{} {
	done := make(chan struct{})
	if src == nil {
		close(done)
		return done
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(done)
		return done
	}
	token := uuid.New()
	c.selection = token
	ctx := c.ctx
	c.mu.Unlock()

	results := c.encoder.Encode(ctx, src)
	go func() {
		defer close(done)
		r, ok := <-results
		if !ok {
			return
		}
		c.applyImage(token, r)
	}()

	return done
}

func (c *Controller) applyImage(token uuid.UUID, r imaging.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		c.logger.Debug().Msg("Dropping image encoded after close")
	case token != c.selection:
		c.logger.Debug().Msg("Dropping image from superseded selection")
	case r.Err != nil:
		c.logger.Warn().Err(r.Err).Msg("Image encoding failed, keeping previous image")
	default:
		c.draft.Image = r.DataURI
	}
}

// Snapshot returns the draft and edit state for rendering.
func (c *Controller) Snapshot() (draft model.Draft, target model.PostID, editing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft, c.target, c.editing
}

// Close cancels in-flight image encodes; their results are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// resetLocked also forgets the pending selection, so an encode started
// for the old draft cannot leak into the next one.
func (c *Controller) resetLocked() {
	c.draft = model.Draft{}
	c.target = 0
	c.editing = false
	c.selection = uuid.Nil
}
