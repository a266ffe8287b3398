// Package post owns the ordered post collection and the only operations
// allowed to change it.
package post

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/postboard/internal/model"
)

const DefaultDateLayout = "1/2/2006"

// Subscriber receives its own copy of the collection after every completed
// mutation. It may read the store but must not mutate it.
type Subscriber func(posts []model.Post)

type subscription struct {
	id uint64
	fn Subscriber
}

// Store holds posts newest-created first. Mutations are serialized and
// subscribers observe them in the order they were applied.
type Store struct {
	mu          sync.Mutex
	posts       []model.Post
	lastID      model.PostID
	subscribers []subscription
	nextSubID   uint64
	seq         uint64

	turnMu    sync.Mutex
	turn      *sync.Cond
	delivered uint64

	now        func() time.Time
	dateLayout string
	logger     zerolog.Logger
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithDateLayout(layout string) Option {
	return func(s *Store) {
		if layout != "" {
			s.dateLayout = layout
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New seeds the store with previously persisted posts. Entries that break
// the collection invariants (missing fields, repeated ids) are dropped.
func New(seed []model.Post, opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		dateLayout: DefaultDateLayout,
		logger:     zerolog.Nop(),
	}
	s.turn = sync.NewCond(&s.turnMu)

	for _, opt := range opts {
		opt(s)
	}

	seen := make(map[model.PostID]bool, len(seed))
	s.posts = make([]model.Post, 0, len(seed))
	for _, p := range seed {
		if !p.Valid() {
			s.logger.Warn().Stringer("post_id", p.ID).Msg("Dropping stored post with missing fields")
			continue
		}
		if seen[p.ID] {
			s.logger.Warn().Stringer("post_id", p.ID).Msg("Dropping stored post with duplicate id")
			continue
		}
		seen[p.ID] = true
		s.posts = append(s.posts, p)
		s.lastID = max(s.lastID, p.ID)
	}

	return s
}

// Create prepends a new post built from d. A draft with any empty field is
// rejected and the collection is left untouched.
func (s *Store) Create(d model.Draft) (model.Post, bool) {
	if !d.Complete() {
		s.logger.Debug().Msg("Create rejected: incomplete draft")
		return model.Post{}, false
	}

	s.mu.Lock()
	now := s.now()
	p := model.Post{
		ID:      s.allocateID(now),
		Title:   d.Title,
		Content: d.Content,
		Image:   d.Image,
		Date:    now.Format(s.dateLayout),
	}
	s.posts = slices.Insert(s.posts, 0, p)
	s.commitLocked()

	s.logger.Info().Stringer("post_id", p.ID).Str("title", p.Title).Msg("Post created")
	return p, true
}

// Update replaces the title, content and image of post id in place. The
// id, date and position are kept. Partial drafts are rejected.
func (s *Store) Update(id model.PostID, d model.Draft) bool {
	if !d.Complete() {
		s.logger.Debug().Stringer("post_id", id).Msg("Update rejected: incomplete draft")
		return false
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.logger.Debug().Stringer("post_id", id).Msg("Update rejected: post not found")
		return false
	}

	s.posts[i].Title = d.Title
	s.posts[i].Content = d.Content
	s.posts[i].Image = d.Image
	s.commitLocked()

	s.logger.Info().Stringer("post_id", id).Msg("Post updated")
	return true
}

// Delete removes post id. Subscribers are only notified when a post was
// actually removed.
func (s *Store) Delete(id model.PostID) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}

	s.posts = slices.Delete(s.posts, i, i+1)
	s.commitLocked()

	s.logger.Info().Stringer("post_id", id).Msg("Post deleted")
	return true
}

// List returns a copy of the collection in display order.
func (s *Store) List() []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.posts)
}

func (s *Store) Get(id model.PostID) (model.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.posts[i], true
	}
	return model.Post{}, false
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// Subscribe registers fn for every future mutation and returns a function
// that removes it again.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscription) bool {
				return sub.id == id
			})
		})
	}
}

// allocateID derives the id from the creation instant, bumping past the
// highest id ever seen so ids are never reused. Caller holds s.mu.
func (s *Store) allocateID(now time.Time) model.PostID {
	id := model.PostID(now.UnixMilli())
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) indexOf(id model.PostID) int {
	return slices.IndexFunc(s.posts, func(p model.Post) bool {
		return p.ID == id
	})
}

// commitLocked takes a snapshot of the settled state, releases s.mu and
// delivers the snapshot once every earlier mutation has been delivered.
// s.mu is released before delivery so subscribers can call List and Get.
func (s *Store) commitLocked() {
	s.seq++
	seq := s.seq
	snapshot := slices.Clone(s.posts)
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	s.turnMu.Lock()
	for s.delivered+1 != seq {
		s.turn.Wait()
	}
	s.turnMu.Unlock()

	for _, sub := range subs {
		s.deliver(sub, slices.Clone(snapshot))
	}

	s.turnMu.Lock()
	s.delivered = seq
	s.turn.Broadcast()
	s.turnMu.Unlock()
}

func (s *Store) deliver(sub subscription, posts []model.Post) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Uint64("subscriber", sub.id).Msg("Subscriber panicked")
		}
	}()
	sub.fn(posts)
}
