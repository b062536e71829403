// Package pageview keeps the state owned by one rendered page: its
// navigation state, reveal observer, captcha loader and contact flow.
package pageview

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zachkp/portfolio/internal/captcha"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/logging"
	"github.com/Zachkp/portfolio/internal/site"
)

// View is one page lifetime.
type View struct {
	ID      string
	Created time.Time

	Doc     *captcha.Document
	Captcha *captcha.Loader
	Reveal  *site.Observer
	Contact *contact.Flow

	mu  sync.Mutex
	nav site.NavState

	lastSeen time.Time
	elem     *list.Element
}

func (v *View) Nav() site.NavState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.nav
}

// UpdateNav applies fn to the navigation state and stores the result when
// fn succeeds.
func (v *View) UpdateNav(fn func(site.NavState) (site.NavState, error)) (site.NavState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, err := fn(v.nav)
	if err != nil {
		return v.nav, err
	}
	v.nav = next
	return next, nil
}

// Options configure a Registry.
type Options struct {
	TTL      time.Duration
	MaxViews int
	SiteKey  string
	// NewFlow builds the contact flow for a view.
	NewFlow func() *contact.Flow
	// OnReveal receives each section reveal once per view.
	OnReveal func(viewID, section string)
}

// Registry holds live views, evicting the least recently used one when full
// and dropping views idle for longer than TTL.
type Registry struct {
	opts Options
	now  func() time.Time

	mu    sync.Mutex
	views map[string]*View
	lru   *list.List // front = most recently used
}

func NewRegistry(opts Options) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.MaxViews <= 0 {
		opts.MaxViews = 10000
	}
	return &Registry{
		opts:  opts,
		now:   time.Now,
		views: make(map[string]*View),
		lru:   list.New(),
	}
}

// Create starts a new view with the given theme.
func (r *Registry) Create(theme site.Theme) *View {
	now := r.now()
	v := &View{
		ID:       uuid.NewString(),
		Created:  now,
		Doc:      &captcha.Document{},
		Captcha:  captcha.NewLoader(r.opts.SiteKey),
		Reveal:   site.NewObserver(),
		nav:      site.NewNavState(theme),
		lastSeen: now,
	}
	if r.opts.NewFlow != nil {
		v.Contact = r.opts.NewFlow()
	}
	for _, s := range site.Sections {
		v.Reveal.Subscribe(s.ID, func(section string) {
			if r.opts.OnReveal != nil {
				r.opts.OnReveal(v.ID, section)
			}
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for r.lru.Len() >= r.opts.MaxViews {
		r.removeLocked(r.lru.Back().Value.(*View))
	}
	v.elem = r.lru.PushFront(v)
	r.views[v.ID] = v
	return v
}

// Get returns a live view and marks it used.
func (r *Registry) Get(id string) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	if !ok {
		return nil, false
	}
	now := r.now()
	if now.Sub(v.lastSeen) > r.opts.TTL {
		r.removeLocked(v)
		return nil, false
	}
	v.lastSeen = now
	r.lru.MoveToFront(v.elem)
	return v, true
}

// Sweep drops expired views and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for e := r.lru.Back(); e != nil; {
		v := e.Value.(*View)
		if now.Sub(v.lastSeen) <= r.opts.TTL {
			break
		}
		prev := e.Prev()
		r.removeLocked(v)
		removed++
		e = prev
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger := logging.GetLogger()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.Debug("Expired %d page views, %d live", n, r.Len())
			}
		}
	}
}

func (r *Registry) removeLocked(v *View) {
	r.lru.Remove(v.elem)
	delete(r.views, v.ID)
	v.Reveal.Close()
}
