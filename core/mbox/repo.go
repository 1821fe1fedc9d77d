package mbox

import (
	"sync"
	"sync/atomic"

	"github.com/codewandler/actr-go/core/sf"
)

// RepositoryOptions configures a Repository. Zero values get defaults.
type RepositoryOptions struct {
	Tracer  Tracer
	Metrics MboxMetrics
}

// Repository owns every mailbox of an environment: it assigns the
// process-unique mailbox ids and keeps the named-mailbox index.
type Repository struct {
	tracer  Tracer
	metrics MboxMetrics

	mu    sync.RWMutex
	named map[string]Mbox
	live  atomic.Int64

	creating *sf.Singleflight[Mbox]
}

// NewRepository creates an empty repository.
func NewRepository(opts RepositoryOptions) *Repository {
	if opts.Tracer == nil {
		opts.Tracer = NopTracer()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMboxMetrics()
	}
	return &Repository{
		tracer:   opts.Tracer,
		metrics:  opts.Metrics,
		named:    make(map[string]Mbox),
		creating: sf.New[Mbox](),
	}
}

// mboxIDGen is shared by every repository, so mailbox ids are unique across
// the process and not only within one environment.
var mboxIDGen atomic.Uint64

func (r *Repository) nextID() uint64 { return mboxIDGen.Add(1) }

func (r *Repository) track(m Mbox) Mbox {
	r.metrics.MailboxesActive(int(r.live.Add(1)))
	return m
}

// CreateAnonymous creates an unnamed shared mailbox.
func (r *Repository) CreateAnonymous() Mbox {
	return r.track(newMPMC(r.nextID(), "", r.tracer, r.metrics))
}

// CreateNamed creates a shared mailbox under a unique name. A second create
// for an existing name fails with ErrNameCollision; concurrent creates for
// the same name are collapsed into one creation and all receive the same
// mailbox.
func (r *Repository) CreateNamed(name string) (Mbox, error) {
	return r.creating.Do(name, func() (Mbox, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, exists := r.named[name]; exists {
			return nil, ErrNameCollision
		}
		m := newMPMC(r.nextID(), name, r.tracer, r.metrics)
		r.named[name] = m
		return r.track(m), nil
	})
}

// LookupNamed returns the mailbox registered under name, if any.
func (r *Repository) LookupNamed(name string) (Mbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.named[name]
	return m, ok
}

// CreateDirect creates the MPSC direct mailbox for owner.
func (r *Repository) CreateDirect(owner Subscriber) Mbox {
	return r.track(newMPSC(r.nextID(), owner, r.tracer, r.metrics))
}

// Tracer returns the delivery tracer shared by all mailboxes.
func (r *Repository) Tracer() Tracer { return r.tracer }
