package erlike

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/axblount/erlike/log"
)

// Node is a registry of procs: it mints ProcIDs, routes Send calls to the right mailbox,
// and tracks every proc it has spawned until each has terminated. A Node corresponds to
// one Erlang-style node running in a single OS process; there is no cluster or remote
// delivery layer here (see SPEC_FULL.md's Non-goals).
type Node struct {
	name string
	id   uuid.UUID

	seq   atomic.Uint64
	procs sync.Map // uint64 -> *Proc

	mu        sync.Mutex
	uncaught  []error
	liveCount atomic.Int64
	allDone   chan struct{}

	logger log.Logger
}

// NodeOption configures a Node at construction time.
type NodeOption func(*Node)

// WithLogger overrides the Node's logger, and is propagated to every proc it spawns. The
// default is log.DefaultLogger.
func WithLogger(l log.Logger) NodeOption {
	return func(n *Node) { n.logger = l }
}

// WithName overrides the name given as NewNode's first argument. Mostly useful when a
// Node is built behind a constructor helper that otherwise hard-codes the name argument.
func WithName(name string) NodeOption {
	return func(n *Node) { n.name = name }
}

// NewNode creates a Node identified by name. An empty name is replaced by a generated
// one (node-<uuid>), matching original_source/.../Node.java's behavior of never leaving a
// node anonymous. name need not be unique process-wide; it is used only for ProcID.String
// rendering and log attribution.
func NewNode(name string, opts ...NodeOption) *Node {
	id := uuid.New()
	n := &Node{
		name:    name,
		id:      id,
		logger:  log.DefaultLogger,
		allDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.name == "" {
		n.name = "node-" + id.String()
	}
	n.logger = n.logger.With("node", n.name)
	close(n.allDone) // no procs yet: vacuously quiescent until the first Spawn
	return n
}

// Name returns the Node's name, as given to NewNode.
func (n *Node) Name() string {
	return n.name
}

// ID returns the Node's unique identifier, minted once at construction.
func (n *Node) ID() uuid.UUID {
	return n.id
}

// Spawn starts a new proc running body on its own goroutine and returns its ProcID
// immediately; body begins executing concurrently with the caller.
func (n *Node) Spawn(body func(self *Proc)) ProcID {
	id := ProcID{node: n, seq: n.seq.Add(1)}
	p := newProc(n, id, n.logger.With("proc", id.String()))

	n.procs.Store(id.seq, p)
	n.liveCount.Add(1)
	n.mu.Lock()
	if n.liveCount.Load() == 1 {
		n.allDone = make(chan struct{})
	}
	n.mu.Unlock()

	p.start(body)
	return id
}

// Spawn1 starts a proc whose body closes over a single typed argument, the generic
// analogue of passing a record to an actor's constructor.
func Spawn1[A any](n *Node, body func(self *Proc, a A), a A) ProcID {
	return n.Spawn(func(self *Proc) { body(self, a) })
}

// Spawn2 is Spawn1 for two arguments.
func Spawn2[A, B any](n *Node, body func(self *Proc, a A, b B), a A, b B) ProcID {
	return n.Spawn(func(self *Proc) { body(self, a, b) })
}

// Spawn3 is Spawn1 for three arguments.
func Spawn3[A, B, C any](n *Node, body func(self *Proc, a A, b B, c C), a A, b B, c C) ProcID {
	return n.Spawn(func(self *Proc) { body(self, a, b, c) })
}

// Spawn4 is Spawn1 for four arguments.
func Spawn4[A, B, C, D any](n *Node, body func(self *Proc, a A, b B, c C, d D), a A, b B, c C, d D) ProcID {
	return n.Spawn(func(self *Proc) { body(self, a, b, c, d) })
}

// SpawnRecursive starts a proc that runs body as a tail-recursive loop: body is called
// with init, and again with whatever state it returns, until it reports stop=true. This
// is the generic rendering of the common Erlang "loop(State) -> receive ... ,
// loop(NewState) end" shape, implemented as an ordinary Go loop rather than genuine
// recursion so an actor that never stops does not grow its goroutine's stack unbounded.
func SpawnRecursive[T any](n *Node, body func(self *Proc, state T) (next T, stop bool), init T) ProcID {
	return n.Spawn(func(self *Proc) {
		state := init
		for {
			next, stop := body(self, state)
			if stop {
				return
			}
			state = next
		}
	})
}

// Send delivers msg to target, exactly as target.Send(msg) would. It exists so callers
// holding a Node but not a ProcID-typed variable in scope (e.g. generic helper code) have
// a symmetric entry point.
func (n *Node) Send(target ProcID, msg any) {
	target.Send(msg)
}

// deliver routes msg to the proc identified by seq on this node. Delivery is best-effort:
// a seq with no live proc (already terminated, or never spawned on this node) silently
// drops msg.
func (n *Node) deliver(seq uint64, msg any) {
	v, ok := n.procs.Load(seq)
	if !ok {
		return
	}
	p := v.(*Proc)
	_ = p.mailbox.Enqueue(msg)
}

func (n *Node) notifyExit(seq uint64) {
	n.procs.Delete(seq)
	if n.liveCount.Add(-1) == 0 {
		n.mu.Lock()
		select {
		case <-n.allDone:
		default:
			close(n.allDone)
		}
		n.mu.Unlock()
	}
}

func (n *Node) reportUncaught(err error) {
	n.mu.Lock()
	n.uncaught = append(n.uncaught, err)
	n.mu.Unlock()
}

// UncaughtErrors returns every error recorded by a proc that exited abnormally, in the
// order they occurred. The returned slice is a snapshot; concurrent exits after the call
// are not reflected in it.
func (n *Node) UncaughtErrors() []error {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]error, len(n.uncaught))
	copy(out, n.uncaught)
	return out
}

// Err combines every uncaught error recorded so far into a single error via
// multierr.Combine, or returns nil if none have been recorded.
func (n *Node) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return multierr.Combine(n.uncaught...)
}

// LiveCount returns the number of procs currently spawned and not yet terminated.
func (n *Node) LiveCount() int64 {
	return n.liveCount.Load()
}

// JoinAll blocks until every proc ever spawned on this node has terminated, or ctx is
// done. It is safe to call JoinAll while more procs are still being spawned; it only
// observes quiescence, a moment when liveCount transiently reached zero, which is stable
// once no further Spawn calls are outstanding.
func (n *Node) JoinAll(ctx context.Context) error {
	n.mu.Lock()
	ch := n.allDone
	n.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ErrInterrupted
	}
}

// JoinAllTimeout is JoinAll bounded by a plain time.Duration, for callers that would
// otherwise build a context.WithTimeout solely to call JoinAll.
func (n *Node) JoinAllTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return n.JoinAll(ctx)
}
