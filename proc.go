package erlike

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"

	"github.com/axblount/erlike/log"
)

// RunState describes a Proc's position in its lifecycle.
type RunState int32

const (
	// StateNew is the state of a Proc that has been constructed but not yet started.
	StateNew RunState = iota
	// StateRunnable is the state of a Proc whose goroutine has been launched but has not
	// yet begun executing its body.
	StateRunnable
	// StateRunning is the state of a Proc currently executing its body.
	StateRunning
	// StateTerminated is the state of a Proc whose body has returned or panicked.
	StateTerminated
)

func (s RunState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRunnable:
		return "runnable"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ExitKind classifies why a Proc terminated.
type ExitKind int

const (
	// ExitNormal means the body returned, or called Exit.
	ExitNormal ExitKind = iota
	// ExitAbnormal means the body panicked, or its context was canceled and it let the
	// cancellation propagate out as an unrecovered panic.
	ExitAbnormal
)

// ExitReason records how and why a Proc terminated.
type ExitReason struct {
	Kind ExitKind
	Err  error // nil for ExitNormal
}

// exitSentinel is panicked by Proc.Exit to unwind the running body. It is recovered only
// by the Proc's own run loop and is never observed outside this package — the direct
// analogue of the source implementation's unchecked NORMAL_EXIT exception, necessary
// because Go has no other way to abort a deeply nested call chain.
type exitSentinel struct{}

// Handler receives a single message. Used by Proc.Receive and its timeout variants.
type Handler func(msg any)

// PartialHandler receives only messages it declares itself defined at, exposing the same
// (IsDefinedAt, Apply) contract the original clause-builder layer relied on. Used by
// Proc.ReceiveMatch and its timeout variants for selective receive.
type PartialHandler interface {
	// IsDefinedAt reports whether this handler will accept msg.
	IsDefinedAt(msg any) bool
	// Apply handles msg. Only called when IsDefinedAt(msg) was true.
	Apply(msg any)
}

// funcPartial adapts a predicate and a plain Handler into a PartialHandler, letting
// callers write ReceiveMatch(erlike.Match(pred, handler)) instead of a dedicated type.
type funcPartial struct {
	pred    func(msg any) bool
	handler Handler
}

// Match builds a PartialHandler from a predicate and a handler.
func Match(pred func(msg any) bool, handler Handler) PartialHandler {
	return funcPartial{pred: pred, handler: handler}
}

func (f funcPartial) IsDefinedAt(msg any) bool { return f.pred(msg) }
func (f funcPartial) Apply(msg any)            { f.handler(msg) }

// Proc is one running actor: it owns a mailbox, runs user code on a dedicated goroutine,
// and tracks its linked partners. Only the proc's own goroutine may call its receive
// methods or mutate its links set directly; linkMsg/unlinkMsg system messages arriving
// from other goroutines are funneled through the same goroutine's receive loop, so the
// only genuinely concurrent access to links is through mapset.Set's own synchronization.
type Proc struct {
	id   ProcID
	node *Node

	mailbox *Mailbox[any]
	links   mapset.Set[ProcID]

	state atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc

	logger log.Logger

	done       chan struct{}
	exitReason *ExitReason
}

func newProc(node *Node, id ProcID, logger log.Logger) *Proc {
	ctx, cancel := context.WithCancel(context.Background())
	return &Proc{
		id:      id,
		node:    node,
		mailbox: NewMailbox[any](),
		links:   mapset.NewSet[ProcID](),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Self returns this proc's own ProcID.
func (p *Proc) Self() ProcID {
	return p.id
}

// NodeRef returns the Node this proc runs on.
func (p *Proc) NodeRef() *Node {
	return p.node
}

// State returns the proc's current lifecycle state.
func (p *Proc) State() RunState {
	return RunState(p.state.Load())
}

// Sleep pauses the calling proc for d, or until a linked partner's abnormal exit cancels
// the proc, whichever comes first. It is the
// interruptible replacement for time.Sleep inside a proc body: a raw time.Sleep cannot
// observe cancellation, and a linkExitMsg only cancels a proc's context once it is
// dequeued and applied — so Sleep must itself drain the mailbox for pending system
// messages while it waits, exactly like receiveCore does, rather than simply selecting
// on a timer and ctx.Done(). A linked partner's exit is otherwise invisible to a
// sleeping proc until its next Receive call, which may be arbitrarily far in the future.
func (p *Proc) Sleep(d time.Duration) error {
	if d <= 0 {
		return nil
	}

	remaining := d
	start := time.Now()
	for {
		msg, ok, err := p.mailbox.PollMatchTimeout(p.ctx, isSystemMessage, remaining)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		msg.(systemMessage).applyTo(p)

		remaining = d - time.Since(start)
		if remaining < 0 {
			remaining = 0
		}
	}
}

func isSystemMessage(msg any) bool {
	_, ok := msg.(systemMessage)
	return ok
}

// Exit terminates the calling proc immediately, as if its body had returned. It can be
// called from any depth within the body, including from inside a Handler passed to
// Receive. Links are not notified: this is a normal exit.
func (p *Proc) Exit() {
	panic(exitSentinel{})
}

// Link establishes a symmetric link between this proc and other: this proc's links set
// gains other immediately, and a linkMsg is sent so other's links set gains this proc in
// turn. If a link already exists, this has no additional effect. A link raced against
// other's exit is not an error: the linkMsg simply arrives at a mailbox that is about to
// be discarded.
func (p *Proc) Link(other ProcID) {
	p.links.Add(other)
	other.Send(linkMsg{sender: p.id})
}

// Unlink removes any symmetric link between this proc and other.
func (p *Proc) Unlink(other ProcID) {
	p.links.Remove(other)
	other.Send(unlinkMsg{sender: p.id})
}

// Receive blocks until a message arrives, then invokes h with it.
func (p *Proc) Receive(h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	return p.receiveCore(matchAll, wrapHandler(h), 0, false, nil)
}

// ReceiveTimeout blocks up to timeout for a message. If none arrives in time, it returns
// without invoking h.
func (p *Proc) ReceiveTimeout(h Handler, timeout time.Duration) error {
	if h == nil {
		return ErrNilHandler
	}
	return p.receiveCore(matchAll, wrapHandler(h), timeout, true, nil)
}

// ReceiveTimeoutElse is like ReceiveTimeout, but runs onTimeout if the timeout expires
// without a message arriving.
func (p *Proc) ReceiveTimeoutElse(h Handler, timeout time.Duration, onTimeout func()) error {
	if h == nil {
		return ErrNilHandler
	}
	return p.receiveCore(matchAll, wrapHandler(h), timeout, true, onTimeout)
}

// ReceiveMatch blocks until the first message (in arrival order) for which
// h.IsDefinedAt reports true, then invokes h.Apply with it. Earlier, non-matching
// messages remain in the mailbox, in their original order, for future receives.
func (p *Proc) ReceiveMatch(h PartialHandler) error {
	if h == nil {
		return ErrNilHandler
	}
	return p.receiveCore(h.IsDefinedAt, h.Apply, 0, false, nil)
}

// ReceiveMatchTimeout is the selective-receive counterpart of ReceiveTimeout.
func (p *Proc) ReceiveMatchTimeout(h PartialHandler, timeout time.Duration) error {
	if h == nil {
		return ErrNilHandler
	}
	return p.receiveCore(h.IsDefinedAt, h.Apply, timeout, true, nil)
}

// ReceiveMatchTimeoutElse is the selective-receive counterpart of ReceiveTimeoutElse.
func (p *Proc) ReceiveMatchTimeoutElse(h PartialHandler, timeout time.Duration, onTimeout func()) error {
	if h == nil {
		return ErrNilHandler
	}
	return p.receiveCore(h.IsDefinedAt, h.Apply, timeout, true, onTimeout)
}

func matchAll(any) bool { return true }

func wrapHandler(h Handler) func(any) {
	return func(msg any) { h(msg) }
}

// receiveCore is the single loop every Receive* method is a thin wrapper over. It scans
// the mailbox with TakeMatch/PollMatchTimeout against a predicate that also matches
// systemMessage values; whenever the dequeued element is a systemMessage, its effect is
// applied and the loop resumes waiting instead of surfacing it to apply. The handler is
// only ever invoked with a genuine user message: a timed-out receive never calls apply.
func (p *Proc) receiveCore(userPred func(any) bool, apply func(any), timeout time.Duration, timed bool, onTimeout func()) error {
	pred := func(msg any) bool {
		if _, ok := msg.(systemMessage); ok {
			return true
		}
		return userPred(msg)
	}

	if !timed {
		for {
			msg, err := p.mailbox.TakeMatch(p.ctx, pred)
			if err != nil {
				return err
			}
			if sys, ok := msg.(systemMessage); ok {
				sys.applyTo(p)
				continue
			}
			apply(msg)
			return nil
		}
	}

	if timeout < 0 {
		return ErrInvalidTimeout
	}

	remaining := timeout
	start := time.Now()
	for {
		msg, ok, err := p.mailbox.PollMatchTimeout(p.ctx, pred, remaining)
		if err != nil {
			return err
		}
		if !ok {
			if onTimeout != nil {
				onTimeout()
			}
			return nil
		}
		if sys, ok := msg.(systemMessage); ok {
			sys.applyTo(p)
			remaining = timeout - time.Since(start)
			if remaining < 0 {
				remaining = 0
			}
			continue
		}
		apply(msg)
		return nil
	}
}

// start launches the proc's body on a dedicated goroutine and returns without waiting
// for the body to begin running. body receives this proc as its only argument — the explicit
// context-passing replacement for a thread-local "current proc" lookup.
func (p *Proc) start(body func(*Proc)) {
	if !p.state.CompareAndSwap(int32(StateNew), int32(StateRunnable)) {
		panic(ErrAlreadyStarted)
	}
	go p.run(body)
}

func (p *Proc) run(body func(*Proc)) {
	p.state.Store(int32(StateRunning))

	reason := func() (reason ExitReason) {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(exitSentinel); ok {
					reason = ExitReason{Kind: ExitNormal}
					return
				}
				reason = ExitReason{Kind: ExitAbnormal, Err: classifyPanic(r)}
			}
		}()
		body(p)
		return ExitReason{Kind: ExitNormal}
	}()

	p.terminate(reason)
}

// classifyPanic turns an arbitrary recover() value into an error, annotated with the
// call site it was recovered at. Grounded on the teacher's (*PID).recovery: a panic value
// that is already an error is wrapped as-is; anything else is formatted with %#v.
func classifyPanic(r any) error {
	_, file, line, ok := runtime.Caller(3)
	site := "unknown"
	if ok {
		site = fmt.Sprintf("%s:%d", file, line)
	}

	if err, ok := r.(error); ok {
		return NewPanicError(err, site)
	}
	return NewPanicError(r, site)
}

func (p *Proc) terminate(reason ExitReason) {
	p.exitReason = &reason
	p.state.Store(int32(StateTerminated))
	p.cancel()

	if reason.Kind == ExitAbnormal {
		p.logger.Debugf("%s exiting abnormally: %v", p.id, reason.Err)
		p.links.Each(func(partner ProcID) bool {
			partner.Send(linkExitMsg{sender: p.id, reason: reason.Err})
			return false
		})
		// A proc whose only fault was propagating a linked partner's failure (its own
		// blocking call was interrupted, and it chose to let that propagate as its own
		// abnormal exit) is cascade noise, not a new root cause: only genuine failures
		// are surfaced through the node's sink.
		if !errors.Is(reason.Err, ErrInterrupted) {
			p.node.reportUncaught(reason.Err)
		}
	} else {
		p.logger.Debugf("%s exited normally", p.id)
	}

	p.node.notifyExit(p.id.seq)
	close(p.done)
}
