package erlike

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcReceiveDeliversSentMessage(t *testing.T) {
	node := NewNode("test")
	var got any
	var wg sync.WaitGroup
	wg.Add(1)

	id := node.Spawn(func(self *Proc) {
		defer wg.Done()
		_ = self.Receive(func(msg any) { got = msg })
	})

	id.Send("hello")
	wg.Wait()
	assert.Equal(t, "hello", got)
}

// TestProcReceiveTimeout covers S4: a receive with no matching message returns after its
// timeout without blocking forever, and runs the onTimeout callback.
func TestProcReceiveTimeout(t *testing.T) {
	node := NewNode("test")
	timedOut := make(chan struct{})

	node.Spawn(func(self *Proc) {
		_ = self.ReceiveTimeoutElse(func(any) {}, 30*time.Millisecond, func() {
			close(timedOut)
		})
	})

	select {
	case <-timedOut:
	case <-time.After(time.Second):
		t.Fatal("receive never timed out")
	}
}

func TestProcReceiveMatchSkipsNonMatching(t *testing.T) {
	node := NewNode("test")
	result := make(chan int, 1)

	id := node.Spawn(func(self *Proc) {
		_ = self.ReceiveMatch(Match(
			func(msg any) bool { n, ok := msg.(int); return ok && n > 10 },
			func(msg any) { result <- msg.(int) },
		))
	})

	id.Send(1)
	id.Send(2)
	id.Send(42)

	select {
	case v := <-result:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("ReceiveMatch never matched")
	}
}

func TestProcExitIsNormal(t *testing.T) {
	node := NewNode("test")
	done := make(chan struct{})

	id := node.Spawn(func(self *Proc) {
		defer close(done)
		self.Exit()
		t.Fatal("unreachable: Exit must unwind the body")
	})

	<-done
	require.NoError(t, node.JoinAllTimeout(time.Second))
	assert.Empty(t, node.UncaughtErrors())
	_ = id
}

func TestProcPanicIsReportedAsUncaught(t *testing.T) {
	node := NewNode("test")
	node.Spawn(func(self *Proc) {
		panic("boom")
	})

	require.NoError(t, node.JoinAllTimeout(time.Second))
	errs := node.UncaughtErrors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "boom")
}

// TestProcSleepInterruptedByLinkExit covers the link half of S5/S6: a proc blocked in
// Sleep is woken early by a linked partner's abnormal exit, rather than waiting out its
// full duration.
func TestProcSleepInterruptedByLinkExit(t *testing.T) {
	node := NewNode("test")
	result := make(chan error, 1)

	var a ProcID
	started := make(chan struct{})
	a = node.Spawn(func(self *Proc) {
		close(started)
		result <- self.Sleep(10 * time.Second)
	})

	<-started
	node.Spawn(func(self *Proc) {
		self.Link(a)
		panic("partner failure")
	})

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrInterrupted)
	case <-time.After(2 * time.Second):
		t.Fatal("sleep was not interrupted by link exit")
	}
}
