package erlike

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLinkChainPropagatesAbnormalExit covers S5: a chain of 100 linked procs, each
// waiting on a receive, all terminate shortly after the last one panics.
//
// The chain is built forward (proc 0 first) so that each proc, including the last one
// that fails, links to its upstream partner, which already exists by the time it is
// spawned — a proc notifies the partners in its own links set, which gains a partner that
// linked to it only once that linkMsg is dequeued by a receive or Sleep, so the failing
// proc establishes the link itself rather than relying on it being applied in time. Every proc whose
// own ReceiveTimeout is interrupted by an incoming link-exit re-panics with that error,
// making its own exit abnormal in turn and cascading the failure one more hop upstream,
// all the way to proc 0.
func TestLinkChainPropagatesAbnormalExit(t *testing.T) {
	node := NewNode("test")

	const chainLen = 100
	var upstream ProcID
	hasUpstream := false
	for i := 0; i < chainLen; i++ {
		idx := i
		u := upstream
		linked := hasUpstream
		id := node.Spawn(func(self *Proc) {
			if linked {
				self.Link(u)
			}
			if idx == chainLen-1 {
				_ = self.Sleep(50 * time.Millisecond)
				panic("chain failure")
			}
			if err := self.ReceiveTimeout(func(any) {}, 5*time.Second); err != nil {
				panic(err)
			}
		})
		upstream = id
		hasUpstream = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, node.JoinAll(ctx))

	errs := node.UncaughtErrors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "chain failure")
}

// TestLinkDoesNotPropagateNormalExit covers S6: a proc that exits normally does not
// interrupt a linked partner waiting on a timed receive; the partner runs out its own
// timeout undisturbed.
func TestLinkDoesNotPropagateNormalExit(t *testing.T) {
	node := NewNode("test")
	bTimedOut := make(chan struct{})

	var a ProcID
	started := make(chan struct{})
	a = node.Spawn(func(self *Proc) {
		close(started)
		assert.NoError(t, self.ReceiveTimeout(func(any) {}, time.Second))
	})
	_ = a

	<-started
	node.Spawn(func(self *Proc) {
		self.Link(a)
		// exits normally right away; must not interrupt a's pending receive.
	})

	node.Spawn(func(self *Proc) {
		self.Link(a)
		err := self.ReceiveTimeout(func(any) {}, 200*time.Millisecond)
		require.NoError(t, err)
		close(bTimedOut)
	})

	select {
	case <-bTimedOut:
	case <-time.After(2 * time.Second):
		t.Fatal("second linked proc should have timed out undisturbed")
	}

	require.NoError(t, node.JoinAllTimeout(2*time.Second))
	assert.Empty(t, node.UncaughtErrors())
}

func TestSpawn1ThroughSpawn4(t *testing.T) {
	node := NewNode("test")
	results := make(chan string, 4)

	Spawn1(node, func(self *Proc, a string) {
		results <- a
	}, "one")

	Spawn2(node, func(self *Proc, a, b string) {
		results <- a + b
	}, "a", "b")

	Spawn3(node, func(self *Proc, a, b, c string) {
		results <- a + b + c
	}, "a", "b", "c")

	Spawn4(node, func(self *Proc, a, b, c, d string) {
		results <- a + b + c + d
	}, "a", "b", "c", "d")

	got := make(map[string]bool)
	for i := 0; i < 4; i++ {
		select {
		case v := <-results:
			got[v] = true
		case <-time.After(time.Second):
			t.Fatal("spawned proc never ran")
		}
	}

	assert.True(t, got["one"])
	assert.True(t, got["ab"])
	assert.True(t, got["abc"])
	assert.True(t, got["abcd"])
}

func TestSpawnRecursiveLoopsUntilStop(t *testing.T) {
	node := NewNode("test")
	sum := make(chan int, 1)

	id := SpawnRecursive(node, func(self *Proc, state int) (int, bool) {
		var msg any
		_ = self.Receive(func(m any) { msg = m })
		n, ok := msg.(int)
		if !ok || n == 0 {
			sum <- state
			return state, true
		}
		return state + n, false
	}, 0)

	id.Send(1)
	id.Send(2)
	id.Send(3)
	id.Send(0)

	select {
	case total := <-sum:
		assert.Equal(t, 6, total)
	case <-time.After(time.Second):
		t.Fatal("recursive proc never finished")
	}
}

func TestNodeErrCombinesUncaught(t *testing.T) {
	node := NewNode("test")
	node.Spawn(func(self *Proc) { panic("first") })
	node.Spawn(func(self *Proc) { panic("second") })

	require.NoError(t, node.JoinAllTimeout(time.Second))

	err := node.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
}

func TestProcIDSendToDeadProcIsNoop(t *testing.T) {
	node := NewNode("test")
	id := node.Spawn(func(self *Proc) {})
	require.NoError(t, node.JoinAllTimeout(time.Second))

	assert.NotPanics(t, func() { id.Send("too late") })
}
