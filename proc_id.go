package erlike

import "fmt"

// ProcID is an opaque, comparable, printable handle addressing a proc. It carries enough
// context (a reference to its owning Node) to deliver a message without any further
// lookup. Two ProcIDs compare equal iff they name the same proc on the same node.
type ProcID struct {
	node *Node
	seq  uint64
}

// Seq returns the proc's sequence number: opaque, monotonic per node, never reused.
func (p ProcID) Seq() uint64 {
	return p.seq
}

// Node returns the Node this ProcID was minted by.
func (p ProcID) Node() *Node {
	return p.node
}

// String renders the ProcID as "<node-name>-><proc-seq>", for debugging only.
func (p ProcID) String() string {
	name := ""
	if p.node != nil {
		name = p.node.Name()
	}
	return fmt.Sprintf("%s->%d", name, p.seq)
}

// Send delivers msg to the proc this ProcID addresses.
//
// Send is asynchronous and best-effort: if the target proc no longer exists, the message
// is dropped silently (remote delivery is out of scope for this core). Messages from a
// single sender to a single receiver arrive in the order the sender sent them; no
// ordering is guaranteed across distinct senders.
func (p ProcID) Send(msg any) {
	if p.node == nil {
		return
	}
	p.node.deliver(p.seq, msg)
}
