package erlike

// systemMessage is the tagged variant carried on the same mailbox queue as ordinary user
// messages. The receive engine recognizes it on dequeue and applies its effect to the
// receiving Proc before the loop resumes waiting for a user message — system messages
// never reach a user Handler or PartialHandler.
type systemMessage interface {
	// applyTo performs this message's effect on the receiving proc.
	applyTo(p *Proc)
}

// linkMsg asks the recipient to add sender to its links set, completing a link
// established by the sender's Proc.Link call.
type linkMsg struct {
	sender ProcID
}

func (m linkMsg) applyTo(p *Proc) {
	p.links.Add(m.sender)
}

// unlinkMsg asks the recipient to remove sender from its links set, completing an
// unlink established by the sender's Proc.Unlink call.
type unlinkMsg struct {
	sender ProcID
}

func (m unlinkMsg) applyTo(p *Proc) {
	p.links.Remove(m.sender)
}

// linkExitMsg notifies the recipient that a linked partner exited abnormally. The
// default policy is to interrupt (cancel) the recipient, which unblocks any in-progress
// mailbox wait with ErrInterrupted and is expected to propagate out of the proc's body.
type linkExitMsg struct {
	sender ProcID
	reason error
}

func (m linkExitMsg) applyTo(p *Proc) {
	p.cancel()
}
