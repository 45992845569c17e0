package websocket

import (
	"errors"
	"time"

	"github.com/mitchellvdhut/quizzap/quiz/protocol"
)

// DefaultAwaitTimeout bounds a correlated exchange when the caller does not
// supply a timeout.
const DefaultAwaitTimeout = 5 * time.Second

var (
	// ErrAwaitTimeout is returned by Wait when no correlated packet arrived
	// within the timeout. It is an expected outcome, not a defect: the
	// handler slot has been restored and steady-state dispatch resumed.
	ErrAwaitTimeout = errors.New("timed out")

	// ErrSlotBusy is returned when a second Await targets a slot whose
	// pending call has not settled. Correlations cannot be distinguished on
	// one slot, so overlapping them is a programmer error.
	ErrSlotBusy = errors.New("handler slot already has a pending call")
)

// Result is the outcome of a correlated exchange. OK mirrors whether the
// server replied with status 200; for negative replies Message carries the
// server's message and Packet the full envelope.
type Result struct {
	OK      bool
	Message string
	Packet  *protocol.Packet
}

type outcome struct {
	res Result
	err error
}

// PendingCall is one in-flight correlation: a handler slot temporarily
// occupied by a one-shot handler, with a timer guaranteeing settlement.
type PendingCall struct {
	conn    *Conn
	slot    protocol.Action
	prior   Handler
	timer   *time.Timer
	settled bool // guarded by conn.mu
	out     chan outcome
}

// Await occupies the handler slot for one correlated exchange. It retains
// the currently-installed handler, installs a one-shot replacement, and arms
// a timer (DefaultAwaitTimeout when timeout is zero or negative). Await
// returns before anything is sent: install first, then send, then Wait.
//
// Unknown slots and already-occupied slots fail fast with ErrUnknownAction
// and ErrSlotBusy; nothing is installed in those cases.
func (c *Conn) Await(slot protocol.Action, timeout time.Duration) (*PendingCall, error) {
	if !slot.Valid() {
		return nil, ErrUnknownAction
	}
	if timeout <= 0 {
		timeout = DefaultAwaitTimeout
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending[slot] != nil {
		return nil, ErrSlotBusy
	}

	pc := &PendingCall{
		conn:  c,
		slot:  slot,
		prior: c.handlers[slot],
		out:   make(chan outcome, 1),
	}

	c.handlers[slot] = pc.resolve
	c.pending[slot] = pc
	pc.timer = time.AfterFunc(timeout, pc.expire)

	return pc, nil
}

// Wait blocks until the call settles and reports the outcome. A correlated
// packet settles with a nil error even when the server replied negatively;
// ErrAwaitTimeout means no packet arrived in time. Wait must be called
// exactly once per pending call.
func (pc *PendingCall) Wait() (Result, error) {
	o := <-pc.out
	return o.res, o.err
}

// resolve is the one-shot replacement handler installed at the slot. The
// dispatcher reads the handler before invoking it, so the timer can settle
// the call in between; a frame routed to a call that already expired is
// handed to the restored handler instead of being swallowed.
func (pc *PendingCall) resolve(pkt *protocol.Packet) {
	message := "success"
	if !pkt.OK() {
		message = pkt.Message
	}
	if !pc.settle(outcome{res: Result{OK: pkt.OK(), Message: message, Packet: pkt}}) {
		if pc.prior != nil {
			pc.prior(pkt)
		}
	}
}

// expire is the timer path. Whichever of resolve/expire runs second finds
// the call settled and is inert.
func (pc *PendingCall) expire() {
	pc.settle(outcome{res: Result{OK: false, Message: "timed out"}, err: ErrAwaitTimeout})
}

// settle restores the prior handler, releases the slot, and delivers the
// outcome. It reports whether this call performed the settling; at most one
// settle per pending call succeeds.
func (pc *PendingCall) settle(o outcome) bool {
	c := pc.conn

	c.mu.Lock()
	if pc.settled {
		c.mu.Unlock()
		return false
	}
	pc.settled = true
	c.handlers[pc.slot] = pc.prior
	delete(c.pending, pc.slot)
	pc.timer.Stop()
	c.mu.Unlock()

	pc.out <- o
	return true
}
