// Package session implements the per-connection protocol state machine:
// Start, ProcessBoot, ProcessAuth, BootEnd, AuthEnd. It owns no I/O; it
// consumes one decoded rpcvalue.Value at a time and returns either a
// response Value to send back, nothing (a notification was consumed), or
// an error. Per the per-connection-isolation redesign, a returned error
// is fatal only to the connection that produced it — internal/server
// closes that one pipeline and leaves every other connection and the
// listener running.
package session

import (
	"context"

	"github.com/safesecd/safesecd/internal/keyfile"
	"github.com/safesecd/safesecd/internal/rpcmsg"
	"github.com/safesecd/safesecd/internal/rpcvalue"
)

// State names the five points in the per-connection protocol lifecycle.
type State int

const (
	StateStart State = iota
	StateProcessBoot
	StateProcessAuth
	StateBootEnd
	StateAuthEnd
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateProcessBoot:
		return "ProcessBoot"
	case StateProcessAuth:
		return "ProcessAuth"
	case StateBootEnd:
		return "BootEnd"
	case StateAuthEnd:
		return "AuthEnd"
	default:
		return "Unknown"
	}
}

// Outcome is what handling one message produced.
type Outcome struct {
	// Response is non-nil when a Request was processed and a Response
	// Value must be written back to the client.
	Response *rpcvalue.Value
	// Done is true once a terminal Done notification has been consumed;
	// the pipeline should close the connection after flushing Response
	// (which is always nil alongside Done).
	Done bool
}

// Session is a per-connection state machine over a shared Store.
type Session struct {
	store keyfile.Store
	state State
}

// New returns a fresh Session in the Start state.
func New(store keyfile.Store) *Session {
	return &Session{store: store, state: StateStart}
}

// State returns the session's current state, mostly useful for logging.
func (s *Session) State() State { return s.state }

// HandleMessage advances the state machine by one decoded Value. A
// non-nil error is always fatal for the connection.
func (s *Session) HandleMessage(ctx context.Context, v rpcvalue.Value) (Outcome, error) {
	m, err := rpcmsg.NewMessage(v)
	if err != nil {
		return Outcome{}, err
	}

	switch s.state {
	case StateStart:
		return s.handleStart(m)
	case StateProcessBoot:
		return s.handleBoot(ctx, m)
	case StateProcessAuth:
		return s.handleAuth(ctx, m)
	default:
		return Outcome{}, rpcmsg.NewError(rpcmsg.UnexpectedMessage,
			"session is in terminal state %s, no further messages are expected", s.state)
	}
}

func (s *Session) handleStart(m rpcmsg.Message) (Outcome, error) {
	notice, err := rpcmsg.NewNotificationMessage(m, rpcmsg.SessionTypeFromNumber)
	if err != nil {
		return Outcome{}, err
	}
	switch notice.Code {
	case rpcmsg.SessionBoot:
		s.state = StateProcessBoot
	case rpcmsg.SessionAuth:
		s.state = StateProcessAuth
	}
	return Outcome{}, nil
}
