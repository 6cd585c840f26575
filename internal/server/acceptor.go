// Package server implements the acceptor/listener (C8) and the
// per-connection decode->dispatch->encode pipeline (C9) on top of
// internal/session and internal/keyfile.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/safesecd/safesecd/internal/keyfile"
	"github.com/safesecd/safesecd/internal/logger"
	"github.com/safesecd/safesecd/internal/metrics"
)

// messageKind distinguishes the two control-channel messages.
type messageKind int

const (
	msgSend messageKind = iota
	msgShutdown
)

// ControlMessage is the payload carried on the acceptor's control
// channel: either a freshly accepted connection to route to the handler
// queue, or a shutdown signal.
type ControlMessage struct {
	kind messageKind
	conn net.Conn
	peer net.Addr
}

// SendMessage builds a control message carrying an accepted connection.
// Exposed so tests (and any external supervisor) can inject synthetic
// connections through the same ordering point the real accept loop uses.
func SendMessage(conn net.Conn, peer net.Addr) ControlMessage {
	return ControlMessage{kind: msgSend, conn: conn, peer: peer}
}

// ShutdownMessage builds the control message that starts a graceful
// server-wide shutdown.
func ShutdownMessage() ControlMessage {
	return ControlMessage{kind: msgShutdown}
}

// Config tunes the acceptor's channel capacities and connection limits.
type Config struct {
	// ControlChannelCapacity bounds the control channel; default 1.
	ControlChannelCapacity int
	// MaxConnections bounds how many connection pipelines run at once;
	// additional accepted connections queue in the unbounded handler
	// channel until a slot frees up. 0 means unlimited.
	MaxConnections int
	// ShutdownTimeout bounds how long Shutdown waits for in-flight
	// connections to finish before forcing them closed.
	ShutdownTimeout time.Duration
}

// Acceptor owns the listening socket, routes every accepted connection
// through a single bounded control channel (preserving one ordering point
// for both real accepts and externally injected sends), and fans each one
// out to its own pipeline goroutine via an unbounded handler queue.
type Acceptor struct {
	listener net.Listener
	store    keyfile.Store
	cfg      Config

	control chan ControlMessage
	handler *unboundedQueue

	connSem     *semaphore.Weighted
	activeConns sync.WaitGroup
	connCount   atomic.Int32
	conns       sync.Map // connID (string) -> net.Conn, for force-close on shutdown timeout

	shutdownOnce  sync.Once
	stopAccepting chan struct{}
	shuttingDown  atomic.Bool
	handlerClosed atomic.Bool
}

// New builds an Acceptor bound to ln, dispatching requests against store.
func New(ln net.Listener, store keyfile.Store, cfg Config) *Acceptor {
	if cfg.ControlChannelCapacity <= 0 {
		cfg.ControlChannelCapacity = 1
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	a := &Acceptor{
		listener:      ln,
		store:         store,
		cfg:           cfg,
		control:       make(chan ControlMessage, cfg.ControlChannelCapacity),
		handler:       newUnboundedQueue(),
		stopAccepting: make(chan struct{}),
	}
	if cfg.MaxConnections > 0 {
		a.connSem = semaphore.NewWeighted(int64(cfg.MaxConnections))
	}
	return a
}

// Control returns the send-only control channel. External callers (such as
// a SIGINT handler) push ShutdownMessage() here to begin a graceful stop; a
// session's protocol error closes only its own connection and never sends it.
func (a *Acceptor) Control() chan<- ControlMessage { return a.control }

// Addr returns the bound listener address.
func (a *Acceptor) Addr() net.Addr { return a.listener.Addr() }

// Serve runs the acceptor until a shutdown has begun and the handler queue
// has been closed and drained (it then returns nil), or until ctx is done
// (it then returns ctx.Err()). It interleaves three sub-polls in strict
// priority order on every wake: drain control, accept (routed through
// control by acceptLoop), then deliver from the handler queue.
func (a *Acceptor) Serve(ctx context.Context) error {
	go a.acceptLoop()

	for {
		// Priority 1: fully drain whatever is already waiting on
		// control before considering new handler work.
		for drained := true; drained; {
			select {
			case msg := <-a.control:
				a.handleControl(msg)
			default:
				drained = false
			}
		}

		// Priority 2 is implicit: real acceptances reach us only via
		// control (acceptLoop re-routes them as Send), so the control
		// drain above already incorporates new listener activity.

		if a.shuttingDown.Load() && a.handlerClosed.Load() {
			return nil
		}

		// Priority 3: the handler queue, but re-check control first on
		// every wake so a pending Shutdown always wins a race with a
		// freshly queued connection.
		select {
		case msg := <-a.control:
			a.handleControl(msg)
		case item, ok := <-a.handler.Out():
			if ok {
				a.spawn(ctx, item)
			} else {
				a.handlerClosed.Store(true)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (a *Acceptor) handleControl(msg ControlMessage) {
	switch msg.kind {
	case msgSend:
		a.handler.Push(msg.conn, msg.peer)
	case msgShutdown:
		a.beginShutdown()
	}
}

func (a *Acceptor) beginShutdown() {
	a.shuttingDown.Store(true)
	select {
	case <-a.stopAccepting:
	default:
		close(a.stopAccepting)
	}
	a.handler.Close()
}

// acceptLoop is the blocking producer side: every successful Accept is
// re-routed into the control channel as a Send message, giving external
// senders (tests, a shutdown request) a single ordering point relative to
// real connections.
func (a *Acceptor) acceptLoop() {
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			select {
			case <-a.stopAccepting:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Error("accept failed", logger.Err(err))
			return
		}

		select {
		case a.control <- SendMessage(conn, conn.RemoteAddr()):
		case <-a.stopAccepting:
			conn.Close()
			return
		}
	}
}

func (a *Acceptor) spawn(ctx context.Context, item acceptedConn) {
	if a.connSem != nil {
		if err := a.connSem.Acquire(ctx, 1); err != nil {
			item.conn.Close()
			metrics.ConnectionRejected()
			return
		}
	}

	a.activeConns.Add(1)
	a.connCount.Add(1)
	metrics.ConnectionAccepted()
	connID := uuid.NewString()
	a.conns.Store(connID, item.conn)

	go func() {
		defer func() {
			a.conns.Delete(connID)
			a.activeConns.Done()
			a.connCount.Add(-1)
			metrics.ConnectionClosed()
			if a.connSem != nil {
				a.connSem.Release(1)
			}
		}()
		runPipeline(ctx, connID, item.conn, a.store)
	}()
}

// Shutdown begins a graceful stop: new connections are refused (the
// listener closes immediately), and Shutdown waits for in-flight
// connections to finish on their own, up to cfg.ShutdownTimeout, before
// forcing them closed.
func (a *Acceptor) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		a.beginShutdown()
		_ = a.listener.Close()
	})

	done := make(chan struct{})
	go func() {
		a.activeConns.Wait()
		close(done)
	}()

	timeout := time.NewTimer(a.cfg.ShutdownTimeout)
	defer timeout.Stop()

	select {
	case <-done:
		return nil
	case <-timeout.C:
		a.forceCloseAll()
		return errShutdownTimeout
	case <-ctx.Done():
		a.forceCloseAll()
		return ctx.Err()
	}
}

// forceCloseAll closes every still-active connection after a shutdown
// deadline has passed. Their pipeline goroutines observe the resulting
// read error and exit on their own; forceCloseAll does not wait for them.
func (a *Acceptor) forceCloseAll() {
	a.conns.Range(func(_, v any) bool {
		if c, ok := v.(net.Conn); ok {
			c.Close()
		}
		return true
	})
}

// ActiveConnections returns the current number of in-flight pipelines,
// for metrics/health reporting.
func (a *Acceptor) ActiveConnections() int32 { return a.connCount.Load() }
