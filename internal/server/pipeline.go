package server

import (
	"context"
	"io"
	"net"
	"strings"

	"github.com/safesecd/safesecd/internal/codec"
	"github.com/safesecd/safesecd/internal/keyfile"
	"github.com/safesecd/safesecd/internal/logger"
	"github.com/safesecd/safesecd/internal/metrics"
	"github.com/safesecd/safesecd/internal/rpcvalue"
	"github.com/safesecd/safesecd/internal/session"
	"github.com/safesecd/safesecd/pkg/bufpool"
)

// runPipeline is the per-connection decode->dispatch->encode loop (C9). It
// owns conn for its entire lifetime and always closes it before returning.
//
// There is no explicit backpressure state machine here the way an async
// runtime needs one: conn.Write blocks the goroutine until the kernel
// accepts the bytes, which is exactly the suspension point a hand-rolled
// sink driver would exist to model. Go's blocking I/O collapses that
// bookkeeping into a single synchronous call.
func runPipeline(ctx context.Context, connID string, conn net.Conn, store keyfile.Store) {
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	lc := logger.NewLogContext(connID, clientIP(conn))
	ctx = logger.WithContext(ctx, lc)
	logger.InfoCtx(ctx, "connection accepted")

	sess := session.New(store)
	var buf codec.Buffer
	readBuf := bufpool.Get(bufpool.DefaultBufferSize)
	defer bufpool.Put(readBuf)

	for {
		for {
			v, err := buf.Decode()
			if err != nil {
				metrics.DecodeError()
				logger.ErrorCtx(ctx, "fatal decode error, closing connection", logger.Err(err))
				return
			}
			if v == nil {
				break
			}

			outcome, err := sess.HandleMessage(ctx, *v)
			if err != nil {
				logger.ErrorCtx(ctx, "protocol error, closing connection", logger.Err(err))
				return
			}
			metrics.MessageHandled(sessionLabel(sess.State()))
			if outcome.Response != nil {
				if err := writeValue(conn, *outcome.Response); err != nil {
					logger.ErrorCtx(ctx, "write failed, closing connection", logger.Err(err))
					return
				}
			}
			if outcome.Done {
				logger.InfoCtx(ctx, "session ended cleanly")
				return
			}
		}

		n, err := conn.Read(readBuf)
		if err != nil {
			if err != io.EOF {
				logger.DebugCtx(ctx, "connection closed", logger.Err(err))
			}
			return
		}
		buf.Append(readBuf[:n])
	}
}

func writeValue(conn net.Conn, v rpcvalue.Value) error {
	enc, err := codec.Encode(nil, v)
	if err != nil {
		return err
	}
	_, err = conn.Write(enc)
	return err
}

func sessionLabel(s session.State) string {
	switch s {
	case session.StateProcessBoot, session.StateBootEnd:
		return "boot"
	case session.StateProcessAuth, session.StateAuthEnd:
		return "auth"
	default:
		return "unknown"
	}
}

func clientIP(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
