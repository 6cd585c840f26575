package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/safesecd/safesecd/internal/codec"
	"github.com/safesecd/safesecd/internal/keyfile"
	"github.com/safesecd/safesecd/internal/rpcmsg"
	"github.com/safesecd/safesecd/internal/rpcvalue"
)

func startTestAcceptor(t *testing.T) (*Acceptor, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	store := keyfile.NewMemStore()
	a := New(ln, store, Config{ControlChannelCapacity: 1, ShutdownTimeout: 2 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	cleanup := func() {
		_ = a.Shutdown(context.Background())
		cancel()
		<-done
	}
	return a, cleanup
}

func TestAcceptorRoundTripOverTCP(t *testing.T) {
	a, cleanup := startTestAcceptor(t)
	defer cleanup()

	conn, err := net.Dial("tcp", a.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var buf codec.Buffer
	mustWrite := func(v rpcvalue.Value) {
		t.Helper()
		if err := buf.Encode(v); err != nil {
			t.Fatal(err)
		}
		if _, err := conn.Write(buf.Bytes()); err != nil {
			t.Fatal(err)
		}
		buf = codec.Buffer{}
	}

	mustWrite(rpcmsg.NewNotification(rpcmsg.SessionAuth, nil))
	mustWrite(rpcmsg.NewRequest(1, rpcmsg.AuthKeyExists, []rpcvalue.Value{rpcvalue.Bytes([]byte("x"))}))

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	readBuf := make([]byte, 256)
	n, err := conn.Read(readBuf)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	var respBuf codec.Buffer
	respBuf.Append(readBuf[:n])
	v, err := respBuf.Decode()
	if err != nil || v == nil {
		t.Fatalf("decode response: (%v, %v)", v, err)
	}
	want := rpcmsg.NewResponse(1, rpcmsg.AuthErrorNil, rpcvalue.Bool(false))
	if !rpcvalue.Equal(*v, want) {
		t.Errorf("got %+v, want %+v", *v, want)
	}
}

func TestAcceptorShutdownStopsNewConnections(t *testing.T) {
	a, cleanup := startTestAcceptor(t)
	addr := a.Addr().String()
	cleanup()

	time.Sleep(50 * time.Millisecond)
	if _, err := net.Dial("tcp", addr); err == nil {
		t.Fatal("expected dial to fail after shutdown")
	}
}
