package session

import (
	"context"
	"testing"

	"github.com/safesecd/safesecd/internal/keyfile"
	"github.com/safesecd/safesecd/internal/rpcmsg"
	"github.com/safesecd/safesecd/internal/rpcvalue"
)

func newAuthSession(t *testing.T, store keyfile.Store) *Session {
	t.Helper()
	s := New(store)
	out, err := s.HandleMessage(context.Background(), rpcmsg.NewNotification(rpcmsg.SessionAuth, nil))
	if err != nil {
		t.Fatalf("session start failed: %v", err)
	}
	if out.Response != nil || out.Done {
		t.Fatalf("unexpected outcome from session-start notification: %+v", out)
	}
	return s
}

func newBootSession(t *testing.T, store keyfile.Store) *Session {
	t.Helper()
	s := New(store)
	_, err := s.HandleMessage(context.Background(), rpcmsg.NewNotification(rpcmsg.SessionBoot, nil))
	if err != nil {
		t.Fatalf("session start failed: %v", err)
	}
	return s
}

// Scenario 1: Round-trip KeyExists (Auth).
func TestScenarioRoundTripKeyExists(t *testing.T) {
	ctx := context.Background()
	store := keyfile.NewMemStore()
	if err := store.Set(ctx, []byte("ANSWER"), []byte("42")); err != nil {
		t.Fatal(err)
	}

	s := newAuthSession(t, store)

	req := rpcmsg.NewRequest(42, rpcmsg.AuthKeyExists, []rpcvalue.Value{rpcvalue.Bytes([]byte("ANSWER"))})
	out, err := s.HandleMessage(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := rpcmsg.NewResponse(42, rpcmsg.AuthErrorNil, rpcvalue.Bool(true))
	if out.Response == nil || !rpcvalue.Equal(*out.Response, want) {
		t.Errorf("got %+v, want %+v", out.Response, want)
	}

	out, err = s.HandleMessage(ctx, rpcmsg.NewNotification(rpcmsg.AuthNoticeDone, nil))
	if err != nil || !out.Done {
		t.Fatalf("expected clean session end, got (%+v, %v)", out, err)
	}
}

// Scenario 2: GetKeyFile miss (Boot).
func TestScenarioGetKeyFileMissBoot(t *testing.T) {
	ctx := context.Background()
	store := keyfile.NewMemStore()
	s := newBootSession(t, store)

	req := rpcmsg.NewRequest(42, rpcmsg.BootGetKeyFile, []rpcvalue.Value{rpcvalue.Bytes([]byte("42"))})
	out, err := s.HandleMessage(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := rpcmsg.NewResponse(42, rpcmsg.BootErrorKeyFileNotFound, rpcvalue.Bytes([]byte("42")))
	if out.Response == nil || !rpcvalue.Equal(*out.Response, want) {
		t.Errorf("got %+v, want %+v", out.Response, want)
	}
}

// Scenario 3: CreateKeyFile then GetKeyFile (Auth).
func TestScenarioCreateThenGet(t *testing.T) {
	ctx := context.Background()
	store := keyfile.NewMemStore()
	s := newAuthSession(t, store)

	create := rpcmsg.NewRequest(0, rpcmsg.AuthCreateKeyFile,
		[]rpcvalue.Value{rpcvalue.Bytes([]byte("42")), rpcvalue.Bytes([]byte("The Answer..."))})
	out, err := s.HandleMessage(ctx, create)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	wantCreate := rpcmsg.NewResponse(0, rpcmsg.AuthErrorNil, rpcvalue.Bool(true))
	if !rpcvalue.Equal(*out.Response, wantCreate) {
		t.Errorf("create response = %+v, want %+v", *out.Response, wantCreate)
	}

	get := rpcmsg.NewRequest(1, rpcmsg.AuthGetKeyFile, []rpcvalue.Value{rpcvalue.Bytes([]byte("42"))})
	out, err = s.HandleMessage(ctx, get)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	wantGet := rpcmsg.NewResponse(1, rpcmsg.AuthErrorNil, rpcvalue.Bytes([]byte("The Answer...")))
	if !rpcvalue.Equal(*out.Response, wantGet) {
		t.Errorf("get response = %+v, want %+v", *out.Response, wantGet)
	}
}

// Scenario 4: ChangeKey when new exists.
func TestScenarioChangeKeyWhenNewExists(t *testing.T) {
	ctx := context.Background()
	store := keyfile.NewMemStore()
	if err := store.Set(ctx, []byte("A"), []byte("a-payload")); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, []byte("B"), []byte("b-payload")); err != nil {
		t.Fatal(err)
	}
	s := newAuthSession(t, store)

	req := rpcmsg.NewRequest(7, rpcmsg.AuthChangeKey,
		[]rpcvalue.Value{rpcvalue.Bytes([]byte("A")), rpcvalue.Bytes([]byte("B"))})
	out, err := s.HandleMessage(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := rpcmsg.NewResponse(7, rpcmsg.AuthErrorKeyFileExists, rpcvalue.Bytes([]byte("B")))
	if !rpcvalue.Equal(*out.Response, want) {
		t.Errorf("got %+v, want %+v", *out.Response, want)
	}

	// Store unchanged.
	a, _ := store.Get(ctx, []byte("A"))
	if string(a) != "a-payload" {
		t.Error("key A should be untouched")
	}
	b, _ := store.Get(ctx, []byte("B"))
	if string(b) != "b-payload" {
		t.Error("key B should be untouched")
	}
}

// Scenario 5: Invalid argument type triggers a protocol error.
func TestScenarioInvalidArgumentType(t *testing.T) {
	ctx := context.Background()
	store := keyfile.NewMemStore()
	s := newAuthSession(t, store)

	req := rpcmsg.NewRequest(1, rpcmsg.AuthKeyExists, []rpcvalue.Value{rpcvalue.Nil()})
	out, err := s.HandleMessage(ctx, req)
	if err == nil {
		t.Fatal("expected a protocol error for a nil argument where bytes is required")
	}
	if out.Response != nil {
		t.Error("no response should be emitted for a protocol error")
	}
}

// Scenario 6 (codec partial frame) belongs to internal/codec; see
// codec_test.go's TestPartialFrameLeavesExactTail.

func TestChangeKeyWhenOldMissing(t *testing.T) {
	ctx := context.Background()
	store := keyfile.NewMemStore()
	s := newAuthSession(t, store)

	req := rpcmsg.NewRequest(1, rpcmsg.AuthChangeKey,
		[]rpcvalue.Value{rpcvalue.Bytes([]byte("missing")), rpcvalue.Bytes([]byte("new"))})
	out, err := s.HandleMessage(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := rpcmsg.NewResponse(1, rpcmsg.AuthErrorKeyFileNotFound, rpcvalue.Bytes([]byte("missing")))
	if !rpcvalue.Equal(*out.Response, want) {
		t.Errorf("got %+v, want %+v", *out.Response, want)
	}
}

func TestReplaceKeyFileSuccess(t *testing.T) {
	ctx := context.Background()
	store := keyfile.NewMemStore()
	if err := store.Set(ctx, []byte("old"), []byte("old-payload")); err != nil {
		t.Fatal(err)
	}
	s := newAuthSession(t, store)

	req := rpcmsg.NewRequest(1, rpcmsg.AuthReplaceKeyFile, []rpcvalue.Value{
		rpcvalue.Bytes([]byte("old")), rpcvalue.Bytes([]byte("new")), rpcvalue.Bytes([]byte("new-payload")),
	})
	out, err := s.HandleMessage(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := rpcmsg.NewResponse(1, rpcmsg.AuthErrorNil, rpcvalue.Bool(true))
	if !rpcvalue.Equal(*out.Response, want) {
		t.Errorf("got %+v, want %+v", *out.Response, want)
	}

	if ok, _ := store.Exists(ctx, []byte("old")); ok {
		t.Error("old key should be gone")
	}
	v, err := store.Get(ctx, []byte("new"))
	if err != nil || string(v) != "new-payload" {
		t.Errorf("Get(new) = (%q, %v)", v, err)
	}
}

func TestUnknownNoticeInBootIsProtocolError(t *testing.T) {
	ctx := context.Background()
	store := keyfile.NewMemStore()
	s := newBootSession(t, store)

	bad := rpcvalue.Array(rpcvalue.Uint(uint64(rpcmsg.TypeNotification)), rpcvalue.Uint(99), rpcvalue.Array())
	_, err := s.HandleMessage(ctx, bad)
	if err == nil {
		t.Fatal("expected a protocol error for an unknown Boot notice code")
	}
}

func TestResponseMessageInProcessBootIsProtocolError(t *testing.T) {
	ctx := context.Background()
	store := keyfile.NewMemStore()
	s := newBootSession(t, store)

	resp := rpcmsg.NewResponse(1, rpcmsg.BootErrorNil, rpcvalue.Bool(true))
	_, err := s.HandleMessage(ctx, resp)
	if err == nil {
		t.Fatal("expected a protocol error: a Response is never valid client->server input")
	}
}

func TestMessageAfterTerminalStateIsProtocolError(t *testing.T) {
	ctx := context.Background()
	store := keyfile.NewMemStore()
	s := newAuthSession(t, store)

	out, err := s.HandleMessage(ctx, rpcmsg.NewNotification(rpcmsg.AuthNoticeDone, nil))
	if err != nil || !out.Done {
		t.Fatalf("expected clean end, got (%+v, %v)", out, err)
	}

	_, err = s.HandleMessage(ctx, rpcmsg.NewRequest(1, rpcmsg.AuthKeyExists, []rpcvalue.Value{rpcvalue.Bytes([]byte("x"))}))
	if err == nil {
		t.Fatal("expected an error for a message arriving after AuthEnd")
	}
}
