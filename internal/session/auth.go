package session

import (
	"context"

	"github.com/safesecd/safesecd/internal/keyfile"
	"github.com/safesecd/safesecd/internal/rpcmsg"
	"github.com/safesecd/safesecd/internal/rpcvalue"
)

func (s *Session) handleAuth(ctx context.Context, m rpcmsg.Message) (Outcome, error) {
	switch m.MessageType() {
	case rpcmsg.TypeRequest:
		return s.handleAuthRequest(ctx, m)
	case rpcmsg.TypeNotification:
		notice, err := rpcmsg.NewNotificationMessage(m, rpcmsg.AuthNoticeFromNumber)
		if err != nil {
			return Outcome{}, err
		}
		if notice.Code == rpcmsg.AuthNoticeDone {
			s.state = StateAuthEnd
			return Outcome{Done: true}, nil
		}
		return Outcome{}, rpcmsg.NewError(rpcmsg.UnexpectedMessage, "unknown Auth notice code")
	default:
		return Outcome{}, rpcmsg.NewError(rpcmsg.UnexpectedMessage,
			"expected Request or Notification in ProcessAuth, got %s", m.MessageType())
	}
}

func (s *Session) handleAuthRequest(ctx context.Context, m rpcmsg.Message) (Outcome, error) {
	req, err := rpcmsg.NewRequestMessage(m, rpcmsg.AuthMethodFromNumber)
	if err != nil {
		return Outcome{}, err
	}

	var errCode rpcmsg.AuthError
	var result rpcvalue.Value

	switch req.Method {
	case rpcmsg.AuthKeyExists:
		errCode, result, err = s.authKeyExists(ctx, req.Args)
	case rpcmsg.AuthGetKeyFile:
		errCode, result, err = s.authGetKeyFile(ctx, req.Args)
	case rpcmsg.AuthCreateKeyFile:
		errCode, result, err = s.authCreateKeyFile(ctx, req.Args)
	case rpcmsg.AuthChangeKeyFile:
		errCode, result, err = s.authChangeKeyFile(ctx, req.Args)
	case rpcmsg.AuthDeleteKeyFile:
		errCode, result, err = s.authDeleteKeyFile(ctx, req.Args)
	case rpcmsg.AuthChangeKey:
		errCode, result, err = s.authChangeKey(ctx, req.Args)
	case rpcmsg.AuthReplaceKeyFile:
		errCode, result, err = s.authReplaceKeyFile(ctx, req.Args)
	default:
		return Outcome{}, rpcmsg.NewError(rpcmsg.InvalidRequestType, "unknown Auth method %d", req.Method)
	}
	if err != nil {
		return Outcome{}, err
	}

	resp := rpcmsg.NewResponse(req.ID, errCode, result)
	return Outcome{Response: &resp}, nil
}

func (s *Session) authKeyExists(ctx context.Context, args []rpcvalue.Value) (rpcmsg.AuthError, rpcvalue.Value, error) {
	key, err := oneBinArg(args)
	if err != nil {
		return 0, rpcvalue.Value{}, err
	}
	exists, serr := s.store.Exists(ctx, key)
	if serr != nil {
		return rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false), nil
	}
	return rpcmsg.AuthErrorNil, rpcvalue.Bool(exists), nil
}

func (s *Session) authGetKeyFile(ctx context.Context, args []rpcvalue.Value) (rpcmsg.AuthError, rpcvalue.Value, error) {
	key, err := oneBinArg(args)
	if err != nil {
		return 0, rpcvalue.Value{}, err
	}
	file, serr := s.store.Get(ctx, key)
	switch {
	case serr == nil:
		return rpcmsg.AuthErrorNil, rpcvalue.Bytes(file), nil
	case keyfile.IsNotFound(serr):
		return rpcmsg.AuthErrorKeyFileNotFound, rpcvalue.Bytes(key), nil
	default:
		return rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false), nil
	}
}

func (s *Session) authCreateKeyFile(ctx context.Context, args []rpcvalue.Value) (rpcmsg.AuthError, rpcvalue.Value, error) {
	key, file, err := twoBinArgs(args)
	if err != nil {
		return 0, rpcvalue.Value{}, err
	}

	var errCode rpcmsg.AuthError
	var result rpcvalue.Value
	txErr := s.store.Atomic(ctx, func(tx keyfile.Tx) error {
		exists, terr := tx.Exists(key)
		if terr != nil {
			errCode, result = rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false)
			return nil
		}
		if exists {
			errCode, result = rpcmsg.AuthErrorKeyFileExists, rpcvalue.Bytes(key)
			return nil
		}
		if terr := tx.Set(key, file); terr != nil {
			errCode, result = rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false)
			return nil
		}
		errCode, result = rpcmsg.AuthErrorNil, rpcvalue.Bool(true)
		return nil
	})
	if txErr != nil {
		return rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false), nil
	}
	return errCode, result, nil
}

func (s *Session) authChangeKeyFile(ctx context.Context, args []rpcvalue.Value) (rpcmsg.AuthError, rpcvalue.Value, error) {
	key, newFile, err := twoBinArgs(args)
	if err != nil {
		return 0, rpcvalue.Value{}, err
	}

	var errCode rpcmsg.AuthError
	var result rpcvalue.Value
	txErr := s.store.Atomic(ctx, func(tx keyfile.Tx) error {
		exists, terr := tx.Exists(key)
		if terr != nil {
			errCode, result = rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false)
			return nil
		}
		if !exists {
			errCode, result = rpcmsg.AuthErrorKeyFileNotFound, rpcvalue.Bytes(key)
			return nil
		}
		if terr := tx.Set(key, newFile); terr != nil {
			errCode, result = rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false)
			return nil
		}
		errCode, result = rpcmsg.AuthErrorNil, rpcvalue.Bool(true)
		return nil
	})
	if txErr != nil {
		return rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false), nil
	}
	return errCode, result, nil
}

func (s *Session) authDeleteKeyFile(ctx context.Context, args []rpcvalue.Value) (rpcmsg.AuthError, rpcvalue.Value, error) {
	key, err := oneBinArg(args)
	if err != nil {
		return 0, rpcvalue.Value{}, err
	}
	serr := s.store.Delete(ctx, key)
	switch {
	case serr == nil:
		return rpcmsg.AuthErrorNil, rpcvalue.Bool(true), nil
	case keyfile.IsNotFound(serr):
		return rpcmsg.AuthErrorKeyFileNotFound, rpcvalue.Bytes(key), nil
	default:
		return rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false), nil
	}
}

// authChangeKey renames old to new, holding the store's exclusive lock
// across the whole check-delete-insert sequence. The "new key already
// exists" check runs before the "old key exists" check, per the spec's
// tie-break ordering. A failure after a successful delete is reported as
// DatabaseError without attempting to restore the deleted binding.
func (s *Session) authChangeKey(ctx context.Context, args []rpcvalue.Value) (rpcmsg.AuthError, rpcvalue.Value, error) {
	oldKey, newKey, err := twoBinArgs(args)
	if err != nil {
		return 0, rpcvalue.Value{}, err
	}

	var errCode rpcmsg.AuthError
	var result rpcvalue.Value
	txErr := s.store.Atomic(ctx, func(tx keyfile.Tx) error {
		errCode, result = changeKeyTx(tx, oldKey, newKey, nil)
		return nil
	})
	if txErr != nil {
		return rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false), nil
	}
	return errCode, result, nil
}

// authReplaceKeyFile is ChangeKey plus replacing the stored payload with
// newFile instead of carrying the old value across.
func (s *Session) authReplaceKeyFile(ctx context.Context, args []rpcvalue.Value) (rpcmsg.AuthError, rpcvalue.Value, error) {
	oldKey, newKey, newFile, err := threeBinArgs(args)
	if err != nil {
		return 0, rpcvalue.Value{}, err
	}

	var errCode rpcmsg.AuthError
	var result rpcvalue.Value
	txErr := s.store.Atomic(ctx, func(tx keyfile.Tx) error {
		errCode, result = changeKeyTx(tx, oldKey, newKey, newFile)
		return nil
	})
	if txErr != nil {
		return rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false), nil
	}
	return errCode, result, nil
}

// changeKeyTx implements the shared read-delete-insert sequence for
// ChangeKey and ReplaceKeyFile. When payload is nil the value read from
// oldKey is carried over to newKey (ChangeKey); otherwise payload replaces
// it (ReplaceKeyFile).
func changeKeyTx(tx keyfile.Tx, oldKey, newKey, payload []byte) (rpcmsg.AuthError, rpcvalue.Value) {
	exists, err := tx.Exists(newKey)
	if err != nil {
		return rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false)
	}
	if exists {
		return rpcmsg.AuthErrorKeyFileExists, rpcvalue.Bytes(newKey)
	}

	oldValue, err := tx.Get(oldKey)
	if keyfile.IsNotFound(err) {
		return rpcmsg.AuthErrorKeyFileNotFound, rpcvalue.Bytes(oldKey)
	}
	if err != nil {
		return rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false)
	}

	if err := tx.Delete(oldKey); err != nil {
		return rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false)
	}

	value := oldValue
	if payload != nil {
		value = payload
	}
	if err := tx.Set(newKey, value); err != nil {
		return rpcmsg.AuthErrorDatabaseError, rpcvalue.Bool(false)
	}
	return rpcmsg.AuthErrorNil, rpcvalue.Bool(true)
}
