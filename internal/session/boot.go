package session

import (
	"context"

	"github.com/safesecd/safesecd/internal/keyfile"
	"github.com/safesecd/safesecd/internal/rpcmsg"
	"github.com/safesecd/safesecd/internal/rpcvalue"
)

func (s *Session) handleBoot(ctx context.Context, m rpcmsg.Message) (Outcome, error) {
	switch m.MessageType() {
	case rpcmsg.TypeRequest:
		return s.handleBootRequest(ctx, m)
	case rpcmsg.TypeNotification:
		notice, err := rpcmsg.NewNotificationMessage(m, rpcmsg.BootNoticeFromNumber)
		if err != nil {
			return Outcome{}, err
		}
		if notice.Code == rpcmsg.BootNoticeDone {
			s.state = StateBootEnd
			return Outcome{Done: true}, nil
		}
		return Outcome{}, rpcmsg.NewError(rpcmsg.UnexpectedMessage, "unknown Boot notice code")
	default:
		return Outcome{}, rpcmsg.NewError(rpcmsg.UnexpectedMessage,
			"expected Request or Notification in ProcessBoot, got %s", m.MessageType())
	}
}

func (s *Session) handleBootRequest(ctx context.Context, m rpcmsg.Message) (Outcome, error) {
	req, err := rpcmsg.NewRequestMessage(m, rpcmsg.BootMethodFromNumber)
	if err != nil {
		return Outcome{}, err
	}

	var errCode rpcmsg.BootError
	var result rpcvalue.Value

	switch req.Method {
	case rpcmsg.BootKeyExists:
		key, aerr := oneBinArg(req.Args)
		if aerr != nil {
			return Outcome{}, aerr
		}
		exists, serr := s.store.Exists(ctx, key)
		if serr != nil {
			errCode, result = rpcmsg.BootErrorDatabaseError, rpcvalue.Bool(false)
			break
		}
		errCode, result = rpcmsg.BootErrorNil, rpcvalue.Bool(exists)

	case rpcmsg.BootGetKeyFile:
		key, aerr := oneBinArg(req.Args)
		if aerr != nil {
			return Outcome{}, aerr
		}
		file, serr := s.store.Get(ctx, key)
		switch {
		case serr == nil:
			errCode, result = rpcmsg.BootErrorNil, rpcvalue.Bytes(file)
		case keyfile.IsNotFound(serr):
			errCode, result = rpcmsg.BootErrorKeyFileNotFound, rpcvalue.Bytes(key)
		default:
			errCode, result = rpcmsg.BootErrorDatabaseError, rpcvalue.Bool(false)
		}

	default:
		return Outcome{}, rpcmsg.NewError(rpcmsg.InvalidRequestType, "method %d not permitted in a Boot session", req.Method)
	}

	resp := rpcmsg.NewResponse(req.ID, errCode, result)
	return Outcome{Response: &resp}, nil
}
