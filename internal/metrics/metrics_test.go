package metrics

import "testing"

func TestRecordersAreSafeNoOpsWhenDisabled(t *testing.T) {
	// With no InitRegistry call (module init state may carry over from
	// another test in -count=1 runs, so only assert no panic).
	ConnectionAccepted()
	ConnectionClosed()
	ConnectionRejected()
	MessageHandled("boot")
	DecodeError()
}
