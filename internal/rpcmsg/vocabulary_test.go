package rpcmsg

import "testing"

func TestCodeConvertRoundTripsForEveryVocabulary(t *testing.T) {
	t.Run("SessionType", func(t *testing.T) {
		for n := uint8(0); n < 2; n++ {
			v, err := SessionTypeFromNumber(n)
			if err != nil || v.ToNumber() != n {
				t.Errorf("n=%d: got (%v, %v)", n, v, err)
			}
		}
		if _, err := SessionTypeFromNumber(2); err == nil {
			t.Error("expected error for out-of-range SessionType")
		}
	})

	t.Run("BootMethod", func(t *testing.T) {
		for n := uint8(0); n < 2; n++ {
			v, err := BootMethodFromNumber(n)
			if err != nil || v.ToNumber() != n {
				t.Errorf("n=%d: got (%v, %v)", n, v, err)
			}
		}
	})

	t.Run("BootError", func(t *testing.T) {
		for n := uint8(0); n < 3; n++ {
			v, err := BootErrorFromNumber(n)
			if err != nil || v.ToNumber() != n {
				t.Errorf("n=%d: got (%v, %v)", n, v, err)
			}
		}
	})

	t.Run("BootNotice", func(t *testing.T) {
		v, err := BootNoticeFromNumber(2)
		if err != nil || v.ToNumber() != 2 {
			t.Errorf("got (%v, %v)", v, err)
		}
		if _, err := BootNoticeFromNumber(0); err == nil {
			t.Error("expected error: 0 is not a valid BootNotice")
		}
	})

	t.Run("AuthMethod", func(t *testing.T) {
		for n := uint8(0); n < 7; n++ {
			v, err := AuthMethodFromNumber(n)
			if err != nil || v.ToNumber() != n {
				t.Errorf("n=%d: got (%v, %v)", n, v, err)
			}
		}
		if AuthGetKeyFile.ToNumber() != 0 || AuthKeyExists.ToNumber() != 6 {
			t.Error("AuthMethod declaration order does not match spec numbering")
		}
	})

	t.Run("AuthError", func(t *testing.T) {
		for n := uint8(0); n < 4; n++ {
			v, err := AuthErrorFromNumber(n)
			if err != nil || v.ToNumber() != n {
				t.Errorf("n=%d: got (%v, %v)", n, v, err)
			}
		}
	})

	t.Run("AuthNotice", func(t *testing.T) {
		v, err := AuthNoticeFromNumber(2)
		if err != nil || v.ToNumber() != 2 {
			t.Errorf("got (%v, %v)", v, err)
		}
	})
}

func TestFromNumberOutOfRangeDescribesTheNumber(t *testing.T) {
	_, err := AuthMethodFromNumber(200)
	if err == nil {
		t.Fatal("expected an error")
	}
	e := err.(*Error)
	if e.Kind != InvalidValue {
		t.Errorf("kind = %v, want InvalidValue", e.Kind)
	}
	if e.Msg != "200" {
		t.Errorf("msg = %q, want %q", e.Msg, "200")
	}
}
