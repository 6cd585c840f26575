package rpcmsg

// Protocol vocabulary (C5): the closed code sets that parameterize typed
// messages for each session kind. Every enum below implements CodeConvert.

// SessionType selects Boot or Auth once per connection in the opening
// notification.
type SessionType uint8

const (
	SessionBoot SessionType = iota
	SessionAuth
)

func (s SessionType) ToNumber() uint8 { return uint8(s) }

var allSessionTypes = []SessionType{SessionBoot, SessionAuth}

func SessionTypeFromNumber(n uint8) (SessionType, error) { return fromNumber(n, allSessionTypes) }

// BootMethod enumerates the requests permitted in a Boot session.
type BootMethod uint8

const (
	BootKeyExists BootMethod = iota
	BootGetKeyFile
)

func (m BootMethod) ToNumber() uint8 { return uint8(m) }

var allBootMethods = []BootMethod{BootKeyExists, BootGetKeyFile}

func BootMethodFromNumber(n uint8) (BootMethod, error) { return fromNumber(n, allBootMethods) }

// BootError enumerates the response error codes available to a Boot
// session. DatabaseError is an addition over the literal source design,
// made to let a non-KeyNotFound store failure during GetKeyFile be
// reported to the client instead of silently dropping the connection.
type BootError uint8

const (
	BootErrorNil BootError = iota
	BootErrorKeyFileNotFound
	BootErrorDatabaseError
)

func (e BootError) ToNumber() uint8 { return uint8(e) }

var allBootErrors = []BootError{BootErrorNil, BootErrorKeyFileNotFound, BootErrorDatabaseError}

func BootErrorFromNumber(n uint8) (BootError, error) { return fromNumber(n, allBootErrors) }

// BootNotice enumerates the notification codes in a Boot session. Done
// carries discriminant 2 to leave room for future contiguous codes 0 and 1.
type BootNotice uint8

const BootNoticeDone BootNotice = 2

func (n BootNotice) ToNumber() uint8 { return uint8(n) }

var allBootNotices = []BootNotice{BootNoticeDone}

func BootNoticeFromNumber(n uint8) (BootNotice, error) { return fromNumber(n, allBootNotices) }

// AuthMethod enumerates the full CRUD request set permitted in an
// Authenticated session, numbered 0..6 in declaration order.
type AuthMethod uint8

const (
	AuthGetKeyFile AuthMethod = iota
	AuthCreateKeyFile
	AuthChangeKeyFile
	AuthChangeKey
	AuthReplaceKeyFile
	AuthDeleteKeyFile
	AuthKeyExists
)

func (m AuthMethod) ToNumber() uint8 { return uint8(m) }

var allAuthMethods = []AuthMethod{
	AuthGetKeyFile, AuthCreateKeyFile, AuthChangeKeyFile, AuthChangeKey,
	AuthReplaceKeyFile, AuthDeleteKeyFile, AuthKeyExists,
}

func AuthMethodFromNumber(n uint8) (AuthMethod, error) { return fromNumber(n, allAuthMethods) }

// AuthError enumerates the response error codes available to an
// Authenticated session.
type AuthError uint8

const (
	AuthErrorNil AuthError = iota
	AuthErrorKeyFileNotFound
	AuthErrorKeyFileExists
	AuthErrorDatabaseError
)

func (e AuthError) ToNumber() uint8 { return uint8(e) }

var allAuthErrors = []AuthError{
	AuthErrorNil, AuthErrorKeyFileNotFound, AuthErrorKeyFileExists, AuthErrorDatabaseError,
}

func AuthErrorFromNumber(n uint8) (AuthError, error) { return fromNumber(n, allAuthErrors) }

// AuthNotice enumerates the notification codes in an Authenticated
// session. Done carries discriminant 2, matching BootNotice.
type AuthNotice uint8

const AuthNoticeDone AuthNotice = 2

func (n AuthNotice) ToNumber() uint8 { return uint8(n) }

var allAuthNotices = []AuthNotice{AuthNoticeDone}

func AuthNoticeFromNumber(n uint8) (AuthNotice, error) { return fromNumber(n, allAuthNotices) }
