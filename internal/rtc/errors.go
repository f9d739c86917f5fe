package rtc

// ProtocolError covers malformed connection strings and failed
// negotiation steps.
type ProtocolError struct{ Message string }

func (e *ProtocolError) Error() string { return e.Message }

// PermissionError covers media acquisition failures; callers may proceed
// audio-only or with no media.
type PermissionError struct{ Message string }

func (e *PermissionError) Error() string { return e.Message }
