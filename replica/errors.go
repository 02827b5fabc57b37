package replica

import "fmt"

// TransportError wraps a failure at the packet-channel level: a dial
// failure, a read/write timeout, or an unexpected connection close.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string { return fmt.Sprintf("replica: transport: %v", e.Cause) }
func (e *TransportError) Unwrap() error { return e.Cause }

// ProtocolError wraps a malformed or out-of-sequence packet that the wire
// decoder could not make sense of.
type ProtocolError struct {
	Cause error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("replica: protocol: %v", e.Cause) }
func (e *ProtocolError) Unwrap() error { return e.Cause }

// AuthFailedError is returned when the server rejects the handshake
// response with an ERR_Packet.
type AuthFailedError struct {
	Code     uint16
	SQLState string
	Message  string
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("replica: auth failed (%d/%s): %s", e.Code, e.SQLState, e.Message)
}

// ServerError is returned when a configuration query or the dump request
// itself is rejected with an ERR_Packet after a successful handshake.
type ServerError struct {
	Code     uint16
	SQLState string
	Message  string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("replica: server error (%d/%s): %s", e.Code, e.SQLState, e.Message)
}

// ServerConfigError marks a session whose binlog configuration this client
// cannot operate against (e.g. binlog_format=STATEMENT, or binary logging
// disabled entirely).
type ServerConfigError struct {
	Reason string
}

func (e *ServerConfigError) Error() string { return fmt.Sprintf("replica: server config: %s", e.Reason) }

// DecodeError wraps a failure decoding an event body once framing and
// checksum handling have already succeeded.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("replica: decode: %v", e.Cause) }
func (e *DecodeError) Unwrap() error { return e.Cause }

// GtidParseError wraps a failure parsing a GTID set from configuration or
// from the server's reported executed-set.
type GtidParseError struct {
	Cause error
}

func (e *GtidParseError) Error() string { return fmt.Sprintf("replica: gtid parse: %v", e.Cause) }
func (e *GtidParseError) Unwrap() error { return e.Cause }

// CancelledError is the cancellation kind of the error taxonomy. Stop does
// not surface it: a stopped session closes Events without delivering an
// error on Errs.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "replica: cancelled" }
