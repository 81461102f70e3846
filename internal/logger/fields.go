package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Peer & Protocol
	// ========================================================================
	KeyPeerID      = "peer_id"      // remote peer identity
	KeyProtocol    = "protocol"     // negotiated stream protocol id
	KeyMultiaddr   = "multiaddr"    // a multiaddr (listen or remote)
	KeyListenerID  = "listener_id"  // transport listener identifier
	KeyDirection   = "direction"    // inbound / outbound
	KeyConnections = "connections"  // connected peer count

	// ========================================================================
	// Content addressing
	// ========================================================================
	KeyCID     = "cid"     // content identifier
	KeyLocator = "locator" // textual content locator
	KeyBlock   = "block"   // block identifier shorthand

	// ========================================================================
	// Sessions & workers
	// ========================================================================
	KeySessionID   = "session_id"   // bitswap session scope
	KeyWorkerCount = "worker_count" // number of workers tracked for a session

	// ========================================================================
	// DHT / query tracker
	// ========================================================================
	KeyQueryID = "query_id" // DHT query id
	KeyQuorum  = "quorum"   // requested quorum for put/get record

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyEvent      = "event"       // event kind / command name
	KeyAttempt    = "attempt"     // retry attempt number
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Peer & Protocol
// ----------------------------------------------------------------------------

// PeerID returns a slog.Attr for a remote peer identity
func PeerID(id string) slog.Attr {
	return slog.String(KeyPeerID, id)
}

// Protocol returns a slog.Attr for the negotiated stream protocol id
func Protocol(proto string) slog.Attr {
	return slog.String(KeyProtocol, proto)
}

// Multiaddr returns a slog.Attr for a multiaddr
func Multiaddr(ma string) slog.Attr {
	return slog.String(KeyMultiaddr, ma)
}

// ListenerID returns a slog.Attr for a listener identifier
func ListenerID(id string) slog.Attr {
	return slog.String(KeyListenerID, id)
}

// Connections returns a slog.Attr for the connected peer count
func Connections(n int) slog.Attr {
	return slog.Int(KeyConnections, n)
}

// ----------------------------------------------------------------------------
// Content addressing
// ----------------------------------------------------------------------------

// CID returns a slog.Attr for a content identifier
func CID(cid string) slog.Attr {
	return slog.String(KeyCID, cid)
}

// Locator returns a slog.Attr for a textual content locator
func Locator(path string) slog.Attr {
	return slog.String(KeyLocator, path)
}

// ----------------------------------------------------------------------------
// Sessions & workers
// ----------------------------------------------------------------------------

// SessionID returns a slog.Attr for a bitswap session scope
func SessionID(id uint64) slog.Attr {
	return slog.Uint64(KeySessionID, id)
}

// WorkerCount returns a slog.Attr for the number of workers tracked for a session
func WorkerCount(n int) slog.Attr {
	return slog.Int(KeyWorkerCount, n)
}

// ----------------------------------------------------------------------------
// DHT / query tracker
// ----------------------------------------------------------------------------

// QueryID returns a slog.Attr for a DHT query id
func QueryID(id uint64) slog.Attr {
	return slog.Uint64(KeyQueryID, id)
}

// Quorum returns a slog.Attr for a requested quorum
func Quorum(n int) slog.Attr {
	return slog.Int(KeyQuorum, n)
}

// ----------------------------------------------------------------------------
// Operation metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Event returns a slog.Attr for an event/command name
func Event(name string) slog.Attr {
	return slog.String(KeyEvent, name)
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
