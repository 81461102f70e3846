package wire

import "errors"

// ErrMaxTransmissionSize indicates a frame (outbound or inbound) exceeds
// the codec's configured maximum size. This mirrors the Rust codec's
// BitswapHandlerError::MaxTransmissionSize, which it derives from the
// length-framer's oversize-buffer sentinel rather than carrying a frame
// size limit of its own.
var ErrMaxTransmissionSize = errors.New("wire: frame exceeds maximum transmission size")

// ErrDecode indicates a frame body failed to parse as a valid message for
// the negotiated version.
var ErrDecode = errors.New("wire: malformed message body")

// ErrUnknownVersion indicates a protocol id string did not match any known
// exchange protocol version.
var ErrUnknownVersion = errors.New("wire: unknown protocol version")
