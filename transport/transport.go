// Package transport implements the Modbus framing layer: RTU (binary +
// CRC-16), ASCII (hex-encoded + LRC) and TCP (MBAP header), behind one
// pluggable Transport contract (spec §4.2). The server dispatcher and the
// master correlator both drive a transport through this interface and
// never know which wire format is underneath.
package transport

import (
	"errors"
	"time"
)

// Context is the per-variant parse/build state a caller threads through a
// Parse/Build pair (spec §9: "telegramContext opaque object"). RTU and
// ASCII ignore it; TCP uses it to carry the outgoing transaction id so a
// master can reject a response that doesn't match its request.
type Context struct {
	TCP TCPContext
}

// TCPContext is the TCP-specific half of Context.
type TCPContext struct {
	// TransactionID is the id of the outstanding request; Parse compares an
	// inbound response's echoed id against this before accepting it.
	TransactionID uint16
}

// NoDesiredLength tells Receive the target frame length isn't known up
// front, so the framer must detect end-of-frame natively (RTU idle gap,
// ASCII CR LF sentinel, TCP MBAP length field).
const NoDesiredLength = -1

// Transport is the framing contract every RTU, ASCII and TCP implementation
// satisfies. Implementations may buffer internally but must not silently
// drop a valid frame.
type Transport interface {
	// MaxADULen is the upper bound on a single frame this transport can carry.
	MaxADULen() int

	// PrepareRead switches half-duplex media to the receive direction. No-op on full-duplex media.
	PrepareRead()
	// PrepareWrite switches half-duplex media to the transmit direction. No-op on full-duplex media.
	PrepareWrite()

	// DataAvailable is a nonblocking poll of inbound bytes.
	DataAvailable() bool

	// Receive blocks up to timeout and returns one complete ADU copied into buf.
	// desiredPDUDataLen is NoDesiredLength when the target length is not known up front.
	Receive(buf []byte, desiredPDUDataLen int, timeout time.Duration) (frameLen int, err error)

	// Parse validates framing/checksum and returns the decoded address, function
	// code and the PDU data slice bounds within buf.
	Parse(buf []byte, n int, isResponse bool, ctx *Context) (addr, fc uint8, dataPos, dataLen int, err error)

	// Build writes the framing prefix for an outgoing ADU and reserves dataLen
	// bytes for the caller to fill with PDU data, returning where to write and
	// the total frame length. Finalisation (checksum, inter-frame gap) happens in Send.
	Build(addr, fc uint8, dataLen int, buf []byte, isResponse bool, ctx *Context) (frameLen, dataPos int, err error)

	// Send finalises framing (checksum/encoding), enforces the minimum
	// inter-frame gap and writes buf[:frameLen] to the wire.
	Send(buf []byte, frameLen int) error

	// ClearInput purges the inbound byte buffer so the line resynchronises at
	// the next natural frame boundary. Called by callers after a parse error.
	ClearInput()

	// IsConnected reports whether the underlying channel is still usable.
	IsConnected() bool
}

// Errors returned by the Transport methods, shared by all three framing variants.
var (
	// ErrCrcMismatch is returned by RTU Parse when the trailing CRC does not match.
	ErrCrcMismatch = errors.New("modbus: rtu crc mismatch")
	// ErrLrcMismatch is returned by ASCII Parse when the trailing LRC does not match.
	ErrLrcMismatch = errors.New("modbus: ascii lrc mismatch")
	// ErrFrameTooShort is returned by Parse when fewer bytes arrived than the shortest valid frame.
	ErrFrameTooShort = errors.New("modbus: frame too short")
	// ErrMalformedFrame is returned by Parse when sentinels/header fields don't match the variant's shape.
	ErrMalformedFrame = errors.New("modbus: malformed frame")
	// ErrTransactionMismatch is returned by TCP Parse when a response's transaction id doesn't match the outstanding request.
	ErrTransactionMismatch = errors.New("modbus: tcp transaction id mismatch")
	// ErrReceiveTimeout is returned by Receive when timeout elapses before a complete frame arrives.
	ErrReceiveTimeout = errors.New("modbus: receive timeout")
	// ErrNotConnected is returned by Send/Receive when the channel has gone away.
	ErrNotConnected = errors.New("modbus: transport not connected")
)

// DirectionController switches an RS-485 transceiver's DE/RE pin between
// receive and transmit. Implementations talk to physical GPIO, which this
// package treats as an external collaborator (spec §1) it does not define.
type DirectionController interface {
	// AssertTransmit asserts the transmit-enable state (DE high / RE high, depending on wiring).
	AssertTransmit()
	// AssertReceive deasserts transmit-enable, returning the line to listen mode.
	AssertReceive()
}

// noopDirectionController is used when a transport is constructed without one,
// matching full-duplex media (e.g. TCP) or RS-232 where no direction pin exists.
type noopDirectionController struct{}

func (noopDirectionController) AssertTransmit() {}
func (noopDirectionController) AssertReceive()  {}
