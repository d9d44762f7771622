package transport

import (
	"io"
	"net"
	"time"

	"github.com/kallax/modbus"
)

// mbapHeaderLen is transaction_id(2) + protocol_id(2) + length(2) + unit_id(1).
const mbapHeaderLen = 7

// mbapProtocolID is always 0 for Modbus (spec §4.1).
const mbapProtocolID = uint16(0)

// maxTCPADULen is the largest TCP ADU: MBAP header plus the widest PDU.
const maxTCPADULen = mbapHeaderLen + modbus.MaxPDUDataLen + 1

// TCP is the MBAP-header framing variant (spec §4.1). It has no checksum
// of its own; TCP's own error detection covers the wire.
type TCP struct {
	conn      net.Conn
	connected bool
}

// NewTCP wraps an already-established connection in the TCP framing variant.
func NewTCP(conn net.Conn) *TCP {
	return &TCP{conn: conn, connected: true}
}

// MaxADULen returns the largest TCP frame this transport can carry.
func (t *TCP) MaxADULen() int { return maxTCPADULen }

// PrepareRead is a no-op: TCP is full duplex.
func (t *TCP) PrepareRead() {}

// PrepareWrite is a no-op: TCP is full duplex.
func (t *TCP) PrepareWrite() {}

// DataAvailable always reports true; see RTU.DataAvailable for the rationale.
func (t *TCP) DataAvailable() bool { return true }

// IsConnected reports whether the connection is still considered open.
func (t *TCP) IsConnected() bool { return t.connected }

// ClearInput is a no-op: each TCP read targets an exact, length-prefixed frame.
func (t *TCP) ClearInput() {}

// Receive reads one complete MBAP-framed ADU: the 7 byte header first, then
// exactly length-1 further bytes per the header's length field.
func (t *TCP) Receive(buf []byte, desiredPDUDataLen int, timeout time.Duration) (int, error) {
	if !t.connected {
		return 0, ErrNotConnected
	}
	_ = t.conn.SetReadDeadline(time.Now().Add(timeout))
	if err := readFull(t.conn, buf[:mbapHeaderLen]); err != nil {
		return 0, mapNetErr(err)
	}
	length := int(modbus.Uint16(buf, 4))
	if length < 1 {
		return 0, ErrMalformedFrame
	}
	remaining := length - 1
	if mbapHeaderLen+remaining > len(buf) {
		return 0, ErrFrameTooShort
	}
	if remaining > 0 {
		if err := readFull(t.conn, buf[mbapHeaderLen:mbapHeaderLen+remaining]); err != nil {
			return 0, mapNetErr(err)
		}
	}
	return mbapHeaderLen + remaining, nil
}

func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return err
}

func mapNetErr(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return ErrReceiveTimeout
	}
	return err
}

// Parse validates the MBAP header (protocol id, transaction id when ctx is
// a response) and slices out the unit id and PDU bounds.
func (t *TCP) Parse(buf []byte, n int, isResponse bool, ctx *Context) (addr, fc uint8, dataPos, dataLen int, err error) {
	if n < mbapHeaderLen+1 {
		return 0, 0, 0, 0, ErrFrameTooShort
	}
	if modbus.Uint16(buf, 2) != mbapProtocolID {
		return 0, 0, 0, 0, ErrMalformedFrame
	}
	length := int(modbus.Uint16(buf, 4))
	if mbapHeaderLen-1+length != n {
		return 0, 0, 0, 0, ErrMalformedFrame
	}
	txID := modbus.Uint16(buf, 0)
	if ctx != nil {
		if isResponse {
			if txID != ctx.TCP.TransactionID {
				return 0, 0, 0, 0, ErrTransactionMismatch
			}
		} else {
			ctx.TCP.TransactionID = txID
		}
	}
	unitID := buf[6]
	return unitID, buf[7], 8, n - 8, nil
}

// Build writes the 7 byte MBAP header (stamping the transaction id from ctx
// for outgoing requests) and the unit id and function code, reserving room
// for dataLen bytes of PDU payload.
func (t *TCP) Build(addr, fc uint8, dataLen int, buf []byte, isResponse bool, ctx *Context) (frameLen, dataPos int, err error) {
	total := mbapHeaderLen + 1 + dataLen
	if total > len(buf) {
		return 0, 0, ErrFrameTooShort
	}
	var txID uint16
	if ctx != nil {
		txID = ctx.TCP.TransactionID
	}
	modbus.PutUint16(buf, 0, txID)
	modbus.PutUint16(buf, 2, mbapProtocolID)
	modbus.PutUint16(buf, 4, uint16(1+1+dataLen))
	buf[6] = addr
	buf[7] = fc
	return total, 8, nil
}

// Send writes the prepared frame to the connection; MBAP carries no
// trailing checksum, so this is a plain write.
func (t *TCP) Send(buf []byte, frameLen int) error {
	if !t.connected {
		return ErrNotConnected
	}
	_, err := t.conn.Write(buf[:frameLen])
	return err
}

// Close releases the underlying connection.
func (t *TCP) Close() error {
	t.connected = false
	return t.conn.Close()
}
