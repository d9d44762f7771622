package transport

import (
	"io"
	"time"

	"github.com/kallax/modbus"
)

// rtuMinFrameLen is addr(1) + fc(1) + crc(2).
const rtuMinFrameLen = 4

// bitsPerCharacter and friends implement the 3.5-character silent
// interval the RTU spec uses as a frame boundary (spec §4.1). At baud rates
// above 19200 the spec fixes the gap at 1.75ms regardless of baud, which is
// what highBaudInterFrameGap below encodes.
const (
	bitsPerCharacter      = 11 // 1 start + 8 data + 1 parity/stub + 1 stop, worst case framing
	interFrameGapChars    = 3.5
	highBaudThreshold     = 19200
	highBaudInterFrameGap = 1750 * time.Microsecond
)

// RTU is the binary + CRC-16 serial framing variant (spec §4.1).
type RTU struct {
	port      io.ReadWriteCloser
	direction DirectionController
	gap       time.Duration
	connected bool

	readBuf []byte
}

// NewRTU wraps an already-opened serial port in the RTU framing variant.
// baud is used only to compute the 3.5-character inter-frame gap; dir may
// be nil when the line has no RS-485 direction pin to control.
func NewRTU(port io.ReadWriteCloser, baud int, dir DirectionController) *RTU {
	if dir == nil {
		dir = noopDirectionController{}
	}
	return &RTU{
		port:      port,
		direction: dir,
		gap:       interFrameGap(baud),
		connected: true,
		readBuf:   make([]byte, 0, modbus.MaxRTUADULen),
	}
}

// interFrameGap computes the minimum silent interval between frames: 3.5
// character times at baud, clamped to 1.75ms above 19200 baud per the spec's
// rationale that character timing becomes unreliable at high speed.
func interFrameGap(baud int) time.Duration {
	if baud <= 0 || baud > highBaudThreshold {
		return highBaudInterFrameGap
	}
	charTime := time.Second * bitsPerCharacter / time.Duration(baud)
	gap := time.Duration(float64(charTime) * interFrameGapChars)
	if gap < highBaudInterFrameGap {
		return highBaudInterFrameGap
	}
	return gap
}

// MaxADULen returns the largest RTU frame this transport can carry.
func (t *RTU) MaxADULen() int { return modbus.MaxRTUADULen }

// PrepareRead asserts the receive direction on the transceiver.
func (t *RTU) PrepareRead() { t.direction.AssertReceive() }

// PrepareWrite asserts the transmit direction on the transceiver.
func (t *RTU) PrepareWrite() { t.direction.AssertTransmit() }

// DataAvailable is approximated by attempting a nonblocking read is not
// possible over io.Reader; callers relying on polling should use Receive
// with a short timeout instead. Kept to satisfy Transport for symmetry with
// the other variants, and always reports true so pollers fall through to Receive.
func (t *RTU) DataAvailable() bool { return true }

// IsConnected reports whether the serial port is still considered open.
func (t *RTU) IsConnected() bool { return t.connected }

// ClearInput discards anything this transport buffered internally.
func (t *RTU) ClearInput() { t.readBuf = t.readBuf[:0] }

// Receive reads one RTU frame. Because RTU has no length prefix, end of
// frame is detected by the 3.5-character idle gap: once bytes stop arriving
// for longer than the gap, whatever has accumulated is the frame.
func (t *RTU) Receive(buf []byte, desiredPDUDataLen int, timeout time.Duration) (int, error) {
	if !t.connected {
		return 0, ErrNotConnected
	}
	deadline := time.Now().Add(timeout)
	total := 0
	chunk := make([]byte, len(buf))
	lastByteAt := time.Time{}
	for {
		now := time.Now()
		if now.After(deadline) {
			if total > 0 {
				break
			}
			return 0, ErrReceiveTimeout
		}
		if !lastByteAt.IsZero() && now.Sub(lastByteAt) > t.gap && total > 0 {
			break
		}
		if sr, ok := t.port.(interface{ SetReadDeadline(time.Time) error }); ok {
			step := t.gap
			if step <= 0 {
				step = time.Millisecond
			}
			next := now.Add(step)
			if next.After(deadline) {
				next = deadline
			}
			_ = sr.SetReadDeadline(next)
		}
		n, err := t.port.Read(chunk[total:])
		if n > 0 {
			copy(buf[total:total+n], chunk[total:total+n])
			total += n
			lastByteAt = time.Now()
		}
		if err != nil {
			if n == 0 && isTimeoutErr(err) {
				continue
			}
			if total > 0 {
				break
			}
			return 0, err
		}
		if total >= len(buf) {
			break
		}
	}
	return total, nil
}

// isTimeoutErr reports whether err is a read-deadline timeout, which the
// Receive loop treats as "still waiting", not a hard failure.
func isTimeoutErr(err error) bool {
	type timeouter interface{ Timeout() bool }
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}

// Parse validates an RTU frame's CRC and slices out the PDU bounds.
// Frame layout: address(1) fc(1) data(n) crc_lo(1) crc_hi(1).
func (t *RTU) Parse(buf []byte, n int, isResponse bool, ctx *Context) (addr, fc uint8, dataPos, dataLen int, err error) {
	if n < rtuMinFrameLen {
		return 0, 0, 0, 0, ErrFrameTooShort
	}
	payload := buf[:n-2]
	want := modbus.Uint16(buf, n-2)
	got := modbus.CRC16(payload)
	// CRC is transmitted low byte first; modbus.Uint16 reads big endian, so
	// compare against the byte-swapped wire value.
	wireCRC := (want << 8) | (want >> 8)
	if wireCRC != got {
		return 0, 0, 0, 0, ErrCrcMismatch
	}
	return buf[0], buf[1], 2, n - 4, nil
}

// Build writes the address and function code prefix and reserves room for
// the trailing CRC; Send computes and appends the CRC bytes.
func (t *RTU) Build(addr, fc uint8, dataLen int, buf []byte, isResponse bool, ctx *Context) (frameLen, dataPos int, err error) {
	total := 2 + dataLen + 2
	if total > len(buf) {
		return 0, 0, ErrFrameTooShort
	}
	buf[0] = addr
	buf[1] = fc
	return total, 2, nil
}

// Send appends the CRC (low byte first) and writes the frame to the wire,
// waiting out the inter-frame gap first so the previous frame's end is unambiguous.
func (t *RTU) Send(buf []byte, frameLen int) error {
	if !t.connected {
		return ErrNotConnected
	}
	crc := modbus.CRC16(buf[:frameLen-2])
	buf[frameLen-2] = byte(crc)
	buf[frameLen-1] = byte(crc >> 8)
	time.Sleep(t.gap)
	_, err := t.port.Write(buf[:frameLen])
	return err
}

// Close releases the underlying serial port.
func (t *RTU) Close() error {
	t.connected = false
	return t.port.Close()
}
