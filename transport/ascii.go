package transport

import (
	"io"
	"time"

	"github.com/kallax/modbus"
)

// asciiStart, asciiCR and asciiLF are the frame sentinels (spec §4.1):
// ':' start-of-frame, then hex-encoded bytes, then a CR LF end-of-frame.
const (
	asciiStart = ':'
	asciiCR    = '\r'
	asciiLF    = '\n'
)

// asciiIdleTimeout is the inter-character idle interval a receiver waits
// before giving up on an in-progress frame (spec §9 Open questions: the
// spec leaves this unspecified; 1 second is adopted here, matching the
// per-frame receive ceiling used elsewhere).
const asciiIdleTimeout = time.Second

// asciiMinFrameLen is ':' + addr(2 hex) + fc(2 hex) + lrc(2 hex) + CR LF.
const asciiMinFrameLen = 9

// ASCII is the hex-encoded + LRC serial framing variant (spec §4.1).
type ASCII struct {
	port      io.ReadWriteCloser
	direction DirectionController
	connected bool
}

// NewASCII wraps an already-opened serial port in the ASCII framing variant.
func NewASCII(port io.ReadWriteCloser, dir DirectionController) *ASCII {
	if dir == nil {
		dir = noopDirectionController{}
	}
	return &ASCII{port: port, direction: dir, connected: true}
}

// MaxADULen returns the largest ASCII frame this transport can carry.
func (t *ASCII) MaxADULen() int { return modbus.MaxASCIIADULen }

// PrepareRead asserts the receive direction on the transceiver.
func (t *ASCII) PrepareRead() { t.direction.AssertReceive() }

// PrepareWrite asserts the transmit direction on the transceiver.
func (t *ASCII) PrepareWrite() { t.direction.AssertTransmit() }

// DataAvailable always reports true; see RTU.DataAvailable for the rationale.
func (t *ASCII) DataAvailable() bool { return true }

// IsConnected reports whether the serial port is still considered open.
func (t *ASCII) IsConnected() bool { return t.connected }

// ClearInput is a no-op: ASCII framing is delimited by CR LF, so a partial
// read is naturally discarded by Receive scanning for the next ':'.
func (t *ASCII) ClearInput() {}

// Receive reads bytes until a CR LF terminator arrives or timeout/idle
// elapses, discarding any bytes before the leading ':'.
func (t *ASCII) Receive(buf []byte, desiredPDUDataLen int, timeout time.Duration) (int, error) {
	if !t.connected {
		return 0, ErrNotConnected
	}
	deadline := time.Now().Add(timeout)
	started := false
	total := 0
	one := make([]byte, 1)
	lastByteAt := time.Now()
	for {
		now := time.Now()
		if now.After(deadline) {
			return 0, ErrReceiveTimeout
		}
		if started && now.Sub(lastByteAt) > asciiIdleTimeout {
			return 0, ErrMalformedFrame
		}
		if sr, ok := t.port.(interface{ SetReadDeadline(time.Time) error }); ok {
			next := now.Add(50 * time.Millisecond)
			if next.After(deadline) {
				next = deadline
			}
			_ = sr.SetReadDeadline(next)
		}
		n, err := t.port.Read(one)
		if n == 0 {
			if err != nil && isTimeoutErr(err) {
				continue
			}
			if err != nil {
				return 0, err
			}
			continue
		}
		lastByteAt = time.Now()
		b := one[0]
		if !started {
			if b != asciiStart {
				continue
			}
			started = true
		}
		if total >= len(buf) {
			return 0, ErrFrameTooShort
		}
		buf[total] = b
		total++
		if total >= 2 && buf[total-2] == asciiCR && buf[total-1] == asciiLF {
			return total, nil
		}
	}
}

// Parse decodes the hex body, verifies the LRC and slices out the PDU bounds.
func (t *ASCII) Parse(buf []byte, n int, isResponse bool, ctx *Context) (addr, fc uint8, dataPos, dataLen int, err error) {
	if n < asciiMinFrameLen {
		return 0, 0, 0, 0, ErrFrameTooShort
	}
	if buf[0] != asciiStart || buf[n-2] != asciiCR || buf[n-1] != asciiLF {
		return 0, 0, 0, 0, ErrMalformedFrame
	}
	hexBody := buf[1 : n-2]
	if len(hexBody)%2 != 0 {
		return 0, 0, 0, 0, ErrMalformedFrame
	}
	raw := make([]byte, len(hexBody)/2)
	for i := range raw {
		b, derr := decodeHexByte(hexBody[2*i : 2*i+2])
		if derr != nil {
			return 0, 0, 0, 0, ErrMalformedFrame
		}
		raw[i] = b
	}
	if len(raw) < 3 {
		return 0, 0, 0, 0, ErrFrameTooShort
	}
	payload := raw[:len(raw)-1]
	wantLRC := raw[len(raw)-1]
	if modbus.LRC8(payload) != wantLRC {
		return 0, 0, 0, 0, ErrLrcMismatch
	}
	copy(buf, payload)
	return payload[0], payload[1], 2, len(payload) - 2, nil
}

// Build reserves room for the address and function code prefix in the raw
// (pre-hex-encoding) scratch area; hex expansion and framing happen in Send.
func (t *ASCII) Build(addr, fc uint8, dataLen int, buf []byte, isResponse bool, ctx *Context) (frameLen, dataPos int, err error) {
	rawLen := 2 + dataLen + 1
	if rawLen > len(buf) {
		return 0, 0, ErrFrameTooShort
	}
	buf[0] = addr
	buf[1] = fc
	return rawLen, 2, nil
}

// Send computes the LRC over buf[:frameLen-1] (frameLen counts the LRC
// byte Build reserved), hex-encodes address+fc+data+LRC and writes the
// ':'-prefixed, CR-LF-terminated ASCII frame to the wire.
func (t *ASCII) Send(buf []byte, frameLen int) error {
	if !t.connected {
		return ErrNotConnected
	}
	raw := buf[:frameLen-1]
	buf[frameLen-1] = modbus.LRC8(raw)
	rawAll := buf[:frameLen]

	out := make([]byte, 1+2*len(rawAll)+2)
	out[0] = asciiStart
	for i, b := range rawAll {
		encodeHexByte(out[1+2*i:], b)
	}
	out[len(out)-2] = asciiCR
	out[len(out)-1] = asciiLF
	_, err := t.port.Write(out)
	return err
}

func decodeHexByte(src []byte) (byte, error) {
	hi, err := nibbleFromHexASCII(src[0])
	if err != nil {
		return 0, err
	}
	lo, err := nibbleFromHexASCII(src[1])
	if err != nil {
		return 0, err
	}
	return hi<<4 | lo, nil
}

func nibbleFromHexASCII(c byte) (uint8, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, ErrMalformedFrame
	}
}

func encodeHexByte(dst []byte, b byte) {
	const digits = "0123456789ABCDEF"
	dst[0] = digits[b>>4]
	dst[1] = digits[b&0x0F]
}

// Close releases the underlying serial port.
func (t *ASCII) Close() error {
	t.connected = false
	return t.port.Close()
}
