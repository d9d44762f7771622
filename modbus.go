// Package modbus implements the Modbus Application Protocol v1.1b: the
// PDU-level function codes, the RTU/ASCII/TCP framing variants and the
// server dispatcher and master correlator that run on top of them.
//
// Subpackages transport, server and client hold the framing layer, the
// device-side dispatch engine and the master-side request/response
// correlator, respectively. This package holds the bits both sides share:
// the PDU, addressing rules, function codes, byte-level checksums and the
// exception taxonomy.
package modbus

// Address is a one byte Modbus device/unit address.
type Address = uint8

const (
	// Broadcast is the reserved address a server must process but never reply to.
	Broadcast Address = 0
	// MinUnicastAddress is the lowest address of an individually addressed unit.
	MinUnicastAddress Address = 1
	// MaxUnicastAddress is the highest address of an individually addressed unit.
	MaxUnicastAddress Address = 247
	// AnyAddress is the TCP-only convention meaning "accept regardless of unit id".
	AnyAddress Address = 248
)

// PDU is a Modbus Protocol Data Unit: a function code plus its payload.
// All multi-byte integers inside Data are big-endian.
type PDU struct {
	FunctionCode uint8
	Data         []byte
}

// exceptionBit is set on FunctionCode in an exception response.
const exceptionBit = uint8(0x80)

// IsException reports whether this PDU carries an exception response.
func (p PDU) IsException() bool {
	return p.FunctionCode&exceptionBit != 0
}

// RequestFunctionCode returns the function code with the exception bit cleared.
func (p PDU) RequestFunctionCode() uint8 {
	return p.FunctionCode &^ exceptionBit
}

const (
	// MaxPDUDataLen is the largest PDU data payload any framing variant can carry
	// (252 bytes: 256 byte RTU ADU minus 1 address, 1 function code and 2 CRC bytes).
	MaxPDUDataLen = 252
	// MaxRTUADULen is the largest possible RTU ADU.
	MaxRTUADULen = 256
	// MaxASCIIADULen is the largest possible ASCII ADU: ':' plus the 2x hex expansion of
	// address, function code, 252 data bytes and LRC (255 bytes), plus CR LF.
	MaxASCIIADULen = 513
)
