package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadRegistersRequestRoundTrip(t *testing.T) {
	req, err := NewReadHoldingRegistersRequest(0x006B, 0x0003)
	assert.NoError(t, err)

	parsed, err := ParseReadRegistersRequest(FuncReadHoldingRegisters, req.Data())
	assert.NoError(t, err)
	assert.Equal(t, req.StartAddress, parsed.StartAddress)
	assert.Equal(t, req.Quantity, parsed.Quantity)
}

func TestReadRegistersResponseRoundTrip(t *testing.T) {
	registers := []uint16{0x0101, 0x0202, 0xABCD}
	resp := NewReadRegistersResponse(FuncReadInputRegisters, registers)

	parsed, err := ParseReadRegistersResponse(FuncReadInputRegisters, resp.Data())
	assert.NoError(t, err)
	assert.Equal(t, registers, parsed.Registers)
}

func TestNewReadHoldingRegistersRequestRejectsOutOfRangeQuantity(t *testing.T) {
	_, err := NewReadHoldingRegistersRequest(0, 126)
	assert.Error(t, err)
}

func TestParseReadRegistersResponseRejectsOddByteCount(t *testing.T) {
	_, err := ParseReadRegistersResponse(FuncReadHoldingRegisters, []byte{0x03, 0x00, 0x01, 0x00})
	assert.Error(t, err)
}
