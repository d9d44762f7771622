package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteSingleCoilRequestRoundTrip(t *testing.T) {
	req := NewWriteSingleCoilRequest(0x00AC, true)
	parsed, err := ParseWriteSingleCoilRequest(req.Data())
	assert.NoError(t, err)
	assert.Equal(t, req.Address, parsed.Address)
	assert.True(t, parsed.Value)

	req = NewWriteSingleCoilRequest(0x00AC, false)
	parsed, err = ParseWriteSingleCoilRequest(req.Data())
	assert.NoError(t, err)
	assert.False(t, parsed.Value)
}

func TestParseWriteSingleCoilRequestRejectsBadValue(t *testing.T) {
	data := make([]byte, 4)
	PutUint16(data, 0, 0x0001)
	PutUint16(data, 2, 0x1234)
	_, err := ParseWriteSingleCoilRequest(data)
	assert.Error(t, err)
}

func TestWriteSingleRegisterRequestRoundTrip(t *testing.T) {
	req := NewWriteSingleRegisterRequest(0x0001, 0x0003)
	parsed, err := ParseWriteSingleRegisterRequest(req.Data())
	assert.NoError(t, err)
	assert.Equal(t, req.Address, parsed.Address)
	assert.Equal(t, req.Value, parsed.Value)
}
