package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadBitsRequestRoundTrip(t *testing.T) {
	req, err := NewReadCoilsRequest(0x0013, 0x0025)
	assert.NoError(t, err)
	assert.Equal(t, FuncReadCoils, req.FunctionCode())

	parsed, err := ParseReadBitsRequest(FuncReadCoils, req.Data())
	assert.NoError(t, err)
	assert.Equal(t, req.StartAddress, parsed.StartAddress)
	assert.Equal(t, req.Quantity, parsed.Quantity)
}

func TestNewReadCoilsRequestRejectsOutOfRangeQuantity(t *testing.T) {
	_, err := NewReadCoilsRequest(0, 0)
	assert.Error(t, err)

	_, err = NewReadCoilsRequest(0, 2001)
	assert.Error(t, err)
}

func TestReadBitsResponseRoundTrip(t *testing.T) {
	values := []bool{true, false, true, true, false, false, false, true, true}
	resp := NewReadBitsResponse(FuncReadDiscreteInputs, values)

	parsed, err := ParseReadBitsResponse(FuncReadDiscreteInputs, resp.Data())
	assert.NoError(t, err)
	for i, v := range values {
		assert.Equal(t, v, parsed.Bit(i), "bit %d", i)
	}
}

func TestParseReadBitsRequestRejectsShortData(t *testing.T) {
	_, err := ParseReadBitsRequest(FuncReadCoils, []byte{0x00, 0x13})
	assert.Error(t, err)
	me, ok := AsException(err)
	assert.True(t, ok)
	assert.Equal(t, ExIllegalDataValue, me.Code)
}
