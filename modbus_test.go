package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPDUIsException(t *testing.T) {
	p := PDU{FunctionCode: FuncReadCoils | exceptionBit}
	assert.True(t, p.IsException())
	assert.Equal(t, FuncReadCoils, p.RequestFunctionCode())

	p = PDU{FunctionCode: FuncReadCoils}
	assert.False(t, p.IsException())
	assert.Equal(t, FuncReadCoils, p.RequestFunctionCode())
}
