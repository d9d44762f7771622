package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModbusExceptionError(t *testing.T) {
	err := &ModbusException{FunctionCode: FuncReadHoldingRegisters, Code: ExIllegalDataAddress}
	assert.Equal(t, "modbus: function 0x03: illegal data address", err.Error())
}

func TestAsException(t *testing.T) {
	var err error = &ModbusException{FunctionCode: FuncReadCoils, Code: ExServerBusy}
	me, ok := AsException(err)
	assert.True(t, ok)
	assert.Equal(t, ExServerBusy, me.Code)

	_, ok = AsException(assert.AnError)
	assert.False(t, ok)
}

func TestExceptionCodeString(t *testing.T) {
	assert.Equal(t, "illegal function", ExIllegalFunction.String())
	assert.Equal(t, "timeout", ExTimeout.String())
	assert.Contains(t, ExceptionCode(0x42).String(), "0x42")
}
