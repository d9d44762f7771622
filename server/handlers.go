package server

import (
	"github.com/kallax/modbus"
)

// BitReaderFunc resolves quantity bit values starting at address, for
// ReadCoils/ReadDiscreteInputs. Returning a *modbus.ModbusException maps to
// the exception code it carries; any other error maps to ServerDeviceFailure.
type BitReaderFunc func(address, quantity uint16) ([]bool, error)

// NewReadBitsHandler wraps read into a Handler for fc (FuncReadCoils or
// FuncReadDiscreteInputs), validating the request before invoking read and
// packing its result per spec §4.3's bit-read response construction.
func NewReadBitsHandler(fc uint8, read BitReaderFunc) Handler {
	return func(data []byte) ([]byte, error) {
		req, err := modbus.ParseReadBitsRequest(fc, data)
		if err != nil {
			return nil, err
		}
		values, err := read(req.StartAddress, req.Quantity)
		if err != nil {
			return nil, err
		}
		return modbus.NewReadBitsResponse(fc, values).Data(), nil
	}
}

// RegisterReaderFunc resolves quantity register values starting at address,
// for ReadHoldingRegisters/ReadInputRegisters.
type RegisterReaderFunc func(address, quantity uint16) ([]uint16, error)

// NewReadRegistersHandler wraps read into a Handler for fc (FuncReadHoldingRegisters
// or FuncReadInputRegisters).
func NewReadRegistersHandler(fc uint8, read RegisterReaderFunc) Handler {
	return func(data []byte) ([]byte, error) {
		req, err := modbus.ParseReadRegistersRequest(fc, data)
		if err != nil {
			return nil, err
		}
		registers, err := read(req.StartAddress, req.Quantity)
		if err != nil {
			return nil, err
		}
		return modbus.NewReadRegistersResponse(fc, registers).Data(), nil
	}
}

// CoilWriterFunc applies a single coil write.
type CoilWriterFunc func(address uint16, value bool) error

// NewWriteSingleCoilHandler wraps write into a Handler for FuncWriteSingleCoil,
// echoing the request as the response per spec §3.
func NewWriteSingleCoilHandler(write CoilWriterFunc) Handler {
	return func(data []byte) ([]byte, error) {
		req, err := modbus.ParseWriteSingleCoilRequest(data)
		if err != nil {
			return nil, err
		}
		if err := write(req.Address, req.Value); err != nil {
			return nil, err
		}
		return req.Data(), nil
	}
}

// RegisterWriterFunc applies a single register write.
type RegisterWriterFunc func(address, value uint16) error

// NewWriteSingleRegisterHandler wraps write into a Handler for FuncWriteSingleRegister.
func NewWriteSingleRegisterHandler(write RegisterWriterFunc) Handler {
	return func(data []byte) ([]byte, error) {
		req, err := modbus.ParseWriteSingleRegisterRequest(data)
		if err != nil {
			return nil, err
		}
		if err := write(req.Address, req.Value); err != nil {
			return nil, err
		}
		return req.Data(), nil
	}
}

// BitsWriterFunc applies a run of coil writes starting at address.
type BitsWriterFunc func(address uint16, values []bool) error

// NewWriteMultipleCoilsHandler wraps write into a Handler for FuncWriteMultipleCoils.
func NewWriteMultipleCoilsHandler(write BitsWriterFunc) Handler {
	return func(data []byte) ([]byte, error) {
		req, err := modbus.ParseWriteMultipleCoilsRequest(data)
		if err != nil {
			return nil, err
		}
		values := make([]bool, req.Quantity)
		for i := range values {
			values[i] = req.Values[i/8]&(1<<uint(i%8)) != 0
		}
		if err := write(req.StartAddress, values); err != nil {
			return nil, err
		}
		return (&modbus.WriteMultipleCoilsResponse{StartAddress: req.StartAddress, Quantity: req.Quantity}).Data(), nil
	}
}

// RegistersWriterFunc applies a run of register writes starting at address.
type RegistersWriterFunc func(address uint16, values []uint16) error

// NewWriteMultipleRegistersHandler wraps write into a Handler for FuncWriteMultipleRegisters.
func NewWriteMultipleRegistersHandler(write RegistersWriterFunc) Handler {
	return func(data []byte) ([]byte, error) {
		req, err := modbus.ParseWriteMultipleRegistersRequest(data)
		if err != nil {
			return nil, err
		}
		if err := write(req.StartAddress, req.Registers); err != nil {
			return nil, err
		}
		quantity := uint16(len(req.Registers))
		return (&modbus.WriteMultipleRegistersResponse{StartAddress: req.StartAddress, Quantity: quantity}).Data(), nil
	}
}

// NewReadWriteMultipleRegistersHandler wraps write then read into a Handler
// for FuncReadWriteMultipleRegisters: the write is applied before the read,
// per the Modbus spec's defined evaluation order.
func NewReadWriteMultipleRegistersHandler(write RegistersWriterFunc, read RegisterReaderFunc) Handler {
	return func(data []byte) ([]byte, error) {
		req, err := modbus.ParseReadWriteMultipleRegistersRequest(data)
		if err != nil {
			return nil, err
		}
		if err := write(req.WriteStartAddress, req.WriteRegisters); err != nil {
			return nil, err
		}
		registers, err := read(req.ReadStartAddress, req.ReadQuantity)
		if err != nil {
			return nil, err
		}
		return modbus.NewReadWriteMultipleRegistersResponse(registers).Data(), nil
	}
}
