package modbus

import "fmt"

// WriteMultipleCoilsRequest is the request for WriteMultipleCoils (FC=0F).
// Request PDU data: start_address:u16, quantity:u16, byte_count:u8, packed_bits
type WriteMultipleCoilsRequest struct {
	StartAddress uint16
	Quantity     uint16
	Values       []byte // packed, LSB-first within each byte
}

// NewWriteMultipleCoilsRequest builds a WriteMultipleCoils (FC=0F) request from packed bit values.
func NewWriteMultipleCoilsRequest(startAddress, quantity uint16, packedValues []byte) (*WriteMultipleCoilsRequest, error) {
	if quantity == 0 || quantity > 1968 {
		return nil, fmt.Errorf("modbus: quantity out of range (1-1968): %v", quantity)
	}
	expected := int((quantity + 7) / 8)
	if len(packedValues) != expected {
		return nil, fmt.Errorf("modbus: packed values length %v does not match quantity %v (want %v bytes)", len(packedValues), quantity, expected)
	}
	return &WriteMultipleCoilsRequest{StartAddress: startAddress, Quantity: quantity, Values: packedValues}, nil
}

// FunctionCode returns the request's function code.
func (r *WriteMultipleCoilsRequest) FunctionCode() uint8 { return FuncWriteMultipleCoils }

// Data returns the PDU payload (without the function code byte).
func (r *WriteMultipleCoilsRequest) Data() []byte {
	data := make([]byte, 5+len(r.Values))
	PutUint16(data, 0, r.StartAddress)
	PutUint16(data, 2, r.Quantity)
	data[4] = uint8(len(r.Values))
	copy(data[5:], r.Values)
	return data
}

// ParseWriteMultipleCoilsRequest decodes a WriteMultipleCoils request payload.
// minDataLen per spec §4.3 is 5 bytes.
func ParseWriteMultipleCoilsRequest(data []byte) (*WriteMultipleCoilsRequest, error) {
	if len(data) < 5 {
		return nil, &ModbusException{FunctionCode: FuncWriteMultipleCoils, Code: ExIllegalDataValue}
	}
	quantity := Uint16(data, 2)
	byteCount := int(data[4])
	if quantity == 0 || quantity > 1968 || byteCount != int((quantity+7)/8) || len(data) != 5+byteCount {
		return nil, &ModbusException{FunctionCode: FuncWriteMultipleCoils, Code: ExIllegalDataValue}
	}
	values := make([]byte, byteCount)
	copy(values, data[5:])
	return &WriteMultipleCoilsRequest{StartAddress: Uint16(data, 0), Quantity: quantity, Values: values}, nil
}

// WriteMultipleCoilsResponse is the response for WriteMultipleCoils: start_address:u16, quantity:u16.
type WriteMultipleCoilsResponse struct {
	StartAddress uint16
	Quantity     uint16
}

// FunctionCode returns the response's function code.
func (r *WriteMultipleCoilsResponse) FunctionCode() uint8 { return FuncWriteMultipleCoils }

// Data returns the PDU payload (without the function code byte).
func (r *WriteMultipleCoilsResponse) Data() []byte {
	data := make([]byte, 4)
	PutUint16(data, 0, r.StartAddress)
	PutUint16(data, 2, r.Quantity)
	return data
}

// ParseWriteMultipleCoilsResponse decodes a WriteMultipleCoils response payload.
func ParseWriteMultipleCoilsResponse(data []byte) (*WriteMultipleCoilsResponse, error) {
	if len(data) < 4 {
		return nil, &ModbusException{FunctionCode: FuncWriteMultipleCoils, Code: ExResponseTooShort}
	}
	return &WriteMultipleCoilsResponse{StartAddress: Uint16(data, 0), Quantity: Uint16(data, 2)}, nil
}

// WriteMultipleRegistersRequest is the request for WriteMultipleRegisters (FC=10).
// Request PDU data: start_address:u16, quantity:u16, byte_count:u8 (=2n), registers:u16[n]
type WriteMultipleRegistersRequest struct {
	StartAddress uint16
	Registers    []uint16
}

// NewWriteMultipleRegistersRequest builds a WriteMultipleRegisters (FC=10) request.
func NewWriteMultipleRegistersRequest(startAddress uint16, registers []uint16) (*WriteMultipleRegistersRequest, error) {
	if len(registers) == 0 || len(registers) > 123 {
		return nil, fmt.Errorf("modbus: register count out of range (1-123): %v", len(registers))
	}
	return &WriteMultipleRegistersRequest{StartAddress: startAddress, Registers: registers}, nil
}

// FunctionCode returns the request's function code.
func (r *WriteMultipleRegistersRequest) FunctionCode() uint8 { return FuncWriteMultipleRegisters }

// Data returns the PDU payload (without the function code byte).
func (r *WriteMultipleRegistersRequest) Data() []byte {
	data := make([]byte, 5+2*len(r.Registers))
	PutUint16(data, 0, r.StartAddress)
	PutUint16(data, 2, uint16(len(r.Registers)))
	data[4] = uint8(2 * len(r.Registers))
	for i, v := range r.Registers {
		PutUint16(data, 5+2*i, v)
	}
	return data
}

// ParseWriteMultipleRegistersRequest decodes a WriteMultipleRegisters request payload.
func ParseWriteMultipleRegistersRequest(data []byte) (*WriteMultipleRegistersRequest, error) {
	if len(data) < 5 {
		return nil, &ModbusException{FunctionCode: FuncWriteMultipleRegisters, Code: ExIllegalDataValue}
	}
	quantity := Uint16(data, 2)
	byteCount := int(data[4])
	if quantity == 0 || quantity > 123 || byteCount != 2*int(quantity) || len(data) != 5+byteCount {
		return nil, &ModbusException{FunctionCode: FuncWriteMultipleRegisters, Code: ExIllegalDataValue}
	}
	registers := make([]uint16, quantity)
	for i := range registers {
		registers[i] = Uint16(data, 5+2*i)
	}
	return &WriteMultipleRegistersRequest{StartAddress: Uint16(data, 0), Registers: registers}, nil
}

// WriteMultipleRegistersResponse is the response for WriteMultipleRegisters: start_address:u16, quantity:u16.
type WriteMultipleRegistersResponse struct {
	StartAddress uint16
	Quantity     uint16
}

// FunctionCode returns the response's function code.
func (r *WriteMultipleRegistersResponse) FunctionCode() uint8 { return FuncWriteMultipleRegisters }

// Data returns the PDU payload (without the function code byte).
func (r *WriteMultipleRegistersResponse) Data() []byte {
	data := make([]byte, 4)
	PutUint16(data, 0, r.StartAddress)
	PutUint16(data, 2, r.Quantity)
	return data
}

// ParseWriteMultipleRegistersResponse decodes a WriteMultipleRegisters response payload.
func ParseWriteMultipleRegistersResponse(data []byte) (*WriteMultipleRegistersResponse, error) {
	if len(data) < 4 {
		return nil, &ModbusException{FunctionCode: FuncWriteMultipleRegisters, Code: ExResponseTooShort}
	}
	return &WriteMultipleRegistersResponse{StartAddress: Uint16(data, 0), Quantity: Uint16(data, 2)}, nil
}
