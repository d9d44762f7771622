package modbus

import "fmt"

// ReadBitsRequest is the request shape shared by ReadCoils (FC=01) and
// ReadDiscreteInputs (FC=02).
//
// Request PDU data: start_address:u16, quantity:u16 (1..=2000)
type ReadBitsRequest struct {
	fc           uint8
	StartAddress uint16
	Quantity     uint16
}

// NewReadCoilsRequest builds a ReadCoils (FC=01) request for quantity coils starting at startAddress.
func NewReadCoilsRequest(startAddress, quantity uint16) (*ReadBitsRequest, error) {
	return newReadBitsRequest(FuncReadCoils, startAddress, quantity)
}

// NewReadDiscreteInputsRequest builds a ReadDiscreteInputs (FC=02) request.
func NewReadDiscreteInputsRequest(startAddress, quantity uint16) (*ReadBitsRequest, error) {
	return newReadBitsRequest(FuncReadDiscreteInputs, startAddress, quantity)
}

func newReadBitsRequest(fc uint8, startAddress, quantity uint16) (*ReadBitsRequest, error) {
	if quantity == 0 || quantity > 2000 {
		return nil, fmt.Errorf("modbus: quantity out of range (1-2000): %v", quantity)
	}
	return &ReadBitsRequest{fc: fc, StartAddress: startAddress, Quantity: quantity}, nil
}

// FunctionCode returns the request's function code.
func (r *ReadBitsRequest) FunctionCode() uint8 { return r.fc }

// Data returns the PDU payload (without the function code byte).
func (r *ReadBitsRequest) Data() []byte {
	data := make([]byte, 4)
	PutUint16(data, 0, r.StartAddress)
	PutUint16(data, 2, r.Quantity)
	return data
}

// ByteCount returns ceil(Quantity/8), the packed response payload length.
func (r *ReadBitsRequest) ByteCount() int {
	return int((r.Quantity + 7) / 8)
}

// ParseReadBitsRequest decodes a ReadCoils/ReadDiscreteInputs request payload.
// minDataLen per spec §4.3 is 4 bytes.
func ParseReadBitsRequest(fc uint8, data []byte) (*ReadBitsRequest, error) {
	if len(data) < 4 {
		return nil, &ModbusException{FunctionCode: fc, Code: ExIllegalDataValue}
	}
	quantity := Uint16(data, 2)
	if quantity == 0 || quantity > 2000 {
		return nil, &ModbusException{FunctionCode: fc, Code: ExIllegalDataValue}
	}
	return &ReadBitsRequest{fc: fc, StartAddress: Uint16(data, 0), Quantity: quantity}, nil
}

// ReadBitsResponse is the response shape for ReadCoils/ReadDiscreteInputs:
// byte_count:u8, packed_bits, LSB-first within each byte, unused high bits
// of the final byte zeroed.
type ReadBitsResponse struct {
	fc   uint8
	Bits []byte
}

// NewReadBitsResponse packs bit values (one bool per coil/input, index 0 first) into the wire format.
func NewReadBitsResponse(fc uint8, values []bool) *ReadBitsResponse {
	packed := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			packed[i/8] |= 1 << uint(i%8)
		}
	}
	return &ReadBitsResponse{fc: fc, Bits: packed}
}

// FunctionCode returns the response's function code.
func (r *ReadBitsResponse) FunctionCode() uint8 { return r.fc }

// Data returns the PDU payload (without the function code byte).
func (r *ReadBitsResponse) Data() []byte {
	data := make([]byte, 1+len(r.Bits))
	data[0] = uint8(len(r.Bits))
	copy(data[1:], r.Bits)
	return data
}

// Bit reports the value of the k-th bit (0-indexed, LSB-first within each byte).
func (r *ReadBitsResponse) Bit(k int) bool {
	return r.Bits[k/8]&(1<<uint(k%8)) != 0
}

// ParseReadBitsResponse decodes a ReadCoils/ReadDiscreteInputs response payload.
func ParseReadBitsResponse(fc uint8, data []byte) (*ReadBitsResponse, error) {
	if len(data) < 1 {
		return nil, &ModbusException{FunctionCode: fc, Code: ExResponseTooShort}
	}
	byteCount := int(data[0])
	if len(data) != 1+byteCount {
		return nil, &ModbusException{FunctionCode: fc, Code: ExResponseTooShort}
	}
	bits := make([]byte, byteCount)
	copy(bits, data[1:])
	return &ReadBitsResponse{fc: fc, Bits: bits}, nil
}
