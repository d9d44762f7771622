package modbus

import "fmt"

// Read device identification category codes (spec §4.4).
const (
	DeviceIDBasic    = uint8(0x01) // objects 0x00..=0x02
	DeviceIDRegular  = uint8(0x02) // objects 0x00..=0x7F
	DeviceIDExtended = uint8(0x03) // objects 0x00..=0xFF
	DeviceIDSpecific = uint8(0x04) // only the requested object_id
)

// Standard basic device identification object ids.
const (
	DeviceIDObjectVendorName         = uint8(0x00)
	DeviceIDObjectProductCode        = uint8(0x01)
	DeviceIDObjectMajorMinorRevision = uint8(0x02)
)

// conformityStreamBit marks stream-access capability in the conformity level byte.
const conformityStreamBit = uint8(0x80)

// DeviceIDObject is a single (id, value) pair of the device identification object set.
type DeviceIDObject struct {
	ID    uint8
	Value []byte
}

// ReadDeviceIdentificationRequest is the request for function 0x2B / MEI 0x0E.
// Request PDU data: mei(=0x0E), read_device_id_code(1..=4), object_id
type ReadDeviceIdentificationRequest struct {
	ReadCode uint8
	ObjectID uint8
}

// NewReadDeviceIdentificationRequest builds a ReadDeviceIdentification request.
// readCode selects Basic/Regular/Extended/Specific (spec §4.4); objectID is the
// exact id wanted when readCode is DeviceIDSpecific, and otherwise the id to start
// from (0, or the NextObjectID of a prior More Follows response).
func NewReadDeviceIdentificationRequest(readCode, objectID uint8) (*ReadDeviceIdentificationRequest, error) {
	if readCode < DeviceIDBasic || readCode > DeviceIDSpecific {
		return nil, fmt.Errorf("modbus: invalid read device id code: %v", readCode)
	}
	return &ReadDeviceIdentificationRequest{ReadCode: readCode, ObjectID: objectID}, nil
}

// FunctionCode returns the request's function code (0x2B).
func (r *ReadDeviceIdentificationRequest) FunctionCode() uint8 { return FuncEncapsulatedInterface }

// Data returns the PDU payload (without the function code byte).
func (r *ReadDeviceIdentificationRequest) Data() []byte {
	return []byte{MEIReadDeviceIdentification, r.ReadCode, r.ObjectID}
}

// ParseReadDeviceIdentificationRequest decodes a ReadDeviceIdentification request payload.
func ParseReadDeviceIdentificationRequest(data []byte) (*ReadDeviceIdentificationRequest, error) {
	const fc = FuncEncapsulatedInterface
	if len(data) < 3 {
		return nil, &ModbusException{FunctionCode: fc, Code: ExIllegalDataValue}
	}
	if data[0] != MEIReadDeviceIdentification {
		return nil, &ModbusException{FunctionCode: fc, Code: ExIllegalFunction}
	}
	readCode := data[1]
	if readCode < DeviceIDBasic || readCode > DeviceIDSpecific {
		return nil, &ModbusException{FunctionCode: fc, Code: ExIllegalDataValue}
	}
	return &ReadDeviceIdentificationRequest{ReadCode: readCode, ObjectID: data[2]}, nil
}

// ReadDeviceIdentificationResponse is the response for function 0x2B / MEI 0x0E.
//
// Response PDU data: mei | read_id_code | conformity_level | more_follows(0x00/0xFF) |
// next_object_id | number_of_objects | [object_id, length, value]*
type ReadDeviceIdentificationResponse struct {
	ReadCode        uint8
	ConformityLevel uint8
	MoreFollows     bool
	NextObjectID    uint8
	Objects         []DeviceIDObject
}

// SupportsStreamAccess reports whether the stream-access bit of ConformityLevel is set.
func (r *ReadDeviceIdentificationResponse) SupportsStreamAccess() bool {
	return r.ConformityLevel&conformityStreamBit != 0
}

// FunctionCode returns the response's function code (0x2B).
func (r *ReadDeviceIdentificationResponse) FunctionCode() uint8 { return FuncEncapsulatedInterface }

// Data returns the PDU payload (without the function code byte).
func (r *ReadDeviceIdentificationResponse) Data() []byte {
	size := 6
	for _, o := range r.Objects {
		size += 2 + len(o.Value)
	}
	data := make([]byte, size)
	data[0] = MEIReadDeviceIdentification
	data[1] = r.ReadCode
	data[2] = r.ConformityLevel
	if r.MoreFollows {
		data[3] = 0xFF
	}
	data[4] = r.NextObjectID
	data[5] = uint8(len(r.Objects))
	pos := 6
	for _, o := range r.Objects {
		data[pos] = o.ID
		data[pos+1] = uint8(len(o.Value))
		copy(data[pos+2:], o.Value)
		pos += 2 + len(o.Value)
	}
	return data
}

// ParseReadDeviceIdentificationResponse decodes a ReadDeviceIdentification response payload.
func ParseReadDeviceIdentificationResponse(data []byte) (*ReadDeviceIdentificationResponse, error) {
	const fc = FuncEncapsulatedInterface
	if len(data) < 6 {
		return nil, &ModbusException{FunctionCode: fc, Code: ExResponseTooShort}
	}
	if data[0] != MEIReadDeviceIdentification {
		return nil, &ModbusException{FunctionCode: fc, Code: ExUnspecified}
	}
	count := int(data[5])
	objects := make([]DeviceIDObject, 0, count)
	pos := 6
	for i := 0; i < count; i++ {
		if pos+2 > len(data) {
			return nil, &ModbusException{FunctionCode: fc, Code: ExResponseTooShort}
		}
		id := data[pos]
		length := int(data[pos+1])
		if pos+2+length > len(data) {
			return nil, &ModbusException{FunctionCode: fc, Code: ExResponseTooShort}
		}
		value := make([]byte, length)
		copy(value, data[pos+2:pos+2+length])
		objects = append(objects, DeviceIDObject{ID: id, Value: value})
		pos += 2 + length
	}
	return &ReadDeviceIdentificationResponse{
		ReadCode:        data[1],
		ConformityLevel: data[2],
		MoreFollows:     data[3] != 0x00,
		NextObjectID:    data[4],
		Objects:         objects,
	}, nil
}
