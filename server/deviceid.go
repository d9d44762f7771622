package server

import "github.com/kallax/modbus"

// deviceIDMetadataLen is the 6 bytes of response header (mei, read_code,
// conformity_level, more_follows, next_object_id, number_of_objects) that
// must be reserved out of the ADU budget before any object triples fit (spec §4.4).
const deviceIDMetadataLen = 6

// DeviceIDObjectFunc returns the value for a standard device identification
// object id, or false if this device does not define that id.
type DeviceIDObjectFunc func(id uint8) ([]byte, bool)

// NewReadDeviceIdentificationHandler builds a Handler for FuncEncapsulatedInterface
// (MEI 0x0E) that pages objects across multiple responses when they don't
// fit in one ADU, per spec §4.4. maxADULen should be the transport's
// MaxADULen(); objectValue is consulted for ids from the request's object_id
// up to the highest id implied by the request's read code.
func NewReadDeviceIdentificationHandler(conformityLevel uint8, maxADULen int, objectValue DeviceIDObjectFunc) Handler {
	return func(data []byte) ([]byte, error) {
		req, err := modbus.ParseReadDeviceIdentificationRequest(data)
		if err != nil {
			return nil, err
		}

		highestID, err := highestObjectID(req.ReadCode, req.ObjectID)
		if err != nil {
			return nil, err
		}

		budget := maxADULen - deviceIDMetadataLen
		resp := &modbus.ReadDeviceIdentificationResponse{
			ReadCode:        req.ReadCode,
			ConformityLevel: conformityLevel,
		}
		used := 0
		nextID := req.ObjectID
		for id := int(req.ObjectID); id <= int(highestID); id++ {
			value, ok := objectValue(uint8(id))
			if !ok {
				continue
			}
			objLen := 2 + len(value)
			if used+objLen > budget {
				resp.MoreFollows = true
				resp.NextObjectID = uint8(id)
				return resp.Data(), nil
			}
			resp.Objects = append(resp.Objects, modbus.DeviceIDObject{ID: uint8(id), Value: value})
			used += objLen
			nextID = uint8(id)
		}
		resp.NextObjectID = nextID
		return resp.Data(), nil
	}
}

func highestObjectID(readCode, requestedObjectID uint8) (uint8, error) {
	switch readCode {
	case modbus.DeviceIDBasic:
		return modbus.DeviceIDObjectMajorMinorRevision, nil
	case modbus.DeviceIDRegular:
		return 0x7F, nil
	case modbus.DeviceIDExtended:
		return 0xFF, nil
	case modbus.DeviceIDSpecific:
		return requestedObjectID, nil
	default:
		return 0, &modbus.ModbusException{FunctionCode: modbus.FuncEncapsulatedInterface, Code: modbus.ExIllegalDataValue}
	}
}
