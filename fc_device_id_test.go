package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadDeviceIdentificationRequestRoundTrip(t *testing.T) {
	req, err := NewReadDeviceIdentificationRequest(DeviceIDBasic, DeviceIDObjectVendorName)
	assert.NoError(t, err)

	parsed, err := ParseReadDeviceIdentificationRequest(req.Data())
	assert.NoError(t, err)
	assert.Equal(t, req.ReadCode, parsed.ReadCode)
	assert.Equal(t, req.ObjectID, parsed.ObjectID)
}

func TestNewReadDeviceIdentificationRequestRejectsBadCode(t *testing.T) {
	_, err := NewReadDeviceIdentificationRequest(0x05, 0)
	assert.Error(t, err)
}

func TestReadDeviceIdentificationResponseRoundTrip(t *testing.T) {
	resp := &ReadDeviceIdentificationResponse{
		ReadCode:        DeviceIDBasic,
		ConformityLevel: 0x81,
		MoreFollows:     true,
		NextObjectID:    0x03,
		Objects: []DeviceIDObject{
			{ID: DeviceIDObjectVendorName, Value: []byte("Kallax")},
			{ID: DeviceIDObjectProductCode, Value: []byte("MB-1")},
		},
	}

	parsed, err := ParseReadDeviceIdentificationResponse(resp.Data())
	assert.NoError(t, err)
	assert.Equal(t, resp.ReadCode, parsed.ReadCode)
	assert.Equal(t, resp.ConformityLevel, parsed.ConformityLevel)
	assert.Equal(t, resp.MoreFollows, parsed.MoreFollows)
	assert.Equal(t, resp.NextObjectID, parsed.NextObjectID)
	assert.Equal(t, resp.Objects, parsed.Objects)
	assert.True(t, parsed.SupportsStreamAccess())
}

func TestParseReadDeviceIdentificationResponseRejectsTruncatedObject(t *testing.T) {
	data := []byte{MEIReadDeviceIdentification, DeviceIDBasic, 0x01, 0x00, 0x00, 0x01, 0x00, 0x05}
	_, err := ParseReadDeviceIdentificationResponse(data)
	assert.Error(t, err)
}
