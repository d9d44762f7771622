package client

import (
	"time"

	"github.com/kallax/modbus"
	"github.com/kallax/modbus/transport"
)

// ReadCoils reads quantity coils starting at address from addr (spec §4.5).
func (c *Client) ReadCoils(addr uint8, address, quantity uint16, timeout time.Duration) ([]bool, error) {
	req, err := modbus.NewReadCoilsRequest(address, quantity)
	if err != nil {
		return nil, err
	}
	data, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), 1+int(req.ByteCount()), timeout)
	if err != nil {
		return nil, err
	}
	resp, err := modbus.ParseReadBitsResponse(modbus.FuncReadCoils, data)
	if err != nil {
		return nil, err
	}
	return bitsOf(resp, int(quantity)), nil
}

// ReadDiscreteInputs reads quantity discrete inputs starting at address from addr.
func (c *Client) ReadDiscreteInputs(addr uint8, address, quantity uint16, timeout time.Duration) ([]bool, error) {
	req, err := modbus.NewReadDiscreteInputsRequest(address, quantity)
	if err != nil {
		return nil, err
	}
	data, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), 1+int(req.ByteCount()), timeout)
	if err != nil {
		return nil, err
	}
	resp, err := modbus.ParseReadBitsResponse(modbus.FuncReadDiscreteInputs, data)
	if err != nil {
		return nil, err
	}
	return bitsOf(resp, int(quantity)), nil
}

func bitsOf(resp *modbus.ReadBitsResponse, quantity int) []bool {
	out := make([]bool, quantity)
	for i := range out {
		out[i] = resp.Bit(i)
	}
	return out
}

// ReadHoldingRegisters reads quantity holding registers starting at address from addr.
func (c *Client) ReadHoldingRegisters(addr uint8, address, quantity uint16, timeout time.Duration) ([]uint16, error) {
	req, err := modbus.NewReadHoldingRegistersRequest(address, quantity)
	if err != nil {
		return nil, err
	}
	data, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), 1+int(quantity)*2, timeout)
	if err != nil {
		return nil, err
	}
	resp, err := modbus.ParseReadRegistersResponse(modbus.FuncReadHoldingRegisters, data)
	if err != nil {
		return nil, err
	}
	return resp.Registers, nil
}

// ReadInputRegisters reads quantity input registers starting at address from addr.
func (c *Client) ReadInputRegisters(addr uint8, address, quantity uint16, timeout time.Duration) ([]uint16, error) {
	req, err := modbus.NewReadInputRegistersRequest(address, quantity)
	if err != nil {
		return nil, err
	}
	data, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), 1+int(quantity)*2, timeout)
	if err != nil {
		return nil, err
	}
	resp, err := modbus.ParseReadRegistersResponse(modbus.FuncReadInputRegisters, data)
	if err != nil {
		return nil, err
	}
	return resp.Registers, nil
}

// WriteSingleCoil writes value to the coil at address on addr.
func (c *Client) WriteSingleCoil(addr uint8, address uint16, value bool, timeout time.Duration) error {
	req := modbus.NewWriteSingleCoilRequest(address, value)
	_, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), 4, timeout)
	return err
}

// WriteSingleRegister writes value to the register at address on addr.
func (c *Client) WriteSingleRegister(addr uint8, address, value uint16, timeout time.Duration) error {
	req := modbus.NewWriteSingleRegisterRequest(address, value)
	_, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), 4, timeout)
	return err
}

// WriteMultipleCoils writes packedValues (LSB-first, quantity bits) starting at address on addr.
func (c *Client) WriteMultipleCoils(addr uint8, address, quantity uint16, packedValues []byte, timeout time.Duration) error {
	req, err := modbus.NewWriteMultipleCoilsRequest(address, quantity, packedValues)
	if err != nil {
		return err
	}
	_, err = c.SendReceive(addr, req.FunctionCode(), req.Data(), 4, timeout)
	return err
}

// WriteMultipleRegisters writes registers starting at address on addr.
func (c *Client) WriteMultipleRegisters(addr uint8, address uint16, registers []uint16, timeout time.Duration) error {
	req, err := modbus.NewWriteMultipleRegistersRequest(address, registers)
	if err != nil {
		return err
	}
	_, err = c.SendReceive(addr, req.FunctionCode(), req.Data(), 4, timeout)
	return err
}

// ReadWriteMultipleRegisters writes writeRegisters starting at writeStart, then
// reads readQuantity registers starting at readStart, all on addr, in one round trip.
func (c *Client) ReadWriteMultipleRegisters(addr uint8, readStart, readQuantity, writeStart uint16, writeRegisters []uint16, timeout time.Duration) ([]uint16, error) {
	req, err := modbus.NewReadWriteMultipleRegistersRequest(readStart, readQuantity, writeStart, writeRegisters)
	if err != nil {
		return nil, err
	}
	data, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), 1+int(readQuantity)*2, timeout)
	if err != nil {
		return nil, err
	}
	resp, err := modbus.ParseReadWriteMultipleRegistersResponse(data)
	if err != nil {
		return nil, err
	}
	return resp.ReadRegisters, nil
}

// ReadExceptionStatus reads the device-specific exception status byte from addr (master only, spec §6).
func (c *Client) ReadExceptionStatus(addr uint8, timeout time.Duration) (uint8, error) {
	req := &modbus.ReadExceptionStatusRequest{}
	data, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), 1, timeout)
	if err != nil {
		return 0, err
	}
	resp, err := modbus.ParseReadExceptionStatusResponse(data)
	if err != nil {
		return 0, err
	}
	return resp.Status, nil
}

// DiagnosticsReturnQueryData sends the "Return Query Data" diagnostics
// sub-function and expects echoData back verbatim (master only, spec §6).
func (c *Client) DiagnosticsReturnQueryData(addr uint8, echoData uint16, timeout time.Duration) (uint16, error) {
	req := modbus.NewDiagnosticsReturnQueryDataRequest(echoData)
	data, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), 4, timeout)
	if err != nil {
		return 0, err
	}
	resp, err := modbus.ParseDiagnosticsResponse(data)
	if err != nil {
		return 0, err
	}
	return resp.Data16, nil
}

// GetCommEventCounter reads the communication event counter from addr (master only, spec §6).
func (c *Client) GetCommEventCounter(addr uint8, timeout time.Duration) (*modbus.GetCommEventCounterResponse, error) {
	req := &modbus.GetCommEventCounterRequest{}
	data, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), 4, timeout)
	if err != nil {
		return nil, err
	}
	return modbus.ParseGetCommEventCounterResponse(data)
}

// GetCommEventLog reads the communication event log from addr (master only, spec §6).
func (c *Client) GetCommEventLog(addr uint8, timeout time.Duration) (*modbus.GetCommEventLogResponse, error) {
	req := &modbus.GetCommEventLogRequest{}
	data, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), transport.NoDesiredLength, timeout)
	if err != nil {
		return nil, err
	}
	return modbus.ParseGetCommEventLogResponse(data)
}

// ReadDeviceIdentification reads the device identification objects visible
// under readCode from addr, starting at objectID (0 for a first request,
// or a prior response's NextObjectID to continue paging). Use
// DeviceIdentificationTimeout as the per-request timeout (spec §6).
func (c *Client) ReadDeviceIdentification(addr uint8, readCode, objectID uint8, timeout time.Duration) (*modbus.ReadDeviceIdentificationResponse, error) {
	req, err := modbus.NewReadDeviceIdentificationRequest(readCode, objectID)
	if err != nil {
		return nil, err
	}
	data, err := c.SendReceive(addr, req.FunctionCode(), req.Data(), transport.NoDesiredLength, timeout)
	if err != nil {
		return nil, err
	}
	return modbus.ParseReadDeviceIdentificationResponse(data)
}

// ReadAllDeviceIdentification pages through ReadDeviceIdentification until
// MoreFollows is false, concatenating every object encountered.
func (c *Client) ReadAllDeviceIdentification(addr uint8, readCode uint8, timeout time.Duration) ([]modbus.DeviceIDObject, error) {
	var all []modbus.DeviceIDObject
	var objectID uint8
	for {
		resp, err := c.ReadDeviceIdentification(addr, readCode, objectID, timeout)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Objects...)
		if !resp.MoreFollows {
			return all, nil
		}
		objectID = resp.NextObjectID
	}
}
