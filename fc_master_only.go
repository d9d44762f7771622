package modbus

// The following function codes are master-only (spec §6): the server dispatch
// table has no handler slot for them, but a master still needs to build the
// request and decode the response.

// ReadExceptionStatusRequest is the request for ReadExceptionStatus (FC=07). No request data.
type ReadExceptionStatusRequest struct{}

// FunctionCode returns the request's function code.
func (r *ReadExceptionStatusRequest) FunctionCode() uint8 { return FuncReadExceptionStatus }

// Data returns the (empty) PDU payload.
func (r *ReadExceptionStatusRequest) Data() []byte { return nil }

// ReadExceptionStatusResponse carries the device-specific bit-mapped status byte.
type ReadExceptionStatusResponse struct {
	Status uint8
}

// FunctionCode returns the response's function code.
func (r *ReadExceptionStatusResponse) FunctionCode() uint8 { return FuncReadExceptionStatus }

// Data returns the PDU payload (without the function code byte).
func (r *ReadExceptionStatusResponse) Data() []byte { return []byte{r.Status} }

// ParseReadExceptionStatusResponse decodes a ReadExceptionStatus response payload.
func ParseReadExceptionStatusResponse(data []byte) (*ReadExceptionStatusResponse, error) {
	if len(data) < 1 {
		return nil, &ModbusException{FunctionCode: FuncReadExceptionStatus, Code: ExResponseTooShort}
	}
	return &ReadExceptionStatusResponse{Status: data[0]}, nil
}

// DiagnosticsReturnQueryData is the only Diagnostics (FC=08) sub-function implemented;
// the full sub-function table is out of scope (see SPEC_FULL.md).
const DiagnosticsReturnQueryData = uint16(0x0000)

// DiagnosticsRequest is the request for Diagnostics (FC=08): sub_function:u16, data:u16.
type DiagnosticsRequest struct {
	SubFunction uint16
	Data16      uint16
}

// NewDiagnosticsReturnQueryDataRequest builds a "Return Query Data" diagnostics request that
// should be echoed verbatim by a conformant server.
func NewDiagnosticsReturnQueryDataRequest(data uint16) *DiagnosticsRequest {
	return &DiagnosticsRequest{SubFunction: DiagnosticsReturnQueryData, Data16: data}
}

// FunctionCode returns the request's function code.
func (r *DiagnosticsRequest) FunctionCode() uint8 { return FuncDiagnostics }

// Data returns the PDU payload (without the function code byte).
func (r *DiagnosticsRequest) Data() []byte {
	data := make([]byte, 4)
	PutUint16(data, 0, r.SubFunction)
	PutUint16(data, 2, r.Data16)
	return data
}

// DiagnosticsResponse echoes the request's sub-function and data.
type DiagnosticsResponse = DiagnosticsRequest

// ParseDiagnosticsResponse decodes a Diagnostics response payload.
func ParseDiagnosticsResponse(data []byte) (*DiagnosticsResponse, error) {
	if len(data) < 4 {
		return nil, &ModbusException{FunctionCode: FuncDiagnostics, Code: ExResponseTooShort}
	}
	return &DiagnosticsResponse{SubFunction: Uint16(data, 0), Data16: Uint16(data, 2)}, nil
}

// GetCommEventCounterRequest is the request for GetCommEventCounter (FC=0B). No request data.
type GetCommEventCounterRequest struct{}

// FunctionCode returns the request's function code.
func (r *GetCommEventCounterRequest) FunctionCode() uint8 { return FuncGetCommEventCounter }

// Data returns the (empty) PDU payload.
func (r *GetCommEventCounterRequest) Data() []byte { return nil }

// GetCommEventCounterResponse is the response: status:u16, event_count:u16.
type GetCommEventCounterResponse struct {
	Status     uint16
	EventCount uint16
}

// FunctionCode returns the response's function code.
func (r *GetCommEventCounterResponse) FunctionCode() uint8 { return FuncGetCommEventCounter }

// Data returns the PDU payload (without the function code byte).
func (r *GetCommEventCounterResponse) Data() []byte {
	data := make([]byte, 4)
	PutUint16(data, 0, r.Status)
	PutUint16(data, 2, r.EventCount)
	return data
}

// ParseGetCommEventCounterResponse decodes a GetCommEventCounter response payload.
func ParseGetCommEventCounterResponse(data []byte) (*GetCommEventCounterResponse, error) {
	if len(data) < 4 {
		return nil, &ModbusException{FunctionCode: FuncGetCommEventCounter, Code: ExResponseTooShort}
	}
	return &GetCommEventCounterResponse{Status: Uint16(data, 0), EventCount: Uint16(data, 2)}, nil
}

// GetCommEventLogRequest is the request for GetCommEventLog (FC=0C). No request data.
type GetCommEventLogRequest struct{}

// FunctionCode returns the request's function code.
func (r *GetCommEventLogRequest) FunctionCode() uint8 { return FuncGetCommEventLog }

// Data returns the (empty) PDU payload.
func (r *GetCommEventLogRequest) Data() []byte { return nil }

// GetCommEventLogResponse is the response:
// byte_count:u8, status:u16, event_count:u16, message_count:u16, events:u8[...]
type GetCommEventLogResponse struct {
	Status       uint16
	EventCount   uint16
	MessageCount uint16
	Events       []byte
}

// FunctionCode returns the response's function code.
func (r *GetCommEventLogResponse) FunctionCode() uint8 { return FuncGetCommEventLog }

// Data returns the PDU payload (without the function code byte).
func (r *GetCommEventLogResponse) Data() []byte {
	data := make([]byte, 7+len(r.Events))
	data[0] = uint8(6 + len(r.Events))
	PutUint16(data, 1, r.Status)
	PutUint16(data, 3, r.EventCount)
	PutUint16(data, 5, r.MessageCount)
	copy(data[7:], r.Events)
	return data
}

// ParseGetCommEventLogResponse decodes a GetCommEventLog response payload.
func ParseGetCommEventLogResponse(data []byte) (*GetCommEventLogResponse, error) {
	if len(data) < 7 {
		return nil, &ModbusException{FunctionCode: FuncGetCommEventLog, Code: ExResponseTooShort}
	}
	byteCount := int(data[0])
	if len(data) != 1+byteCount {
		return nil, &ModbusException{FunctionCode: FuncGetCommEventLog, Code: ExResponseTooShort}
	}
	events := make([]byte, byteCount-6)
	copy(events, data[7:])
	return &GetCommEventLogResponse{
		Status:       Uint16(data, 1),
		EventCount:   Uint16(data, 3),
		MessageCount: Uint16(data, 5),
		Events:       events,
	}, nil
}
