package server

import (
	"net"
	"testing"
	"time"

	"github.com/kallax/modbus"
	"github.com/kallax/modbus/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTCPPair(t *testing.T) (client, srv net.Conn) {
	t.Helper()
	client, srv = net.Pipe()
	t.Cleanup(func() {
		client.Close()
		srv.Close()
	})
	return client, srv
}

func sendRequest(t *testing.T, conn net.Conn, ctx *transport.Context, addr, fc uint8, data []byte) {
	t.Helper()
	tr := transport.NewTCP(conn)
	buf := make([]byte, tr.MaxADULen())
	frameLen, dataPos, err := tr.Build(addr, fc, len(data), buf, false, ctx)
	require.NoError(t, err)
	copy(buf[dataPos:], data)
	require.NoError(t, tr.Send(buf, frameLen))
}

func readResponse(t *testing.T, conn net.Conn) (addr, fc uint8, data []byte) {
	t.Helper()
	tr := transport.NewTCP(conn)
	buf := make([]byte, tr.MaxADULen())
	n, err := tr.Receive(buf, transport.NoDesiredLength, time.Second)
	require.NoError(t, err)
	addr, fc, dataPos, dataLen, err := tr.Parse(buf, n, true, nil)
	require.NoError(t, err)
	return addr, fc, append([]byte(nil), buf[dataPos:dataPos+dataLen]...)
}

func TestServerDispatchesReadHoldingRegisters(t *testing.T) {
	clientConn, srvConn := newTCPPair(t)

	registers := map[uint16]uint16{0x0000: 0x1111, 0x0001: 0x2222}
	srv := New(0x01)
	srv.Handle(modbus.FuncReadHoldingRegisters, NewReadRegistersHandler(modbus.FuncReadHoldingRegisters,
		func(address, quantity uint16) ([]uint16, error) {
			out := make([]uint16, quantity)
			for i := range out {
				out[i] = registers[address+uint16(i)]
			}
			return out, nil
		}))
	srv.AddTransport(transport.NewTCP(srvConn))

	go srv.Start()
	t.Cleanup(srv.Stop)

	req, err := modbus.NewReadHoldingRegistersRequest(0x0000, 2)
	require.NoError(t, err)
	sendRequest(t, clientConn, nil, 0x01, req.FunctionCode(), req.Data())

	addr, fc, data := readResponse(t, clientConn)
	assert.Equal(t, uint8(0x01), addr)
	assert.Equal(t, modbus.FuncReadHoldingRegisters, fc)

	resp, err := modbus.ParseReadRegistersResponse(modbus.FuncReadHoldingRegisters, data)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x1111, 0x2222}, resp.Registers)
}

func TestServerEmitsIllegalFunctionForUnregisteredCode(t *testing.T) {
	clientConn, srvConn := newTCPPair(t)

	srv := New(0x01)
	srv.AddTransport(transport.NewTCP(srvConn))
	go srv.Start()
	t.Cleanup(srv.Stop)

	sendRequest(t, clientConn, nil, 0x01, modbus.FuncReadHoldingRegisters, []byte{0x00, 0x00, 0x00, 0x01})

	addr, fc, data := readResponse(t, clientConn)
	assert.Equal(t, uint8(0x01), addr)
	assert.Equal(t, modbus.FuncReadHoldingRegisters|0x80, fc)
	require.Len(t, data, 1)
	assert.Equal(t, uint8(modbus.ExIllegalFunction), data[0])
}

func TestServerAnyAddressAcceptsAllUnitIDs(t *testing.T) {
	clientConn, srvConn := newTCPPair(t)

	srv := New(modbus.AnyAddress)
	srv.Handle(modbus.FuncWriteSingleCoil, NewWriteSingleCoilHandler(func(address uint16, value bool) error {
		return nil
	}))
	srv.AddTransport(transport.NewTCP(srvConn))
	go srv.Start()
	t.Cleanup(srv.Stop)

	req := modbus.NewWriteSingleCoilRequest(0x0010, true)
	sendRequest(t, clientConn, nil, 0x2A, req.FunctionCode(), req.Data())

	addr, fc, data := readResponse(t, clientConn)
	assert.Equal(t, uint8(0x2A), addr)
	assert.Equal(t, modbus.FuncWriteSingleCoil, fc)
	assert.Equal(t, req.Data(), data)
}
