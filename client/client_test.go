package client

import (
	"net"
	"testing"
	"time"

	"github.com/kallax/modbus"
	"github.com/kallax/modbus/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer replies to every request that arrives on conn with reply,
// standing in for a device under test.
func fakeServer(t *testing.T, conn net.Conn, reply func(addr, fc uint8, data []byte) (respAddr, respFC uint8, respData []byte)) {
	t.Helper()
	go func() {
		tr := transport.NewTCP(conn)
		buf := make([]byte, tr.MaxADULen())
		n, err := tr.Receive(buf, transport.NoDesiredLength, 2*time.Second)
		if err != nil {
			return
		}
		txnID := modbus.Uint16(buf, 0)
		addr, fc, dataPos, dataLen, err := tr.Parse(buf, n, false, nil)
		if err != nil {
			return
		}
		respAddr, respFC, respData := reply(addr, fc, buf[dataPos:dataPos+dataLen])

		out := make([]byte, tr.MaxADULen())
		frameLen, outPos, err := tr.Build(respAddr, respFC, len(respData), out, true, &transport.Context{
			TCP: transport.TCPContext{TransactionID: txnID},
		})
		if err != nil {
			return
		}
		copy(out[outPos:], respData)
		_ = tr.Send(out, frameLen)
	}()
}

func TestClientReadHoldingRegisters(t *testing.T) {
	clientConn, srvConn := net.Pipe()
	defer clientConn.Close()
	defer srvConn.Close()

	fakeServer(t, srvConn, func(addr, fc uint8, data []byte) (uint8, uint8, []byte) {
		resp := modbus.NewReadRegistersResponse(fc, []uint16{0x0102, 0x0304})
		return addr, fc, resp.Data()
	})

	c := New(transport.NewTCP(clientConn))
	registers, err := c.ReadHoldingRegisters(0x01, 0x0000, 2, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x0102, 0x0304}, registers)
}

func TestClientSurfacesException(t *testing.T) {
	clientConn, srvConn := net.Pipe()
	defer clientConn.Close()
	defer srvConn.Close()

	fakeServer(t, srvConn, func(addr, fc uint8, data []byte) (uint8, uint8, []byte) {
		return addr, fc | 0x80, []byte{uint8(modbus.ExIllegalDataAddress)}
	})

	c := New(transport.NewTCP(clientConn))
	_, err := c.ReadHoldingRegisters(0x01, 0x0000, 2, time.Second)
	require.Error(t, err)
	me, ok := modbus.AsException(err)
	require.True(t, ok)
	assert.Equal(t, modbus.ExIllegalDataAddress, me.Code)
}

func TestClientIgnoresStrayFrameBeforeMatch(t *testing.T) {
	clientConn, srvConn := net.Pipe()
	defer clientConn.Close()
	defer srvConn.Close()

	go func() {
		tr := transport.NewTCP(srvConn)
		buf := make([]byte, tr.MaxADULen())
		_, err := tr.Receive(buf, transport.NoDesiredLength, 2*time.Second)
		if err != nil {
			return
		}
		txnID := modbus.Uint16(buf, 0)

		// stray frame from a different unit id first, same transaction id
		stray := make([]byte, tr.MaxADULen())
		strayLen, strayPos, _ := tr.Build(0x09, modbus.FuncReadHoldingRegisters, 3, stray, true,
			&transport.Context{TCP: transport.TCPContext{TransactionID: txnID}})
		copy(stray[strayPos:], []byte{0x02, 0xAA, 0xBB})
		_ = tr.Send(stray, strayLen)

		// then the real matching response
		resp := modbus.NewReadRegistersResponse(modbus.FuncReadHoldingRegisters, []uint16{0x00FF})
		real := make([]byte, tr.MaxADULen())
		realLen, realPos, _ := tr.Build(0x01, modbus.FuncReadHoldingRegisters, len(resp.Data()), real, true,
			&transport.Context{TCP: transport.TCPContext{TransactionID: txnID}})
		copy(real[realPos:], resp.Data())
		_ = tr.Send(real, realLen)
	}()

	c := New(transport.NewTCP(clientConn))
	registers, err := c.ReadHoldingRegisters(0x01, 0x0000, 1, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x00FF}, registers)
}

func TestClientBroadcastReturnsImmediately(t *testing.T) {
	clientConn, srvConn := net.Pipe()
	defer clientConn.Close()
	defer srvConn.Close()

	received := make(chan struct{})
	go func() {
		tr := transport.NewTCP(srvConn)
		buf := make([]byte, tr.MaxADULen())
		_, _ = tr.Receive(buf, transport.NoDesiredLength, time.Second)
		close(received)
	}()

	c := New(transport.NewTCP(clientConn))
	req := modbus.NewWriteSingleCoilRequest(0x0001, true)
	data, err := c.SendReceive(modbus.Broadcast, req.FunctionCode(), req.Data(), 4, time.Second)
	require.NoError(t, err)
	assert.Nil(t, data)
	<-received
}
