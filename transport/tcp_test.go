package transport

import (
	"net"
	"testing"
	"time"

	"github.com/kallax/modbus"
	"github.com/stretchr/testify/assert"
)

func TestTCPBuildSendReceiveParseRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := NewTCP(clientConn)
	server := NewTCP(serverConn)

	ctx := &Context{TCP: TCPContext{TransactionID: 0x2A2A}}

	buf := make([]byte, client.MaxADULen())
	frameLen, dataPos, err := client.Build(0x01, modbus.FuncReadHoldingRegisters, 4, buf, false, ctx)
	assert.NoError(t, err)
	copy(buf[dataPos:], []byte{0x00, 0x6B, 0x00, 0x03})

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, client.Send(buf, frameLen))
	}()

	received := make([]byte, server.MaxADULen())
	n, err := server.Receive(received, NoDesiredLength, time.Second)
	assert.NoError(t, err)
	<-done

	unitID, fc, dataPosParsed, dataLen, err := server.Parse(received, n, false, nil)
	assert.NoError(t, err)
	assert.Equal(t, uint8(0x01), unitID)
	assert.Equal(t, modbus.FuncReadHoldingRegisters, fc)
	assert.Equal(t, []byte{0x00, 0x6B, 0x00, 0x03}, received[dataPosParsed:dataPosParsed+dataLen])
}

func TestTCPParseRejectsTransactionMismatch(t *testing.T) {
	tcp := NewTCP(nil)
	buf := make([]byte, mbapHeaderLen+2)
	modbus.PutUint16(buf, 0, 0x0001)
	modbus.PutUint16(buf, 2, mbapProtocolID)
	modbus.PutUint16(buf, 4, 3)
	buf[6] = 0x01
	buf[7] = modbus.FuncReadHoldingRegisters
	buf[8] = 0x00

	ctx := &Context{TCP: TCPContext{TransactionID: 0x0002}}
	_, _, _, _, err := tcp.Parse(buf, len(buf), true, ctx)
	assert.ErrorIs(t, err, ErrTransactionMismatch)
}

func TestTCPParseRejectsBadProtocolID(t *testing.T) {
	tcp := NewTCP(nil)
	buf := make([]byte, mbapHeaderLen+2)
	modbus.PutUint16(buf, 0, 1)
	modbus.PutUint16(buf, 2, 0xFFFF)
	modbus.PutUint16(buf, 4, 3)
	_, _, _, _, err := tcp.Parse(buf, len(buf), false, nil)
	assert.ErrorIs(t, err, ErrMalformedFrame)
}
