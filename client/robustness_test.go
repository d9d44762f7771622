package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/kallax/modbus"
	"github.com/kallax/modbus/modbustest"
	"github.com/kallax/modbus/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClientReassemblesFrameSplitAcrossWrites drives a Client against a
// hand-scripted fake device (modbustest.Server) that writes its response in
// two separate TCP writes, exercising the TCP transport's io.ReadFull-based
// reassembly of a frame that doesn't arrive in one read.
func TestClientReassemblesFrameSplitAcrossWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrChan := make(chan string, 1)
	srv := &modbustest.Server{OnServeAddrChan: addrChan}

	resp := modbus.NewReadRegistersResponse(modbus.FuncReadHoldingRegisters, []uint16{0xCAFE})
	var frame []byte
	sentFirstHalf := false

	go func() {
		_ = srv.ListenAndServe(ctx, ":0", func(received []byte, n int) ([]byte, bool) {
			if n > 0 && frame == nil {
				txnID := modbus.Uint16(received, 0)
				buf := make([]byte, 64)
				mbapLen := 2 + len(resp.Data())
				modbus.PutUint16(buf, 0, txnID)
				modbus.PutUint16(buf, 2, 0)
				modbus.PutUint16(buf, 4, uint16(mbapLen))
				buf[6] = 0x01
				buf[7] = modbus.FuncReadHoldingRegisters
				copy(buf[8:], resp.Data())
				frame = buf[:8+len(resp.Data())]
			}
			if frame == nil {
				return nil, false
			}
			if !sentFirstHalf {
				sentFirstHalf = true
				return frame[:4], false
			}
			return frame[4:], true
		})
	}()

	var addr string
	select {
	case addr = <-addrChan:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for fake device to start")
	}

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	c := New(transport.NewTCP(conn))
	registers, err := c.ReadHoldingRegisters(0x01, 0x0000, 1, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0xCAFE}, registers)
}
