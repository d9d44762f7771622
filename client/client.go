// Package client implements the master side of the Modbus Application
// Protocol: a synchronous request/response correlator serialised over a
// single Transport, tolerant of stray frames from other bus traffic.
package client

import (
	"sync"
	"time"

	"github.com/kallax/modbus"
	"github.com/kallax/modbus/transport"
)

// DefaultTimeout is the master's default per-request deadline (spec §6).
const DefaultTimeout = 2 * time.Second

// DeviceIdentificationTimeout is the default deadline for device
// identification reads, which may page across several requests (spec §6).
const DeviceIdentificationTimeout = 4 * time.Second

// Client is the master correlator (spec component G): one in-flight
// request at a time over t, serialised by mu.
type Client struct {
	t transport.Transport

	mu        sync.Mutex
	nextTxnID uint16
}

// New builds a Client driving requests over t.
func New(t transport.Transport) *Client {
	return &Client{t: t}
}

// SendReceive runs the send/receive/match algorithm of spec §4.5: it writes
// a request frame of fc+reqData addressed to addr, then waits up to timeout
// for a matching response, tolerating stray frames that don't match addr/fc.
// desiredRespDataLen is transport.NoDesiredLength when the response length
// can't be predicted up front. Returns the response PDU data (without the
// function code byte); for a broadcast address it returns (nil, nil)
// immediately since no server replies to a broadcast.
func (c *Client) SendReceive(addr, fc uint8, reqData []byte, desiredRespDataLen int, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := c.newContext()

	buf := make([]byte, c.t.MaxADULen())
	frameLen, dataPos, err := c.t.Build(addr, fc, len(reqData), buf, false, ctx)
	if err != nil {
		return nil, err
	}
	copy(buf[dataPos:], reqData)

	c.t.PrepareWrite()
	if err := c.t.Send(buf, frameLen); err != nil {
		return nil, err
	}
	c.t.PrepareRead()

	if addr == modbus.Broadcast {
		return nil, nil
	}

	remaining := timeout
	recvBuf := make([]byte, c.t.MaxADULen())
	for remaining > 0 {
		start := time.Now()
		n, err := c.t.Receive(recvBuf, desiredRespDataLen, remaining)
		elapsed := time.Since(start)
		if err != nil {
			remaining -= elapsed
			if remaining <= 0 {
				return nil, &modbus.ModbusException{FunctionCode: fc, Code: modbus.ExTimeout}
			}
			continue
		}

		respAddr, respFC, dataStart, dataLen, perr := c.t.Parse(recvBuf, n, true, ctx)
		if perr != nil {
			c.t.ClearInput()
			remaining -= elapsed
			continue
		}

		if respAddr != addr || respFC&^0x80 != fc {
			// stray frame: another device's response or crosstalk. Keep waiting.
			remaining -= elapsed
			continue
		}

		data := recvBuf[dataStart : dataStart+dataLen]
		if respFC&0x80 != 0 {
			if len(data) < 1 {
				return nil, &modbus.ModbusException{FunctionCode: fc, Code: modbus.ExResponseTooShort}
			}
			return nil, &modbus.ModbusException{FunctionCode: fc, Code: modbus.ExceptionCode(data[0])}
		}
		return append([]byte(nil), data...), nil
	}
	return nil, &modbus.ModbusException{FunctionCode: fc, Code: modbus.ExTimeout}
}

// newContext allocates a fresh TCP transaction id; RTU/ASCII transports
// ignore it (spec §9).
func (c *Client) newContext() *transport.Context {
	c.nextTxnID++
	return &transport.Context{TCP: transport.TCPContext{TransactionID: c.nextTxnID}}
}

// Close releases the underlying transport, if it supports closing.
func (c *Client) Close() error {
	type closer interface{ Close() error }
	if cl, ok := c.t.(closer); ok {
		return cl.Close()
	}
	return nil
}
