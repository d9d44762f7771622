// Package server implements the device side of the Modbus Application
// Protocol: a single-threaded, multi-transport poll loop that dispatches
// incoming requests to per-function-code handlers and writes back responses
// or exception frames.
package server

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kallax/modbus"
	"github.com/kallax/modbus/transport"
)

const (
	receiveTimeout = time.Second
	loopSleep      = 50 * time.Millisecond
)

// ErrAlreadyRunning is returned by Start when the dispatcher is already polling.
var ErrAlreadyRunning = errors.New("modbus: server already running")

// Handler answers one function code's requests. data is the PDU payload
// (without function code byte); the returned bytes become the response
// PDU's payload. Returning a *modbus.ModbusException causes the dispatcher
// to emit an exception response instead (unless the request was broadcast).
type Handler func(data []byte) ([]byte, error)

// OnMessageReceivedFunc is an observability hook invoked after a frame is
// parsed and before it is dispatched; it never alters dispatch behaviour.
type OnMessageReceivedFunc func(t transport.Transport, addr, fc uint8)

// OnCustomTelegramFunc is invoked when no handler is registered for a
// function code. Returning true means the callback fully handled the
// telegram (wrote its own response, if any) and the dispatcher should not
// emit IllegalFunction.
type OnCustomTelegramFunc func(t transport.Transport, addr, fc uint8, data []byte) bool

// Server is the multi-transport poll loop dispatcher (spec component F).
// Exported fields besides the ones documented as constructor options are not
// goroutine safe to mutate after Start.
type Server struct {
	// Address is this device's unit/slave address, compared against an
	// incoming frame's address to decide whether to answer it.
	Address modbus.Address
	// AnyAddress is the address value meaning "answer regardless of unit
	// id", overridable per spec §9 Open questions (defaults to 248, the TCP convention).
	AnyAddress modbus.Address

	// Logger receives structured diagnostics; defaults to slog.Default() when nil.
	Logger *slog.Logger

	OnMessageReceived OnMessageReceivedFunc
	OnCustomTelegram  OnCustomTelegramFunc

	mu         sync.Mutex
	transports []transport.Transport
	handlers   map[uint8]Handler
	buf        []byte
	running    bool
	stop       chan struct{}
	done       chan struct{}
}

// New builds a Server answering to address, with AnyAddress defaulted to 248.
func New(address modbus.Address) *Server {
	return &Server{
		Address:    address,
		AnyAddress: modbus.AnyAddress,
		handlers:   make(map[uint8]Handler),
	}
}

// Handle registers the handler invoked for function code fc. Registering
// again for the same code replaces the previous handler.
func (s *Server) Handle(fc uint8, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[fc] = h
}

// AddTransport registers t for polling. Safe to call while the server is running.
func (s *Server) AddTransport(t transport.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transports = append(s.transports, t)
	if n := t.MaxADULen(); n > len(s.buf) {
		s.buf = make([]byte, n)
	}
}

// RemoveTransport unregisters t, if present. Safe to call while the server is running.
func (s *Server) RemoveTransport(t transport.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(t)
}

func (s *Server) removeLocked(t transport.Transport) {
	for i, existing := range s.transports {
		if existing == t {
			s.transports = append(s.transports[:i], s.transports[i+1:]...)
			return
		}
	}
}

// IsRunning reports whether the poll loop is active.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Start launches the poll loop on the caller's goroutine; it returns when
// Stop is called. One server instance runs at most one loop at a time.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	defer close(s.done)
	for {
		select {
		case <-s.stop:
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return nil
		default:
		}
		s.pollOnce()
		time.Sleep(loopSleep)
	}
}

// Stop signals the poll loop to exit and blocks until it does.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	done := s.done
	close(s.stop)
	s.mu.Unlock()
	<-done
}

// pollOnce sweeps every registered transport once, in reverse index order
// (spec §4.3), dispatching at most one frame per transport per sweep.
func (s *Server) pollOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.transports) - 1; i >= 0; i-- {
		t := s.transports[i]
		if !t.DataAvailable() {
			continue
		}
		n, err := t.Receive(s.buf, transport.NoDesiredLength, receiveTimeout)
		if err != nil {
			continue
		}
		var ctx transport.Context
		addr, fc, dataPos, dataLen, err := t.Parse(s.buf, n, false, &ctx)
		if err != nil {
			t.ClearInput()
			continue
		}
		data := s.buf[dataPos : dataPos+dataLen]

		t.PrepareWrite()
		if s.OnMessageReceived != nil {
			s.OnMessageReceived(t, addr, fc)
		}

		isBroadcast := addr == modbus.Broadcast
		forUs := isBroadcast || s.Address == s.AnyAddress || addr == s.Address
		if forUs {
			s.dispatch(t, addr, fc, data, isBroadcast, &ctx)
		}
		t.PrepareRead()

		if !t.IsConnected() {
			s.removeLocked(t)
		}
	}
}

// dispatch routes fc to its handler, builds and sends the response (or
// exception), per the response-construction rules of spec §4.3. ctx carries
// the request's transport-specific framing state (e.g. the TCP transaction
// id) so the response echoes it correctly.
func (s *Server) dispatch(t transport.Transport, addr, fc uint8, data []byte, isBroadcast bool, ctx *transport.Context) {
	handler, ok := s.handlers[fc]
	if !ok {
		if s.OnCustomTelegram != nil && s.OnCustomTelegram(t, addr, fc, data) {
			return
		}
		if !isBroadcast {
			s.sendException(t, addr, fc, modbus.ExIllegalFunction, ctx)
		}
		return
	}

	respData, err := handler(data)
	if err != nil {
		if isBroadcast {
			return
		}
		code := modbus.ExServerDeviceFailure
		if me, ok := modbus.AsException(err); ok {
			code = me.Code
		} else {
			s.logger().Error("modbus server handler error", "function_code", fc, "error", err)
		}
		s.sendException(t, addr, fc, code, ctx)
		return
	}
	if isBroadcast {
		return
	}
	s.sendResponse(t, addr, fc, respData, ctx)
}

func (s *Server) sendResponse(t transport.Transport, addr, fc uint8, data []byte, ctx *transport.Context) {
	buf := make([]byte, t.MaxADULen())
	frameLen, dataPos, err := t.Build(addr, fc, len(data), buf, true, ctx)
	if err != nil {
		s.logger().Error("modbus server build response failed", "function_code", fc, "error", err)
		return
	}
	copy(buf[dataPos:], data)
	if err := t.Send(buf, frameLen); err != nil {
		s.logger().Error("modbus server send response failed", "function_code", fc, "error", err)
	}
}

func (s *Server) sendException(t transport.Transport, addr, fc uint8, code modbus.ExceptionCode, ctx *transport.Context) {
	s.sendResponse(t, addr, fc|0x80, []byte{uint8(code)}, ctx)
}
