// Command server runs a Modbus TCP device that serves a fixed bank of
// holding registers and coils out of memory, for manual testing against a
// master.
package main

import (
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kallax/modbus"
	"github.com/kallax/modbus/server"
	"github.com/kallax/modbus/transport"
)

// usage: ./server -addr=:5020 -unit-id=1
func main() {
	var addr string
	var unitID uint
	flag.StringVar(&addr, "addr", ":5020", "TCP address to listen on")
	flag.UintVar(&unitID, "unit-id", 1, "unit id this device answers to")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	var mu sync.Mutex
	holdingRegisters := make([]uint16, 1000)
	coils := make([]bool, 1000)

	srv := server.New(modbus.Address(unitID))
	srv.Logger = logger
	srv.Handle(modbus.FuncReadHoldingRegisters, server.NewReadRegistersHandler(modbus.FuncReadHoldingRegisters,
		func(address, quantity uint16) ([]uint16, error) {
			mu.Lock()
			defer mu.Unlock()
			if int(address)+int(quantity) > len(holdingRegisters) {
				return nil, &modbus.ModbusException{FunctionCode: modbus.FuncReadHoldingRegisters, Code: modbus.ExIllegalDataAddress}
			}
			out := make([]uint16, quantity)
			copy(out, holdingRegisters[address:])
			return out, nil
		}))
	srv.Handle(modbus.FuncWriteSingleRegister, server.NewWriteSingleRegisterHandler(
		func(address, value uint16) error {
			mu.Lock()
			defer mu.Unlock()
			if int(address) >= len(holdingRegisters) {
				return &modbus.ModbusException{FunctionCode: modbus.FuncWriteSingleRegister, Code: modbus.ExIllegalDataAddress}
			}
			holdingRegisters[address] = value
			return nil
		}))
	srv.Handle(modbus.FuncReadCoils, server.NewReadBitsHandler(modbus.FuncReadCoils,
		func(address, quantity uint16) ([]bool, error) {
			mu.Lock()
			defer mu.Unlock()
			if int(address)+int(quantity) > len(coils) {
				return nil, &modbus.ModbusException{FunctionCode: modbus.FuncReadCoils, Code: modbus.ExIllegalDataAddress}
			}
			out := make([]bool, quantity)
			copy(out, coils[address:])
			return out, nil
		}))
	srv.Handle(modbus.FuncWriteSingleCoil, server.NewWriteSingleCoilHandler(
		func(address uint16, value bool) error {
			mu.Lock()
			defer mu.Unlock()
			if int(address) >= len(coils) {
				return &modbus.ModbusException{FunctionCode: modbus.FuncWriteSingleCoil, Code: modbus.ExIllegalDataAddress}
			}
			coils[address] = value
			return nil
		}))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("listen failed", "error", err)
		os.Exit(1)
	}
	logger.Info("modbus server listening", "addr", listener.Addr().String(), "unit_id", unitID)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				logger.Error("accept failed", "error", err)
				return
			}
			srv.AddTransport(transport.NewTCP(conn))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("shutting down")
		srv.Stop()
		_ = listener.Close()
	}()

	if err := srv.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
