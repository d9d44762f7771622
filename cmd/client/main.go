// Command client reads holding registers from a Modbus TCP device and
// prints them, for manual testing against a server.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/kallax/modbus/client"
	"github.com/kallax/modbus/transport"
)

// usage: ./client -addr=localhost:5020 -unit-id=1 -address=0 -quantity=10
func main() {
	var addr string
	var unitID uint
	var address, quantity uint
	var timeout time.Duration
	flag.StringVar(&addr, "addr", "localhost:5020", "TCP address of the device")
	flag.UintVar(&unitID, "unit-id", 1, "unit id to address")
	flag.UintVar(&address, "address", 0, "starting register address")
	flag.UintVar(&quantity, "quantity", 10, "number of registers to read")
	flag.DurationVar(&timeout, "timeout", client.DefaultTimeout, "per-request timeout")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		logger.Error("dial failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	c := client.New(transport.NewTCP(conn))
	registers, err := c.ReadHoldingRegisters(uint8(unitID), uint16(address), uint16(quantity), timeout)
	if err != nil {
		logger.Error("read holding registers failed", "error", err)
		os.Exit(1)
	}

	for i, v := range registers {
		fmt.Printf("%d: 0x%04X\n", int(address)+i, v)
	}
}
