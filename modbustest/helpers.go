package modbustest

import (
	"context"
	"errors"
	"log"
	"net"
	"time"

	"github.com/kallax/modbus/server"
	"github.com/kallax/modbus/transport"
)

// RunServerOnRandomPort is a low level helper for testing against a real
// TCP socket: it starts srv listening on a random port in its own
// goroutine, registering a new TCP transport per accepted connection, and
// returns the address once the listener is live.
func RunServerOnRandomPort(ctx context.Context, srv *server.Server) (string, error) {
	addrChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		listener, err := net.Listen("tcp", ":0")
		if err != nil {
			errChan <- err
			return
		}
		addrChan <- listener.Addr().String()

		go func() {
			<-ctx.Done()
			_ = listener.Close()
			srv.Stop()
		}()

		go func() {
			for {
				conn, err := listener.Accept()
				if err != nil {
					return
				}
				srv.AddTransport(transport.NewTCP(conn))
			}
		}()

		if err := srv.Start(); err != nil {
			log.Printf("modbustest server err: %v", err)
		}
	}()

	select {
	case <-time.After(500 * time.Millisecond):
		return "", errors.New("timeout when waiting for test server startup")
	case err := <-errChan:
		return "", err
	case addr := <-addrChan:
		return addr, nil
	}
}
