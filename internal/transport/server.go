package transport

import (
	"context"
	"fmt"
	"net"
	"net/rpc"
)

// Serve registers svc under an RPC server, listens on addr, and accepts
// connections until ctx is cancelled. Grounded on the *-goGFS teachers'
// rpc.NewServer/net.Listen pairing.
func Serve(ctx context.Context, addr string, svc interface{}) error {
	server := rpc.NewServer()
	if err := server.Register(svc); err != nil {
		return fmt.Errorf("register rpc service: %w", err)
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}
		go server.ServeConn(conn)
	}
}
