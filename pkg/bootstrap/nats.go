// Package bootstrap starts the embedded infrastructure the server process
// carries with it. The NATS server runs in-process on an ephemeral port; the
// bus exists to decouple the webhook from the agent loop, not to federate.
package bootstrap

import (
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

func StartEmbeddedNATSServer(logger *log.Logger) (*server.Server, error) {
	opts := &server.Options{
		Host: "127.0.0.1",
		Port: server.RANDOM_PORT,
	}

	s, err := server.NewServer(opts)
	if err != nil {
		return nil, err
	}

	go s.Start()

	if !s.ReadyForConnections(10 * time.Second) {
		return nil, errors.New("NATS server not ready in time")
	}

	addr, ok := s.Addr().(*net.TCPAddr)
	if !ok {
		return nil, errors.New("unexpected NATS address type")
	}

	logger.Info("Started NATS server", "port", addr.Port)
	return s, nil
}

func NewNatsClient(s *server.Server) (*nats.Conn, error) {
	addr, ok := s.Addr().(*net.TCPAddr)
	if !ok {
		return nil, errors.New("unexpected NATS address type")
	}
	return nats.Connect(fmt.Sprintf("nats://127.0.0.1:%d", addr.Port))
}
