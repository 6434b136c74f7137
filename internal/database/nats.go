package database

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// ConnectNATS establishes a connection to the NATS server used for engine
// events. A blank URL is allowed and yields a nil connection; event publishing
// is best-effort and services treat a nil connection as "events disabled".
func ConnectNATS(url string) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := nats.Connect(url, nats.Name("grading-controller"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return conn, nil
}
