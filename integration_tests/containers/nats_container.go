package containers

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/kamisato/pkg/eventbus"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupNatsContainer starts a JetStream-enabled NATS server and provisions
// streams on it, so reminder events published before the first subscriber
// attaches are retained. The caller terminates the container.
func SetupNatsContainer(ctx context.Context, streams []eventbus.StreamConfig) (*nats.NATSContainer, string, error) {
	natsContainer, err := nats.Run(ctx,
		"nats:2.10-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("Server is ready"),
				wait.ForListeningPort("4222/tcp"),
			).WithDeadline(45*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start NATS container: %w", err)
	}

	natsURL, err := natsContainer.ConnectionString(ctx)
	if err == nil {
		err = provisionStreams(ctx, natsURL, streams)
	}
	if err != nil {
		if terminateErr := natsContainer.Terminate(ctx); terminateErr != nil {
			log.Printf("Failed to terminate NATS container: %v", terminateErr)
		}
		return nil, "", err
	}

	log.Printf("NATS container ready with %d stream(s). URL: %s", len(streams), natsURL)
	return natsContainer, natsURL, nil
}

func provisionStreams(ctx context.Context, natsURL string, streams []eventbus.StreamConfig) error {
	conn, err := nc.Connect(natsURL, nc.Timeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS container: %w", err)
	}
	defer conn.Close()

	js, err := jetstream.New(conn)
	if err != nil {
		return fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return eventbus.EnsureStreams(ctx, js, streams, slog.Default())
}
