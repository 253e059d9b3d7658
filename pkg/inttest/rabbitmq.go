package inttest

import (
	"fmt"
	"testing"

	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/rabbitmq"
	"github.com/stretchr/testify/require"
)

// SetupRabbitMQ creates a RabbitMQ container and returns its AMQP URL.
func SetupRabbitMQ(t *testing.T) string {
	t.Helper()

	container, err := gnomock.Start(
		rabbitmq.Preset(
			rabbitmq.WithUser("offers", "offers"),
		),
	)
	require.NoError(t, err, "failed to start RabbitMQ")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop RabbitMQ") })

	return fmt.Sprintf("amqp://offers:offers@%s", container.DefaultAddress())
}
