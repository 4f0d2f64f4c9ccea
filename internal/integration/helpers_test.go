//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/lora-locator/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("lora-locator-test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type gatewayReport struct {
	id              string
	lat, lng        float64
	rssi, snr       float64
	withoutLocation bool
}

// uplinkJSON builds a The Things Network uplink as delivered on the event
// stream, wrapped in a "data" envelope.
func uplinkJSON(t *testing.T, deviceID string, fcnt int, gateways ...gatewayReport) []byte {
	t.Helper()
	up := domain.Uplink{
		EndDeviceIDs:  domain.EndDeviceIDs{DeviceID: deviceID},
		UplinkMessage: domain.UplinkMessage{FCnt: &fcnt},
	}
	for _, gw := range gateways {
		md := &domain.GatewayMetadata{
			GatewayIDs: domain.GatewayIDs{GatewayID: gw.id},
			RSSI:       &gw.rssi,
			SNR:        &gw.snr,
		}
		if !gw.withoutLocation {
			md.Location = &domain.GatewayLocation{Latitude: &gw.lat, Longitude: &gw.lng}
		}
		up.UplinkMessage.RxMetadata = append(up.UplinkMessage.RxMetadata, md)
	}
	data, err := json.Marshal(map[string]any{"data": up})
	require.NoError(t, err)
	return data
}
