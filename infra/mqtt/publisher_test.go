package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhub/aggcoord/core/model"
)

type fakeToken struct {
	err error
}

func (fakeToken) Wait() bool                     { return true }
func (fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Error() error                 { return t.err }

func (fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeClient struct {
	connectErr error
	publishErr error

	topics   []string
	payloads [][]byte
	qos      []byte

	disconnected bool
}

func (f *fakeClient) IsConnected() bool       { return true }
func (f *fakeClient) Connect() paho.Token     { return fakeToken{err: f.connectErr} }
func (f *fakeClient) Disconnect(quiesce uint) { f.disconnected = true }

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.topics = append(f.topics, topic)
	f.qos = append(f.qos, qos)
	f.payloads = append(f.payloads, payload.([]byte))
	return fakeToken{err: f.publishErr}
}

func withFakeClient(t *testing.T, cli *fakeClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return cli }
	t.Cleanup(func() { newMQTTClient = orig })
}

func TestNewPublisherRequiresBroker(t *testing.T) {
	_, err := NewPublisher(Config{})
	assert.Error(t, err)
}

func TestNewPublisherConnectError(t *testing.T) {
	withFakeClient(t, &fakeClient{connectErr: errors.New("refused")})

	_, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestPublishRoutesPerCategory(t *testing.T) {
	cli := &fakeClient{}
	withFakeClient(t, cli)

	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)

	msg := model.OutboundMessage{
		AggregationType: model.ResultFlexConsumption,
		GridArea:        "500",
		ReceiverID:      "gln-1",
		Quantities:      []float64{1.5, 2.5},
	}
	require.NoError(t, pub.Publish(context.Background(), msg))

	require.Len(t, cli.topics, 1)
	assert.Equal(t, "aggregations/results/flex_consumption", cli.topics[0])
	assert.Equal(t, byte(1), cli.qos[0])

	var got model.OutboundMessage
	require.NoError(t, json.Unmarshal(cli.payloads[0], &got))
	assert.Equal(t, msg.AggregationType, got.AggregationType)
	assert.Equal(t, msg.GridArea, got.GridArea)
	assert.Equal(t, msg.ReceiverID, got.ReceiverID)
	assert.Equal(t, msg.Quantities, got.Quantities)
}

func TestPublishTokenError(t *testing.T) {
	cli := &fakeClient{publishErr: errors.New("broker gone")}
	withFakeClient(t, cli)

	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)

	err = pub.Publish(context.Background(), model.OutboundMessage{AggregationType: model.ResultExchange})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker gone")
}

func TestClose(t *testing.T) {
	cli := &fakeClient{}
	withFakeClient(t, cli)

	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)

	pub.Close()
	assert.True(t, cli.disconnected)
}
