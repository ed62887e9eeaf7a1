package mqttutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBrokerPort = 18831

func startBroker(t *testing.T) string {
	t.Helper()

	server := mochi.New(nil)
	require.NoError(t, server.AddHook(new(auth.AllowHook), nil))

	tcp := listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "test",
		Address: fmt.Sprintf("127.0.0.1:%d", testBrokerPort),
	})
	require.NoError(t, server.AddListener(tcp))
	require.NoError(t, server.Serve())
	t.Cleanup(func() { server.Close() })

	return fmt.Sprintf("tcp://127.0.0.1:%d", testBrokerPort)
}

func TestResolveBroker(t *testing.T) {
	assert.Equal(t, "tcp://127.0.0.1:1883", ResolveBroker("tcp://127.0.0.1:1883", "10.0.0.5"))
	assert.Equal(t, "tcp://10.0.0.5:1883", ResolveBroker("tcp://glove-broker.invalid:1883", "10.0.0.5"))
	assert.Equal(t, "tcp://glove-broker.invalid:1883", ResolveBroker("tcp://glove-broker.invalid:1883", ""))
	assert.Equal(t, "::bad", ResolveBroker("::bad", "10.0.0.5"))
}

func TestClientID(t *testing.T) {
	a, b := ClientID("glove"), ClientID("glove")
	assert.True(t, strings.HasPrefix(a, "glove-"))
	assert.Len(t, a, len("glove-")+8)
	assert.NotEqual(t, a, b)
}

func TestConnectSubscribePublish(t *testing.T) {
	broker := startBroker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan map[string]string, 1)
	sub, err := Connect(ctx, Options{
		Broker:   broker,
		ClientID: "sub",
		Subscriptions: []Subscription{{
			Topic: "glove/test",
			Handler: func(_ mqtt.Client, msg mqtt.Message) {
				var m map[string]string
				if json.Unmarshal(msg.Payload(), &m) == nil {
					got <- m
				}
			},
		}},
	})
	require.NoError(t, err)
	defer sub.Disconnect(100)

	pub, err := Connect(ctx, Options{Broker: broker, ClientID: "pub"})
	require.NoError(t, err)
	defer pub.Disconnect(100)

	require.NoError(t, PublishJSON(pub, "glove/test", false, map[string]string{"motion": "LIFT_START"}))

	select {
	case m := <-got:
		assert.Equal(t, "LIFT_START", m["motion"])
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestConnectHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// Nothing listens here; with connect retry the token never completes.
	_, err := Connect(ctx, Options{Broker: "tcp://127.0.0.1:1", ClientID: "nobody"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
