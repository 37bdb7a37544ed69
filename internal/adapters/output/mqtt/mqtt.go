package mqtt

import (
	"fmt"
	"strings"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"liquid-home-console/internal/ports"
)

var log = logrus.WithField("prefix", "mqtt")

const (
	qos            = 1
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Publisher is the part of MQTT.Client the renderer uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token
}

// clientOptions bounds the time Publish may block on a stalled connection.
// Publish runs while the console holds its state lock.
func clientOptions(broker, clientID string) *MQTT.ClientOptions {
	opts := MQTT.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.SetWriteTimeout(publishTimeout)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(MQTT.Client) {
		log.WithField("broker", broker).Info("connected")
	}
	opts.OnConnectionLost = func(_ MQTT.Client, err error) {
		log.WithError(err).Warn("connection lost, reconnecting")
	}
	return opts
}

// NewClient connects to broker with automatic reconnection.
func NewClient(broker, clientID string) (MQTT.Client, error) {
	c := MQTT.NewClient(clientOptions(broker, clientID))
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connection to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection to %s: %w", broker, err)
	}
	return c, nil
}

// Renderer publishes the room state as retained messages on
// <prefix>/lights (ON|OFF) and <prefix>/curtains (OPEN|CLOSED).
type Renderer struct {
	client Publisher
	prefix string
}

func NewRenderer(client Publisher, topicPrefix string) *Renderer {
	return &Renderer{client: client, prefix: strings.TrimSuffix(topicPrefix, "/")}
}

func (r *Renderer) LightsTopic() string   { return r.prefix + "/lights" }
func (r *Renderer) CurtainsTopic() string { return r.prefix + "/curtains" }

func (r *Renderer) ApplyLightState(on bool) {
	payload := "OFF"
	if on {
		payload = "ON"
	}
	r.publish(r.LightsTopic(), payload)
}

func (r *Renderer) ApplyCurtainTarget(open bool) {
	payload := "CLOSED"
	if open {
		payload = "OPEN"
	}
	r.publish(r.CurtainsTopic(), payload)
}

// publish does not wait for the broker; delivery is confirmed in the background.
func (r *Renderer) publish(topic, payload string) {
	token := r.client.Publish(topic, qos, true, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.WithField("topic", topic).Warn("publish timed out")
			return
		}
		if err := token.Error(); err != nil {
			log.WithError(err).WithField("topic", topic).Warn("publish failed")
			return
		}
		log.WithField("topic", topic).Debugf("published %s", payload)
	}()
}

var _ ports.RoomRenderer = (*Renderer)(nil)
