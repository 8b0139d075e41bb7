package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// MQTTBridge republishes every change on the bus to
// "<prefix>/changes/<collection>" so devices without a websocket can follow
// the repertoire.
type MQTTBridge struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration

	queue     chan Change
	done      chan struct{}
	closeOnce sync.Once
	cancel    func()
}

const (
	mqttPublishTimeout = 2 * time.Second
	forwardBuffer      = 256
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("[mqtt] connected to broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("[mqtt] connection lost")
}

// CreateMQTTClient connects to brokerURL with the given client id.
func CreateMQTTClient(brokerURL, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

func NewMQTTBridge(client mqtt.Client, prefix string) *MQTTBridge {
	if prefix == "" {
		prefix = "bandroom"
	}
	return &MQTTBridge{
		client:  client,
		prefix:  prefix,
		qos:     1,
		timeout: mqttPublishTimeout,
		queue:   make(chan Change, forwardBuffer),
		done:    make(chan struct{}),
	}
}

func (b *MQTTBridge) Topic(collection string) string {
	return fmt.Sprintf("%s/changes/%s", b.prefix, collection)
}

// Forward publishes c on its collection topic and waits at most the bridge
// timeout for the broker to acknowledge it.
func (b *MQTTBridge) Forward(c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	topic := b.Topic(c.Collection)
	token := b.client.Publish(topic, b.qos, false, payload)
	if !token.WaitTimeout(b.timeout) {
		return fmt.Errorf("publish %s: %w", topic, ErrPublishTimeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

// Attach starts forwarding everything published on bus. Changes are queued
// and sent from a separate goroutine so bus publishers never wait on the
// broker; when the queue is full the change is dropped.
func (b *MQTTBridge) Attach(ctx context.Context, bus Bus) error {
	cancel, err := bus.Subscribe(ctx, func(c Change) {
		select {
		case b.queue <- c:
		default:
			log.Warn().Str("collection", c.Collection).Msg("[mqtt] forward queue full, dropping change")
		}
	})
	if err != nil {
		return err
	}
	b.cancel = cancel
	go b.run()
	return nil
}

func (b *MQTTBridge) run() {
	for {
		select {
		case <-b.done:
			return
		case c := <-b.queue:
			if err := b.Forward(c); err != nil {
				log.Error().Err(err).Str("collection", c.Collection).Msg("[mqtt] forward failed")
			}
		}
	}
}

func (b *MQTTBridge) Close() {
	b.closeOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		close(b.done)
		b.client.Disconnect(250)
		log.Info().Msg("[mqtt] client disconnected")
	})
}
