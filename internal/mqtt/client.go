package mqtt

import (
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/config"
	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
)

const (
	clientID       = "tydom2mqtt"
	connectTimeout = 10 * time.Second
	keepAlive      = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// MessageHandler receives the payload of a message on a subscribed topic.
type MessageHandler func(topic string, payload []byte)

// Publisher is the broker surface device adapters publish through.
type Publisher interface {
	Publish(topic string, payload []byte, retain bool) error
	Subscribe(topic string, handler MessageHandler) error
}

// Client is the broker connection. Safe for concurrent use.
type Client struct {
	paho pahomqtt.Client

	mu            sync.Mutex
	subscriptions map[string]MessageHandler
}

// NewClient builds a client for the configured broker. The connection is
// not opened until Connect.
func NewClient(settings config.MQTTSettings) *Client {
	c := &Client{subscriptions: make(map[string]MessageHandler)}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(settings.BrokerURL())
	opts.SetClientID(clientID)
	if settings.User != "" {
		opts.SetUsername(settings.User)
		opts.SetPassword(settings.Password)
	}
	if settings.SSL {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)

	opts.SetOnConnectHandler(func(client pahomqtt.Client) {
		logging.Info("Connected to MQTT broker",
			zap.String("broker", settings.BrokerURL()),
		)
		c.resubscribe()
	})
	opts.SetConnectionLostHandler(func(client pahomqtt.Client, err error) {
		logging.Warn("MQTT connection lost", zap.Error(err))
	})

	c.paho = pahomqtt.NewClient(opts)
	return c
}

// Connect opens the broker connection, blocking until established or the
// connect timeout elapses.
func (c *Client) Connect() error {
	token := c.paho.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("timed out connecting to MQTT broker")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return nil
}

// Publish sends a payload at QoS 0.
func (c *Client) Publish(topic string, payload []byte, retain bool) error {
	token := c.paho.Publish(topic, 0, retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	logging.Debug("Published",
		zap.String("topic", topic),
		zap.Int("bytes", len(payload)),
	)
	return nil
}

// Subscribe registers a handler for a topic. The subscription is replayed
// automatically after a reconnect.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	c.mu.Lock()
	c.subscriptions[topic] = handler
	c.mu.Unlock()

	return c.subscribe(topic, handler)
}

func (c *Client) subscribe(topic string, handler MessageHandler) error {
	token := c.paho.Subscribe(topic, 0, func(client pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("timed out subscribing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	logging.Debug("Subscribed", zap.String("topic", topic))
	return nil
}

func (c *Client) resubscribe() {
	c.mu.Lock()
	subs := make(map[string]MessageHandler, len(c.subscriptions))
	for topic, handler := range c.subscriptions {
		subs[topic] = handler
	}
	c.mu.Unlock()

	for topic, handler := range subs {
		if err := c.subscribe(topic, handler); err != nil {
			logging.Error("Failed to restore subscription",
				zap.String("topic", topic),
				zap.Error(err),
			)
		}
	}
}

// Disconnect closes the broker connection, allowing a short drain.
func (c *Client) Disconnect() {
	c.paho.Disconnect(250)
}
