// Package mqtt mirrors the local weather cache onto an MQTT broker so other
// consumers can follow it without polling the HTTP API.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/i474232898/weather-sync/internal/config"
	"github.com/i474232898/weather-sync/internal/stream"
	"github.com/i474232898/weather-sync/internal/weather"
)

const publishTimeout = 5 * time.Second

type observer interface {
	ObserveAll(ctx context.Context) *stream.Subscription[[]weather.Record]
}

// Snapshot is the retained message body: the full record set at one moment.
type Snapshot struct {
	PublishedAt time.Time        `json:"published_at"`
	Records     []weather.Record `json:"records"`
}

type Publisher struct {
	client    mqtt.Client
	topic     string
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg *config.AppConfig, logger *slog.Logger) *Publisher {
	p := newPublisher(nil, cfg.MQTTTopic, logger)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		p.logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		p.logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

func newPublisher(client mqtt.Client, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client: client,
		topic:  topic,
		logger: logger.With("component", "mqtt"),
		stopCh: make(chan struct{}),
	}
}

// Connect waits for the initial broker connection, respecting ctx and
// Disconnect.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}

	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			p.setConnected(true)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
}

// Publish sends recs as a retained snapshot.
func (p *Publisher) Publish(recs []weather.Record) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	data, err := json.Marshal(Snapshot{
		PublishedAt: time.Now().UTC(),
		Records:     recs,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	token := p.client.Publish(p.topic, 1, true, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	p.logger.Debug("published snapshot", "topic", p.topic, "records", len(recs))
	return nil
}

// Run connects and publishes every emission of src until ctx is done. Failed
// publishes are logged and skipped; the next change retries with fresh data.
func (p *Publisher) Run(ctx context.Context, src observer) error {
	if err := p.Connect(ctx); err != nil {
		return err
	}
	defer p.Disconnect()

	sub := src.ObserveAll(ctx)
	defer sub.Close()

	for recs := range sub.C() {
		if err := p.Publish(recs); err != nil {
			p.logger.Error("failed to publish snapshot", "topic", p.topic, "error", err)
		}
	}
	if err := sub.Err(); err != nil {
		return fmt.Errorf("observing records: %w", err)
	}
	return nil
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect stops the publisher and closes the broker connection. Safe to
// call more than once.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	if p.client != nil {
		p.client.Disconnect(250)
	}

	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
