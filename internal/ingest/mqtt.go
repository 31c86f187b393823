package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pulsehq/venue-pulse/internal/store"
)

// MQTTConfig holds the broker connection settings for sensor ingestion.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string // e.g. pulse/sensors/+
	Username string
	Password string
}

// MQTTIngestor subscribes to the venue sensor topic and saves every decoded
// reading into the reading store.
type MQTTIngestor struct {
	cfg    MQTTConfig
	store  store.Store
	client mqtt.Client
}

// NewMQTTIngestor creates an ingestor; Start establishes the connection.
func NewMQTTIngestor(cfg MQTTConfig, st store.Store) *MQTTIngestor {
	return &MQTTIngestor{
		cfg:   cfg,
		store: st,
	}
}

// Start connects to the broker and subscribes. The paho client handles
// reconnects; subscription is re-established from the on-connect handler so
// it survives broker restarts.
func (i *MQTTIngestor) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(i.cfg.Broker)
	opts.SetClientID(i.cfg.ClientID)
	opts.SetUsername(i.cfg.Username)
	opts.SetPassword(i.cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOnConnectHandler(i.onConnect)
	opts.SetConnectionLostHandler(i.onConnectionLost)

	i.client = mqtt.NewClient(opts)

	token := i.client.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return fmt.Errorf("mqtt connection timeout for %s", i.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	return nil
}

// Stop disconnects from the broker.
func (i *MQTTIngestor) Stop() {
	if i.client != nil && i.client.IsConnected() {
		i.client.Disconnect(250)
	}
}

func (i *MQTTIngestor) onConnect(client mqtt.Client) {
	log.Printf("ingest: connected to mqtt broker %s, subscribing to %s", i.cfg.Broker, i.cfg.Topic)

	token := client.Subscribe(i.cfg.Topic, 1, i.handleMessage)
	if !token.WaitTimeout(10 * time.Second) {
		log.Printf("ingest: subscribe timeout for %s", i.cfg.Topic)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("ingest: subscribe failed for %s: %v", i.cfg.Topic, err)
	}
}

func (i *MQTTIngestor) onConnectionLost(_ mqtt.Client, err error) {
	log.Printf("ingest: mqtt connection lost: %v", err)
}

func (i *MQTTIngestor) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	reading, err := DecodeReading(msg.Payload())
	if err != nil {
		// A single bad sample must never take the pipeline down.
		log.Printf("ingest: dropping bad payload on %s: %v", msg.Topic(), err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := i.store.SaveReading(ctx, reading); err != nil {
		log.Printf("ingest: save reading failed for %s: %v", reading.VenueID, err)
	}
}
