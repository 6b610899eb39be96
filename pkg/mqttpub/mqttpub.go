// Package mqttpub publishes fetched station readings onto an MQTT bus so
// other systems can consume them without talking to the vendor cloud.
package mqttpub

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/levenlabs/go-lflag"
	"github.com/sofarbridge/sofarbridge/pkg/log"
	"github.com/sofarbridge/sofarbridge/pkg/types"
)

const (
	// topicPrefix is the first segment of every published topic.
	topicPrefix = "SofarCloud"
	// qos 0, readings are retained so late subscribers see the last run.
	qos            = 0
	retained       = true
	connectTimeout = 4 * time.Second
)

// Publisher pushes station readings to an MQTT broker. The zero value is a
// disabled publisher whose methods are all no-ops.
type Publisher struct {
	client   pahomqtt.Client
	enabled  bool
	broker   string
	port     int
	username string
	password string
	clientID string

	// newClient is swapped in tests
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client
}

// Configured sets up the publisher based on flags.
func Configured() *Publisher {
	enabled := lflag.Bool("mqtt-enabled", false, "Publish station readings to MQTT")
	broker := lflag.String("mqtt-broker-address", "", "MQTT broker address")
	port := lflag.Int("mqtt-port", 1883, "MQTT broker port")
	username := lflag.String("mqtt-username", "", "MQTT username")
	password := lflag.String("mqtt-password", "", "MQTT password")
	clientID := lflag.String("mqtt-client-id", "sofarbridge", "MQTT client id")

	p := &Publisher{newClient: pahomqtt.NewClient}

	lflag.Do(func() {
		p.enabled = *enabled
		p.broker = *broker
		p.port = *port
		p.username = *username
		p.password = *password
		p.clientID = *clientID
	})

	return p
}

// Enabled reports whether publishing was requested.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// BrokerConfigured reports whether a usable broker address is set. 0.0.0.0 is
// a listen address, not a destination, so it counts as unset.
func (p *Publisher) BrokerConfigured() bool {
	return p.broker != "" && p.broker != "0.0.0.0"
}

// Connect dials the broker. On failure the publisher stays disconnected and
// publishing becomes a no-op.
func (p *Publisher) Connect(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", p.broker, p.port)).
		SetClientID(p.clientID).
		SetConnectTimeout(connectTimeout)
	if p.username != "" {
		opts.SetUsername(p.username).SetPassword(p.password)
	}
	client := p.newClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("timed out connecting to mqtt broker %s:%d", p.broker, p.port)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker %s:%d: %w", p.broker, p.port, err)
	}
	p.client = client
	return nil
}

// PublishStations publishes every non-unit field of every station, composite
// values stringified as raw JSON. Safe to call on a disconnected publisher.
func (p *Publisher) PublishStations(ctx context.Context, records []types.StationRecord) {
	if p.client == nil {
		return
	}
	for idx, record := range records {
		id := record.ID()
		if id == "" {
			id = fmt.Sprintf("station%d", idx)
		}
		for _, field := range record.Fields() {
			v := record[field]
			// unit fields only annotate their sibling; everything else goes
			// out, composites as their raw JSON text
			if strings.HasSuffix(strings.ToLower(field), "unit") {
				continue
			}
			topic := topicPrefix + "/" + id + "/" + field
			token := p.client.Publish(topic, qos, retained, v.String())
			token.Wait()
			if err := token.Error(); err != nil {
				log.Ctx(ctx).WarnContext(ctx, "failed to publish",
					slog.String("topic", topic), slog.Any("error", err))
			}
		}
	}
}

// Close disconnects from the broker. Safe on a never-connected publisher.
func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Disconnect(250)
		p.client = nil
	}
}
