package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/zhaobenny/babylog/internal/aggregator"
	"github.com/zhaobenny/babylog/internal/model"
)

const (
	defaultTopicPrefix = "babylog"
	publishTimeout     = 10 * time.Second
	qos                = 1
)

// Config holds MQTT broker settings
type Config struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`                 // e.g. "localhost:1883" or "ssl://host:8883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // default "babylog"
	ClientID    string `yaml:"client_id,omitempty"`
	Retain      bool   `yaml:"retain,omitempty"`       // retain the <prefix>/latest message
}

// Publisher sends daily summaries to an MQTT broker
type Publisher struct {
	client mqtt.Client
	prefix string
	retain bool
	now    func() time.Time
}

// New connects to the broker described by cfg
func New(cfg Config) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	broker := cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "babylog-" + uuid.NewString()[:8]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an already configured client
func NewWithClient(client mqtt.Client, cfg Config) *Publisher {
	prefix := strings.TrimSuffix(cfg.TopicPrefix, "/")
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	return &Publisher{
		client: client,
		prefix: prefix,
		retain: cfg.Retain,
		now:    time.Now,
	}
}

// Under returns a publisher sharing p's connection whose topics live
// below <prefix>/<segment>. Closing it closes the shared connection.
func (p *Publisher) Under(segment string) *Publisher {
	sub := *p
	sub.prefix = p.prefix + "/" + strings.Trim(segment, "/")
	return &sub
}

// Payload is the JSON body of a daily summary message
type Payload struct {
	Date        model.Date        `json:"date"`
	Counts      model.DailyCount  `json:"counts"`
	Totals      model.DailyTotals `json:"totals"`
	BottleML    int               `json:"bottle_ml"`
	PublishedAt time.Time         `json:"published_at"`
}

// DayTopic returns the topic a date's summary is published on
func (p *Publisher) DayTopic(d model.Date) string {
	return fmt.Sprintf("%s/daily/%s", p.prefix, d)
}

// LatestTopic returns the topic carrying the newest summary
func (p *Publisher) LatestTopic() string {
	return p.prefix + "/latest"
}

// PublishDay publishes the summary of one date
func (p *Publisher) PublishDay(s model.DailySummary) error {
	return p.publish(p.DayTopic(s.Date), false, p.payload(s))
}

// PublishLatest publishes s as the newest summary
func (p *Publisher) PublishLatest(s model.DailySummary) error {
	return p.publish(p.LatestTopic(), p.retain, p.payload(s))
}

// PublishReport publishes the newest day of the report, or every day when all
// is set, and updates the latest topic. It returns the number of days sent.
func (p *Publisher) PublishReport(r aggregator.Report, all bool) (int, error) {
	latest, ok := r.Latest()
	if !ok {
		return 0, nil
	}

	days := []model.DailySummary{latest}
	if all {
		days = r.Summaries()
	}

	sent := 0
	for _, s := range days {
		if err := p.PublishDay(s); err != nil {
			return sent, err
		}
		sent++
	}
	if err := p.PublishLatest(latest); err != nil {
		return sent, err
	}
	return sent, nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

func (p *Publisher) payload(s model.DailySummary) Payload {
	return Payload{
		Date:        s.Date,
		Counts:      s.Counts,
		Totals:      s.Totals,
		BottleML:    s.Totals.BottleML(),
		PublishedAt: p.now().UTC(),
	}
}

func (p *Publisher) publish(topic string, retained bool, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	token := p.client.Publish(topic, qos, retained, body)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}
