package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/louisbranch/outreach/internal/platform/id"
	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/render"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaWriter builds a writer that keys partitions by customer id.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

// Request is the delivery request published for the mail relay.
type Request struct {
	MessageID   string    `json:"message_id"`
	CampaignID  string    `json:"campaign_id"`
	CustomerID  string    `json:"customer_id"`
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	RequestedAt time.Time `json:"requested_at"`
}

// Kafka publishes one delivery request per recipient. Success means the
// broker accepted the request.
type Kafka struct {
	writer    MessageWriter
	localizer render.Localizer
	newID     func() (string, error)
	clock     func() time.Time
}

// NewKafka builds a Kafka publisher over writer.
func NewKafka(writer MessageWriter, localizer render.Localizer) *Kafka {
	return &Kafka{writer: writer, localizer: localizer, newID: id.NewID, clock: time.Now}
}

// Send publishes a delivery request keyed by customer id.
func (k *Kafka) Send(ctx context.Context, customer segment.Customer, c campaign.Campaign) (campaign.Receipt, error) {
	messageID, err := k.newID()
	if err != nil {
		return campaign.Receipt{}, err
	}
	out := render.Message(k.localizer, c, customer)
	payload, err := json.Marshal(Request{
		MessageID:   messageID,
		CampaignID:  c.ID,
		CustomerID:  customer.ID,
		To:          customer.Email,
		Subject:     out.Subject,
		Body:        out.Body,
		RequestedAt: k.clock().UTC(),
	})
	if err != nil {
		return campaign.Receipt{}, fmt.Errorf("marshal delivery request: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(customer.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "campaign-id", Value: []byte(c.ID)},
		},
	}
	injectTraceContext(ctx, &msg.Headers)
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return campaign.Receipt{}, fmt.Errorf("publish delivery request: %w", err)
	}
	return campaign.Receipt{MessageID: messageID, Detail: "queued"}, nil
}

// headerCarrier adapts kafka headers to a propagation.TextMapCarrier.
type headerCarrier struct {
	headers *[]kafka.Header
}

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

var _ propagation.TextMapCarrier = headerCarrier{}

func injectTraceContext(ctx context.Context, headers *[]kafka.Header) {
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{headers: headers})
}
