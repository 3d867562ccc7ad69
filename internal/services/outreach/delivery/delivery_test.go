package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var (
	testCampaign = campaign.Campaign{
		ID:              "camp-1",
		Name:            "Spring sale",
		Subject:         "Hi {name}",
		ContentTemplate: "Hello {name} from {city}",
	}
	testCustomer = segment.Customer{ID: "cust-1", Name: "Ayla", Email: "ayla@example.com", Location: "Bursa"}
	fixedNow     = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
)

func fixedID(value string) func() (string, error) {
	return func() (string, error) { return value, nil }
}

func TestSimulatedSend(t *testing.T) {
	t.Parallel()

	sender := NewSimulated(zerolog.Nop(), nil)
	sender.newID = fixedID("msg-1")
	receipt, err := sender.Send(context.Background(), testCustomer, testCampaign)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if receipt.MessageID != "msg-1" || receipt.Detail != "simulated" {
		t.Fatalf("receipt = %+v", receipt)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sender.Send(ctx, testCustomer, testCampaign); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	if got := preview("short"); got != "short" {
		t.Fatalf("preview = %q", got)
	}
	long := strings.Repeat("ş", 60)
	if got := preview(long); got != strings.Repeat("ş", 50)+"..." {
		t.Fatalf("preview = %q", got)
	}
}

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	blocking := campaign.DeliveryFunc(func(ctx context.Context, _ segment.Customer, _ campaign.Campaign) (campaign.Receipt, error) {
		<-ctx.Done()
		return campaign.Receipt{}, ctx.Err()
	})
	_, err := WithTimeout(blocking, 10*time.Millisecond).Send(context.Background(), testCustomer, testCampaign)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	sim := NewSimulated(zerolog.Nop(), nil)
	if WithTimeout(sim, 0) != campaign.DeliveryStrategy(sim) {
		t.Fatal("expected zero timeout to return the strategy unchanged")
	}
}

func newTestSMTP(t *testing.T, send sendMailFunc) *SMTP {
	t.Helper()
	sender, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "news@shop.example", Password: "secret"}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}
	sender.sendMail = send
	sender.newID = fixedID("msg-9")
	sender.clock = func() time.Time { return fixedNow }
	return sender
}

func TestSMTPSendComposesMessage(t *testing.T) {
	t.Parallel()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	sender := newTestSMTP(t, func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	})

	receipt, err := sender.Send(context.Background(), testCustomer, testCampaign)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if receipt.MessageID != "msg-9" {
		t.Fatalf("message id = %q", receipt.MessageID)
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != "news@shop.example" {
		t.Fatalf("addr/from = %q/%q", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "ayla@example.com" {
		t.Fatalf("to = %v", gotTo)
	}
	msg := string(gotMsg)
	for _, want := range []string{
		"Subject: Hi Ayla\r\n",
		"To: <ayla@example.com>\r\n",
		"Message-ID: <msg-9@shop.example>\r\n",
		"\r\n\r\nHello Ayla from Bursa",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestSMTPSendErrors(t *testing.T) {
	t.Parallel()

	sender := newTestSMTP(t, func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 authentication failed")
	})
	if _, err := sender.Send(context.Background(), testCustomer, testCampaign); err == nil || !strings.Contains(err.Error(), "535") {
		t.Fatalf("err = %v, want smtp failure", err)
	}
	bad := testCustomer
	bad.Email = "not-an-address"
	if _, err := sender.Send(context.Background(), bad, testCampaign); err == nil {
		t.Fatal("expected invalid recipient error")
	}
}

func TestSMTPSendHonorsContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	sender := newTestSMTP(t, func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := sender.Send(ctx, testCustomer, testCampaign); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestNewSMTPValidation(t *testing.T) {
	t.Parallel()

	tests := []SMTPConfig{
		{Port: 587, Username: "a@b.example"},
		{Host: "smtp.example.com", Username: "a@b.example"},
		{Host: "smtp.example.com", Port: 25},
	}
	for _, cfg := range tests {
		if _, err := NewSMTP(cfg, nil, zerolog.Nop()); err == nil {
			t.Fatalf("NewSMTP(%+v) expected error", cfg)
		}
	}
	if _, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 25, From: "relay@shop.example"}, nil, zerolog.Nop()); err != nil {
		t.Fatalf("NewSMTP without credentials: %v", err)
	}
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaSendPublishesRequest(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	publisher := NewKafka(writer, nil)
	publisher.newID = fixedID("msg-3")
	publisher.clock = func() time.Time { return fixedNow }

	receipt, err := publisher.Send(context.Background(), testCustomer, testCampaign)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if receipt.MessageID != "msg-3" || receipt.Detail != "queued" {
		t.Fatalf("receipt = %+v", receipt)
	}
	if len(writer.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(writer.msgs))
	}
	msg := writer.msgs[0]
	if string(msg.Key) != "cust-1" {
		t.Fatalf("key = %q, want cust-1", msg.Key)
	}
	var request Request
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if request.CampaignID != "camp-1" || request.To != "ayla@example.com" || request.Subject != "Hi Ayla" {
		t.Fatalf("request = %+v", request)
	}
	if !request.RequestedAt.Equal(fixedNow) {
		t.Fatalf("requested at = %v", request.RequestedAt)
	}
	if got := (headerCarrier{headers: &msg.Headers}).Get("campaign-id"); got != "camp-1" {
		t.Fatalf("campaign-id header = %q", got)
	}
}

func TestKafkaSendWriterError(t *testing.T) {
	t.Parallel()

	publisher := NewKafka(&fakeWriter{err: errors.New("leader not available")}, nil)
	if _, err := publisher.Send(context.Background(), testCustomer, testCampaign); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestHeaderCarrier(t *testing.T) {
	t.Parallel()

	var headers []kafka.Header
	carrier := headerCarrier{headers: &headers}
	carrier.Set("traceparent", "a")
	carrier.Set("traceparent", "b")
	carrier.Set("tracestate", "c")
	if len(headers) != 2 || carrier.Get("traceparent") != "b" {
		t.Fatalf("headers = %+v", headers)
	}
	if keys := carrier.Keys(); len(keys) != 2 || keys[0] != "traceparent" {
		t.Fatalf("keys = %v", keys)
	}
}
