package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/outreach/internal/platform/id"
	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/render"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"github.com/rs/zerolog"
)

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	// From defaults to Username.
	From string `env:"SMTP_FROM"`
}

func (c SMTPConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c SMTPConfig) from() string {
	if strings.TrimSpace(c.From) != "" {
		return strings.TrimSpace(c.From)
	}
	return strings.TrimSpace(c.Username)
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP delivers rendered campaign messages over SMTP. smtp.SendMail upgrades
// the connection with STARTTLS when the server offers it.
type SMTP struct {
	cfg       SMTPConfig
	auth      smtp.Auth
	localizer render.Localizer
	logger    zerolog.Logger
	sendMail  sendMailFunc
	newID     func() (string, error)
	clock     func() time.Time
}

// NewSMTP validates cfg and builds an SMTP sender.
func NewSMTP(cfg SMTPConfig, localizer render.Localizer, logger zerolog.Logger) (*SMTP, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("smtp port %d is invalid", cfg.Port)
	}
	if _, err := mail.ParseAddress(cfg.from()); err != nil {
		return nil, fmt.Errorf("smtp from address: %w", err)
	}
	s := &SMTP{
		cfg:       cfg,
		localizer: localizer,
		logger:    logger,
		sendMail:  smtp.SendMail,
		newID:     id.NewID,
		clock:     time.Now,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	} else {
		logger.Warn().Str("host", cfg.Host).Msg("smtp credentials not configured")
	}
	return s, nil
}

// Send renders and delivers one message. net/smtp has no context support, so
// the send runs in a goroutine and an expired ctx abandons it.
func (s *SMTP) Send(ctx context.Context, customer segment.Customer, c campaign.Campaign) (campaign.Receipt, error) {
	to, err := mail.ParseAddress(customer.Email)
	if err != nil {
		return campaign.Receipt{}, fmt.Errorf("recipient address %q: %w", customer.Email, err)
	}
	messageID, err := s.newID()
	if err != nil {
		return campaign.Receipt{}, err
	}
	out := render.Message(s.localizer, c, customer)
	msg := s.compose(messageID, to, out)

	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(s.cfg.addr(), s.auth, s.cfg.from(), []string{to.Address}, msg)
	}()
	select {
	case <-ctx.Done():
		return campaign.Receipt{}, ctx.Err()
	case err := <-done:
		if err != nil {
			return campaign.Receipt{}, fmt.Errorf("smtp send: %w", err)
		}
	}
	s.logger.Debug().Str("campaign_id", c.ID).Str("message_id", messageID).Msg("smtp delivery")
	return campaign.Receipt{MessageID: messageID, Detail: "smtp"}, nil
}

func (s *SMTP) compose(messageID string, to *mail.Address, out render.Output) []byte {
	var buf bytes.Buffer
	domain := s.cfg.Host
	if at := strings.LastIndex(s.cfg.from(), "@"); at >= 0 {
		domain = s.cfg.from()[at+1:]
	}
	headers := [][2]string{
		{"From", s.cfg.from()},
		{"To", to.String()},
		{"Subject", mime.QEncoding.Encode("utf-8", out.Subject)},
		{"Date", s.clock().UTC().Format(time.RFC1123Z)},
		{"Message-ID", "<" + messageID + "@" + domain + ">"},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="UTF-8"`},
	}
	for _, h := range headers {
		buf.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(out.Body, "\n", "\r\n"))
	return buf.Bytes()
}
