// Package render personalizes campaign content for one recipient.
package render

import (
	"strings"

	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	defaultSubject      = "News from %s"
	defaultFallbackName = "there"
	defaultFooter       = "You are receiving this because you are a customer. Reply STOP to unsubscribe."
)

// Output is the personalized copy for one recipient.
type Output struct {
	Subject string
	Body    string
}

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// NewLocalizer returns a printer for the given BCP 47 tag, falling back to
// English for unknown tags.
func NewLocalizer(tag string) Localizer {
	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		parsed = language.English
	}
	return message.NewPrinter(parsed)
}

// Message renders c's subject and content template for customer. Templates
// may reference {name}, {email}, {location} and {city}; {city} is an alias of
// {location}. A blank subject falls back to a localized default naming the
// campaign.
func Message(loc Localizer, c campaign.Campaign, customer segment.Customer) Output {
	name := strings.TrimSpace(customer.Name)
	if name == "" {
		name = localizeWithFallback(loc, "campaign.fallback_name", defaultFallbackName)
	}
	replacer := strings.NewReplacer(
		"{name}", name,
		"{email}", customer.Email,
		"{location}", customer.Location,
		"{city}", customer.Location,
	)

	subject := strings.TrimSpace(c.Subject)
	if subject == "" {
		subject = localize(loc, "campaign.default_subject", c.Name)
		if subject == "campaign.default_subject" {
			subject = c.Name
		}
	}

	body := replacer.Replace(c.ContentTemplate)
	if footer := localizeWithFallback(loc, "campaign.footer", defaultFooter); footer != "" {
		body = strings.TrimRight(body, "\n") + "\n\n--\n" + footer
	}
	return Output{
		Subject: replacer.Replace(subject),
		Body:    body,
	}
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(localize(loc, key))
	if value == "" || value == key {
		return fallback
	}
	return value
}
