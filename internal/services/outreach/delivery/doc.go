// Package delivery provides the campaign delivery strategies: a simulated
// sender, an SMTP sender and a Kafka publisher for an external mail relay,
// plus an engagement simulator for demo campaigns.
package delivery
