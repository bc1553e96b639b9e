// Package smsgateway implements the SMS transport over carrier email-to-SMS
// gateways: texts arrive and leave as mail addressed to
// <number>@<carrier-gateway>, which keeps the channel free of paid SMS
// providers.
package smsgateway

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aria-ai/recruiter-agent/internal/model"
	"github.com/aria-ai/recruiter-agent/internal/transport"
)

// CarrierGateways maps carrier names to their email-to-SMS gateway domains.
var CarrierGateways = map[string]string{
	"att":        "@txt.att.net",
	"t-mobile":   "@tmomail.net",
	"verizon":    "@vtext.com",
	"sprint":     "@messaging.sprintpcs.com",
	"boost":      "@sms.myboostmobile.com",
	"cricket":    "@mms.cricketwireless.net",
	"uscellular": "@email.uscc.net",
	"google-fi":  "@msg.fi.google.com",
}

// Action is a special-keyword directive found in an inbound text.
type Action string

const (
	ActionUnsubscribe Action = "unsubscribe"
	ActionRequestCall Action = "request_call"
	ActionHelp        Action = "help"
)

// Transport adapts an underlying email transport into the SMS channel.
type Transport struct {
	email          transport.Transport
	defaultGateway string
}

// New creates an SMS transport over the given email transport.
func New(email transport.Transport, defaultGateway string) *Transport {
	if defaultGateway == "" {
		defaultGateway = CarrierGateways["att"]
	}
	return &Transport{email: email, defaultGateway: defaultGateway}
}

// Channel identifies this transport as the SMS channel.
func (t *Transport) Channel() model.Channel {
	return model.ChannelSMS
}

// FetchCandidates pulls from the email transport and keeps only items sent
// through a known carrier gateway, rewritten into SMS shape: the thread is
// the phone number and the body is stripped of gateway footer artifacts.
func (t *Transport) FetchCandidates(ctx context.Context, limit int) ([]transport.InboundItem, error) {
	items, err := t.email.FetchCandidates(ctx, limit)
	if err != nil {
		return nil, err
	}

	var out []transport.InboundItem
	for _, item := range items {
		phone, ok := ParseGatewaySender(item.Sender)
		if !ok {
			continue
		}
		item.Channel = model.ChannelSMS
		item.ThreadID = "sms-" + phone
		item.SenderName = phone
		item.Subject = ""
		item.Body = CleanBody(item.Body)
		out = append(out, item)
	}
	return out, nil
}

// Send dispatches the reply through the carrier gateway detected from the
// recipient address, falling back to the default gateway for bare numbers.
func (t *Transport) Send(ctx context.Context, out transport.Outbound) error {
	to := out.ReplyTo
	if !strings.Contains(to, "@") {
		phone, ok := CleanPhoneNumber(to)
		if !ok {
			return fmt.Errorf("invalid phone number %q", to)
		}
		to = phone + t.defaultGateway
	}

	// Messages over the 160-char segment limit are split by the carrier;
	// the drafter is already told to keep SMS replies brief.
	return t.email.Send(ctx, transport.Outbound{
		ThreadID: out.ThreadID,
		ReplyTo:  to,
		Body:     out.Body,
	})
}

// MarkConsumed delegates to the underlying email transport.
func (t *Transport) MarkConsumed(ctx context.Context, messageID string) error {
	return t.email.MarkConsumed(ctx, messageID)
}

var phoneDigits = regexp.MustCompile(`\d{10}`)

// ParseGatewaySender extracts the 10-digit phone number from a carrier
// gateway address. Returns false for senders that are not SMS gateways.
func ParseGatewaySender(sender string) (string, bool) {
	gateway := false
	for _, domain := range CarrierGateways {
		if strings.Contains(sender, domain) {
			gateway = true
			break
		}
	}
	if !gateway {
		return "", false
	}
	phone := phoneDigits.FindString(sender)
	if phone == "" {
		return "", false
	}
	return phone, true
}

// DetectCarrier returns the carrier name for a gateway address.
func DetectCarrier(sender string) (string, bool) {
	for carrier, domain := range CarrierGateways {
		if strings.Contains(sender, domain) {
			return carrier, true
		}
	}
	return "", false
}

var nonDigits = regexp.MustCompile(`\D`)

// CleanPhoneNumber normalizes a phone number to ten digits, stripping a
// leading US country code.
func CleanPhoneNumber(phone string) (string, bool) {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", false
	}
	return digits, true
}

var footerMarkers = []string{
	"sent from", "sent via", "unsubscribe", "privacy policy",
	"free msg", "message and data rates",
}

// CleanBody strips gateway footer artifacts: everything from the first
// footer marker line onward is dropped and the rest is joined on one line.
func CleanBody(body string) string {
	var kept []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)

		stop := false
		for _, marker := range footerMarkers {
			if strings.Contains(lower, marker) {
				stop = true
				break
			}
		}
		if stop {
			break
		}
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}

// SpecialKeyword recognizes STOP/CALL/HELP directives in an inbound text.
func SpecialKeyword(message string) (Action, bool) {
	switch strings.ToUpper(strings.TrimSpace(message)) {
	case "STOP":
		return ActionUnsubscribe, true
	case "CALL":
		return ActionRequestCall, true
	case "HELP", "INFO":
		return ActionHelp, true
	}
	return "", false
}
