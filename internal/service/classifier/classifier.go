package classifier

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/paysms/internal/models"
)

const (
	phraseTitular        = "TITULAR DEL TELEFONO"
	phraseToAccount      = "A LA CUENTA"
	phraseToWallet       = "AL MONEDERO"
	markerWallet         = "MONEDERO MITRANSFER"
	markerWalletRecharge = "MONEDERO MITRANSFER:"

	defaultSenderMarker = "PAGO"
	unknownTxIDPrefix   = "UNKNOWN_"
)

var (
	// "de 1500.00 CUP" in transfers, "recargado con: 2000 CUP" in wallet recharges
	reAmount = regexp.MustCompile(`(?i)(?:\bDE\s+|CON:\s*)(\d+(?:\.\d+)?)\s*CUP\b`)
	rePhone  = regexp.MustCompile(`(?i)TITULAR DEL TELEFONO\s+(\d+)`)

	// Order matters, the first non-empty match wins
	reTxIDs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)TRANSACCION\s+(\w+)`),
		regexp.MustCompile(`(?i)NRO\.?\s*TRANSACCION\s+(\w+)`),
		regexp.MustCompile(`(?i)TRANSACCION:\s*(\w+)`),
	}

	// Last four digits right after a masked card, e.g. 9227XXXXXXXX8054 or 9227********8054
	reMaskedCard = regexp.MustCompile(`(?i)\d{0,4}[X*]{4,}(\d{4})\b`)
)

type Option func(*Classifier)

// Clock used for the synthesized tx id when a message has none
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		c.now = now
	}
}

// Sender label tokens identifying the payment network
func WithSenderMarkers(markers ...string) Option {
	return func(c *Classifier) {
		c.senderMarkers = c.senderMarkers[:0]
		for _, m := range markers {
			if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
				c.senderMarkers = append(c.senderMarkers, m)
			}
		}
	}
}

// Classifier turns payment network SMS into payment events
// It holds no mutable state and is safe for concurrent use
type Classifier struct {
	cards         []string
	senderMarkers []string
	now           func() time.Time
	rules         []rule
}

// New builds a classifier for the configured destination cards
func New(cards []string, opts ...Option) *Classifier {
	c := &Classifier{
		senderMarkers: []string{defaultSenderMarker},
		now:           time.Now,
	}
	for _, card := range cards {
		if card = digitsOnly(card); card != "" {
			c.cards = append(c.cards, card)
		}
	}

	for _, opt := range opts {
		opt(c)
	}

	c.rules = []rule{
		{name: "card_to_card", match: c.matchToCard},
		{name: "card_to_wallet", match: matchWalletRecharge},
		{name: "wallet_to_wallet", match: matchWalletTransfer},
	}

	return c
}

// IsPaymentSender reports whether the sender label belongs to the payment network
func (c *Classifier) IsPaymentSender(sender string) bool {
	upper := strings.ToUpper(sender)
	for _, m := range c.senderMarkers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}

// Classify returns the payment event described by the message
// Messages from other senders or not matching any rule yield an UNKNOWN event
func (c *Classifier) Classify(rawText string, sender string) models.PaymentEvent {
	unknown := models.PaymentEvent{Kind: models.EventUnknown, RawText: rawText}

	if !c.IsPaymentSender(sender) {
		return unknown
	}

	text := Normalize(rawText)

	for _, r := range c.rules {
		m, ok := r.match(text)
		if !ok {
			continue
		}

		amount, ok := extractAmount(text)
		if !ok {
			return unknown
		}

		event := models.PaymentEvent{
			Kind:            m.kind,
			Amount:          amount,
			DestinationCard: m.card,
			RawText:         rawText,
		}
		if m.kind != models.EventCardToWallet {
			event.SourcePhone = extractPhone(text)
		}
		event.NetworkTxID, event.SyntheticTxID = c.extractTxID(text)

		return event
	}

	return unknown
}

// Cards configured for the deployment, full numbers
func (c *Classifier) Cards() []string {
	return append([]string(nil), c.cards...)
}

func (c *Classifier) extractTxID(text Text) (string, bool) {
	for _, re := range reTxIDs {
		if m := re.FindStringSubmatch(text.Plain); len(m) > 1 && m[1] != "" {
			return m[1], false
		}
	}
	return fmt.Sprintf("%s%d", unknownTxIDPrefix, c.now().Unix()), true
}

func extractAmount(text Text) (decimal.Decimal, bool) {
	m := reAmount.FindStringSubmatch(text.Plain)
	if len(m) < 2 {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

func extractPhone(text Text) string {
	if m := rePhone.FindStringSubmatch(text.Plain); len(m) > 1 {
		return m[1]
	}
	return ""
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
