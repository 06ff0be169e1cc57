package classifier

import (
	"strings"

	"github.com/nkiryanov/paysms/internal/models"
)

type ruleMatch struct {
	kind models.EventKind
	card string
}

// Rules are evaluated in order and the first matching one wins
// A new message shape is a new rule appended to the list
type rule struct {
	name  string
	match func(Text) (ruleMatch, bool)
}

// Transfer from a phone to one of the configured cards
// The full card number means a card transfer, a masked one means it came from a wallet
func (c *Classifier) matchToCard(text Text) (ruleMatch, bool) {
	if !strings.Contains(text.Upper, phraseTitular) || !strings.Contains(text.Upper, phraseToAccount) {
		return ruleMatch{}, false
	}

	for _, card := range c.cards {
		if strings.Contains(text.Upper, card) {
			return ruleMatch{kind: models.EventCardToCard, card: card}, true
		}
	}

	masked := reMaskedCard.FindAllStringSubmatch(text.Upper, -1)
	for _, card := range c.cards {
		if len(card) < 4 {
			continue
		}
		last4 := card[len(card)-4:]
		for _, m := range masked {
			if m[1] == last4 {
				return ruleMatch{kind: models.EventWalletToCard, card: card}, true
			}
		}
	}

	return ruleMatch{}, false
}

// Wallet recharge from a card, the message never names the payer
func matchWalletRecharge(text Text) (ruleMatch, bool) {
	if strings.Contains(text.Upper, phraseTitular) {
		return ruleMatch{}, false
	}
	if strings.HasPrefix(text.Upper, markerWallet) || strings.Contains(text.Upper, markerWalletRecharge) {
		return ruleMatch{kind: models.EventCardToWallet}, true
	}
	return ruleMatch{}, false
}

func matchWalletTransfer(text Text) (ruleMatch, bool) {
	if strings.Contains(text.Upper, phraseTitular) && strings.Contains(text.Upper, phraseToWallet) {
		return ruleMatch{kind: models.EventWalletToWallet}, true
	}
	return ruleMatch{}, false
}
