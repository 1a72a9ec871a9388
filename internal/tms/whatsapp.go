package tms

import (
	"fmt"
	"strings"
)

// WhatsAppText returns a copy-paste booking message for a token.
func WhatsAppText(t Token) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Token: %s\n", t.TokenNo)
	fmt.Fprintf(&sb, "Party: %s\n", t.PartyName)
	fmt.Fprintf(&sb, "Marka/Sign: %s\n", t.Marka)
	fmt.Fprintf(&sb, "Weight: %s kg\n", t.Weight.String())
	fmt.Fprintf(&sb, "From: %s  To: %s\n", t.FromCity, t.ToCity)
	fmt.Fprintf(&sb, "Amount: ₹%s", t.TotalAmount.StringFixed(2))
	return sb.String()
}
