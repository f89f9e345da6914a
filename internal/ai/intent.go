package ai

import "strings"

type Intent int

const (
	IntentDelegate Intent = iota
	IntentSales
	IntentTopCustomers
)

func (i Intent) String() string {
	switch i {
	case IntentSales:
		return "sales"
	case IntentTopCustomers:
		return "top_customers"
	default:
		return "delegate"
	}
}

// Classify matches phrases in priority order. text is expected lower-cased.
func Classify(text string) Intent {
	switch {
	case strings.Contains(text, "how much") && strings.Contains(text, "sell"):
		return IntentSales
	case strings.Contains(text, "top customers"):
		return IntentTopCustomers
	default:
		return IntentDelegate
	}
}
