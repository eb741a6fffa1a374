package creditcards

import (
	"fmt"
	"strings"
	"time"

	"github.com/lotas/tabtray/internal/types"
)

// ValidationError describes a field the user has to fix before saving.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks fields against now. It does not touch storage.
func Validate(fields types.UpdatableCreditCardFields, now time.Time) error {
	if strings.TrimSpace(fields.BillingName) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}

	number := NormalizeNumber(fields.CardNumber)
	if len(number) < 12 || len(number) > 19 {
		return &ValidationError{Field: "number", Reason: "must be 12 to 19 digits"}
	}
	if !luhnValid(number) {
		return &ValidationError{Field: "number", Reason: "invalid card number"}
	}

	if fields.ExpiryMonth < 1 || fields.ExpiryMonth > 12 {
		return &ValidationError{Field: "month", Reason: "must be 1 to 12"}
	}
	year, month := now.Year(), int(now.Month())
	if fields.ExpiryYear < year || (fields.ExpiryYear == year && fields.ExpiryMonth < month) {
		return &ValidationError{Field: "year", Reason: "card has expired"}
	}
	return nil
}

// NormalizeNumber strips spaces and dashes from a card number. Any other
// non-digit is kept so validation rejects it.
func NormalizeNumber(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

// DetectCardType guesses the network from the number's prefix.
func DetectCardType(number string) string {
	n := NormalizeNumber(number)
	switch {
	case strings.HasPrefix(n, "4"):
		return "visa"
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return "amex"
	case hasPrefixRange(n, 51, 55), hasPrefixRange(n, 2221, 2720):
		return "mastercard"
	case strings.HasPrefix(n, "6011"), strings.HasPrefix(n, "65"), hasPrefixRange(n, 644, 649):
		return "discover"
	case hasPrefixRange(n, 3528, 3589):
		return "jcb"
	case strings.HasPrefix(n, "62"):
		return "unionpay"
	case strings.HasPrefix(n, "36"), strings.HasPrefix(n, "38"), hasPrefixRange(n, 300, 305):
		return "diners"
	}
	return ""
}

func hasPrefixRange(n string, lo, hi int) bool {
	width := len(fmt.Sprint(lo))
	if len(n) < width {
		return false
	}
	var p int
	for _, r := range n[:width] {
		if r < '0' || r > '9' {
			return false
		}
		p = p*10 + int(r-'0')
	}
	return p >= lo && p <= hi
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
