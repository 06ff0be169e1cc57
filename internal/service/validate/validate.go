package validate

import (
	"errors"
	"strings"
)

const cardLength = 16

var (
	ErrCardLength = errors.New("card number must have 16 digits")
	ErrCardDigits = errors.New("number contains invalid characters")
	ErrCardLuhn   = errors.New("number is not valid according to Luhn algorithm")
)

// Card checks a destination card number and returns its digits
// Spaces and dashes between digit groups are allowed
func Card(number string) (string, error) {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(number))
	if err := Luhn(digits); err != nil {
		return "", err
	}
	if len(digits) != cardLength {
		return "", ErrCardLength
	}
	return digits, nil
}

func Luhn(number string) error {
	if number == "" {
		return ErrCardDigits
	}

	sum := 0
	// Walk from the rightmost digit, every second one is doubled
	for i := len(number) - 1; i >= 0; i-- {
		n := number[i]
		if n < '0' || n > '9' {
			return ErrCardDigits
		}

		digit := int(n - '0')
		if (len(number)-i)%2 == 0 {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}

	if sum%10 != 0 {
		return ErrCardLuhn
	}
	return nil
}
