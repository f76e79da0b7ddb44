package helpers

import "fmt"

// FormatAmount formats a revenue figure with comma thousands separators and
// two decimals for the run summary output, e.g. 12345.5 -> "$12,345.50".
func FormatAmount(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	cents := int64(amount*100 + 0.5)
	whole := cents / 100
	frac := cents % 100

	str := fmt.Sprintf("%d", whole)
	length := len(str)

	var result string
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result += ","
		}
		result += string(digit)
	}

	if negative {
		return fmt.Sprintf("$ -%s.%02d", result, frac)
	}
	return fmt.Sprintf("$%s.%02d", result, frac)
}
