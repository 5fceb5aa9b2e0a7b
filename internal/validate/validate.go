package validate

import "strings"

// Result is the outcome of a contact-field check. Reason carries the
// user-facing re-prompt text when the input is rejected, so call sites can
// branch without inventing their own error strings.
type Result struct {
	OK     bool
	Reason string
}

const (
	phonePrefix = "+380"
	phoneLength = 13
)

// Phone accepts Ukrainian mobile numbers in the form +380XXXXXXXXX:
// the +380 prefix followed by exactly nine digits, nothing else.
func Phone(raw string) Result {
	if strings.HasPrefix(raw, phonePrefix) && len(raw) == phoneLength && allDigits(raw[1:]) {
		return Result{OK: true}
	}
	return Result{Reason: "Будь ласка, введіть коректний номер телефону у форматі +380XXXXXXXXX"}
}

// Email performs the same minimal syntactic check the shop has always done:
// the string must contain both "@" and ".". This is deliberately not an RFC
// check and accepts plenty of garbage ("@.", "a@b."); kept as-is because the
// flow re-prompts on failure and the address is only used for receipts.
func Email(raw string) Result {
	if strings.Contains(raw, "@") && strings.Contains(raw, ".") {
		return Result{OK: true}
	}
	return Result{Reason: "Будь ласка, введіть коректний email"}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
