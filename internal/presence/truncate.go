package presence

import "unicode/utf8"

// UTF-8 byte budgets imposed by the presence protocol.
const (
	TextBudget  = 128
	LabelBudget = 32
)

const truncationSuffix = "…" // 3 bytes

// TruncateBytes shortens s so its UTF-8 byte length never exceeds
// budget, cutting on a full-character boundary. When a cut happens the
// suffix is appended inside the budget; budgets too small for the
// suffix get a bare boundary cut.
func TruncateBytes(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if len(s) <= budget {
		return s
	}

	cut := budget
	suffix := truncationSuffix
	if budget >= len(suffix) {
		cut = budget - len(suffix)
	} else {
		suffix = ""
	}

	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
