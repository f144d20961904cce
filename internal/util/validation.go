package util

// IsValidEnum reports whether value is one of validValues. Empty values pass,
// since optional filters leave them unset.
func IsValidEnum(value string, validValues []string) bool {
	if value == "" {
		return true
	}
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}
