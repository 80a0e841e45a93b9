package recall

import "fmt"

// IsValidMessageID reports whether candidate's string form is a well-formed
// platform message identifier: non-empty and all decimal digits. It is the
// single gate between "found something" and "found a usable identifier",
// applied at every extraction point so an invalid hit just means the search
// keeps going. Never panics; nil is false.
func IsValidMessageID(candidate any) bool {
	if candidate == nil {
		return false
	}
	s := fmt.Sprint(candidate)
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

// messageIDString normalizes a validated candidate to its string form.
func messageIDString(candidate any) string {
	return fmt.Sprint(candidate)
}
