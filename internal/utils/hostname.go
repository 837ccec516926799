package utils

import "os"

// Hostname returns the local machine hostname, or "unknown" when the
// system refuses to say. The hub shows this string to the human during
// pairing approval.
func Hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "unknown"
	}
	return h
}
