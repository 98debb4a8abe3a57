//go:build unix && !linux && !darwin

package sys

// The idle period is not tunable per socket here; SO_KEEPALIVE still applies.
func setKeepAlivePeriod(_ int, _ int) error {
	return nil
}
