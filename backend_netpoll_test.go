//go:build unix && !reactor_socket

package sock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendName(t *testing.T) {
	assert.Equal(t, "netpoll", BackendName)
}
