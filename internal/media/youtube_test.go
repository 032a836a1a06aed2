package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Test_Song", sanitizeFilename("Test Song"))
	assert.Equal(t, "Hit_Official_Video", sanitizeFilename("Hit (Official Video)!"))
	assert.Equal(t, "already-clean", sanitizeFilename("already-clean"))
	assert.Equal(t, "audio", sanitizeFilename("!!!"), "fully stripped titles fall back")
}

func TestOrNA(t *testing.T) {
	assert.Equal(t, "N/A", orNA(""))
	assert.Equal(t, "3:45", orNA("3:45"))
}
