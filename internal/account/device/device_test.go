package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabel(t *testing.T) {
	assert.Equal(t, Unknown, Label(""))
	assert.Equal(t, Unknown, Label("   "))

	desktop := Label("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Contains(t, desktop, "Chrome on ")
	assert.Contains(t, desktop, "Windows")

	mobile := Label("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	assert.Contains(t, mobile, " on iPhone")

	firefox := Label("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
	assert.Contains(t, firefox, "Firefox on ")
}

func TestLabelIsTrimmed(t *testing.T) {
	for _, ua := range []string{"curl/8.4.0", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"} {
		got := Label(ua)
		assert.NotEmpty(t, got)
		assert.Equal(t, strings.TrimSpace(got), got)
		assert.NotContains(t, got, "  ")
	}
}
