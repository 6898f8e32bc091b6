// Package device turns a User-Agent header into the label stored as an
// account's last login device.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const Unknown = "Unknown Device"

// Label returns "Browser on OS", e.g. "Chrome on Windows 10" or "Safari on iPhone".
func Label(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return Unknown
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return browser + " on " + platform
		}
	}
	os := ua.OS()
	if os == "" {
		os = "Unknown OS"
	}
	return browser + " on " + os
}
