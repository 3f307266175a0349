package deviceinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	chromeWindowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	edgeWindowsUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
	safariMacUA     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
	firefoxLinuxUA  = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	chromeAndroidUA = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	safariIPadUA    = "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
	operaPrestoUA   = "Opera/9.80 (Windows NT 6.1; WOW64) Presto/2.12.388 Version/12.18"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		browser    string
		os         string
		deviceType string
		deviceName string
	}{
		{
			name:       "chrome on windows 10",
			raw:        chromeWindowsUA,
			browser:    "Chrome",
			os:         "Windows 10",
			deviceType: DeviceTypeDesktop,
			deviceName: "Chrome on Windows 10",
		},
		{
			name:       "edge is not chrome",
			raw:        edgeWindowsUA,
			browser:    "Edge",
			os:         "Windows 10",
			deviceType: DeviceTypeDesktop,
			deviceName: "Edge on Windows 10",
		},
		{
			name:       "safari on macos",
			raw:        safariMacUA,
			browser:    "Safari",
			os:         "macOS",
			deviceType: DeviceTypeDesktop,
			deviceName: "Safari on macOS",
		},
		{
			name:       "firefox on linux",
			raw:        firefoxLinuxUA,
			browser:    "Firefox",
			os:         "Linux",
			deviceType: DeviceTypeDesktop,
			deviceName: "Firefox on Linux",
		},
		{
			name:       "android phone is mobile",
			raw:        chromeAndroidUA,
			browser:    "Chrome",
			os:         "Linux",
			deviceType: DeviceTypeMobile,
			deviceName: "Chrome on Linux",
		},
		{
			name:       "ipad is tablet",
			raw:        safariIPadUA,
			browser:    "Safari",
			os:         "macOS",
			deviceType: DeviceTypeTablet,
			deviceName: "Safari on macOS",
		},
		{
			name:       "opera presto",
			raw:        operaPrestoUA,
			browser:    "Opera",
			os:         "Windows",
			deviceType: DeviceTypeDesktop,
			deviceName: "Opera on Windows",
		},
		{
			name:       "empty input is all unknown",
			raw:        "",
			browser:    UnknownBrowser,
			os:         UnknownOS,
			deviceType: DeviceTypeDesktop,
			deviceName: UnknownDevice,
		},
		{
			name:       "garbage input",
			raw:        "curl/8.4.0",
			browser:    UnknownBrowser,
			os:         UnknownOS,
			deviceType: DeviceTypeDesktop,
			deviceName: "Unknown Browser on Unknown OS",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := Parse(tc.raw)
			assert.Equal(t, tc.browser, info.Browser)
			assert.Equal(t, tc.os, info.OS)
			assert.Equal(t, tc.deviceType, info.DeviceType)
			assert.Equal(t, tc.deviceName, info.DeviceName)
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	first := Parse(chromeWindowsUA)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Parse(chromeWindowsUA))
	}
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Chrome · Windows 10", Summary(chromeWindowsUA))
	assert.Equal(t, "Safari · macOS", Summary(safariMacUA))
	assert.Equal(t, UnknownDevice, Summary(""))
}
