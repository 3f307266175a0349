package deviceinfo

import (
	"fmt"
	"strings"
)

// DeviceInfo is the structured descriptor derived from a raw client
// identifier string (typically a browser User-Agent).
type DeviceInfo struct {
	Browser    string `json:"browser"`
	OS         string `json:"os"`
	DeviceType string `json:"device_type"`
	DeviceName string `json:"device_name"`
}

const (
	UnknownBrowser = "Unknown Browser"
	UnknownOS      = "Unknown OS"
	UnknownDevice  = "Unknown Device"

	DeviceTypeMobile  = "Mobile"
	DeviceTypeTablet  = "Tablet"
	DeviceTypeDesktop = "Desktop"
)

// rule is a single classification step: if the identifier contains every
// token in contains and none of the tokens in excludes, the rule matches.
type rule struct {
	contains []string
	excludes []string
	result   string
}

func (r rule) matches(raw string) bool {
	matched := false
	for _, token := range r.contains {
		if strings.Contains(raw, token) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, token := range r.excludes {
		if strings.Contains(raw, token) {
			return false
		}
	}
	return true
}

// Classification is first-match-wins over these tables, most specific
// patterns first. Keep the order stable: "Windows NT 10" must precede
// "Windows", and Chrome/Safari carry exclusion tokens to disambiguate
// Chromium-family identifiers.
var osRules = []rule{
	{contains: []string{"Windows NT 10"}, result: "Windows 10"},
	{contains: []string{"Windows NT 11"}, result: "Windows 11"},
	{contains: []string{"Windows"}, result: "Windows"},
	{contains: []string{"Mac OS X"}, result: "macOS"},
	{contains: []string{"Mac"}, result: "macOS"},
	{contains: []string{"Linux"}, result: "Linux"},
	{contains: []string{"Android"}, result: "Android"},
	{contains: []string{"iOS", "iPhone", "iPad"}, result: "iOS"},
}

var browserRules = []rule{
	{contains: []string{"Chrome"}, excludes: []string{"Edg"}, result: "Chrome"},
	{contains: []string{"Firefox"}, result: "Firefox"},
	{contains: []string{"Safari"}, excludes: []string{"Chrome"}, result: "Safari"},
	{contains: []string{"Edg"}, result: "Edge"},
	{contains: []string{"Opera", "OPR"}, result: "Opera"},
}

func classify(raw string, rules []rule, fallback string) string {
	for _, r := range rules {
		if r.matches(raw) {
			return r.result
		}
	}
	return fallback
}

func deviceType(raw string) string {
	if strings.Contains(raw, "Mobile") {
		return DeviceTypeMobile
	}
	if strings.Contains(raw, "Tablet") || strings.Contains(raw, "iPad") {
		return DeviceTypeTablet
	}
	return DeviceTypeDesktop
}

// Parse turns a raw client identifier into a DeviceInfo. It is pure and
// total: it never fails, and an empty identifier yields the all-Unknown
// descriptor with device type Desktop.
func Parse(raw string) DeviceInfo {
	if raw == "" {
		return DeviceInfo{
			Browser:    UnknownBrowser,
			OS:         UnknownOS,
			DeviceType: DeviceTypeDesktop,
			DeviceName: UnknownDevice,
		}
	}

	browser := classify(raw, browserRules, UnknownBrowser)
	os := classify(raw, osRules, UnknownOS)

	return DeviceInfo{
		Browser:    browser,
		OS:         os,
		DeviceType: deviceType(raw),
		DeviceName: fmt.Sprintf("%s on %s", browser, os),
	}
}

// Summary returns the short "Browser · OS" label used by activity listings.
func Summary(raw string) string {
	if raw == "" {
		return UnknownDevice
	}
	info := Parse(raw)
	return fmt.Sprintf("%s · %s", info.Browser, info.OS)
}
