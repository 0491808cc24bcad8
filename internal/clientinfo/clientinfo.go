// Package clientinfo derives the requesting client's IP and device class.
package clientinfo

import (
	"net"
	"net/http"
	"strings"
)

// DeviceType is a coarse client category derived from the user agent.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
	DeviceUnknown DeviceType = "unknown"
)

// Unknown is recorded for any client attribute that cannot be determined.
const Unknown = "unknown"

// mobileMarkers are checked before "tablet", so iPads classify as mobile.
var mobileMarkers = []string{"mobile", "android", "iphone", "ipad"}

// ClassifyDevice maps a user agent to a DeviceType. An empty user agent is unknown.
func ClassifyDevice(userAgent string) DeviceType {
	if userAgent == "" {
		return DeviceUnknown
	}

	ua := strings.ToLower(userAgent)
	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return DeviceMobile
		}
	}
	if strings.Contains(ua, "tablet") {
		return DeviceTablet
	}
	return DeviceDesktop
}

// ClientIP returns X-Forwarded-For, X-Real-IP, the transport address, or
// "unknown", in that order. Header values are returned as sent.
func ClientIP(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		return v
	}
	if v := r.Header.Get("X-Real-IP"); v != "" {
		return v
	}
	return RemoteIP(r)
}

// RemoteIP returns the host of the transport address, ignoring every
// client-supplied header.
func RemoteIP(r *http.Request) string {
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return Unknown
}

// ProxiedIP returns the last X-Forwarded-For entry, which is the one the
// nearest proxy appended, or RemoteIP when the header is absent. Use it only
// behind a proxy that sets the header.
func ProxiedIP(r *http.Request) string {
	values := r.Header.Values("X-Forwarded-For")
	for i := len(values) - 1; i >= 0; i-- {
		parts := strings.Split(values[i], ",")
		for j := len(parts) - 1; j >= 0; j-- {
			if ip := strings.TrimSpace(parts[j]); ip != "" {
				return ip
			}
		}
	}
	return RemoteIP(r)
}

// Info is the client metadata attached to every log entry.
type Info struct {
	IP         string
	UserAgent  string
	DeviceType DeviceType
}

// FromRequest collects Info for r.
func FromRequest(r *http.Request) Info {
	ua := r.UserAgent()
	info := Info{
		IP:         ClientIP(r),
		UserAgent:  ua,
		DeviceType: ClassifyDevice(ua),
	}
	if info.UserAgent == "" {
		info.UserAgent = Unknown
	}
	return info
}
