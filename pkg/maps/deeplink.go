package maps

import (
	"fmt"
	"net/url"
)

// NavigationLink builds a Google Maps directions deep link a partner's
// phone can open. Pure string construction, no API calls.
func NavigationLink(destLat, destLng float64) string {
	return fmt.Sprintf(
		"https://www.google.com/maps/dir/?api=1&destination=%.6f%%2C%.6f&travelmode=driving",
		destLat, destLng,
	)
}

// NavigationLinkForAddress falls back to an address query when the
// destination was never geocoded.
func NavigationLinkForAddress(address string) string {
	return "https://www.google.com/maps/dir/?api=1&destination=" + url.QueryEscape(address) + "&travelmode=driving"
}
