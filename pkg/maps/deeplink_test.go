package maps

import (
	"strings"
	"testing"
)

func TestNavigationLink(t *testing.T) {
	link := NavigationLink(12.9716, 77.5946)
	if !strings.Contains(link, "destination=12.971600%2C77.594600") {
		t.Fatalf("unexpected link %s", link)
	}
	if !strings.HasPrefix(link, "https://www.google.com/maps/dir/") {
		t.Fatalf("unexpected prefix %s", link)
	}
}

func TestNavigationLinkForAddress(t *testing.T) {
	link := NavigationLinkForAddress("12 MG Road, Bengaluru 560001")
	if !strings.Contains(link, "destination=12+MG+Road%2C+Bengaluru+560001") {
		t.Fatalf("unexpected link %s", link)
	}
}
