package service

import (
	"net"
	"strings"

	"github.com/txshield/txshield/internal/domain/policy"
	"github.com/txshield/txshield/internal/domain/port"
)

// HomeRegion decides whether a location or IP address belongs to the
// configured home region. Comparisons are case-insensitive.
type HomeRegion struct {
	cities    []string
	prefixes  []string
	countries map[string]struct{}
	locator   port.IPLocator
}

// NewHomeRegion builds a matcher from the policy geofence. locator may be nil.
func NewHomeRegion(g policy.Geofence, locator port.IPLocator) *HomeRegion {
	h := &HomeRegion{
		prefixes:  append([]string(nil), g.HomeIPPrefixes...),
		countries: make(map[string]struct{}, len(g.HomeCountryCodes)),
		locator:   locator,
	}
	for _, c := range g.HomeCities {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			h.cities = append(h.cities, c)
		}
	}
	for _, cc := range g.HomeCountryCodes {
		h.countries[strings.ToUpper(cc)] = struct{}{}
	}
	return h
}

// IsHomeCity reports whether location names a home city. An empty location
// never matches.
func (h *HomeRegion) IsHomeCity(location string) bool {
	loc := strings.ToLower(location)
	if strings.TrimSpace(loc) == "" {
		return false
	}
	for _, c := range h.cities {
		if strings.Contains(loc, c) {
			return true
		}
	}
	return false
}

// IsHomeIP reports whether ip belongs to the home region: a configured prefix,
// a loopback address, or a locator country listed in the policy.
func (h *HomeRegion) IsHomeIP(ip string) bool {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return false
	}
	for _, p := range h.prefixes {
		if strings.HasPrefix(ip, p) {
			return true
		}
	}
	if parsed := net.ParseIP(ip); parsed != nil && parsed.IsLoopback() {
		return true
	}
	if h.locator == nil || len(h.countries) == 0 {
		return false
	}
	cc, err := h.locator.CountryCode(ip)
	if err != nil {
		return false
	}
	_, ok := h.countries[strings.ToUpper(cc)]
	return ok
}
