// Package geoip resolves IP addresses to countries with a MaxMind database.
package geoip

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/txshield/txshield/internal/domain/port"
)

// ErrInvalidIP is returned for addresses that do not parse.
var ErrInvalidIP = errors.New("geoip: invalid ip address")

var _ port.IPLocator = (*MaxMindLocator)(nil)

// MaxMindLocator implements port.IPLocator over a GeoLite2/GeoIP2 City or
// Country database. The reader is safe for concurrent use.
type MaxMindLocator struct {
	reader *geoip2.Reader
}

// Open loads the database at path.
func Open(path string) (*MaxMindLocator, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open %s: %w", path, err)
	}
	return &MaxMindLocator{reader: reader}, nil
}

// CountryCode returns the ISO country code for ip.
func (l *MaxMindLocator) CountryCode(ip string) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}
	rec, err := l.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup %s: %w", ip, err)
	}
	if rec.Country.IsoCode == "" {
		return "", fmt.Errorf("geoip: no country for %s", ip)
	}
	return rec.Country.IsoCode, nil
}

// Close releases the database.
func (l *MaxMindLocator) Close() error {
	return l.reader.Close()
}
