package models

import (
	"time"
)

// DiscoveryMethod identifies which probe technique produced a device record.
type DiscoveryMethod string

const (
	MethodPing DiscoveryMethod = "ping"
	MethodTCP  DiscoveryMethod = "tcp"
	MethodARP  DiscoveryMethod = "arp"
)

// Sentinel value for fields a lookup could not resolve.
const Unknown = "unknown"

// ServiceUnknown labels an open port not present in the service dictionary.
const ServiceUnknown = "Unknown"

// OSGuess is a coarse operating system classification derived from the
// TTL heuristic. It is approximate and must not be treated as authoritative.
type OSGuess struct {
	Name       string `json:"name" bson:"name"`
	Confidence string `json:"confidence" bson:"confidence"` // low, medium
}

// Device represents one discovered network endpoint. Address is the merge
// key: records for the same address found via different methods are unioned,
// never duplicated.
type Device struct {
	Address          string            `json:"address" bson:"address"`
	Hostnames        []string          `json:"hostnames" bson:"hostnames"`
	MACAddress       string            `json:"mac_address" bson:"mac_address"`
	Vendor           string            `json:"vendor,omitempty" bson:"vendor,omitempty"`
	OpenPorts        []int             `json:"open_ports" bson:"open_ports"`
	Services         map[int]string    `json:"services" bson:"services"`
	Banners          map[int]string    `json:"banners,omitempty" bson:"banners,omitempty"`
	WebTitle         string            `json:"web_title,omitempty" bson:"web_title,omitempty"`
	FaviconHash      int32             `json:"favicon_hash,omitempty" bson:"favicon_hash,omitempty"`
	OSGuess          OSGuess           `json:"os_guess" bson:"os_guess"`
	ResponseTimeMs   int64             `json:"response_time_ms" bson:"response_time_ms"`
	TTL              int               `json:"ttl,omitempty" bson:"ttl,omitempty"`
	LastSeen         time.Time         `json:"last_seen" bson:"last_seen"`
	DiscoveryMethods []DiscoveryMethod `json:"discovery_methods" bson:"discovery_methods"`
}

// HasPort reports whether port is in the device's open-port set.
func (d *Device) HasPort(port int) bool {
	for _, p := range d.OpenPorts {
		if p == port {
			return true
		}
	}
	return false
}

// HasMethod reports whether the record was produced or merged from method.
func (d *Device) HasMethod(m DiscoveryMethod) bool {
	for _, dm := range d.DiscoveryMethods {
		if dm == m {
			return true
		}
	}
	return false
}
