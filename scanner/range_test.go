package scanner

import (
	"errors"
	"net"
	"testing"
)

func TestParseTargetRangeCIDR(t *testing.T) {
	ips, network, err := ParseTargetRange("192.168.1.0/24")
	if err != nil {
		t.Fatalf("ParseTargetRange returned error: %v", err)
	}
	if network != "192.168.1.0/24" {
		t.Errorf("expected network 192.168.1.0/24, got %s", network)
	}
	if len(ips) != 254 {
		t.Fatalf("expected 254 addresses, got %d", len(ips))
	}
	if ips[0] != "192.168.1.1" || ips[253] != "192.168.1.254" {
		t.Errorf("unexpected bounds: %s .. %s", ips[0], ips[253])
	}

	// Every returned address must be a member of the requested range.
	_, ipnet, _ := net.ParseCIDR("192.168.1.0/24")
	for _, ip := range ips {
		if !ipnet.Contains(net.ParseIP(ip)) {
			t.Fatalf("address %s outside requested range", ip)
		}
	}
}

func TestParseTargetRangeSingleHost(t *testing.T) {
	ips, network, err := ParseTargetRange("127.0.0.1/32")
	if err != nil {
		t.Fatalf("ParseTargetRange returned error: %v", err)
	}
	if len(ips) != 1 || ips[0] != "127.0.0.1" {
		t.Fatalf("expected [127.0.0.1], got %v", ips)
	}
	if network != "127.0.0.1/32" {
		t.Errorf("unexpected network: %s", network)
	}
}

func TestParseTargetRangeForms(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		count   int
		network string
	}{
		{"wildcard", "10.0.0.*", 254, "10.0.0.0/24"},
		{"dash range", "10.0.0.10-20", 11, "10.0.0.10-20"},
		{"bare ip implies /24", "10.0.0.5", 254, "10.0.0.0/24"},
		{"slash 31", "10.0.0.0/31", 2, "10.0.0.0/31"},
		{"slash 16 allowed", "10.1.0.0/16", 65534, "10.1.0.0/16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ips, network, err := ParseTargetRange(tt.target)
			if err != nil {
				t.Fatalf("ParseTargetRange(%q) returned error: %v", tt.target, err)
			}
			if len(ips) != tt.count {
				t.Errorf("expected %d addresses, got %d", tt.count, len(ips))
			}
			if network != tt.network {
				t.Errorf("expected network %s, got %s", tt.network, network)
			}
		})
	}
}

func TestParseTargetRangeInvalid(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   error
	}{
		{"garbage cidr", "not-an-ip/99", ErrInvalidRange},
		{"empty", "", ErrInvalidRange},
		{"not an ip", "hostname.local", ErrInvalidRange},
		{"bad dash bounds", "10.0.0.50-10", ErrInvalidRange},
		{"ipv6", "::1/128", ErrInvalidRange},
		{"too wide", "10.0.0.0/8", ErrRangeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ips, _, err := ParseTargetRange(tt.target)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if ips != nil {
				t.Errorf("expected no addresses on error, got %d", len(ips))
			}
		})
	}
}

func TestNormalizeTargetCanonicalizesSpellings(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"192.168.1.0/24", "192.168.1.0/24"},
		{"192.168.1.*", "192.168.1.0/24"},
		{"192.168.1.5", "192.168.1.0/24"},
		{"192.168.1.10-20", "192.168.1.10-20"},
		{"127.0.0.1/32", "127.0.0.1/32"},
	}

	for _, tt := range tests {
		got, err := NormalizeTarget(tt.target)
		if err != nil {
			t.Errorf("NormalizeTarget(%q) returned error: %v", tt.target, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeTarget(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}

	if _, err := NormalizeTarget("hostname.local"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}
