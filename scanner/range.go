package scanner

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRange is returned when the target cannot be parsed at all.
	// This is the only scan-level failure: a malformed range cannot be probed.
	ErrInvalidRange = errors.New("invalid target range")

	// ErrRangeTooLarge is returned for ranges wider than a /16, to keep
	// expansion and scan time bounded.
	ErrRangeTooLarge = errors.New("target range too large (wider than /16)")
)

// maxPrefixBits is the widest accepted CIDR prefix.
const maxPrefixBits = 16

// ParseTargetRange expands a target expression into the list of candidate
// IPv4 addresses plus the normalized network notation.
//
// Supported forms:
//
//	192.168.1.0/24      CIDR (prefix must be /16 or narrower)
//	192.168.1.*         wildcard C segment
//	192.168.1.10-50     last-octet range
//	192.168.1.5         bare IP, implies its /24
func ParseTargetRange(target string) ([]string, string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, "", ErrInvalidRange
	}

	if strings.Contains(target, "/") {
		return parseCIDR(target)
	}

	if strings.HasSuffix(target, ".*") {
		base := strings.TrimSuffix(target, ".*")
		if net.ParseIP(base+".0") == nil {
			return nil, "", fmt.Errorf("%w: %q", ErrInvalidRange, target)
		}
		return hostOctetRange(base, 1, 254), base + ".0/24", nil
	}

	if strings.Contains(target, "-") {
		return parseDashRange(target)
	}

	// Bare IP implies its /24.
	ip := net.ParseIP(target)
	if ip == nil || ip.To4() == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRange, target)
	}
	parts := strings.Split(target, ".")
	base := strings.Join(parts[:3], ".")
	return hostOctetRange(base, 1, 254), base + ".0/24", nil
}

func parseCIDR(target string) ([]string, string, error) {
	ip, ipnet, err := net.ParseCIDR(target)
	if err != nil || ip.To4() == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRange, target)
	}

	ones, bits := ipnet.Mask.Size()
	if bits != 32 {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRange, target)
	}
	if ones < maxPrefixBits {
		return nil, "", fmt.Errorf("%w: /%d", ErrRangeTooLarge, ones)
	}

	start := ipToUint32(ipnet.IP)
	count := uint32(1) << (32 - ones)

	ips := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		addr := start + i
		// Skip network and broadcast addresses for /24 and wider;
		// /31 and /32 keep every address.
		if ones <= 30 && (i == 0 || i == count-1) {
			continue
		}
		ips = append(ips, uint32ToIP(addr).String())
	}
	return ips, ipnet.String(), nil
}

func parseDashRange(target string) ([]string, string, error) {
	parts := strings.Split(target, ".")
	if len(parts) != 4 {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRange, target)
	}
	bounds := strings.SplitN(parts[3], "-", 2)
	if len(bounds) != 2 {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRange, target)
	}

	start, err1 := strconv.Atoi(bounds[0])
	end, err2 := strconv.Atoi(bounds[1])
	if err1 != nil || err2 != nil || start < 0 || end > 255 || start > end {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRange, target)
	}

	base := strings.Join(parts[:3], ".")
	if net.ParseIP(base+".0") == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRange, target)
	}
	return hostOctetRange(base, start, end), fmt.Sprintf("%s.%d-%d", base, start, end), nil
}

// NormalizeTarget validates a target expression and returns its normalized
// notation. Distinct spellings of the same range (wildcard, bare IP, CIDR)
// normalize to the same string.
func NormalizeTarget(target string) (string, error) {
	_, network, err := ParseTargetRange(target)
	return network, err
}

func hostOctetRange(base string, start, end int) []string {
	ips := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		ips = append(ips, fmt.Sprintf("%s.%d", base, i))
	}
	return ips
}

func ipToUint32(ip net.IP) uint32 {
	v4 := ip.To4()
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
}

func uint32ToIP(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
