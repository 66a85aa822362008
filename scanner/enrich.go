package scanner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"noxscan/models"
)

// bannerMaxPorts bounds how many open ports per host get a banner grab.
const bannerMaxPorts = 5

// bannerMaxLen caps the captured banner text.
const bannerMaxLen = 200

// Enricher augments liveness records with MAC address, OS guess and service
// banners. Every step is individually best-effort: a failing lookup degrades
// its field and never blocks the other steps.
type Enricher struct {
	Timeout time.Duration
}

// NewEnricher creates an enricher with the given per-operation timeout.
func NewEnricher(timeout time.Duration) *Enricher {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Enricher{Timeout: timeout}
}

// Enrich fills in MAC/vendor, OS guess, banners and web metadata on dev.
// The fixed per-device sequence is ports -> banners/OS/MAC, but devices
// enrich concurrently with each other.
func (e *Enricher) Enrich(ctx context.Context, dev *models.Device) {
	if mac := LookupMAC(dev.Address); mac != "" {
		dev.MACAddress = mac
		dev.Vendor = lookupVendor(mac)
		if !dev.HasMethod(models.MethodARP) {
			dev.DiscoveryMethods = append(dev.DiscoveryMethods, models.MethodARP)
		}
	}

	dev.OSGuess = GuessOS(dev.TTL)

	if len(dev.OpenPorts) > 0 {
		dev.Banners = e.grabBanners(ctx, dev.Address, dev.OpenPorts)
		e.enrichWeb(ctx, dev)
	}
}

// GuessOS applies the TTL heuristic: replies originating from Linux/Unix
// stacks usually arrive with TTL <= 64, Windows <= 128, network gear above.
// Approximate by nature; confidence never exceeds medium.
func GuessOS(ttl int) models.OSGuess {
	switch {
	case ttl <= 0:
		return models.OSGuess{Name: "Unknown", Confidence: "low"}
	case ttl <= 64:
		return models.OSGuess{Name: "Linux/Unix", Confidence: "medium"}
	case ttl <= 128:
		return models.OSGuess{Name: "Windows", Confidence: "medium"}
	default:
		return models.OSGuess{Name: "Network Device", Confidence: "low"}
	}
}

// LookupMAC resolves ip's link-layer address from the local ARP table.
// Returns "" when the entry is missing or unreadable.
func LookupMAC(ip string) string {
	if runtime.GOOS == "linux" {
		f, err := os.Open("/proc/net/arp")
		if err == nil {
			defer f.Close()
			if mac := parseARPTable(f, ip); mac != "" {
				return mac
			}
		}
	}

	// Fall back to the arp utility on other platforms (or when procfs
	// had no entry).
	out, err := exec.Command("arp", "-n", ip).Output()
	if err != nil {
		return ""
	}
	return parseARPOutput(string(out), ip)
}

// parseARPTable scans /proc/net/arp content for ip's hardware address.
func parseARPTable(r io.Reader, ip string) string {
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		fields := strings.Fields(scan.Text())
		if len(fields) < 4 || fields[0] != ip {
			continue
		}
		mac := fields[3]
		if mac != "00:00:00:00:00:00" {
			return strings.ToLower(mac)
		}
	}
	return ""
}

// parseARPOutput extracts the MAC from `arp -n <ip>` output, which varies
// between BSD ("at aa:bb:..") and Linux table formats.
func parseARPOutput(out, ip string) string {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, ip) {
			continue
		}
		for _, field := range strings.Fields(line) {
			if _, err := net.ParseMAC(field); err == nil {
				return strings.ToLower(field)
			}
		}
	}
	return ""
}

// ouiVendors is a small OUI prefix table covering common home-lab hardware.
var ouiVendors = map[string]string{
	"dc:a6:32": "Raspberry Pi",
	"b8:27:eb": "Raspberry Pi",
	"d8:3a:dd": "Raspberry Pi",
	"f0:9e:63": "Apple",
	"bc:d1:d3": "Apple",
	"00:03:93": "Apple",
	"00:11:32": "Synology",
	"24:8d:76": "Espressif",
	"84:f3:eb": "Espressif",
	"00:50:56": "VMware",
	"00:0c:29": "VMware",
	"52:54:00": "QEMU/KVM",
	"00:1a:2b": "Cisco",
	"50:e5:49": "Gigabyte",
}

func lookupVendor(mac string) string {
	if len(mac) < 8 {
		return ""
	}
	return ouiVendors[strings.ToLower(mac[:8])]
}

// grabBanners reads the first bytes each service sends after connect, for up
// to bannerMaxPorts open ports. Silent services on web ports get a minimal
// HTTP GET instead. Every failure is swallowed; the banner is simply absent.
func (e *Enricher) grabBanners(ctx context.Context, ip string, ports []int) map[int]string {
	banners := make(map[int]string)

	limit := len(ports)
	if limit > bannerMaxPorts {
		limit = bannerMaxPorts
	}

	for _, port := range ports[:limit] {
		select {
		case <-ctx.Done():
			return banners
		default:
		}
		if banner := e.grabBanner(ctx, ip, port); banner != "" {
			banners[port] = banner
		}
	}
	return banners
}

func (e *Enricher) grabBanner(ctx context.Context, ip string, port int) string {
	dialer := net.Dialer{Timeout: e.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", ip, port))
	if err != nil {
		return ""
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(e.Timeout))
	buf := make([]byte, 512)
	n, _ := conn.Read(buf)

	if n == 0 && IsWebPort(port) {
		fmt.Fprintf(conn, "GET / HTTP/1.0\r\nHost: %s\r\n\r\n", ip)
		conn.SetReadDeadline(time.Now().Add(e.Timeout))
		n, _ = conn.Read(buf)
	}
	if n == 0 {
		return ""
	}

	banner := strings.TrimSpace(string(buf[:n]))
	if len(banner) > bannerMaxLen {
		banner = banner[:bannerMaxLen]
	}
	return banner
}
