package scanner

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"noxscan/models"
)

// alivePorts are tried as a TCP fallback when ICMP ping fails (hosts or
// networks that drop echo requests).
var alivePorts = []int{80, 443, 22, 445, 139, 3389, 8080}

var ttlPattern = regexp.MustCompile(`(?i)ttl[=|:](\d+)`)

// HostDiscoverer sweeps an address list and reports the hosts that answered
// at least one liveness probe. Non-responding hosts are excluded, never
// reported as errors.
type HostDiscoverer struct {
	Concurrency int
	Timeout     time.Duration
}

// NewHostDiscoverer creates a discoverer with the given worker pool bound.
func NewHostDiscoverer(concurrency int, timeout time.Duration) *HostDiscoverer {
	if concurrency <= 0 {
		concurrency = 50
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	return &HostDiscoverer{Concurrency: concurrency, Timeout: timeout}
}

// Discover probes every address in ips in parallel and returns a partial
// device record for each responder. Order is discovery order, not input
// order. Cancellation abandons in-flight probes but keeps collected results.
func (d *HostDiscoverer) Discover(ctx context.Context, ips []string, progress func(done int)) []models.Device {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		devices []models.Device
		done    int
	)
	sem := make(chan struct{}, d.Concurrency)

	for _, ip := range ips {
		select {
		case <-ctx.Done():
			wg.Wait()
			return devices
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(addr string) {
			defer wg.Done()
			defer func() { <-sem }()

			dev, alive := d.probeHost(ctx, addr)

			mu.Lock()
			if alive {
				devices = append(devices, dev)
			}
			done++
			if progress != nil {
				progress(done)
			}
			mu.Unlock()
		}(ip)
	}

	wg.Wait()
	return devices
}

// probeHost runs one liveness check: ping first, then a TCP fallback.
func (d *HostDiscoverer) probeHost(ctx context.Context, ip string) (models.Device, bool) {
	start := time.Now()

	method := models.MethodPing
	ttl, ok := d.ping(ctx, ip)
	if !ok {
		if !d.tcpAlive(ctx, ip) {
			return models.Device{}, false
		}
		method = models.MethodTCP
	}

	elapsed := time.Since(start).Milliseconds()

	dev := models.Device{
		Address:          ip,
		Hostnames:        []string{resolveHostname(ctx, ip, d.Timeout)},
		MACAddress:       models.Unknown,
		Services:         map[int]string{},
		ResponseTimeMs:   elapsed,
		TTL:              ttl,
		LastSeen:         time.Now(),
		DiscoveryMethods: []models.DiscoveryMethod{method},
	}
	return dev, true
}

// ping shells out to the platform ping utility and parses the reply TTL.
// Returns ok=false when the host did not answer within the timeout.
func (d *HostDiscoverer) ping(ctx context.Context, ip string) (ttl int, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout+500*time.Millisecond)
	defer cancel()

	secs := int(d.Timeout.Seconds())
	if secs < 1 {
		secs = 1
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "ping", "-n", "1", "-w", strconv.Itoa(secs*1000), ip)
	case "darwin":
		cmd = exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(secs*1000), ip)
	default:
		cmd = exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(secs), ip)
	}

	out, err := cmd.Output()
	if err != nil {
		return 0, false
	}
	if m := ttlPattern.FindSubmatch(out); m != nil {
		ttl, _ = strconv.Atoi(string(m[1]))
	}
	return ttl, true
}

// tcpAlive tries a handful of common ports concurrently under one shared
// deadline; any accepted connection counts as alive. The whole fallback
// costs at most one Timeout, not one per port.
func (d *HostDiscoverer) tcpAlive(ctx context.Context, ip string) bool {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	results := make(chan bool, len(alivePorts))
	var dialer net.Dialer
	for _, port := range alivePorts {
		go func(port int) {
			conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", ip, port))
			if err == nil {
				conn.Close()
			}
			results <- err == nil
		}(port)
	}

	for range alivePorts {
		if <-results {
			return true
		}
	}
	return false
}

// resolveHostname does a best-effort reverse DNS lookup. Failures degrade to
// the unknown sentinel rather than aborting the scan.
func resolveHostname(ctx context.Context, ip string, timeout time.Duration) string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	names, err := net.DefaultResolver.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		return models.Unknown
	}
	return strings.TrimSuffix(names[0], ".")
}
