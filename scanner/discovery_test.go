package scanner

import (
	"context"
	"testing"
	"time"

	"noxscan/models"
)

// withAlivePorts points the TCP liveness fallback at the given ports for the
// duration of a test.
func withAlivePorts(t *testing.T, ports []int) {
	t.Helper()
	saved := alivePorts
	alivePorts = ports
	t.Cleanup(func() { alivePorts = saved })
}

func TestDiscoverFindsLoopback(t *testing.T) {
	ln, port := listenLoopback(t)
	acceptAll(ln)
	withAlivePorts(t, []int{port})

	d := NewHostDiscoverer(4, 500*time.Millisecond)
	devices := d.Discover(context.Background(), []string{"127.0.0.1"}, nil)

	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	dev := devices[0]
	if dev.Address != "127.0.0.1" {
		t.Errorf("address = %q, want 127.0.0.1", dev.Address)
	}
	if dev.MACAddress != models.Unknown {
		t.Errorf("mac should default to unknown before enrichment, got %q", dev.MACAddress)
	}
	if len(dev.DiscoveryMethods) != 1 {
		t.Errorf("expected exactly one discovery method, got %v", dev.DiscoveryMethods)
	}
	if dev.LastSeen.IsZero() {
		t.Error("last seen not stamped")
	}
}

func TestDiscoverExcludesDeadHosts(t *testing.T) {
	// TEST-NET-1 is guaranteed unroutable; probes must time out quietly.
	withAlivePorts(t, []int{9})

	d := NewHostDiscoverer(4, 200*time.Millisecond)
	devices := d.Discover(context.Background(), []string{"192.0.2.1", "192.0.2.2"}, nil)

	if len(devices) != 0 {
		t.Fatalf("expected no devices from unroutable range, got %d", len(devices))
	}
}

func TestDiscoverReportsProgress(t *testing.T) {
	withAlivePorts(t, []int{9})

	var last int
	d := NewHostDiscoverer(2, 200*time.Millisecond)
	d.Discover(context.Background(), []string{"192.0.2.1", "192.0.2.2", "192.0.2.3"}, func(done int) {
		last = done
	})

	if last != 3 {
		t.Errorf("final progress = %d, want 3", last)
	}
}

func TestDiscoverHonorsCancellation(t *testing.T) {
	withAlivePorts(t, []int{9})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewHostDiscoverer(2, 200*time.Millisecond)
	devices := d.Discover(ctx, []string{"192.0.2.1", "192.0.2.2"}, nil)

	// Partial results are valid results; here that means none.
	if len(devices) != 0 {
		t.Errorf("expected no devices after cancellation, got %d", len(devices))
	}
}

func TestQuickSeedsBoundsLargeRanges(t *testing.T) {
	ips, _, err := ParseTargetRange("10.0.0.0/24")
	if err != nil {
		t.Fatalf("ParseTargetRange returned error: %v", err)
	}

	seeds := quickSeeds(ips, 16)
	if len(seeds) != 16 {
		t.Fatalf("expected 16 seeds, got %d", len(seeds))
	}
	if seeds[0] != "10.0.0.1" {
		t.Errorf("first seed = %q, want the gateway-ish .1", seeds[0])
	}

	small := []string{"10.0.0.1", "10.0.0.2"}
	if got := quickSeeds(small, 16); len(got) != 2 {
		t.Errorf("small ranges should pass through, got %v", got)
	}
}

func TestTCPFallbackFindsListener(t *testing.T) {
	ln, port := listenLoopback(t)
	acceptAll(ln)
	// A dead port ahead of the live one must not mask it.
	withAlivePorts(t, []int{9, port})

	d := NewHostDiscoverer(1, 500*time.Millisecond)
	if !d.tcpAlive(context.Background(), "127.0.0.1") {
		t.Error("listener on a fallback port not detected")
	}
}

func TestTCPFallbackSharesOneDeadline(t *testing.T) {
	// Seven blackholed ports; the fallback dials them concurrently, so the
	// whole check costs one timeout, not seven.
	withAlivePorts(t, []int{9, 19, 29, 39, 49, 59, 69})

	d := NewHostDiscoverer(1, 300*time.Millisecond)
	start := time.Now()
	if d.tcpAlive(context.Background(), "192.0.2.1") {
		t.Fatal("unroutable host reported alive")
	}
	if elapsed := time.Since(start); elapsed > 3*d.Timeout {
		t.Errorf("fallback took %v, want roughly one timeout (%v)", elapsed, d.Timeout)
	}
}
