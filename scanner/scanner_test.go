package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"noxscan/models"
)

func TestScanFullLoopback(t *testing.T) {
	ln, port := listenLoopback(t)
	acceptAll(ln)
	withAlivePorts(t, []int{port})

	s := New(Options{
		DiscoveryWorkers: 4,
		PortWorkers:      4,
		ProbeTimeout:     500 * time.Millisecond,
		Ports:            []int{port},
		Services:         NewServiceTable(map[int]string{port: "HTTP"}),
	})

	result, err := s.Scan(context.Background(), "127.0.0.1/32", models.ModeFull)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if len(result.Devices) != 1 {
		t.Fatalf("expected exactly 1 device, got %d", len(result.Devices))
	}
	dev := result.Devices[0]
	if dev.Address != "127.0.0.1" {
		t.Errorf("address = %q, want 127.0.0.1", dev.Address)
	}
	if !dev.HasPort(port) {
		t.Errorf("open ports %v missing %d", dev.OpenPorts, port)
	}
	if dev.Services[port] != "HTTP" {
		t.Errorf("service label = %q, want HTTP", dev.Services[port])
	}
	if result.Status != models.ScanStatusCompleted {
		t.Errorf("status = %q, want completed", result.Status)
	}
	if result.Statistics.TotalDevices != 1 || result.Statistics.DevicesWithPorts != 1 {
		t.Errorf("unexpected statistics: %+v", result.Statistics)
	}
	if result.CompletedAt.Before(result.StartedAt) {
		t.Error("completedAt precedes startedAt")
	}
	if result.ID == "" {
		t.Error("scan id not assigned")
	}
}

func TestScanQuickSkipsPortProbe(t *testing.T) {
	ln, port := listenLoopback(t)
	acceptAll(ln)
	withAlivePorts(t, []int{port})

	s := New(Options{
		DiscoveryWorkers: 4,
		ProbeTimeout:     500 * time.Millisecond,
		Ports:            []int{port},
	})

	result, err := s.Scan(context.Background(), "127.0.0.1/32", models.ModeQuick)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(result.Devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(result.Devices))
	}
	// Quick mode reports liveness only: empty open-port set.
	if len(result.Devices[0].OpenPorts) != 0 {
		t.Errorf("quick mode probed ports: %v", result.Devices[0].OpenPorts)
	}
}

func TestScanLiveHostWithNoOpenPortsStillListed(t *testing.T) {
	ln, port := listenLoopback(t)
	acceptAll(ln)
	withAlivePorts(t, []int{port})

	// Probe a port nothing listens on: a closed listener's former port.
	dead, deadPort := listenLoopback(t)
	dead.Close()

	s := New(Options{
		DiscoveryWorkers: 4,
		PortWorkers:      4,
		ProbeTimeout:     300 * time.Millisecond,
		Ports:            []int{deadPort},
	})

	result, err := s.Scan(context.Background(), "127.0.0.1/32", models.ModeFull)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(result.Devices) != 1 {
		t.Fatalf("live host with zero open ports must still appear, got %d devices", len(result.Devices))
	}
	if len(result.Devices[0].OpenPorts) != 0 {
		t.Errorf("expected empty port set, got %v", result.Devices[0].OpenPorts)
	}
}

func TestScanInvalidRange(t *testing.T) {
	s := New(Options{})

	result, err := s.Scan(context.Background(), "not-an-ip/99", models.ModeFull)
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if result != nil {
		t.Error("expected no partial result for invalid range")
	}
}

func TestScanRangeTooLarge(t *testing.T) {
	s := New(Options{})

	_, err := s.Scan(context.Background(), "10.0.0.0/8", models.ModeFull)
	if !errors.Is(err, ErrRangeTooLarge) {
		t.Fatalf("expected ErrRangeTooLarge, got %v", err)
	}
}

func TestScanUsesProvidedID(t *testing.T) {
	withAlivePorts(t, []int{9})

	s := New(Options{ID: "scan-123", ProbeTimeout: 200 * time.Millisecond})
	result, err := s.Scan(context.Background(), "192.0.2.1/32", models.ModeQuick)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if result.ID != "scan-123" {
		t.Errorf("scan id = %q, want scan-123", result.ID)
	}
	// Scan ran and found nothing: still a result, never an error.
	if len(result.Devices) != 0 {
		t.Errorf("expected empty device list, got %d", len(result.Devices))
	}
}

func TestScanProgressPhases(t *testing.T) {
	ln, port := listenLoopback(t)
	acceptAll(ln)
	withAlivePorts(t, []int{port})

	seen := map[string]bool{}
	s := New(Options{
		ProbeTimeout: 500 * time.Millisecond,
		Ports:        []int{port},
		Progress: func(phase string, done, total int) {
			seen[phase] = true
		},
	})

	if _, err := s.Scan(context.Background(), "127.0.0.1/32", models.ModeFull); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	for _, phase := range []string{PhaseDiscovering, PhaseProbing, PhaseEnriching, PhaseAggregated} {
		if !seen[phase] {
			t.Errorf("progress never reported phase %q", phase)
		}
	}
}

func TestScanCanceledMidPipelineKeepsPartialResults(t *testing.T) {
	ln, port := listenLoopback(t)
	acceptAll(ln)
	withAlivePorts(t, []int{port})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(Options{
		DiscoveryWorkers: 4,
		PortWorkers:      4,
		ProbeTimeout:     500 * time.Millisecond,
		Ports:            []int{port},
		Progress: func(phase string, done, total int) {
			// Pull the plug once discovery has delivered its devices.
			if phase == PhaseProbing {
				cancel()
			}
		},
	})

	result, err := s.Scan(ctx, "127.0.0.1/32", models.ModeFull)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if result.Status != models.ScanStatusCanceled {
		t.Errorf("status = %q, want canceled", result.Status)
	}
	// Devices collected before cancellation survive in the result.
	if len(result.Devices) != 1 {
		t.Fatalf("expected the discovered device in the partial result, got %d", len(result.Devices))
	}
	if result.Devices[0].Address != "127.0.0.1" {
		t.Errorf("address = %q, want 127.0.0.1", result.Devices[0].Address)
	}
}

func TestTopologyQuickScan(t *testing.T) {
	ln, port := listenLoopback(t)
	acceptAll(ln)
	withAlivePorts(t, []int{port})

	s := New(Options{
		DiscoveryWorkers: 4,
		ProbeTimeout:     500 * time.Millisecond,
	})

	view, err := s.Topology(context.Background(), "127.0.0.1/32")
	if err != nil {
		t.Fatalf("Topology returned error: %v", err)
	}
	if len(view.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(view.Nodes))
	}
	if view.Nodes[0].Address != "127.0.0.1" {
		t.Errorf("node address = %q, want 127.0.0.1", view.Nodes[0].Address)
	}
}

func TestTopologyInvalidRange(t *testing.T) {
	s := New(Options{})

	if _, err := s.Topology(context.Background(), "not-an-ip"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}
