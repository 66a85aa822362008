package scanner

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"noxscan/models"
)

// Phase names reported through the progress callback.
const (
	PhaseDiscovering = "discovering"
	PhaseProbing     = "probing"
	PhaseEnriching   = "enriching"
	PhaseAggregated  = "aggregated"
)

// Options configures one Scanner instance. Zero values fall back to the
// documented defaults; configuration is always passed explicitly, there is
// no package-level scanner.
type Options struct {
	ID               string        // scan id, defaults to a fresh uuid
	DiscoveryWorkers int           // host probes in flight, default 50
	PortWorkers      int           // per-host port connects in flight, default 15
	ProbeTimeout     time.Duration // per network operation, default 1s
	Ports            []int         // candidate ports, default well-known list
	Services         *ServiceTable // service dictionary, default built-in
	QuickSeedSize    int           // max addresses probed in quick mode, default 16

	// Progress, when set, receives phase transitions and per-host counts.
	Progress func(phase string, done, total int)
}

// Scanner runs the discovery pipeline:
// discovering -> probing -> enriching -> aggregated.
// Construct one per invocation; instances are safe for a single Scan call
// each phase of which fans out to bounded worker pools.
type Scanner struct {
	opts       Options
	discoverer *HostDiscoverer
	prober     *PortProber
	enricher   *Enricher
}

// New creates a scanner from opts.
func New(opts Options) *Scanner {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = time.Second
	}
	if opts.QuickSeedSize <= 0 {
		opts.QuickSeedSize = 16
	}
	return &Scanner{
		opts:       opts,
		discoverer: NewHostDiscoverer(opts.DiscoveryWorkers, opts.ProbeTimeout),
		prober:     NewPortProber(opts.PortWorkers, opts.ProbeTimeout, opts.Services),
		enricher:   NewEnricher(opts.ProbeTimeout),
	}
}

// Scan runs the pipeline against target in the given mode. The only failure
// is an unparseable or oversized target range; per-host and per-port errors
// degrade to absent or unknown fields. Cancellation returns the devices
// collected so far; partial results are valid results.
func (s *Scanner) Scan(ctx context.Context, target string, mode models.ScanMode) (*models.ScanResult, error) {
	ips, network, err := ParseTargetRange(target)
	if err != nil {
		return nil, err
	}

	id := s.opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	result := &models.ScanResult{
		ID:          id,
		TargetRange: network,
		Mode:        mode,
		Status:      models.ScanStatusRunning,
		StartedAt:   time.Now(),
	}

	if mode == models.ModeQuick {
		ips = quickSeeds(ips, s.opts.QuickSeedSize)
	}

	s.progress(PhaseDiscovering, 0, len(ips))
	discovered := s.discoverer.Discover(ctx, ips, func(done int) {
		s.progress(PhaseDiscovering, done, len(ips))
	})

	if mode == models.ModeFull {
		s.probePorts(ctx, discovered)
		s.enrichAll(ctx, discovered)
	}

	result.Devices = MergeDevices(discovered)
	result.Statistics = ComputeStatistics(result.Devices)
	result.CompletedAt = time.Now()

	result.Status = models.ScanStatusCompleted
	if ctx.Err() != nil {
		result.Status = models.ScanStatusCanceled
	}
	s.progress(PhaseAggregated, len(result.Devices), len(result.Devices))
	return result, nil
}

// Topology runs a quick scan and reduces it to the flat topology view.
func (s *Scanner) Topology(ctx context.Context, target string) (*models.TopologyView, error) {
	result, err := s.Scan(ctx, target, models.ModeQuick)
	if err != nil {
		return nil, err
	}
	view := BuildTopology(result.Devices)
	return &view, nil
}

// probePorts runs the per-host port probe across all live hosts, composing
// the per-host pool with an outer host-level pool.
func (s *Scanner) probePorts(ctx context.Context, devices []models.Device) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	sem := make(chan struct{}, s.discoverer.Concurrency)
	s.progress(PhaseProbing, 0, len(devices))

	for i := range devices {
		wg.Add(1)
		sem <- struct{}{}
		go func(dev *models.Device) {
			defer wg.Done()
			defer func() { <-sem }()

			open, services := s.prober.Probe(ctx, dev.Address, s.opts.Ports)
			dev.OpenPorts = open
			dev.Services = services

			mu.Lock()
			done++
			s.progress(PhaseProbing, done, len(devices))
			mu.Unlock()
		}(&devices[i])
	}
	wg.Wait()
}

func (s *Scanner) enrichAll(ctx context.Context, devices []models.Device) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	sem := make(chan struct{}, s.discoverer.Concurrency)
	s.progress(PhaseEnriching, 0, len(devices))

	for i := range devices {
		wg.Add(1)
		sem <- struct{}{}
		go func(dev *models.Device) {
			defer wg.Done()
			defer func() { <-sem }()

			s.enricher.Enrich(ctx, dev)

			mu.Lock()
			done++
			s.progress(PhaseEnriching, done, len(devices))
			mu.Unlock()
		}(&devices[i])
	}
	wg.Wait()
}

func (s *Scanner) progress(phase string, done, total int) {
	if s.opts.Progress != nil {
		s.opts.Progress(phase, done, total)
	}
}

// quickSeeds picks a small deterministic seed list from the expanded range:
// the full set when it is already small, otherwise the likely-interesting
// low addresses (gateway and its neighbors) up to max.
func quickSeeds(ips []string, max int) []string {
	if len(ips) <= max {
		return ips
	}
	seeds := make([]string, 0, max)
	for _, ip := range ips {
		if strings.HasSuffix(ip, ".0") {
			continue
		}
		seeds = append(seeds, ip)
		if len(seeds) == max {
			break
		}
	}
	return seeds
}
