package scanner

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"
)

// PortProber checks a candidate port list against a single host with one TCP
// connect attempt per port. Transient failures count as closed; there are no
// retries, trading completeness for speed.
type PortProber struct {
	Concurrency int
	Timeout     time.Duration
	Services    *ServiceTable
}

// NewPortProber creates a prober with the given per-host worker pool bound.
func NewPortProber(concurrency int, timeout time.Duration, services *ServiceTable) *PortProber {
	if concurrency <= 0 {
		concurrency = 15
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	if services == nil {
		services = NewServiceTable(nil)
	}
	return &PortProber{Concurrency: concurrency, Timeout: timeout, Services: services}
}

// Probe returns the subset of ports accepting a TCP connection on ip,
// sorted ascending, with each mapped to its service label. A host that
// refuses every connect yields an empty set, not an error.
func (p *PortProber) Probe(ctx context.Context, ip string, ports []int) ([]int, map[int]string) {
	if len(ports) == 0 {
		ports = DefaultPorts()
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		open []int
	)
	sem := make(chan struct{}, p.Concurrency)
	dialer := net.Dialer{Timeout: p.Timeout}

	for _, port := range ports {
		select {
		case <-ctx.Done():
			wg.Wait()
			return p.finish(open)
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(port int) {
			defer wg.Done()
			defer func() { <-sem }()

			conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", ip, port))
			if err != nil {
				return
			}
			conn.Close()

			mu.Lock()
			open = append(open, port)
			mu.Unlock()
		}(port)
	}

	wg.Wait()
	return p.finish(open)
}

func (p *PortProber) finish(open []int) ([]int, map[int]string) {
	sort.Ints(open)
	services := make(map[int]string, len(open))
	for _, port := range open {
		services[port] = p.Services.Lookup(port)
	}
	return open, services
}
