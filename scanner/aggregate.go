package scanner

import (
	"sort"
	"strings"

	"noxscan/models"
)

// highRiskPorts flag a finding when open (cleartext administrative access).
var highRiskPorts = map[int]bool{21: true, 23: true}

// manyPortsThreshold flags hosts exposing an unusually wide surface.
const manyPortsThreshold = 10

// MergeDevices folds partial device records produced by independent
// discovery methods into one record per address. The merge is commutative
// and idempotent: port sets and per-port maps are unioned, and a known
// hostname or MAC is never overwritten by an unknown one.
func MergeDevices(batches ...[]models.Device) []models.Device {
	byAddr := make(map[string]*models.Device)
	var order []string

	for _, batch := range batches {
		for i := range batch {
			rec := batch[i]
			existing, ok := byAddr[rec.Address]
			if !ok {
				merged := cloneDevice(rec)
				byAddr[rec.Address] = &merged
				order = append(order, rec.Address)
				continue
			}
			mergeInto(existing, &rec)
		}
	}

	out := make([]models.Device, 0, len(order))
	for _, addr := range order {
		out = append(out, *byAddr[addr])
	}
	return out
}

func cloneDevice(d models.Device) models.Device {
	c := d
	c.Hostnames = dedupeKnown(nil, d.Hostnames)
	c.OpenPorts = append([]int(nil), d.OpenPorts...)
	sort.Ints(c.OpenPorts)
	c.Services = copyPortMap(d.Services)
	c.Banners = copyPortMap(d.Banners)
	c.DiscoveryMethods = append([]models.DiscoveryMethod(nil), d.DiscoveryMethods...)
	if c.MACAddress == "" {
		c.MACAddress = models.Unknown
	}
	if c.Services == nil {
		c.Services = map[int]string{}
	}
	return c
}

func mergeInto(dst, src *models.Device) {
	dst.Hostnames = dedupeKnown(dst.Hostnames, src.Hostnames)

	// Union of open ports, kept sorted.
	seen := make(map[int]bool, len(dst.OpenPorts))
	for _, p := range dst.OpenPorts {
		seen[p] = true
	}
	for _, p := range src.OpenPorts {
		if !seen[p] {
			dst.OpenPorts = append(dst.OpenPorts, p)
			seen[p] = true
		}
	}
	sort.Ints(dst.OpenPorts)

	// Per-port maps union; on conflict the non-generic label wins.
	for port, label := range src.Services {
		cur, ok := dst.Services[port]
		if !ok || isGenericLabel(cur) && !isGenericLabel(label) {
			dst.Services[port] = label
		}
	}
	for port, banner := range src.Banners {
		if dst.Banners == nil {
			dst.Banners = map[int]string{}
		}
		if dst.Banners[port] == "" {
			dst.Banners[port] = banner
		}
	}

	// First non-unknown value wins for identity fields.
	if isUnknown(dst.MACAddress) && !isUnknown(src.MACAddress) {
		dst.MACAddress = src.MACAddress
	}
	if dst.Vendor == "" {
		dst.Vendor = src.Vendor
	}
	if dst.WebTitle == "" {
		dst.WebTitle = src.WebTitle
	}
	if dst.FaviconHash == 0 {
		dst.FaviconHash = src.FaviconHash
	}
	if dst.TTL == 0 {
		dst.TTL = src.TTL
	}
	if dst.OSGuess.Name == "" || dst.OSGuess.Name == "Unknown" && src.OSGuess.Name != "" {
		dst.OSGuess = src.OSGuess
	}
	if dst.ResponseTimeMs == 0 {
		dst.ResponseTimeMs = src.ResponseTimeMs
	}
	if src.LastSeen.After(dst.LastSeen) {
		dst.LastSeen = src.LastSeen
	}

	for _, m := range src.DiscoveryMethods {
		if !dst.HasMethod(m) {
			dst.DiscoveryMethods = append(dst.DiscoveryMethods, m)
		}
	}
}

func dedupeKnown(dst, src []string) []string {
	for _, name := range src {
		if isUnknown(name) {
			continue
		}
		found := false
		for _, have := range dst {
			if have == name {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, name)
		}
	}
	return dst
}

func isUnknown(v string) bool {
	return v == "" || strings.EqualFold(v, models.Unknown)
}

func isGenericLabel(label string) bool {
	return label == "" || label == models.ServiceUnknown
}

func copyPortMap(m map[int]string) map[int]string {
	if m == nil {
		return nil
	}
	c := make(map[int]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// ComputeStatistics derives aggregate counts and the coarse risk bucket.
// Findings: a flagged high-risk port (telnet/ftp) on any host, or any host
// with more than manyPortsThreshold open ports.
func ComputeStatistics(devices []models.Device) models.Statistics {
	stats := models.Statistics{TotalDevices: len(devices)}

	for _, dev := range devices {
		if len(dev.OpenPorts) > 0 {
			stats.DevicesWithPorts++
		}
		stats.TotalOpenPorts += len(dev.OpenPorts)

		for _, port := range dev.OpenPorts {
			if highRiskPorts[port] {
				stats.FlaggedFindings++
			}
		}
		if len(dev.OpenPorts) > manyPortsThreshold {
			stats.FlaggedFindings++
		}
	}

	switch {
	case stats.FlaggedFindings == 0:
		stats.RiskLevel = models.RiskLow
	case stats.FlaggedFindings <= 2:
		stats.RiskLevel = models.RiskMedium
	default:
		stats.RiskLevel = models.RiskHigh
	}
	return stats
}

// BuildTopology derives the flat topology view: one node per device and a
// heuristic gateway (the .1 address if present, else the node with the most
// open ports). No edge discovery is performed.
func BuildTopology(devices []models.Device) models.TopologyView {
	view := models.TopologyView{Nodes: make([]models.TopologyNode, 0, len(devices))}

	bestPorts := -1
	for _, dev := range devices {
		hostname := ""
		if len(dev.Hostnames) > 0 {
			hostname = dev.Hostnames[0]
		}
		view.Nodes = append(view.Nodes, models.TopologyNode{
			Address:   dev.Address,
			Hostname:  hostname,
			PortCount: len(dev.OpenPorts),
		})

		if strings.HasSuffix(dev.Address, ".1") {
			view.Gateway = dev.Address
			bestPorts = 1 << 30
		} else if len(dev.OpenPorts) > bestPorts {
			bestPorts = len(dev.OpenPorts)
			view.Gateway = dev.Address
		}
	}
	return view
}
