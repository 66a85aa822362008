package models

import (
	"time"
)

// Collection names
const (
	CollectionScans     = "scans"
	CollectionAuditLogs = "audit_logs"
)

// ScanMode selects how much of the pipeline runs.
type ScanMode string

const (
	ModeQuick ScanMode = "quick" // liveness only, no port probing
	ModeFull  ScanMode = "full"  // discovery, port probe, enrichment, aggregation
)

// Scan status values
const (
	ScanStatusPending   = "pending"
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusCanceled  = "canceled"
)

// RiskLevel is the coarse risk bucket computed from flagged findings.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Statistics holds counts derived from a completed scan.
type Statistics struct {
	TotalDevices     int       `json:"total_devices" bson:"total_devices"`
	DevicesWithPorts int       `json:"devices_with_ports" bson:"devices_with_ports"`
	TotalOpenPorts   int       `json:"total_open_ports" bson:"total_open_ports"`
	FlaggedFindings  int       `json:"flagged_findings" bson:"flagged_findings"`
	RiskLevel        RiskLevel `json:"risk_level" bson:"risk_level"`
}

// ScanResult is the immutable output of one scan invocation. Devices are
// reported in discovery order; callers must treat the slice as an unordered
// set keyed by address.
type ScanResult struct {
	ID          string     `json:"id" bson:"_id"`
	TargetRange string     `json:"target_range" bson:"target_range"`
	Mode        ScanMode   `json:"mode" bson:"mode"`
	Status      string     `json:"status" bson:"status"`
	Devices     []Device   `json:"devices" bson:"devices"`
	StartedAt   time.Time  `json:"started_at" bson:"started_at"`
	CompletedAt time.Time  `json:"completed_at" bson:"completed_at"`
	Statistics  Statistics `json:"statistics" bson:"statistics"`
}

// TopologyNode is one device in the flat topology view.
type TopologyNode struct {
	Address   string `json:"address"`
	Hostname  string `json:"hostname"`
	PortCount int    `json:"port_count"`
}

// TopologyView is a flat node list with a heuristically guessed gateway.
// No real edge discovery is performed.
type TopologyView struct {
	Nodes   []TopologyNode `json:"nodes"`
	Gateway string         `json:"gateway,omitempty"`
}

// AuditLog records a mutating API request.
type AuditLog struct {
	Action    string    `json:"action" bson:"action"`
	Path      string    `json:"path" bson:"path"`
	IP        string    `json:"ip" bson:"ip"`
	UserAgent string    `json:"user_agent" bson:"user_agent"`
	Status    int       `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ScanProgress is pushed to WebSocket subscribers while a scan runs.
type ScanProgress struct {
	ScanID string `json:"scan_id"`
	Phase  string `json:"phase"` // discovering, probing, enriching, aggregated
	Done   int    `json:"done"`
	Total  int    `json:"total"`
}
