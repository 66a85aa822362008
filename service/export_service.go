package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"noxscan/models"
)

// ExportSchemaVersion is stamped into every export for forward
// compatibility; the source format never versioned its files.
const ExportSchemaVersion = 1

// ExportDocument is the on-disk JSON layout of an exported scan.
type ExportDocument struct {
	SchemaVersion int             `json:"schemaVersion"`
	ScanInfo      ExportScanInfo  `json:"scanInfo"`
	Devices       []models.Device `json:"devices"`
}

// ExportScanInfo carries the scan-level fields of an export.
type ExportScanInfo struct {
	ID          string            `json:"id"`
	TargetRange string            `json:"targetRange"`
	Mode        models.ScanMode   `json:"mode"`
	StartedAt   time.Time         `json:"startedAt"`
	CompletedAt time.Time         `json:"completedAt"`
	Statistics  models.Statistics `json:"statistics"`
}

// ExportService serializes scan results to timestamped JSON files and loads
// them back. Loading is a straight deserialization, no merge semantics.
type ExportService struct {
	outputDir string
}

// NewExportService creates an exporter writing into outputDir.
func NewExportService(outputDir string) *ExportService {
	if outputDir == "" {
		outputDir = "./exports"
	}
	os.MkdirAll(outputDir, 0755)
	return &ExportService{outputDir: outputDir}
}

// Export writes result to a timestamped JSON file and returns its path.
// An I/O failure here is an export failure only: the caller still holds
// the in-memory result.
func (e *ExportService) Export(result *models.ScanResult) (string, error) {
	filename := filepath.Join(e.outputDir,
		fmt.Sprintf("scan_%s_%s.json", result.ID, time.Now().Format("20060102_150405")))

	doc := ExportDocument{
		SchemaVersion: ExportSchemaVersion,
		ScanInfo: ExportScanInfo{
			ID:          result.ID,
			TargetRange: result.TargetRange,
			Mode:        result.Mode,
			StartedAt:   result.StartedAt,
			CompletedAt: result.CompletedAt,
			Statistics:  result.Statistics,
		},
		Devices: result.Devices,
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}

	return filename, nil
}

// Load reads an exported scan back from disk.
func (e *ExportService) Load(path string) (*models.ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}

	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse export file: %w", err)
	}

	return &models.ScanResult{
		ID:          doc.ScanInfo.ID,
		TargetRange: doc.ScanInfo.TargetRange,
		Mode:        doc.ScanInfo.Mode,
		Status:      models.ScanStatusCompleted,
		Devices:     doc.Devices,
		StartedAt:   doc.ScanInfo.StartedAt,
		CompletedAt: doc.ScanInfo.CompletedAt,
		Statistics:  doc.ScanInfo.Statistics,
	}, nil
}
