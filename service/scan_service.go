package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"noxscan/config"
	"noxscan/database"
	"noxscan/models"
	"noxscan/scanner"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrScanNotFound is returned when a scan id has no stored result.
var ErrScanNotFound = errors.New("scan not found")

// ScanService runs scans and manages stored results. Scan results are
// persisted to MongoDB; the most recent result per target range is cached
// in Redis for dashboard polling.
type ScanService struct {
	progress func(models.ScanProgress)
}

// NewScanService creates a scan service. progress may be nil; when set it
// receives phase updates for every running scan (fed to the WebSocket hub).
func NewScanService(progress func(models.ScanProgress)) *ScanService {
	return &ScanService{progress: progress}
}

// newScanner builds a scanner instance from configuration plus per-request
// overrides. A fresh instance per invocation; no shared scanner state.
func (s *ScanService) newScanner(scanID string, ports []int) *scanner.Scanner {
	cfg := config.GetConfig()
	dict := config.LoadServicesDict(cfg.Scanner.ServicesFile)

	if len(ports) == 0 {
		ports = cfg.Scanner.Ports
	}

	opts := scanner.Options{
		ID:               scanID,
		DiscoveryWorkers: cfg.Scanner.DiscoveryWorkers,
		PortWorkers:      cfg.Scanner.PortWorkers,
		ProbeTimeout:     time.Duration(cfg.Scanner.ProbeTimeout) * time.Second,
		Ports:            ports,
		Services:         scanner.NewServiceTable(dict.Services),
	}
	if s.progress != nil {
		opts.Progress = func(phase string, done, total int) {
			s.progress(models.ScanProgress{ScanID: scanID, Phase: phase, Done: done, Total: total})
		}
	}
	return scanner.New(opts)
}

// Run executes a scan against target and persists the result. Only an
// invalid target range fails; a scan that finds nothing still returns a
// (stored) empty result. Persistence failures are logged, not fatal; the
// in-memory result is always returned.
func (s *ScanService) Run(ctx context.Context, target string, mode models.ScanMode, ports []int) (*models.ScanResult, error) {
	// Reject bad targets before anything is recorded: an invalid range
	// yields the error and no stored result, partial or otherwise.
	network, err := scanner.NormalizeTarget(target)
	if err != nil {
		return nil, err
	}

	scanID := uuid.NewString()
	sc := s.newScanner(scanID, ports)

	log.Printf("[ScanService] Starting %s scan of %s", mode, network)
	s.markRunning(scanID, network, mode)

	result, err := sc.Scan(ctx, target, mode)
	if err != nil {
		return nil, err
	}
	log.Printf("[ScanService] Scan %s finished: %d devices, risk %s",
		result.ID, len(result.Devices), result.Statistics.RiskLevel)

	if err := s.store(result); err != nil {
		log.Printf("[ScanService] Failed to store scan %s: %v", result.ID, err)
	}
	s.cacheLatest(result)

	return result, nil
}

// markRunning records the scan before the pipeline starts so it is visible
// in listings while in flight. Failures are logged, not fatal.
func (s *ScanService) markRunning(scanID, target string, mode models.ScanMode) {
	ctx, cancel := database.NewContext()
	defer cancel()

	collection := database.GetCollection(models.CollectionScans)
	_, err := collection.InsertOne(ctx, &models.ScanResult{
		ID:          scanID,
		TargetRange: target,
		Mode:        mode,
		Status:      models.ScanStatusRunning,
		StartedAt:   time.Now(),
	})
	if err != nil {
		log.Printf("[ScanService] Failed to record running scan %s: %v", scanID, err)
	}
}

// store replaces the running record with the final result. Upsert covers the
// case where the initial insert never made it.
func (s *ScanService) store(result *models.ScanResult) error {
	ctx, cancel := database.NewLongContext()
	defer cancel()

	collection := database.GetCollection(models.CollectionScans)
	_, err := collection.ReplaceOne(ctx, bson.M{"_id": result.ID}, result,
		options.Replace().SetUpsert(true))
	return err
}

// cacheLatest keeps the newest result per target range in Redis for cheap
// dashboard reads. Cache failures are silently ignored.
func (s *ScanService) cacheLatest(result *models.ScanResult) {
	cfg := config.GetConfig()
	ttl := time.Duration(cfg.Scanner.CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	database.GetRedis().Set(ctx, latestCacheKey(result.TargetRange), data, ttl)
}

// GetLatest returns the cached most-recent result for a target range, if any.
// The target is normalized first so every spelling of a range hits the entry
// written under its canonical form.
func (s *ScanService) GetLatest(targetRange string) (*models.ScanResult, bool) {
	network, err := scanner.NormalizeTarget(targetRange)
	if err != nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := database.GetRedis().Get(ctx, latestCacheKey(network)).Bytes()
	if err != nil {
		return nil, false
	}
	var result models.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func latestCacheKey(targetRange string) string {
	return fmt.Sprintf("noxscan:latest:%s", targetRange)
}

// Topology runs a fresh quick scan of target and reduces it to the flat
// topology view. Topology lookups are ephemeral; nothing is persisted.
func (s *ScanService) Topology(ctx context.Context, target string) (*models.TopologyView, error) {
	sc := s.newScanner(uuid.NewString(), nil)
	return sc.Topology(ctx, target)
}

// GetByID retrieves a stored scan result.
func (s *ScanService) GetByID(scanID string) (*models.ScanResult, error) {
	ctx, cancel := database.NewContext()
	defer cancel()

	collection := database.GetCollection(models.CollectionScans)

	var result models.ScanResult
	err := collection.FindOne(ctx, bson.M{"_id": scanID}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load scan: %w", err)
	}
	return &result, nil
}

// List returns stored scans, newest first, with pagination.
func (s *ScanService) List(page, pageSize int) ([]*models.ScanResult, int64, error) {
	ctx, cancel := database.NewContext()
	defer cancel()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	collection := database.GetCollection(models.CollectionScans)

	total, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count scans: %w", err)
	}

	opts := options.Find().
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize)).
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetProjection(bson.M{"devices": 0})

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list scans: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*models.ScanResult
	if err = cursor.All(ctx, &results); err != nil {
		return nil, 0, fmt.Errorf("decode scans: %w", err)
	}
	return results, total, nil
}

// Delete removes a stored scan result.
func (s *ScanService) Delete(scanID string) error {
	ctx, cancel := database.NewContext()
	defer cancel()

	collection := database.GetCollection(models.CollectionScans)
	res, err := collection.DeleteOne(ctx, bson.M{"_id": scanID})
	if err != nil {
		return fmt.Errorf("delete scan: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrScanNotFound
	}
	return nil
}
