package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"noxscan/config"
	"noxscan/models"

	"github.com/robfig/cron/v3"
)

// ScheduleService runs periodic scans of the configured target ranges,
// feeding results through the regular scan service (persistence + cache).
type ScheduleService struct {
	scheduler   *cron.Cron
	scanService *ScanService
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewScheduleService creates the scheduler around an existing scan service.
func NewScheduleService(scanService *ScanService) *ScheduleService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ScheduleService{
		scheduler:   cron.New(cron.WithLocation(time.Local)),
		scanService: scanService,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start registers the configured schedule and starts the cron loop. A
// disabled scheduler is a no-op.
func (s *ScheduleService) Start() error {
	cfg := config.GetConfig().Scheduler
	if !cfg.Enabled {
		log.Println("[ScheduleService] Scheduler disabled")
		return nil
	}
	if len(cfg.Targets) == 0 {
		log.Println("[ScheduleService] No targets configured, scheduler idle")
		return nil
	}

	mode := models.ScanMode(cfg.Mode)
	if mode != models.ModeQuick && mode != models.ModeFull {
		mode = models.ModeFull
	}

	_, err := s.scheduler.AddFunc(cfg.Cron, func() {
		s.runScheduled(cfg.Targets, mode)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cfg.Cron, err)
	}

	s.scheduler.Start()
	log.Printf("[ScheduleService] Scheduled %s scans of %d ranges with cron %q",
		mode, len(cfg.Targets), cfg.Cron)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *ScheduleService) Stop() {
	s.cancel()
	ctx := s.scheduler.Stop()
	<-ctx.Done()
	log.Println("[ScheduleService] Scheduler stopped")
}

func (s *ScheduleService) runScheduled(targets []string, mode models.ScanMode) {
	for _, target := range targets {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		log.Printf("[ScheduleService] Scheduled scan of %s starting", target)
		result, err := s.scanService.Run(s.ctx, target, mode, nil)
		if err != nil {
			log.Printf("[ScheduleService] Scheduled scan of %s failed: %v", target, err)
			continue
		}
		log.Printf("[ScheduleService] Scheduled scan of %s done: %d devices",
			target, len(result.Devices))
	}
}
