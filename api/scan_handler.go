package api

import (
	"context"
	"errors"
	"strconv"
	"time"

	"noxscan/models"
	"noxscan/scanner"
	"noxscan/service"
	"noxscan/utils"

	"github.com/gin-gonic/gin"
)

type ScanHandler struct {
	scanService   *service.ScanService
	exportService *service.ExportService
}

func NewScanHandler(scanService *service.ScanService, exportService *service.ExportService) *ScanHandler {
	return &ScanHandler{
		scanService:   scanService,
		exportService: exportService,
	}
}

// StartScan runs a scan synchronously and returns the full result.
// POST /api/scans
func (h *ScanHandler) StartScan(c *gin.Context) {
	var req struct {
		Target  string `json:"target" binding:"required"`
		Mode    string `json:"mode"`
		Ports   []int  `json:"ports"`
		Timeout int    `json:"timeout"` // overall deadline, seconds
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	mode := models.ScanMode(req.Mode)
	if mode == "" {
		mode = models.ModeFull
	}
	if mode != models.ModeQuick && mode != models.ModeFull {
		utils.BadRequest(c, "mode must be quick or full")
		return
	}

	timeout := 10 * time.Minute
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	result, err := h.scanService.Run(ctx, req.Target, mode, req.Ports)
	if err != nil {
		// A bad range is the caller's fault; everything else is swallowed
		// into the result by contract.
		if errors.Is(err, scanner.ErrInvalidRange) || errors.Is(err, scanner.ErrRangeTooLarge) {
			utils.BadRequest(c, err.Error())
			return
		}
		utils.InternalError(c, "scan failed: "+err.Error())
		return
	}
	utils.Success(c, result)
}

// ListScans returns stored scan summaries, newest first.
// GET /api/scans?page=1&size=20
func (h *ScanHandler) ListScans(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	scans, total, err := h.scanService.List(page, size)
	if err != nil {
		utils.InternalError(c, "failed to list scans: "+err.Error())
		return
	}
	utils.SuccessWithPagination(c, scans, total, page, size)
}

// GetScan returns one stored scan result.
// GET /api/scans/:id
func (h *ScanHandler) GetScan(c *gin.Context) {
	result, err := h.scanService.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrScanNotFound) {
			utils.NotFound(c, "scan not found")
			return
		}
		utils.InternalError(c, err.Error())
		return
	}
	utils.Success(c, result)
}

// DeleteScan removes a stored scan result.
// DELETE /api/scans/:id
func (h *ScanHandler) DeleteScan(c *gin.Context) {
	err := h.scanService.Delete(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrScanNotFound) {
			utils.NotFound(c, "scan not found")
			return
		}
		utils.InternalError(c, err.Error())
		return
	}
	utils.Success(c, nil)
}

// GetScanTopology reduces a stored scan to the flat topology view.
// GET /api/scans/:id/topology
func (h *ScanHandler) GetScanTopology(c *gin.Context) {
	result, err := h.scanService.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrScanNotFound) {
			utils.NotFound(c, "scan not found")
			return
		}
		utils.InternalError(c, err.Error())
		return
	}
	utils.Success(c, scanner.BuildTopology(result.Devices))
}

// ExportScan writes a stored scan to a JSON export file.
// POST /api/scans/:id/export
func (h *ScanHandler) ExportScan(c *gin.Context) {
	result, err := h.scanService.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrScanNotFound) {
			utils.NotFound(c, "scan not found")
			return
		}
		utils.InternalError(c, err.Error())
		return
	}

	path, err := h.exportService.Export(result)
	if err != nil {
		// Export failure is distinct from scan failure; the stored result
		// is untouched.
		utils.InternalError(c, "export failed: "+err.Error())
		return
	}
	utils.Success(c, gin.H{"path": path})
}

// GetTopology runs a fresh quick scan of target and returns its topology.
// GET /api/topology?target=192.168.1.0/24
func (h *ScanHandler) GetTopology(c *gin.Context) {
	target := c.Query("target")
	if target == "" {
		utils.BadRequest(c, "target parameter required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	view, err := h.scanService.Topology(ctx, target)
	if err != nil {
		if errors.Is(err, scanner.ErrInvalidRange) || errors.Is(err, scanner.ErrRangeTooLarge) {
			utils.BadRequest(c, err.Error())
			return
		}
		utils.InternalError(c, "scan failed: "+err.Error())
		return
	}
	utils.Success(c, view)
}

// GetLatest returns the cached most recent result for a target range.
// GET /api/scans/latest?target=192.168.1.0/24
func (h *ScanHandler) GetLatest(c *gin.Context) {
	target := c.Query("target")
	if target == "" {
		utils.BadRequest(c, "target parameter required")
		return
	}

	result, ok := h.scanService.GetLatest(target)
	if !ok {
		utils.NotFound(c, "no cached result for target")
		return
	}
	utils.Success(c, result)
}
