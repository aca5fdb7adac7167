package http

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/labelscan/backend/internal/domain"
	"github.com/labelscan/backend/internal/usecase"
)

const (
	defaultMaxUploadBytes = 10 << 20
	defaultPollInterval   = time.Second

	// room for multipart boundaries and part headers around the image
	multipartOverhead = 64 << 10
)

// ScanService is the usecase surface the handlers need
type ScanService interface {
	Submit(ctx context.Context, image *domain.LabelImage) (*domain.ScanJob, error)
	ScanNow(ctx context.Context, image *domain.LabelImage) (*domain.ScanResult, error)
	Status(ctx context.Context, id string) (*domain.ScanJob, error)
	ListProducts(ctx context.Context, page domain.ProductPage) ([]domain.SavedProduct, error)
	GetProduct(ctx context.Context, id int64) (*domain.SavedProduct, error)
}

// HandlerOptions holds request limits for the handlers
type HandlerOptions struct {
	MaxUploadBytes int64
	PollInterval   time.Duration
	AllowedOrigins []string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scans          ScanService
	maxUploadBytes int64
	pollInterval   time.Duration
	allowedOrigins []string
}

// NewHandler creates a new HTTP handler
func NewHandler(scans ScanService, opts HandlerOptions) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	return &Handler{
		scans:          scans,
		maxUploadBytes: opts.MaxUploadBytes,
		pollInterval:   opts.PollInterval,
		allowedOrigins: opts.AllowedOrigins,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "labelscan-backend",
		"version": "1.0.0",
	})
}

// ScanImage accepts a label photo as multipart field "image" and starts a scan
// job. With ?wait=true the scan runs inline and the result is returned directly.
func (h *Handler) ScanImage(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	header, err := c.FormFile("image")
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image provided"})
		return
	}
	if header.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Printf("[Handler] Opening upload failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image provided"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("[Handler] Reading upload failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image provided"})
		return
	}

	image, err := usecase.PrepareImage(data, header.Filename)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No image provided"})
			return
		}
		respondError(c, err)
		return
	}

	if c.Query("wait") == "true" {
		result, err := h.scans.ScanNow(c.Request.Context(), image)
		if err != nil {
			log.Printf("[Handler] Inline scan failed: %v", err)
			if errors.Is(err, usecase.ErrShuttingDown) || errors.Is(err, domain.ErrRateLimited) {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process image"})
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	job, err := h.scans.Submit(c.Request.Context(), image)
	if err != nil {
		log.Printf("[Handler] Submitting scan failed: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"scanId": job.ID,
		"status": job.Status,
	})
}

// ScanStatus returns the current state of a scan job
func (h *Handler) ScanStatus(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	id := scanID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No scan ID provided"})
		return
	}

	job, err := h.scans.Status(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListProducts returns saved products, newest first
func (h *Handler) ListProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	page := domain.ProductPage{}
	var err error
	if raw := c.Query("limit"); raw != "" {
		if page.Limit, err = strconv.Atoi(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if page.Offset, err = strconv.Atoi(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
			return
		}
	}
	page = page.Normalize()

	products, err := h.scans.ListProducts(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// GetProduct returns one saved product
func (h *Handler) GetProduct(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.scans.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// ready answers 503 when the handler was built without a scan service
func (h *Handler) ready(c *gin.Context) bool {
	if h.scans == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scan service not configured"})
		return false
	}
	return true
}

// scanID reads the job id; older clients send it as scanId
func scanID(c *gin.Context) string {
	if id := strings.TrimSpace(c.Query("id")); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("scanId"))
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	case errors.Is(err, domain.ErrUnsupportedImage):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Uploaded file is not an image"})
	case errors.Is(err, domain.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan job not found"})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
	case errors.Is(err, usecase.ErrShuttingDown):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server is shutting down"})
	case errors.Is(err, domain.ErrDatabaseFailure):
		log.Printf("[Handler] Database error: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Database temporarily unavailable"})
	default:
		log.Printf("[Handler] Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
