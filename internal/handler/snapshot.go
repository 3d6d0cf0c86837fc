package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"

	"metior/internal/aggregator"
	"metior/internal/numeraire"
	"metior/internal/staticdata"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetLatestSnapshot godoc
// @Summary      Get the latest benchmark snapshot
// @Description  Returns the most recent validated snapshot with normalized weights and unit price
// @Tags         snapshots
// @Produce      json
// @Success      200  {object}  domain.Snapshot
// @Failure      500  {object}  map[string]string
// @Router       /api/snapshot [get]
func (h *Handler) GetLatestSnapshot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-latest-snapshot")
	defer span.End()

	snapshot, err := h.snapshots.GetLatest(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetSnapshotDates godoc
// @Summary      List known snapshot dates
// @Description  Returns the dates of all bundled and persisted snapshots, newest first
// @Tags         snapshots
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/snapshot/dates [get]
func (h *Handler) GetSnapshotDates(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-snapshot-dates")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"dates": h.snapshots.Dates(ctx)})
}

// GetSnapshotByDate godoc
// @Summary      Get a snapshot by date
// @Description  Returns the validated snapshot for the given date, bundled or persisted
// @Tags         snapshots
// @Produce      json
// @Param        date  path  string  true  "Snapshot date (YYYY-MM-DD)"
// @Success      200  {object}  domain.Snapshot
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /api/snapshot/{date} [get]
func (h *Handler) GetSnapshotByDate(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-snapshot-by-date")
	defer span.End()

	date := c.Param("date")
	span.SetAttributes(attribute.String("date", date))

	snapshot, err := h.snapshots.GetByDate(ctx, date)
	if err != nil {
		status, body := h.snapshotErrorResponse(ctx, err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetSnapshotCSV godoc
// @Summary      Export a snapshot as CSV
// @Description  Returns the validated snapshot for the given date, bundled or persisted, as CSV rows
// @Tags         snapshots
// @Produce      text/csv
// @Param        date  path  string  true  "Snapshot date (YYYY-MM-DD)"
// @Success      200  {string}  string
// @Failure      404  {object}  map[string]string
// @Router       /api/snapshot/{date}/csv [get]
func (h *Handler) GetSnapshotCSV(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-snapshot-csv")
	defer span.End()

	date := c.Param("date")
	span.SetAttributes(attribute.String("date", date))

	snapshot, err := h.snapshots.GetByDate(ctx, date)
	if err != nil {
		status, body := h.snapshotErrorResponse(ctx, err)
		c.JSON(status, body)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=weights_"+snapshot.Date+".csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"date", "symbol", "mc_usd", "weight", "m_world_usd", "meo_usd"})
	for _, comp := range snapshot.Components {
		_ = w.Write([]string{
			snapshot.Date,
			comp.Symbol,
			strconv.FormatFloat(comp.MarketCapUSD, 'f', -1, 64),
			strconv.FormatFloat(comp.Weight, 'g', 17, 64),
			strconv.FormatFloat(snapshot.WorldTotalUSD, 'f', -1, 64),
			strconv.FormatFloat(snapshot.UnitPriceUSD, 'f', -1, 64),
		})
	}
	w.Flush()
}

// TriggerLiveBuild godoc
// @Summary      Build a live snapshot on demand
// @Description  Aggregates live market data, validates it, and persists the result
// @Tags         snapshots
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  domain.Snapshot
// @Failure      422  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/snapshot/live [post]
func (h *Handler) TriggerLiveBuild(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-live-build")
	defer span.End()

	snapshot, err := h.snapshots.BuildLive(ctx)
	if err != nil {
		status, body := h.snapshotErrorResponse(ctx, err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) snapshotErrorResponse(ctx context.Context, err error) (int, gin.H) {
	var noSnap *staticdata.ErrNoSnapshot
	if errors.As(err, &noSnap) {
		return http.StatusNotFound, gin.H{"error": noSnap.Error(), "dates": h.snapshots.Dates(ctx)}
	}

	var malformed *numeraire.MalformedInputError
	if errors.As(err, &malformed) {
		return http.StatusUnprocessableEntity, gin.H{"error": malformed.Error()}
	}
	var violation *numeraire.InvariantViolationError
	if errors.As(err, &violation) {
		return http.StatusUnprocessableEntity, gin.H{"error": violation.Error()}
	}

	if errors.Is(err, aggregator.ErrNoComponents) {
		return http.StatusBadGateway, gin.H{"error": err.Error()}
	}
	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}
