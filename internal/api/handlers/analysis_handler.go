package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/ingest"
	"github.com/andresuchdata/stockcast/internal/repository"
	"github.com/andresuchdata/stockcast/internal/service"
	"github.com/andresuchdata/stockcast/internal/table"
	"github.com/andresuchdata/stockcast/pkg/logger"
)

type AnalysisHandler struct {
	service *service.AnalysisService
}

func NewAnalysisHandler(service *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// CreateAnalysis runs an analysis synchronously. It accepts either a JSON
// body or a multipart form with a "history" file, an optional "demand" file
// and the parameters as form fields.
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	var (
		req service.Request
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		req, err = h.fromForm(c)
	} else {
		req, err = h.fromJSON(c)
	}
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	report, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		errorResponse(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusCreated, toAnalysisResponse(report))
}

func (h *AnalysisHandler) fromJSON(c *gin.Context) (service.Request, error) {
	var body AnalysisRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return service.Request{}, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidValue, err)
	}

	history, err := historySeries(body.History)
	if err != nil {
		return service.Request{}, err
	}
	demand, err := demandSeries(body.Demand)
	if err != nil {
		return service.Request{}, err
	}

	return service.Request{
		History:      history,
		FutureDemand: demand,
		Params:       body.Params.Apply(h.service.Defaults()),
	}, nil
}

func (h *AnalysisHandler) fromForm(c *gin.Context) (service.Request, error) {
	var params ParamsRequest
	if err := c.ShouldBind(&params); err != nil {
		return service.Request{}, fmt.Errorf("%w: invalid form fields: %v", domain.ErrInvalidParams, err)
	}

	historyFile, err := c.FormFile("history")
	if err != nil {
		return service.Request{}, fmt.Errorf("%w: history file is required", domain.ErrInvalidValue)
	}
	var history []domain.Series
	err = readUpload(historyFile, func(f multipart.File, format ingest.Format) error {
		history, err = ingest.History(f, format, table.DefaultHistoryColumns())
		return err
	})
	if err != nil {
		return service.Request{}, err
	}

	var demand []domain.DemandSeries
	if demandFile, ferr := c.FormFile("demand"); ferr == nil {
		err = readUpload(demandFile, func(f multipart.File, format ingest.Format) error {
			demand, err = ingest.Demand(f, format, table.DefaultDemandColumns())
			return err
		})
		if err != nil {
			return service.Request{}, err
		}
	}

	return service.Request{
		History:      history,
		FutureDemand: demand,
		Params:       params.Apply(h.service.Defaults()),
	}, nil
}

func readUpload(fh *multipart.FileHeader, read func(multipart.File, ingest.Format) error) error {
	format, err := ingest.FormatOf(fh.Filename)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	if err := read(f, format); err != nil {
		return fmt.Errorf("%s: %w", fh.Filename, err)
	}
	return nil
}

// ListAnalyses returns stored runs, newest first.
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	filter := repository.RunFilter{Status: domain.RunStatus(strings.TrimSpace(c.Query("status")))}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil {
		filter.Offset = offset
	}

	runs, err := h.service.ListRuns(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetAnalysis returns a run with its result tables.
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	details, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, toRunResponse(details))
}

// ListModels returns the selectable forecast models.
func (h *AnalysisHandler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": h.service.Models()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case service.IsInputError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c *gin.Context, statusCode int, err error) {
	event := logger.Log.Warn()
	if statusCode >= http.StatusInternalServerError {
		event = logger.Log.Error()
	}
	event.Err(err).Str("path", c.Request.URL.Path).Msg("request failed")

	message := err.Error()
	if statusCode >= http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(statusCode, gin.H{"error": message})
}
