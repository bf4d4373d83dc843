package calibration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/oshokin/calibration-helper/internal/api/http/middleware"
	domain "github.com/oshokin/calibration-helper/internal/domain/calibration"
	"github.com/oshokin/calibration-helper/internal/logger"
	"github.com/oshokin/calibration-helper/internal/metrics"
	"github.com/oshokin/calibration-helper/internal/report"
)

// maxBodySize bounds request bodies; they only ever hold two numbers and a note.
const maxBodySize = 64 << 10

const (
	contentTypeJSON = "application/json"
	detailNotFound  = "Measurement not found"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	RecordManual(ctx context.Context, totalStation, interferometer float64, note *string) (*domain.Record, error)
	Measure(ctx context.Context, note *string) (*domain.Record, error)
	Get(ctx context.Context, id string) (*domain.Record, error)
	List(ctx context.Context) ([]*domain.Record, error)
	Instruments(ctx context.Context) []domain.InstrumentStatus
}

// Server implements the calibration HTTP API.
type Server struct {
	// service provides the business logic for measurements.
	service Service
}

// NewServer wires the provided service implementation into an HTTP handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Handler returns the router with all routes and middlewares.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.AccessLog)
	router.Use(middleware.Metrics)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.StripSlashes)

	router.Post("/manual-input", s.manualInput)
	router.Post("/measure", s.measure)
	router.Get("/instruments", s.instruments)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Route("/results", func(r chi.Router) {
		r.Get("/", s.listResults)
		r.Get("/export/excel", s.exportExcel)
		r.Get("/export/zip", s.exportZIP)
		r.Get("/{id}", s.getResult)
		r.Get("/{id}/report", s.getReport)
	})

	return router
}

// manualInput evaluates and stores two distances typed in by the operator.
func (s *Server) manualInput(w http.ResponseWriter, r *http.Request) {
	var req manualInputRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())

		return
	}

	if req.DistanceTS == nil || req.DistanceIFM == nil {
		writeError(r.Context(), w, http.StatusBadRequest, "distance_ts and distance_ifm are required")

		return
	}

	record, err := s.service.RecordManual(r.Context(), *req.DistanceTS, *req.DistanceIFM, req.Note)
	if err != nil {
		writeServiceError(r.Context(), w, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, toRecordResponse(record))
}

// measure reads both instruments, evaluates and stores the pair.
func (s *Server) measure(w http.ResponseWriter, r *http.Request) {
	var req measureRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())

		return
	}

	record, err := s.service.Measure(r.Context(), req.Note)
	if err != nil {
		writeServiceError(r.Context(), w, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, toRecordResponse(record))
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.List(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, toRecordResponses(records))
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	record, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, toRecordResponse(record))
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	record, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)

		return
	}

	data, err := report.PDF(record)
	if err != nil {
		logger.ErrorKV(r.Context(), "Failed to render report", "id", record.ID, "error", err)
		writeError(r.Context(), w, http.StatusInternalServerError, "unable to render report")

		return
	}

	writeAttachment(r.Context(), w, report.ContentTypePDF, report.PDFFilename(record.ID), data)
}

func (s *Server) exportExcel(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, report.ContentTypeExcel, report.ExcelFilename, report.WriteExcel)
}

func (s *Server) exportZIP(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, report.ContentTypeZIP, report.ZIPFilename, report.WriteZIP)
}

// export renders all records with render and sends the result as a download.
func (s *Server) export(
	w http.ResponseWriter,
	r *http.Request,
	contentType, filename string,
	render func(io.Writer, []*domain.Record) error,
) {
	records, err := s.service.List(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)

		return
	}

	var buf bytes.Buffer
	if err = render(&buf, records); err != nil {
		logger.ErrorKV(r.Context(), "Failed to render export", "file", filename, "error", err)
		writeError(r.Context(), w, http.StatusInternalServerError, "unable to render export")

		return
	}

	writeAttachment(r.Context(), w, contentType, filename, buf.Bytes())
}

func (s *Server) instruments(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, toInstrumentResponses(s.service.Instruments(r.Context())))
}

// writeServiceError maps domain errors onto status codes.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(ctx, w, http.StatusNotFound, detailNotFound)
	case errors.Is(err, domain.ErrInstrumentUnavailable):
		logger.WarnKV(ctx, "Instrument unavailable", "error", err)
		writeError(ctx, w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.ErrorKV(ctx, "Request failed", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

var errEmptyBody = errors.New("request body is required")

// decodeJSON reads a single JSON object. An empty body is accepted when optional is set.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		if optional {
			return nil
		}

		return errEmptyBody
	default:
		return err
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WarnKV(ctx, "Failed to write response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, detail string) {
	writeJSON(ctx, w, status, errorResponse{Detail: detail})
}

func writeAttachment(ctx context.Context, w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		logger.WarnKV(ctx, "Failed to write attachment", "file", filename, "error", err)
	}
}
