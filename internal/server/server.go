package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mgpai22/vidscribe/internal/job"
	"github.com/mgpai22/vidscribe/internal/logging"
	"github.com/mgpai22/vidscribe/internal/metrics"
	"github.com/mgpai22/vidscribe/internal/output"
	"github.com/mgpai22/vidscribe/internal/subtitle"
)

// response bodies
const (
	msgNoFile = "No file uploaded."
	msgFailed = "Failed to transcribe video."
)

// failure kind recorded when the subtitle file cannot be written
const kindWrite = "write"

// Transcriber runs one upload through recognition.
type Transcriber interface {
	Transcribe(ctx context.Context, upload io.Reader, filename string, params job.Params) (*job.Job, error)
}

type Config struct {
	Addr          string
	UploadLimitMB int

	// form choices
	ModelSizes []string
	Devices    []string
	ModelSize  string
	Device     string
}

// Server is the HTTP surface: an upload form and the upload endpoint.
type Server struct {
	echo    *echo.Echo
	addr    string
	page    indexPage
	jobs    Transcriber
	store   *output.Store
	writer  *subtitle.SRTWriter
	metrics *metrics.Metrics
	logger  *logging.Logger
}

func New(
	cfg Config,
	jobs Transcriber,
	store *output.Store,
	m *metrics.Metrics,
	logger *logging.Logger,
) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}

	renderer, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		echo: echo.New(),
		addr: cfg.Addr,
		page: indexPage{
			ModelSizes: cfg.ModelSizes,
			Devices:    cfg.Devices,
			ModelSize:  cfg.ModelSize,
			Device:     cfg.Device,
		},
		jobs:    jobs,
		store:   store,
		writer:  subtitle.NewSRTWriter(),
		metrics: m,
		logger:  logger,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Use(middleware.Recover())
	e.Use(s.requestLogger)
	if cfg.UploadLimitMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.UploadLimitMB)))
	}

	e.GET("/", s.handleIndex)
	e.POST("/", s.handleUpload)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	return s, nil
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Infow("Listening", "addr", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		req := c.Request()
		s.logger.Debugw("HTTP request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", c.Response().Status,
			"elapsed", time.Since(start),
		)
		return nil
	}
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", s.page)
}

func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil || fh.Filename == "" {
		return c.String(http.StatusBadRequest, msgNoFile)
	}

	done := s.metrics.JobStarted()

	src, err := fh.Open()
	if err != nil {
		s.logger.Errorw("Failed to open upload", "filename", fh.Filename, "error", err)
		done(metrics.OutcomeFailure, string(job.KindUpload))
		return c.String(http.StatusInternalServerError, msgFailed)
	}
	defer src.Close()

	// a client disconnect does not abort a running transcription
	ctx := context.WithoutCancel(c.Request().Context())

	j, err := s.jobs.Transcribe(ctx, src, fh.Filename, job.Params{
		ModelSize: c.FormValue("model_size"),
		Device:    c.FormValue("device"),
	})
	if err != nil {
		done(metrics.OutcomeFailure, string(job.KindOf(err)))
		return c.String(http.StatusInternalServerError, msgFailed)
	}
	defer j.Close()

	log := s.logger.With("job_id", j.ID)

	path, err := s.store.Path(fh.Filename, j.ID)
	if err != nil {
		log.Errorw("Invalid output name", "filename", fh.Filename, "error", err)
		done(metrics.OutcomeFailure, kindWrite)
		return c.String(http.StatusInternalServerError, msgFailed)
	}

	var entries int
	var sourceErr error
	err = s.store.Write(path, func(w io.Writer) error {
		n, werr := s.writer.Write(w, j.Result.Segments)
		entries = n
		var writeErr *subtitle.WriteError
		if werr != nil && !errors.As(werr, &writeErr) {
			sourceErr = werr
		}
		return werr
	})
	if err != nil {
		kind := kindWrite
		if sourceErr != nil {
			kind = string(job.Classify(sourceErr))
		}
		log.Errorw("Failed to write subtitles", "path", path, "kind", kind, "error", err)
		done(metrics.OutcomeFailure, kind)
		return c.String(http.StatusInternalServerError, msgFailed)
	}

	s.metrics.SegmentsWritten(entries)
	done(metrics.OutcomeSuccess, "")
	log.Infow("Subtitles written", "path", path, "entries", entries)

	return c.Attachment(path, filepath.Base(path))
}
