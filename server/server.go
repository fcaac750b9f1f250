package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-sheetmerge/artifact"
	"github.com/soderasen-au/go-sheetmerge/config"
	"github.com/soderasen-au/go-sheetmerge/session"
)

const (
	APP_NAME             = "sheetmerge"
	ARTIFACT_LINK_HEADER = "X-Artifact-Link"
	SWEEP_INTERVAL       = time.Minute
)

type Server struct {
	Config    *config.Config
	Sessions  *session.Store
	Artifacts *artifact.Store
	Signer    *artifact.Signer
	Audit     *artifact.AuditLog
	Logger    *zerolog.Logger

	app *fiber.App
}

func New(cfg *config.Config, logger *zerolog.Logger) (*Server, *util.Result) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "server").Logger()

	key := cfg.Artifacts.SigningKey
	if key == "" {
		key = uuid.NewString()
		l.Warn().Msg("no artifact signing key configured, download links will not survive a restart")
	}
	signer, res := artifact.NewSigner(key, cfg.Artifacts.LinkTTL())
	if res != nil {
		return nil, res.LogWith(&l, "NewSigner")
	}

	audit, res := artifact.NewAuditLog(cfg.System.AuditFile)
	if res != nil {
		return nil, res.LogWith(&l, "NewAuditLog")
	}

	s := &Server{
		Config:    cfg,
		Sessions:  session.NewStore(cfg.Server.SessionTTL(), cfg.Session.FilterColumn, &l),
		Artifacts: artifact.NewStore(cfg.System.OutputFolder, &l),
		Signer:    signer,
		Audit:     audit,
		Logger:    &l,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               APP_NAME,
		BodyLimit:             cfg.Server.BodyLimit(),
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(RequestLogger(&l))
	s.routes()
	return s, nil
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Close() {
	s.Audit.Close()
}

func (s *Server) audit(r artifact.AuditRecord) {
	if res := s.Audit.Record(r); res != nil {
		s.Logger.Warn().Msgf("audit: %s", res.Error())
	}
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	api.Post("/sessions", s.createSession)
	api.Get("/sessions/:id", s.getSession)
	api.Delete("/sessions/:id", s.deleteSession)
	api.Post("/sessions/:id/filter", s.applyFilter)
	api.Put("/sessions/:id/columns", s.setColumns)
	api.Delete("/sessions/:id/columns", s.resetColumns)
	api.Patch("/sessions/:id/cells", s.editCell)
	api.Get("/sessions/:id/export", s.export)
	api.Post("/sessions/:id/report", s.renderReport)

	api.Get("/artifacts/:token", s.download)
}

// errorHandler renders every error as {"error": "..."}.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(ErrorBody{Error: err.Error()})
}

// Sweep expires idle sessions until ctx is done.
func (s *Server) Sweep(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = SWEEP_INTERVAL
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sessions.Sweep(now)
		}
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) *util.Result {
	addr := s.Config.Server.Addr()
	go s.Sweep(ctx, SWEEP_INTERVAL)

	errc := make(chan error, 1)
	go func() {
		s.Logger.Info().Msgf("listening on http://%s", addr)
		errc <- s.app.Listen(addr)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return util.LogError(s.Logger, "Listen", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.Logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	defer s.Close()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return util.LogError(s.Logger, "Shutdown", err)
	}
	return nil
}
