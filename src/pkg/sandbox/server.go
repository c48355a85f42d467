package sandbox

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	tw "teamwork-invoicer/src/pkg/teamwork"
)

/*
CreatedInvoice is an invoice created through the sandbox together with
everything attached to it.
*/
type CreatedInvoice struct {
	ID        tw.ID           `json:"id"`
	ProjectID tw.ID           `json:"project_id"`
	Shell     tw.InvoiceShell `json:"invoice"`
	Expenses  []tw.ID         `json:"expenses,omitempty"`
	Timelogs  []tw.ID         `json:"timelogs,omitempty"`
}

type Server struct {
	cfg  Config
	echo *echo.Echo

	mu            sync.Mutex
	fixture       Fixture
	invoices      []*CreatedInvoice
	invoicesByID  map[tw.ID]*CreatedInvoice
	nextInvoiceID int
	requests      []string
}

func New(fixture Fixture, cfg Config) *Server {
	s := &Server{
		cfg:           cfg,
		fixture:       fixture,
		invoicesByID:  map[tw.ID]*CreatedInvoice{},
		nextInvoiceID: cfg.FirstInvoiceID,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(RouteAccessLoggerMiddleware)
	if cfg.MiddlewareRateLimit > 0 {
		e.Use(newIPRateLimiter(cfg.MiddlewareRateLimit, cfg.MiddlewareBurst).Middleware)
	}
	e.Use(RequireBasicAuth(cfg.APIKey))
	e.Use(s.recordRequest)
	e.Use(BrotliMiddleware)

	e.GET("/projects.json", s.listProjects)
	e.GET("/projects/:id/people.json", s.listPeople)
	e.GET("/projects/:id/expenses.json", s.listExpenses)
	e.GET("/projects/:id/rates.json", s.listRates)
	e.GET("/projects/:id/time_entries.json", s.listTimeEntries)
	e.POST("/projects/:id/invoices.json", s.createInvoice)
	e.PUT("/invoices/:id/lineitems.json", s.addLineItems)

	s.echo = e
	return s
}

// Handler exposes the routes, for httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.echo }

// Start blocks serving on the configured address.
func (s *Server) Start() (e *xerr.Error) {
	address := s.cfg.ListenAddress()
	tl.Log(tl.Notice, palette.GreenBold, "Sandbox Teamwork API listening on '%s' (api key '%s')", "http://"+address, s.cfg.APIKey)
	startErr := s.echo.Start(address)
	if startErr != nil && startErr != http.ErrServerClosed {
		return xerr.NewError(startErr, "sandbox server stopped", address)
	}
	return nil
}

// Invoices returns copies of every invoice created so far, in creation order.
func (s *Server) Invoices() []CreatedInvoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CreatedInvoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		copied := *inv
		copied.Expenses = append([]tw.ID(nil), inv.Expenses...)
		copied.Timelogs = append([]tw.ID(nil), inv.Timelogs...)
		out = append(out, copied)
	}
	return out
}

// Requests returns "METHOD uri" of every authenticated request, in arrival order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) recordRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.requests = append(s.requests, c.Request().Method+" "+c.Request().RequestURI)
		s.mu.Unlock()
		return next(c)
	}
}

func (s *Server) newInvoiceID() tw.ID {
	id := tw.ID(strconv.Itoa(s.nextInvoiceID))
	s.nextInvoiceID++
	return id
}
