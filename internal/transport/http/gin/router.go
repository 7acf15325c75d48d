package httpgin

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/eventix/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options carries the optional collaborators of the router. Nil fields turn
// the matching feature off.
type Options struct {
	Logger      *slog.Logger
	Idempotency IdempotencyStore
	RateLimiter RateLimiter
}

type handlers struct {
	svcs   *service.Services
	idem   idempotency
	logger *slog.Logger
}

func NewRouter(svcs *service.Services, opts Options, middlewares ...gin.HandlerFunc) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	h := handlers{
		svcs:   svcs,
		idem:   idempotency{store: opts.Idempotency, logger: logger},
		logger: logger,
	}

	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	write := []gin.HandlerFunc{}
	if opts.RateLimiter != nil {
		write = append(write, RateLimitMiddleware(opts.RateLimiter, logger))
	}
	with := func(hf gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, write...), hf)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/health", handleHealth)

	r.GET("/events", h.listEvents)
	r.POST("/events", with(h.createEvent)...)
	r.GET("/events/:id", h.getEvent)
	r.PUT("/events/:id", with(h.updateEvent)...)
	r.DELETE("/events/:id", with(h.deleteEvent)...)

	r.GET("/tickets/:eventId", h.listTickets)
	r.POST("/tickets", with(h.createTicket)...)
	r.PUT("/tickets/use/:id", with(h.redeemTicket)...)

	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "not found")
	})

	return r
}

// @Summary  Liveness probe
// @Produce  plain
// @Success  200  {string}  string  "I'm okay!"
// @Router   /health [get]
func handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "I'm okay!")
}

// @Summary  List events
// @Produce  json
// @Success  200  {array}  EventResponse
// @Router   /events [get]
func (h handlers) listEvents(c *gin.Context) {
	list, err := h.svcs.Events.List(c.Request.Context())
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.writeJSON(c, toEventResponses(list))
}

// @Summary  Create event (idempotent)
// @Accept   json
// @Produce  json
// @Param    Idempotency-Key  header  string        false  "idempotency key"
// @Param    req              body    EventRequest  true   "payload"
// @Success  201  {object}  EventResponse
// @Failure  409  {string}  string  "event name already exists"
// @Failure  422  {string}  string  "invalid body"
// @Failure  429  {string}  string  "rate limited"
// @Router   /events [post]
func (h handlers) createEvent(c *gin.Context) {
	name, date, ok := bindEvent(c)
	if !ok {
		return
	}

	idemKey, proceed := h.idem.begin(c, "events")
	if !proceed {
		return
	}

	e, err := h.svcs.Events.Create(c.Request.Context(), name, date)
	if err != nil {
		h.idem.abort(c, idemKey)
		respondErr(c, h.logger, err)
		return
	}

	resp := toEventResponse(*e)
	h.idem.finish(c, idemKey, http.StatusCreated, resp)
	c.JSON(http.StatusCreated, resp)
}

// @Summary  Get event
// @Produce  json
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  EventResponse
// @Failure  400  {string}  string  "invalid id"
// @Failure  404  {string}  string  "event not found"
// @Router   /events/{id} [get]
func (h handlers) getEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	e, err := h.svcs.Events.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.writeJSON(c, toEventResponse(*e))
}

// @Summary  Update event
// @Accept   json
// @Produce  json
// @Param    id   path  int           true  "Event ID"
// @Param    req  body  EventRequest  true  "payload"
// @Success  200  {object}  EventResponse
// @Failure  400  {string}  string  "invalid id"
// @Failure  404  {string}  string  "event not found"
// @Failure  409  {string}  string  "event name already exists"
// @Failure  422  {string}  string  "invalid body"
// @Router   /events/{id} [put]
func (h handlers) updateEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	name, date, ok := bindEvent(c)
	if !ok {
		return
	}

	e, err := h.svcs.Events.Update(c.Request.Context(), id, name, date)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponse(*e))
}

// @Summary  Delete event and its tickets
// @Param    id  path  int  true  "Event ID"
// @Success  204
// @Failure  400  {string}  string  "invalid id"
// @Failure  404  {string}  string  "event not found"
// @Router   /events/{id} [delete]
func (h handlers) deleteEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svcs.Events.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary  List tickets of an event
// @Produce  json
// @Param    eventId  path  int  true  "Event ID"
// @Success  200  {array}   TicketResponse
// @Failure  400  {string}  string  "invalid id"
// @Router   /tickets/{eventId} [get]
func (h handlers) listTickets(c *gin.Context) {
	eventID, ok := parseIDParam(c, "eventId")
	if !ok {
		return
	}

	list, err := h.svcs.Tickets.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.writeJSON(c, toTicketResponses(list))
}

// @Summary  Issue ticket (idempotent)
// @Accept   json
// @Produce  json
// @Param    Idempotency-Key  header  string         false  "idempotency key"
// @Param    req              body    TicketRequest  true   "payload"
// @Success  201  {object}  TicketResponse
// @Failure  403  {string}  string  "event has already happened"
// @Failure  404  {string}  string  "event not found"
// @Failure  409  {string}  string  "ticket code already exists for this event"
// @Failure  422  {string}  string  "invalid body"
// @Router   /tickets [post]
func (h handlers) createTicket(c *gin.Context) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		unprocessable(c, err.Error())
		return
	}

	idemKey, proceed := h.idem.begin(c, "tickets")
	if !proceed {
		return
	}

	t, err := h.svcs.Tickets.Create(c.Request.Context(), req.Code, req.Owner, req.EventID)
	if err != nil {
		h.idem.abort(c, idemKey)
		respondErr(c, h.logger, err)
		return
	}

	resp := toTicketResponse(*t)
	h.idem.finish(c, idemKey, http.StatusCreated, resp)
	c.JSON(http.StatusCreated, resp)
}

// @Summary  Redeem ticket
// @Param    id  path  int  true  "Ticket ID"
// @Success  204
// @Failure  400  {string}  string  "invalid id"
// @Failure  403  {string}  string  "event has already happened / ticket has already been used"
// @Failure  404  {string}  string  "ticket not found"
// @Router   /tickets/use/{id} [put]
func (h handlers) redeemTicket(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svcs.Tickets.Redeem(c.Request.Context(), id); err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Helpers ---

func (h handlers) writeJSON(c *gin.Context, v any) {
	if err := writeJSONWithETag(c, http.StatusOK, v); err != nil {
		respondErr(c, h.logger, err)
	}
}

func bindEvent(c *gin.Context) (string, time.Time, bool) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		unprocessable(c, err.Error())
		return "", time.Time{}, false
	}

	date, err := parseDate(req.Date)
	if err != nil {
		unprocessable(c, "date must be an ISO-8601 timestamp")
		return "", time.Time{}, false
	}

	return req.Name, date, true
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v < 1 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
