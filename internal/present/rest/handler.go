package rest

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
	"github.com/one-zero-eight/omnidesk-portal/internal/present/rest/middleware"
	"github.com/one-zero-eight/omnidesk-portal/internal/present/rest/presenter"
	"github.com/one-zero-eight/omnidesk-portal/internal/usecase"
)

// Subscriber streams a user's events until ctx is done.
type Subscriber interface {
	Realtime(ctx context.Context, userID string, output chan<- domain.Event)
}

type Handler struct {
	cases    *usecase.CaseUsecase
	sso      *usecase.SSOUsecase
	activity *usecase.ActivityUsecase
	signal   Subscriber
	auth     *middleware.AuthMiddleware
}

func NewHandler(
	cases *usecase.CaseUsecase,
	sso *usecase.SSOUsecase,
	activity *usecase.ActivityUsecase,
	signal Subscriber,
	auth *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		cases:    cases,
		sso:      sso,
		activity: activity,
		signal:   signal,
		auth:     auth,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.handleHealth)

	cases := e.Group("/cases", h.auth.RequireUser)
	cases.POST("", h.handleCreateCase)
	cases.GET("", h.handleListCases)
	cases.GET("/:case_id/messages", h.handleListMessages)
	cases.POST("/:case_id/messages", h.handleSendMessage)

	e.POST("/sso/generate-link", h.handleGenerateLink, h.auth.RequireUser)
	e.GET("/activity", h.handleActivity, h.auth.RequireUser)
	e.GET("/realtime", h.handleRealtime, h.auth.RequireUserQuery)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleCreateCase(c echo.Context) error {
	ctx := c.Request().Context()

	var input domain.CreateCaseInput
	err := c.Bind(&input)
	if err != nil {
		return presenter.Unprocessable(c, "invalid request body")
	}

	raw, err := h.cases.CreateCase(ctx, middleware.Requester(c), input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, raw)
}

func (h *Handler) handleListCases(c echo.Context) error {
	ctx := c.Request().Context()

	query := domain.DefaultListCasesQuery()
	err := echo.QueryParamsBinder(c).
		Int("page", &query.Page).
		Int("limit", &query.Limit).
		String("status", &query.Status).
		String("sort", &query.Sort).
		BindError()
	if err != nil {
		return presenter.Unprocessable(c, bindErrorDetail(err))
	}

	list, err := h.cases.ListCases(ctx, middleware.Requester(c), query)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OKWithETag(c, list)
}

func (h *Handler) handleListMessages(c echo.Context) error {
	ctx := c.Request().Context()

	caseID, err := strconv.ParseInt(c.Param("case_id"), 10, 64)
	if err != nil {
		return presenter.Unprocessable(c, "invalid case id")
	}

	query := domain.DefaultListMessagesQuery()
	err = echo.QueryParamsBinder(c).
		Int("page", &query.Page).
		Int("limit", &query.Limit).
		String("order", &query.Order).
		BindError()
	if err != nil {
		return presenter.Unprocessable(c, bindErrorDetail(err))
	}

	list, err := h.cases.ListMessages(ctx, middleware.Requester(c), caseID, query)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OKWithETag(c, list)
}

func (h *Handler) handleSendMessage(c echo.Context) error {
	ctx := c.Request().Context()

	caseID, err := strconv.ParseInt(c.Param("case_id"), 10, 64)
	if err != nil {
		return presenter.Unprocessable(c, "invalid case id")
	}

	input := domain.SendMessageInput{
		Content:     c.FormValue("content"),
		ContentHTML: c.FormValue("content_html"),
	}

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return presenter.Unprocessable(c, "invalid multipart body")
		}
		input.Attachments, err = readUploads(form.File["attachments"])
		if err != nil {
			return presenter.InternalError(c, err)
		}
	}

	raw, err := h.cases.SendMessage(ctx, middleware.Requester(c), caseID, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, raw)
}

func (h *Handler) handleGenerateLink(c echo.Context) error {
	ctx := c.Request().Context()

	link, err := h.sso.GenerateLink(ctx, middleware.Requester(c), c.QueryParam("return_to"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, link)
}

func (h *Handler) handleActivity(c echo.Context) error {
	ctx := c.Request().Context()

	limit := domain.DefaultActivityLimit
	err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError()
	if err != nil {
		return presenter.Unprocessable(c, bindErrorDetail(err))
	}

	activities, err := h.activity.List(ctx, middleware.Requester(c), limit)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, activities)
}

func readUploads(files []*multipart.FileHeader) ([]domain.Upload, error) {
	uploads := make([]domain.Upload, 0, len(files))
	for _, fh := range files {
		file, err := fh.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open upload %s", fh.Filename)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read upload %s", fh.Filename)
		}
		uploads = append(uploads, domain.Upload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Data:        data,
		})
	}
	return uploads, nil
}

func bindErrorDetail(err error) string {
	var bindErr *echo.BindingError
	if errors.As(err, &bindErr) {
		return "invalid value for " + bindErr.Field
	}
	return err.Error()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"detail": "realtime events are not configured"})
	}

	user := middleware.Requester(c)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan domain.Event)
	go h.signal.Realtime(ctx, user.InnohassleID, output)

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}

			switch req.Type {
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case <-ctx.Done():
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
