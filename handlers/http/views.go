package httpHandler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"warbler/auth"
	"warbler/entities"
	"warbler/monitoring"
	"warbler/usecases"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ViewHandler serves the server-rendered pages.
type ViewHandler struct {
	users    *usecases.UserUseCase
	messages *usecases.MessageUseCase
	sessions *auth.Sessions
}

func NewViewHandler(users *usecases.UserUseCase, messages *usecases.MessageUseCase, sessions *auth.Sessions) *ViewHandler {
	return &ViewHandler{
		users:    users,
		messages: messages,
		sessions: sessions,
	}
}

// render fills in the layout fields and writes the page. Flashes are popped
// here, so it has to run before anything else touches the body.
func (h *ViewHandler) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Principal"] = principal(c)
	data["Flashes"] = h.sessions.Flashes(c.Writer, c.Request)
	if _, ok := data["Query"]; !ok {
		data["Query"] = ""
	}
	c.HTML(status, page, data)
}

func (h *ViewHandler) flash(c *gin.Context, category, message string) {
	if err := h.sessions.AddFlash(c.Writer, c.Request, category, message); err != nil {
		logrus.WithError(err).Warn("could not save flash")
	}
}

// deny is the single rejection path for authorization failures.
func (h *ViewHandler) deny(c *gin.Context, action string) {
	monitoring.AuthorizationDenied.WithLabelValues(action).Inc()
	h.flash(c, "danger", auth.UnauthorizedMessage)
	c.Redirect(http.StatusFound, "/")
}

// NotFound renders the 404 page. It is also the engine's NoRoute handler.
func (h *ViewHandler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "not_found.html", nil)
}

func (h *ViewHandler) serverError(c *gin.Context, err error) {
	logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	c.String(http.StatusInternalServerError, "Internal Server Error")
}

// Home shows the landing page to visitors and the timeline to users.
func (h *ViewHandler) Home(c *gin.Context) {
	user := principal(c)
	if user == nil {
		h.render(c, http.StatusOK, "home_anon.html", nil)
		return
	}
	ctx := c.Request.Context()
	messages, err := h.messages.Timeline(ctx, user, usecases.TimelineLimit)
	if err != nil {
		h.serverError(c, err)
		return
	}
	liked, err := h.messages.LikedSet(ctx, user.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "home.html", gin.H{
		"Messages": messages,
		"Liked":    liked,
	})
}

func principal(c *gin.Context) *entities.User {
	return auth.PrincipalFrom(c.Request.Context())
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// likedBy returns the principal's liked message ids, or an empty set.
func (h *ViewHandler) likedBy(c *gin.Context) (map[uint]bool, error) {
	user := principal(c)
	if user == nil {
		return map[uint]bool{}, nil
	}
	return h.messages.LikedSet(c.Request.Context(), user.ID)
}

// formErrors turns binding failures into messages fit for a page.
func formErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"Invalid form submission."}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required.", fe.Field()))
		case "email":
			out = append(out, "Please enter a valid e-mail address.")
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s characters.", fe.Field(), fe.Param()))
		case "max":
			out = append(out, fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param()))
		default:
			out = append(out, fmt.Sprintf("%s is invalid.", fe.Field()))
		}
	}
	return out
}

// entityErrors maps signup validation errors to page messages.
func entityErrors(err error) ([]string, bool) {
	switch {
	case errors.Is(err, entities.ErrInvalidPassword):
		return []string{fmt.Sprintf("Password must be at least %d characters.", entities.MinPasswordLength)}, true
	case errors.Is(err, entities.ErrPasswordTooLong):
		return []string{fmt.Sprintf("Password must be at most %d bytes.", entities.MaxPasswordLength)}, true
	case errors.Is(err, entities.ErrInvalidUsername):
		return []string{"Username is required."}, true
	case errors.Is(err, entities.ErrInvalidEmail):
		return []string{"E-mail is required."}, true
	}
	return nil, false
}
