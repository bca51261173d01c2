package httpHandler

import (
	"errors"
	"net/http"

	"warbler/monitoring"
	"warbler/usecases"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
)

type SignupForm struct {
	Username string `form:"username" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=6,max=72"`
	ImageURL string `form:"image_url"`
}

type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// SignupPage handles GET /signup
func (h *ViewHandler) SignupPage(c *gin.Context) {
	if user := principal(c); user != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.render(c, http.StatusOK, "signup.html", gin.H{"Form": SignupForm{}})
}

// Signup handles POST /signup
func (h *ViewHandler) Signup(c *gin.Context) {
	var form SignupForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		h.render(c, http.StatusOK, "signup.html", gin.H{"Form": form, "Errors": formErrors(err)})
		return
	}

	user, err := h.users.Register(c.Request.Context(), form.Username, form.Email, form.Password, form.ImageURL)
	if errors.Is(err, usecases.ErrUsernameTaken) {
		h.flash(c, "danger", "Username or email already taken")
		h.render(c, http.StatusOK, "signup.html", gin.H{"Form": form})
		return
	}
	if msgs, ok := entityErrors(err); ok {
		h.render(c, http.StatusOK, "signup.html", gin.H{"Form": form, "Errors": msgs})
		return
	}
	if err != nil {
		h.serverError(c, err)
		return
	}

	monitoring.RegisterSuccess.Inc()
	if err := h.sessions.Login(c.Writer, c.Request, user.ID); err != nil {
		h.serverError(c, err)
		return
	}
	logrus.WithField("user_id", user.ID).Info("user signed up")
	c.Redirect(http.StatusFound, "/")
}

// LoginPage handles GET /login
func (h *ViewHandler) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{"Form": LoginForm{}})
}

// Login handles POST /login
func (h *ViewHandler) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		monitoring.LoginFailure.WithLabelValues("invalid_form").Inc()
		h.render(c, http.StatusOK, "login.html", gin.H{"Form": form, "Errors": formErrors(err)})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), form.Username, form.Password)
	if errors.Is(err, usecases.ErrInvalidCredentials) {
		monitoring.LoginFailure.WithLabelValues("invalid_credentials").Inc()
		h.flash(c, "danger", "Invalid credentials.")
		h.render(c, http.StatusOK, "login.html", gin.H{"Form": LoginForm{Username: form.Username}})
		return
	}
	if err != nil {
		h.serverError(c, err)
		return
	}

	monitoring.LoginSuccess.Inc()
	if err := h.sessions.Login(c.Writer, c.Request, user.ID); err != nil {
		h.serverError(c, err)
		return
	}
	h.flash(c, "success", "Hello, "+user.Username+"!")
	c.Redirect(http.StatusFound, "/")
}

// Logout handles GET /logout
func (h *ViewHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Writer, c.Request); err != nil {
		h.serverError(c, err)
		return
	}
	h.flash(c, "success", "You have successfully logged out.")
	c.Redirect(http.StatusFound, "/login")
}
