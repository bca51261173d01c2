package httpHandler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"warbler/entities"
	"warbler/usecases"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type ProfileForm struct {
	Username       string `form:"username" binding:"required"`
	Email          string `form:"email" binding:"required,email"`
	ImageURL       string `form:"image_url"`
	HeaderImageURL string `form:"header_image_url"`
	Bio            string `form:"bio" binding:"max=500"`
	Location       string `form:"location" binding:"max=100"`
	Password       string `form:"password" binding:"required"`
}

func userPath(id uint) string {
	return "/users/" + strconv.FormatUint(uint64(id), 10)
}

// ListUsers handles GET /users?q=
func (h *ViewHandler) ListUsers(c *gin.Context) {
	query := c.Query("q")
	users, err := h.users.Search(c.Request.Context(), query)
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "users_index.html", gin.H{"Users": users, "Query": query})
}

// loadUser resolves the :id param, rendering the 404 page when it cannot.
func (h *ViewHandler) loadUser(c *gin.Context) (*entities.User, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		h.NotFound(c)
		return nil, false
	}
	user, err := h.users.GetUser(c.Request.Context(), id)
	if errors.Is(err, usecases.ErrNotFound) {
		h.NotFound(c)
		return nil, false
	}
	if err != nil {
		h.serverError(c, err)
		return nil, false
	}
	return user, true
}

// ShowUser handles GET /users/:id
func (h *ViewHandler) ShowUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	messages, err := h.users.UserMessages(ctx, user.ID, usecases.TimelineLimit)
	if err != nil {
		h.serverError(c, err)
		return
	}
	stats, err := h.users.Stats(ctx, user.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}
	following, err := h.users.IsFollowing(ctx, principal(c), user)
	if err != nil {
		h.serverError(c, err)
		return
	}
	liked, err := h.likedBy(c)
	if err != nil {
		h.serverError(c, err)
		return
	}

	h.render(c, http.StatusOK, "user_show.html", gin.H{
		"User":           user,
		"Messages":       messages,
		"Liked":          liked,
		"IsFollowing":    following,
		"MessageCount":   stats.Messages,
		"FollowingCount": stats.Following,
		"FollowerCount":  stats.Followers,
		"LikeCount":      stats.Likes,
	})
}

// ShowFollowing handles GET /users/:id/following
func (h *ViewHandler) ShowFollowing(c *gin.Context) {
	h.showFollows(c, "Following", h.users.ListFollowing)
}

// ShowFollowers handles GET /users/:id/followers
func (h *ViewHandler) ShowFollowers(c *gin.Context) {
	h.showFollows(c, "Followers", h.users.ListFollowers)
}

func (h *ViewHandler) showFollows(c *gin.Context, heading string, list func(ctx context.Context, id uint) ([]entities.User, error)) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	users, err := list(ctx, user.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	// Follow buttons need to know who the viewer already follows.
	followed := map[uint]bool{}
	if viewer := principal(c); viewer != nil {
		mine, err := h.users.ListFollowing(ctx, viewer.ID)
		if err != nil {
			h.serverError(c, err)
			return
		}
		for _, u := range mine {
			followed[u.ID] = true
		}
	}

	h.render(c, http.StatusOK, "user_follows.html", gin.H{
		"User":      user,
		"Users":     users,
		"Heading":   heading,
		"Following": followed,
	})
}

// ShowLikes handles GET /users/:id/likes
func (h *ViewHandler) ShowLikes(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	messages, err := h.users.ListLikedMessages(c.Request.Context(), user.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}
	liked, err := h.likedBy(c)
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "user_likes.html", gin.H{
		"User":     user,
		"Messages": messages,
		"Liked":    liked,
	})
}

// Follow handles POST /users/follow/:id
func (h *ViewHandler) Follow(c *gin.Context) {
	h.changeFollow(c, h.users.Follow)
}

// StopFollowing handles POST /users/stop-following/:id
func (h *ViewHandler) StopFollowing(c *gin.Context) {
	h.changeFollow(c, h.users.Unfollow)
}

func (h *ViewHandler) changeFollow(c *gin.Context, change func(ctx context.Context, principal *entities.User, targetID uint) error) {
	user := principal(c)
	targetID, ok := paramID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}

	err := change(c.Request.Context(), user, targetID)
	switch {
	case errors.Is(err, usecases.ErrNotFound):
		h.NotFound(c)
		return
	case errors.Is(err, usecases.ErrSelfFollow):
		h.flash(c, "danger", "You cannot follow yourself.")
	case errors.Is(err, usecases.ErrUnauthorized):
		h.deny(c, "follow")
		return
	case err != nil:
		h.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, userPath(user.ID)+"/following")
}

// EditProfilePage handles GET /users/profile
func (h *ViewHandler) EditProfilePage(c *gin.Context) {
	user := principal(c)
	h.render(c, http.StatusOK, "user_edit.html", gin.H{"Form": ProfileForm{
		Username:       user.Username,
		Email:          user.Email,
		ImageURL:       user.ImageURL,
		HeaderImageURL: user.HeaderImageURL,
		Bio:            user.Bio,
		Location:       user.Location,
	}})
}

// EditProfile handles POST /users/profile
func (h *ViewHandler) EditProfile(c *gin.Context) {
	var form ProfileForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		form.Password = ""
		h.render(c, http.StatusOK, "user_edit.html", gin.H{"Form": form, "Errors": formErrors(err)})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), principal(c), form.Password, usecases.ProfileUpdate{
		Username:       form.Username,
		Email:          form.Email,
		ImageURL:       form.ImageURL,
		HeaderImageURL: form.HeaderImageURL,
		Bio:            form.Bio,
		Location:       form.Location,
	})
	form.Password = ""
	switch {
	case errors.Is(err, usecases.ErrInvalidCredentials):
		h.flash(c, "danger", "Wrong password, please try again.")
		c.Redirect(http.StatusFound, "/")
		return
	case errors.Is(err, usecases.ErrUsernameTaken):
		h.flash(c, "danger", "Username or email already taken")
		h.render(c, http.StatusOK, "user_edit.html", gin.H{"Form": form})
		return
	case err != nil:
		h.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, userPath(user.ID))
}

// DeleteUser handles POST /users/delete
func (h *ViewHandler) DeleteUser(c *gin.Context) {
	if err := h.users.DeleteUser(c.Request.Context(), principal(c)); err != nil {
		h.serverError(c, err)
		return
	}
	if err := h.sessions.Logout(c.Writer, c.Request); err != nil {
		h.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/signup")
}

// ToggleLike handles POST /users/add_like/:msg_id and sends the user back
// where they came from.
func (h *ViewHandler) ToggleLike(c *gin.Context) {
	messageID, ok := paramID(c, "msg_id")
	if !ok {
		h.NotFound(c)
		return
	}
	_, err := h.messages.ToggleLike(c.Request.Context(), principal(c), messageID)
	switch {
	case errors.Is(err, usecases.ErrNotFound):
		h.NotFound(c)
		return
	case errors.Is(err, usecases.ErrSelfLike):
		h.flash(c, "danger", "You cannot like your own message.")
	case err != nil:
		h.serverError(c, err)
		return
	}

	c.Redirect(http.StatusFound, backTo(c.Request.Referer()))
}

// backTo keeps only the path of a referer so redirects stay on this site.
// Protocol-relative and backslash paths would let a browser leave the host.
func backTo(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || u.Path == "" || u.Path[0] != '/' {
		return "/"
	}
	if strings.HasPrefix(u.Path, "//") || strings.Contains(u.Path, `\`) {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
