package handler

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/linkzip/linkzip/go-server/internal/repository"
	"github.com/linkzip/linkzip/go-server/internal/service"
)

//go:embed views/redirect.html
var viewsFS embed.FS

var redirectTemplate = template.Must(template.ParseFS(viewsFS, "views/redirect.html"))

// RedirectHandler serves the public short URL path. The response is an
// interstitial page that sends the browser to the target client-side.
type RedirectHandler struct {
	svc    *service.RedirectService
	logger *zap.Logger
}

func NewRedirectHandler(svc *service.RedirectService) *RedirectHandler {
	return &RedirectHandler{
		svc:    svc,
		logger: zap.L().With(zap.String("component", "RedirectHandler")),
	}
}

func (h *RedirectHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	meta := service.ClickMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	target, err := h.svc.Resolve(c.Request.Context(), code, meta)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.String(http.StatusNotFound, "Link not found")
			return
		}
		h.logger.Error("Failed to resolve short code", zap.Error(err), zap.String("short_code", code))
		c.String(http.StatusInternalServerError, "Something went wrong")
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := redirectTemplate.Execute(c.Writer, gin.H{"URL": target}); err != nil {
		h.logger.Error("Failed to render redirect page", zap.Error(err))
	}
}
