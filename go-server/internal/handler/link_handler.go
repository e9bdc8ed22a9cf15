package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linkzip/linkzip/go-server/internal/middleware"
	"github.com/linkzip/linkzip/go-server/internal/model"
	"github.com/linkzip/linkzip/go-server/internal/repository"
	"github.com/linkzip/linkzip/go-server/internal/service"
	"github.com/linkzip/linkzip/go-server/internal/shortcode"
)

type CreateLinkRequest struct {
	OriginalURL string `json:"original_url" binding:"required"`
	CustomAlias string `json:"custom_alias"`
	GenerateQR  bool   `json:"generate_qr"`
}

type UpdateLinkRequest struct {
	OriginalURL  string `json:"original_url"`
	CustomAlias  string `json:"custom_alias"`
	RegenerateQR bool   `json:"regenerate_qr"`
}

type LinkResponse struct {
	model.Link
	ShortURL    string `json:"short_url"`
	QRGenerated bool   `json:"qr_generated,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type LinkHandler struct {
	svc    *service.LinkService
	logger *zap.Logger
}

func NewLinkHandler(svc *service.LinkService) *LinkHandler {
	return &LinkHandler{
		svc:    svc,
		logger: zap.L().With(zap.String("component", "LinkHandler")),
	}
}

func (h *LinkHandler) Create(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		h.unauthorized(c)
		return
	}

	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request format",
			Code:  "INVALID_JSON",
		})
		return
	}

	link, qrGenerated, err := h.svc.CreateLink(c.Request.Context(), service.CreateLinkInput{
		OwnerID:     userID,
		OriginalURL: req.OriginalURL,
		CustomAlias: req.CustomAlias,
		GenerateQR:  req.GenerateQR,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, LinkResponse{
		Link:        *link,
		ShortURL:    h.svc.ShortURL(link.ShortCode),
		QRGenerated: qrGenerated,
	})
}

func (h *LinkHandler) List(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		h.unauthorized(c)
		return
	}

	links, err := h.svc.ListLinks(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := make([]LinkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, LinkResponse{
			Link:     link,
			ShortURL: h.svc.ShortURL(link.ShortCode),
		})
	}

	c.JSON(http.StatusOK, out)
}

func (h *LinkHandler) Stats(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		h.unauthorized(c)
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), userID, c.Param("code"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *LinkHandler) Update(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		h.unauthorized(c)
		return
	}

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request format",
			Code:  "INVALID_JSON",
		})
		return
	}

	link, err := h.svc.UpdateLink(c.Request.Context(), userID, c.Param("code"), service.UpdateLinkInput{
		OriginalURL:  req.OriginalURL,
		CustomAlias:  req.CustomAlias,
		RegenerateQR: req.RegenerateQR,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, LinkResponse{
		Link:     *link,
		ShortURL: h.svc.ShortURL(link.ShortCode),
	})
}

func (h *LinkHandler) Delete(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		h.unauthorized(c)
		return
	}

	if err := h.svc.DeleteLink(c.Request.Context(), userID, c.Param("code")); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link deleted successfully"})
}

// DownloadQR streams the QR PNG for a link, addressed by link ID.
func (h *LinkHandler) DownloadQR(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid link ID",
			Code:  "INVALID_LINK_ID",
		})
		return
	}

	png, code, err := h.svc.QRCodePNG(c.Request.Context(), linkID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="qr-%s.png"`, code))
	c.Data(http.StatusOK, "image/png", png)
}

func (h *LinkHandler) unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error: "Unauthorized access",
		Code:  "UNAUTHORIZED",
	})
}

func (h *LinkHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid URL format",
			Code:  "INVALID_URL",
		})
	case errors.Is(err, shortcode.ErrInvalidAlias), errors.Is(err, shortcode.ErrReservedAlias):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid alias",
			Code:    "INVALID_ALIAS",
			Details: err.Error(),
		})
	case errors.Is(err, repository.ErrDuplicateCode):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Short code already taken",
			Code:  "DUPLICATE_CODE",
		})
	case errors.Is(err, repository.ErrLinkNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Link not found",
			Code:  "LINK_NOT_FOUND",
		})
	case errors.Is(err, service.ErrCodeGenerationMax):
		h.logger.Error("Code generation max attempts reached", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Service temporarily unavailable",
			Code:  "CODE_GENERATION_FAILED",
		})
	case errors.Is(err, repository.ErrDatabaseError):
		h.logger.Error("Database error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Database error",
			Code:  "DB_ERROR",
		})
	default:
		h.logger.Error("Unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
