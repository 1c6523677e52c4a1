package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pixel-editor/internal/domain"
	"pixel-editor/internal/editor"
	"pixel-editor/internal/middleware"
	"pixel-editor/internal/preview"
	"pixel-editor/internal/service"
)

// ImageHandler 封装了图像保存、读取和导出的 HTTP 处理逻辑
type ImageHandler struct {
	imageService *service.ImageService
}

// NewImageHandler 创建 ImageHandler 实例
func NewImageHandler(imageService *service.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

// SaveImageRequest 与编辑器导出的图像记录格式一致
type SaveImageRequest struct {
	Name   string `json:"name" binding:"required"`
	Width  int    `json:"width" binding:"required,min=1"`
	Height int    `json:"height" binding:"required,min=1"`
	Data   string `json:"data" binding:"required"`
}

// ImageResponse 是单张图像的响应体
type ImageResponse struct {
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Data      string    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toImageResponse(img *domain.Image) ImageResponse {
	return ImageResponse{
		Name:      img.Name,
		Width:     img.Width,
		Height:    img.Height,
		Data:      img.Data,
		UpdatedAt: img.UpdatedAt,
	}
}

// Save 处理 POST /api/images
func (h *ImageHandler) Save(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req SaveImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.SaveImage: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	img, err := h.imageService.Save(c.Request.Context(), userID, editor.ImageRecord{
		Name:   req.Name,
		Width:  req.Width,
		Height: req.Height,
		Data:   req.Data,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, gin.H{
		"message": "Image saved",
		"name":    img.Name,
	})
}

// List 处理 GET /api/images
func (h *ImageHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.imageService.List(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"images": list})
}

// Get 处理 GET /api/images/:name
func (h *ImageHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	img, err := h.imageService.Get(c.Request.Context(), userID, c.Param("name"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toImageResponse(img))
}

// Preview 处理 GET /api/images/:name/preview?scale=16&format=png
func (h *ImageHandler) Preview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	scale := preview.DefaultScale
	if s := c.Query("scale"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "scale must be an integer")
			return
		}
		scale = v
	}
	format, err := preview.ParseFormat(c.Query("format"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.imageService.Preview(c.Request.Context(), userID, c.Param("name"), scale, format)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), data)
}

// Delete 处理 DELETE /api/images/:name
func (h *ImageHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.imageService.Delete(c.Request.Context(), userID, c.Param("name")); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requireUser 读取认证用户 ID，缺失时直接写出 401
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		logrus.Warn("Handler: User ID not found in context, middleware missing or failed?")
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	return userID, true
}
