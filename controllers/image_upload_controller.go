package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"

	"foodwagen/services"
)

var uploadFolders = map[string]string{
	"food":       "food-images",
	"restaurant": "restaurant-logos",
}

type UploadRequest struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
	Kind        string `json:"kind" binding:"required,oneof=food restaurant"`
}

// DefaultMaxUploadBytes caps an upload body, base64 overhead included.
const DefaultMaxUploadBytes = 8 << 20

type ImageUploadController struct {
	Store    services.ImageStore
	MaxBytes int64
}

func NewImageUploadController(store services.ImageStore) *ImageUploadController {
	return &ImageUploadController{Store: store, MaxBytes: DefaultMaxUploadBytes}
}

// POST /api/uploads { "image_base64": "data:image/png;base64,...", "kind": "food" }
// The returned URL goes into food_image or restaurant_logo.
func (uc *ImageUploadController) Upload(c *gin.Context) {
	if uc.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uc.MaxBytes)
	}
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	url, err := uc.Store.Upload(c.Request.Context(), req.ImageBase64, uploadFolders[req.Kind])
	if err != nil {
		if errors.Is(err, errors.NotValid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
