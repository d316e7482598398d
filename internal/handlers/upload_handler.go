package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/services"
)

func UploadFile(us *services.UploadService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadSize)

		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("No file provided"))
			return
		}
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("Could not read file"))
			return
		}
		defer file.Close()

		upload, err := us.UploadFile(c.Request.Context(), header.Filename, file)
		if err != nil {
			respondError(c, "File", err)
			return
		}
		c.JSON(http.StatusOK, upload)
	}
}

func UploadMetadata(us *services.UploadService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Metadata map[string]any `json:"metadata"`
			Name     string         `json:"name"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}
		if body.Metadata == nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("Metadata is required"))
			return
		}

		upload, err := us.UploadMetadata(c.Request.Context(), body.Name, body.Metadata)
		if err != nil {
			respondError(c, "Metadata", err)
			return
		}
		c.JSON(http.StatusOK, upload)
	}
}
