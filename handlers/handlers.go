package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"safestreet/database"
	"safestreet/metrics"
	"safestreet/models"
	"safestreet/otp"
	"safestreet/rabbitmq"
	"safestreet/storage"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Handlers handles HTTP requests for the SafeStreet backend
type Handlers struct {
	users     *database.UserService
	uploads   *database.UploadService
	authority *otp.Authority
	store     *storage.Store
	publisher *rabbitmq.Publisher
}

// NewHandlers creates a new handlers instance. publisher may be nil when
// no broker is configured.
func NewHandlers(users *database.UserService, uploads *database.UploadService, authority *otp.Authority, store *storage.Store, publisher *rabbitmq.Publisher) *Handlers {
	return &Handlers{
		users:     users,
		uploads:   uploads,
		authority: authority,
		store:     store,
		publisher: publisher,
	}
}

// Signup handles user registration
func (h *Handlers) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, database.ErrUserExists) {
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
			return
		}
		log.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	token, user, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, database.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: err.Error()})
			return
		}
		log.WithError(err).Error("Failed to log user in")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to log in"})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{Token: token, User: user})
}

// SendOtp issues a password-reset code for the given account.
func (h *Handlers) SendOtp(c *gin.Context) {
	var req models.SendOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Email is required."})
		return
	}

	if err := h.authority.Issue(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, otp.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "User not found."})
			return
		}
		log.WithError(err).Errorf("Failed to issue OTP for %s", req.Email)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to send OTP."})
		return
	}

	metrics.OtpIssuedTotal.Inc()
	c.JSON(http.StatusOK, models.MessageResponse{Message: "OTP sent successfully."})
}

// VerifyOtp checks a previously issued code without consuming it.
func (h *Handlers) VerifyOtp(c *gin.Context) {
	var req models.VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.authority.Verify(req.Email, req.Otp); err != nil {
		metrics.OtpVerifyTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, otp.ErrNoPendingOtp) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No OTP sent for this email."})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid or expired OTP."})
		return
	}

	metrics.OtpVerifyTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, models.MessageResponse{Message: "OTP verified successfully."})
}

// ResetPassword consumes a still-valid code and sets the new password.
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.authority.ConsumeAndReset(c.Request.Context(), req.Email, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, otp.ErrNoPendingOtp), errors.Is(err, otp.ErrInvalidOrExpired):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "OTP not verified or expired."})
		case errors.Is(err, database.ErrUserNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "User not found."})
		default:
			log.WithError(err).Errorf("Failed to reset password for %s", req.Email)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Server error during password reset."})
		}
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Password reset successful."})
}

// UploadNew accepts a finalized report submission: multipart fields
// userId, location, summary plus the image file. All required fields
// are validated before any side effect.
func (h *Handlers) UploadNew(c *gin.Context) {
	userID := c.PostForm("userId")
	location := c.PostForm("location")
	summaryText := c.PostForm("summary")

	fileHeader, fileErr := c.FormFile("image")
	if userID == "" || location == "" || summaryText == "" || fileErr != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing required fields"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to save upload"})
		return
	}
	defer file.Close()

	imageURL, err := h.store.Save(fileHeader.Filename, file)
	if err != nil {
		log.WithError(err).Error("Failed to persist image blob")
		metrics.UploadsTotal.WithLabelValues("failure").Inc()
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to save upload"})
		return
	}

	upload, err := h.uploads.SaveUpload(c.Request.Context(), userID, location, summaryText, imageURL)
	if err != nil {
		log.WithError(err).Error("Failed to save upload")
		metrics.UploadsTotal.WithLabelValues("failure").Inc()
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to save upload"})
		return
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	h.publishUpload(upload)

	c.JSON(http.StatusOK, models.UploadResponse{
		Message: "Upload saved successfully!",
		Data: models.UploadData{
			Summary:   upload.Summary,
			Address:   upload.Location,
			Latitude:  upload.Latitude,
			Longitude: upload.Longitude,
			ImageURL:  upload.ImageURL,
			ID:        upload.ID,
			CreatedAt: upload.CreatedAt,
		},
	})
}

// publishUpload forwards the created record for downstream analysis.
func (h *Handlers) publishUpload(upload *models.Upload) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(upload); err != nil {
		log.WithError(err).Errorf("Failed to publish upload %s", upload.ID)
	}
}

// UploadAll returns every submitted report, newest first.
func (h *Handlers) UploadAll(c *gin.Context) {
	uploads, err := h.uploads.ListUploads(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list uploads")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch uploads"})
		return
	}
	c.JSON(http.StatusOK, uploads)
}

// UploadNearby returns geocoded reports within radius_km of lat/lon.
func (h *Handlers) UploadNearby(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "lat and lon are required"})
		return
	}

	radiusKm := 5.0
	if raw := c.Query("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid radius_km"})
			return
		}
		radiusKm = parsed
	}

	uploads, err := h.uploads.ListNearby(c.Request.Context(), lat, lon, radiusKm)
	if err != nil {
		log.WithError(err).Error("Failed to list nearby uploads")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch uploads"})
		return
	}
	c.JSON(http.StatusOK, uploads)
}

// Resolve marks a report as resolved.
func (h *Handlers) Resolve(c *gin.Context) {
	id := c.Param("id")

	if err := h.uploads.Resolve(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Report not found"})
			return
		}
		log.WithError(err).Errorf("Failed to resolve report %s", id)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to resolve report"})
		return
	}

	metrics.ResolvedTotal.Inc()
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Report marked as resolved"})
}

// HealthCheck returns the service health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "safestreet",
	})
}
