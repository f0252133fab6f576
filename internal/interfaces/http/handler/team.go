package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptenancy "github.com/invoicer/backend/internal/application/tenancy"
	"github.com/invoicer/backend/internal/infrastructure/metrics"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/invoicer/backend/internal/resource"
)

// ImageField is the multipart field carrying a profile image
const ImageField = "image"

var errImageTooLarge = errors.New("image exceeds maximum allowed size")

// TeamHandler serves registration, sessions and the team profile
type TeamHandler struct {
	BaseHandler
	auth         *apptenancy.AuthService
	profiles     *apptenancy.ProfileService
	teams        Resource
	metrics      *metrics.Registry
	maxImageSize int64
}

// TeamHandlerConfig wires the team handler
type TeamHandlerConfig struct {
	Auth     *apptenancy.AuthService
	Profiles *apptenancy.ProfileService
	// Teams is the team resource serving the profile
	Teams        Resource
	Metrics      *metrics.Registry
	MaxImageSize int64
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(cfg TeamHandlerConfig) *TeamHandler {
	if cfg.MaxImageSize <= 0 {
		cfg.MaxImageSize = 2 << 20
	}
	return &TeamHandler{
		auth:         cfg.Auth,
		profiles:     cfg.Profiles,
		teams:        cfg.Teams,
		metrics:      cfg.Metrics,
		maxImageSize: cfg.MaxImageSize,
	}
}

// Register godoc
// @Summary      Register a team
// @Tags         teams
// @Accept       json
// @Produce      json
// @Param        request body apptenancy.RegisterInput true "Team"
// @Success      201 {object} dto.Response{data=apptenancy.SessionResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /teams/register [put]
func (h *TeamHandler) Register(c *gin.Context) {
	var in apptenancy.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), in)
	h.countAuth("register", err)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Login godoc
// @Summary      Open a session
// @Description  Credentials are read from HTTP basic auth, or from the JSON body without it
// @Tags         teams
// @Accept       json
// @Produce      json
// @Param        request body apptenancy.LoginInput false "Credentials"
// @Success      200 {object} dto.Response{data=apptenancy.SessionResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /teams/login [post]
func (h *TeamHandler) Login(c *gin.Context) {
	var in apptenancy.LoginInput
	if username, password, ok := c.Request.BasicAuth(); ok {
		in = apptenancy.LoginInput{Username: username, Password: password}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), in)
	h.countAuth("login", err)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout revokes the presented session token
// @Router /teams/logout [post]
func (h *TeamHandler) Logout(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	err := h.auth.Logout(c.Request.Context(), session)
	h.countAuth("logout", err)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetProfile returns the profile of the caller's team
// @Router /teams/profile [get]
func (h *TeamHandler) GetProfile(c *gin.Context) {
	tenant := middleware.GetTenantID(c)
	profile, err := h.teams.Read(c.Request.Context(), tenant, selfParams(tenant))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// UpdateProfile patches the profile of the caller's team
// @Router /teams/profile [patch]
func (h *TeamHandler) UpdateProfile(c *gin.Context) {
	tenant := middleware.GetTenantID(c)
	profile, err := h.teams.Update(c.Request.Context(), tenant, selfParams(tenant), bindJSON(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// UploadImage godoc
// @Summary      Upload the profile image
// @Description  Accepts a multipart "image" field or the raw image as body
// @Tags         teams
// @Accept       multipart/form-data
// @Produce      json
// @Success      200 {object} dto.Response{data=tenancy.Profile}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /teams/profile/image [put]
func (h *TeamHandler) UploadImage(c *gin.Context) {
	data, err := h.readImage(c)
	if errors.Is(err, errImageTooLarge) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Image exceeds maximum allowed size")
		return
	}
	if err != nil {
		h.HandleBindError(c, err)
		return
	}

	profile, err := h.profiles.UploadImage(c.Request.Context(), middleware.GetTenantID(c), data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ImageUploaded()
	}
	h.Success(c, profile)
}

// GetImage serves the profile image of any team
// @Router /teams/{id}/image [get]
func (h *TeamHandler) GetImage(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param(resource.ParentParam))
	if err != nil {
		h.HandleError(c, resource.ErrInvalidID)
		return
	}

	img, err := h.profiles.Image(c.Request.Context(), teamID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// readImage reads the uploaded image, at most one byte past the size limit
func (h *TeamHandler) readImage(c *gin.Context) ([]byte, error) {
	var src io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile(ImageField)
		if err != nil {
			return nil, err
		}
		if header.Size > h.maxImageSize {
			return nil, errImageTooLarge
		}
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()
		src = file
	}

	data, err := io.ReadAll(io.LimitReader(src, h.maxImageSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxImageSize {
		return nil, errImageTooLarge
	}
	return data, nil
}

func (h *TeamHandler) countAuth(action string, err error) {
	if h.metrics != nil {
		h.metrics.AuthAttempt(action, err == nil)
	}
}

// selfParams addresses the team itself
func selfParams(tenant uuid.UUID) resource.Params {
	return resource.Params{resource.ParentParam: tenant.String()}
}
