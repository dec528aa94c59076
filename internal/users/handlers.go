package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserHandlers provides HTTP handlers for user operations
type UserHandlers struct {
	userService UserService
	logger      *zap.Logger
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(userService UserService, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all user-related routes
func (h *UserHandlers) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.PUT("/:id", h.UpdateAll)
		users.PATCH("/:id", h.UpdateFields)
		users.DELETE("/:id", h.DeleteUser)
		users.GET("/search", h.SearchByBirthDateRange)
	}
}

func (h *UserHandlers) CreateUser(c *gin.Context) {
	requestID := uuid.New().String()

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if fields := req.Validate(); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation Failed", "errors": fields})
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create user",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) UpdateAll(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if fields := req.Validate(); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation Failed", "errors": fields})
		return
	}

	user, err := h.userService.UpdateAll(c.Request.Context(), id, &req)
	if err != nil {
		h.logger.Error("Failed to update user",
			zap.Int64("user_id", id),
			zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) UpdateFields(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if fields := req.Validate(); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation Failed", "errors": fields})
		return
	}

	user, err := h.userService.UpdateFields(c.Request.Context(), id, &req)
	if err != nil {
		h.logger.Error("Failed to update user fields",
			zap.Int64("user_id", id),
			zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) DeleteUser(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete user",
			zap.Int64("user_id", id),
			zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *UserHandlers) SearchByBirthDateRange(c *gin.Context) {
	fields := make(map[string]string)

	start, err := ParseDate(c.Query("startDate"))
	if err != nil {
		fields["startDate"] = "The 'startDate' must be a date in format yyyy-MM-dd"
	}
	end, err := ParseDate(c.Query("endDate"))
	if err != nil {
		fields["endDate"] = "The 'endDate' must be a date in format yyyy-MM-dd"
	}
	if len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation Failed", "errors": fields})
		return
	}

	found, err := h.userService.SearchByBirthDateRange(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("Failed to search users",
			zap.String("start_date", start.String()),
			zap.String("end_date", end.String()),
			zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, found)
}

// userID parses the :id path parameter, writing a 400 response when it is not numeric
func (h *UserHandlers) userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return 0, false
	}
	return id, true
}

// writeError translates a domain error into its status code and message body
func (h *UserHandlers) writeError(c *gin.Context, err error) {
	domainErr, ok := AsError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	switch domainErr.Type {
	case ErrorTypeValidationFailed:
		c.JSON(http.StatusBadRequest, gin.H{"message": domainErr.Message, "errors": domainErr.Fields})
	case ErrorTypeDuplicatedEmail:
		c.JSON(http.StatusConflict, gin.H{"message": domainErr.Message})
	case ErrorTypeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"message": domainErr.Message})
	case ErrorTypeUnderage, ErrorTypeFutureBirthDate, ErrorTypeInvalidDateRange:
		c.JSON(http.StatusBadRequest, gin.H{"message": domainErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
