package v1

import (
	"net/http"
	"time"

	"github.com/wealthplan/backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

const timeFormat = time.RFC3339

func (h *Handler) initUsersRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	users.GET("/me", h.userIdentityMiddleware, h.userMe)
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	CreatedAt string `json:"created_at"`
}

// @Summary Current user
// @Tags Users
// @Description Return the authenticated user's profile
// @Produce  json
// @Success 200 {object} userResponse
// @Failure 401
// @Security UserAuth
// @Router /users/me [get]
func (h *Handler) userMe(c *gin.Context) {
	userID, err := h.getUserUUID(c)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	user, err := h.services.Users.GetOneByID(c.Request.Context(), userID)
	if err != nil {
		logger.Error("get user failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
		return
	}

	c.JSON(http.StatusOK, userResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName.String,
		LastName:  user.LastName.String,
		CreatedAt: user.CreatedAt.Format(timeFormat),
	})
}
