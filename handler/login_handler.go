package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bachngocs/support-chatbot-be/types"
	"github.com/bachngocs/support-chatbot-be/utils"
)

type LoginHandler interface {
	HandleLogin(c *gin.Context)
}

type loginHandler struct {
	adminUsername string
	adminPassword string
}

func NewLoginHandler(adminUsername, adminPassword string) LoginHandler {
	return &loginHandler{
		adminUsername: adminUsername,
		adminPassword: adminPassword,
	}
}

func (h *loginHandler) HandleLogin(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid request body",
		})
		return
	}

	if h.adminPassword == "" ||
		subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.adminUsername)) != 1 ||
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.adminPassword)) != 1 {
		c.JSON(http.StatusUnauthorized, types.DataResponse{
			Status:  false,
			Message: "Invalid credentials",
		})
		return
	}

	token, err := utils.GenerateAdminToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data: types.LoginResponse{
			AccessToken: token,
		},
	})
}
