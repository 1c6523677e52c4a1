package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pixel-editor/internal/service"
)

// AuthHandler 封装了与用户认证相关的 HTTP 处理逻辑
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest 定义注册请求的结构体
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// Register 处理用户注册请求
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	// 1. 绑定并验证输入 JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Register: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	// 2. 调用 Service 层处理注册逻辑
	newUser, err := h.authService.Register(c.Request.Context(), req.Username, req.Password, req.Email)

	if err != nil {
		logrus.WithField("username", req.Username).WithError(err).Warn("Handler.Register: Registration failed")
		HandleServiceError(c, err)
		return
	}

	// 3. 注册成功响应
	logrus.WithField("user_id", newUser.ID).Info("Handler.Register: User registered successfully")
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user_id": newUser.ID,
	})
}

// LoginRequest 定义登录请求的结构体
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 定义登录成功的响应结构体
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Login 处理用户登录请求
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	// 1. 绑定并验证输入 JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Login: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: username and password required"})
		return
	}

	// 2. 调用 Service 层处理登录逻辑
	token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)

	if err != nil {
		HandleServiceError(c, err)
		return
	}

	// 3. 登录成功响应
	logrus.WithField("username", req.Username).Info("Handler.Login: User logged in successfully")
	c.JSON(http.StatusOK, LoginResponse{
		Message: "Login successful",
		Token:   token,
	})
}

