package controller

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/service"
	"alumni_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name           string `json:"name" binding:"required,max=100" example:"王小明"`
	Email          string `json:"email" binding:"required,email" example:"ming@example.com"`
	Password       string `json:"password" binding:"required,min=8" example:"secret123"`
	GraduationYear int    `json:"graduationYear" example:"2018"`
	CurrentCompany string `json:"currentCompany" example:"Acme"`
	CurrentTitle   string `json:"currentTitle" example:"工程师"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ming@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// Register godoc
// @Summary 注册系友账号
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   request body RegisterRequest true "注册请求"
// @Success 201 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "参数错误"
// @Router /api/auth/register [post]
func (ctrl *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	user := &model.User{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		GraduationYear: req.GraduationYear,
		CurrentCompany: req.CurrentCompany,
		CurrentTitle:   req.CurrentTitle,
		Role:           model.Alumni,
		Status:         model.UserActive,
	}

	if err := ctrl.AuthService.Register(user); err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Created(c, user)
}

// Login godoc
// @Summary 登录
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   request body LoginRequest true "登录请求"
// @Success 200 {object} util.Response "成功，data.token 为访问令牌"
// @Failure 401 {object} util.Response "凭证无效"
// @Router /api/auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	token, err := ctrl.AuthService.Login(req.Email, req.Password)
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, gin.H{"token": token})
}

// Me godoc
// @Summary 当前登录用户
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Router /api/auth/me [get]
func (ctrl *AuthController) Me(c *gin.Context) {
	user := ctrl.AuthService.GetCurrentUser(c)
	if user == nil {
		util.Unauthorized(c)
		return
	}
	util.Success(c, user)
}
