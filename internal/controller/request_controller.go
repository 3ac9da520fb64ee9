package controller

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/service"
	"alumni_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// RequestController 社交申请（联络 / 职缺交流）相关接口
type RequestController struct {
	RequestService *service.RequestService
}

// CreateSocialRequestRequest 发起申请请求
type CreateSocialRequestRequest struct {
	TargetID uint   `json:"targetId" binding:"required" example:"2"`
	Subject  string `json:"subject" binding:"required" example:"contact"`
	JobID    *uint  `json:"jobId" example:"7"`
	Message  string `json:"message" binding:"max=255" example:"学长你好，想请教下贵司的情况"`
}

// RespondRequestRequest 响应申请请求
type RespondRequestRequest struct {
	Accept bool `json:"accept" example:"true"`
}

func NewRequestController(requestService *service.RequestService) *RequestController {
	return &RequestController{RequestService: requestService}
}

// Create godoc
// @Summary 发起社交申请
// @Description 向另一位系友发起联络或职缺交流申请；同一对用户同一类别同时最多一条活跃申请
// @Tags 社交申请
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   request body CreateSocialRequestRequest true "申请内容"
// @Success 201 {object} util.Response{data=model.SocialRequest} "成功"
// @Failure 400 {object} util.Response "目标无效"
// @Failure 409 {object} util.Response "已存在活跃申请"
// @Router /api/requests [post]
func (ctrl *RequestController) Create(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	var req CreateSocialRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	subject, ok := model.ParseRequestSubject(req.Subject)
	if !ok {
		util.BadRequest(c, "未知的申请类别")
		return
	}

	created, err := ctrl.RequestService.Create(userID, service.CreateRequestInput{
		TargetID: req.TargetID,
		Subject:  subject,
		JobID:    req.JobID,
		Message:  req.Message,
	})
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Created(c, created)
}

// Respond godoc
// @Summary 响应申请
// @Description 接收方接受或拒绝一条待处理申请；接受后自动建立会话
// @Tags 社交申请
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "申请ID"
// @Param   request body RespondRequestRequest true "响应"
// @Success 200 {object} util.Response{data=model.SocialRequest} "成功"
// @Failure 403 {object} util.Response "非接收方"
// @Failure 409 {object} util.Response "状态不允许"
// @Router /api/requests/{id}/respond [post]
func (ctrl *RequestController) Respond(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	var req RespondRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	updated, err := ctrl.RequestService.Respond(userID, c.Param("id"), req.Accept)
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, updated)
}

// Cancel godoc
// @Summary 撤回申请
// @Description 发起方撤回自己的待处理申请
// @Tags 社交申请
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "申请ID"
// @Success 200 {object} util.Response{data=model.SocialRequest} "成功"
// @Failure 403 {object} util.Response "非发起方"
// @Router /api/requests/{id}/cancel [post]
func (ctrl *RequestController) Cancel(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	updated, err := ctrl.RequestService.Cancel(userID, c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, updated)
}

// Get godoc
// @Summary 申请详情
// @Tags 社交申请
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "申请ID"
// @Success 200 {object} util.Response{data=model.SocialRequest} "成功"
// @Router /api/requests/{id} [get]
func (ctrl *RequestController) Get(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	req, err := ctrl.RequestService.Get(userID, c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, req)
}

// ListSent godoc
// @Summary 我发出的申请
// @Tags 社交申请
// @Produce  json
// @Security ApiKeyAuth
// @Param   status query string false "状态过滤" Enums(pending, accepted, rejected, cancelled)
// @Param   page query int false "页码"
// @Param   limit query int false "分页大小"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/requests/sent [get]
func (ctrl *RequestController) ListSent(c *gin.Context) {
	ctrl.list(c, true)
}

// ListReceived godoc
// @Summary 发给我的申请
// @Tags 社交申请
// @Produce  json
// @Security ApiKeyAuth
// @Param   status query string false "状态过滤" Enums(pending, accepted, rejected, cancelled)
// @Param   page query int false "页码"
// @Param   limit query int false "分页大小"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/requests/received [get]
func (ctrl *RequestController) ListReceived(c *gin.Context) {
	ctrl.list(c, false)
}

func (ctrl *RequestController) list(c *gin.Context, sent bool) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	var status *model.RequestStatus
	if raw := c.Query("status"); raw != "" {
		parsed, ok := model.ParseRequestStatus(raw)
		if !ok {
			util.BadRequest(c, "未知的申请状态")
			return
		}
		status = &parsed
	}

	page, limit := util.ParsePagination(c)

	var (
		reqs  []model.SocialRequest
		total int64
		err   error
	)
	if sent {
		reqs, total, err = ctrl.RequestService.ListSent(userID, status, page, limit)
	} else {
		reqs, total, err = ctrl.RequestService.ListReceived(userID, status, page, limit)
	}
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, util.PageResponse{List: reqs, Total: total, Page: page, Limit: limit})
}

// ListContacts godoc
// @Summary 已建立的联络
// @Description 双方接受的申请列表，按响应时间倒序
// @Tags 社交申请
// @Produce  json
// @Security ApiKeyAuth
// @Param   subject query string false "类别" Enums(contact, job_exchange) default(contact)
// @Param   page query int false "页码"
// @Param   limit query int false "分页大小"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/requests/contacts [get]
func (ctrl *RequestController) ListContacts(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	subject := model.SubjectContact
	if raw := c.Query("subject"); raw != "" {
		parsed, ok := model.ParseRequestSubject(raw)
		if !ok {
			util.BadRequest(c, "未知的申请类别")
			return
		}
		subject = parsed
	}

	page, limit := util.ParsePagination(c)
	contacts, total, err := ctrl.RequestService.ListContacts(userID, subject, page, limit)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, util.PageResponse{List: contacts, Total: total, Page: page, Limit: limit})
}

// PairStatus godoc
// @Summary 与某用户的申请状态
// @Description 返回 none / pending_sent / pending_received / accepted / rejected
// @Tags 社交申请
// @Produce  json
// @Security ApiKeyAuth
// @Param   userId path int true "对方用户ID"
// @Param   subject query string false "类别" Enums(contact, job_exchange) default(contact)
// @Success 200 {object} util.Response "成功"
// @Router /api/requests/status/{userId} [get]
func (ctrl *RequestController) PairStatus(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	otherID := util.MustParseUint(c.Param("userId"))
	if otherID == 0 {
		util.BadRequest(c, "无效的用户ID")
		return
	}

	subject := model.SubjectContact
	if raw := c.Query("subject"); raw != "" {
		parsed, ok := model.ParseRequestSubject(raw)
		if !ok {
			util.BadRequest(c, "未知的申请类别")
			return
		}
		subject = parsed
	}

	status, err := ctrl.RequestService.PairStatus(userID, otherID, subject)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, gin.H{"status": status})
}
