package controller

import (
	"alumni_backend/internal/service"
	"alumni_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

// EventController 活动报名链路接口
type EventController struct {
	EventService *service.EventService
}

// CreateEventRequest 创建活动请求
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,max=200" example:"返校日聚会"`
	Description string    `json:"description" example:"欢迎各届系友"`
	Location    string    `json:"location" binding:"max=200" example:"活动中心"`
	StartsAt    time.Time `json:"startsAt" binding:"required" example:"2026-10-01T18:00:00+08:00"`
}

// RegisterEventRequest 报名请求
type RegisterEventRequest struct {
	Note string `json:"note" binding:"max=255" example:"带一位家属"`
}

func NewEventController(eventService *service.EventService) *EventController {
	return &EventController{EventService: eventService}
}

// Create godoc
// @Summary 创建活动
// @Tags 活动
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   request body CreateEventRequest true "活动信息"
// @Success 201 {object} util.Response{data=model.Event} "成功"
// @Router /api/events [post]
func (ctrl *EventController) Create(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	event, err := ctrl.EventService.Create(userID, service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
	})
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Created(c, event)
}

// Get godoc
// @Summary 活动详情
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "活动ID"
// @Success 200 {object} util.Response{data=model.Event} "成功"
// @Router /api/events/{id} [get]
func (ctrl *EventController) Get(c *gin.Context) {
	eventID := util.MustParseUint(c.Param("id"))
	if eventID == 0 {
		util.BadRequest(c, "无效的活动ID")
		return
	}

	event, err := ctrl.EventService.Get(eventID)
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, event)
}

// Register godoc
// @Summary 报名活动
// @Description 取消过的报名重新报名时复用原记录；组织者会收到通知
// @Tags 活动
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "活动ID"
// @Param   request body RegisterEventRequest false "备注"
// @Success 201 {object} util.Response{data=model.EventRegistration} "成功"
// @Failure 409 {object} util.Response "活动已取消"
// @Router /api/events/{id}/register [post]
func (ctrl *EventController) Register(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	eventID := util.MustParseUint(c.Param("id"))
	if eventID == 0 {
		util.BadRequest(c, "无效的活动ID")
		return
	}

	var req RegisterEventRequest
	c.ShouldBindJSON(&req)

	reg, err := ctrl.EventService.Register(userID, eventID, req.Note)
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Created(c, reg)
}

// CancelRegistration godoc
// @Summary 取消报名
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "活动ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/events/{id}/register [delete]
func (ctrl *EventController) CancelRegistration(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	eventID := util.MustParseUint(c.Param("id"))
	if eventID == 0 {
		util.BadRequest(c, "无效的活动ID")
		return
	}

	if err := ctrl.EventService.CancelRegistration(userID, eventID); err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, nil)
}

// Cancel godoc
// @Summary 取消活动
// @Description 仅组织者；每个有效报名者都会收到一条取消通知
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "活动ID"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "非组织者"
// @Router /api/events/{id} [delete]
func (ctrl *EventController) Cancel(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	eventID := util.MustParseUint(c.Param("id"))
	if eventID == 0 {
		util.BadRequest(c, "无效的活动ID")
		return
	}

	if err := ctrl.EventService.CancelEvent(userID, eventID); err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, nil)
}
