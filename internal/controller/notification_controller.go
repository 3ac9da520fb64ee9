package controller

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/service"
	"alumni_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// NotificationController 通知接口，只操作调用方自己的通知
type NotificationController struct {
	NotifyService *service.NotificationService
}

func NewNotificationController(notifyService *service.NotificationService) *NotificationController {
	return &NotificationController{NotifyService: notifyService}
}

// List godoc
// @Summary 我的通知
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Param   status query string false "状态过滤" Enums(unread, read, archived)
// @Param   type query string false "类型过滤"
// @Param   page query int false "页码"
// @Param   limit query int false "分页大小"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/notifications [get]
func (ctrl *NotificationController) List(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	var status *model.NotificationStatus
	if raw := c.Query("status"); raw != "" {
		parsed, ok := model.ParseNotificationStatus(raw)
		if !ok {
			util.BadRequest(c, "未知的通知状态")
			return
		}
		status = &parsed
	}

	var typ *model.NotificationType
	if raw := c.Query("type"); raw != "" {
		t := model.NotificationType(raw)
		typ = &t
	}

	page, limit := util.ParsePagination(c)
	ns, total, err := ctrl.NotifyService.List(userID, status, typ, page, limit)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, util.PageResponse{List: ns, Total: total, Page: page, Limit: limit})
}

// UnreadCount godoc
// @Summary 未读通知数
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "成功"
// @Router /api/notifications/unread-count [get]
func (ctrl *NotificationController) UnreadCount(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	count, err := ctrl.NotifyService.UnreadCount(userID)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, gin.H{"unreadCount": count})
}

// MarkRead godoc
// @Summary 标记通知已读
// @Description 幂等
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "通知ID"
// @Success 200 {object} util.Response{data=model.Notification} "成功"
// @Router /api/notifications/{id}/read [post]
func (ctrl *NotificationController) MarkRead(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	n, err := ctrl.NotifyService.MarkRead(userID, c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, n)
}

// MarkAllRead godoc
// @Summary 全部标记已读
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "成功，data.count 为本次标记条数"
// @Router /api/notifications/read-all [post]
func (ctrl *NotificationController) MarkAllRead(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	count, err := ctrl.NotifyService.MarkAllRead(userID)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, gin.H{"count": count})
}

// Archive godoc
// @Summary 归档通知
// @Description 幂等
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "通知ID"
// @Success 200 {object} util.Response{data=model.Notification} "成功"
// @Router /api/notifications/{id}/archive [post]
func (ctrl *NotificationController) Archive(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	n, err := ctrl.NotifyService.Archive(userID, c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, n)
}

// Delete godoc
// @Summary 删除通知
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "通知ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/notifications/{id} [delete]
func (ctrl *NotificationController) Delete(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	if err := ctrl.NotifyService.Delete(userID, c.Param("id")); err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, nil)
}
