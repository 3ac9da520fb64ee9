package controller

import (
	"alumni_backend/internal/service"
	"alumni_backend/internal/util"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// ConversationController 会话与消息相关接口，包括 WebSocket 入口
type ConversationController struct {
	ConvService    *service.ConversationService
	MsgService     *service.MessageService
	StorageService *service.StorageService
	Hub            *service.PushHub
}

// CreateConversationRequest 建立（或复用）直连会话请求
type CreateConversationRequest struct {
	TargetUserID uint `json:"targetUserId" binding:"required" example:"2"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content        string `json:"content" binding:"max=5000" example:"学长好，方便聊聊吗"`
	Type           string `json:"type" example:"text"`
	AttachmentURL  string `json:"attachmentUrl" example:"/attachments/xxx.pdf"`
	AttachmentName string `json:"attachmentName" example:"简历.pdf"`
}

func NewConversationController(convService *service.ConversationService, msgService *service.MessageService, storageService *service.StorageService, hub *service.PushHub) *ConversationController {
	return &ConversationController{
		ConvService:    convService,
		MsgService:     msgService,
		StorageService: storageService,
		Hub:            hub,
	}
}

// HandleWS godoc
// @Summary WebSocket 连接
// @Description 建立 WebSocket 连接以接收实时推送（新消息 / 通知 / 已读回执）
// @Tags 会话
// @Security ApiKeyAuth
// @Param   token query string true "JWT Token"
// @Success 101 {string} string "Switching Protocols"
// @Router /api/conversations/ws [get]
func (ctrl *ConversationController) HandleWS(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}
	service.ServeWs(ctrl.Hub, c.Writer, c.Request, userID)
}

// Create godoc
// @Summary 建立直连会话
// @Description 与目标用户的会话已存在时直接返回已有会话
// @Tags 会话
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   request body CreateConversationRequest true "目标用户"
// @Success 200 {object} util.Response{data=model.Conversation} "成功"
// @Router /api/conversations [post]
func (ctrl *ConversationController) Create(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	conv, err := ctrl.ConvService.GetOrCreate(userID, req.TargetUserID)
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, conv)
}

// List godoc
// @Summary 我的会话列表
// @Description 按最近消息倒序，默认不含封存的会话
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   includeArchived query bool false "包含封存会话"
// @Param   page query int false "页码"
// @Param   limit query int false "分页大小"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/conversations [get]
func (ctrl *ConversationController) List(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	includeArchived := c.Query("includeArchived") == "true"
	page, limit := util.ParsePagination(c)

	views, total, err := ctrl.ConvService.List(userID, includeArchived, page, limit)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, util.PageResponse{List: views, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary 会话详情
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=model.Conversation} "成功"
// @Router /api/conversations/{id} [get]
func (ctrl *ConversationController) Get(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	conv, err := ctrl.ConvService.Get(userID, c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, conv)
}

// Archive godoc
// @Summary 封存会话
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/conversations/{id}/archive [post]
func (ctrl *ConversationController) Archive(c *gin.Context) {
	ctrl.setArchived(c, true)
}

// Unarchive godoc
// @Summary 取消封存
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/conversations/{id}/unarchive [post]
func (ctrl *ConversationController) Unarchive(c *gin.Context) {
	ctrl.setArchived(c, false)
}

func (ctrl *ConversationController) setArchived(c *gin.Context, archived bool) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	if err := ctrl.ConvService.SetArchived(userID, c.Param("id"), archived); err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, nil)
}

// Delete godoc
// @Summary 删除会话（单边）
// @Description 只从自己的列表里移除；对方再次发消息时会话会重新出现
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/conversations/{id} [delete]
func (ctrl *ConversationController) Delete(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	if err := ctrl.ConvService.Delete(userID, c.Param("id")); err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, nil)
}

// TotalUnread godoc
// @Summary 未读消息总数
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "成功"
// @Router /api/conversations/unread-count [get]
func (ctrl *ConversationController) TotalUnread(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	total, err := ctrl.ConvService.TotalUnread(userID)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, gin.H{"unreadCount": total})
}

// SendMessage godoc
// @Summary 发送消息
// @Tags 会话
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   request body SendMessageRequest true "消息内容"
// @Success 201 {object} util.Response{data=model.Message} "成功"
// @Failure 409 {object} util.Response "内容为空"
// @Router /api/conversations/{id}/messages [post]
func (ctrl *ConversationController) SendMessage(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	msg, err := ctrl.MsgService.Send(userID, c.Param("id"), service.SendMessageInput{
		Content:        req.Content,
		Type:           req.Type,
		AttachmentURL:  req.AttachmentURL,
		AttachmentName: req.AttachmentName,
	})
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Created(c, msg)
}

// ListMessages godoc
// @Summary 会话消息记录
// @Description 旧消息在前
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   page query int false "页码"
// @Param   limit query int false "分页大小"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/conversations/{id}/messages [get]
func (ctrl *ConversationController) ListMessages(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	page, limit := util.ParsePagination(c)
	msgs, total, err := ctrl.MsgService.List(userID, c.Param("id"), page, limit)
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, util.PageResponse{List: msgs, Total: total, Page: page, Limit: limit})
}

// MarkRead godoc
// @Summary 标记会话已读
// @Description 幂等；发给我的未读消息全部盖章并清零未读数
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response "成功，data.count 为本次盖章条数"
// @Router /api/conversations/{id}/read [post]
func (ctrl *ConversationController) MarkRead(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	count, err := ctrl.MsgService.MarkRead(userID, c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, gin.H{"count": count})
}

// DeleteMessage godoc
// @Summary 删除消息
// @Description 仅发送者可删；删除未读消息会同步修正对方未读数
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   messageId path string true "消息ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/messages/{messageId} [delete]
func (ctrl *ConversationController) DeleteMessage(c *gin.Context) {
	userID, ok := util.CurrentUserID(c)
	if !ok {
		util.Unauthorized(c)
		return
	}

	if err := ctrl.MsgService.Delete(userID, c.Param("messageId")); err != nil {
		util.FailFromError(c, err)
		return
	}
	util.Success(c, nil)
}

// UploadAttachment godoc
// @Summary 上传消息附件
// @Tags 会话
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "附件"
// @Success 200 {object} util.Response "成功，data.url 为附件地址"
// @Router /api/attachments [post]
func (ctrl *ConversationController) UploadAttachment(c *gin.Context) {
	if _, ok := util.CurrentUserID(c); !ok {
		util.Unauthorized(c)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		util.BadRequest(c, "缺少附件文件")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	defer f.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := ctrl.StorageService.UploadAttachment(c.Request.Context(), filepath.Base(fileHeader.Filename), f, fileHeader.Size, contentType)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, gin.H{
		"url":  url,
		"name": fileHeader.Filename,
	})
}
