package service

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/repository"
	"alumni_backend/pkg/logger"
	"alumni_backend/pkg/monitoring"
	"fmt"

	"go.uber.org/zap"
)

// Pusher 在线推送的窄接口，编排器只管投递意图，不关心连接管理
type Pusher interface {
	PushToUsers(userIDs []uint, evt WSEvent)
}

// Orchestrator 通知编排器：所有领域事件到持久化通知的唯一写入口。
// 业务操作成功后调用；通知写失败只记日志，绝不反悔已提交的业务结果。
// 在线推送在落库之后尽力而为。
type Orchestrator struct {
	NotificationRepo *repository.NotificationRepository
	Hub              Pusher
}

func NewOrchestrator(notificationRepo *repository.NotificationRepository, hub Pusher) *Orchestrator {
	return &Orchestrator{
		NotificationRepo: notificationRepo,
		Hub:              hub,
	}
}

func subjectLabel(subject model.RequestSubject) string {
	if subject == model.SubjectJobExchange {
		return "职缺交流申请"
	}
	return "联络申请"
}

// RequestReceived 新申请 → 通知接收方
func (o *Orchestrator) RequestReceived(req *model.SocialRequest) {
	o.deliver(model.Notification{
		RecipientID: req.TargetID,
		Type:        model.NotifyRequestReceived,
		Title:       fmt.Sprintf("收到新的%s", subjectLabel(req.Subject)),
		Message:     fmt.Sprintf("%s 向你发起了%s", req.Requester.Name, subjectLabel(req.Subject)),
		RelatedType: "request",
		RelatedID:   req.ID,
	})
}

// RequestAccepted 申请被接受 → 通知发起方
func (o *Orchestrator) RequestAccepted(req *model.SocialRequest) {
	o.deliver(model.Notification{
		RecipientID: req.RequesterID,
		Type:        model.NotifyRequestAccepted,
		Title:       fmt.Sprintf("%s已被接受", subjectLabel(req.Subject)),
		Message:     fmt.Sprintf("%s 接受了你的%s，现在可以开始对话了", req.Target.Name, subjectLabel(req.Subject)),
		RelatedType: "request",
		RelatedID:   req.ID,
	})
}

// RequestRejected 申请被拒绝 → 通知发起方
func (o *Orchestrator) RequestRejected(req *model.SocialRequest) {
	o.deliver(model.Notification{
		RecipientID: req.RequesterID,
		Type:        model.NotifyRequestRejected,
		Title:       fmt.Sprintf("%s未被接受", subjectLabel(req.Subject)),
		Message:     fmt.Sprintf("%s 暂时婉拒了你的%s", req.Target.Name, subjectLabel(req.Subject)),
		RelatedType: "request",
		RelatedID:   req.ID,
	})
}

// MessageSent 新消息 → 通知会话另一方
func (o *Orchestrator) MessageSent(msg *model.Message, conv *model.Conversation) {
	o.deliver(model.Notification{
		RecipientID: conv.OtherParticipant(msg.SenderID),
		Type:        model.NotifyNewMessage,
		Title:       "收到新消息",
		Message:     model.TruncatePreview(msg.Content),
		RelatedType: "conversation",
		RelatedID:   conv.ID,
	})
}

// RegistrationReceived 活动报名 → 通知组织者
func (o *Orchestrator) RegistrationReceived(event *model.Event, registrant *model.User) {
	o.deliver(model.Notification{
		RecipientID: event.OrganizerID,
		Type:        model.NotifyRegistrationReceived,
		Title:       "活动收到新报名",
		Message:     fmt.Sprintf("%s 报名了「%s」", registrant.Name, event.Title),
		RelatedType: "event",
		RelatedID:   fmt.Sprintf("%d", event.ID),
	})
}

// RegistrationCancelled 取消报名 → 通知组织者
func (o *Orchestrator) RegistrationCancelled(event *model.Event, registrant *model.User) {
	o.deliver(model.Notification{
		RecipientID: event.OrganizerID,
		Type:        model.NotifyRegistrationCancelled,
		Title:       "活动报名已取消",
		Message:     fmt.Sprintf("%s 取消了「%s」的报名", registrant.Name, event.Title),
		RelatedType: "event",
		RelatedID:   fmt.Sprintf("%d", event.ID),
	})
}

// EventCancelled 活动取消 → 每个有效报名者各一条，恰好一条
func (o *Orchestrator) EventCancelled(event *model.Event, registrantIDs []uint) {
	if len(registrantIDs) == 0 {
		return
	}

	ns := make([]model.Notification, 0, len(registrantIDs))
	for _, id := range registrantIDs {
		ns = append(ns, model.Notification{
			RecipientID: id,
			Type:        model.NotifyEventCancelled,
			Title:       "活动已取消",
			Message:     fmt.Sprintf("「%s」已被组织者取消", event.Title),
			RelatedType: "event",
			RelatedID:   fmt.Sprintf("%d", event.ID),
		})
	}

	if err := o.NotificationRepo.CreateBatch(ns); err != nil {
		logger.Log.Error("Notification batch write failed",
			zap.Error(err),
			zap.String("type", string(model.NotifyEventCancelled)),
			zap.Int("recipients", len(registrantIDs)))
		return
	}
	monitoring.NotificationCounter.WithLabelValues(string(model.NotifyEventCancelled)).Add(float64(len(ns)))

	if o.Hub != nil {
		for i := range ns {
			o.Hub.PushToUsers([]uint{ns[i].RecipientID}, WSEvent{Type: EventNotification, Data: ns[i]})
		}
	}
}

func (o *Orchestrator) deliver(n model.Notification) {
	if err := o.NotificationRepo.Create(&n); err != nil {
		logger.Log.Error("Notification write failed",
			zap.Error(err),
			zap.String("type", string(n.Type)),
			zap.Uint("recipientId", n.RecipientID))
		return
	}
	monitoring.NotificationCounter.WithLabelValues(string(n.Type)).Inc()

	if o.Hub != nil {
		o.Hub.PushToUsers([]uint{n.RecipientID}, WSEvent{Type: EventNotification, Data: n})
	}
}
