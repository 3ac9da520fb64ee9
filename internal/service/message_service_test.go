package service

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/util"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndListMessages(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	conv, err := env.conversations.GetOrCreate(a.ID, b.ID)
	require.NoError(t, err)

	m1, err := env.messages.Send(a.ID, conv.ID, SendMessageInput{Content: "最近怎么样？"})
	require.NoError(t, err)
	assert.Equal(t, "text", m1.Type)
	m2, err := env.messages.Send(b.ID, conv.ID, SendMessageInput{Content: "还不错，你呢"})
	require.NoError(t, err)

	msgs, total, err := env.messages.List(a.ID, conv.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, msgs, 2)

	// 旧消息在前
	assert.Equal(t, m1.ID, msgs[0].ID)
	assert.Equal(t, m2.ID, msgs[1].ID)

	// 会话元数据跟随最新消息
	reloaded := env.reloadConversation(t, conv.ID)
	require.NotNil(t, reloaded.LastMessageAt)
	assert.Equal(t, "还不错，你呢", reloaded.LastMessagePreview)
}

func TestUnreadCounterLifecycle(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	conv, err := env.conversations.GetOrCreate(a.ID, b.ID)
	require.NoError(t, err)

	_, err = env.messages.Send(a.ID, conv.ID, SendMessageInput{Content: "在吗"})
	require.NoError(t, err)
	_, err = env.messages.Send(a.ID, conv.ID, SendMessageInput{Content: "有空聊聊"})
	require.NoError(t, err)

	reloaded := env.reloadConversation(t, conv.ID)
	assert.Equal(t, 2, reloaded.UnreadFor(b.ID))
	assert.Equal(t, 0, reloaded.UnreadFor(a.ID))

	stamped, err := env.messages.MarkRead(b.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stamped)

	reloaded = env.reloadConversation(t, conv.ID)
	assert.Equal(t, 0, reloaded.UnreadFor(b.ID))

	// 已读回执推给了发送方
	reads := env.push.byType(EventMessagesRead)
	require.Len(t, reads, 1)
	assert.Equal(t, []uint{a.ID}, reads[0].users)

	// 重复标记幂等，不再推回执
	stamped, err = env.messages.MarkRead(b.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stamped)
	assert.Len(t, env.push.byType(EventMessagesRead), 1)
}

func TestDeleteUnreadMessageFixesCounter(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	conv, err := env.conversations.GetOrCreate(a.ID, b.ID)
	require.NoError(t, err)

	msg, err := env.messages.Send(a.ID, conv.ID, SendMessageInput{Content: "发错人了"})
	require.NoError(t, err)
	assert.Equal(t, 1, env.reloadConversation(t, conv.ID).UnreadFor(b.ID))

	require.NoError(t, env.messages.Delete(a.ID, msg.ID))
	assert.Equal(t, 0, env.reloadConversation(t, conv.ID).UnreadFor(b.ID))

	// 列表里不再可见
	_, total, err := env.messages.List(a.ID, conv.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestDeleteReadMessageKeepsCounter(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	conv, err := env.conversations.GetOrCreate(a.ID, b.ID)
	require.NoError(t, err)

	msg, err := env.messages.Send(a.ID, conv.ID, SendMessageInput{Content: "读完再删"})
	require.NoError(t, err)
	_, err = env.messages.MarkRead(b.ID, conv.ID)
	require.NoError(t, err)

	require.NoError(t, env.messages.Delete(a.ID, msg.ID))

	// 已读消息的删除不动计数，也绝不会减成负数
	assert.Equal(t, 0, env.reloadConversation(t, conv.ID).UnreadFor(b.ID))
}

func TestDeleteMessageOnlySender(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	conv, err := env.conversations.GetOrCreate(a.ID, b.ID)
	require.NoError(t, err)
	msg, err := env.messages.Send(a.ID, conv.ID, SendMessageInput{Content: "hello"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.messages.Delete(b.ID, msg.ID), util.ErrForbidden)
	assert.ErrorIs(t, env.messages.Delete(a.ID, "no-such-id"), util.ErrNotFound)
}

func TestSendContentValidation(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")
	c := createUser(t, env.db, "carol")

	conv, err := env.conversations.GetOrCreate(a.ID, b.ID)
	require.NoError(t, err)

	// 纯空白拒绝
	_, err = env.messages.Send(a.ID, conv.ID, SendMessageInput{Content: "   \n\t"})
	assert.ErrorIs(t, err, util.ErrEmptyContent)

	// 只带附件可以为空文本
	msg, err := env.messages.Send(a.ID, conv.ID, SendMessageInput{
		AttachmentURL:  "/uploads/attachments/abc_简历.pdf",
		AttachmentName: "简历.pdf",
		Type:           "file",
	})
	require.NoError(t, err)
	assert.Equal(t, "file", msg.Type)
	assert.Empty(t, msg.Content)

	// 非参与者不能发
	_, err = env.messages.Send(c.ID, conv.ID, SendMessageInput{Content: "蹭一句"})
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, err = env.messages.Send(a.ID, "no-such-conv", SendMessageInput{Content: "hi"})
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestSendResurrectsRecipientSide(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	conv, err := env.conversations.GetOrCreate(a.ID, b.ID)
	require.NoError(t, err)

	// b 把会话封存并删除
	require.NoError(t, env.conversations.SetArchived(b.ID, conv.ID, true))
	require.NoError(t, env.conversations.Delete(b.ID, conv.ID))

	views, _, err := env.conversations.List(b.ID, true, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, views)

	// a 再发消息，会话在 b 侧重新浮出
	_, err = env.messages.Send(a.ID, conv.ID, SendMessageInput{Content: "还在吗？"})
	require.NoError(t, err)

	reloaded := env.reloadConversation(t, conv.ID)
	assert.False(t, reloaded.ArchivedFor(b.ID))

	views, _, err = env.conversations.List(b.ID, false, 1, 20)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].UnreadCount)
}

func TestMessageNotificationPreviewTruncated(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	conv, err := env.conversations.GetOrCreate(a.ID, b.ID)
	require.NoError(t, err)

	long := strings.Repeat("喂", 300)
	_, err = env.messages.Send(a.ID, conv.ID, SendMessageInput{Content: long})
	require.NoError(t, err)

	ns := env.notificationsFor(t, b.ID, model.NotifyNewMessage)
	require.Len(t, ns, 1)
	runes := []rune(ns[0].Message)
	assert.Len(t, runes, 200)
	assert.True(t, strings.HasSuffix(ns[0].Message, "..."))

	// 会话预览同样截断
	assert.Len(t, []rune(env.reloadConversation(t, conv.ID).LastMessagePreview), 200)

	// 消息正文不截断
	msgs, _, err := env.messages.List(b.ID, conv.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, long, msgs[0].Content)
}

func TestSendPushesToConversationRoom(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	conv, err := env.conversations.GetOrCreate(a.ID, b.ID)
	require.NoError(t, err)
	env.push.reset()

	_, err = env.messages.Send(a.ID, conv.ID, SendMessageInput{Content: "ping"})
	require.NoError(t, err)

	// 会话级推送目标是另一方、房间是会话本身
	events := env.push.byType(EventNewMessage)
	require.Len(t, events, 1)
	assert.Equal(t, []uint{b.ID}, events[0].users)
	assert.Equal(t, conv.ID, events[0].room)

	// 持久化通知走用户级推送
	notifies := env.push.byType(EventNotification)
	require.Len(t, notifies, 1)
	assert.Equal(t, []uint{b.ID}, notifies[0].users)
	assert.Empty(t, notifies[0].room)
}
