package service

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestAcceptCreatesConversation(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	req, err := env.requests.Create(a.ID, CreateRequestInput{
		TargetID: b.ID,
		Subject:  model.SubjectContact,
		Message:  "毕业后一直没联系上，加个好友？",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	require.NotNil(t, req.PairKey)

	// 接收方收到申请通知
	ns := env.notificationsFor(t, b.ID, model.NotifyRequestReceived)
	require.Len(t, ns, 1)
	assert.Equal(t, req.ID, ns[0].RelatedID)

	accepted, err := env.requests.Respond(b.ID, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.RequestAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)

	// 会话按规范化顺序落了一行
	var conv model.Conversation
	aID, bID := model.CanonicalPair(a.ID, b.ID)
	require.NoError(t, env.db.Where("user_a_id = ? AND user_b_id = ?", aID, bID).First(&conv).Error)
	assert.Equal(t, model.ConversationContact, conv.Type)
	require.NotNil(t, conv.RequestID)
	assert.Equal(t, req.ID, *conv.RequestID)

	// 发起方收到接受通知
	ns = env.notificationsFor(t, a.ID, model.NotifyRequestAccepted)
	assert.Len(t, ns, 1)
}

func TestRequestDuplicateActivePair(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	_, err := env.requests.Create(a.ID, CreateRequestInput{TargetID: b.ID, Subject: model.SubjectContact})
	require.NoError(t, err)

	// 同方向重复
	_, err = env.requests.Create(a.ID, CreateRequestInput{TargetID: b.ID, Subject: model.SubjectContact})
	assert.ErrorIs(t, err, util.ErrDuplicateActiveRequest)

	// 反方向也占用同一配对
	_, err = env.requests.Create(b.ID, CreateRequestInput{TargetID: a.ID, Subject: model.SubjectContact})
	assert.ErrorIs(t, err, util.ErrDuplicateActiveRequest)

	// 另一类别不冲突
	_, err = env.requests.Create(a.ID, CreateRequestInput{TargetID: b.ID, Subject: model.SubjectJobExchange})
	assert.NoError(t, err)
}

func TestRequestStateMachine(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")
	c := createUser(t, env.db, "carol")

	req, err := env.requests.Create(a.ID, CreateRequestInput{TargetID: b.ID, Subject: model.SubjectContact})
	require.NoError(t, err)

	// 只有接收方能响应
	_, err = env.requests.Respond(a.ID, req.ID, true)
	assert.ErrorIs(t, err, util.ErrForbidden)
	_, err = env.requests.Respond(c.ID, req.ID, true)
	assert.ErrorIs(t, err, util.ErrForbidden)

	// 只有发起方能撤回
	_, err = env.requests.Cancel(b.ID, req.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	rejected, err := env.requests.Respond(b.ID, req.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, rejected.Status)
	assert.Nil(t, rejected.PairKey)

	// 已拒绝之后不能再接受或撤回
	_, err = env.requests.Respond(b.ID, req.ID, true)
	assert.ErrorIs(t, err, util.ErrInvalidTransition)
	_, err = env.requests.Cancel(a.ID, req.ID)
	assert.ErrorIs(t, err, util.ErrInvalidTransition)

	// 发起方收到拒绝通知
	ns := env.notificationsFor(t, a.ID, model.NotifyRequestRejected)
	assert.Len(t, ns, 1)

	// 拒绝释放了配对，可以重新申请
	_, err = env.requests.Create(a.ID, CreateRequestInput{TargetID: b.ID, Subject: model.SubjectContact})
	assert.NoError(t, err)
}

func TestRequestCancelReleasesPairSilently(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	req, err := env.requests.Create(a.ID, CreateRequestInput{TargetID: b.ID, Subject: model.SubjectContact})
	require.NoError(t, err)
	env.push.reset()

	cancelled, err := env.requests.Cancel(a.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestCancelled, cancelled.Status)

	// 撤回不产生任何通知
	var count int64
	require.NoError(t, env.db.Model(&model.Notification{}).
		Where("recipient_id = ?", b.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count) // 只有最初那条 request_received
	assert.Empty(t, env.push.events)

	// 配对释放，可重新发起
	_, err = env.requests.Create(b.ID, CreateRequestInput{TargetID: a.ID, Subject: model.SubjectContact})
	assert.NoError(t, err)
}

func TestRequestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	suspended := createSuspendedUser(t, env.db, "mallory")

	// 不能向自己发申请
	_, err := env.requests.Create(a.ID, CreateRequestInput{TargetID: a.ID, Subject: model.SubjectContact})
	assert.ErrorIs(t, err, util.ErrInvalidTarget)

	// 目标不存在
	_, err = env.requests.Create(a.ID, CreateRequestInput{TargetID: 9999, Subject: model.SubjectContact})
	assert.ErrorIs(t, err, util.ErrInvalidTarget)

	// 目标已停用
	_, err = env.requests.Create(a.ID, CreateRequestInput{TargetID: suspended.ID, Subject: model.SubjectContact})
	assert.ErrorIs(t, err, util.ErrInvalidTarget)

	// 停用账号不能发起
	_, err = env.requests.Create(suspended.ID, CreateRequestInput{TargetID: a.ID, Subject: model.SubjectContact})
	assert.ErrorIs(t, err, util.ErrForbidden)
}

func TestJobExchangeRequestValidatesJob(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	job := &model.Job{PosterID: b.ID, Title: "后端工程师", IsActive: true}
	require.NoError(t, env.db.Create(job).Error)

	// is_active 带列默认值，插入时零值会被跳过，必须显式落成 false
	inactive := &model.Job{PosterID: b.ID, Title: "已下线职缺"}
	require.NoError(t, env.db.Create(inactive).Error)
	require.NoError(t, env.db.Model(inactive).Update("is_active", false).Error)

	// 失效职缺拒绝挂载
	_, err := env.requests.Create(a.ID, CreateRequestInput{
		TargetID: b.ID,
		Subject:  model.SubjectJobExchange,
		JobID:    &inactive.ID,
	})
	assert.ErrorIs(t, err, util.ErrInvalidTarget)

	req, err := env.requests.Create(a.ID, CreateRequestInput{
		TargetID: b.ID,
		Subject:  model.SubjectJobExchange,
		JobID:    &job.ID,
	})
	require.NoError(t, err)

	// 接受后会话类型跟随申请类别，并带上职缺关联
	_, err = env.requests.Respond(b.ID, req.ID, true)
	require.NoError(t, err)

	var conv model.Conversation
	aID, bID := model.CanonicalPair(a.ID, b.ID)
	require.NoError(t, env.db.Where("user_a_id = ? AND user_b_id = ?", aID, bID).First(&conv).Error)
	assert.Equal(t, model.ConversationJobExchange, conv.Type)
	require.NotNil(t, conv.JobID)
	assert.Equal(t, job.ID, *conv.JobID)
}

func TestAcceptReusesExistingConversation(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	// 这对用户已经有直连会话
	existing, err := env.conversations.GetOrCreate(a.ID, b.ID)
	require.NoError(t, err)

	req, err := env.requests.Create(a.ID, CreateRequestInput{TargetID: b.ID, Subject: model.SubjectJobExchange})
	require.NoError(t, err)

	// 接受不能因为会话已存在而回滚，必须复用同一行
	accepted, err := env.requests.Respond(b.ID, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.RequestAccepted, accepted.Status)

	var count int64
	require.NoError(t, env.db.Model(&model.Conversation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	conv, err := env.conversations.Get(a.ID, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, conv.ID)
}

func TestPairStatusProgression(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	status, err := env.requests.PairStatus(a.ID, b.ID, model.SubjectContact)
	require.NoError(t, err)
	assert.Equal(t, PairStatusNone, status)

	req, err := env.requests.Create(a.ID, CreateRequestInput{TargetID: b.ID, Subject: model.SubjectContact})
	require.NoError(t, err)

	status, _ = env.requests.PairStatus(a.ID, b.ID, model.SubjectContact)
	assert.Equal(t, PairStatusPendingSent, status)
	status, _ = env.requests.PairStatus(b.ID, a.ID, model.SubjectContact)
	assert.Equal(t, PairStatusPendingReceived, status)

	_, err = env.requests.Respond(b.ID, req.ID, true)
	require.NoError(t, err)
	status, _ = env.requests.PairStatus(a.ID, b.ID, model.SubjectContact)
	assert.Equal(t, PairStatusAccepted, status)
}

func TestPairStatusCancelledReadsAsNone(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")

	req, err := env.requests.Create(a.ID, CreateRequestInput{TargetID: b.ID, Subject: model.SubjectContact})
	require.NoError(t, err)
	_, err = env.requests.Cancel(a.ID, req.ID)
	require.NoError(t, err)

	status, err := env.requests.PairStatus(b.ID, a.ID, model.SubjectContact)
	require.NoError(t, err)
	assert.Equal(t, PairStatusNone, status)
}

func TestRequestListsAndAccess(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")
	c := createUser(t, env.db, "carol")

	req1, err := env.requests.Create(a.ID, CreateRequestInput{TargetID: b.ID, Subject: model.SubjectContact})
	require.NoError(t, err)
	_, err = env.requests.Create(c.ID, CreateRequestInput{TargetID: a.ID, Subject: model.SubjectContact})
	require.NoError(t, err)

	sent, total, err := env.requests.ListSent(a.ID, nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, sent, 1)
	assert.Equal(t, b.ID, sent[0].TargetID)

	received, total, err := env.requests.ListReceived(a.ID, nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, received, 1)
	assert.Equal(t, c.ID, received[0].RequesterID)

	// 状态过滤
	pending := model.RequestPending
	_, total, err = env.requests.ListSent(a.ID, &pending, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// 非当事人不可见
	_, err = env.requests.Get(c.ID, req1.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)
	_, err = env.requests.Get(b.ID, req1.ID)
	assert.NoError(t, err)

	_, err = env.requests.Get(a.ID, "no-such-id")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestListContacts(t *testing.T) {
	env := newTestEnv(t)
	a := createUser(t, env.db, "alice")
	b := createUser(t, env.db, "bob")
	c := createUser(t, env.db, "carol")

	// a↔b 已接受，c→a 待处理
	req, err := env.requests.Create(a.ID, CreateRequestInput{TargetID: b.ID, Subject: model.SubjectContact})
	require.NoError(t, err)
	_, err = env.requests.Respond(b.ID, req.ID, true)
	require.NoError(t, err)
	_, err = env.requests.Create(c.ID, CreateRequestInput{TargetID: a.ID, Subject: model.SubjectContact})
	require.NoError(t, err)

	contacts, total, err := env.requests.ListContacts(a.ID, model.SubjectContact, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, contacts, 1)
	assert.Equal(t, model.RequestAccepted, contacts[0].Status)

	// 双向可见
	contacts, _, err = env.requests.ListContacts(b.ID, model.SubjectContact, 1, 20)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}
