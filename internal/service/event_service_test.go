package service

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createEvent(t *testing.T, env *testEnv, organizerID uint, title string) *model.Event {
	t.Helper()
	event, err := env.events.Create(organizerID, CreateEventInput{
		Title:    title,
		Location: "校友会馆",
		StartsAt: time.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)
	return event
}

func TestEventRegistrationNotifiesOrganizer(t *testing.T) {
	env := newTestEnv(t)
	organizer := createUser(t, env.db, "olivia")
	member := createUser(t, env.db, "bob")

	event := createEvent(t, env, organizer.ID, "返校日聚会")

	reg, err := env.events.Register(member.ID, event.ID, "带两位家属")
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationActive, reg.Status)

	ns := env.notificationsFor(t, organizer.ID, model.NotifyRegistrationReceived)
	require.Len(t, ns, 1)

	// 组织者给自己报名不通知自己
	_, err = env.events.Register(organizer.ID, event.ID, "")
	require.NoError(t, err)
	assert.Len(t, env.notificationsFor(t, organizer.ID, model.NotifyRegistrationReceived), 1)
}

func TestEventRegisterAfterCancelRevives(t *testing.T) {
	env := newTestEnv(t)
	organizer := createUser(t, env.db, "olivia")
	member := createUser(t, env.db, "bob")

	event := createEvent(t, env, organizer.ID, "年度聚餐")

	_, err := env.events.Register(member.ID, event.ID, "第一次")
	require.NoError(t, err)
	require.NoError(t, env.events.CancelRegistration(member.ID, event.ID))

	// 组织者收到取消通知
	assert.Len(t, env.notificationsFor(t, organizer.ID, model.NotifyRegistrationCancelled), 1)

	// 重新报名翻回同一行
	reg, err := env.events.Register(member.ID, event.ID, "又想来了")
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationActive, reg.Status)

	var count int64
	require.NoError(t, env.db.Model(&model.EventRegistration{}).
		Where("event_id = ? AND user_id = ?", event.ID, member.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var row model.EventRegistration
	require.NoError(t, env.db.
		Where("event_id = ? AND user_id = ?", event.ID, member.ID).
		First(&row).Error)
	assert.Equal(t, model.RegistrationActive, row.Status)
	assert.Equal(t, "又想来了", row.Note)
	assert.Nil(t, row.CancelledAt)
}

func TestCancelRegistrationWithoutActiveRow(t *testing.T) {
	env := newTestEnv(t)
	organizer := createUser(t, env.db, "olivia")
	member := createUser(t, env.db, "bob")

	event := createEvent(t, env, organizer.ID, "球赛")

	assert.ErrorIs(t, env.events.CancelRegistration(member.ID, event.ID), util.ErrNotFound)

	// 已取消的报名再取消也是 NotFound
	_, err := env.events.Register(member.ID, event.ID, "")
	require.NoError(t, err)
	require.NoError(t, env.events.CancelRegistration(member.ID, event.ID))
	assert.ErrorIs(t, env.events.CancelRegistration(member.ID, event.ID), util.ErrNotFound)
}

func TestEventCancelNotifiesEachActiveRegistrant(t *testing.T) {
	env := newTestEnv(t)
	organizer := createUser(t, env.db, "olivia")
	b := createUser(t, env.db, "bob")
	c := createUser(t, env.db, "carol")
	d := createUser(t, env.db, "dave")

	event := createEvent(t, env, organizer.ID, "城市分会成立仪式")

	for _, u := range []*model.User{b, c, d} {
		_, err := env.events.Register(u.ID, event.ID, "")
		require.NoError(t, err)
	}
	// d 在活动取消前退出了报名
	require.NoError(t, env.events.CancelRegistration(d.ID, event.ID))

	require.NoError(t, env.events.CancelEvent(organizer.ID, event.ID))

	// 每个仍有效的报名者恰好一条
	assert.Len(t, env.notificationsFor(t, b.ID, model.NotifyEventCancelled), 1)
	assert.Len(t, env.notificationsFor(t, c.ID, model.NotifyEventCancelled), 1)
	assert.Empty(t, env.notificationsFor(t, d.ID, model.NotifyEventCancelled))

	updated, err := env.events.Get(event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventCancelled, updated.Status)
}

func TestEventCancelGuards(t *testing.T) {
	env := newTestEnv(t)
	organizer := createUser(t, env.db, "olivia")
	member := createUser(t, env.db, "bob")

	event := createEvent(t, env, organizer.ID, "讲座")
	_, err := env.events.Register(member.ID, event.ID, "")
	require.NoError(t, err)

	// 仅组织者可取消
	assert.ErrorIs(t, env.events.CancelEvent(member.ID, event.ID), util.ErrForbidden)

	require.NoError(t, env.events.CancelEvent(organizer.ID, event.ID))

	// 重复取消不产生第二批通知
	assert.ErrorIs(t, env.events.CancelEvent(organizer.ID, event.ID), util.ErrInvalidTransition)
	assert.Len(t, env.notificationsFor(t, member.ID, model.NotifyEventCancelled), 1)

	// 已取消的活动不接受报名
	another := createUser(t, env.db, "carol")
	_, err = env.events.Register(another.ID, event.ID, "")
	assert.ErrorIs(t, err, util.ErrInvalidTransition)

	assert.ErrorIs(t, env.events.CancelEvent(organizer.ID, 9999), util.ErrNotFound)
}
