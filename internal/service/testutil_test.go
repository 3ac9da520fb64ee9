package service

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/repository"
	"alumni_backend/pkg/database"
	"alumni_backend/pkg/logger"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// newTestDB 每个测试独立的内存库，复用生产迁移列表
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()

	u := &model.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", strings.ToLower(name)),
		Password: "not-a-real-hash",
		Role:     model.Alumni,
		Status:   model.UserActive,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createSuspendedUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()

	u := createUser(t, db, name)
	require.NoError(t, db.Model(u).Update("status", model.UserSuspended).Error)
	u.Status = model.UserSuspended
	return u
}

// pushedEvent 记录一次投递意图，room 为空表示用户级事件
type pushedEvent struct {
	users []uint
	room  string
	evt   WSEvent
}

// fakePusher 同时充当用户级与会话级推送面，只记录不投递
type fakePusher struct {
	mu     sync.Mutex
	events []pushedEvent
}

func (f *fakePusher) PushToUsers(userIDs []uint, evt WSEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, pushedEvent{users: userIDs, evt: evt})
}

func (f *fakePusher) PushToConversation(conv *model.Conversation, senderID uint, evt WSEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, pushedEvent{
		users: []uint{conv.OtherParticipant(senderID)},
		room:  conv.ID,
		evt:   evt,
	})
}

func (f *fakePusher) byType(typ string) []pushedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pushedEvent
	for _, e := range f.events {
		if e.evt.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakePusher) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

// testEnv 按生产装配方式把各服务接到同一个内存库上
type testEnv struct {
	db            *gorm.DB
	push          *fakePusher
	notifyRepo    *repository.NotificationRepository
	requests      *RequestService
	conversations *ConversationService
	messages      *MessageService
	notifications *NotificationService
	events        *EventService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	push := &fakePusher{}

	userRepo := repository.NewUserRepository(db)
	jobRepo := repository.NewJobRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	notifyRepo := repository.NewNotificationRepository(db, nil)
	eventRepo := repository.NewEventRepository(db)

	orch := NewOrchestrator(notifyRepo, push)

	return &testEnv{
		db:            db,
		push:          push,
		notifyRepo:    notifyRepo,
		requests:      NewRequestService(requestRepo, userRepo, jobRepo, orch),
		conversations: NewConversationService(convRepo, userRepo),
		messages:      NewMessageService(msgRepo, convRepo, orch, push),
		notifications: NewNotificationService(notifyRepo),
		events:        NewEventService(eventRepo, userRepo, orch),
	}
}

func (e *testEnv) reloadConversation(t *testing.T, id string) *model.Conversation {
	t.Helper()
	var conv model.Conversation
	require.NoError(t, e.db.First(&conv, "id = ?", id).Error)
	return &conv
}

func (e *testEnv) notificationsFor(t *testing.T, userID uint, typ model.NotificationType) []model.Notification {
	t.Helper()
	var ns []model.Notification
	require.NoError(t, e.db.
		Where("recipient_id = ? AND type = ?", userID, typ).
		Order("created_at ASC").
		Find(&ns).Error)
	return ns
}
