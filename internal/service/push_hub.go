package service

import (
	"alumni_backend/internal/config"
	"alumni_backend/internal/model"
	"alumni_backend/internal/repository"
	"alumni_backend/pkg/logger"
	"alumni_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	shardCount     = 32
)

// 推送事件类型
const (
	EventNewMessage    = "NEW_MESSAGE"
	EventMessagesRead  = "MESSAGES_READ"
	EventNotification  = "NOTIFICATION"
	EventRequestUpdate = "REQUEST_UPDATE"
	EventTyping        = "TYPING"
	EventUserStatus    = "USER_STATUS"
	EventSubscribed    = "SUBSCRIBED"
	EventUnsubscribed  = "UNSUBSCRIBED"
)

var eventPool = sync.Pool{
	New: func() interface{} {
		return &WSEvent{}
	},
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Client struct {
	Hub     *PushHub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  uint
	Limiter *rate.Limiter

	// 该连接显式订阅的会话
	subs map[string]bool
	mu   sync.Mutex
}

func (c *Client) subscribe(convID string) {
	c.mu.Lock()
	c.subs[convID] = true
	c.mu.Unlock()
}

func (c *Client) unsubscribe(convID string) {
	c.mu.Lock()
	delete(c.subs, convID)
	c.mu.Unlock()
}

func (c *Client) isSubscribed(convID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[convID]
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.UserID))
			}
			break
		}

		// 限流校验，超限帧直接丢弃
		if !c.Limiter.Allow() {
			continue
		}

		evt := eventPool.Get().(*WSEvent)
		if err := json.Unmarshal(raw, evt); err != nil {
			eventPool.Put(evt)
			continue
		}

		monitoring.PushMessageCounter.WithLabelValues(evt.Type).Inc()

		switch evt.Type {
		case EventSubscribed, "SUBSCRIBE":
			c.Hub.handleSubscribe(c, *evt, true)
		case EventUnsubscribed, "UNSUBSCRIBE":
			c.Hub.handleSubscribe(c, *evt, false)
		case EventTyping:
			c.Hub.handleTyping(c, *evt)
		}
		eventPool.Put(evt)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if n := len(c.Send); n > 0 {
				for i := 0; i < n; i++ {
					w.Write(<-c.Send)
				}
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	clients map[uint]*Client
	mu      sync.RWMutex
}

// PushHub 在线推送枢纽。投递是尽力而为的：连接掉线、缓冲打满都只是丢帧，
// 事实以数据库账本为准。跨实例分发走 Redis 发布订阅。
type PushHub struct {
	shards     [shardCount]*shard
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	Redis      *redis.Client
	ConvRepo   *repository.ConversationRepository
	cfg        *config.PushConfig
	ctx        context.Context
}

func NewPushHub(rdb *redis.Client, convRepo *repository.ConversationRepository, cfg *config.PushConfig) *PushHub {
	h := &PushHub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		Redis:      rdb,
		ConvRepo:   convRepo,
		cfg:        cfg,
		ctx:        context.Background(),
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{
			clients: make(map[uint]*Client),
		}
	}
	return h
}

func (h *PushHub) getShard(userID uint) *shard {
	return h.shards[userID%shardCount]
}

// PubSubMessage 跨实例投递信封。Room 不为空时表示会话级事件，
// 只投给订阅了该会话的连接。
type PubSubMessage struct {
	TargetUsers []uint          `json:"targetUsers"`
	Room        string          `json:"room,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

func (h *PushHub) Run() {
	pubsub := h.Redis.Subscribe(h.ctx, h.cfg.RedisChannel)
	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			var psMsg PubSubMessage
			if err := json.Unmarshal([]byte(msg.Payload), &psMsg); err != nil {
				logger.Log.Error("PubSub unmarshal error", zap.Error(err))
				continue
			}
			h.pushToLocal(psMsg.TargetUsers, psMsg.Room, psMsg.Payload)
		}
	}()

	// 在线状态批量落 Redis
	ticker := time.NewTicker(500 * time.Millisecond)
	// 在线状态续期
	heartbeatTicker := time.NewTicker(1 * time.Minute)
	defer func() {
		pubsub.Close()
		ticker.Stop()
		heartbeatTicker.Stop()
	}()

	type statusUpdate struct {
		userID uint
		status string
	}
	var pendingUpdates []statusUpdate

	for {
		select {
		case client := <-h.register:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			s.clients[client.UserID] = client
			s.mu.Unlock()
			pendingUpdates = append(pendingUpdates, statusUpdate{client.UserID, "online"})
			monitoring.PushOnlineUsers.Inc()

		case client := <-h.unregister:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			if cur, ok := s.clients[client.UserID]; ok && cur == client {
				delete(s.clients, client.UserID)
				close(client.Send)
				monitoring.PushOnlineUsers.Dec()
			}
			s.mu.Unlock()
			pendingUpdates = append(pendingUpdates, statusUpdate{client.UserID, "offline"})

		case <-heartbeatTicker.C:
			h.refreshOnlineStatus()

		case <-ticker.C:
			if len(pendingUpdates) == 0 {
				continue
			}

			pipe := h.Redis.Pipeline()
			for _, update := range pendingUpdates {
				key := fmt.Sprintf("user:online:%d", update.userID)
				if update.status == "online" {
					pipe.Set(h.ctx, key, "true", h.cfg.PresenceTTL)
				} else {
					pipe.Del(h.ctx, key)
				}
			}
			_, err := pipe.Exec(h.ctx)
			if err != nil {
				logger.Log.Error("Redis pipeline error", zap.Error(err))
			}
			pendingUpdates = pendingUpdates[:0]

		case <-h.stop:
			return
		}
	}
}

// refreshOnlineStatus 为本实例所有在线用户续期
func (h *PushHub) refreshOnlineStatus() {
	pipe := h.Redis.Pipeline()
	count := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.RLock()
		for userID := range s.clients {
			pipe.Expire(h.ctx, fmt.Sprintf("user:online:%d", userID), h.cfg.PresenceTTL)
			count++
		}
		s.mu.RUnlock()
	}
	if count > 0 {
		pipe.Exec(h.ctx)
		logger.Log.Debug("Refreshed online status", zap.Int("count", count))
	}
}

// handleSubscribe 会话订阅帧，非参与者一律拒绝
func (h *PushHub) handleSubscribe(c *Client, evt WSEvent, on bool) {
	data, ok := evt.Data.(map[string]interface{})
	if !ok {
		return
	}
	convID, _ := data["conversationId"].(string)
	if convID == "" {
		return
	}

	conv, err := h.ConvRepo.GetByID(convID)
	if err != nil || !conv.IsParticipant(c.UserID) {
		return
	}

	ackType := EventSubscribed
	if on {
		c.subscribe(convID)
	} else {
		c.unsubscribe(convID)
		ackType = EventUnsubscribed
	}

	ack, _ := json.Marshal(WSEvent{Type: ackType, Data: map[string]interface{}{"conversationId": convID}})
	select {
	case c.Send <- ack:
	default:
	}
}

// handleTyping 瞬时事件，不落库，转发给会话另一方
func (h *PushHub) handleTyping(c *Client, evt WSEvent) {
	data, ok := evt.Data.(map[string]interface{})
	if !ok {
		return
	}
	convID, _ := data["conversationId"].(string)
	if convID == "" {
		return
	}

	conv, err := h.ConvRepo.GetByID(convID)
	if err != nil || !conv.IsParticipant(c.UserID) {
		return
	}

	data["userId"] = c.UserID
	evt.Data = data
	h.PushToConversation(conv, c.UserID, evt)
}

// PushToUsers 用户级事件，总是投递（用户房间是隐式的）
func (h *PushHub) PushToUsers(userIDs []uint, evt WSEvent) {
	if len(userIDs) == 0 {
		return
	}
	h.publish(userIDs, "", evt)
}

// PushToConversation 会话级事件，只投给订阅了该会话的另一方连接
func (h *PushHub) PushToConversation(conv *model.Conversation, senderID uint, evt WSEvent) {
	h.publish([]uint{conv.OtherParticipant(senderID)}, conv.ID, evt)
}

func (h *PushHub) publish(userIDs []uint, room string, evt WSEvent) {
	msgBytes, _ := json.Marshal(evt)
	psMsg := PubSubMessage{
		TargetUsers: userIDs,
		Room:        room,
		Payload:     msgBytes,
	}
	payload, _ := json.Marshal(psMsg)
	if err := h.Redis.Publish(h.ctx, h.cfg.RedisChannel, payload).Err(); err != nil {
		// 推送失败不影响业务结果
		logger.Log.Warn("Push publish failed", zap.Error(err), zap.String("event", evt.Type))
		return
	}
	monitoring.PushMessageCounter.WithLabelValues(evt.Type).Inc()
}

func (h *PushHub) pushToLocal(userIDs []uint, room string, payload []byte) {
	for _, id := range userIDs {
		s := h.getShard(id)
		s.mu.RLock()
		client, ok := s.clients[id]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		if room != "" && !client.isSubscribed(room) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *PushHub) IsUserOnline(userID uint) bool {
	s := h.getShard(userID)
	s.mu.RLock()
	_, ok := s.clients[userID]
	s.mu.RUnlock()
	if ok {
		return true
	}

	// 查 Redis (多实例部署)
	val, err := h.Redis.Get(h.ctx, fmt.Sprintf("user:online:%d", userID)).Result()
	return err == nil && val == "true"
}

// Stop 关闭所有连接并清理在线状态
func (h *PushHub) Stop() {
	logger.Log.Info("PushHub stopping: clearing online status and closing connections...")
	close(h.stop)

	var allUserIDs []uint
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for userID, client := range s.clients {
			allUserIDs = append(allUserIDs, userID)
			close(client.Send)
			delete(s.clients, userID)
		}
		s.mu.Unlock()
	}

	if len(allUserIDs) > 0 {
		pipe := h.Redis.Pipeline()
		for _, userID := range allUserIDs {
			pipe.Del(h.ctx, fmt.Sprintf("user:online:%d", userID))
		}
		pipe.Exec(h.ctx)
	}

	monitoring.PushOnlineUsers.Set(0)
	logger.Log.Info("PushHub stopped", zap.Int("closedConnections", len(allUserIDs)))
}

func ServeWs(hub *PushHub, w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}
	client := &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		UserID:  userID,
		Limiter: rate.NewLimiter(rate.Limit(hub.cfg.MessageRate), hub.cfg.MessageBurst),
		subs:    make(map[string]bool),
	}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
