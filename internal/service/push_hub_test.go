package service

import (
	"alumni_backend/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalClient(userID uint) *Client {
	return &Client{
		Send:   make(chan []byte, 4),
		UserID: userID,
		subs:   make(map[string]bool),
	}
}

// 直接往分片里放连接，绕过 register 循环测投递判定
func attachClient(h *PushHub, c *Client) {
	s := h.getShard(c.UserID)
	s.mu.Lock()
	s.clients[c.UserID] = c
	s.mu.Unlock()
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.Send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestPushToLocalUserLevelDelivery(t *testing.T) {
	h := NewPushHub(nil, nil, &config.PushConfig{})
	online := newLocalClient(7)
	attachClient(h, online)

	payload := []byte(`{"type":"NOTIFICATION"}`)

	// 用户级事件（room 为空）总是投递；不在线的用户静默跳过
	h.pushToLocal([]uint{7, 8}, "", payload)

	got := drain(online)
	require.Len(t, got, 1)
	assert.Equal(t, payload, got[0])
}

func TestPushToLocalRoomGating(t *testing.T) {
	h := NewPushHub(nil, nil, &config.PushConfig{})
	c := newLocalClient(7)
	attachClient(h, c)

	payload := []byte(`{"type":"NEW_MESSAGE"}`)

	// 未订阅会话，不投
	h.pushToLocal([]uint{7}, "conv-1", payload)
	assert.Empty(t, drain(c))

	c.subscribe("conv-1")
	h.pushToLocal([]uint{7}, "conv-1", payload)
	assert.Len(t, drain(c), 1)

	// 订阅的是别的会话
	h.pushToLocal([]uint{7}, "conv-2", payload)
	assert.Empty(t, drain(c))

	c.unsubscribe("conv-1")
	h.pushToLocal([]uint{7}, "conv-1", payload)
	assert.Empty(t, drain(c))
}

func TestPushToLocalDropsOnFullBuffer(t *testing.T) {
	h := NewPushHub(nil, nil, &config.PushConfig{})
	c := &Client{
		Send:   make(chan []byte, 1),
		UserID: 7,
		subs:   make(map[string]bool),
	}
	attachClient(h, c)

	h.pushToLocal([]uint{7}, "", []byte("first"))
	// 缓冲已满，第二帧直接丢弃而不是阻塞
	h.pushToLocal([]uint{7}, "", []byte("second"))

	got := drain(c)
	require.Len(t, got, 1)
	assert.Equal(t, []byte("first"), got[0])
}

func TestClientSubscriptionState(t *testing.T) {
	c := newLocalClient(1)

	assert.False(t, c.isSubscribed("conv-1"))
	c.subscribe("conv-1")
	assert.True(t, c.isSubscribed("conv-1"))
	assert.False(t, c.isSubscribed("conv-2"))
	c.unsubscribe("conv-1")
	assert.False(t, c.isSubscribed("conv-1"))
}

func TestIsUserOnlineLocalShard(t *testing.T) {
	h := NewPushHub(nil, nil, &config.PushConfig{})
	attachClient(h, newLocalClient(42))

	assert.True(t, h.IsUserOnline(42))
}

func TestShardAssignmentStable(t *testing.T) {
	h := NewPushHub(nil, nil, &config.PushConfig{})

	// 同一用户总是落在同一分片；不同分片互不串
	assert.Same(t, h.getShard(5), h.getShard(5))
	assert.Same(t, h.getShard(5), h.getShard(5+shardCount))
	assert.NotSame(t, h.getShard(5), h.getShard(6))
}
