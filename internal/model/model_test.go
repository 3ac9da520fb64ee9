package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPair(t *testing.T) {
	a, b := CanonicalPair(9, 3)
	assert.Equal(t, uint(3), a)
	assert.Equal(t, uint(9), b)

	a, b = CanonicalPair(3, 9)
	assert.Equal(t, uint(3), a)
	assert.Equal(t, uint(9), b)
}

func TestActivePairKeyOrderInsensitive(t *testing.T) {
	assert.Equal(t, ActivePairKey(SubjectContact, 7, 2), ActivePairKey(SubjectContact, 2, 7))
	assert.Equal(t, "contact:2:7", ActivePairKey(SubjectContact, 7, 2))
	assert.Equal(t, "job_exchange:2:7", ActivePairKey(SubjectJobExchange, 2, 7))
}

func TestTruncatePreview(t *testing.T) {
	assert.Equal(t, "短内容", TruncatePreview("短内容"))

	exact := strings.Repeat("a", 200)
	assert.Equal(t, exact, TruncatePreview(exact))

	long := strings.Repeat("喂", 201)
	got := TruncatePreview(long)
	assert.Len(t, []rune(got), 200)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("喂", 197), strings.TrimSuffix(got, "..."))
}

func TestConversationSideHelpers(t *testing.T) {
	conv := &Conversation{
		UserAID: 2, UserBID: 7,
		UnreadCountA: 3, UnreadCountB: 5,
		ArchivedByA: true,
	}

	assert.True(t, conv.IsParticipant(2))
	assert.True(t, conv.IsParticipant(7))
	assert.False(t, conv.IsParticipant(4))

	assert.Equal(t, uint(7), conv.OtherParticipant(2))
	assert.Equal(t, uint(2), conv.OtherParticipant(7))

	assert.Equal(t, 3, conv.UnreadFor(2))
	assert.Equal(t, 5, conv.UnreadFor(7))
	assert.Equal(t, 0, conv.UnreadFor(4))

	assert.True(t, conv.ArchivedFor(2))
	assert.False(t, conv.ArchivedFor(7))
}

func TestRequestStatusIsActive(t *testing.T) {
	assert.True(t, RequestPending.IsActive())
	assert.True(t, RequestAccepted.IsActive())
	assert.False(t, RequestRejected.IsActive())
	assert.False(t, RequestCancelled.IsActive())
}

func TestParseHelpersRejectUnknown(t *testing.T) {
	_, ok := ParseRequestSubject("friendship")
	assert.False(t, ok)
	s, ok := ParseRequestSubject("job_exchange")
	assert.True(t, ok)
	assert.Equal(t, SubjectJobExchange, s)

	_, ok = ParseRequestStatus("open")
	assert.False(t, ok)

	_, ok = ParseNotificationStatus("seen")
	assert.False(t, ok)
	st, ok := ParseNotificationStatus("archived")
	assert.True(t, ok)
	assert.Equal(t, NotificationArchived, st)
}
