package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"mentorbridge/internal/featureflags"
	"mentorbridge/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func testMatch() *models.Match {
	return &models.Match{ID: "m-1", MentorID: "mentor-1", MenteeID: "mentee-1", Status: models.MatchStatusPending, MatchedSkills: []string{"go"}}
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil, featureflags.NewManager("match_notifications=on"))
	assert.NoError(t, n.PublishUser(context.Background(), "u1", MatchEvent{Type: EventMatchRequested}))

	_, err := n.SubscribeUser(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:abc", UserChannel("abc"))
}

func TestNotifier_PublishAndSubscribe(t *testing.T) {
	rdb := newRedis(t)
	n := NewNotifier(rdb, featureflags.NewManager("match_notifications=on"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := n.SubscribeUser(ctx, "mentor-1")
	require.NoError(t, err)

	actor := &models.User{ID: "mentee-1", Name: "Cy"}
	require.NoError(t, n.PublishUser(context.Background(), "mentor-1", NewMatchEvent(EventMatchRequested, testMatch(), actor)))

	select {
	case payload := <-ch:
		var ev MatchEvent
		require.NoError(t, json.Unmarshal([]byte(payload), &ev))
		assert.Equal(t, EventMatchRequested, ev.Type)
		assert.Equal(t, "m-1", ev.MatchID)
		assert.Equal(t, "mentee-1", ev.ActorID)
		assert.Equal(t, "Cy", ev.ActorName)
		assert.Equal(t, []string{"go"}, ev.MatchedSkills)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for match event")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestNotifier_FlagOffSuppressesPublish(t *testing.T) {
	rdb := newRedis(t)
	n := NewNotifier(rdb, featureflags.NewManager("match_notifications=off"))
	assert.False(t, n.Enabled("mentor-1"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := n.SubscribeUser(ctx, "mentor-1")
	require.NoError(t, err)

	n.Notify(context.Background(), "mentor-1", NewMatchEvent(EventMatchAccepted, testMatch(), nil))

	assert.Never(t, func() bool {
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}, 150*time.Millisecond, 10*time.Millisecond)
}
