package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/livescore/internal/publisher"
	"github.com/fortuna/livescore/internal/scores"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(NewServer(hub, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/scores" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func game() scores.Game {
	return scores.Game{GameID: "NHL_ESPNAPI_BOS_TOR_20261015", League: "NHL", HomeTeamID: "NHL_TOR", AwayTeamID: "NHL_BOS", Status: scores.StatusInProgress}
}

func TestHubDeliversSubscribedTopics(t *testing.T) {
	hub, srv := startHub(t)
	team := dial(t, srv, "?topics=scores:team:NHL_BOS")
	all := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	league := publisher.NewEvent(publisher.EventGameSaved, publisher.LeagueTopic("NHL"), game())
	require.NoError(t, hub.Publish(ctx, league.Topic, league))
	direct := publisher.NewEvent(publisher.EventScoreChanged, publisher.TeamTopic("NHL_BOS"), game())
	require.NoError(t, hub.Publish(ctx, direct.Topic, direct))

	var got publisher.Event
	all.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, league.ID, got.ID)
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, direct.ID, got.ID)

	team.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, team.ReadJSON(&got))
	assert.Equal(t, direct.ID, got.ID, "team subscriber skips league-wide events")
	assert.Equal(t, publisher.EventScoreChanged, got.Type)
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHealthReportsClients(t *testing.T) {
	hub, srv := startHub(t)
	dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := srv.Client().Get(srv.URL + "/ws/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 1, body["clients"])
}

func TestPublishBacklog(t *testing.T) {
	hub := NewHub(nil)
	ev := publisher.NewEvent(publisher.EventGameSaved, "t", game())
	for i := 0; i < sendBufferSize; i++ {
		require.NoError(t, hub.Publish(context.Background(), "t", ev))
	}
	assert.ErrorIs(t, hub.Publish(context.Background(), "t", ev), ErrHubBacklog)
}
