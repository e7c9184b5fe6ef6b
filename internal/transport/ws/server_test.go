package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/loader"
	"github.com/napolitain/village-sim/internal/models"
	"github.com/napolitain/village-sim/internal/village"
)

var start = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func testSession(t *testing.T) *game.Session {
	t.Helper()
	catalog, err := loader.DefaultCatalog()
	require.NoError(t, err)
	v := village.New(catalog, start,
		village.WithBalances(models.Resources{Coins: 500, Knowledge: 200, VirtuePoints: 100}),
	)
	return game.NewSession(v, nil, zerolog.Nop())
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(b, &msg))
	return msg
}

func TestSnapshotEndpoint(t *testing.T) {
	session := testSession(t)
	srv := httptest.NewServer(NewServer(session, rate.Inf, 1, zerolog.Nop()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap village.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, 50, snap.Happiness)
	assert.Equal(t, 8, snap.GridSize)

	post, err := http.Post(srv.URL+"/snapshot", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

// brokenWriter accepts headers but fails every body write
type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) WriteHeader(int)           {}
func (w *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestSnapshotWriteFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs).Level(zerolog.DebugLevel)
	handler := NewServer(testSession(t), rate.Inf, 1, logger).SnapshotHandler()

	rw := &brokenWriter{header: http.Header{}}
	handler(rw, httptest.NewRequest(http.MethodGet, "/snapshot", nil))

	assert.Contains(t, logs.String(), "Snapshot write failed")
	assert.Contains(t, logs.String(), "connection reset")
}

func TestObserverStream(t *testing.T) {
	session := testSession(t)
	observer := NewServer(session, rate.Inf, 1, zerolog.Nop())
	srv := httptest.NewServer(observer.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readMessage(t, conn)
	assert.Equal(t, "SNAPSHOT", first.Type)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Empty(t, first.Snapshot.Buildings)

	require.Eventually(t, func() bool { return observer.Observers() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = session.Apply(game.Command{Op: game.OpPlaceBuilding, Type: models.Home, X: 0, Y: 0})
	require.NoError(t, err)

	next := readMessage(t, conn)
	assert.Equal(t, uint64(2), next.Seq)
	require.Len(t, next.Snapshot.Buildings, 1)
	assert.Equal(t, models.Home, next.Snapshot.Buildings[0].Type)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return observer.Observers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestObserverCoalesces(t *testing.T) {
	session := testSession(t)
	observer := NewServer(session, rate.Every(200*time.Millisecond), 1, zerolog.Nop())
	srv := httptest.NewServer(observer.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readMessage(t, conn)
	require.Eventually(t, func() bool { return observer.Observers() == 1 }, 2*time.Second, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		_, err := session.Apply(game.Command{Op: game.OpPlaceBuilding, Type: models.Home, X: i, Y: 0})
		require.NoError(t, err, fmt.Sprint(i))
	}

	// Frames may carry intermediate states, but the stream converges on the
	// latest snapshot without sending one frame per change.
	var last Message
	for last.Seq < 6 {
		last = readMessage(t, conn)
		if len(last.Snapshot.Buildings) == 5 {
			break
		}
	}
	assert.Len(t, last.Snapshot.Buildings, 5)
	assert.Less(t, last.Seq, uint64(6))
}
