package bridge

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/drawable"
	"github.com/Carmen-Shannon/oxy-globe/engine/scene"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommands(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want []Command
	}{
		{
			"reposition in a chat reply",
			"Flying to New York now [40.7, -74.0].",
			[]Command{{Type: CommandReposition, Lat: 40.7, Lon: -74}},
		},
		{
			"move",
			"[0,0,5]",
			[]Command{{Type: CommandMove, Position: common.Vec3{0, 0, 5}}},
		},
		{
			"rotate globe",
			"Spinning the globe [y, 45]",
			[]Command{{Type: CommandRotate, Axis: "y", Degrees: 45}},
		},
		{
			"several groups keep order, junk skipped",
			"[x,10] [not, a, command] [10,20]",
			[]Command{
				{Type: CommandRotate, Axis: "x", Degrees: 10},
				{Type: CommandReposition, Lat: 10, Lon: 20},
			},
		},
		{
			"json rotate",
			`{"type":"rotate","id":"object-0","axis":"z","degrees":20}`,
			[]Command{{Type: CommandRotate, ID: "object-0", Axis: "z", Degrees: 20}},
		},
		{
			"json move",
			`{"type":"move","position":[1,2,3]}`,
			[]Command{{Type: CommandMove, Position: common.Vec3{1, 2, 3}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommands(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandsRejects(t *testing.T) {
	for _, msg := range []string{
		"",
		"no brackets here",
		"[95, 10]",
		"[w, 10]",
		"[1,2,3,4]",
		`{"type":"teleport"}`,
		`{"type":"rotate","axis":"q","degrees":1}`,
		`{broken`,
	} {
		_, err := ParseCommands(msg)
		assert.ErrorIs(t, err, ErrInvalidCommand, msg)
	}
}

type globe struct {
	axis  common.Vec3
	angle float32
}

func (g *globe) Kind() drawable.Kind                               { return drawable.KindSphere }
func (g *globe) Label() string                                     { return "globe" }
func (g *globe) Translucent() bool                                 { return false }
func (g *globe) Update(float32)                                    {}
func (g *globe) Draw(*wgpu.RenderPassEncoder, camera.Camera) error { return nil }
func (g *globe) Release()                                          {}
func (g *globe) ModelMatrix() [16]float32                          { return [16]float32{} }
func (g *globe) Rotate(axis common.Vec3, angle float32)            { g.axis, g.angle = axis, angle }

func TestExecute(t *testing.T) {
	cam, err := camera.NewCamera(camera.WithPosition(common.Vec3{0, 0, 3}))
	require.NoError(t, err)
	s := scene.NewScene("test")
	g := &globe{}
	s.Add(g)

	require.NoError(t, Execute(Command{Type: CommandRotate, Axis: "y", Degrees: 90}, cam, s))
	assert.Equal(t, common.Vec3{0, 1, 0}, g.axis)
	assert.InDelta(t, math32.Pi/2, g.angle, 1e-6)

	require.NoError(t, Execute(Command{Type: CommandReposition, Lat: 10, Lon: 20}, cam, s))
	assert.True(t, cam.Animating())

	require.NoError(t, Execute(Command{Type: CommandMove, Position: common.Vec3{0, 0, 7}}, cam, s))
	assert.False(t, cam.Animating())
	assert.Equal(t, common.Vec3{0, 0, 7}, cam.Position())

	err = Execute(Command{Type: CommandRotate, ID: "object-missing", Axis: "x"}, cam, s)
	assert.ErrorIs(t, err, scene.ErrNotFound)

	err = Execute(Command{Type: CommandRotate, Axis: "x"}, cam, scene.NewScene("empty"))
	assert.ErrorIs(t, err, scene.ErrNotFound)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBridgeQueuesCommands(t *testing.T) {
	b := NewBridge(8)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("Here you go [y, 30] [12, 34]")))

	var got []Command
	for len(got) < 2 {
		select {
		case cmd := <-b.Commands():
			got = append(got, cmd)
		case <-time.After(2 * time.Second):
			t.Fatal("commands not queued")
		}
	}
	assert.Equal(t, CommandRotate, got[0].Type)
	assert.Equal(t, CommandReposition, got[1].Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("just chatting")))
	var r reply
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&r))
	assert.Equal(t, "error", r.Type)
	assert.Contains(t, r.Error, "invalid command")
}

func TestBridgeBroadcast(t *testing.T) {
	b := NewBridge(1)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return b.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	b.Broadcast(CameraState{Lat: 1, Lon: 2, Radius: 3})

	var state CameraState
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&state))
	assert.Equal(t, CameraState{Type: "camera", Lat: 1, Lon: 2, Radius: 3}, state)

	b.Close()
	assert.Equal(t, 0, b.Clients())
}

func TestStateOf(t *testing.T) {
	cam, err := camera.NewCamera(camera.WithPosition(common.Vec3{0, 0, 3}))
	require.NoError(t, err)

	state := StateOf(cam)
	assert.Equal(t, "camera", state.Type)
	assert.InDelta(t, 3, state.Radius, 1e-5)
	assert.InDelta(t, 0, state.Lat, 1e-4)
}
