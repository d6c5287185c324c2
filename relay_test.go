package ipcevents

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	E "github.com/sagernet/sing/common/exceptions"
	M "github.com/sagernet/sing/common/metadata"

	"github.com/stretchr/testify/require"

	"github.com/cyanoacrylate/ipcevents/adapter"
	C "github.com/cyanoacrylate/ipcevents/constant"
	"github.com/cyanoacrylate/ipcevents/option"
)

type fakeServer struct {
	serverType  string
	description string
	fullSpec    string
	running     bool
	lastError   error
	listenAddrs []M.Socksaddr
}

func (s *fakeServer) Type() string               { return s.serverType }
func (s *fakeServer) Description() string        { return s.description }
func (s *fakeServer) FullSpec() string           { return s.fullSpec }
func (s *fakeServer) IsRunning() bool            { return s.running }
func (s *fakeServer) LastException() error       { return s.lastError }
func (s *fakeServer) ListenAddrs() []M.Socksaddr { return s.listenAddrs }

type fakeWireGuardServer struct {
	fakeServer
	clientConf string
}

func (s *fakeWireGuardServer) ClientConf() string { return s.clientConf }

type fakeManager struct {
	running   bool
	servers   []adapter.ProxyServer
	callbacks []func()
}

func (m *fakeManager) IsRunning() bool                { return m.running }
func (m *fakeManager) Servers() []adapter.ProxyServer { return m.servers }
func (m *fakeManager) OnChanged(callback func())      { m.callbacks = append(m.callbacks, callback) }

func (m *fakeManager) changed() {
	for _, callback := range m.callbacks {
		callback()
	}
}

type countingWriter struct {
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return len(p), nil
}

type failingWriter struct{}

func (w failingWriter) Write(p []byte) (int, error) {
	return 0, E.New("broken pipe")
}

func fireAll(t *testing.T, relay *Relay) {
	t.Helper()
	require.NoError(t, relay.Running())
	require.NoError(t, relay.ClientConnected(&adapter.ClientConnection{}))
	require.NoError(t, relay.TLSEstablishedClient(&adapter.TLSHookData{}))
	require.NoError(t, relay.TLSFailedClient(&adapter.TLSHookData{}))
	require.NoError(t, relay.ServersChanged())
	require.NoError(t, relay.ClientDisconnected(&adapter.ClientConnection{}))
	require.NoError(t, relay.Done())
}

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	require.True(t, strings.HasPrefix(line, C.IPCTag+":"))
	var message map[string]any
	require.NoError(t, json.Unmarshal([]byte(line[len(C.IPCTag)+1:]), &message))
	return message
}

func TestDisabledRelay(t *testing.T) {
	t.Parallel()
	relay := New(Options{Servers: &fakeManager{}, IPCOptions: option.IPCOptions{}})
	require.Nil(t, relay.output)
	require.NoError(t, relay.Start())
	fireAll(t, relay)
	require.NoError(t, relay.Close())
}

func TestEnabledRelayWritesOnePerEvent(t *testing.T) {
	t.Parallel()
	writer := &countingWriter{}
	relay := New(Options{Servers: &fakeManager{}, Output: writer})
	fireAll(t, relay)
	require.Equal(t, 7, writer.writes)
}

func TestWriteFailurePropagates(t *testing.T) {
	t.Parallel()
	relay := New(Options{Output: failingWriter{}})
	err := relay.Running()
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken pipe")
}

func TestStatusOnlyEvents(t *testing.T) {
	t.Parallel()
	output := &bytes.Buffer{}
	relay := New(Options{Output: output})
	require.NoError(t, relay.Running())
	require.NoError(t, relay.Done())
	lines := strings.Split(strings.TrimSuffix(output.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	message := decodeLine(t, lines[0])
	require.Equal(t, map[string]any{"status": C.StatusRunning}, message)
	message = decodeLine(t, lines[1])
	require.Equal(t, map[string]any{"status": C.StatusDone}, message)
}

func TestNilViewEmitsNullContext(t *testing.T) {
	t.Parallel()
	output := &bytes.Buffer{}
	relay := New(Options{Output: output})
	require.NoError(t, relay.ClientConnected(nil))
	require.NoError(t, relay.TLSFailedClient(nil))
	require.NoError(t, relay.ServersChanged())
	lines := strings.Split(strings.TrimSuffix(output.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		message := decodeLine(t, line)
		require.Contains(t, message, "context")
		require.Nil(t, message["context"])
	}
}

func TestClientConnectedScenario(t *testing.T) {
	t.Parallel()
	output := &bytes.Buffer{}
	relay := New(Options{Output: output})
	require.NoError(t, relay.ClientConnected(&adapter.ClientConnection{
		Connection: adapter.Connection{
			State:             adapter.StateOpen,
			TransportProtocol: "tcp",
			RemoteAddress:     M.ParseSocksaddr("10.0.0.5:51234"),
			Open:              true,
		},
		ProxyMode: "regular@0.0.0.0:8080",
	}))
	message := decodeLine(t, strings.TrimSuffix(output.String(), "\n"))
	require.Equal(t, C.StatusClientConnected, message["status"])
	payload := message["context"].(map[string]any)
	require.Equal(t, "10.0.0.5:51234", payload["remoteAddress"])
	require.Equal(t, "regular@0.0.0.0:8080", payload["proxyMode"])
}

func TestTLSFailedScenario(t *testing.T) {
	t.Parallel()
	output := &bytes.Buffer{}
	relay := New(Options{Output: output})
	require.NoError(t, relay.TLSFailedClient(&adapter.TLSHookData{
		Client: &adapter.ClientConnection{
			Connection: adapter.Connection{
				RemoteAddress: M.ParseSocksaddr("10.0.0.5:51234"),
				Error:         "certificate unknown",
			},
		},
		Server: &adapter.ServerConnection{
			Address: M.ParseSocksaddr("203.0.113.10:443"),
		},
	}))
	message := decodeLine(t, strings.TrimSuffix(output.String(), "\n"))
	require.Equal(t, C.StatusTLSFailed, message["status"])
	payload := message["context"].(map[string]any)
	require.Equal(t, "certificate unknown", payload["error"])
	require.Equal(t, "203.0.113.10:443", payload["serverAddress"])
	require.Equal(t, "10.0.0.5:51234", payload["clientAddress"])
}

func TestProxyChangedScenario(t *testing.T) {
	t.Parallel()
	output := &bytes.Buffer{}
	manager := &fakeManager{
		running: true,
		servers: []adapter.ProxyServer{
			&fakeServer{serverType: C.TypeRegular, fullSpec: "regular@0.0.0.0:8080", running: true},
		},
	}
	relay := New(Options{Servers: manager, Output: output})
	require.NoError(t, relay.Start())

	manager.servers = append(manager.servers, &fakeWireGuardServer{
		fakeServer: fakeServer{serverType: C.TypeWireGuard, fullSpec: "wireguard@0.0.0.0:51820", running: true},
		clientConf: "[Interface]\nAddress = 10.71.0.2/32\n",
	})
	manager.changed()

	message := decodeLine(t, strings.TrimSuffix(output.String(), "\n"))
	require.Equal(t, C.StatusProxyChanged, message["status"])
	payload := message["context"].(map[string]any)
	require.Equal(t, true, payload["isRunning"])
	servers := payload["servers"].([]any)
	require.Len(t, servers, 2)
	require.Nil(t, servers[0].(map[string]any)["wireguardConf"])
	require.NotNil(t, servers[1].(map[string]any)["wireguardConf"])
}

func TestProxyChangedIdempotent(t *testing.T) {
	t.Parallel()
	output := &bytes.Buffer{}
	manager := &fakeManager{
		running: true,
		servers: []adapter.ProxyServer{
			&fakeServer{serverType: C.TypeRegular, fullSpec: "regular@0.0.0.0:8080", running: true},
		},
	}
	relay := New(Options{Servers: manager, Output: output})
	require.NoError(t, relay.Start())
	manager.changed()
	manager.changed()
	lines := strings.Split(strings.TrimSuffix(output.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.JSONEq(t, lines[0][len(C.IPCTag)+1:], lines[1][len(C.IPCTag)+1:])
}
