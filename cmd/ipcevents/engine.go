package main

import (
	"time"

	M "github.com/sagernet/sing/common/metadata"

	"github.com/gofrs/uuid/v5"

	"github.com/cyanoacrylate/ipcevents"
	"github.com/cyanoacrylate/ipcevents/adapter"
	C "github.com/cyanoacrylate/ipcevents/constant"
)

// sampleEngine stands in for the host proxy engine: it owns a listener set
// and replays one canned session through the relay, so a downstream
// consumer can be developed against a realistic event stream without
// running a real proxy.
type sampleEngine struct {
	running   bool
	servers   []adapter.ProxyServer
	callbacks []func()
}

var _ adapter.ServerManager = (*sampleEngine)(nil)

func newSampleEngine() *sampleEngine {
	return &sampleEngine{
		servers: []adapter.ProxyServer{
			&sampleServer{
				serverType:  C.TypeRegular,
				description: "HTTP(S) proxy",
				fullSpec:    "regular@0.0.0.0:8080",
				running:     true,
				listenAddrs: []M.Socksaddr{M.ParseSocksaddr("0.0.0.0:8080")},
			},
		},
	}
}

func (e *sampleEngine) IsRunning() bool {
	return e.running
}

func (e *sampleEngine) Servers() []adapter.ProxyServer {
	return e.servers
}

func (e *sampleEngine) OnChanged(callback func()) {
	e.callbacks = append(e.callbacks, callback)
}

func (e *sampleEngine) changed() {
	for _, callback := range e.callbacks {
		callback()
	}
}

func (e *sampleEngine) playback(relay *ipcevents.Relay, dtls bool) error {
	e.running = true
	if err := relay.Running(); err != nil {
		return err
	}

	now := time.Now()
	client := &adapter.ClientConnection{
		Connection: adapter.Connection{
			ID:                uuid.Must(uuid.NewV4()),
			State:             adapter.StateOpen,
			TransportProtocol: "tcp",
			LocalAddress:      M.ParseSocksaddr("192.0.2.1:8080"),
			RemoteAddress:     M.ParseSocksaddr("198.51.100.7:51234"),
			TLS:               true,
			SNI:               "example.org",
			TimestampStart:    now,
			Open:              true,
			InUse:             true,
		},
		ProxyMode: "regular@0.0.0.0:8080",
	}
	if err := relay.ClientConnected(client); err != nil {
		return err
	}

	server := &adapter.ServerConnection{
		Connection: adapter.Connection{
			ID:                uuid.Must(uuid.NewV4()),
			State:             adapter.StateOpen,
			TransportProtocol: "tcp",
			TLS:               true,
			TimestampStart:    now,
			Open:              true,
			InUse:             true,
		},
		Address:           M.ParseSocksaddr("203.0.113.10:443"),
		TimestampTCPSetup: now.Add(12 * time.Millisecond),
	}
	client.Cipher = "TLS_AES_128_GCM_SHA256"
	client.TLSVersion = "TLSv1.3"
	client.TimestampTLSSetup = now.Add(31 * time.Millisecond)
	client.MITMCertificate = &adapter.Certificate{
		CommonName:   "example.org",
		AltNames:     []string{"example.org", "*.example.org"},
		Serial:       "1f3a9c",
		NotBefore:    now.Add(-24 * time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyInfo:      "RSA 2048",
		Organization: "mitmproxy",
		Issuer:       "CN=mitmproxy",
		Subject:      "CN=example.org",
	}
	if err := relay.TLSEstablishedClient(&adapter.TLSHookData{
		Client: client,
		Server: server,
		IsDTLS: dtls,
	}); err != nil {
		return err
	}

	e.servers = append(e.servers, &sampleWireGuardServer{
		sampleServer: sampleServer{
			serverType:  C.TypeWireGuard,
			description: "WireGuard tunnel",
			fullSpec:    "wireguard@0.0.0.0:51820",
			running:     true,
			listenAddrs: []M.Socksaddr{M.ParseSocksaddr("0.0.0.0:51820")},
		},
		clientConf: sampleWireGuardConf,
	})
	e.changed()

	client.State = adapter.StateClosed
	client.Open = false
	client.InUse = false
	client.TimestampEnd = now.Add(2 * time.Second)
	if err := relay.ClientDisconnected(client); err != nil {
		return err
	}

	e.running = false
	return relay.Done()
}

type sampleServer struct {
	serverType  string
	description string
	fullSpec    string
	running     bool
	lastError   error
	listenAddrs []M.Socksaddr
}

func (s *sampleServer) Type() string {
	return s.serverType
}

func (s *sampleServer) Description() string {
	return s.description
}

func (s *sampleServer) FullSpec() string {
	return s.fullSpec
}

func (s *sampleServer) IsRunning() bool {
	return s.running
}

func (s *sampleServer) LastException() error {
	return s.lastError
}

func (s *sampleServer) ListenAddrs() []M.Socksaddr {
	return s.listenAddrs
}

type sampleWireGuardServer struct {
	sampleServer
	clientConf string
}

var _ adapter.WireGuardServer = (*sampleWireGuardServer)(nil)

func (s *sampleWireGuardServer) ClientConf() string {
	return s.clientConf
}

const sampleWireGuardConf = `[Interface]
PrivateKey = <client private key>
Address = 10.71.0.2/32
DNS = 10.71.0.1

[Peer]
PublicKey = <server public key>
AllowedIPs = 0.0.0.0/0
Endpoint = 192.0.2.1:51820
`
