package adapter

import (
	M "github.com/sagernet/sing/common/metadata"
)

// ProxyServer is one listener instance owned by the engine.
type ProxyServer interface {
	Type() string
	Description() string
	FullSpec() string
	IsRunning() bool
	LastException() error
	ListenAddrs() []M.Socksaddr
}

// WireGuardServer is the tunnel listener variant that can export a
// ready-to-use client configuration.
type WireGuardServer interface {
	ProxyServer
	ClientConf() string
}

// ServerManager is the engine subsystem holding the active listener set.
//
// OnChanged callbacks are invoked synchronously on the engine's dispatch
// loop whenever the set is added to, removed from, or mutated.
type ServerManager interface {
	IsRunning() bool
	Servers() []ProxyServer
	OnChanged(callback func())
}
