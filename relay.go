// Package ipcevents relays proxy-engine lifecycle events to a supervising
// process as tagged, line-delimited JSON over an inherited pipe descriptor.
package ipcevents

import (
	"io"
	"os"

	E "github.com/sagernet/sing/common/exceptions"
	"github.com/sagernet/sing/common/json"
	"github.com/sagernet/sing/common/logger"

	"github.com/cyanoacrylate/ipcevents/adapter"
	C "github.com/cyanoacrylate/ipcevents/constant"
	"github.com/cyanoacrylate/ipcevents/option"
)

type Options struct {
	Logger     logger.ContextLogger
	Servers    adapter.ServerManager
	IPCOptions option.IPCOptions

	// Output overrides the descriptor from IPCOptions, for tests and for
	// hosts that already hold the pipe as a writer.
	Output io.Writer
}

var _ adapter.EventHandler = (*Relay)(nil)

// Relay implements adapter.EventHandler. With no output configured every
// handler is a no-op, so the relay can stay registered unconditionally.
type Relay struct {
	logger  logger.ContextLogger
	servers adapter.ServerManager
	output  io.Writer
}

func New(options Options) *Relay {
	output := options.Output
	if output == nil && !options.IPCOptions.Disabled() {
		// The descriptor is inherited from the parent process, which keeps
		// ownership: the relay writes to it but never closes it.
		output = os.NewFile(uintptr(options.IPCOptions.PipeFD), "ipc-pipe")
	}
	return &Relay{
		logger:  options.Logger,
		servers: options.Servers,
		output:  output,
	}
}

// Start subscribes to the listener-set changed signal. Handshake and
// connection handlers need no registration here; the engine invokes them
// directly through adapter.EventHandler.
func (r *Relay) Start() error {
	if r.servers != nil {
		r.servers.OnChanged(func() {
			err := r.ServersChanged()
			if err != nil && r.logger != nil {
				r.logger.Error(E.Cause(err, "emit ", C.StatusProxyChanged))
			}
		})
	}
	return nil
}

// Close is deliberately empty: descriptor lifecycle belongs to the parent
// process holding the read end.
func (r *Relay) Close() error {
	return nil
}

func (r *Relay) Running() error {
	return r.sendStatus(C.StatusRunning)
}

func (r *Relay) Done() error {
	return r.sendStatus(C.StatusDone)
}

func (r *Relay) ClientConnected(client *adapter.ClientConnection) error {
	return r.send(C.StatusClientConnected, clientJSON(client))
}

func (r *Relay) ClientDisconnected(client *adapter.ClientConnection) error {
	return r.send(C.StatusClientDisconnected, clientJSON(client))
}

func (r *Relay) TLSFailedClient(data *adapter.TLSHookData) error {
	payload := tlsDataJSON(data)
	if payload != nil {
		var handshakeError any
		if data.Client != nil {
			handshakeError = nonEmpty(data.Client.Error)
		}
		payload["error"] = handshakeError
	}
	return r.send(C.StatusTLSFailed, payload)
}

func (r *Relay) TLSEstablishedClient(data *adapter.TLSHookData) error {
	return r.send(C.StatusTLSEstablished, tlsDataJSON(data))
}

func (r *Relay) ServersChanged() error {
	return r.send(C.StatusProxyChanged, serverSetJSON(r.servers))
}

func (r *Relay) sendStatus(status string) error {
	return r.emit(status, map[string]any{"status": status})
}

// send frames a context-bearing status. The context key is always present;
// a nil payload encodes as JSON null so a missing view stays visible to the
// consumer.
func (r *Relay) send(status string, payload map[string]any) error {
	return r.emit(status, map[string]any{"status": status, "context": payload})
}

func (r *Relay) emit(status string, message map[string]any) error {
	if r.output == nil {
		return nil
	}
	content, err := json.Marshal(message)
	if err != nil {
		return E.Cause(err, "encode ", status, " event")
	}
	line := make([]byte, 0, len(C.IPCTag)+len(content)+2)
	line = append(line, C.IPCTag...)
	line = append(line, ':')
	line = append(line, content...)
	line = append(line, '\n')
	_, err = r.output.Write(line)
	if err != nil {
		return E.Cause(err, "write ", status, " event")
	}
	if r.logger != nil {
		r.logger.Debug("sent ", status, " event")
	}
	return nil
}
