package adapter

// EventHandler is the set of lifecycle callbacks the engine invokes
// directly. Every handler is synchronous; an error return is handed to the
// engine's own dispatch error handling.
type EventHandler interface {
	Running() error
	Done() error
	ClientConnected(client *ClientConnection) error
	ClientDisconnected(client *ClientConnection) error
	TLSFailedClient(data *TLSHookData) error
	TLSEstablishedClient(data *TLSHookData) error
}
