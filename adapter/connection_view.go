package adapter

import (
	"time"

	"github.com/sagernet/sing/common/json"
	M "github.com/sagernet/sing/common/metadata"

	"github.com/gofrs/uuid/v5"
)

type ConnectionState uint8

const (
	StateClosed ConnectionState = iota
	StateCanRead
	StateCanWrite
	StateOpen
)

func (s ConnectionState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateCanRead:
		return "can_read"
	case StateCanWrite:
		return "can_write"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func (s ConnectionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Certificate is the view of one X.509 certificate the engine presented or
// received during a TLS handshake.
type Certificate struct {
	CommonName   string
	AltNames     []string
	Serial       string
	NotBefore    time.Time
	NotAfter     time.Time
	KeyInfo      string
	Organization string
	Issuer       string
	Subject      string
}

// Connection is one endpoint of a proxied session as the engine sees it at
// event time. The engine owns the underlying state; a Connection is a
// point-in-time snapshot and is never written back.
type Connection struct {
	ID                uuid.UUID
	State             ConnectionState
	TransportProtocol string
	LocalAddress      M.Socksaddr
	RemoteAddress     M.Socksaddr
	Error             string
	TLS               bool
	Cipher            string
	CipherList        []string
	TLSVersion        string
	SNI               string
	TimestampStart    time.Time
	TimestampEnd      time.Time
	TimestampTLSSetup time.Time
	Open              bool
	InUse             bool

	// Certificates is the peer chain, leaf first. Elements may be nil when
	// the engine could not parse an entry.
	Certificates []*Certificate
}

// ClientConnection is the accepted client side of a session.
type ClientConnection struct {
	Connection

	// MITMCertificate is the certificate the engine itself presented to the
	// client, nil before the handshake completes.
	MITMCertificate *Certificate
	ProxyMode       string
}

// ServerConnection is the upstream side of a session.
type ServerConnection struct {
	Connection

	Address           M.Socksaddr
	TimestampTCPSetup time.Time
	Via               string
}

// TLSHookData describes one client-side TLS handshake outcome.
type TLSHookData struct {
	Client *ClientConnection
	Server *ServerConnection
	IsDTLS bool
}
