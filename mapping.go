package ipcevents

import (
	"time"

	M "github.com/sagernet/sing/common/metadata"

	"github.com/cyanoacrylate/ipcevents/adapter"
)

// The mapping functions flatten engine views into JSON-serializable maps.
// Every function accepts a nil input and returns a nil map for it, which
// encodes as JSON null; nil propagates through nested views so a partially
// populated event never fails to serialize.

func certificateJSON(certificate *adapter.Certificate) map[string]any {
	if certificate == nil {
		return nil
	}
	return map[string]any{
		"commonName":   certificate.CommonName,
		"altNames":     certificate.AltNames,
		"serial":       certificate.Serial,
		"notBefore":    epoch(certificate.NotBefore),
		"notAfter":     epoch(certificate.NotAfter),
		"keyInfo":      certificate.KeyInfo,
		"organization": certificate.Organization,
		"issuer":       certificate.Issuer,
		"subject":      certificate.Subject,
	}
}

func connectionJSON(connection *adapter.Connection) map[string]any {
	if connection == nil {
		return nil
	}
	var certificateList []any
	if connection.Certificates != nil {
		certificateList = make([]any, 0, len(connection.Certificates))
		for _, certificate := range connection.Certificates {
			certificateList = append(certificateList, certificateJSON(certificate))
		}
	}
	return map[string]any{
		"id":                connection.ID,
		"state":             connection.State,
		"transportProtocol": connection.TransportProtocol,
		"localAddress":      address(connection.LocalAddress),
		"remoteAddress":     address(connection.RemoteAddress),
		"error":             nonEmpty(connection.Error),
		"tls":               connection.TLS,
		"cipher":            nonEmpty(connection.Cipher),
		"cipherList":        connection.CipherList,
		"tlsVersion":        nonEmpty(connection.TLSVersion),
		"sni":               nonEmpty(connection.SNI),
		"timestampStart":    epoch(connection.TimestampStart),
		"timestampEnd":      epoch(connection.TimestampEnd),
		"timestampTlsSetup": epoch(connection.TimestampTLSSetup),
		"open":              connection.Open,
		"inUse":             connection.InUse,
		"certificateList":   certificateList,
	}
}

func clientJSON(client *adapter.ClientConnection) map[string]any {
	if client == nil {
		return nil
	}
	message := connectionJSON(&client.Connection)
	message["mitmCertificate"] = certificateJSON(client.MITMCertificate)
	message["proxyMode"] = client.ProxyMode
	return message
}

func serverJSON(server *adapter.ServerConnection) map[string]any {
	if server == nil {
		return nil
	}
	message := connectionJSON(&server.Connection)
	message["address"] = address(server.Address)
	message["timestampTcpSetup"] = epoch(server.TimestampTCPSetup)
	message["via"] = nonEmpty(server.Via)
	return message
}

func tlsDataJSON(data *adapter.TLSHookData) map[string]any {
	if data == nil {
		return nil
	}
	var clientAddress any
	if data.Client != nil {
		clientAddress = address(data.Client.RemoteAddress)
	}
	// Prefer the SNI the client announced, matching the destination the
	// engine itself shows in handshake diagnostics.
	var serverAddress any
	if data.Client != nil && data.Client.SNI != "" {
		serverAddress = data.Client.SNI
	} else if data.Server != nil {
		serverAddress = address(data.Server.Address)
	}
	return map[string]any{
		"clientAddress": clientAddress,
		"serverAddress": serverAddress,
		"client":        clientJSON(data.Client),
		"server":        serverJSON(data.Server),
		"isDtls":        data.IsDTLS,
	}
}

func proxyServerJSON(server adapter.ProxyServer) map[string]any {
	if server == nil {
		return nil
	}
	listenAddrs := make([]any, 0, len(server.ListenAddrs()))
	for _, addr := range server.ListenAddrs() {
		listenAddrs = append(listenAddrs, address(addr))
	}
	var lastException any
	if err := server.LastException(); err != nil {
		lastException = err.Error()
	}
	var wireguardConf any
	if wireguardServer, isWireGuard := server.(adapter.WireGuardServer); isWireGuard {
		wireguardConf = wireguardServer.ClientConf()
	}
	return map[string]any{
		"type":          server.Type(),
		"description":   server.Description(),
		"fullSpec":      server.FullSpec(),
		"isRunning":     server.IsRunning(),
		"lastException": lastException,
		"listenAddrs":   listenAddrs,
		"wireguardConf": wireguardConf,
	}
}

func serverSetJSON(manager adapter.ServerManager) map[string]any {
	if manager == nil {
		return nil
	}
	servers := make([]any, 0, len(manager.Servers()))
	for _, server := range manager.Servers() {
		servers = append(servers, proxyServerJSON(server))
	}
	return map[string]any{
		"isRunning": manager.IsRunning(),
		"servers":   servers,
	}
}

// epoch converts a timestamp to fractional epoch seconds, the numeric form
// the consumer expects; the zero time encodes as null.
func epoch(timestamp time.Time) any {
	if timestamp.IsZero() {
		return nil
	}
	// Split seconds and nanoseconds before converting: the combined
	// nanosecond count exceeds float64 integer precision.
	return float64(timestamp.Unix()) + float64(timestamp.Nanosecond())/float64(time.Second)
}

func address(addr M.Socksaddr) any {
	if !addr.IsValid() {
		return nil
	}
	return addr.String()
}

func nonEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
