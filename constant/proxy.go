package constant

const (
	TypeRegular     = "regular"
	TypeTransparent = "transparent"
	TypeWireGuard   = "wireguard"
)
