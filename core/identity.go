package core

// Identity is a verified user identity. It is produced only by the auth
// service and never mutated after it is attached to a session.
type Identity struct {
	// Address is the EIP-55 checksummed account address.
	Address string
	// ENSName is the resolved display name, nil when unknown.
	ENSName *string
	// TokenHoldings maps token contract address to balance (decimal string).
	TokenHoldings map[string]string
	// NFTHoldings lists NFT contract addresses the user holds.
	NFTHoldings []string
}

// DisplayName returns the ENS name when resolved, otherwise the shortened
// address form.
func (id Identity) DisplayName() string {
	if id.ENSName != nil && *id.ENSName != "" {
		return *id.ENSName
	}
	return ShortAddress(id.Address)
}

// ShortAddress renders an address as "0xABCD...1234" (first 6, last 4).
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// OnlineUser is a room roster entry.
type OnlineUser struct {
	Address string  `json:"address"`
	ENSName *string `json:"ens_name"`
}
