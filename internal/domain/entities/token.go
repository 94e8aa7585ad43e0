package entities

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel metadata used when a token's on-chain reads fail. The registry
// still lists the address so it stays a superset of everything discoverable.
const (
	UnknownTokenName   = "Unknown"
	UnknownTokenSymbol = "UNK"
	DefaultDecimals    = 18
)

// Token describes a fungible token discovered through the token factory.
// Metadata is immutable once created; the address is the identity key.
type Token struct {
	Address  common.Address `json:"address"`
	Name     string         `json:"name"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

// Key returns the case-insensitive identity key for the token.
func (t Token) Key() string {
	return strings.ToLower(t.Address.Hex())
}

// UnknownToken returns a token carrying sentinel metadata for an address
// whose name/symbol/decimals could not be read.
func UnknownToken(addr common.Address) Token {
	return Token{
		Address:  addr,
		Name:     UnknownTokenName,
		Symbol:   UnknownTokenSymbol,
		Decimals: DefaultDecimals,
	}
}
