package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal JSON ABIs for the calls whose arguments or returns are dynamic
// (strings, arrays). Fixed-size calls are hand-encoded in codec.go.

const tokenFactoryABIJSON = `[
  {"inputs": [], "name": "getAllTokens", "outputs": [{"type": "address[]"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"type": "address"}], "name": "tokenInfos", "outputs": [{"type": "string"}, {"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"type": "string"}, {"type": "string"}, {"type": "uint256"}], "name": "createToken", "outputs": [{"type": "address"}], "stateMutability": "nonpayable", "type": "function"}
]`

const erc20MetadataABIJSON = `[
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

const routerABIJSON = `[
  {"inputs": [{"type": "uint256"}, {"type": "uint256"}, {"type": "address[]"}, {"type": "address"}, {"type": "uint256"}], "name": "swapExactTokensForTokens", "outputs": [{"type": "uint256[]"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"type": "address"}, {"type": "address"}, {"type": "uint256"}, {"type": "uint256"}, {"type": "uint256"}, {"type": "uint256"}, {"type": "address"}, {"type": "uint256"}], "name": "addLiquidity", "outputs": [{"type": "uint256"}, {"type": "uint256"}, {"type": "uint256"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"type": "address"}, {"type": "address"}, {"type": "uint256"}, {"type": "uint256"}, {"type": "uint256"}, {"type": "address"}, {"type": "uint256"}], "name": "removeLiquidity", "outputs": [{"type": "uint256"}, {"type": "uint256"}], "stateMutability": "nonpayable", "type": "function"}
]`

var (
	tokenFactoryABI     abi.ABI
	tokenFactoryABIOnce sync.Once
	tokenFactoryABIErr  error

	erc20MetadataABI     abi.ABI
	erc20MetadataABIOnce sync.Once
	erc20MetadataABIErr  error

	routerABI     abi.ABI
	routerABIOnce sync.Once
	routerABIErr  error
)

func tokenFactoryABIInstance() (abi.ABI, error) {
	tokenFactoryABIOnce.Do(func() {
		tokenFactoryABI, tokenFactoryABIErr = abi.JSON(strings.NewReader(tokenFactoryABIJSON))
	})
	return tokenFactoryABI, tokenFactoryABIErr
}

func erc20MetadataABIInstance() (abi.ABI, error) {
	erc20MetadataABIOnce.Do(func() {
		erc20MetadataABI, erc20MetadataABIErr = abi.JSON(strings.NewReader(erc20MetadataABIJSON))
	})
	return erc20MetadataABI, erc20MetadataABIErr
}

func routerABIInstance() (abi.ABI, error) {
	routerABIOnce.Do(func() {
		routerABI, routerABIErr = abi.JSON(strings.NewReader(routerABIJSON))
	})
	return routerABI, routerABIErr
}
