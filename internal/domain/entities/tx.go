package entities

import "github.com/ethereum/go-ethereum/common"

// TxStatus is the lifecycle status of a tracked transaction.
type TxStatus string

const (
	TxPending  TxStatus = "pending"
	TxSuccess  TxStatus = "success"
	TxReverted TxStatus = "reverted"
)

// Terminal reports whether no further transition is possible.
func (s TxStatus) Terminal() bool {
	return s == TxSuccess || s == TxReverted
}

// Transaction kinds recorded by the tracker.
const (
	TxKindApprove         = "approve"
	TxKindSwap            = "swap"
	TxKindAddLiquidity    = "addLiquidity"
	TxKindRemoveLiquidity = "removeLiquidity"
	TxKindCreateToken     = "createToken"
)

// TxRecord is a submitted transaction tracked through its asynchronous
// lifecycle. Hash is the unique key; the tracker is the only writer.
type TxRecord struct {
	Hash    common.Hash    `json:"hash"`
	Status  TxStatus       `json:"status"`
	Kind    string         `json:"kind"`
	ChainID int64          `json:"chainId"`
	Account common.Address `json:"account"`
}
