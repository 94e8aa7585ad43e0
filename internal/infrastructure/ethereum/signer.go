package ethereum

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// LocalSigner is a Signer backed by an in-process private key. It exists
// for the composition root and tests; browser-wallet style signing plugs
// in through the same interface.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	signer  types.Signer
}

// NewLocalSigner parses a hex-encoded private key for the given chain.
func NewLocalSigner(hexKey string, chainID *big.Int) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		signer:  types.LatestSignerForChainID(chainID),
	}, nil
}

// Address returns the signing account.
func (s *LocalSigner) Address() common.Address {
	return s.address
}

// SignTx signs the transaction with the local key.
func (s *LocalSigner) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, s.signer, s.key)
}
