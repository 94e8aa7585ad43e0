package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// TokenFactory calls the token factory contract: the source of truth for
// which tokens exist and, optionally, their factory-side metadata.
type TokenFactory struct {
	reader    ChainReader
	submitter TxSubmitter
	address   common.Address
}

// NewTokenFactory creates a token factory caller. submitter may be nil
// for a read-only deployment; CreateToken then fails.
func NewTokenFactory(reader ChainReader, submitter TxSubmitter, address common.Address) *TokenFactory {
	return &TokenFactory{reader: reader, submitter: submitter, address: address}
}

// Deployed reports whether the factory address has code. A not-yet-deployed
// factory is a normal condition on fresh test networks, not an error.
func (f *TokenFactory) Deployed(ctx context.Context) (bool, error) {
	code, err := f.reader.CodeAt(ctx, f.address)
	if err != nil {
		return false, fmt.Errorf("get factory code: %w", err)
	}
	return len(code) > 0, nil
}

// AllTokens returns every token address the factory has minted.
func (f *TokenFactory) AllTokens(ctx context.Context) ([]common.Address, error) {
	parsed, err := tokenFactoryABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}

	data, err := parsed.Pack("getAllTokens")
	if err != nil {
		return nil, fmt.Errorf("pack getAllTokens: %w", err)
	}

	result, err := f.reader.CallContract(ctx, ethereum.CallMsg{To: &f.address, Data: data})
	if err != nil {
		return nil, fmt.Errorf("call getAllTokens: %w", err)
	}

	values, err := parsed.Unpack("getAllTokens", result)
	if err != nil {
		return nil, fmt.Errorf("unpack getAllTokens: %w", err)
	}

	addrs, ok := values[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected getAllTokens return type %T", values[0])
	}
	return addrs, nil
}

// TokenInfo returns the factory-side cached name and symbol for a token.
func (f *TokenFactory) TokenInfo(ctx context.Context, token common.Address) (string, string, error) {
	parsed, err := tokenFactoryABIInstance()
	if err != nil {
		return "", "", fmt.Errorf("parse factory abi: %w", err)
	}

	data, err := parsed.Pack("tokenInfos", token)
	if err != nil {
		return "", "", fmt.Errorf("pack tokenInfos: %w", err)
	}

	result, err := f.reader.CallContract(ctx, ethereum.CallMsg{To: &f.address, Data: data})
	if err != nil {
		return "", "", fmt.Errorf("call tokenInfos: %w", err)
	}

	values, err := parsed.Unpack("tokenInfos", result)
	if err != nil {
		return "", "", fmt.Errorf("unpack tokenInfos: %w", err)
	}

	name, _ := values[0].(string)
	symbol, _ := values[1].(string)
	return name, symbol, nil
}

// CreateToken mints a new ERC20 through the factory and returns the
// transaction hash.
func (f *TokenFactory) CreateToken(ctx context.Context, name, symbol string, initialSupply *big.Int) (common.Hash, error) {
	if f.submitter == nil {
		return common.Hash{}, fmt.Errorf("token factory is read-only: no submitter configured")
	}

	parsed, err := tokenFactoryABIInstance()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse factory abi: %w", err)
	}

	data, err := parsed.Pack("createToken", name, symbol, initialSupply)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack createToken: %w", err)
	}

	return f.submitter.SubmitCall(ctx, f.address, data)
}
