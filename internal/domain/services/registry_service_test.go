package services

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
)

func TestRegistryDiscover(t *testing.T) {
	tokenA := addr(0x0a)
	tokenB := addr(0x0b)

	factory := &fakeTokenFactory{
		deployed: true,
		tokens:   []common.Address{tokenA, tokenB},
		info: map[common.Address][2]string{
			tokenB: {"Factory Coin", "FAC"},
		},
	}
	erc20 := &fakeERC20{
		metadata: map[common.Address]entities.Token{
			tokenA: {Address: tokenA, Name: "Alpha", Symbol: "ALP", Decimals: 18},
		},
	}

	registry := NewRegistryService(factory, erc20, nil)
	tokens, err := registry.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	assert.Equal(t, "Alpha", tokens[0].Name)
	assert.Equal(t, "ALP", tokens[0].Symbol)

	// tokenB has no ERC20 metadata: it degrades to sentinels, then the
	// factory-side info overrides name and symbol.
	assert.Equal(t, "Factory Coin", tokens[1].Name)
	assert.Equal(t, "FAC", tokens[1].Symbol)
	assert.Equal(t, uint8(entities.DefaultDecimals), tokens[1].Decimals)
}

func TestRegistryDiscoverFactoryNotDeployed(t *testing.T) {
	registry := NewRegistryService(&fakeTokenFactory{deployed: false}, &fakeERC20{}, nil)

	tokens, err := registry.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestRegistryDiscoverFactoryGoneClearsPublishedSet(t *testing.T) {
	tokenA := addr(0x0a)
	factory := &fakeTokenFactory{deployed: true, tokens: []common.Address{tokenA}}
	registry := NewRegistryService(factory, &fakeERC20{}, nil)

	_, err := registry.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, registry.Tokens(), 1)

	// A chain reset can make the factory code disappear; stale tokens
	// must not stay published.
	factory.deployed = false
	tokens, err := registry.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tokens)
	assert.Empty(t, registry.Tokens())
}

func TestRegistryDiscoverFactoryFailureKeepsPublishedSet(t *testing.T) {
	tokenA := addr(0x0a)
	factory := &fakeTokenFactory{deployed: true, tokens: []common.Address{tokenA}}
	erc20 := &fakeERC20{
		metadata: map[common.Address]entities.Token{
			tokenA: {Address: tokenA, Name: "Alpha", Symbol: "ALP", Decimals: 18},
		},
	}

	registry := NewRegistryService(factory, erc20, nil)
	_, err := registry.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, registry.Tokens(), 1)

	factory.tokensErr = assert.AnError
	_, err = registry.Discover(context.Background())
	require.ErrorIs(t, err, entities.ErrRegistryUnavailable)

	assert.Len(t, registry.Tokens(), 1, "failed discovery must not clear the set")
}

func TestRegistryDiscoverDeduplicates(t *testing.T) {
	tokenA := addr(0x0a)
	factory := &fakeTokenFactory{deployed: true, tokens: []common.Address{tokenA, tokenA}}
	registry := NewRegistryService(factory, &fakeERC20{}, nil)

	tokens, err := registry.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestRegistryAddIfMissing(t *testing.T) {
	registry := NewRegistryService(&fakeTokenFactory{}, &fakeERC20{}, nil)

	token := entities.Token{Address: addr(0x0c), Name: "Gamma", Symbol: "GAM", Decimals: 6}
	registry.AddIfMissing(token)
	registry.AddIfMissing(token)

	require.Len(t, registry.Tokens(), 1)
	assert.Equal(t, "GAM", registry.Tokens()[0].Symbol)
}

func TestRegistryTokensReturnsCopy(t *testing.T) {
	registry := NewRegistryService(&fakeTokenFactory{}, &fakeERC20{}, nil)
	registry.AddIfMissing(entities.Token{Address: addr(0x0c), Symbol: "GAM"})

	snapshot := registry.Tokens()
	snapshot[0].Symbol = "mutated"

	assert.Equal(t, "GAM", registry.Tokens()[0].Symbol)
}
