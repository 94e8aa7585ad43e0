package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
	"github.com/bimakw/dex-gateway/internal/infrastructure/dex"
)

// metadataConcurrency bounds the per-token metadata fan-out so a large
// factory does not flood the RPC endpoint.
const metadataConcurrency = 8

// RegistryService owns the published token set. It discovers tokens from
// the token factory and is the set's single writer; everything else reads
// snapshots.
type RegistryService struct {
	factory dex.TokenFactoryAPI
	erc20   dex.ERC20API
	logger  *zap.Logger

	mu     sync.RWMutex
	tokens []entities.Token
}

// NewRegistryService creates a new registry service
func NewRegistryService(factory dex.TokenFactoryAPI, erc20 dex.ERC20API, logger *zap.Logger) *RegistryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{
		factory: factory,
		erc20:   erc20,
		logger:  logger,
	}
}

// Discover loads the full token list from the factory and atomically
// replaces the published set.
//
// A factory address with no deployed code is a normal answer, not an
// error: the published set becomes empty, so a chain reset does not
// leave stale tokens listed. Factory-level call failures surface as
// ErrRegistryUnavailable and leave the published set untouched.
// Per-token metadata failures do not abort the batch: the token is
// listed with sentinel metadata, so the registry is always a superset
// of discoverable addresses.
func (s *RegistryService) Discover(ctx context.Context) ([]entities.Token, error) {
	deployed, err := s.factory.Deployed(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrRegistryUnavailable, err)
	}
	if !deployed {
		s.mu.Lock()
		s.tokens = nil
		s.mu.Unlock()
		s.logger.Info("token factory not deployed, published set cleared")
		return nil, nil
	}

	addrs, err := s.factory.AllTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrRegistryUnavailable, err)
	}

	resolved := make([]entities.Token, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metadataConcurrency)

	for i, addr := range addrs {
		g.Go(func() error {
			resolved[i] = s.resolveToken(gctx, addr)
			return nil
		})
	}
	// resolveToken never fails the group; Wait only propagates ctx errors.
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrRegistryUnavailable, err)
	}

	tokens := dedupeTokens(resolved)

	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()

	s.logger.Info("token discovery complete", zap.Int("tokens", len(tokens)))
	return s.Tokens(), nil
}

// resolveToken resolves one token's metadata, preferring the factory-side
// cache and falling back to direct ERC20 reads. All failures degrade to
// sentinel metadata rather than dropping the address.
func (s *RegistryService) resolveToken(ctx context.Context, addr common.Address) entities.Token {
	token, err := s.erc20.Metadata(ctx, addr)
	if err != nil {
		s.logger.Warn("token metadata unavailable",
			zap.String("token", addr.Hex()),
			zap.Error(err),
		)
		token = entities.UnknownToken(addr)
	}

	// The factory's cached name/symbol wins when present; it is the
	// metadata the minting transaction recorded.
	if name, symbol, err := s.factory.TokenInfo(ctx, addr); err == nil {
		if name != "" {
			token.Name = name
		}
		if symbol != "" {
			token.Symbol = symbol
		}
	}

	return token
}

// AddIfMissing inserts a token learned out-of-band (e.g. one the current
// user just minted). Idempotent by case-insensitive address.
func (s *RegistryService) AddIfMissing(token entities.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tokens {
		if existing.Key() == token.Key() {
			return
		}
	}
	s.tokens = append(s.tokens, token)
}

// Tokens returns a snapshot of the published token set.
func (s *RegistryService) Tokens() []entities.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.Token, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Reset clears the published token set.
func (s *RegistryService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
}

// dedupeTokens removes case-insensitive address duplicates, keeping the
// first occurrence and the incoming order.
func dedupeTokens(tokens []entities.Token) []entities.Token {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]entities.Token, 0, len(tokens))
	for _, t := range tokens {
		key := t.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
