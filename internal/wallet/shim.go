package wallet

import (
	"context"
	"math/big"
	"reflect"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Session is the outcome of Connect. Address is nil when no account could be resolved.
type Session struct {
	Kind     string
	Address  *common.Address
	Provider Provider
}

// Shim adapts whatever signing agent it was given to a single provider surface.
type Shim struct {
	agent interface{}
	lib   *Library
	log   *logrus.Entry

	once        sync.Once
	provider    Provider
	providerErr error
}

// NewShim wraps agent. A nil agent is allowed and reported as ErrNoProvider on use.
// lib may be nil when the agent brings its own chain connection.
func NewShim(agent interface{}, lib *Library) *Shim {
	return &Shim{
		agent: agent,
		lib:   lib,
		log:   logrus.WithField("component", "wallet"),
	}
}

// Present reports whether an agent was configured.
func (s *Shim) Present() bool {
	if s.agent == nil {
		return false
	}
	v := reflect.ValueOf(s.agent)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Func, reflect.Slice, reflect.Chan:
		return !v.IsNil()
	}
	return true
}

// Provider returns the wrapped agent. The shape table is evaluated once per Shim.
func (s *Shim) Provider() (Provider, error) {
	if !s.Present() {
		return nil, ErrNoProvider
	}
	s.once.Do(func() {
		s.provider, s.providerErr = matchShape(s.agent, s.lib)
		if s.providerErr == nil {
			s.log.Debugf("agent matched shape %s", s.provider.Kind())
		}
	})
	return s.provider, s.providerErr
}

// Connect asks the agent for account access and resolves the active address.
func (s *Shim) Connect(ctx context.Context) (*Session, error) {
	p, err := s.Provider()
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p); err != nil {
		return nil, err
	}
	session := &Session{Kind: p.Kind(), Provider: p}
	if addr, err := s.resolveAddress(ctx, p); err == nil {
		session.Address = &addr
	} else {
		s.log.WithError(err).Warn("connected without an address")
	}
	return session, nil
}

// Address resolves the active account without an authorization prompt. It never fails; nil means unknown.
func (s *Shim) Address(ctx context.Context) *common.Address {
	p, err := s.Provider()
	if err != nil {
		return nil
	}
	addr, err := s.resolveAddress(ctx, p)
	if err != nil {
		return nil
	}
	return &addr
}

// ContractFor binds a contract to the active account.
// State-changing calls go through the provider, reads through the first available backend.
func (s *Shim) ContractFor(ctx context.Context, address common.Address, contractABI abi.ABI) (*Contract, error) {
	p, err := s.Provider()
	if err != nil {
		return nil, err
	}
	caller, err := s.backend(ctx, p)
	if err != nil {
		return nil, err
	}
	c := &Contract{Address: address, ABI: contractABI, provider: p, caller: caller}
	if addr, err := s.resolveAddress(ctx, p); err == nil {
		c.from = addr
	}
	return c, nil
}

// Backend returns the chain client used to wait for receipts and read state.
func (s *Shim) Backend(ctx context.Context) (Backend, error) {
	p, err := s.Provider()
	if err != nil {
		return nil, err
	}
	return s.backend(ctx, p)
}

// ParseToNativeUnits converts a human ether amount to wei.
func (s *Shim) ParseToNativeUnits(amount string) (*big.Int, error) {
	return ParseToNativeUnits(amount)
}

// SignText produces an EIP-191 personal signature of msg by the active account.
func (s *Shim) SignText(ctx context.Context, msg string) ([]byte, common.Address, error) {
	p, err := s.Provider()
	if err != nil {
		return nil, common.Address{}, err
	}
	addr, err := s.resolveAddress(ctx, p)
	if err != nil {
		return nil, common.Address{}, err
	}
	sig, err := p.SignText(ctx, addr, []byte(msg))
	if err != nil {
		return nil, common.Address{}, err
	}
	return sig, addr, nil
}

func (s *Shim) requester() (Requester, bool) {
	r, ok := s.agent.(Requester)
	return r, ok
}

func (s *Shim) authorize(ctx context.Context, p Provider) error {
	if a, ok := p.(Authorizer); ok {
		return a.Authorize(ctx)
	}
	if r, ok := s.requester(); ok {
		var accs []common.Address
		return r.CallContext(ctx, &accs, "eth_requestAccounts")
	}
	return nil
}

func (s *Shim) resolveAddress(ctx context.Context, p Provider) (common.Address, error) {
	return firstOf(ctx, ErrNoAccount,
		func(ctx context.Context) (common.Address, error) {
			a, ok := p.(addressAccessor)
			if !ok {
				return common.Address{}, errSkip
			}
			return a.Address(ctx)
		},
		func(ctx context.Context) (common.Address, error) {
			accs, err := p.Accounts(ctx)
			if err != nil {
				return common.Address{}, err
			}
			return firstAccount(accs)
		},
		func(ctx context.Context) (common.Address, error) {
			r, ok := s.requester()
			if !ok {
				return common.Address{}, errSkip
			}
			var accs []common.Address
			if err := r.CallContext(ctx, &accs, "eth_accounts"); err != nil {
				return common.Address{}, err
			}
			return firstAccount(accs)
		},
		func(ctx context.Context) (common.Address, error) {
			r, ok := s.requester()
			if !ok {
				return common.Address{}, errSkip
			}
			var coinbase common.Address
			if err := r.CallContext(ctx, &coinbase, "eth_coinbase"); err != nil {
				return common.Address{}, err
			}
			if coinbase == (common.Address{}) {
				return common.Address{}, ErrNoAccount
			}
			return coinbase, nil
		},
	)
}

func (s *Shim) backend(ctx context.Context, p Provider) (Backend, error) {
	return firstOf(ctx, ErrIncompatibleProvider,
		func(context.Context) (Backend, error) {
			o, ok := p.(backendOwner)
			if !ok {
				return nil, errSkip
			}
			if b := o.Backend(); b != nil {
				return b, nil
			}
			return nil, errSkip
		},
		func(ctx context.Context) (Backend, error) {
			if s.lib == nil {
				return nil, errSkip
			}
			return s.lib.Backend(ctx)
		},
	)
}

func firstAccount(accs []common.Address) (common.Address, error) {
	if len(accs) == 0 {
		return common.Address{}, errors.WithStack(ErrNoAccount)
	}
	return accs[0], nil
}
