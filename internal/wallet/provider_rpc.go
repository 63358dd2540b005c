package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// rpcProvider talks to a node or a wallet daemon over JSON-RPC; the remote side holds the keys.
type rpcProvider struct {
	req Requester
}

func newRPCProvider(req Requester) *rpcProvider {
	return &rpcProvider{req: req}
}

func (p *rpcProvider) Kind() string { return "json-rpc" }

func (p *rpcProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	var accs []common.Address
	if err := p.req.CallContext(ctx, &accs, "eth_accounts"); err != nil {
		return nil, err
	}
	return accs, nil
}

func (p *rpcProvider) SignText(ctx context.Context, account common.Address, text []byte) ([]byte, error) {
	var sig hexutil.Bytes
	if err := p.req.CallContext(ctx, &sig, "personal_sign", hexutil.Bytes(text), account); err != nil {
		return nil, err
	}
	return sig, nil
}

func (p *rpcProvider) Send(ctx context.Context, from common.Address, call Call) (common.Hash, error) {
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	args := map[string]interface{}{
		"from":  from,
		"to":    call.To,
		"value": (*hexutil.Big)(value),
	}
	if len(call.Data) > 0 {
		args["data"] = hexutil.Bytes(call.Data)
	}
	var hash common.Hash
	if err := p.req.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Backend exposes the same connection as a chain client when the agent is a go-ethereum rpc client.
func (p *rpcProvider) Backend() Backend {
	if c, ok := p.req.(*rpc.Client); ok {
		return ethclient.NewClient(c)
	}
	return nil
}
