package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"nft-activity-timeline/internal/domain/entity"
	"nft-activity-timeline/internal/infrastructure/config"
	"nft-activity-timeline/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ErrENSDisabled is returned for name lookups when no RPC endpoint is configured
var ErrENSDisabled = entity.ErrENSDisabled

// ContractCaller executes read-only contract calls. *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// EthereumClient provides blockchain interaction capabilities
type EthereumClient struct {
	caller   ContractCaller
	rpc      *ethclient.Client
	registry common.Address
	logger   *logger.Logger
}

// NewEthereumClient dials the configured RPC endpoint. A disabled config
// yields a client that only accepts plain addresses.
func NewEthereumClient(ctx context.Context, cfg *config.EthereumConfig, log *logger.Logger) (*EthereumClient, error) {
	log = log.WithComponent("ethereum-client")

	if !cfg.Enabled || cfg.RPCURL == "" {
		log.Info("Ethereum RPC disabled, ENS names will not resolve")
		return NewEthereumClientWithCaller(nil, cfg.ENSRegistry, log), nil
	}

	if !common.IsHexAddress(cfg.ENSRegistry) {
		return nil, fmt.Errorf("invalid ENS registry address %q", cfg.ENSRegistry)
	}

	rpc, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ethereum rpc: %w", err)
	}

	log.Info("Connected to Ethereum RPC", zap.String("registry", cfg.ENSRegistry))

	client := NewEthereumClientWithCaller(rpc, cfg.ENSRegistry, log)
	client.rpc = rpc
	return client, nil
}

// NewEthereumClientWithCaller builds a client around an existing caller.
// A nil caller disables name lookups.
func NewEthereumClientWithCaller(caller ContractCaller, registry string, log *logger.Logger) *EthereumClient {
	return &EthereumClient{
		caller:   caller,
		registry: common.HexToAddress(registry),
		logger:   log,
	}
}

// Enabled reports whether ENS lookups can be made
func (ec *EthereumClient) Enabled() bool {
	return ec.caller != nil
}

// Close releases the RPC connection, if any
func (ec *EthereumClient) Close() {
	if ec.rpc != nil {
		ec.rpc.Close()
	}
}

// call runs a read-only call against contract and returns the raw output
func (ec *EthereumClient) call(ctx context.Context, contract common.Address, data []byte) ([]byte, error) {
	if ec.caller == nil {
		return nil, ErrENSDisabled
	}
	return ec.caller.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
}
