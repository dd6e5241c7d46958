package blockchain

import (
	"context"
	"fmt"
	"strings"

	"nft-activity-timeline/internal/domain/entity"
	"nft-activity-timeline/internal/domain/repository"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// registry, resolver and reverse resolver methods used for lookups
const ensABIJSON = `[
	{"name":"resolver","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"addr","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"name","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"string"}]}
]`

const (
	ensSuffix     = ".eth"
	reverseSuffix = ".addr.reverse"
)

var ensABI = mustParseABI(ensABIJSON)

var _ repository.WalletResolver = (*EthereumClient)(nil)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid ENS ABI: %v", err))
	}
	return parsed
}

// Namehash computes the EIP-137 node for a name
func Namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}

	labels := strings.Split(strings.ToLower(name), ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = common.BytesToHash(crypto.Keccak256(node.Bytes(), labelHash))
	}
	return node
}

// Resolve turns a hex address or an ENS name into a wallet. Addresses get a
// best-effort reverse lookup; names without ".eth" have it appended.
func (ec *EthereumClient) Resolve(ctx context.Context, input string) (*entity.Wallet, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty wallet", entity.ErrInvalidCriteria)
	}

	if common.IsHexAddress(input) {
		address := common.HexToAddress(input)
		wallet := &entity.Wallet{Address: address.Hex()}

		if ec.Enabled() {
			name, err := ec.LookupAddress(ctx, address)
			if err != nil {
				ec.logger.Debug("Reverse ENS lookup failed", zap.String("address", wallet.Address), zap.Error(err))
			}
			wallet.ENS = name
		}
		return wallet, nil
	}

	name := strings.ToLower(input)
	if !strings.HasSuffix(name, ensSuffix) {
		name += ensSuffix
	}

	address, err := ec.ResolveName(ctx, name)
	if err != nil {
		return nil, err
	}
	return &entity.Wallet{Address: address.Hex(), ENS: name}, nil
}

// ResolveName returns the address a name points to
func (ec *EthereumClient) ResolveName(ctx context.Context, name string) (common.Address, error) {
	node := Namehash(name)

	resolver, err := ec.resolverFor(ctx, node)
	if err != nil {
		return common.Address{}, err
	}
	if resolver == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s", entity.ErrWalletNotFound, name)
	}

	var address common.Address
	if err := ec.callMethod(ctx, resolver, "addr", node, &address); err != nil {
		return common.Address{}, err
	}
	if address == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s", entity.ErrWalletNotFound, name)
	}
	return address, nil
}

// LookupAddress returns the primary name of address, or "" when it has none.
// The name must resolve back to address to be trusted.
func (ec *EthereumClient) LookupAddress(ctx context.Context, address common.Address) (string, error) {
	reverseName := strings.ToLower(address.Hex()[2:]) + reverseSuffix
	node := Namehash(reverseName)

	resolver, err := ec.resolverFor(ctx, node)
	if err != nil || resolver == (common.Address{}) {
		return "", err
	}

	var name string
	if err := ec.callMethod(ctx, resolver, "name", node, &name); err != nil {
		return "", err
	}
	if name == "" {
		return "", nil
	}

	forward, err := ec.ResolveName(ctx, name)
	if err != nil || forward != address {
		return "", nil
	}
	return name, nil
}

func (ec *EthereumClient) resolverFor(ctx context.Context, node common.Hash) (common.Address, error) {
	var resolver common.Address
	err := ec.callMethod(ctx, ec.registry, "resolver", node, &resolver)
	return resolver, err
}

// callMethod packs a single bytes32 argument, calls contract and unpacks
// the single return value into out. Empty output leaves out untouched.
func (ec *EthereumClient) callMethod(ctx context.Context, contract common.Address, method string, node common.Hash, out interface{}) error {
	data, err := ensABI.Pack(method, [32]byte(node))
	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", method, err)
	}

	output, err := ec.call(ctx, contract, data)
	if err != nil {
		return &entity.NetworkError{Op: "ens." + method, Err: err}
	}
	if len(output) == 0 {
		return nil
	}

	values, err := ensABI.Unpack(method, output)
	if err != nil {
		return fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return fmt.Errorf("unexpected %s output count %d", method, len(values))
	}

	switch target := out.(type) {
	case *common.Address:
		v, ok := values[0].(common.Address)
		if !ok {
			return fmt.Errorf("unexpected %s output type %T", method, values[0])
		}
		*target = v
	case *string:
		v, ok := values[0].(string)
		if !ok {
			return fmt.Errorf("unexpected %s output type %T", method, values[0])
		}
		*target = v
	default:
		return fmt.Errorf("unsupported output target %T", out)
	}
	return nil
}
