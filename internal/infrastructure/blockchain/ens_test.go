package blockchain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"nft-activity-timeline/internal/domain/entity"
	"nft-activity-timeline/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistry = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"

var (
	publicResolver = common.HexToAddress("0x4976fb03C32e5B8cfe2b6cCB31c09Ba78EBaBa41")
	walletAddress  = common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
)

// fakeENS answers registry and resolver calls from in-memory records
type fakeENS struct {
	resolvers map[common.Hash]common.Address
	addrs     map[common.Hash]common.Address
	names     map[common.Hash]string
	err       error
}

func newFakeENS() *fakeENS {
	return &fakeENS{
		resolvers: make(map[common.Hash]common.Address),
		addrs:     make(map[common.Hash]common.Address),
		names:     make(map[common.Hash]string),
	}
}

func (f *fakeENS) register(name string, address common.Address) {
	node := Namehash(name)
	f.resolvers[node] = publicResolver
	f.addrs[node] = address
}

func (f *fakeENS) setReverse(address common.Address, name string) {
	node := Namehash(strings.ToLower(address.Hex()[2:]) + ".addr.reverse")
	f.resolvers[node] = publicResolver
	f.names[node] = name
}

func (f *fakeENS) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}

	method, err := ensABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	var node common.Hash
	copy(node[:], msg.Data[4:36])

	switch method.Name {
	case "resolver":
		if *msg.To != common.HexToAddress(testRegistry) {
			return nil, errors.New("resolver called on wrong contract")
		}
		return method.Outputs.Pack(f.resolvers[node])
	case "addr":
		return method.Outputs.Pack(f.addrs[node])
	default:
		return method.Outputs.Pack(f.names[node])
	}
}

func newTestResolver(caller ContractCaller) *EthereumClient {
	return NewEthereumClientWithCaller(caller, testRegistry, logger.NewNop())
}

func TestNamehash(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "0x0000000000000000000000000000000000000000000000000000000000000000"},
		{"eth", "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"},
		{"foo.eth", "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
		{"FOO.eth", "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Namehash(tt.name).Hex())
		})
	}
}

func TestResolve_NameAppendsSuffix(t *testing.T) {
	ens := newFakeENS()
	ens.register("vitalik.eth", walletAddress)

	wallet, err := newTestResolver(ens).Resolve(context.Background(), "Vitalik")
	require.NoError(t, err)
	assert.Equal(t, walletAddress.Hex(), wallet.Address)
	assert.Equal(t, "vitalik.eth", wallet.ENS)

	wallet, err = newTestResolver(ens).Resolve(context.Background(), "vitalik.eth")
	require.NoError(t, err)
	assert.Equal(t, walletAddress.Hex(), wallet.Address)
}

func TestResolve_UnboundNames(t *testing.T) {
	ens := newFakeENS()
	// resolver set but no address record
	ens.resolvers[Namehash("empty.eth")] = publicResolver

	for _, input := range []string{"nobody", "empty.eth"} {
		_, err := newTestResolver(ens).Resolve(context.Background(), input)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, entity.ErrWalletNotFound), input)
	}
}

func TestResolve_AddressWithReverseRecord(t *testing.T) {
	ens := newFakeENS()
	ens.register("vitalik.eth", walletAddress)
	ens.setReverse(walletAddress, "vitalik.eth")

	wallet, err := newTestResolver(ens).Resolve(context.Background(), strings.ToLower(walletAddress.Hex()))
	require.NoError(t, err)
	assert.Equal(t, walletAddress.Hex(), wallet.Address)
	assert.Equal(t, "vitalik.eth", wallet.ENS)
	assert.Equal(t, "vitalik.eth", wallet.DisplayName())
}

func TestResolve_ReverseRecordMustResolveBack(t *testing.T) {
	ens := newFakeENS()
	ens.register("impostor.eth", common.HexToAddress("0x1111111111111111111111111111111111111111"))
	ens.setReverse(walletAddress, "impostor.eth")

	wallet, err := newTestResolver(ens).Resolve(context.Background(), walletAddress.Hex())
	require.NoError(t, err)
	assert.Empty(t, wallet.ENS)
	assert.Equal(t, walletAddress.Hex(), wallet.DisplayName())
}

func TestResolve_AddressSurvivesRPCFailure(t *testing.T) {
	ens := newFakeENS()
	ens.err = errors.New("connection refused")

	wallet, err := newTestResolver(ens).Resolve(context.Background(), walletAddress.Hex())
	require.NoError(t, err)
	assert.Equal(t, walletAddress.Hex(), wallet.Address)
	assert.Empty(t, wallet.ENS)
}

func TestResolve_NameRPCFailure(t *testing.T) {
	ens := newFakeENS()
	ens.err = errors.New("connection refused")

	_, err := newTestResolver(ens).Resolve(context.Background(), "vitalik.eth")

	var netErr *entity.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "ens.resolver", netErr.Op)
}

func TestResolve_Disabled(t *testing.T) {
	client := newTestResolver(nil)
	assert.False(t, client.Enabled())

	wallet, err := client.Resolve(context.Background(), walletAddress.Hex())
	require.NoError(t, err)
	assert.Equal(t, walletAddress.Hex(), wallet.Address)

	_, err = client.Resolve(context.Background(), "vitalik.eth")
	assert.True(t, errors.Is(err, ErrENSDisabled))

	_, err = client.Resolve(context.Background(), "  ")
	assert.True(t, errors.Is(err, entity.ErrInvalidCriteria))
}
