package naming

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/internal/adapters/config"
	"github.com/selivandex/agent-registry/pkg/logger"
)

// registrarABI is the slice of the ENS registry ABI the adapter needs
const registrarABI = `[
	{"name":"setSubnodeOwner","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"node","type":"bytes32"},{"name":"label","type":"bytes32"},{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"bytes32"}]},
	{"name":"owner","type":"function","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"}],
	 "outputs":[{"name":"","type":"address"}]}
]`

// ENSRegistrar registers agent subnames on-chain under a parent node
// the service account owns.
type ENSRegistrar struct {
	client     *ethclient.Client
	contract   *bind.BoundContract
	opts       *bind.TransactOpts
	parentNode common.Hash
	parentName string
}

var _ Registrar = (*ENSRegistrar)(nil)

// NewENSRegistrar dials the chain and prepares a transactor for the
// configured registrar contract
func NewENSRegistrar(ctx context.Context, cfg *config.NamingConfig) (*ENSRegistrar, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to naming chain: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid naming private key: %w", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(registrarABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registrar ABI: %w", err)
	}

	registrar := common.HexToAddress(cfg.Registrar)
	contract := bind.NewBoundContract(registrar, parsed, client, client, client)

	logger.Info("naming registrar initialized",
		zap.String("registrar", registrar.Hex()),
		zap.String("parent", cfg.ParentName),
		zap.String("chain_id", chainID.String()),
	)

	return &ENSRegistrar{
		client:     client,
		contract:   contract,
		opts:       opts,
		parentNode: Namehash(cfg.ParentName),
		parentName: cfg.ParentName,
	}, nil
}

// RegisterSubname creates label.<parent> owned by the given address and
// returns the resulting node hash
func (r *ENSRegistrar) RegisterSubname(ctx context.Context, label string, owner common.Address) (common.Hash, error) {
	if err := validateLabel(label); err != nil {
		return common.Hash{}, err
	}

	labelHash := crypto.Keccak256Hash([]byte(label))

	opts := *r.opts
	opts.Context = ctx

	tx, err := r.contract.Transact(&opts, "setSubnodeOwner", r.parentNode, labelHash, owner)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to register subname %q: %w", label, err)
	}

	node := SubnodeHash(r.parentNode, label)

	logger.Info("subname registered",
		zap.String("label", label),
		zap.String("name", label+"."+r.parentName),
		zap.String("node", node.Hex()),
		zap.String("owner", owner.Hex()),
		zap.String("tx", tx.Hash().Hex()),
	)

	return node, nil
}

// Close releases the chain connection
func (r *ENSRegistrar) Close() {
	r.client.Close()
}

func validateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("label must not be empty")
	}
	if strings.Contains(label, ".") {
		return fmt.Errorf("label must not contain dots: %q", label)
	}
	return nil
}
