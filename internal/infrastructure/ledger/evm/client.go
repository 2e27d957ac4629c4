// Package evm implements the ledger ports against a betting contract
// deployed on an EVM chain, over JSON-RPC.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/riskibarqy/betledger-sync/internal/domain/ledger"
	"github.com/riskibarqy/betledger-sync/internal/platform/logging"
)

const contractABI = `[
	{"inputs":[],"name":"nextMatchId","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"","type":"uint256"}],"name":"matches","outputs":[{"internalType":"string","name":"homeTeam","type":"string"},{"internalType":"string","name":"awayTeam","type":"string"},{"internalType":"uint256","name":"matchTime","type":"uint256"},{"internalType":"uint8","name":"outcome","type":"uint8"},{"internalType":"bool","name":"exists","type":"bool"},{"internalType":"bool","name":"deleted","type":"bool"},{"internalType":"string","name":"externalMatchId","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"string","name":"_homeTeam","type":"string"},{"internalType":"string","name":"_awayTeam","type":"string"},{"internalType":"uint256","name":"_matchTime","type":"uint256"},{"internalType":"string","name":"_externalMatchId","type":"string"}],"name":"createMatch","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"_matchId","type":"uint256"},{"internalType":"uint8","name":"_homeScore","type":"uint8"},{"internalType":"uint8","name":"_awayScore","type":"uint8"}],"name":"settleMatchOffChain","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var errMissingCredentials = crerr.New("chain credentials missing")

type Config struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string
	ChainID         int64
	GasLimit        uint64
	Logger          *logging.Logger
}

// Client binds the betting contract and satisfies ledger.Ledger. Reads
// go through eth_call; writes sign and submit transactions with the
// configured operator key.
type Client struct {
	eth      *ethclient.Client
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	address  common.Address
	logger   *logging.Logger
}

func Dial(ctx context.Context, cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	rpcURL := strings.TrimSpace(cfg.RPCURL)
	contractAddress := strings.TrimSpace(cfg.ContractAddress)
	privateKey := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x")
	if rpcURL == "" || contractAddress == "" || privateKey == "" {
		return nil, errMissingCredentials
	}
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}

	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("parse operator key: %w", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("build transactor chain_id=%d: %w", cfg.ChainID, err)
	}
	if cfg.GasLimit > 0 {
		auth.GasLimit = cfg.GasLimit
	}

	address := common.HexToAddress(contractAddress)
	return &Client{
		eth:      eth,
		contract: bind.NewBoundContract(address, parsed, eth, eth, eth),
		auth:     auth,
		address:  address,
		logger:   logger,
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

// NextMatchID returns the contract's next unassigned match id. Assigned
// ids are strictly below it.
func (c *Client) NextMatchID(ctx context.Context) (uint64, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "nextMatchId"); err != nil {
		return 0, fmt.Errorf("call nextMatchId: %w", err)
	}
	next := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return next.Uint64(), nil
}

func (c *Client) MatchByID(ctx context.Context, id uint64) (ledger.Match, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "matches", new(big.Int).SetUint64(id)); err != nil {
		return ledger.Match{}, fmt.Errorf("call matches id=%d: %w", id, err)
	}

	matchTime := *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)
	return ledger.Match{
		ID:              id,
		Home:            *abi.ConvertType(out[0], new(string)).(*string),
		Away:            *abi.ConvertType(out[1], new(string)).(*string),
		MatchTime:       matchTime.Int64(),
		Outcome:         *abi.ConvertType(out[3], new(uint8)).(*uint8),
		Exists:          *abi.ConvertType(out[4], new(bool)).(*bool),
		Deleted:         *abi.ConvertType(out[5], new(bool)).(*bool),
		ExternalMatchID: *abi.ConvertType(out[6], new(string)).(*string),
	}, nil
}

func (c *Client) CreateMatch(ctx context.Context, home, away string, matchTime int64, externalMatchID string) error {
	opts := *c.auth
	opts.Context = ctx

	tx, err := c.contract.Transact(&opts, "createMatch", home, away, new(big.Int).SetInt64(matchTime), externalMatchID)
	if err != nil {
		return fmt.Errorf("submit createMatch external_match_id=%s: %w", externalMatchID, err)
	}

	c.logger.InfoContext(ctx, "createMatch transaction submitted",
		"tx_hash", tx.Hash().Hex(),
		"home", home,
		"away", away,
		"match_time", matchTime,
		"external_match_id", externalMatchID,
	)
	return nil
}

func (c *Client) SettleMatch(ctx context.Context, id uint64, homeScore, awayScore uint8) error {
	opts := *c.auth
	opts.Context = ctx

	tx, err := c.contract.Transact(&opts, "settleMatchOffChain", new(big.Int).SetUint64(id), homeScore, awayScore)
	if err != nil {
		return fmt.Errorf("submit settleMatchOffChain match_id=%d: %w", id, err)
	}

	c.logger.InfoContext(ctx, "settleMatchOffChain transaction submitted",
		"tx_hash", tx.Hash().Hex(),
		"match_id", id,
		"home_score", homeScore,
		"away_score", awayScore,
	)
	return nil
}
