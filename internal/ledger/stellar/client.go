package stellar

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"
	"go.uber.org/zap"

	"brickfolio/listing-portal/listing-portal-backend/internal/listing"
)

// Config contains Stellar network configuration for the unit-ledger mirror.
type Config struct {
	HorizonURL          string `json:"horizon_url"`
	IssuerSecretKey     string `json:"issuer_secret_key"`
	DistributionAddress string `json:"distribution_address"`
	Network             string `json:"network"` // "testnet" or "public"
}

// Client issues ownership-unit assets on Stellar. Escrow accounting stays in
// the in-memory ledgers; the chain carries a public mirror of each issuance.
type Client struct {
	horizon           horizonclient.ClientInterface
	issuer            *keypair.Full
	distribution      string
	networkPassphrase string
}

func NewClient(cfg Config) (*Client, error) {
	issuer, err := keypair.ParseFull(cfg.IssuerSecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse issuer key pair: %w", err)
	}

	horizon := horizonclient.DefaultTestNetClient
	passphrase := network.TestNetworkPassphrase
	if cfg.Network == "public" {
		horizon = horizonclient.DefaultPublicNetClient
		passphrase = network.PublicNetworkPassphrase
	}
	if cfg.HorizonURL != "" {
		horizon = &horizonclient.Client{HorizonURL: cfg.HorizonURL}
	}

	return &Client{
		horizon:           horizon,
		issuer:            issuer,
		distribution:      cfg.DistributionAddress,
		networkPassphrase: passphrase,
	}, nil
}

// IssueUnits issues amount of a new unit asset from the issuer account to the
// distribution account and returns the transaction hash. The distribution
// account must already hold a trustline for the asset.
func (c *Client) IssueUnits(ctx context.Context, code string, amount uint64) (string, error) {
	if err := validateAssetCode(code); err != nil {
		return "", err
	}

	account, err := c.horizon.AccountDetail(horizonclient.AccountRequest{
		AccountID: c.issuer.Address(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to load issuer account: %w", err)
	}

	asset := txnbuild.CreditAsset{Code: code, Issuer: c.issuer.Address()}
	payment := txnbuild.Payment{
		Destination: c.distribution,
		Amount:      strconv.FormatUint(amount, 10),
		Asset:       asset,
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &account,
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{&payment},
		BaseFee:              txnbuild.MinBaseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(300),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to build issuance transaction: %w", err)
	}

	tx, err = tx.Sign(c.networkPassphrase, c.issuer)
	if err != nil {
		return "", fmt.Errorf("failed to sign issuance transaction: %w", err)
	}

	resp, err := c.horizon.SubmitTransaction(tx)
	if err != nil {
		return "", fmt.Errorf("failed to submit issuance transaction: %w", err)
	}
	if !resp.Successful {
		return "", fmt.Errorf("issuance transaction failed: %s", resp.ResultXdr)
	}
	return resp.Hash, nil
}

func validateAssetCode(code string) error {
	if len(code) < 1 || len(code) > 12 {
		return fmt.Errorf("asset code must be 1-12 characters long")
	}
	for _, char := range code {
		if !((char >= 'A' && char <= 'Z') || (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9')) {
			return fmt.Errorf("asset code can only contain alphanumeric characters")
		}
	}
	return nil
}

// MirroringFactory decorates a unit-ledger factory with a best-effort Stellar
// issuance mirror. A failed mirror never fails fractionalization.
type MirroringFactory struct {
	inner  listing.UnitLedgerFactory
	client *Client
	logger *zap.Logger
}

func NewMirroringFactory(inner listing.UnitLedgerFactory, client *Client, logger *zap.Logger) *MirroringFactory {
	return &MirroringFactory{inner: inner, client: client, logger: logger}
}

func (f *MirroringFactory) CreateUnitLedger(name, symbol string, supply uint64, holder string) (listing.FungibleLedger, error) {
	ledger, err := f.inner.CreateUnitLedger(name, symbol, supply, holder)
	if err != nil {
		return nil, err
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		hash, err := f.client.IssueUnits(ctx, symbol, supply)
		if err != nil {
			f.logger.Warn("unit issuance not mirrored on chain",
				zap.String("symbol", symbol), zap.Error(err))
			return
		}
		f.logger.Info("unit issuance mirrored on chain",
			zap.String("symbol", symbol),
			zap.Uint64("supply", supply),
			zap.String("tx_hash", hash))
	}()
	return ledger, nil
}
