package payments

import (
	"context"
	"errors"
)

var (
	ErrChargeFailed   = errors.New("payment charge failed")
	ErrChargeDeclined = errors.New("payment source was declined")
	ErrConnectFailed  = errors.New("failed to connect payment wallet")
	ErrNotConfigured  = errors.New("payment provider is not configured")
)

type ChargeRequest struct {
	Amount         int64  // minor units
	Currency       string // ISO 4217, lower case
	Source         string // card token produced by the client
	Destination    string // wallet id of the host
	IdempotencyKey string // reservation intent id
	Description    string
}

type Charge struct {
	ID     string
	Amount int64
	Fee    int64
	Status string
}

// Charger moves money from the tenant's source to the host's wallet.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
}

// Connector links and unlinks host wallets.
type Connector interface {
	Connect(ctx context.Context, code string) (walletID string, err error)
	Disconnect(ctx context.Context, walletID string) error
}

// PlatformFee returns the application fee for amount, rounded half up.
func PlatformFee(amount int64, basisPoints int) int64 {
	if amount <= 0 || basisPoints <= 0 {
		return 0
	}
	return (amount*int64(basisPoints) + 5000) / 10000
}
