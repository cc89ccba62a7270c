package reservation

import (
	"context"

	"cinema-reservation/pkg/utils"

	"github.com/google/uuid"
)

// ProviderIntent is what the payment provider hands back when an
// intent is opened on its side.
type ProviderIntent struct {
	ID           string
	ClientSecret string
}

// PaymentProvider is the outbound interface to the external payment
// service. Calls are bounded by the context deadline the coordinator
// sets; a provider that does not answer in time is treated as failed
// (create) or potentially-succeeded-unknown (cancel).
type PaymentProvider interface {
	CreateIntent(ctx context.Context, holdID uuid.UUID, amount float64) (ProviderIntent, error)
	CancelIntent(ctx context.Context, intentID string) error
}

// SimulatedProvider is the in-process provider used when no real
// gateway is configured. It issues provider-shaped identifiers and
// client secrets and accepts every request.
type SimulatedProvider struct{}

func NewSimulatedProvider() *SimulatedProvider { return &SimulatedProvider{} }

func (p *SimulatedProvider) CreateIntent(ctx context.Context, holdID uuid.UUID, amount float64) (ProviderIntent, error) {
	if err := ctx.Err(); err != nil {
		return ProviderIntent{}, err
	}
	id := utils.GenerateIntentID()
	return ProviderIntent{
		ID:           id,
		ClientSecret: utils.GenerateClientSecret(id),
	}, nil
}

func (p *SimulatedProvider) CancelIntent(ctx context.Context, intentID string) error {
	return ctx.Err()
}
