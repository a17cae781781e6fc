package invoice

import (
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medtrack_backend/config"
)

// FeePolicy prices a consultation: a fixed amount, or a uniform draw from
// [Min, Max].
type FeePolicy struct {
	Kind  string
	Fixed int64
	Min   int64
	Max   int64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewFeePolicy builds the policy from the billing section. A nil rnd seeds
// a fresh source; tests pass a fixed one.
func NewFeePolicy(c config.BillingConfig, rnd *rand.Rand) *FeePolicy {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &FeePolicy{Kind: c.FeePolicy, Fixed: c.FixedFee, Min: c.MinFee, Max: c.MaxFee, rnd: rnd}
}

// Amount returns the fee for a consultation billed on completion.
func (p *FeePolicy) Amount() int64 {
	if p.Kind != config.FeeRandom || p.Max < p.Min {
		return p.FixedAmount()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Min + p.rnd.Int64N(p.Max-p.Min+1)
}

// FixedAmount is the flat fee charged when billing at booking time.
func (p *FeePolicy) FixedAmount() int64 {
	if p.Fixed > 0 {
		return p.Fixed
	}
	return p.Min
}

var invoiceNamespace = uuid.MustParse("6f1c7a52-3d0e-4b7e-9a43-2f0d5c8e41a9")

// IDFor derives the invoice id of an appointment. Every issue path uses it,
// so a second invoice for the same appointment collides on create.
func IDFor(appointmentID string) string {
	return uuid.NewSHA1(invoiceNamespace, []byte(appointmentID)).String()
}
