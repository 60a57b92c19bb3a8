package ledger

import (
	"errors"
	"fmt"

	"github.com/nvandessel/txsim/internal/random"
)

var (
	// ErrDuplicateID is returned when an account id is registered twice.
	ErrDuplicateID = errors.New("duplicate account id")

	// ErrNoCounterparty is returned when a directory has no account to offer.
	ErrNoCounterparty = errors.New("no counterparty available")
)

// Directory picks counterparties for an acting client.
type Directory interface {
	PickMerchant(rng random.Sampler) (*Account, error)
	PickClientExcluding(id string, rng random.Sampler) (*Account, error)
	PickBank(rng random.Sampler) (*Account, error)
}

// Registry owns every account of a run, grouped by kind and kept in creation
// order. It is not safe for concurrent use; a run mutates it from a single
// goroutine.
type Registry struct {
	clients   []*Account
	merchants []*Account
	banks     []*Account
	byID      map[string]*Account
	clientIdx map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:      make(map[string]*Account),
		clientIdx: make(map[string]int),
	}
}

// Add registers an account. Accounts are never removed.
func (r *Registry) Add(a *Account) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("account id is required")
	}
	if _, ok := r.byID[a.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
	}
	r.byID[a.ID] = a

	switch a.Kind {
	case KindClient:
		r.clientIdx[a.ID] = len(r.clients)
		r.clients = append(r.clients, a)
	case KindMerchant:
		r.merchants = append(r.merchants, a)
	case KindBank:
		r.banks = append(r.banks, a)
	default:
		delete(r.byID, a.ID)
		return fmt.Errorf("unknown account kind %q for %s", a.Kind, a.ID)
	}
	return nil
}

// Clients returns the clients in creation order. The slice is shared; callers
// must not modify it.
func (r *Registry) Clients() []*Account { return r.clients }

// Merchants returns the merchants in creation order.
func (r *Registry) Merchants() []*Account { return r.merchants }

// Banks returns the banks in creation order.
func (r *Registry) Banks() []*Account { return r.banks }

// PickMerchant returns a uniformly chosen merchant.
func (r *Registry) PickMerchant(rng random.Sampler) (*Account, error) {
	return pick(r.merchants, rng, KindMerchant)
}

// PickBank returns a uniformly chosen bank.
func (r *Registry) PickBank(rng random.Sampler) (*Account, error) {
	return pick(r.banks, rng, KindBank)
}

// PickClientExcluding returns a uniformly chosen client other than id. It
// consumes exactly one draw.
func (r *Registry) PickClientExcluding(id string, rng random.Sampler) (*Account, error) {
	self, isClient := r.clientIdx[id]
	n := len(r.clients)
	if isClient {
		n--
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: client other than %s", ErrNoCounterparty, id)
	}
	i := rng.IntN(n)
	if isClient && i >= self {
		i++
	}
	return r.clients[i], nil
}

func pick(accounts []*Account, rng random.Sampler, kind Kind) (*Account, error) {
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCounterparty, kind)
	}
	return accounts[rng.IntN(len(accounts))], nil
}
