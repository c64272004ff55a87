// Package passwords hashes and verifies user passwords with bcrypt.
//
// bcrypt is CPU-bound by design; a Hasher caps how many computations run at
// once so a burst of registrations or logins cannot starve the process.
package passwords

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// Hasher runs bcrypt with a fixed work factor on a bounded number of slots.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher validates cost against bcrypt's accepted range. concurrency is
// the number of hashes allowed to run at the same time.
func NewHasher(cost, concurrency int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt work factor %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("hash concurrency must be positive, got %d", concurrency)
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}, nil
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns the bcrypt hash of plain. It waits for a free slot and gives
// up if ctx is done first.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether plain matches hash. A mismatch is (false, nil);
// a malformed hash is an error.
func (h *Hasher) Compare(ctx context.Context, hash, plain string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
