package fakeresetrepo

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/auth"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

var _ auth.ResetTokenRepo = (*FakeResetRepo)(nil)

type FakeResetRepo struct {
	tokens map[string]auth.ResetToken
	lock   sync.RWMutex
}

func NewFakeResetRepo() auth.ResetTokenRepo {
	return &FakeResetRepo{
		tokens: make(map[string]auth.ResetToken),
	}
}

func (rr *FakeResetRepo) Upsert(resetToken *auth.ResetToken) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	rr.tokens[resetToken.Token] = *resetToken
	return nil
}

func (rr *FakeResetRepo) Delete(token string) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	if _, ok := rr.tokens[token]; !ok {
		return autherrors.ErrNotFound
	}
	delete(rr.tokens, token)
	return nil
}

func (rr *FakeResetRepo) Get(token string) (*auth.ResetToken, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	rt, ok := rr.tokens[token]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	return &rt, nil
}

func (rr *FakeResetRepo) DeleteExpired(now time.Time) (int, error) {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	removed := 0
	for k, v := range rr.tokens {
		if v.ExpiresAt.Before(now) {
			delete(rr.tokens, k)
			removed++
		}
	}
	return removed, nil
}
