package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

type FakeRepository struct {
	Records            map[Identity]Record
	GetReturnsError    bool
	CreateReturnsError bool
	UpdateReturnsError bool
	DeleteReturnsError bool
	// BeforeCreate runs ahead of every Create, e.g. to let a concurrent
	// issuance win the insert.
	BeforeCreate func(r *FakeRepository)
	lock         sync.Mutex
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{Records: make(map[Identity]Record)}
}

func (r *FakeRepository) GetByToken(ctx context.Context, token Token) (record Record, err error) {
	if r.GetReturnsError {
		return record, errors.New("could not get token record")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, record := range r.Records {
		if record.Token == token {
			return record, nil
		}
	}
	return record, ErrTokenNotFound
}

func (r *FakeRepository) GetByTokenForUpdate(ctx context.Context, token Token) (Record, error) {
	return r.GetByToken(ctx, token)
}

func (r *FakeRepository) GetByIdentity(ctx context.Context, identity Identity) (record Record, err error) {
	if r.GetReturnsError {
		return record, errors.New("could not get token record")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	record, ok := r.Records[identity]
	if !ok {
		return record, ErrTokenNotFound
	}
	return record, nil
}

func (r *FakeRepository) GetByIdentityForUpdate(ctx context.Context, identity Identity) (Record, error) {
	return r.GetByIdentity(ctx, identity)
}

func (r *FakeRepository) Create(ctx context.Context, input CreateInput) (record Record, err error) {
	if r.CreateReturnsError {
		return record, fmt.Errorf("could not create token record for %s", input.Identity)
	}
	if r.BeforeCreate != nil {
		r.BeforeCreate(r)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.Records[input.Identity]; ok {
		return record, ErrIdentityAlreadyExists
	}
	for _, existing := range r.Records {
		if existing.Token == input.Token {
			return record, ErrTokenAlreadyExists
		}
	}
	record = Record{
		Identity:  input.Identity,
		Token:     input.Token,
		PinDigest: input.PinDigest,
		Password:  input.Password,
		UpdatedAt: input.UpdatedAt,
	}
	r.Records[input.Identity] = record
	return record, nil
}

// Put stores record as is, bypassing the uniqueness checks of Create.
func (r *FakeRepository) Put(record Record) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Records[record.Identity] = record
}

func (r *FakeRepository) Update(ctx context.Context, input UpdateInput) (record Record, err error) {
	if r.UpdateReturnsError {
		return record, fmt.Errorf("could not update token record for %s", input.Identity)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	record, ok := r.Records[input.Identity]
	if !ok {
		return record, ErrTokenNotFound
	}
	record.Token = input.Token
	record.UpdatedAt = input.UpdatedAt
	if input.PinDigest.IsPresent {
		record.PinDigest = input.PinDigest
	}
	if input.Password.IsPresent {
		record.Password = input.Password.Value
	}
	r.Records[input.Identity] = record
	return record, nil
}

func (r *FakeRepository) Delete(ctx context.Context, token Token) error {
	if r.DeleteReturnsError {
		return errors.New("could not delete token record")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for identity, record := range r.Records {
		if record.Token == token {
			delete(r.Records, identity)
			return nil
		}
	}
	return ErrTokenNotFound
}

type FakeGenerator struct {
	generated int
	lock      sync.Mutex
}

func NewFakeGenerator() *FakeGenerator {
	return &FakeGenerator{}
}

func (g *FakeGenerator) GenerateToken() Token {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.generated++
	return Token(fmt.Sprintf("test-token-%d", g.generated))
}

const fakeDigestPrefix = "digest:"

type FakePinHasher struct{}

func NewFakePinHasher() *FakePinHasher {
	return &FakePinHasher{}
}

func (h *FakePinHasher) HashPin(pin Pin) PinDigest {
	return PinDigest(fakeDigestPrefix + string(pin))
}

func (h *FakePinHasher) ValidatePin(pin Pin, digest PinDigest) bool {
	return h.HashPin(pin) == digest
}

const fakeSealedPrefix = "sealed:"

type FakePasswordSealer struct {
	UnsealReturnsError bool
}

func NewFakePasswordSealer() *FakePasswordSealer {
	return &FakePasswordSealer{}
}

func (s *FakePasswordSealer) Seal(password RawPassword) (SealedPassword, error) {
	return SealedPassword(fakeSealedPrefix + string(password)), nil
}

func (s *FakePasswordSealer) Unseal(sealed SealedPassword) (RawPassword, error) {
	if s.UnsealReturnsError || !strings.HasPrefix(string(sealed), fakeSealedPrefix) {
		return "", errors.New("could not unseal password")
	}
	return RawPassword(strings.TrimPrefix(string(sealed), fakeSealedPrefix)), nil
}
