package uow

import (
	"context"
	"errors"
	"setpass/internal/core/domain/token"
	"sync"
)

// FakeUnitOfWork serializes units of work with a single lock held from Begin
// until Commit or Rollback, standing in for the row lock taken by the
// database implementation.
type FakeUnitOfWork struct {
	TokenRepository    *token.FakeRepository
	BeginReturnsError  bool
	CommitReturnsError bool

	commitCount   int
	rollbackCount int
	stateLock     sync.Mutex
	txLock        sync.Mutex
}

func NewFakeUnitOfWork() *FakeUnitOfWork {
	return &FakeUnitOfWork{TokenRepository: token.NewFakeRepository()}
}

func (u *FakeUnitOfWork) Begin(ctx context.Context) (Context, error) {
	if u.BeginReturnsError {
		return nil, errors.New("could not begin unit of work")
	}
	u.txLock.Lock()
	return &fakeContext{uow: u}, nil
}

func (u *FakeUnitOfWork) WasCommitCalled() bool {
	u.stateLock.Lock()
	defer u.stateLock.Unlock()
	return u.commitCount > 0
}

func (u *FakeUnitOfWork) CommitCount() int {
	u.stateLock.Lock()
	defer u.stateLock.Unlock()
	return u.commitCount
}

func (u *FakeUnitOfWork) WasRollbackCalled() bool {
	u.stateLock.Lock()
	defer u.stateLock.Unlock()
	return u.rollbackCount > 0
}

type fakeContext struct {
	uow      *FakeUnitOfWork
	released bool
}

func (c *fakeContext) Commit(ctx context.Context) error {
	if c.released {
		return errors.New("unit of work is already closed")
	}
	if c.uow.CommitReturnsError {
		return errors.New("could not commit unit of work")
	}
	c.uow.stateLock.Lock()
	c.uow.commitCount++
	c.uow.stateLock.Unlock()
	c.release()
	return nil
}

func (c *fakeContext) Rollback(ctx context.Context) error {
	if c.released {
		return nil
	}
	c.uow.stateLock.Lock()
	c.uow.rollbackCount++
	c.uow.stateLock.Unlock()
	c.release()
	return nil
}

func (c *fakeContext) Tokens() token.Repository {
	return c.uow.TokenRepository
}

func (c *fakeContext) release() {
	c.released = true
	c.uow.txLock.Unlock()
}
