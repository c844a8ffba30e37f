package token

import (
	"context"
	c "setpass/internal/core/domain/common"
	"setpass/internal/core/domain/token"
	"setpass/internal/db"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/suite"
)

const (
	IDENTITY   = "test-identity"
	TOKEN      = "test-token"
	PIN_DIGEST = "test-pin-digest"
	PASSWORD   = "test-sealed-password"
)

var NOW time.Time = time.Date(2020, 6, 6, 15, 30, 30, 0, time.UTC)

type testSuite struct {
	suite.Suite
	pool *pgxpool.Pool
	repo *PgxTokenRepository
}

func (suite *testSuite) SetupSuite() {
	suite.pool = db.CreateTestPool(suite.T())
	suite.repo = NewPgxTokenRepository(suite.pool)
}

func (suite *testSuite) TearDownSuite() {
	suite.pool.Close()
}

func (suite *testSuite) TearDownTest() {
	db.TruncateTables(suite.pool)
}

func TestPgxTokenRepository(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (suite *testSuite) createRecord() token.Record {
	record, err := suite.repo.Create(context.Background(), token.CreateInput{
		Identity:  IDENTITY,
		Token:     TOKEN,
		PinDigest: c.Some(token.PinDigest(PIN_DIGEST)),
		Password:  PASSWORD,
		UpdatedAt: NOW,
	})
	suite.Require().Nil(err)
	return record
}

func (suite *testSuite) TestCreateSuccess() {
	record := suite.createRecord()

	assert := suite.Require()
	assert.Equal(token.Identity(IDENTITY), record.Identity)
	assert.Equal(token.Token(TOKEN), record.Token)
	assert.Equal(c.Some(token.PinDigest(PIN_DIGEST)), record.PinDigest)
	assert.Equal(token.SealedPassword(PASSWORD), record.Password)
	assert.True(NOW.Equal(record.UpdatedAt))
}

func (suite *testSuite) TestCreateWithoutPin() {
	record, err := suite.repo.Create(context.Background(), token.CreateInput{
		Identity:  IDENTITY,
		Token:     TOKEN,
		Password:  PASSWORD,
		UpdatedAt: NOW,
	})

	assert := suite.Require()
	assert.Nil(err)
	assert.False(record.PinDigest.IsPresent)
}

func (suite *testSuite) TestCreateDuplicateIdentity() {
	suite.createRecord()

	_, err := suite.repo.Create(context.Background(), token.CreateInput{
		Identity:  IDENTITY,
		Token:     "other-token",
		Password:  PASSWORD,
		UpdatedAt: NOW,
	})
	suite.ErrorIs(err, token.ErrIdentityAlreadyExists)
}

func (suite *testSuite) TestCreateDuplicateToken() {
	suite.createRecord()

	_, err := suite.repo.Create(context.Background(), token.CreateInput{
		Identity:  "other-identity",
		Token:     TOKEN,
		Password:  PASSWORD,
		UpdatedAt: NOW,
	})
	suite.ErrorIs(err, token.ErrTokenAlreadyExists)
}

func (suite *testSuite) TestGetByToken() {
	created := suite.createRecord()

	record, err := suite.repo.GetByToken(context.Background(), TOKEN)
	suite.Require().Nil(err)
	suite.Equal(created.Identity, record.Identity)

	_, err = suite.repo.GetByToken(context.Background(), "TEST-TOKEN")
	suite.ErrorIs(err, token.ErrTokenNotFound)
}

func (suite *testSuite) TestGetByIdentity() {
	created := suite.createRecord()

	record, err := suite.repo.GetByIdentity(context.Background(), IDENTITY)
	suite.Require().Nil(err)
	suite.Equal(created.Token, record.Token)

	_, err = suite.repo.GetByIdentity(context.Background(), "unknown")
	suite.ErrorIs(err, token.ErrTokenNotFound)
}

func (suite *testSuite) TestUpdateOnlyPin() {
	suite.createRecord()
	later := NOW.Add(time.Hour)

	record, err := suite.repo.Update(context.Background(), token.UpdateInput{
		Identity:  IDENTITY,
		Token:     "new-token",
		PinDigest: c.Some(token.PinDigest("new-pin-digest")),
		UpdatedAt: later,
	})

	assert := suite.Require()
	assert.Nil(err)
	assert.Equal(token.Token("new-token"), record.Token)
	assert.Equal(c.Some(token.PinDigest("new-pin-digest")), record.PinDigest)
	assert.Equal(token.SealedPassword(PASSWORD), record.Password)
	assert.True(later.Equal(record.UpdatedAt))

	_, err = suite.repo.GetByToken(context.Background(), TOKEN)
	assert.ErrorIs(err, token.ErrTokenNotFound)
}

func (suite *testSuite) TestUpdateOnlyPassword() {
	suite.createRecord()

	record, err := suite.repo.Update(context.Background(), token.UpdateInput{
		Identity:  IDENTITY,
		Token:     "new-token",
		Password:  c.Some(token.SealedPassword("new-password")),
		UpdatedAt: NOW,
	})

	assert := suite.Require()
	assert.Nil(err)
	assert.Equal(c.Some(token.PinDigest(PIN_DIGEST)), record.PinDigest)
	assert.Equal(token.SealedPassword("new-password"), record.Password)
}

func (suite *testSuite) TestUpdateUnknownIdentity() {
	_, err := suite.repo.Update(context.Background(), token.UpdateInput{
		Identity:  "unknown",
		Token:     "new-token",
		UpdatedAt: NOW,
	})
	suite.ErrorIs(err, token.ErrTokenNotFound)
}

func (suite *testSuite) TestDelete() {
	suite.createRecord()

	err := suite.repo.Delete(context.Background(), TOKEN)
	suite.Require().Nil(err)

	_, err = suite.repo.GetByToken(context.Background(), TOKEN)
	suite.ErrorIs(err, token.ErrTokenNotFound)

	err = suite.repo.Delete(context.Background(), TOKEN)
	suite.ErrorIs(err, token.ErrTokenNotFound)
}
