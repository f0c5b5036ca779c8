package bank

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/bank"
	"github.com/x-xyz/nftmarket/service/query"
)

var mockCtx = ctx.Background()

const (
	custody = domain.Address("0x00000000000000000000000000000000000000aa")
	alice   = domain.Address("0x00000000000000000000000000000000000000A1")
	bob     = domain.Address("0x00000000000000000000000000000000000000b2")
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type bankSuite struct {
	suite.Suite
	q  query.Mongo
	im bank.Bank
}

func (s *bankSuite) SetupTest() {
	s.q = query.NewMemory()
	s.Require().NoError(s.q.EnsureIndexes(mockCtx, Indexes()...))
	s.im = New(s.q, custody)
}

func TestBankSuite(t *testing.T) {
	suite.Run(t, new(bankSuite))
}

func (s *bankSuite) balance(a domain.Address) decimal.Decimal {
	b, err := s.im.BalanceOf(mockCtx, a)
	s.Require().NoError(err)
	return b
}

func (s *bankSuite) TestDeposit() {
	s.NoError(s.im.Deposit(mockCtx, alice, d("1.5")))
	s.NoError(s.im.Deposit(mockCtx, alice.ToLower(), d("0.5")))
	s.True(d("2").Equal(s.balance(alice)))

	s.Equal(domain.ErrInvalidAmount, s.im.Deposit(mockCtx, alice, d("0")))
	s.Equal(domain.ErrInvalidAmount, s.im.Deposit(mockCtx, alice, d("0.0000000000000000001")))
}

func (s *bankSuite) TestCollectAndSend() {
	s.NoError(s.im.Deposit(mockCtx, alice, d("1")))

	s.NoError(s.im.Collect(mockCtx, alice, d("0.4")))
	s.True(d("0.6").Equal(s.balance(alice)))
	held, err := s.im.Held(mockCtx)
	s.NoError(err)
	s.True(d("0.4").Equal(held))

	s.True(errors.Is(s.im.Collect(mockCtx, alice, d("0.7")), domain.ErrInsufficientFunds))
	s.True(d("0.6").Equal(s.balance(alice)))

	s.NoError(s.im.Send(mockCtx, bob, d("0.4")))
	s.True(d("0.4").Equal(s.balance(bob)))
	held, err = s.im.Held(mockCtx)
	s.NoError(err)
	s.True(held.IsZero())

	err = s.im.Send(mockCtx, bob, d("0.1"))
	s.True(errors.Is(err, domain.ErrTransferFailure))
	s.True(d("0.4").Equal(s.balance(bob)))
}

func (s *bankSuite) TestMovementsJoinTransaction() {
	s.NoError(s.im.Deposit(mockCtx, alice, d("1")))

	errAbort := errors.New("abort")
	err := s.q.RunWithTransaction(mockCtx, func(c ctx.Ctx) error {
		if err := s.im.Collect(c, alice, d("1")); err != nil {
			return err
		}
		if err := s.im.Send(c, bob, d("1")); err != nil {
			return err
		}
		return errAbort
	})
	s.Equal(errAbort, err)

	s.True(d("1").Equal(s.balance(alice)))
	s.True(s.balance(bob).IsZero())
	held, err := s.im.Held(mockCtx)
	s.NoError(err)
	s.True(held.IsZero())
}
