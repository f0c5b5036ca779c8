package nftledger

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/xerrors"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/service/query"
)

var (
	ErrTokenNotMinted = domain.NewError(domain.ErrNotFound, "token not minted")
	ErrAlreadyMinted  = domain.NewError(domain.ErrInvalidState, "token already minted")
	ErrNotTokenOwner  = domain.NewError(domain.ErrUnauthorized, "caller is not token owner")

	timeNow = time.Now
)

type token struct {
	Collection domain.Address `bson:"collection"`
	TokenId    domain.TokenId `bson:"tokenId"`
	Owner      domain.Address `bson:"owner"`
	Approved   domain.Address `bson:"approved"`
	UpdatedAt  time.Time      `bson:"updatedAt"`
}

type operatorApproval struct {
	Collection domain.Address `bson:"collection"`
	Owner      domain.Address `bson:"owner"`
	Operator   domain.Address `bson:"operator"`
	Approved   bool           `bson:"approved"`
}

// Ledger is an ERC-721 alike ownership registry hosted by the marketplace. It lives in the
// same store as the marketplace state, so a transfer done inside a transaction rolls back
// with it.
type Ledger interface {
	asset.Ledger
	asset.Admin
}

type impl struct {
	query query.Mongo
	// operator is the account calling TransferFrom, the marketplace itself
	operator domain.Address
}

func New(q query.Mongo, operator domain.Address) Ledger {
	return &impl{
		query:    q,
		operator: operator.ToLower(),
	}
}

func Indexes() []query.Index {
	return []query.Index{
		{Table: domain.TableNftTokens, Fields: []string{"collection", "tokenId"}, Unique: true},
		{Table: domain.TableNftOperators, Fields: []string{"collection", "owner", "operator"}, Unique: true},
	}
}

func tokenSelector(collection domain.Address, tokenId domain.TokenId) bson.M {
	return bson.M{"collection": collection.ToLower(), "tokenId": tokenId.Canonical()}
}

func (im *impl) get(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (*token, error) {
	t := &token{}
	if err := im.query.FindOne(c, domain.TableNftTokens, tokenSelector(collection, tokenId), t); err == query.ErrNotFound {
		return nil, ErrTokenNotMinted
	} else if err != nil {
		c.WithFields(log.Fields{
			"collection": collection,
			"tokenId":    tokenId,
			"err":        err,
		}).Error("find token failed")
		return nil, err
	}
	return t, nil
}

func (im *impl) save(c ctx.Ctx, t *token) error {
	t.UpdatedAt = timeNow()
	if err := im.query.Upsert(c, domain.TableNftTokens, tokenSelector(t.Collection, t.TokenId), t); err != nil {
		c.WithFields(log.Fields{
			"collection": t.Collection,
			"tokenId":    t.TokenId,
			"err":        err,
		}).Error("upsert token failed")
		return err
	}
	return nil
}

func (im *impl) isOperator(c ctx.Ctx, collection, owner, operator domain.Address) (bool, error) {
	a := &operatorApproval{}
	q := bson.M{"collection": collection.ToLower(), "owner": owner.ToLower(), "operator": operator.ToLower()}
	if err := im.query.FindOne(c, domain.TableNftOperators, q, a); err == query.ErrNotFound {
		return false, nil
	} else if err != nil {
		c.WithFields(log.Fields{
			"query": q,
			"err":   err,
		}).Error("find operator approval failed")
		return false, err
	}
	return a.Approved, nil
}

func (im *impl) OwnerOf(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	t, err := im.get(c, collection, tokenId)
	if err != nil {
		return "", err
	}
	return t.Owner, nil
}

func (im *impl) IsApprovedOrOwner(c ctx.Ctx, spender, collection domain.Address, tokenId domain.TokenId) (bool, error) {
	t, err := im.get(c, collection, tokenId)
	if err != nil {
		return false, err
	}
	if t.Owner.Equals(spender) || (!t.Approved.IsEmpty() && t.Approved.Equals(spender)) {
		return true, nil
	}
	return im.isOperator(c, collection, t.Owner, spender)
}

func (im *impl) TransferFrom(c ctx.Ctx, from, to, collection domain.Address, tokenId domain.TokenId) error {
	fail := func(reason string) error {
		return xerrors.Errorf("transfer %s/%s from %s to %s: %s: %w", collection, tokenId, from, to, reason, domain.ErrTransferFailure)
	}

	if to.IsEmpty() {
		return fail("transfer to the zero address")
	}
	t, err := im.get(c, collection, tokenId)
	if err == ErrTokenNotMinted {
		return fail(err.Error())
	} else if err != nil {
		return err
	}
	if !t.Owner.Equals(from) {
		return fail("from is not the owner")
	}
	if ok, err := im.IsApprovedOrOwner(c, im.operator, collection, tokenId); err != nil {
		return err
	} else if !ok {
		return fail("caller is not owner nor approved")
	}

	t.Owner = to.ToLower()
	t.Approved = ""
	return im.save(c, t)
}

func (im *impl) Mint(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId, to domain.Address) error {
	if to.IsEmpty() || !tokenId.IsValid() {
		return domain.ErrInvalidAsset
	}
	t := &token{
		Collection: collection.ToLower(),
		TokenId:    tokenId.Canonical(),
		Owner:      to.ToLower(),
		UpdatedAt:  timeNow(),
	}
	if err := im.query.Insert(c, domain.TableNftTokens, t); err == query.ErrDuplicateKey {
		return ErrAlreadyMinted
	} else if err != nil {
		c.WithFields(log.Fields{
			"collection": collection,
			"tokenId":    tokenId,
			"err":        err,
		}).Error("insert token failed")
		return err
	}
	return nil
}

func (im *impl) Approve(c ctx.Ctx, owner, spender, collection domain.Address, tokenId domain.TokenId) error {
	t, err := im.get(c, collection, tokenId)
	if err != nil {
		return err
	}
	if !t.Owner.Equals(owner) {
		return ErrNotTokenOwner
	}
	t.Approved = spender.ToLower()
	return im.save(c, t)
}

func (im *impl) SetApprovalForAll(c ctx.Ctx, owner, operator, collection domain.Address, approved bool) error {
	a := &operatorApproval{
		Collection: collection.ToLower(),
		Owner:      owner.ToLower(),
		Operator:   operator.ToLower(),
		Approved:   approved,
	}
	q := bson.M{"collection": a.Collection, "owner": a.Owner, "operator": a.Operator}
	if err := im.query.Upsert(c, domain.TableNftOperators, q, a); err != nil {
		c.WithFields(log.Fields{
			"query": q,
			"err":   err,
		}).Error("upsert operator approval failed")
		return err
	}
	return nil
}
