package usecase

import (
	"errors"
	"time"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain/asset"
)

// resendAfter is how long a transfer may stay unmined before it is sent again
const resendAfter = 10 * time.Minute

func (im *impl) ReconcileTransfers(c ctx.Ctx) (int, error) {
	tracker, ok := im.ledger.(asset.Tracker)
	if !ok {
		return 0, nil
	}

	unlock, err := im.locker.Lock(c, lockKey)
	if err != nil {
		c.WithField("err", err).Error("locker.Lock failed")
		return 0, err
	}
	defer unlock()

	pending, err := im.transferRepo.FindPending(c)
	if err != nil {
		return 0, err
	}
	settled := 0
	for _, t := range pending {
		done, err := im.reconcile(c, tracker, t)
		if err != nil {
			c.WithFields(log.Fields{
				"id":  t.Id,
				"tx":  t.TxHash,
				"err": err,
			}).Warn("reconcile transfer failed")
			continue
		}
		if done {
			settled++
		}
	}
	return settled, nil
}

func (im *impl) reconcile(c ctx.Ctx, tracker asset.Tracker, t *asset.Transfer) (bool, error) {
	status, err := tracker.TransferStatus(c, t.TxHash)
	if err != nil {
		return false, err
	}
	if status == asset.TransferPending && timeNow().Sub(t.UpdatedAt) < resendAfter {
		return false, nil
	}

	if status != asset.TransferConfirmed {
		// a reverted or stale attempt, an earlier one may still have moved the token
		owner, err := im.ledger.OwnerOf(c, t.Collection, t.TokenId)
		if err != nil {
			return false, err
		}
		if owner.Equals(t.To) {
			status = asset.TransferConfirmed
		} else {
			status = im.resend(c, t)
		}
	}

	t.Status = status
	if err := im.transferRepo.Update(c, t); err != nil {
		return false, err
	}
	return status != asset.TransferPending, nil
}

func (im *impl) resend(c ctx.Ctx, t *asset.Transfer) asset.TransferStatus {
	t.Attempts++
	err := im.ledger.TransferFrom(c, t.From, t.To, t.Collection, t.TokenId)
	pending := &asset.PendingError{}
	if errors.As(err, &pending) {
		t.TxHash = pending.TxHash
		return asset.TransferPending
	} else if err != nil {
		c.WithFields(log.Fields{
			"id":         t.Id,
			"op":         t.Op,
			"from":       t.From,
			"to":         t.To,
			"collection": t.Collection,
			"tokenId":    t.TokenId,
			"attempts":   t.Attempts,
			"err":        err,
		}).Error("transfer failed after commit, needs manual settlement")
		im.metrics.BumpSum("transfer.failed", 1, "op", t.Op)
		return asset.TransferFailed
	}
	return asset.TransferConfirmed
}
