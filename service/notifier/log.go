package notifier

import (
	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain/notifier"
)

type logImpl struct{}

// NewLog returns a notifier writing events to the context logger
func NewLog() notifier.Notifier {
	return logImpl{}
}

func (logImpl) Notify(c ctx.Ctx, evt notifier.Event) error {
	c.WithFields(log.Fields{
		"type":       evt.Type,
		"saleId":     evt.SaleId,
		"collection": evt.Collection,
		"tokenId":    evt.TokenId,
		"seller":     evt.Seller,
		"buyer":      evt.Buyer,
		"price":      evt.Price,
	}).Info("marketplace event")
	return nil
}
