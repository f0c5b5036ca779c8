package notifier

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/viney-shih/goroutines"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/goroutine"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/notifier"
	"github.com/x-xyz/nftmarket/service/ens"
)

const scheduleTimeout = 3 * time.Second

var titles = map[notifier.EventType]string{
	notifier.EventItemSold:       "Item sold!",
	notifier.EventAuctionSettled: "Auction settled!",
	notifier.EventNewListing:     "New listing",
	notifier.EventNewAuction:     "New auction",
}

type DiscordConfig struct {
	BotKey    string
	ChannelId string
	// SiteUrl is the web front, the embed links to <SiteUrl>/asset/<collection>/<tokenId>
	SiteUrl string
	// Names shows ens names next to addresses when set
	Names ens.ENS
}

type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
}

type discordImpl struct {
	config     DiscordConfig
	discord    embedSender
	workerPool *goroutines.Pool
}

// NewDiscord posts events to a discord channel. Messages are sent by a worker pool so
// Notify never blocks the marketplace on discord latency.
func NewDiscord(config DiscordConfig) (notifier.Notifier, error) {
	discord, err := discordgo.New(fmt.Sprintf("Bot %s", config.BotKey))
	if err != nil {
		return nil, err
	}
	return newDiscord(config, discord), nil
}

func newDiscord(config DiscordConfig, discord embedSender) *discordImpl {
	return &discordImpl{
		config:     config,
		discord:    discord,
		workerPool: goroutines.NewPool(4, goroutines.WithTaskQueueLength(256)),
	}
}

func (im *discordImpl) label(c ctx.Ctx, address domain.Address) string {
	if im.config.Names == nil {
		return string(address)
	}
	name, err := im.config.Names.ReverseResolve(c, address)
	if err != nil || name == "" {
		return string(address)
	}
	return fmt.Sprintf("%s (%s)", name, address)
}

func (im *discordImpl) toEmbed(c ctx.Ctx, evt notifier.Event) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Seller", Value: im.label(c, evt.Seller)},
	}
	if !evt.Buyer.IsEmpty() {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Buyer", Value: im.label(c, evt.Buyer)})
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "Price", Value: evt.Price.String()})

	title, ok := titles[evt.Type]
	if !ok {
		title = string(evt.Type)
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("%s/asset/%s/%s", im.config.SiteUrl, evt.Collection, evt.TokenId),
		Fields:      fields,
	}
}

func (im *discordImpl) Notify(c ctx.Ctx, evt notifier.Event) error {
	err := im.workerPool.ScheduleWithTimeout(scheduleTimeout, func() {
		goroutine.Recover(c, "discord-notify", func() {
			msg := im.toEmbed(c, evt)
			if _, err := im.discord.ChannelMessageSendEmbed(im.config.ChannelId, msg); err != nil {
				c.WithFields(log.Fields{
					"type":   evt.Type,
					"saleId": evt.SaleId,
					"err":    err,
				}).Warn("discord.ChannelMessageSendEmbed failed")
			}
		})
	})
	if err != nil {
		c.WithFields(log.Fields{
			"type":   evt.Type,
			"saleId": evt.SaleId,
			"err":    err,
		}).Error("failed to ScheduleWithTimeout")
		return err
	}
	return nil
}

// Close waits for pending messages
func (im *discordImpl) Close() {
	im.workerPool.Release()
}
