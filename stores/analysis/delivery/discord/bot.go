package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	bCtx "github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/base/goroutine"
	"github.com/nftprophet/goapi/domain/analysis"
)

const commandPrefix = "!predict "

type BotConfig struct {
	BotKey   string
	Analysis analysis.Usecase
}

type Bot struct {
	config  BotConfig
	discord *discordgo.Session
}

func NewBot(config BotConfig) (*Bot, error) {
	discord, err := discordgo.New(fmt.Sprintf("Bot %s", config.BotKey))
	if err != nil {
		return nil, err
	}

	b := &Bot{config, discord}
	discord.AddHandler(b.onMessage)
	return b, nil
}

func (b *Bot) Start() error {
	return b.discord.Open()
}

func (b *Bot) Stop() error {
	return b.discord.Close()
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.Bot || !strings.HasPrefix(m.Content, commandPrefix) {
		return
	}

	query := strings.TrimSpace(strings.TrimPrefix(m.Content, commandPrefix))
	if len(query) == 0 {
		return
	}

	goroutine.RecoverableGo(func() {
		b.answer(s, m.ChannelID, query)
	})
}

func (b *Bot) answer(s *discordgo.Session, channelId, query string) {
	ctx := bCtx.Background()

	res, err := b.config.Analysis.AnalyzeByName(ctx, query)
	if err != nil {
		if _, err := s.ChannelMessageSend(channelId, err.Error()); err != nil {
			ctx.WithField("err", err).Error("failed to send discord message")
		}
		return
	}

	if _, err := s.ChannelMessageSendEmbed(channelId, formatResult(res)); err != nil {
		ctx.WithField("err", err).Error("failed to send discord embed")
	}
}

func formatResult(res *analysis.Result) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Collection", Value: res.Collection},
		{Name: "Current Price", Value: fmt.Sprintf("%s ETH", strconv.FormatFloat(res.CurrentPrice, 'f', -1, 64))},
	}

	for _, p := range res.Predictions {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  p.Date,
			Value: fmt.Sprintf("%.4f ETH (confidence %.0f%%)", p.Price, p.Confidence*100),
		})
	}

	msg := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("Price prediction for %s", res.Name),
		Fields: fields,
	}

	if len(res.ImageUrl) > 0 {
		msg.Image = &discordgo.MessageEmbedImage{URL: res.ImageUrl}
	}

	return msg
}
