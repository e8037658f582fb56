// Package discord serves the grades command in Discord channels.
package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// sessionSender sends replies through a discordgo session.
type sessionSender struct {
	session *discordgo.Session
}

func (s sessionSender) SendText(ctx context.Context, channelID, content string) error {
	_, err := s.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

func (s sessionSender) SendImage(ctx context.Context, channelID, content, filename string, png []byte) error {
	_, err := s.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files: []*discordgo.File{{
			Name:        filename,
			ContentType: "image/png",
			Reader:      bytes.NewReader(png),
		}},
	}, discordgo.WithContext(ctx))
	return err
}

// Options configure a Bot.
type Options struct {
	Token     string
	Prefix    string
	QueueSize int
}

// Bot listens for the grades command and answers it through a Dispatcher.
type Bot struct {
	session    *discordgo.Session
	sender     Sender
	dispatcher *Dispatcher
	prefix     string
	logger     *zap.Logger
}

// NewBot creates the Discord session. Call Open to connect.
func NewBot(grades GradeService, opts Options, logger *zap.Logger) (*Bot, error) {
	if opts.Token == "" {
		return nil, errors.New("discord token is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	session, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := newBot(grades, sessionSender{session: session}, opts, logger)
	b.session = session

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("logged in",
			zap.String("user", r.User.String()),
			zap.String("user_id", r.User.ID))
	})
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		selfID := ""
		if s.State != nil && s.State.User != nil {
			selfID = s.State.User.ID
		}
		b.handleMessage(context.Background(), selfID, m.Message)
	})

	return b, nil
}

func newBot(grades GradeService, sender Sender, opts Options, logger *zap.Logger) *Bot {
	logger = logger.Named("discord")
	responder := NewResponder(grades, sender, logger)
	return &Bot{
		sender:     sender,
		dispatcher: NewDispatcher(opts.QueueSize, responder.Handle, logger),
		prefix:     opts.Prefix,
		logger:     logger,
	}
}

func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	b.logger.Info("discord bot listening", zap.String("prefix", b.prefix))
	return nil
}

// Close drains queued commands, then closes the session.
func (b *Bot) Close(ctx context.Context) error {
	err := b.dispatcher.Close(ctx)
	if b.session != nil {
		if cerr := b.session.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (b *Bot) handleMessage(ctx context.Context, selfID string, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.ID == selfID || m.Author.Bot {
		return
	}

	args, ok := ParseCommand(b.prefix, m.Content)
	if !ok {
		return
	}

	job, err := b.dispatcher.Submit(Job{ChannelID: m.ChannelID, AuthorID: m.Author.ID, Args: args})
	switch {
	case err == nil:
		b.logger.Debug("command queued", zap.String("request_id", job.ID), zap.String("args", args))
	case errors.Is(err, ErrQueueFull):
		if serr := b.sender.SendText(ctx, m.ChannelID, BusyMessage); serr != nil {
			b.logger.Error("failed to send busy reply", zap.String("request_id", job.ID), zap.Error(serr))
		}
	default:
		b.logger.Warn("command dropped", zap.String("request_id", job.ID), zap.Error(err))
	}
}
