package notifier

import (
	"github.com/slack-go/slack"
	"log/slog"
)

// SlackSender posts attachments to a Slack channel. An empty channel posts to all channels the bot has joined.
// Implemented by github.com/clambin/go-common/slackbot.SlackBot.
type SlackSender interface {
	Send(channel string, attachments []slack.Attachment) error
}

type SlackNotifier struct {
	Bot    SlackSender
	Logger *slog.Logger
}

var _ Notifier = &SlackNotifier{}

func (s SlackNotifier) Notify(e Event) {
	color := "good"
	if !e.Open {
		color = "warning"
	}
	err := s.Bot.Send("", []slack.Attachment{{
		Color: color,
		Title: e.String(),
		Text:  e.Reason,
	}})
	if err != nil && s.Logger != nil {
		s.Logger.Error("failed to post to slack", "err", err)
	}
}
