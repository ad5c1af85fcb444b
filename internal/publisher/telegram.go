package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	tele "gopkg.in/telebot.v4"

	"github.com/gaudesp/noxbot/internal/domain"
)

// Telegram rejects photo captions above this many characters.
const maxCaptionLen = 1024

type TelegramConfig struct {
	Token   string
	APIURL  string
	Timeout time.Duration
}

// Telegram delivers notifications straight to chats through the Bot API.
// Channel ids are Telegram chat ids.
type Telegram struct {
	bot    *tele.Bot
	logger *slog.Logger
}

func NewTelegram(cfg TelegramConfig, logger *slog.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	bot, err := tele.NewBot(tele.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.Token,
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Telegram{bot: bot, logger: logger.With("dispatcher", "telegram")}, nil
}

func (t *Telegram) Dispatch(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return &domain.DispatchError{ChannelID: n.ChannelID, Err: err}
	}

	chatID, err := strconv.ParseInt(n.ChannelID, 10, 64)
	if err != nil {
		return &domain.DispatchError{ChannelID: n.ChannelID, Err: fmt.Errorf("parse chat id: %w", err)}
	}
	chat := &tele.Chat{ID: chatID}
	text := formatMessage(n)

	var what any = text
	if n.ImageURL != nil && *n.ImageURL != "" && utf8.RuneCountInString(text) <= maxCaptionLen {
		what = &tele.Photo{File: tele.FromURL(*n.ImageURL), Caption: text}
	}

	if _, err := t.bot.Send(chat, what, &tele.SendOptions{ParseMode: tele.ModeHTML}); err != nil {
		return &domain.DispatchError{ChannelID: n.ChannelID, Err: err}
	}

	t.logger.Debug("sent notification", "chat_id", chatID, "article_id", n.ArticleID)
	return nil
}

func (t *Telegram) Close() error {
	return nil
}

func formatMessage(n *domain.Notification) string {
	var b strings.Builder

	title := html.EscapeString(n.Title)
	if n.URL != "" {
		fmt.Fprintf(&b, "<b><a href=\"%s\">%s</a></b>", html.EscapeString(n.URL), title)
	} else {
		fmt.Fprintf(&b, "<b>%s</b>", title)
	}

	if n.Author != "" {
		fmt.Fprintf(&b, "\n<i>%s</i>", html.EscapeString(n.Author))
	}
	if n.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(renderDescription(n.Description))
	}
	if n.PublishedAt != nil {
		fmt.Fprintf(&b, "\n\n%s", n.PublishedAt.UTC().Format("2006-01-02 15:04 UTC"))
	}

	return b.String()
}

// renderDescription escapes the teaser and turns its **bold** header lines
// into HTML.
func renderDescription(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if len(line) > 4 && strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") {
			lines[i] = "<b>" + html.EscapeString(line[2:len(line)-2]) + "</b>"
			continue
		}
		lines[i] = html.EscapeString(line)
	}
	return strings.Join(lines, "\n")
}
