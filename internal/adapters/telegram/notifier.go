package telegram

import (
	"context"
	"fmt"
	"math"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/config"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/templates"
)

// Sender is the part of the bot API the notifier uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts snapshot digests to a Telegram chat
type Notifier struct {
	api      Sender
	chatID   int64
	minShift float64
	renderer templates.Renderer
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	bot.Debug = false

	renderer, err := NewTemplateManager()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
		zap.Int64("chat_id", cfg.ChatID),
	)

	return NewNotifierWithSender(bot, renderer, cfg.ChatID, cfg.MinShift), nil
}

// NewNotifierWithSender creates notifier over an existing sender
func NewNotifierWithSender(api Sender, renderer templates.Renderer, chatID int64, minShift float64) *Notifier {
	return &Notifier{
		api:      api,
		chatID:   chatID,
		minShift: minShift,
		renderer: renderer,
	}
}

type digestData struct {
	Section     string
	Time        string
	Total       int
	HasMean     bool
	Mean        float64
	Label       string
	HasShift    bool
	Shift       float64
	Arrow       string
	Positive    int
	Neutral     int
	Negative    int
	PositivePct float64
	NeutralPct  float64
	NegativePct float64
	Top         *models.ScoredArticle
	Bottom      *models.ScoredArticle
}

// NotifySnapshot sends a digest of current. When both snapshots have a mean
// and it moved less than the configured minimum shift, nothing is sent.
func (n *Notifier) NotifySnapshot(ctx context.Context, current, previous *models.Snapshot) error {
	data := buildDigest(current, previous)

	if data.HasShift && math.Abs(data.Shift) < n.minShift {
		logger.Debug("sentiment shift below threshold, digest skipped",
			zap.Float64("shift", data.Shift),
			zap.Float64("min_shift", n.minShift),
		)
		return nil
	}

	msg, err := n.renderer.ExecuteTemplate(digestTemplate, data)
	if err != nil {
		return err
	}

	return n.sendMessageMarkdown(msg)
}

// SendErrorAlert reports a failed refresh
func (n *Notifier) SendErrorAlert(ctx context.Context, kind string, runErr error) error {
	msg, err := n.renderer.ExecuteTemplate(errorAlertTemplate, map[string]interface{}{
		"Kind":  kind,
		"Error": runErr.Error(),
		"Time":  time.Now().UTC().Format(time.RFC1123),
	})
	if err != nil {
		return err
	}

	return n.sendMessageMarkdown(msg)
}

func buildDigest(current, previous *models.Snapshot) digestData {
	s := current.Summary
	data := digestData{
		Section:     current.Section,
		Time:        current.FetchedAt.Format(time.RFC1123),
		Total:       s.Total,
		HasMean:     s.HasMean(),
		Mean:        s.Mean(),
		Label:       s.Label,
		Positive:    s.PositiveCount,
		Neutral:     s.NeutralCount,
		Negative:    s.NegativeCount,
		PositivePct: s.PositivePct,
		NeutralPct:  s.NeutralPct,
		NegativePct: s.NegativePct,
	}

	if previous != nil && s.HasMean() && previous.Summary.HasMean() {
		data.HasShift = true
		data.Shift = s.Mean() - previous.Summary.Mean()
		switch {
		case data.Shift > 0:
			data.Arrow = "📈"
		case data.Shift < 0:
			data.Arrow = "📉"
		default:
			data.Arrow = "➡️"
		}
	}

	for i := range current.Articles {
		a := &current.Articles[i]
		if data.Top == nil || a.Sentiment > data.Top.Sentiment {
			data.Top = a
		}
		if data.Bottom == nil || a.Sentiment < data.Bottom.Sentiment {
			data.Bottom = a
		}
	}
	if data.Top != nil && data.Top.Sentiment <= 0 {
		data.Top = nil
	}
	if data.Bottom != nil && data.Bottom.Sentiment >= 0 {
		data.Bottom = nil
	}

	return data
}

func (n *Notifier) sendMessageMarkdown(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := n.api.Send(msg); err != nil {
		logger.Error("failed to send telegram message",
			zap.Int64("chat_id", n.chatID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
