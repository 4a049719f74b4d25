package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/intent"
	"ai-trip-planner/internal/metrics"
	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/trip"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram caps message length at 4096; leave room for formatting.
const maxMessageLen = 4000

// Bot wraps the Telegram API and the trip planning engine.
type Bot struct {
	api          *tgbotapi.BotAPI
	orchestrator *planner.Orchestrator
	extractor    *intent.Extractor
	tripRepo     *trip.Repository
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	orchestrator *planner.Orchestrator,
	extractor *intent.Extractor,
	tripRepo *trip.Repository,
	metricsStore *metrics.Store,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		orchestrator: orchestrator,
		extractor:    extractor,
		tripRepo:     tripRepo,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}
	if !isAllowed {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	switch {
	case msg.Text == "/start" || msg.Text == "/help":
		b.sendHelp(msg.Chat.ID)
	case msg.Text == "/metrics":
		b.handleMetricsRequest(msg)
	case strings.HasPrefix(msg.Text, "/trips"):
		b.handleTripsRequest(msg)
	default:
		b.handlePlannerRequest(msg)
	}
}

func (b *Bot) sendHelp(chatID int64) {
	text := "🧳 *AI Trip Planner*\n\n" +
		"Tell me where you want to go, for how long, and what you enjoy. For example:\n\n" +
		"_\"Plan a 3-day trip to Bangkok in March for 2 people, we love street food and temples, budget-friendly\"_\n\n" +
		"Commands:\n" +
		"• /trips - your recent trips\n" +
		"• /help - this message"
	b.send(chatID, text)
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	b.handleMetricsCommand(msg.Chat.ID)
}

func (b *Bot) handleTripsRequest(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID := fmt.Sprintf("%d", msg.From.ID)
	trips, err := b.tripRepo.ListRecentByUserID(ctx, userID, 5)
	if err != nil {
		log.Printf("Error listing trips for user %s: %v", userID, err)
		b.send(msg.Chat.ID, "❌ Error fetching your trips.")
		return
	}
	if len(trips) == 0 {
		b.send(msg.Chat.ID, "You have no saved trips yet. Tell me where you want to go!")
		return
	}

	var sb strings.Builder
	sb.WriteString("🗂 *Your Recent Trips*\n\n")
	for _, t := range trips {
		sb.WriteString(fmt.Sprintf("• *%s* - %d days (planned %s)\n",
			t.Context.Destination, t.Context.DurationDays, t.CreatedAt.Format("2006-01-02")))
	}
	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handlePlannerRequest(msg *tgbotapi.Message) {
	statusText := "🧳 *Planning your trip...* \n(Finding venues, scheduling days, checking quality)"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Printf("Planning trip for request: %s", msg.Text)
	userID := fmt.Sprintf("%d", msg.From.ID)

	req, meta, err := b.extractor.Extract(ctx, msg.Text)
	b.recordMeta(ctx, meta)
	if err != nil {
		log.Printf("Error extracting intent: %v", err)
		b.editError(msg.Chat.ID, sentMsg.MessageID, "I couldn't understand that request", err)
		return
	}

	planStart := time.Now()
	result, err := b.orchestrator.Plan(ctx, userID, req)
	b.recordMeta(ctx, shared.StageMeta{
		Stage:   "plan",
		Latency: time.Since(planStart),
		Success: err == nil,
	})
	if err != nil {
		log.Printf("Error planning trip: %v", err)
		b.editError(msg.Chat.ID, sentMsg.MessageID, "Error planning your trip", err)
		return
	}

	if b.tripRepo != nil {
		if err := b.tripRepo.Save(ctx, result.SessionID, userID, result.Context); err != nil {
			log.Printf("Warning: failed to save trip for user %s: %v", userID, err)
		}
	}

	parts := splitMessage(result.FormattedOutput)
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, parts[0])
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
	for _, part := range parts[1:] {
		b.send(msg.Chat.ID, part)
	}

	if result.Warning != "" {
		b.send(msg.Chat.ID, "⚠️ "+result.Warning)
	}
}

func (b *Bot) editError(chatID int64, messageID int, label string, cause error) {
	safeErr := strings.ReplaceAll(cause.Error(), "`", "'")
	finalText := fmt.Sprintf("❌ *%s:*\n```\n%v\n```", label, safeErr)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usage, err := b.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		b.send(chatID, "❌ Error fetching metrics.")
		return
	}
	stages, err := b.metricsStore.GetStageStats(ctx, 7)
	if err != nil {
		log.Printf("Error fetching stage stats: %v", err)
	}

	health := metrics.GetSysHealth("data")

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d stage runs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecutions))
	}

	if len(stages) > 0 {
		sb.WriteString("\n⚙️ *Pipeline Stages*\n")
		for _, st := range stages {
			sb.WriteString(fmt.Sprintf("• *%s*: %d runs, %d failed, avg %.0fms\n",
				st.Stage, st.Executions, st.Failures, st.AvgLatencyMS))
		}
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Heap) / %dMB (Sys)\n", health.HeapAllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d (up %s)\n", health.Goroutines, health.Uptime))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	b.send(chatID, sb.String())
}

func (b *Bot) recordMeta(ctx context.Context, meta shared.StageMeta) {
	if b.metricsStore == nil {
		return
	}
	if err := b.metricsStore.RecordMeta(ctx, meta); err != nil {
		log.Printf("Warning: failed to record metric for stage %s: %v", meta.Stage, err)
	}

	// Alert on context bloat.
	if meta.Usage.PromptTokens > 4000 {
		alert := fmt.Sprintf("⚠️ *Context Bloat Alert*\nStage: %s\nModel: %s\nPrompt Tokens: %d",
			meta.Stage, meta.Usage.Model, meta.Usage.PromptTokens)
		b.sendAdminAlert(alert)
	}
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.send(b.cfg.AdminTelegramID, text)
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

// splitMessage breaks long output into Telegram-sized chunks at line
// boundaries.
func splitMessage(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if current.Len()+len(line)+1 > maxMessageLen && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
