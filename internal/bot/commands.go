package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/policy"
	"github.com/shrimpsizemoose/kardemumma/internal/ranking"
)

const (
	studentHelp = `Available commands:
/token - Get an API token
/mypoints - Your total and today's usage
/leaderboard - Current standings for this chat's section
/help - Show this message`

	adminHelp = `Available commands:
/token - Get an API token
/mypoints - Your total and today's usage
/leaderboard - Current standings for this chat's section
/award <student_id> <points> <reason> - Award points (admin path, no caps)
/link <tg_username> <student_id> - Map a telegram user to a student
/bind <section> - Associate this chat with a section
/help - Show this message

Examples:
/award s-042 5 Helped run the workshop
/link some_username s-042
/bind 10B`
)

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routeStudentCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start":       b.handleStart,
		"token":       b.handleToken,
		"mypoints":    b.handleMyPoints,
		"leaderboard": b.handleLeaderboard,
		"help":        b.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"award": b.handleAward,
		"link":  b.handleLink,
		"bind":  b.handleBind,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routeStudentCommands(cmd); ok {
		if err := handler(msg); err != nil {
			logger.Error.Printf("Command error: %v", err)
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		}
		return
	}

	if b.admins[msg.From.ID] {
		if handler, ok := b.routeAdminCommands(cmd); ok {
			if err := handler(msg); err != nil {
				logger.Error.Printf("Command error: %v", err)
				b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
			}
		}
		return
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	var text string
	if b.admins[msg.From.ID] {
		text = adminHelp
	} else {
		text = studentHelp
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Send /help for the list of commands.")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := "Hi! I track engagement points for your class.\n\n"
	if b.admins[msg.From.ID] {
		text += "You are a class admin. Use /help for the command list."
	} else {
		text += "Use /token to get an API token, /leaderboard to see standings."
	}

	return b.sendMessage(msg.Chat.ID, text)
}

// resolveStudent maps the telegram sender to a roster record
func (b *Bot) resolveStudent(ctx context.Context, msg *tgbotapi.Message) (*models.Student, error) {
	studentID, err := b.tokens.FetchStudentIDByTelegram(ctx, msg.From.UserName)
	if err != nil {
		return nil, fmt.Errorf("I don't know you yet, ask an admin to /link you")
	}
	return b.store.GetStudentByStudentID(studentID)
}

func (b *Bot) handleToken(msg *tgbotapi.Message) error {
	if !msg.Chat.IsPrivate() {
		return b.sendMessage(msg.Chat.ID, "Ask me for tokens in a private chat.")
	}

	ctx := context.Background()
	student, err := b.resolveStudent(ctx, msg)
	if err != nil {
		return err
	}

	info, isNew, err := b.tokens.FetchOrCreateStudentToken(ctx, student.StudentID)
	if err != nil {
		return fmt.Errorf("failed to fetch token: %w", err)
	}

	status := "existing"
	if isNew {
		status = "new"
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("Your %s token: %s", status, info.Token))
}

func (b *Bot) handleMyPoints(msg *tgbotapi.Message) error {
	ctx := context.Background()
	student, err := b.resolveStudent(ctx, msg)
	if err != nil {
		return err
	}

	entries, err := b.store.ListEntriesForStudent(student.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch entries: %w", err)
	}

	var total int
	for _, e := range entries {
		total += e.Points
	}

	from, to := policy.DayWindow(time.Now())
	usedToday, err := b.store.PointsUsedBetween(student.ID, from, to)
	if err != nil {
		return fmt.Errorf("failed to fetch today's usage: %w", err)
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"%s: %d points total, %d of %d used today",
		student.Name, total, usedToday, b.config.Awards.DailyCap,
	))
}

func (b *Bot) handleLeaderboard(msg *tgbotapi.Message) error {
	ctx := context.Background()

	section := strings.TrimSpace(msg.CommandArguments())
	if section == "" {
		if mapping, err := b.tokens.FetchSectionMappingByChatID(ctx, msg.Chat.ID); err == nil {
			section = mapping.Section
		}
	}

	students, err := b.store.ListStudents()
	if err != nil {
		return fmt.Errorf("failed to fetch roster: %w", err)
	}
	entries, err := b.store.ListAllEntries()
	if err != nil {
		return fmt.Errorf("failed to fetch ledger: %w", err)
	}

	board := ranking.Rank(ranking.FilterSection(students, section), entries, 0)
	if len(board) == 0 {
		return b.sendMessage(msg.Chat.ID, "No students on the board yet.")
	}

	var sb strings.Builder
	if section != "" {
		fmt.Fprintf(&sb, "Leaderboard for %s:\n", section)
	} else {
		sb.WriteString("Leaderboard:\n")
	}
	limit := 10
	if len(board) < limit {
		limit = len(board)
	}
	for _, entry := range board[:limit] {
		fmt.Fprintf(&sb, "%d. %s — %d\n", entry.Rank, entry.Name, entry.TotalPoints)
	}

	return b.sendMessage(msg.Chat.ID, sb.String())
}

func (b *Bot) handleAward(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 3 {
		return fmt.Errorf("usage: /award <student_id> <points> <reason>")
	}

	points, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("points must be a number, got %q", args[1])
	}
	reason := strings.Join(args[2:], " ")

	target, err := b.store.GetStudentByStudentID(args[0])
	if err != nil {
		return fmt.Errorf("unknown student %s", args[0])
	}

	// admin path: range and cap checks do not apply
	entry := &models.PointEntry{
		StudentID: target.ID,
		Points:    points,
		Reason:    reason,
		Section:   target.Section,
	}
	if err := b.store.CreateEntry(entry); err != nil {
		return fmt.Errorf("failed to save award: %w", err)
	}

	logger.Info.Printf("Bot award: %d points to %s by admin %d", points, target.StudentID, msg.From.ID)
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"Awarded %d points to %s (%s)", points, target.Name, target.StudentID,
	))
}

func (b *Bot) handleLink(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		return fmt.Errorf("usage: /link <tg_username> <student_id>")
	}

	ctx := context.Background()
	if _, err := b.store.GetStudentByStudentID(args[1]); err != nil {
		return fmt.Errorf("unknown student %s", args[1])
	}

	if err := b.tokens.SaveStudentTelegramMapping(ctx, args[0], args[1]); err != nil {
		return fmt.Errorf("failed to save mapping: %w", err)
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("Linked @%s to %s", args[0], args[1]))
}

func (b *Bot) handleBind(msg *tgbotapi.Message) error {
	section := strings.TrimSpace(msg.CommandArguments())
	if section == "" {
		return fmt.Errorf("usage: /bind <section>")
	}

	ctx := context.Background()
	mapping := &models.ChatSectionMapping{
		Section:         section,
		Name:            msg.Chat.Title,
		AssociationTime: time.Now().UTC(),
		RegisteredBy:    msg.From.ID,
	}
	if err := b.tokens.AssociateChatWithSection(ctx, msg.Chat.ID, mapping); err != nil {
		return fmt.Errorf("failed to bind chat: %w", err)
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("This chat now follows section %s", section))
}
