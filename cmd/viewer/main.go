package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	chaterrors "chathub/errors"
	"chathub/repositories"
)

// Read-only inspector for a live database. BypassLockGuard allows
// opening while the server process holds the lock.
func main() {
	dbPath := flag.String("db", "/tmp/chathub/badger", "Path to badger DB")
	withMessages := flag.Bool("messages", false, "Also dump the latest messages per channel")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := dump(db, *withMessages); err != nil {
		log.Fatal(err)
	}
}

func dump(db *badger.DB, withMessages bool) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	categories := repositories.NewCategoryRepository(db)
	servers := repositories.NewServerRepository(db, logger)
	messages := repositories.NewMessageRepository(db, nil, logger, nil)

	all, err := categories.List()
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	names := make(map[string]string, len(all))

	banner("CATEGORIES")
	table := newTable([]string{"ID", "Name", "Description"})
	for _, category := range all {
		names[category.ID.String()] = category.Name
		table.Append([]string{short(category.ID.String()), category.Name, category.Description})
	}
	table.Render()

	records, err := servers.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshotting servers: %w", err)
	}

	banner("SERVERS")
	table = newTable([]string{"ID", "Name", "Category", "Owner", "Members", "Channels", "Created"})
	for _, record := range records {
		table.Append([]string{
			short(record.Server.ID.String()),
			record.Server.Name,
			names[record.Server.CategoryID.String()],
			short(record.Server.OwnerID),
			strconv.Itoa(len(record.Members)),
			strconv.Itoa(len(record.Channels)),
			record.Server.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()

	if !withMessages {
		return nil
	}

	banner("MESSAGES")
	table = newTable([]string{"Channel", "Time", "Sender", "Lang", "Content"})
	for _, record := range records {
		for _, channel := range record.Channels {
			conversation, err := messages.ConversationByRef(channel.ID.String())
			if errors.Is(err, chaterrors.ErrConversationNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("resolving conversation of %s: %w", channel.Name, err)
			}
			thread, _, err := messages.List(conversation.ID, nil)
			if err != nil {
				return fmt.Errorf("listing messages of %s: %w", channel.Name, err)
			}
			for _, message := range thread {
				table.Append([]string{
					channel.Name,
					message.Timestamp.Format("15:04:05"),
					message.Sender.Username,
					message.Lang,
					message.Content,
				})
			}
		}
	}
	table.Render()
	return nil
}

func banner(title string) {
	fmt.Println()
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(" " + title + " "))
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
