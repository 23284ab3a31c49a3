package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/veltia-labs/veltia-core/pkg/config"
	"github.com/veltia-labs/veltia-core/pkg/notify"
	"github.com/veltia-labs/veltia-core/pkg/reminders"
	"github.com/veltia-labs/veltia-core/pkg/store"
)

// runRemindCmd runs one reminder sweep over the pending form panels.
func runRemindCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("remind", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	cfg := config.Load()

	db, err := openDatabase(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}
	defer db.Close()

	panels, err := store.NewSQLFormPanelStore(db)
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}
	chatStore, err := store.NewSQLChatStore(db)
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}

	var realtime notify.Publisher
	if pub := newRealtimePublisher(cfg); pub != nil {
		defer pub.Close()
		realtime = pub
	}
	chat := notify.NewStoreChat(chatStore, realtime)

	stats, err := reminders.NewSweeper(panels, chat).Sweep(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "due=%d reminded=%d escalated=%d failed=%d\n",
		stats.Due, stats.Reminded, stats.Escalated, stats.Failed)
	return 0
}
