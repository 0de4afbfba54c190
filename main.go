package main

import (
	"context"
	"embed"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"jirapilot/internal/eventbus"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	app := NewApp()

	err := wails.Run(&options.App{
		Title:  "JiraPilot",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: func(ctx context.Context) {
			app.startup(ctx)
			forwardBusEvents(ctx, app.bus)
		},
		OnShutdown: app.shutdown,
		Bind: []any{
			app,
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}

// forwardBusEvents relays internal bus topics to the frontend as Wails events.
func forwardBusEvents(ctx context.Context, bus *eventbus.Bus) {
	for _, topic := range []eventbus.Topic{
		eventbus.TopicTurnStarted,
		eventbus.TopicTurnFinished,
		eventbus.TopicProgress,
		eventbus.TopicConfirmationRequest,
		eventbus.TopicError,
		eventbus.TopicStatusChange,
	} {
		topic := topic
		bus.Subscribe(topic, func(e eventbus.Event) {
			runtime.EventsEmit(ctx, string(e.Topic), e.Payload)
		})
	}
}
