package main

import (
	"log"

	"github.com/futig/template-chat/internal/builder"
)

func main() {
	app, err := builder.Build()
	if err != nil {
		log.Fatalf("template-chat: build application: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("template-chat: %v", err)
	}
}
