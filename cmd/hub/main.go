package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/ddnowicki/live-captioning/config"
	"github.com/ddnowicki/live-captioning/hub"
)

func main() {
	cfg := config.Load()
	if err := cfg.ValidateHub(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := hub.NewHub()
	go h.Run(ctx)

	session, err := hub.NewSession(h, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer session.Shutdown()

	app := fiber.New()

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ready": session.Ready()})
	})

	// Middleware to require WebSocket upgrade on /stream
	app.Use("/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/stream", websocket.New(func(ws *websocket.Conn) {
		defer ws.Close()
		h.HandleConn(ws, session)
	}))

	log.Printf("hub listening on %s", cfg.Addr)
	log.Fatal(app.Listen(cfg.Addr))
}
