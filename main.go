package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"gobble/server/auth"
	"gobble/server/config"
	"gobble/server/game"
	"gobble/server/ledger"
	"gobble/server/protocol"
	"gobble/server/srv"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func wsHandler(h *srv.Hub, a *auth.Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.ParseToken(auth.TokenFromRequest(r))
		if err != nil || identity == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		codec := protocol.CodecByName(r.URL.Query().Get("codec"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}
		h.HandleConn(conn, identity, codec)
	}
}

func main() {
	cfg := config.Load()

	store, err := ledger.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Fatal("ledger:", err)
	}
	a, err := auth.NewAuth(cfg.DataDir, store)
	if err != nil {
		log.Fatal("auth:", err)
	}

	hub := srv.NewHub()
	engine := game.NewEngine(cfg, hub, store)
	hub.SetEngine(engine)
	engine.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/register", a.HandleRegister)
	mux.HandleFunc("/api/login", a.HandleLogin)
	mux.HandleFunc("/ws", wsHandler(hub, a))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })

	s := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Println("server listening on", cfg.Addr)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = s.Shutdown(ctx)
	engine.Stop()
}
