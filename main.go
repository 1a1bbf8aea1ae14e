package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pdfsync-server/core"
	"pdfsync-server/handlers/api/uploads"
	"pdfsync-server/handlers/websocket"
	"pdfsync-server/rooms"
	"pdfsync-server/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type roomSummary struct {
	ID          string `json:"id"`
	Users       int    `json:"users"`
	CurrentPage int    `json:"currentPage"`
	HasDocument bool   `json:"hasDocument"`
	LastActive  int64  `json:"lastActive,omitempty"`
}

func setupRouter(documentStore core.DocumentStore, registry *rooms.Registry, notifier core.RoomNotifier) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/upload", uploads.HandleUpload(documentStore, registry, notifier))
	r.Route("/uploads/{id}", func(r chi.Router) {
		r.Get("/", uploads.HandleGet(documentStore))
	})

	r.Get("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		list := registry.List()
		summaries := make([]roomSummary, 0, len(list))
		for _, room := range list {
			summaries = append(summaries, roomSummary{
				ID:          room.ID,
				Users:       room.Users,
				CurrentPage: room.CurrentPage,
				HasDocument: room.DocumentURL != "",
				LastActive:  room.LastActive,
			})
		}
		render.JSON(w, r, summaries)
	})

	return r
}

func waitForShutdown(ioo *socketio.Server) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	ioo.Close(nil)
	os.Exit(0)
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	logLevel := flag.String("loglevel", "info", "Set the logging level: debug, info, warn, error, fatal, panic")
	listenAddr := flag.String("listen", ":8082", "Set the server listen address")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	documentStore := stores.GetStore()
	registry := rooms.NewRegistry()

	ioo, notifier := websocket.SetupSocketIO(registry)

	r := setupRouter(documentStore, registry, notifier)
	r.Handle("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", *listenAddr).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddr, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo)
}
