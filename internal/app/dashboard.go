// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/glove_controller/internal/config"
	"github.com/relabs-tech/glove_controller/internal/imu"
	"github.com/relabs-tech/glove_controller/internal/journal"
	"github.com/relabs-tech/glove_controller/internal/metrics"
	"github.com/relabs-tech/glove_controller/internal/mqttutil"
	"github.com/relabs-tech/glove_controller/internal/status"
)

//go:embed web
var webFiles embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is only served on the local network
	},
}

// WSMessage is sent by the browser.
type WSMessage struct {
	Action string `json:"action"` // switch_channel
}

type dashboard struct {
	board    *status.Board
	journal  *journal.Journal // nil when journaling is off
	interval time.Duration
}

func (d *dashboard) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", d.handleStatus)
	mux.HandleFunc("/api/channel", d.handleChannel)
	mux.HandleFunc("/api/events", d.handleEvents)
	mux.HandleFunc("/ws", d.handleWS)
	mux.Handle("/metrics", metrics.Handler())

	static, err := fs.Sub(webFiles, "web")
	if err != nil {
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(static)))
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("dashboard: json encode error: %v", err)
	}
}

func (d *dashboard) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, d.board.View())
}

func (d *dashboard) handleChannel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ch := d.board.SwitchChannel()
	log.Printf("dashboard: channel switched to %d", ch)
	writeJSON(w, d.board.View())
}

func (d *dashboard) handleEvents(w http.ResponseWriter, r *http.Request) {
	if d.journal == nil {
		http.Error(w, "journal disabled", http.StatusNotFound)
		return
	}
	n := 20
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 1000 {
			http.Error(w, "n must be 1-1000", http.StatusBadRequest)
			return
		}
		n = v
	}
	entries, err := d.journal.Recent(r.Context(), n)
	if err != nil {
		log.Printf("dashboard: %v", err)
		http.Error(w, "journal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, entries)
}

// handleWS streams the board view every interval and applies channel
// switches sent by the page.
func (d *dashboard) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Reader goroutine: gorilla allows one concurrent reader and one
	// concurrent writer, so switches only touch the board here.
	closed := make(chan struct{})
	switched := make(chan struct{}, 1)
	go func() {
		defer close(closed)
		for {
			var msg WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("dashboard: websocket error: %v", err)
				}
				return
			}
			switch msg.Action {
			case "switch_channel":
				log.Printf("dashboard: channel switched to %d", d.board.SwitchChannel())
				select {
				case switched <- struct{}{}:
				default:
				}
			default:
				log.Printf("dashboard: unknown websocket action %q", msg.Action)
			}
		}
	}()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	send := func() bool {
		if err := conn.WriteJSON(d.board.View()); err != nil {
			log.Printf("dashboard: websocket write error: %v", err)
			return false
		}
		return true
	}
	if !send() {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-switched:
			if !send() {
				return
			}
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}

func (d *dashboard) onClick(payload []byte) {
	metrics.DashboardMessages.WithLabelValues("click").Inc()
	d.board.SetClick(string(payload))
}

func (d *dashboard) onMotion(payload []byte) {
	metrics.DashboardMessages.WithLabelValues("motion").Inc()
	log.Printf("dashboard: motion state %s", payload)
	d.board.SetMotion(string(payload))
}

func (d *dashboard) onSample(payload []byte) {
	metrics.DashboardMessages.WithLabelValues("imu").Inc()
	if s, err := imu.DecodeSample(payload); err == nil {
		d.board.SetSample(s)
	}
}

// RunDashboard serves the status dashboard, keeps it fed from the click,
// motion and IMU topics, and publishes the GUI state on TOPIC_GUI.
func RunDashboard(ctx context.Context) error {
	cfg := config.Get()
	interval := time.Duration(cfg.GUIPublishInterval) * time.Millisecond

	d := &dashboard{board: status.NewBoard(), interval: interval}

	if cfg.JournalDBPath != "" {
		j, err := journal.Open(cfg.JournalDBPath)
		if err != nil {
			return err
		}
		defer j.Close()
		d.journal = j
	}

	client, err := mqttutil.Connect(ctx, mqttutil.Options{
		Broker:   cfg.MQTTBroker,
		Fallback: cfg.MQTTBrokerFallback,
		ClientID: cfg.MQTTClientIDWeb,
		Subscriptions: []mqttutil.Subscription{
			{Topic: cfg.TopicClick, Handler: func(_ mqtt.Client, msg mqtt.Message) { d.onClick(msg.Payload()) }},
			{Topic: cfg.TopicMotion, Handler: func(_ mqtt.Client, msg mqtt.Message) { d.onMotion(msg.Payload()) }},
			{Topic: cfg.TopicIMU, Handler: func(_ mqtt.Client, msg mqtt.Message) { d.onSample(msg.Payload()) }},
		},
	})
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: d.routes(),
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("dashboard: web server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			log.Println("dashboard: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case <-ticker.C:
			if err := mqttutil.PublishJSON(client, cfg.TopicGUI, false, d.board.GUIState()); err != nil {
				log.Printf("dashboard: %v", err)
			}
		}
	}
}
