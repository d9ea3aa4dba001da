package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/pkg/metrics"
)

// LocationSocketHandler streams a trip's live location to a rider. The
// current position is sent first, then every newer update; a message with
// a null location means the driver stopped sharing. Client messages are
// read only to detect disconnects.
func LocationSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			_ = c.SetWriteDeadline(time.Now().Add(10 * time.Second))
			return c.WriteMessage(websocket.TextMessage, data)
		}

		tripID, err := paramUUID("id", c.Params("id"))
		if err != nil {
			_ = writeJSON(map[string]string{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		log := slog.Default().With("trip_id", tripID, "remote", c.RemoteAddr().String())

		sub, err := deps.Realtime.WatchTrip(ctx, tripID, func(u *domain.LocationUpdate) {
			if err := writeJSON(u); err != nil {
				log.Debug("ws write failed", "error", err)
				return
			}
			metrics.LocationUpdates.Inc()
		})
		if err != nil {
			msg := "could not watch trip"
			if domain.IsNotFound(err) {
				msg = err.Error()
			} else {
				log.Error("watch trip", "error", err)
			}
			_ = writeJSON(map[string]string{"error": msg})
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		log.Info("ws watcher connected")

		// keep-alive
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		log.Info("ws watcher disconnected")
	}
}
