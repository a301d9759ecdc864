package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/weather-sync/internal/stream"
	"github.com/i474232898/weather-sync/internal/weather"
)

// heartbeat keeps idle streams alive and surfaces dead clients, which are
// only noticed on a failed write.
const heartbeat = 15 * time.Second

func setEventStreamHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
}

func writeEvent(w *bufio.Writer, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", uuid.NewString(), event, b); err != nil {
		return err
	}
	return w.Flush()
}

func writePing(w *bufio.Writer) error {
	if _, err := w.WriteString(": ping\n\n"); err != nil {
		return err
	}
	return w.Flush()
}

// streamEvents relays every value of sub as an SSE event until the client
// goes away or sub ends. A storage error is sent as a final "error" event.
func streamEvents(c *fiber.Ctx, logger *slog.Logger, event string, sub *stream.Subscription[any]) error {
	setEventStreamHeaders(c)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case v, ok := <-sub.C():
				if !ok {
					if err := sub.Err(); err != nil {
						logger.Error("observe stream failed", "event", event, "error", err)
						_ = writeEvent(w, "error", fiber.Map{"message": err.Error()})
					}
					return
				}
				if err := writeEvent(w, event, v); err != nil {
					logger.Debug("stream client gone", "event", event, "error", err)
					return
				}
			case <-ticker.C:
				if err := writePing(w); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

// streamSync sends each state of s as an SSE event named after its status and
// ends the response after the terminal state.
func streamSync(ctx context.Context, c *fiber.Ctx, logger *slog.Logger, s *weather.Sync, unit weather.Unit) error {
	setEventStreamHeaders(c)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		for res := range s.Subscribe(ctx) {
			if err := writeEvent(w, string(res.Status), newSyncResponse(s.ID(), res, unit)); err != nil {
				// The sync itself keeps running; only delivery stops.
				logger.Debug("sync stream client gone", "sync_id", s.ID(), "error", err)
				return
			}
		}

		if _, err := s.Wait(ctx); err != nil && ctx.Err() == nil {
			_ = writeEvent(w, "error", fiber.Map{
				"syncId":  s.ID(),
				"message": "failed to store synced weather",
			})
		}
	}))
	return nil
}
