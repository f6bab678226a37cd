package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"hms/backoffice/internal/config"
	"hms/backoffice/internal/httpapi"
	"hms/backoffice/internal/hub"
	"hms/backoffice/internal/sequence"
	"hms/backoffice/internal/store/postgres"
	"hms/backoffice/internal/telemetry"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type eventEnvelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("backoffice")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	loc, err := time.LoadLocation(cfg.FacilityTimezone)
	if err != nil {
		log.Fatalf("invalid FACILITY_TIMEZONE %q: %v", cfg.FacilityTimezone, err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	issuer := sequence.NewIssuer(postgres.NewCounters(pool), sequence.Options{
		RetryLimit: cfg.IssueRetryLimit,
	})
	dataStore := postgres.NewStore(pool, issuer, postgres.Options{
		Timezone:      loc,
		PatientNumber: postgres.NumberSpec{Prefix: cfg.PatientPrefix, Pad: cfg.PatientPad},
		StaffNumber:   postgres.NumberSpec{Prefix: cfg.StaffPrefix, Pad: cfg.StaffPad},
		QueueTicket:   postgres.NumberSpec{Prefix: cfg.QueuePrefix, Pad: cfg.QueuePad},
		TxnReference:  postgres.NumberSpec{Prefix: cfg.TxnPrefix, Pad: cfg.TxnPad},
	})

	h := hub.New()
	handler := httpapi.NewHandler(dataStore)
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMin,
		Burst:     cfg.RateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/", handler.Routes())
	sockjsHandler := sockjs.NewHandler("/display", sockjs.DefaultOptions, func(session sockjs.Session) {
		client := &hub.Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
		h.Register(client)
		defer h.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		for {
			msg, err := session.Recv()
			if err != nil {
				return
			}
			parsed, ok := hub.ParseSubscribe([]byte(msg))
			if !ok {
				continue
			}
			if parsed.Action == "unsubscribe" {
				h.UpdateSubscription(client, hub.Subscription{})
				continue
			}
			h.UpdateSubscription(client, hub.Subscription{
				Department: parsed.Department,
				EntryID:    parsed.EntryID,
			})
		}
	})
	mux.Handle("/display/", sockjsHandler)

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(mux)), "backoffice")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("backoffice listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	pollInterval := cfg.EventPollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	after := time.Now().UTC()
	var running int32

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for range ticker.C {
			if !atomic.CompareAndSwapInt32(&running, 0, 1) {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			events, err := dataStore.ListOutboxEvents(ctx, after, cfg.EventBatchSize)
			cancel()
			if err != nil {
				log.Printf("poll outbox error: %v", err)
			}
			for _, event := range events {
				after = event.CreatedAt
				env := eventEnvelope{Type: event.Type, Payload: event.Payload, CreatedAt: event.CreatedAt}
				payload, _ := json.Marshal(env)
				h.Broadcast(payload, extractMeta(event.Payload))
			}
			atomic.StoreInt32(&running, 0)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func extractMeta(payload []byte) hub.Subscription {
	var data map[string]interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		return hub.Subscription{}
	}
	return hub.Subscription{
		Department: str(data["department"]),
		EntryID:    str(data["entry_id"]),
	}
}

func str(value interface{}) string {
	if v, ok := value.(string); ok {
		return v
	}
	return ""
}
