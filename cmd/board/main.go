// The board binary runs one pickup-counter display session: it keeps a
// local projection of the active orders in sync with the backend and prints
// it whenever it changes. Set DEMO=1 to run the canned two-order script
// without any backend.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/notivlaai-service/internal/adapter/demo"
	"github.com/example/notivlaai-service/internal/adapter/gateway"
	"github.com/example/notivlaai-service/internal/adapter/wsclient"
	"github.com/example/notivlaai-service/internal/domain"
	"github.com/example/notivlaai-service/internal/lifecycle"
	"github.com/example/notivlaai-service/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.NewOrderStore()

	var (
		channel domain.FrameChannel
		gw      domain.CommandGateway
	)
	if os.Getenv("DEMO") != "" {
		started := false
		channel = demo.NewGenerator(&started)
		gw = gateway.AlwaysOK{}
		log.Printf("running in demo mode")
	} else {
		channel = wsclient.NewChannel(getEnv("NOTIVLAAI_WS_URL", "ws://localhost:8080/ws"))
		gw = gateway.NewHTTPGateway(getEnv("NOTIVLAAI_API_URL", "http://localhost:8080"))
	}

	policy := lifecycle.NoRetry()
	if os.Getenv("RECONNECT") != "" {
		policy = lifecycle.ExponentialBackoff(time.Second, 30*time.Second)
	}

	controller := lifecycle.NewController(st, channel, gw, policy)

	unsubscribe := st.Subscribe(func() { render(st) })
	defer unsubscribe()

	if err := controller.Connect(ctx); err != nil {
		log.Fatalf("connect: %v", err)
	}
	log.Printf("session %s", controller.State())

	<-ctx.Done()
}

func render(st *store.OrderStore) {
	orders := st.Orders()
	var b strings.Builder
	fmt.Fprintf(&b, "---- %d order(s) on the board ----\n", len(orders))
	for _, o := range orders {
		fmt.Fprintf(&b, "#%d %s [%s]", o.ID, o.CustomerName, o.Status())
		for _, row := range o.Rows {
			fmt.Fprintf(&b, " %dx %s", row.Amount, row.Vlaai)
		}
		b.WriteByte('\n')
	}
	os.Stdout.WriteString(b.String())
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
