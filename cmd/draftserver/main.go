// Command draftserver is the process entrypoint: it loads the card
// catalog, wires the Registry/Gateway/httpapi trio together, and serves
// websocket draft connections until SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"io/ioutil"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/TheBarnacle/MTGADraft/catalog"
	"github.com/TheBarnacle/MTGADraft/draftlog"
	"github.com/TheBarnacle/MTGADraft/gateway"
	"github.com/TheBarnacle/MTGADraft/httpapi"
	"github.com/TheBarnacle/MTGADraft/registry"
	"github.com/TheBarnacle/MTGADraft/session"
	"github.com/TheBarnacle/MTGADraft/transport"
)

var zlog = zerolog.New(zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.Stamp,
}).With().Timestamp().Logger()

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

var (
	listenAddr    = flag.String("listen", ":8080", "address to serve websocket and debug HTTP traffic on")
	catalogPath   = flag.String("catalog", "catalog.json", "path to the card catalog JSON file")
	redisAddr     = flag.String("redis", "", "redis address for cross-instance public session sync (empty disables it)")
	natsURL       = flag.String("nats", "", "NATS Streaming URL for draft log publishing (empty disables it)")
	natsClusterID = flag.String("nats-cluster", "draftserver", "NATS Streaming cluster id")
	debugSecret   = flag.String("debug-secret", "", "bearer secret gating /debug routes (empty disables them)")
	useMsgpack    = flag.Bool("msgpack", false, "use the msgpack wire codec instead of JSON")
	zstdLevel     = flag.Int("zstd-level", 0, "zstd compression level for outbound frames (0 disables compression)")
)

func main() {
	flag.Parse()

	catalogData, err := ioutil.ReadFile(*catalogPath)
	if err != nil {
		zlog.Fatal().Err(err).Str("path", *catalogPath).Msg("could not read catalog")
	}
	cat, err := catalog.Load(catalogData)
	if err != nil {
		zlog.Fatal().Err(err).Msg("could not load catalog")
	}

	var redisClient *redis.Client
	if *redisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: *redisAddr})
	}

	var publisher *draftlog.NATSPublisher
	if *natsURL != "" {
		publisher, err = draftlog.Connect(*natsClusterID, "draftserver", *natsURL, "draftlogs", zlog)
		if err != nil {
			zlog.Fatal().Err(err).Msg("could not connect to NATS for draft log publishing")
		}
		defer publisher.Close()
	}

	var codec gateway.Codec = gateway.JSONCodec{}
	if *useMsgpack {
		codec = gateway.MsgpackCodec{}
	}

	gw := gateway.New(codec, zlog)

	var pub session.Publisher
	if publisher != nil {
		pub = publisher
	}
	reg := registry.New(cat, gw, pub, redisClient, zlog)
	gw.AttachRegistry(reg)

	var compressor transport.Compressor
	if *zstdLevel > 0 {
		compressor = transport.NewZstdCompressor(*zstdLevel)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.Handle("/", httpapi.New(reg, *debugSecret, zlog).Handler())
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			zlog.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}
		c := transport.NewConnection(conn, compressor, zlog)
		go gw.Serve(r.Context(), c)
	})

	server := &http.Server{Addr: *listenAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("http server failed")
		}
	}()
	zlog.Info().Str("addr", *listenAddr).Msg("draftserver listening, do ^C to stop")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt, os.Kill)
	<-sc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
	zlog.Info().Msg("draftserver stopped")
}
