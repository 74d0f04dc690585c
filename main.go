package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chessmech/boardlink/api"
	"github.com/chessmech/boardlink/internal/boardsim"
	"github.com/chessmech/boardlink/internal/gamelog"
	"github.com/chessmech/boardlink/internal/serialmux"
	"github.com/chessmech/boardlink/internal/session"
	"github.com/chessmech/boardlink/internal/version"
	"github.com/chessmech/boardlink/internal/wire"
)

var (
	devMode    = flag.Bool("dev", false, "Run against a simulated board instead of a serial port")
	listen     = flag.String("listen", ":8080", "Listen address")
	serialPort = flag.String("serial", "/dev/ttyACM0", "Serial device path; empty runs with the link disabled")
	dbFile     = flag.String("db", "gamelog.db", "Game log database path")
	matrixPort = flag.String("matrix-port", "A0", "Controller port carrying the sensor matrix")
	pollEvery  = flag.Duration("poll", session.DefaultPollInterval, "Matrix poll interval")
)

func openLink() serialmux.Link {
	if *devMode {
		log.Print("dev mode: using simulated board")
		return boardsim.NewLink(*matrixPort)
	}
	if *serialPort == "" {
		log.Print("no serial port configured; running with link disabled")
		return serialmux.NewDisabledBridge()
	}
	link, err := serialmux.NewRealBridge(*serialPort, serialmux.PortOptions{})
	if err != nil {
		log.Fatalf("failed to open serial port %s: %v", *serialPort, err)
	}
	return link
}

func main() {
	flag.Parse()
	log.Printf("boardlink %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	port, err := wire.ParsePort(*matrixPort)
	if err != nil {
		log.Fatalf("bad matrix port %q: %v", *matrixPort, err)
	}

	link := openLink()
	defer link.Close()

	db, err := gamelog.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A disabled link cannot host a session; the HTTP API still serves the
	// recorded game history.
	sess, err := session.New(session.Config{
		Link:         link,
		MatrixPort:   port,
		Log:          db,
		PollInterval: *pollEvery,
	})
	if err != nil {
		log.Printf("no live session: %v", err)
		sess = nil
	}

	if sess != nil {
		// run the poll loop that owns the serial link
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sess.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("session stopped: %v", err)
			}
			log.Print("session routine terminated")
		}()

		// drain inferred moves so a slow or absent API consumer never
		// backs up the poll loop
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case cand := <-sess.Moves():
					log.Printf("inferred move: %s", cand.UCI())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(link, db, sess).ServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		db.AttachAdminRoutes(mux)
		if b, ok := link.(*serialmux.Bridge); ok {
			b.AttachAdminRoutes(mux)
		}

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
