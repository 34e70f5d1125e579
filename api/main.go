package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const version = "1.0.0"

type application struct {
	config config
	users  userStore
	tasks  taskStore
	tokens *tokenService
	mailer mailSender
	wg     sync.WaitGroup
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	loadDotenv()
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	log.Printf("established a connection with %s database", cfg.db.driver)

	store := newStorage(db, cfg.db.driver)
	err = store.migrate(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	app := &application{
		config: cfg,
		users:  store,
		tasks:  store,
		tokens: newTokenService(cfg.jwt.secret, cfg.jwt.ttl),
	}
	if cfg.smtp.host != "" {
		app.mailer = newMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender)
	}

	err = app.serve()
	if err != nil {
		log.Fatal(err)
	}
}

// serve runs the HTTP server until SIGINT or SIGTERM, then drains in-flight
// requests and background mail.
func (app *application) serve() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.port),
		Handler:      composeRoutes(app),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	shutdownErr := make(chan error)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		log.Printf("caught signal %s, shutting down", s)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownErr <- err
			return
		}
		app.wg.Wait()
		shutdownErr <- nil
	}()

	log.Printf("Starting %s server on port %d\n", app.config.env, app.config.port)
	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	err = <-shutdownErr
	if err != nil {
		return err
	}
	log.Println("stopped server")
	return nil
}
