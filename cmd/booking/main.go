package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/justinhsu1477/Pet-sub000/internal/repository"
	"github.com/justinhsu1477/Pet-sub000/internal/service"
	"github.com/justinhsu1477/Pet-sub000/pkg/db"
	"github.com/justinhsu1477/Pet-sub000/pkg/mq"
	"github.com/justinhsu1477/Pet-sub000/pkg/obs"
)

type Cfg struct {
	PGBookingDSN string `envconfig:"PG_BOOKING_DSN" required:"true"`

	// RabbitMQ for publishing booking/rating lifecycle events
	RabbitURL       string `envconfig:"RABBIT_URL" required:"true"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`

	// Upper bound on row-lock waits (create path, pessimistic transitions)
	LockTimeout time.Duration `envconfig:"LOCK_TIMEOUT" default:"5s"`

	// PENDING bookings whose window started get swept to EXPIRED
	ExpireInterval time.Duration `envconfig:"EXPIRE_INTERVAL" default:"1m"`

	// Rebuild denormalized sitter counters from source tables at boot
	ReconcileOnStart bool `envconfig:"RECONCILE_ON_START" default:"false"`
}

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	var cfg Cfg
	must(0, envconfig.Process("", &cfg))

	shutdownTracer := obs.InitTracer("booking-core")

	// DB
	gdb := db.Open(cfg.PGBookingDSN)
	bookings := repository.NewBookingRepo(gdb)
	sitters := repository.NewSitterRepo(gdb)
	ratings := repository.NewRatingRepo(gdb)
	pets := repository.NewPetRepo(gdb)
	must(0, sitters.Migrate())
	must(0, pets.Migrate())
	must(0, bookings.Migrate())
	must(0, ratings.Migrate())

	// Publisher for booking.* / rating.* events
	pub := must(mq.NewPublisher(cfg.RabbitURL, cfg.BookingExchange))
	defer pub.Close()

	bookingSvc := service.NewBookingSvc(bookings, sitters, pets, pub, cfg.LockTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.ReconcileOnStart {
		n := must(sitters.ReconcileAll(ctx))
		log.Printf("[booking] reconciled %d sitter aggregates", n)
	}

	go bookingSvc.SweepLoop(ctx, cfg.ExpireInterval)
	log.Printf("[booking] expiry sweeper running every %s", cfg.ExpireInterval)

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	cancel()
	_ = shutdownTracer(context.Background())
	log.Println("[booking] stopped")
}
