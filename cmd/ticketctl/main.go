package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/spectacole/ticketctl/internal/cache"
	"github.com/spectacole/ticketctl/internal/config"
	"github.com/spectacole/ticketctl/internal/database"
	"github.com/spectacole/ticketctl/internal/logger"
	"github.com/spectacole/ticketctl/internal/model"
	"github.com/spectacole/ticketctl/internal/queue"
	"github.com/spectacole/ticketctl/internal/repository"
	"github.com/spectacole/ticketctl/internal/ticket"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// app bundles everything a command action needs. Exit codes follow
// the tool's contract: 0 on success, 1 on any failure or
// invalid-credential condition.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	store  *repository.Store
	schema *database.SchemaManager
	events *cache.Events
}

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	a := &app{
		cfg:    cfg,
		log:    log,
		store:  repository.NewStore(db, log, ticket.NewPDFIssuer(cfg.TicketDir, log)),
		schema: database.NewSchemaManager(db, log),
		events: cache.NewEvents(config.NewRedisClient(), log, cfg.CachePrefix, cfg.CacheTTL),
	}

	cliApp := &cli.App{
		Name:  "ticketctl",
		Usage: "register, browse events, reserve seats and cancel reservations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "your email"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "your password"},
		},
		Commands: []*cli.Command{
			{
				Name:   "register",
				Usage:  "register the given email and password",
				Action: a.register,
			},
			{
				Name:   "view",
				Usage:  "view all available events",
				Action: a.view,
			},
			{
				Name:  "reserve",
				Usage: "make a reservation for a given event",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "event", Aliases: []string{"e"}, Usage: "event id (see `view`)"},
					&cli.IntFlag{Name: "seats", Aliases: []string{"s"}, Value: 1, Usage: "number of seats"},
				},
				Action: a.reserve,
			},
			{
				Name:  "cancel",
				Usage: "cancel the reservation with the given barcode",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "barcode", Aliases: []string{"b"}, Usage: "barcode of the reservation"},
				},
				Action: a.cancel,
			},
			{
				Name:   "info",
				Usage:  "list the information for your user",
				Action: a.info,
			},
			{
				Name:   "setup",
				Usage:  "create the schema and seed the event catalog",
				Action: a.setup,
			},
			{
				Name:   "reset",
				Usage:  "drop the schema (environment reset)",
				Action: a.reset,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

// credential validates the user/password flags and builds the
// credential. The raw password is hashed here and not kept around.
func (a *app) credential(c *cli.Context) (model.Credential, error) {
	email := c.String("user")
	password := c.String("password")
	if email == "" || password == "" {
		return model.Credential{}, cli.Exit("both --user and --password are required", 1)
	}
	if !emailPattern.MatchString(email) {
		return model.Credential{}, cli.Exit(fmt.Sprintf("%s is not a valid email", email), 1)
	}
	return model.NewCredential(email, password), nil
}

// authenticated resolves and checks the credential. Invalid
// credentials fail closed with exit code 1, whether the account is
// missing or the password is wrong.
func (a *app) authenticated(c *cli.Context) (model.Credential, error) {
	cred, err := a.credential(c)
	if err != nil {
		return model.Credential{}, err
	}
	if !a.store.Authenticate(c.Context, cred) {
		return model.Credential{}, cli.Exit("invalid credentials; check them or register first", 1)
	}
	return cred, nil
}

func (a *app) register(c *cli.Context) error {
	cred, err := a.credential(c)
	if err != nil {
		return err
	}
	if err := a.store.Register(c.Context, cred); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return cli.Exit("registration failed: account already exists", 1)
		}
		return cli.Exit("registration failed", 1)
	}
	a.log.Info("successfully registered", zap.String("email", cred.Email()))
	return nil
}

func (a *app) view(c *cli.Context) error {
	if _, err := a.authenticated(c); err != nil {
		return err
	}
	events, ok := a.events.Get(c.Context)
	if !ok {
		var err error
		events, err = a.store.OfferableEvents(c.Context)
		if err != nil {
			return cli.Exit("could not list events", 1)
		}
		a.events.Set(c.Context, events)
	}
	if len(events) == 0 {
		a.log.Info("no events available to display")
		return nil
	}
	for _, ev := range events {
		fmt.Printf("\nIdentifier: %d\nEvent name: %s\nDate: %s\nPrice: %.2f RON\nSeats available: %d\n",
			ev.ID, ev.Name, ticket.EventDateString(ev.Date), ev.Price, ev.SeatsAvailable)
	}
	return nil
}

func (a *app) reserve(c *cli.Context) error {
	cred, err := a.authenticated(c)
	if err != nil {
		return err
	}
	eventID := c.Uint64("event")
	if eventID == 0 {
		return cli.Exit("an event must be given: --event X, X being an id found via `view`", 1)
	}
	seats := c.Int("seats")

	ev, barcodes, err := a.store.Reserve(c.Context, cred, eventID, seats)
	switch {
	case errors.Is(err, repository.ErrInvalidSeatCount):
		return cli.Exit("invalid number of seats requested", 1)
	case errors.Is(err, repository.ErrNoAvailability):
		return cli.Exit("no reservation can be made: not enough seats or no such upcoming event", 1)
	case err != nil:
		return cli.Exit("could not make the reservation", 1)
	}

	a.events.Invalidate(c.Context)
	a.publishConfirmation(c.Context, cred, ev, barcodes)
	a.log.Info("successfully made a reservation",
		zap.String("event", ev.Name), zap.Int64s("barcodes", barcodes))
	return nil
}

// publishConfirmation notifies the broker about a committed
// reservation. Fire-and-forget: failures are logged and the
// reservation stands.
func (a *app) publishConfirmation(ctx context.Context, cred model.Credential, ev model.Event, barcodes []int64) {
	if a.cfg.RabbitURL == "" {
		return
	}
	event := queue.ReservationConfirmedEvent{
		Email:       cred.Email(),
		EventID:     ev.ID,
		EventName:   ev.Name,
		EventDate:   ev.Date,
		Price:       ev.Price,
		Barcodes:    barcodes,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue.PublishReservationConfirmed(ctx, a.cfg.RabbitURL, event); err != nil {
		a.log.Warn("reservation confirmation publish failed", zap.Error(err))
	}
}

func (a *app) cancel(c *cli.Context) error {
	cred, err := a.authenticated(c)
	if err != nil {
		return err
	}
	barcode := c.Int64("barcode")
	if barcode <= 0 {
		return cli.Exit("no barcode provided", 1)
	}
	if err := a.store.Cancel(c.Context, cred, barcode); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return cli.Exit("there is no reservation with that barcode for your account", 1)
		}
		return cli.Exit("could not make the cancellation", 1)
	}
	a.events.Invalidate(c.Context)
	a.log.Info("successfully cancelled the reservation", zap.Int64("barcode", barcode))
	return nil
}

func (a *app) info(c *cli.Context) error {
	cred, err := a.authenticated(c)
	if err != nil {
		return err
	}
	view, err := a.store.UserInfo(c.Context, cred)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return cli.Exit("invalid credentials; check them or register first", 1)
		}
		return cli.Exit("could not fetch user information", 1)
	}
	fmt.Printf("\nEmail: %s\nPassword: %s\n", view.Email, view.PasswordHash)
	if view.Reservations == nil {
		fmt.Println("Reservations: there are no reservations for the user.")
		return nil
	}
	fmt.Println("Reservations:")
	for _, r := range view.Reservations {
		fmt.Printf("\tEvent name: %s\n\tDate: %s\n\tBarcode: %d\n\n",
			r.EventName, ticket.EventDateString(r.EventDate), r.Barcode)
	}
	return nil
}

func (a *app) setup(c *cli.Context) error {
	if err := a.schema.CreateSchema(c.Context); err != nil {
		return cli.Exit("schema creation failed", 1)
	}
	f, err := os.Open(a.cfg.CatalogPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("could not open catalog %s", a.cfg.CatalogPath), 1)
	}
	defer f.Close()
	if err := a.schema.SeedEvents(c.Context, f); err != nil {
		if errors.Is(err, database.ErrDuplicateName) {
			return cli.Exit("catalog seeding failed: duplicate event name", 1)
		}
		return cli.Exit("catalog seeding failed", 1)
	}
	a.log.Info("schema created and catalog seeded")
	return nil
}

func (a *app) reset(c *cli.Context) error {
	if err := a.schema.DropSchema(c.Context); err != nil {
		return cli.Exit("schema drop failed", 1)
	}
	a.log.Info("schema dropped")
	return nil
}
