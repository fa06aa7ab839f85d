package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/spectacole/ticketctl/internal/model"
	"github.com/spectacole/ticketctl/internal/ticket"
)

// Store is the reservation store. It owns one database handle and
// opens one transactional scope per mutating call; there is no
// ambient connection or logger state. The availability check, the
// barcode disjointness check and the row mutations of a reservation
// all happen inside a single transaction with the event row locked,
// so two concurrent invocations can neither oversell seats nor claim
// the same barcode.
type Store struct {
	db     *sql.DB
	log    *zap.Logger
	rng    *rand.Rand
	issuer ticket.Issuer
	now    func() time.Time
}

// NewStore returns a Store bound to the given database. issuer may
// be nil, in which case no reservation documents are produced.
func NewStore(db *sql.DB, log *zap.Logger, issuer ticket.Issuer) *Store {
	return &Store{
		db:     db,
		log:    log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		issuer: issuer,
		now:    time.Now,
	}
}

const (
	authQuery           = "SELECT email FROM accounts WHERE email=? AND password_hash=? LIMIT 1"
	accountIDQuery      = "SELECT id FROM accounts WHERE email=? AND password_hash=? LIMIT 1"
	accountQuery        = "SELECT id, email, password_hash, is_admin FROM accounts WHERE email=? AND password_hash=? LIMIT 1"
	emailExistsQuery    = "SELECT email FROM accounts WHERE email=? LIMIT 1"
	insertAccountQuery  = "INSERT INTO accounts (email, password_hash, is_admin) VALUES (?, ?, 0)"
	offerableQuery      = "SELECT id, name, date, price, seats_available FROM events WHERE date>? AND seats_available>0 ORDER BY date"
	lockEventQuery      = "SELECT id, name, date, price, seats_available FROM events WHERE id=? AND seats_available>=? AND date>? FOR UPDATE"
	accountResQuery     = "SELECT event_id, barcode FROM reservations WHERE account_id=?"
	decrementSeatsQuery = "UPDATE events SET seats_available = seats_available - ? WHERE id=?"
	lockResQuery        = "SELECT event_id FROM reservations WHERE account_id=? AND barcode=? FOR UPDATE"
	deleteResQuery      = "DELETE FROM reservations WHERE account_id=? AND barcode=?"
	incrementSeatsQuery = "UPDATE events SET seats_available = seats_available + 1 WHERE id=?"
)

// Authenticate reports whether an account exists with exactly this
// email and password digest. It fails closed: any unexpected storage
// fault is logged and treated as an authentication failure, and a
// wrong password is indistinguishable from a missing account.
func (s *Store) Authenticate(ctx context.Context, cred model.Credential) bool {
	var email string
	err := s.db.QueryRowContext(ctx, authQuery, cred.Email(), cred.Digest()).Scan(&email)
	switch {
	case err == nil:
		return true
	case errors.Is(err, sql.ErrNoRows):
		return false
	default:
		s.log.Error("account lookup failed", zap.String("email", cred.Email()), zap.Error(err))
		return false
	}
}

// querier covers *sql.DB and *sql.Tx for single-row lookups.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// accountID resolves the credential to an account id. sql.ErrNoRows
// means the email/digest pair does not match any account.
func (s *Store) accountID(ctx context.Context, q querier, cred model.Credential) (uint64, error) {
	var id uint64
	err := q.QueryRowContext(ctx, accountIDQuery, cred.Email(), cred.Digest()).Scan(&id)
	return id, err
}

// Register creates a new non-admin account. Existence is pre-checked
// so the common collision is reported without touching the unique
// constraint; the constraint remains the authoritative guard and a
// duplicate-key race maps to ErrAlreadyExists as well.
func (s *Store) Register(ctx context.Context, cred model.Credential) error {
	var existing string
	err := s.db.QueryRowContext(ctx, emailExistsQuery, cred.Email()).Scan(&existing)
	if err == nil {
		return ErrAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.log.Error("account existence check failed", zap.String("email", cred.Email()), zap.Error(err))
		return fmt.Errorf("check account: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, insertAccountQuery, cred.Email(), cred.Digest()); err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyExists
		}
		s.log.Error("account insert failed", zap.String("email", cred.Email()), zap.Error(err))
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// OfferableEvents returns all events that are still bookable: a
// strictly future date and at least one available seat. An empty
// slice is a valid result, not an error.
func (s *Store) OfferableEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, offerableQuery, s.nowUnix())
	if err != nil {
		s.log.Error("event listing failed", zap.Error(err))
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.Date, &ev.Price, &ev.SeatsAvailable); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		s.log.Error("event listing failed", zap.Error(err))
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// UserInfo returns the account view for the given credential: email,
// password digest and the account's reservations joined against the
// event table with one batched IN lookup. ErrNotFound is returned
// when the credential does not resolve. UserView.Reservations stays
// nil when the account has no reservations.
func (s *Store) UserInfo(ctx context.Context, cred model.Credential) (model.UserView, error) {
	var acct model.Account
	err := s.db.QueryRowContext(ctx, accountQuery, cred.Email(), cred.Digest()).
		Scan(&acct.ID, &acct.Email, &acct.PasswordHash, &acct.IsAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserView{}, ErrNotFound
	}
	if err != nil {
		s.log.Error("account lookup failed", zap.String("email", cred.Email()), zap.Error(err))
		return model.UserView{}, fmt.Errorf("resolve account: %w", err)
	}
	view := model.UserView{Email: acct.Email, PasswordHash: acct.PasswordHash}

	rows, err := s.db.QueryContext(ctx, accountResQuery, acct.ID)
	if err != nil {
		s.log.Error("reservation listing failed", zap.Error(err))
		return model.UserView{}, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		r := model.Reservation{AccountID: acct.ID}
		if err := rows.Scan(&r.EventID, &r.Barcode); err != nil {
			return model.UserView{}, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		s.log.Error("reservation listing failed", zap.Error(err))
		return model.UserView{}, fmt.Errorf("list reservations: %w", err)
	}
	if len(reservations) == 0 {
		return view, nil
	}

	events, err := s.eventsByID(ctx, reservations)
	if err != nil {
		return model.UserView{}, err
	}
	views := make([]model.ReservationView, 0, len(reservations))
	for _, r := range reservations {
		ev, ok := events[r.EventID]
		if !ok {
			// reservation row without its event should not happen
			s.log.Warn("reservation references missing event",
				zap.Uint64("event_id", r.EventID), zap.Int64("barcode", r.Barcode))
			continue
		}
		views = append(views, model.ReservationView{
			EventName: ev.Name,
			EventDate: ev.Date,
			Barcode:   r.Barcode,
		})
	}
	view.Reservations = views
	return view, nil
}

// eventsByID fetches the events referenced by the reservations in a
// single IN query, keyed by event id.
func (s *Store) eventsByID(ctx context.Context, reservations []model.Reservation) (map[uint64]model.Event, error) {
	ids := make([]any, 0, len(reservations))
	seen := make(map[uint64]struct{}, len(reservations))
	for _, r := range reservations {
		if _, ok := seen[r.EventID]; ok {
			continue
		}
		seen[r.EventID] = struct{}{}
		ids = append(ids, r.EventID)
	}
	query := "SELECT id, name, date, price, seats_available FROM events WHERE id IN (" +
		placeholders(len(ids)) + ")"
	rows, err := s.db.QueryContext(ctx, query, ids...)
	if err != nil {
		s.log.Error("event lookup failed", zap.Error(err))
		return nil, fmt.Errorf("lookup events: %w", err)
	}
	defer rows.Close()

	events := make(map[uint64]model.Event, len(ids))
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.Date, &ev.Price, &ev.SeatsAvailable); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events[ev.ID] = ev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lookup events: %w", err)
	}
	return events, nil
}

// Reserve books seats for an offerable event. The whole unit of work
// runs in one transaction: the event row is locked with an
// availability check, barcodes are generated and verified disjoint
// from all persisted barcodes, the reservation rows are inserted and
// the seat count is decremented. Either everything commits or
// nothing does. On success the allocated barcodes are returned and
// one reservation document per barcode is issued; document failures
// are logged but do not undo the reservation. The returned event is
// the pre-decrement snapshot the reservation was made against.
func (s *Store) Reserve(ctx context.Context, cred model.Credential, eventID uint64, seats int) (model.Event, []int64, error) {
	if seats < 1 {
		return model.Event{}, nil, ErrInvalidSeatCount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error("begin reservation transaction failed", zap.Error(err))
		return model.Event{}, nil, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the event row while checking availability. The lock is held
	// until commit, so the check and the decrement are one critical
	// section across invocations.
	var ev model.Event
	err = tx.QueryRowContext(ctx, lockEventQuery, eventID, seats, s.nowUnix()).
		Scan(&ev.ID, &ev.Name, &ev.Date, &ev.Price, &ev.SeatsAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, nil, ErrNoAvailability
	}
	if err != nil {
		s.log.Error("event availability check failed", zap.Uint64("event_id", eventID), zap.Error(err))
		return model.Event{}, nil, fmt.Errorf("check availability: %w", err)
	}

	accountID, err := s.accountID(ctx, tx, cred)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, nil, ErrNotFound
	}
	if err != nil {
		s.log.Error("account lookup failed", zap.String("email", cred.Email()), zap.Error(err))
		return model.Event{}, nil, fmt.Errorf("resolve account: %w", err)
	}

	barcodes, err := s.claimBarcodes(ctx, tx, seats)
	if err != nil {
		s.log.Error("barcode allocation failed", zap.Error(err))
		return model.Event{}, nil, fmt.Errorf("allocate barcodes: %w", err)
	}

	if err := insertReservations(ctx, tx, accountID, ev.ID, barcodes); err != nil {
		s.log.Error("reservation insert failed", zap.Error(err))
		return model.Event{}, nil, fmt.Errorf("insert reservations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, decrementSeatsQuery, seats, ev.ID); err != nil {
		s.log.Error("seat decrement failed", zap.Uint64("event_id", ev.ID), zap.Error(err))
		return model.Event{}, nil, fmt.Errorf("decrement seats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		s.log.Error("reservation commit failed", zap.Error(err))
		return model.Event{}, nil, fmt.Errorf("commit reservation: %w", err)
	}
	committed = true

	s.issueTickets(ctx, ev, cred.Email(), barcodes)
	return ev, barcodes, nil
}

// claimBarcodes generates a batch of distinct barcodes and verifies
// it against all persisted barcodes with one IN query per attempt.
// Any collision discards the whole batch and retries; the batch is
// returned only when fully disjoint. The barcode space is ~90
// million values, so retries are vanishingly rare for realistic seat
// counts.
func (s *Store) claimBarcodes(ctx context.Context, tx *sql.Tx, n int) ([]int64, error) {
	query := "SELECT barcode FROM reservations WHERE barcode IN (" + placeholders(n) + ")"
	for {
		barcodes := generateBarcodes(s.rng, n)
		args := make([]any, n)
		for i, bc := range barcodes {
			args[i] = bc
		}
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		collided := rows.Next()
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
		if !collided {
			return barcodes, nil
		}
	}
}

// insertReservations inserts one row per barcode in a single
// multi-row statement.
func insertReservations(ctx context.Context, tx *sql.Tx, accountID, eventID uint64, barcodes []int64) error {
	query := "INSERT INTO reservations (account_id, event_id, barcode) VALUES "
	args := make([]any, 0, len(barcodes)*3)
	for i, bc := range barcodes {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, accountID, eventID, bc)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// issueTickets emits one reservation document per barcode.
// Fire-and-forget: the reservation is already committed and stands
// regardless of document failures.
func (s *Store) issueTickets(ctx context.Context, ev model.Event, email string, barcodes []int64) {
	if s.issuer == nil {
		return
	}
	for _, bc := range barcodes {
		t := ticket.Ticket{
			EventName: ev.Name,
			Date:      ev.Date,
			Price:     ev.Price,
			Email:     email,
			Barcode:   bc,
		}
		if err := s.issuer.Issue(ctx, t); err != nil {
			s.log.Error("ticket document generation failed", zap.Int64("barcode", bc), zap.Error(err))
		}
	}
}

// Cancel removes one reserved seat identified by barcode and gives
// the seat back to its event, as a single transaction. A barcode the
// calling account does not own is reported as ErrNotFound and
// nothing is mutated.
func (s *Store) Cancel(ctx context.Context, cred model.Credential, barcode int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error("begin cancellation transaction failed", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	accountID, err := s.accountID(ctx, tx, cred)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		s.log.Error("account lookup failed", zap.String("email", cred.Email()), zap.Error(err))
		return fmt.Errorf("resolve account: %w", err)
	}

	var eventID uint64
	err = tx.QueryRowContext(ctx, lockResQuery, accountID, barcode).Scan(&eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		s.log.Error("reservation lookup failed", zap.Int64("barcode", barcode), zap.Error(err))
		return fmt.Errorf("lookup reservation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, deleteResQuery, accountID, barcode); err != nil {
		s.log.Error("reservation delete failed", zap.Int64("barcode", barcode), zap.Error(err))
		return fmt.Errorf("delete reservation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, incrementSeatsQuery, eventID); err != nil {
		s.log.Error("seat increment failed", zap.Uint64("event_id", eventID), zap.Error(err))
		return fmt.Errorf("increment seats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		s.log.Error("cancellation commit failed", zap.Error(err))
		return fmt.Errorf("commit cancellation: %w", err)
	}
	committed = true
	return nil
}

// nowUnix returns the current time as the unix value stored in the
// events.date column.
func (s *Store) nowUnix() float64 { return float64(s.now().Unix()) }

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// isDuplicateKey reports whether err is a MySQL duplicate-key error (1062).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
