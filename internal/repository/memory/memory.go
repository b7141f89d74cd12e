// Package memory is an in-process implementation of the repository contracts.
// Transactions work on a private copy of the data set that replaces the shared
// one on commit, so a failed unit of work leaves nothing behind.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository"
)

type state struct {
	assets         map[int64]domain.Asset
	customers      map[int64]domain.Customer
	equipment      map[int64]domain.Equipment
	activities     map[int64]domain.Activity
	reservations   map[uuid.UUID]domain.Reservation
	equipmentLines map[uuid.UUID][]domain.ReservationEquipmentLine
	activityLines  map[uuid.UUID][]domain.ReservationActivityLine

	// per-table id sequences, never below the largest id stored
	assetSeq, customerSeq, equipmentSeq, activitySeq int64
}

func newState() *state {
	return &state{
		assets:         make(map[int64]domain.Asset),
		customers:      make(map[int64]domain.Customer),
		equipment:      make(map[int64]domain.Equipment),
		activities:     make(map[int64]domain.Activity),
		reservations:   make(map[uuid.UUID]domain.Reservation),
		equipmentLines: make(map[uuid.UUID][]domain.ReservationEquipmentLine),
		activityLines:  make(map[uuid.UUID][]domain.ReservationActivityLine),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.assetSeq, c.customerSeq, c.equipmentSeq, c.activitySeq = s.assetSeq, s.customerSeq, s.equipmentSeq, s.activitySeq
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.equipment {
		c.equipment[k] = v
	}
	for k, v := range s.activities {
		c.activities[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.equipmentLines {
		c.equipmentLines[k] = append([]domain.ReservationEquipmentLine(nil), v...)
	}
	for k, v := range s.activityLines {
		c.activityLines[k] = append([]domain.ReservationActivityLine(nil), v...)
	}
	return c
}

// Store keeps all data in memory. Writers (transactional or not) are serialized
// by writeMu; mu guards the pointer to the committed state for readers.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	state   *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

var _ repository.Store = (*Store)(nil)

// binding ties repositories either to the shared state or to one transaction's copy.
type binding struct {
	store *Store
	tx    *state
}

func (b binding) read(fn func(st *state)) {
	if b.tx != nil {
		fn(b.tx)
		return
	}
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	fn(b.store.state)
}

func (b binding) write(fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	b.store.writeMu.Lock()
	defer b.store.writeMu.Unlock()
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return fn(b.store.state)
}

func (b binding) Assets() repository.AssetRepository             { return &assetRepository{b} }
func (b binding) Reservations() repository.ReservationRepository { return &reservationRepository{b} }
func (b binding) Customers() repository.CustomerRepository       { return &customerRepository{b} }
func (b binding) Catalog() repository.CatalogRepository          { return &catalogRepository{b} }

func (s *Store) Assets() repository.AssetRepository             { return binding{store: s}.Assets() }
func (s *Store) Reservations() repository.ReservationRepository { return binding{store: s}.Reservations() }
func (s *Store) Customers() repository.CustomerRepository       { return binding{store: s}.Customers() }
func (s *Store) Catalog() repository.CatalogRepository          { return binding{store: s}.Catalog() }

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// WithinTx runs fn against a private copy and publishes it only if fn succeeds
// and ctx is still live. Transactions are fully serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.NewTransientError("begin transaction", err)
	}

	s.mu.RLock()
	work := s.state.clone()
	s.mu.RUnlock()

	if err := fn(ctx, binding{store: s, tx: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.NewTransientError("commit transaction", err)
	}

	s.mu.Lock()
	s.state = work
	s.mu.Unlock()
	return nil
}

// AddAsset stores an asset, assigning an id when it has none.
func (s *Store) AddAsset(a domain.Asset) domain.Asset {
	_ = binding{store: s}.write(func(st *state) error {
		a.ID = nextID(&st.assetSeq, a.ID)
		if a.Status == "" {
			a.Status = domain.AssetStatusAvailable
		}
		st.assets[a.ID] = a
		return nil
	})
	return a
}

// AddCustomer stores a customer, assigning an id when it has none.
func (s *Store) AddCustomer(c domain.Customer) domain.Customer {
	_ = binding{store: s}.write(func(st *state) error {
		c.ID = nextID(&st.customerSeq, c.ID)
		st.customers[c.ID] = c
		return nil
	})
	return c
}

// AddEquipment stores an equipment item, assigning an id when it has none.
func (s *Store) AddEquipment(e domain.Equipment) domain.Equipment {
	_ = binding{store: s}.write(func(st *state) error {
		e.ID = nextID(&st.equipmentSeq, e.ID)
		st.equipment[e.ID] = e
		return nil
	})
	return e
}

// AddActivity stores an activity, assigning an id when it has none.
func (s *Store) AddActivity(a domain.Activity) domain.Activity {
	_ = binding{store: s}.write(func(st *state) error {
		a.ID = nextID(&st.activitySeq, a.ID)
		st.activities[a.ID] = a
		return nil
	})
	return a
}

// nextID returns id when it is set, otherwise the next value of seq.
func nextID(seq *int64, id int64) int64 {
	if id == 0 {
		*seq++
		return *seq
	}
	if id > *seq {
		*seq = id
	}
	return id
}
