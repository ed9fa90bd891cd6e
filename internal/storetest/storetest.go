// Package storetest provides in-memory implementations of the service
// store interfaces.  They follow the MySQL repositories closely (sentinel
// errors, email normalization, sort tie-breaks, snapshot copies) so
// service and HTTP tests can run without a database.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/car-marketplace/internal/model"
	"github.com/iliyamo/car-marketplace/internal/queue"
	"github.com/iliyamo/car-marketplace/internal/repository"
)

// clock hands out strictly increasing timestamps so ordering by creation
// time is deterministic.
type clock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.Now().UTC().Truncate(time.Millisecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}

var tick clock

// Stores bundles one of each store.
type Stores struct {
	Users    *Users
	Cars     *Cars
	Leads    *Leads
	Settings *Settings
	Events   *Events
}

func New() *Stores {
	return &Stores{
		Users:    NewUsers(),
		Cars:     NewCars(),
		Leads:    NewLeads(),
		Settings: &Settings{},
		Events:   &Events{},
	}
}

// Users is an in-memory user table.
type Users struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.User
}

func NewUsers() *Users { return &Users{rows: map[uint64]model.User{}} }

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, r := range s.rows {
		if r.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = tick.now()
	u.UpdatedAt = u.CreatedAt
	s.rows[u.ID] = *u
	return nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, r := range s.rows {
		if r.Email == email {
			u := r
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *Users) List(_ context.Context, f model.UserFilter) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.User{}
	for _, r := range s.rows {
		if f.Role != nil && r.Role != *f.Role {
			continue
		}
		if f.IsActive != nil && r.IsActive != *f.IsActive {
			continue
		}
		u := r
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Users) Update(_ context.Context, id uint64, p model.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Phone != nil {
		r.Phone = *p.Phone
	}
	if p.IsActive != nil {
		r.IsActive = *p.IsActive
	}
	r.UpdatedAt = tick.now()
	s.rows[id] = r
	return nil
}

func (s *Users) SetRefreshTokenHash(_ context.Context, id uint64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.RefreshTokenHash = hash
	s.rows[id] = r
	return nil
}

// Cars is an in-memory car table.
type Cars struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Car
}

func NewCars() *Cars { return &Cars{rows: map[uint64]model.Car{}} }

func copyCar(c model.Car) *model.Car {
	c.Features = append([]string{}, c.Features...)
	c.Images = append([]string{}, c.Images...)
	return &c
}

func (s *Cars) Create(_ context.Context, c *model.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	c.CreatedAt = tick.now()
	c.UpdatedAt = c.CreatedAt
	s.rows[c.ID] = *copyCar(*c)
	return nil
}

func (s *Cars) GetByID(_ context.Context, id uint64) (*model.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyCar(r), nil
}

func matchCar(c model.Car, f model.CarFilter) bool {
	if f.Q != "" {
		q := strings.ToLower(f.Q)
		if !strings.Contains(strings.ToLower(c.Title), q) &&
			!strings.Contains(strings.ToLower(c.Brand), q) &&
			!strings.Contains(strings.ToLower(c.Model), q) {
			return false
		}
	}
	switch {
	case f.Brand != "" && !strings.EqualFold(c.Brand, f.Brand),
		f.YearFrom != nil && c.Year < *f.YearFrom,
		f.YearTo != nil && c.Year > *f.YearTo,
		f.PriceFrom != nil && c.Price < *f.PriceFrom,
		f.PriceTo != nil && c.Price > *f.PriceTo,
		f.FuelType != "" && c.FuelType != f.FuelType,
		f.Transmission != "" && c.Transmission != f.Transmission,
		f.Drive != "" && c.Drive != f.Drive,
		f.Status != "" && c.Status != f.Status,
		f.ModerationStatus != "" && c.ModerationStatus != f.ModerationStatus,
		f.OwnerID != 0 && c.OwnerID != f.OwnerID,
		f.CreatedBy != 0 && c.CreatedBy != f.CreatedBy:
		return false
	}
	return true
}

func lessCar(a, b *model.Car, s model.CarSort) bool {
	switch s {
	case model.SortPriceAsc:
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.ID < b.ID
	case model.SortPriceDesc:
		if a.Price != b.Price {
			return a.Price > b.Price
		}
	case model.SortYearDesc:
		if a.Year != b.Year {
			return a.Year > b.Year
		}
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	return a.ID > b.ID
}

func (s *Cars) List(_ context.Context, f model.CarFilter) ([]*model.Car, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := []*model.Car{}
	for _, r := range s.rows {
		if matchCar(r, f) {
			all = append(all, copyCar(r))
		}
	}
	sort.Slice(all, func(i, j int) bool { return lessCar(all[i], all[j], f.Sort) })
	return page(all, f.Offset, f.Limit), len(all), nil
}

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

func (s *Cars) Update(_ context.Context, id uint64, p model.CarPatch, owner *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Apply(&r)
	if owner != nil {
		r.SnapshotOwner(owner)
	}
	r.UpdatedAt = tick.now()
	s.rows[id] = r
	return nil
}

func (s *Cars) UpdateStatus(_ context.Context, id uint64, status model.CarStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = tick.now()
	s.rows[id] = r
	return nil
}

func (s *Cars) UpdateModeration(_ context.Context, id uint64, status model.ModerationStatus, comment *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.ModerationStatus = status
	if comment != nil {
		r.ModerationComment = *comment
	}
	r.UpdatedAt = tick.now()
	s.rows[id] = r
	return nil
}

func (s *Cars) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// Leads is an in-memory lead table.
type Leads struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Lead
}

func NewLeads() *Leads { return &Leads{rows: map[uint64]model.Lead{}} }

func copyLead(l model.Lead) *model.Lead {
	l.CarImages = append([]string{}, l.CarImages...)
	return &l
}

func (s *Leads) Create(_ context.Context, l *model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	l.ID = s.nextID
	l.CreatedAt = tick.now()
	l.UpdatedAt = l.CreatedAt
	s.rows[l.ID] = *copyLead(*l)
	return nil
}

func (s *Leads) GetByID(_ context.Context, id uint64) (*model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyLead(r), nil
}

func (s *Leads) List(_ context.Context, f model.LeadFilter) ([]*model.Lead, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := []*model.Lead{}
	q := strings.ToLower(f.Q)
	for _, r := range s.rows {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.CarID != 0 && r.CarID != f.CarID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) &&
			!strings.Contains(strings.ToLower(r.Phone), q) &&
			!strings.Contains(strings.ToLower(r.Email), q) {
			continue
		}
		all = append(all, copyLead(r))
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if f.Oldest {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return page(all, f.Offset, f.Limit), len(all), nil
}

func (s *Leads) UpdateStatus(_ context.Context, id uint64, status model.LeadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = tick.now()
	s.rows[id] = r
	return nil
}

// Settings holds the singleton row; it is created with defaults on first
// access, like the upsert in the MySQL repository.
type Settings struct {
	mu  sync.Mutex
	row *model.Settings
}

func (s *Settings) ensure() {
	if s.row == nil {
		d := model.DefaultSettings()
		d.CreatedAt = tick.now()
		d.UpdatedAt = d.CreatedAt
		s.row = &d
	}
}

func (s *Settings) Get(_ context.Context) (*model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	out := *s.row
	return &out, nil
}

func (s *Settings) Update(_ context.Context, p model.SettingsPatch) (*model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	p.Apply(s.row)
	s.row.UpdatedAt = tick.now()
	out := *s.row
	return &out, nil
}

// Events records published events.  Err, when set, is returned from every
// publish after recording.
type Events struct {
	mu        sync.Mutex
	Err       error
	leads     []queue.LeadCreatedEvent
	moderated []queue.CarModeratedEvent
}

func (e *Events) LeadCreated(_ context.Context, ev queue.LeadCreatedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.leads = append(e.leads, ev)
	return e.Err
}

func (e *Events) CarModerated(_ context.Context, ev queue.CarModeratedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.moderated = append(e.moderated, ev)
	return e.Err
}

func (e *Events) Leads() []queue.LeadCreatedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]queue.LeadCreatedEvent{}, e.leads...)
}

func (e *Events) Moderated() []queue.CarModeratedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]queue.CarModeratedEvent{}, e.moderated...)
}
