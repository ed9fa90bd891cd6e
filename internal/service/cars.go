package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/car-marketplace/internal/apperr"
	"github.com/iliyamo/car-marketplace/internal/metrics"
	"github.com/iliyamo/car-marketplace/internal/model"
	"github.com/iliyamo/car-marketplace/internal/queue"
)

// StatusAny disables the sale status filter on a car list.
const StatusAny = "any"

const publishTimeout = 3 * time.Second

// CarQuery is the raw listing query as received over HTTP.  Every field is
// optional; List validates and normalizes it.
type CarQuery struct {
	Page             string
	Limit            string
	Q                string
	Brand            string
	YearFrom         string
	YearTo           string
	PriceFrom        string
	PriceTo          string
	FuelType         string
	Transmission     string
	Drive            string
	Status           string
	ModerationStatus string
	Sort             string
	OwnerID          string
	CreatedBy        string
}

type CarService struct {
	Cars   CarStore
	Users  UserStore
	Events EventPublisher
	Log    zerolog.Logger
}

func NewCarService(cars CarStore, users UserStore, events EventPublisher, log zerolog.Logger) *CarService {
	return &CarService{Cars: cars, Users: users, Events: events, Log: log}
}

// Filter turns q into a store filter.  Public queries (no moderation
// status, owner or creator given) only see approved cars; the sale status
// defaults to available unless "any" is requested.
func (q CarQuery) Filter() (model.CarFilter, int, error) {
	var f model.CarFilter
	page, limit, err := parsePaging(q.Page, q.Limit)
	if err != nil {
		return f, 0, err
	}
	f.Limit, f.Offset = limit, (page-1)*limit

	f.Q = strings.TrimSpace(q.Q)
	f.Brand = strings.TrimSpace(q.Brand)
	f.FuelType, f.Transmission, f.Drive = q.FuelType, q.Transmission, q.Drive
	f.Sort = model.ParseCarSort(q.Sort)

	if f.YearFrom, err = optInt(q.YearFrom, "yearFrom"); err != nil {
		return f, 0, err
	}
	if f.YearTo, err = optInt(q.YearTo, "yearTo"); err != nil {
		return f, 0, err
	}
	if f.PriceFrom, err = optFloat(q.PriceFrom, "priceFrom"); err != nil {
		return f, 0, err
	}
	if f.PriceTo, err = optFloat(q.PriceTo, "priceTo"); err != nil {
		return f, 0, err
	}

	switch q.Status {
	case "":
		f.Status = model.CarAvailable
	case StatusAny:
	default:
		if !model.CarStatus(q.Status).Valid() {
			return f, 0, apperr.Validation("status must be one of: available, reserved, sold, any")
		}
		f.Status = model.CarStatus(q.Status)
	}

	if q.OwnerID != "" {
		if f.OwnerID, err = ParseID(q.OwnerID, "ownerId"); err != nil {
			return f, 0, err
		}
	}
	if q.CreatedBy != "" {
		if f.CreatedBy, err = ParseID(q.CreatedBy, "createdBy"); err != nil {
			return f, 0, err
		}
	}

	switch {
	case q.ModerationStatus != "":
		if !model.ModerationStatus(q.ModerationStatus).Valid() {
			return f, 0, apperr.Validation("moderationStatus must be one of: pending, approved, rejected")
		}
		f.ModerationStatus = model.ModerationStatus(q.ModerationStatus)
	case f.OwnerID == 0 && f.CreatedBy == 0:
		f.ModerationStatus = model.ModerationApproved
	}
	return f, page, nil
}

// List returns one page of cars.
func (s *CarService) List(ctx context.Context, q CarQuery) (*model.CarPage, error) {
	f, page, err := q.Filter()
	if err != nil {
		return nil, err
	}
	cars, total, err := s.Cars.List(ctx, f)
	if err != nil {
		return nil, storeErr(err, "Car")
	}
	return &model.CarPage{Listings: cars, Pagination: model.NewPagination(page, f.Limit, total)}, nil
}

// Get returns a car.  Unless includePending is set a car that is not
// approved is reported exactly like a missing one.
func (s *CarService) Get(ctx context.Context, id uint64, includePending bool) (*model.Car, error) {
	c, err := s.Cars.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Car")
	}
	if !includePending && c.ModerationStatus != model.ModerationApproved {
		return nil, apperr.NotFound("Car")
	}
	return c, nil
}

// Create stores a new listing for ownerID on behalf of creator.  Cars
// created by an admin skip moderation.
func (s *CarService) Create(ctx context.Context, in model.CarInput, ownerID uint64, creator model.AuthUser) (*model.Car, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	owner, err := s.Users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err, "Owner")
	}

	c := &model.Car{
		Title:        in.Title,
		Brand:        in.Brand,
		Model:        in.Model,
		Year:         in.Year,
		Mileage:      in.Mileage,
		Price:        in.Price,
		Currency:     in.Currency,
		FuelType:     in.FuelType,
		Transmission: in.Transmission,
		Drive:        in.Drive,
		Engine:       in.Engine,
		PowerHP:      in.PowerHP,
		Color:        in.Color,
		Description:  in.Description,
		Features:     append([]string{}, in.Features...),
		Images:       append([]string{}, in.Images...),
		Status:       in.Status,
		CreatedBy:    creator.ID,
	}
	if c.Currency == "" {
		c.Currency = model.DefaultCurrency
	}
	if c.Status == "" {
		c.Status = model.CarAvailable
	}
	c.ModerationStatus = model.ModerationPending
	if creator.IsAdmin() {
		c.ModerationStatus = model.ModerationApproved
	}
	c.SnapshotOwner(owner)

	if err := s.Cars.Create(ctx, c); err != nil {
		return nil, storeErr(err, "Car")
	}
	metrics.CarCreated(string(c.ModerationStatus))
	s.Log.Info().Uint64("car_id", c.ID).Uint64("owner_id", c.OwnerID).
		Str("moderation_status", string(c.ModerationStatus)).Msg("car created")
	return c, nil
}

// Update applies a partial update.  Changing ownerId refreshes the owner
// snapshot.
func (s *CarService) Update(ctx context.Context, id uint64, p model.CarPatch) (*model.Car, error) {
	if err := check(p); err != nil {
		return nil, err
	}
	var owner *model.User
	if p.OwnerID != nil {
		ownerID, err := ParseID(*p.OwnerID, "ownerId")
		if err != nil {
			return nil, err
		}
		if owner, err = s.Users.GetByID(ctx, ownerID); err != nil {
			return nil, storeErr(err, "Owner")
		}
	}
	if err := s.Cars.Update(ctx, id, p, owner); err != nil {
		return nil, storeErr(err, "Car")
	}
	return s.Get(ctx, id, true)
}

// UpdateStatus sets the sale status.  Any status may follow any other.
func (s *CarService) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Car, error) {
	st := model.CarStatus(status)
	if !st.Valid() {
		return nil, apperr.Validation("status must be one of: available, reserved, sold")
	}
	if err := s.Cars.UpdateStatus(ctx, id, st); err != nil {
		return nil, storeErr(err, "Car")
	}
	return s.Get(ctx, id, true)
}

// Moderate records an admin decision on a listing and notifies the owner
// through the event bus.
func (s *CarService) Moderate(ctx context.Context, id uint64, in model.ModerationInput) (*model.Car, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	st := model.ModerationStatus(in.ModerationStatus)
	if err := s.Cars.UpdateModeration(ctx, id, st, in.ModerationComment); err != nil {
		return nil, storeErr(err, "Car")
	}
	c, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	metrics.CarModerated(string(st))

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	ev := queue.CarModeratedEvent{
		CarID:            c.ID,
		Title:            c.Title,
		OwnerID:          c.OwnerID,
		OwnerEmail:       c.OwnerEmail,
		ModerationStatus: string(c.ModerationStatus),
		Comment:          c.ModerationComment,
		ModeratedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Events.CarModerated(pctx, ev); err != nil {
		s.Log.Warn().Err(err).Uint64("car_id", c.ID).Msg("car.moderated not published")
	}
	return c, nil
}

// Delete removes a listing.
func (s *CarService) Delete(ctx context.Context, id uint64) error {
	if err := s.Cars.Delete(ctx, id); err != nil {
		return storeErr(err, "Car")
	}
	s.Log.Info().Uint64("car_id", id).Msg("car deleted")
	return nil
}

// CheckAccess decides whether caller may manage the car.  Admins pass
// without a lookup; everyone else gets NotFound for a missing car and
// Forbidden for someone else's car.
func (s *CarService) CheckAccess(ctx context.Context, carID uint64, caller model.AuthUser) error {
	if caller.IsAdmin() {
		return nil
	}
	c, err := s.Cars.GetByID(ctx, carID)
	if err != nil {
		return storeErr(err, "Car")
	}
	if c.OwnerID != caller.ID {
		return apperr.Forbidden("You do not have access to this car")
	}
	return nil
}

// OwnerQuery scopes q to the cars of ownerID.
func OwnerQuery(q CarQuery, ownerID uint64) CarQuery {
	q.OwnerID = strconv.FormatUint(ownerID, 10)
	q.CreatedBy = ""
	return q
}
