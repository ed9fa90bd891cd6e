package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/car-marketplace/internal/apperr"
	"github.com/iliyamo/car-marketplace/internal/metrics"
	"github.com/iliyamo/car-marketplace/internal/model"
	"github.com/iliyamo/car-marketplace/internal/queue"
)

// LeadQuery is the raw admin lead list query.
type LeadQuery struct {
	Page   string
	Limit  string
	Status string
	CarID  string
	Q      string
	Sort   string
}

type LeadService struct {
	Leads  LeadStore
	Cars   CarStore
	Events EventPublisher
	Log    zerolog.Logger
}

func NewLeadService(leads LeadStore, cars CarStore, events EventPublisher, log zerolog.Logger) *LeadService {
	return &LeadService{Leads: leads, Cars: cars, Events: events, Log: log}
}

// Create stores an inquiry.  The car is looked up without the moderation
// gate and its title, brand, model, price and images are copied onto the
// lead; later edits to the car do not reach the lead.
func (s *LeadService) Create(ctx context.Context, in model.LeadInput) (*model.Lead, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	carID, err := ParseID(in.CarID, "carId")
	if err != nil {
		return nil, err
	}
	car, err := s.Cars.GetByID(ctx, carID)
	if err != nil {
		return nil, storeErr(err, "Car")
	}

	l := &model.Lead{
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Email:   strings.TrimSpace(in.Email),
		Message: in.Message,
		Status:  model.LeadNew,
	}
	l.SnapshotCar(car)
	if err := s.Leads.Create(ctx, l); err != nil {
		return nil, storeErr(err, "Lead")
	}
	metrics.LeadCreated()
	s.Log.Info().Uint64("lead_id", l.ID).Uint64("car_id", l.CarID).Msg("lead created")

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	ev := queue.LeadCreatedEvent{
		LeadID:    l.ID,
		CarID:     l.CarID,
		CarTitle:  l.CarTitle,
		CarPrice:  l.CarPrice,
		Name:      l.Name,
		Phone:     l.Phone,
		Email:     l.Email,
		CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.Events.LeadCreated(pctx, ev); err != nil {
		s.Log.Warn().Err(err).Uint64("lead_id", l.ID).Msg("lead.created not published")
	}
	return l, nil
}

// List returns one page of leads, newest first unless sort asks otherwise.
func (s *LeadService) List(ctx context.Context, q LeadQuery) (*model.LeadPage, error) {
	page, limit, err := parsePaging(q.Page, q.Limit)
	if err != nil {
		return nil, err
	}
	f := model.LeadFilter{
		Q:      strings.TrimSpace(q.Q),
		Oldest: q.Sort != "" && q.Sort != "createdAt",
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if q.Status != "" {
		if !model.LeadStatus(q.Status).Valid() {
			return nil, apperr.Validation("status must be one of: new, in_progress, closed")
		}
		f.Status = model.LeadStatus(q.Status)
	}
	if q.CarID != "" {
		if f.CarID, err = ParseID(q.CarID, "carId"); err != nil {
			return nil, err
		}
	}
	leads, total, err := s.Leads.List(ctx, f)
	if err != nil {
		return nil, storeErr(err, "Lead")
	}
	return &model.LeadPage{Leads: leads, Pagination: model.NewPagination(page, limit, total)}, nil
}

func (s *LeadService) Get(ctx context.Context, id uint64) (*model.Lead, error) {
	l, err := s.Leads.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Lead")
	}
	return l, nil
}

// UpdateStatus moves a lead between triage states.
func (s *LeadService) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Lead, error) {
	st := model.LeadStatus(status)
	if !st.Valid() {
		return nil, apperr.Validation("status must be one of: new, in_progress, closed")
	}
	if err := s.Leads.UpdateStatus(ctx, id, st); err != nil {
		return nil, storeErr(err, "Lead")
	}
	return s.Get(ctx, id)
}
