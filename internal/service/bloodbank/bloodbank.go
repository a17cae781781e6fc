// Package bloodbank tracks blood stock per group, donations and doctors'
// blood requests.
package bloodbank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alijeyrad/medtrack_backend/internal/notifier"
	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
)

// Stock actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// DefaultStock is the opening inventory written by the seed command.
var DefaultStock = map[string]int{
	"A+": 15, "A-": 4, "B+": 22, "B-": 6,
	"O+": 30, "O-": 2, "AB+": 10, "AB-": 3,
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type DonationRequest struct {
	DonorID   string
	DonorName string
	Group     string
}

type BloodRequestInput struct {
	DoctorID string
	Group    string
	Units    int
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Stock(ctx context.Context) ([]schema.BloodStock, error)
	Adjust(ctx context.Context, group, action string) (schema.BloodStock, error)
	SubmitDonation(ctx context.Context, req DonationRequest) (schema.Donation, error)
	VerifyDonation(ctx context.Context, donationID string) (schema.Donation, error)
	PendingDonations(ctx context.Context) ([]schema.Donation, error)
	RequestBlood(ctx context.Context, req BloodRequestInput) (schema.BloodRequest, error)
	LowStockAlerts(ctx context.Context) ([]schema.BloodStock, error)
	Seed(ctx context.Context) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type bloodbankService struct {
	store    *store.Store
	notify   notifier.Notifier
	opsTopic string
	now      func() time.Time
}

func New(st *store.Store, n notifier.Notifier, opsTopic string) Service {
	return &bloodbankService{store: st, notify: n, opsTopic: opsTopic, now: time.Now}
}

// Stock lists every group in display order.
func (s *bloodbankService) Stock(ctx context.Context) ([]schema.BloodStock, error) {
	rows, err := s.store.BloodStock.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("blood stock: %w", err)
	}
	byGroup := make(map[string]schema.BloodStock, len(rows))
	for _, r := range rows {
		byGroup[r.Group] = r
	}

	out := make([]schema.BloodStock, 0, len(schema.BloodGroups))
	for _, g := range schema.BloodGroups {
		row, ok := byGroup[g]
		if !ok {
			row = schema.BloodStock{Group: g}
			row.SetUnits(0)
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *bloodbankService) Adjust(ctx context.Context, group, action string) (schema.BloodStock, error) {
	if !schema.IsBloodGroup(group) {
		return schema.BloodStock{}, ErrUnknownGroup
	}
	var delta int
	switch action {
	case ActionAdd:
		delta = 1
	case ActionRemove:
		delta = -1
	default:
		return schema.BloodStock{}, ErrUnknownAction
	}

	return s.update(ctx, group, func(b *schema.BloodStock) error {
		if delta < 0 && b.Units == 0 {
			return store.ErrNoChange
		}
		b.SetUnits(b.Units + delta)
		return nil
	})
}

// update applies fn to one group's row, creating an empty row first when
// the group was never stocked.
func (s *bloodbankService) update(ctx context.Context, group string, fn func(*schema.BloodStock) error) (schema.BloodStock, error) {
	now := s.now().UTC()
	apply := func(b *schema.BloodStock) error {
		if err := fn(b); err != nil {
			return err
		}
		b.Touch(now)
		return nil
	}

	row, err := s.store.BloodStock.Update(ctx, group, apply)
	if errors.Is(err, store.ErrNotFound) {
		empty := schema.BloodStock{Group: group}
		empty.SetUnits(0)
		empty.Touch(now)
		if err := s.store.BloodStock.Create(ctx, empty); err != nil && !errors.Is(err, store.ErrConflict) {
			return schema.BloodStock{}, fmt.Errorf("blood stock %s: %w", group, err)
		}
		row, err = s.store.BloodStock.Update(ctx, group, apply)
	}
	if err != nil {
		return schema.BloodStock{}, fmt.Errorf("blood stock %s: %w", group, err)
	}
	return row, nil
}

func (s *bloodbankService) SubmitDonation(ctx context.Context, req DonationRequest) (schema.Donation, error) {
	if !schema.IsBloodGroup(req.Group) {
		return schema.Donation{}, ErrUnknownGroup
	}
	name := req.DonorName
	if name == "" {
		name = "Anonymous"
	}
	d := schema.Donation{
		ID:        schema.NewID(),
		DonorID:   req.DonorID,
		DonorName: name,
		Group:     req.Group,
		Status:    schema.DonationPending,
	}
	d.Touch(s.now().UTC())
	if err := s.store.Donations.Create(ctx, d); err != nil {
		return schema.Donation{}, fmt.Errorf("submit donation: %w", err)
	}
	return d, nil
}

// VerifyDonation marks a pending donation verified and adds exactly one
// unit to its group. Only the call that flips the status adds the unit.
func (s *bloodbankService) VerifyDonation(ctx context.Context, donationID string) (schema.Donation, error) {
	now := s.now().UTC()
	d, err := s.store.Donations.Update(ctx, donationID, func(d *schema.Donation) error {
		if d.Status != schema.DonationPending {
			return ErrDonationNotPending
		}
		d.Status = schema.DonationVerified
		d.Touch(now)
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return schema.Donation{}, ErrDonationNotFound
	case errors.Is(err, ErrDonationNotPending):
		return schema.Donation{}, err
	case err != nil:
		return schema.Donation{}, fmt.Errorf("verify donation: %w", err)
	}

	if _, err := s.update(ctx, d.Group, func(b *schema.BloodStock) error {
		b.SetUnits(b.Units + 1)
		return nil
	}); err != nil {
		s.reopenDonation(ctx, d.ID)
		return schema.Donation{}, fmt.Errorf("verify donation: %w", err)
	}

	if d.DonorID != "" {
		s.notify.Notify(ctx, notifier.Message{
			Kind:      notifier.KindDonationVerified,
			Subject:   "MedTrack - Donation Verified",
			Body:      fmt.Sprintf("Your %s blood donation has been verified. Thank you for saving lives!", d.Group),
			Recipient: notifier.Recipient{UserID: d.DonorID},
			Data:      map[string]string{"donation_id": d.ID},
		})
	}
	return d, nil
}

// reopenDonation puts a donation back to Pending after its unit could not be
// credited, so verification can be retried.
func (s *bloodbankService) reopenDonation(ctx context.Context, id string) {
	_, err := s.store.Donations.Update(ctx, id, func(d *schema.Donation) error {
		if d.Status != schema.DonationVerified {
			return store.ErrNoChange
		}
		d.Status = schema.DonationPending
		d.Touch(s.now().UTC())
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "donation verified without stock credit", "donation_id", id, "error", err)
	}
}

func (s *bloodbankService) PendingDonations(ctx context.Context) ([]schema.Donation, error) {
	out, err := s.store.Donations.ListBy(ctx, store.ByStatus, string(schema.DonationPending))
	if err != nil {
		return nil, fmt.Errorf("pending donations: %w", err)
	}
	return out, nil
}

// RequestBlood reserves units from stock when enough are available;
// otherwise the request waits as Pending Stock and nothing is deducted.
func (s *bloodbankService) RequestBlood(ctx context.Context, in BloodRequestInput) (schema.BloodRequest, error) {
	if !schema.IsBloodGroup(in.Group) {
		return schema.BloodRequest{}, ErrUnknownGroup
	}
	if in.Units <= 0 {
		return schema.BloodRequest{}, ErrInvalidUnits
	}

	status := schema.RequestPendingStock
	_, err := s.update(ctx, in.Group, func(b *schema.BloodStock) error {
		status = schema.RequestPendingStock
		if b.Units < in.Units {
			return store.ErrNoChange
		}
		b.SetUnits(b.Units - in.Units)
		status = schema.RequestApproved
		return nil
	})
	if err != nil {
		return schema.BloodRequest{}, fmt.Errorf("request blood: %w", err)
	}

	req := schema.BloodRequest{
		ID:       schema.NewID(),
		DoctorID: in.DoctorID,
		Group:    in.Group,
		Units:    in.Units,
		Status:   status,
	}
	req.Touch(s.now().UTC())
	if err := s.store.BloodRequests.Create(ctx, req); err != nil {
		return schema.BloodRequest{}, fmt.Errorf("request blood: %w", err)
	}

	if status == schema.RequestPendingStock && s.opsTopic != "" {
		s.notify.Notify(ctx, notifier.Message{
			Kind:      notifier.KindBloodRequest,
			Subject:   "MedTrack Blood Stock Alert",
			Body:      fmt.Sprintf("Blood request for %d unit(s) of %s is waiting for stock.", req.Units, req.Group),
			Recipient: notifier.Recipient{Topic: s.opsTopic},
			Data:      map[string]string{"request_id": req.ID, "group": req.Group},
		})
	}
	return req, nil
}

// LowStockAlerts returns the groups that are Low or Critical.
func (s *bloodbankService) LowStockAlerts(ctx context.Context) ([]schema.BloodStock, error) {
	all, err := s.Stock(ctx)
	if err != nil {
		return nil, err
	}
	var out []schema.BloodStock
	for _, b := range all {
		if b.Status != schema.StockAvailable {
			out = append(out, b)
		}
	}
	return out, nil
}

// Seed writes DefaultStock for groups that have no row yet.
func (s *bloodbankService) Seed(ctx context.Context) error {
	now := s.now().UTC()
	for _, g := range schema.BloodGroups {
		row := schema.BloodStock{Group: g}
		row.SetUnits(DefaultStock[g])
		row.Touch(now)
		if err := s.store.BloodStock.Create(ctx, row); err != nil && !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("seed blood stock: %w", err)
		}
	}
	return nil
}
