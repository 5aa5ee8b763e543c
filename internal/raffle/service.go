package raffle

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/frahmantamala/datascope/internal"
	raffleDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/raffle"
	"github.com/frahmantamala/datascope/internal/lead"
	"github.com/frahmantamala/datascope/internal/transport"
)

type RepositoryAPI interface {
	Create(ctx context.Context, r *raffleDatamodel.Raffle) error
	GetByID(ctx context.Context, companyID, id int64) (*raffleDatamodel.Raffle, error)
	GetPublic(ctx context.Context, id int64) (*raffleDatamodel.Raffle, error)
	List(ctx context.Context, filter ListFilter) ([]*raffleDatamodel.Raffle, int64, error)
	// Close moves an open raffle to closed and reports whether a row changed.
	Close(ctx context.Context, companyID, id int64, at time.Time) (bool, error)
	// MarkDrawn records the winner only while the raffle is still open or closed.
	MarkDrawn(ctx context.Context, companyID, id, winnerLeadID int64, at time.Time) (bool, error)
	CreateEntry(ctx context.Context, e *raffleDatamodel.Entry) error
	ListEntries(ctx context.Context, raffleID int64) ([]*raffleDatamodel.EntryDetail, error)
	EntrantLeadIDs(ctx context.Context, raffleID int64) ([]int64, error)
}

// LeadDirectory is the slice of the lead service raffles need.
type LeadDirectory interface {
	FindOrCreate(ctx context.Context, companyID int64, dto lead.CreateLeadDTO, source string) (*lead.Lead, bool, error)
	Get(ctx context.Context, scope internal.Scope, id int64) (*lead.Lead, error)
}

type Service struct {
	repo   RepositoryAPI
	leads  LeadDirectory
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, leads LeadDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		leads:  leads,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, scope internal.Scope, dto CreateRaffleDTO) (*Raffle, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	now := time.Now().UTC()
	row := &raffleDatamodel.Raffle{
		CompanyID: scope.CompanyID,
		Name:      dto.Name,
		Prize:     dto.Prize,
		Status:    StatusOpen,
		CreatedBy: scope.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create raffle", "company_id", scope.CompanyID, "error", err)
		return nil, internal.NewInternalError("failed to create raffle", err)
	}

	s.logger.Info("raffle created", "raffle_id", row.ID, "company_id", scope.CompanyID)
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, scope internal.Scope, filter ListFilter) (*ListResult, error) {
	filter.CompanyID = scope.CompanyID
	if filter.Limit <= 0 || filter.Limit > transport.MaxPageLimit {
		filter.Limit = transport.DefaultPageLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Status != "" && !isStatus(filter.Status) {
		return nil, internal.NewValidationFieldError("status", "unknown status "+filter.Status, internal.ErrCodeInvalidStatus)
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to list raffles", err)
	}
	raffles := make([]*Raffle, 0, len(rows))
	for _, row := range rows {
		raffles = append(raffles, FromDataModel(row))
	}
	return &ListResult{Raffles: raffles, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) Get(ctx context.Context, scope internal.Scope, id int64) (*Raffle, error) {
	row, err := s.repo.GetByID(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load raffle", err)
	}
	if row == nil {
		return nil, internal.ErrRaffleNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) GetPublic(ctx context.Context, id int64) (*PublicRaffle, error) {
	r, err := s.loadPublic(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.Public(), nil
}

// Enter registers an anonymous entrant, creating a raffle-sourced lead when the email is new.
func (s *Service) Enter(ctx context.Context, raffleID int64, dto EnterDTO) (*EnterResult, error) {
	r, err := s.loadPublic(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusOpen {
		return nil, internal.ErrRaffleClosed
	}

	l, created, err := s.leads.FindOrCreate(ctx, r.CompanyID, dto.Lead(), lead.SourceRaffle)
	if err != nil {
		return nil, err
	}

	entry := &raffleDatamodel.Entry{
		RaffleID:  r.ID,
		LeadID:    l.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to store raffle entry", "raffle_id", r.ID, "lead_id", l.ID, "error", err)
		return nil, internal.NewInternalError("failed to store raffle entry", err)
	}

	s.logger.Info("raffle entry stored",
		"raffle_id", r.ID,
		"company_id", r.CompanyID,
		"lead_id", l.ID,
		"lead_created", created)
	return &EnterResult{EntryID: entry.ID, LeadID: l.ID, LeadCreated: created}, nil
}

// Close stops accepting entries. Closing a closed raffle is a no-op.
func (s *Service) Close(ctx context.Context, scope internal.Scope, id int64) (*Raffle, error) {
	r, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	switch r.Status {
	case StatusClosed:
		return r, nil
	case StatusDrawn:
		return nil, internal.ErrRaffleAlreadyDrawn
	}

	if _, err := s.repo.Close(ctx, scope.CompanyID, id, time.Now().UTC()); err != nil {
		return nil, internal.NewInternalError("failed to close raffle", err)
	}
	s.logger.Info("raffle closed", "raffle_id", id, "company_id", scope.CompanyID, "user_id", scope.UserID)
	return s.Get(ctx, scope, id)
}

// Draw picks one entrant uniformly at random and records them as the winner.
func (s *Service) Draw(ctx context.Context, scope internal.Scope, id int64) (*DrawResult, error) {
	r, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !r.Drawable() {
		return nil, internal.ErrRaffleAlreadyDrawn
	}

	leadIDs, err := s.repo.EntrantLeadIDs(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load raffle entries", err)
	}
	if len(leadIDs) == 0 {
		return nil, internal.ErrRaffleNoEntries
	}

	idx, err := PickIndex(len(leadIDs))
	if err != nil {
		return nil, internal.NewInternalError("failed to draw raffle winner", err)
	}
	winnerID := leadIDs[idx]

	marked, err := s.repo.MarkDrawn(ctx, scope.CompanyID, id, winnerID, time.Now().UTC())
	if err != nil {
		return nil, internal.NewInternalError("failed to record raffle winner", err)
	}
	if !marked {
		// another draw won the race
		return nil, internal.ErrRaffleAlreadyDrawn
	}

	s.logger.Info("raffle drawn",
		"raffle_id", id,
		"company_id", scope.CompanyID,
		"winner_lead_id", winnerID,
		"entries", len(leadIDs),
		"user_id", scope.UserID)

	drawn, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	winner, err := s.leads.Get(ctx, scope, winnerID)
	if err != nil {
		return nil, err
	}
	return &DrawResult{Raffle: drawn, Winner: winner, Entries: len(leadIDs)}, nil
}

func (s *Service) Entries(ctx context.Context, scope internal.Scope, id int64) ([]*Entry, error) {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListEntries(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to list raffle entries", err)
	}
	entries := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, EntryFromDataModel(row))
	}
	return entries, nil
}

func (s *Service) loadPublic(ctx context.Context, id int64) (*Raffle, error) {
	row, err := s.repo.GetPublic(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load raffle", err)
	}
	if row == nil {
		return nil, internal.ErrRaffleNotFound
	}
	return FromDataModel(row), nil
}

// PickIndex returns a uniformly distributed index in [0, n) from crypto/rand.
func PickIndex(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("raffle: cannot pick from %d entries", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func isStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}
