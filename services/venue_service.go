package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
)

const (
	venueNameMaxLength    = 60
	venueAddressMaxLength = 200
)

type VenueService interface {
	CreateVenue(ctx context.Context, teamID int, currentUserID int, input VenueInput) (*models.Venue, error)
	GetVenue(ctx context.Context, teamID int, venueID int, currentUserID int) (*models.Venue, error)
	ListVenues(ctx context.Context, teamID int, currentUserID int) ([]models.Venue, error)
	UpdateVenue(ctx context.Context, teamID int, venueID int, currentUserID int, input VenueInput) (*models.Venue, error)
	DeleteVenue(ctx context.Context, teamID int, venueID int, currentUserID int) error
}

type VenueInput struct {
	Name      string  `json:"name"`
	Address   *string `json:"address"`
	MapURL    *string `json:"map_url"`
	IsDefault bool    `json:"is_default"`
}

type venueService struct {
	venueRepo  repositories.VenueRepository
	memberRepo repositories.MemberRepository
}

func NewVenueService(venueRepo repositories.VenueRepository, memberRepo repositories.MemberRepository) VenueService {
	return &venueService{venueRepo: venueRepo, memberRepo: memberRepo}
}

func validateVenue(input VenueInput) (*models.Venue, error) {
	venue := &models.Venue{
		Name:      strings.TrimSpace(input.Name),
		Address:   trimmedOrNil(input.Address),
		MapURL:    trimmedOrNil(input.MapURL),
		IsDefault: input.IsDefault,
	}

	verr := newValidationError()
	verr.Check(lengthBetween(venue.Name, 1, venueNameMaxLength), "name", fmt.Sprintf("must be 1-%d characters", venueNameMaxLength))
	verr.Check(lengthBetween(derefString(venue.Address), 0, venueAddressMaxLength), "address", fmt.Sprintf("must be at most %d characters", venueAddressMaxLength))
	if venue.MapURL != nil {
		u, err := url.Parse(*venue.MapURL)
		verr.Check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "", "map_url", "must be an http(s) URL")
	}
	return venue, verr.OrNil()
}

func (s *venueService) loadVenue(ctx context.Context, teamID, venueID int) (*models.Venue, error) {
	venue, err := s.venueRepo.GetByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, repositories.ErrVenueNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, fmt.Errorf("failed to get venue %d: %w", venueID, err)
	}
	if venue.TeamID != teamID {
		return nil, ErrVenueNotFound
	}
	return venue, nil
}

func (s *venueService) CreateVenue(ctx context.Context, teamID int, currentUserID int, input VenueInput) (*models.Venue, error) {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}
	venue, err := validateVenue(input)
	if err != nil {
		return nil, err
	}
	venue.TeamID = teamID
	if err := s.venueRepo.Create(ctx, venue); err != nil {
		if errors.Is(err, repositories.ErrVenueDefaultConflict) {
			return nil, fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
		}
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	return venue, nil
}

func (s *venueService) GetVenue(ctx context.Context, teamID int, venueID int, currentUserID int) (*models.Venue, error) {
	if _, err := activeMembership(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}
	return s.loadVenue(ctx, teamID, venueID)
}

func (s *venueService) ListVenues(ctx context.Context, teamID int, currentUserID int) ([]models.Venue, error) {
	if _, err := activeMembership(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}
	venues, err := s.venueRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues of team %d: %w", teamID, err)
	}
	return venues, nil
}

func (s *venueService) UpdateVenue(ctx context.Context, teamID int, venueID int, currentUserID int, input VenueInput) (*models.Venue, error) {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}
	existing, err := s.loadVenue(ctx, teamID, venueID)
	if err != nil {
		return nil, err
	}
	venue, err := validateVenue(input)
	if err != nil {
		return nil, err
	}
	venue.ID = existing.ID
	venue.TeamID = existing.TeamID
	venue.CreatedAt = existing.CreatedAt

	if err := s.venueRepo.Update(ctx, venue); err != nil {
		switch {
		case errors.Is(err, repositories.ErrVenueNotFound):
			return nil, ErrVenueNotFound
		case errors.Is(err, repositories.ErrVenueDefaultConflict):
			return nil, fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
		}
		return nil, fmt.Errorf("failed to update venue %d: %w", venueID, err)
	}
	return venue, nil
}

func (s *venueService) DeleteVenue(ctx context.Context, teamID int, venueID int, currentUserID int) error {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return err
	}
	if _, err := s.loadVenue(ctx, teamID, venueID); err != nil {
		return err
	}
	if err := s.venueRepo.Delete(ctx, venueID); err != nil {
		if errors.Is(err, repositories.ErrVenueNotFound) {
			return ErrVenueNotFound
		}
		return fmt.Errorf("failed to delete venue %d: %w", venueID, err)
	}
	return nil
}
