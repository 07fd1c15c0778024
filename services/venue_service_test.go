package services_test

import (
	"context"
	"testing"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVenueService_CreateVenue(t *testing.T) {
	tests := []struct {
		name    string
		input   services.VenueInput
		wantErr bool
	}{
		{name: "valid", input: services.VenueInput{Name: "Luzhniki 3", MapURL: strPtr("https://maps.example/luzhniki"), IsDefault: true}},
		{name: "map url without scheme", input: services.VenueInput{Name: "Luzhniki 3", MapURL: strPtr("maps.example/luzhniki")}, wantErr: true},
		{name: "empty name", input: services.VenueInput{Name: "   "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.expectMembership(teamID, managerID, manager(teamID, managerID, managerMID))
			if !tt.wantErr {
				f.venues.On("Create", mock.Anything, mock.MatchedBy(func(v *models.Venue) bool {
					return v.TeamID == teamID && v.IsDefault
				})).Return(nil)
			}

			venue, err := services.NewVenueService(f.venues, f.members).CreateVenue(context.Background(), teamID, managerID, tt.input)

			if tt.wantErr {
				assert.ErrorIs(t, err, services.ErrValidationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Luzhniki 3", venue.Name)
		})
	}
}

func TestVenueService_GetVenue_OtherTeam(t *testing.T) {
	f := newFixture(t)
	f.expectMembership(teamID, playerID, player(teamID, playerID, playerMID))
	f.venues.On("GetByID", mock.Anything, 3).Return(&models.Venue{ID: 3, TeamID: opponentTID}, nil)

	_, err := services.NewVenueService(f.venues, f.members).GetVenue(context.Background(), teamID, 3, playerID)

	assert.ErrorIs(t, err, services.ErrVenueNotFound)
}
