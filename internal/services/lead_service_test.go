// internal/services/lead_service_test.go
package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localspot/localspot-backend/internal/models"
)

func TestValidateLeadTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.LeadStatus
		to      models.LeadStatus
		allowed bool
	}{
		{"new to contacted", models.LeadStatusNew, models.LeadStatusContacted, true},
		{"new to converted", models.LeadStatusNew, models.LeadStatusConverted, true},
		{"new to lost", models.LeadStatusNew, models.LeadStatusLost, true},
		{"contacted to converted", models.LeadStatusContacted, models.LeadStatusConverted, true},
		{"contacted to lost", models.LeadStatusContacted, models.LeadStatusLost, true},
		{"contacted back to new", models.LeadStatusContacted, models.LeadStatusNew, false},
		{"converted is terminal", models.LeadStatusConverted, models.LeadStatusContacted, false},
		{"converted cannot be lost", models.LeadStatusConverted, models.LeadStatusLost, false},
		{"lost is terminal", models.LeadStatusLost, models.LeadStatusNew, false},
		{"lost cannot convert", models.LeadStatusLost, models.LeadStatusConverted, false},
		{"same status is a no-op", models.LeadStatusContacted, models.LeadStatusContacted, true},
		{"terminal same status is a no-op", models.LeadStatusLost, models.LeadStatusLost, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, ValidateLeadTransition(tt.from, tt.to))
		})
	}
}

func TestLeadTypeValidation(t *testing.T) {
	for _, lt := range []models.LeadType{
		models.LeadTypeCall, models.LeadTypeWhatsapp, models.LeadTypeEmail,
		models.LeadTypeChat, models.LeadTypeWebsite,
	} {
		assert.True(t, lt.Valid(), string(lt))
	}

	assert.False(t, models.LeadType("carrier_pigeon").Valid())
	assert.False(t, models.LeadType("").Valid())
}

func TestCreateLeadUnknownBusinessIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewLeadService(db, nil)

	mock.ExpectQuery(`SELECT \* FROM "businesses" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	lead, err := service.CreateLead(
		&CreateLeadRequest{BusinessID: uuid.New(), Type: models.LeadTypeCall},
		&LeadContext{IP: "203.0.113.9"},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, lead)

	// No insert and no counter update may have been attempted.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLeadIncrementsCounterWithSQLExpression(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewLeadService(db, nil)

	businessID := uuid.New()
	vendorID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "businesses" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vendor_id", "name"}).
			AddRow(businessID, vendorID, "Spark Electricians"))
	mock.ExpectQuery(`SELECT \* FROM "vendors"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).
			AddRow(vendorID, uuid.New()))
	mock.ExpectQuery(`INSERT INTO "leads"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	// The counter bump must be a single SQL expression, never a
	// read-modify-write.
	mock.ExpectExec(`UPDATE "businesses" SET "total_leads"=total_leads \+ 1`).
		WithArgs(businessID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	lead, err := service.CreateLead(
		&CreateLeadRequest{BusinessID: businessID, Type: models.LeadTypeCall, Name: "Asha"},
		&LeadContext{IP: "203.0.113.9", UserAgent: "Mozilla/5.0", Referrer: "https://example.com"},
	)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.Equal(t, "203.0.113.9", lead.Metadata["ip"])
	require.NoError(t, mock.ExpectationsWereMet())
}
