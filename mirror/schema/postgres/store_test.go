package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/natserract/dotmailer/pkg/dotmailer"
	"github.com/natserract/dotmailer/pkg/soap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("DB_NAME", "mirror")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_SSLMODE", "")

	cfg := NewConfig()
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6432, cfg.Port)
	assert.Equal(t, "mirror", cfg.Database)
	assert.Equal(t, "postgres", cfg.User)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Contains(t, cfg.DSN(), "host=db.internal port=6432")
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"address_books", "contacts", "address_book_contacts", "sync_jobs", "contact_imports"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestContactParams(t *testing.T) {
	c := dotmailer.Contact{
		ID:           11,
		Email:        "a@example.com",
		AudienceType: dotmailer.AudienceB2B,
		OptInType:    dotmailer.OptInSingle,
		EmailType:    dotmailer.EmailHTML,
		DataFields: &dotmailer.ContactDataFields{
			Keys:   []string{"FIRSTNAME", "AGE"},
			Values: []soap.TypedValue{soap.String("Ada"), soap.Int(36)},
		},
	}

	params, err := contactParams(c)
	require.NoError(t, err)
	assert.Equal(t, int32(11), params.ID)
	assert.Equal(t, "B2B", params.AudienceType)
	assert.False(t, params.Notes.Valid)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(params.DataFields, &fields))
	assert.Equal(t, map[string]any{"FIRSTNAME": "Ada", "AGE": float64(36)}, fields)
	assert.Nil(t, c.Fields)
}

func TestContactParamsWithoutFields(t *testing.T) {
	params, err := contactParams(dotmailer.Contact{ID: 1, Email: "b@example.com", Notes: "vip"})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(params.DataFields))
	assert.Equal(t, "vip", params.Notes.String)
	assert.True(t, params.Notes.Valid)
}

func TestIsUniqueConstraintViolation(t *testing.T) {
	assert.False(t, isUniqueConstraintViolation(nil))
	assert.True(t, isUniqueConstraintViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueConstraintViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintViolation(errors.New("ERROR: duplicate key value violates unique constraint")))
	assert.False(t, isUniqueConstraintViolation(errors.New("connection refused")))
}
