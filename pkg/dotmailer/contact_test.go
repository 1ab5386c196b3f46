package dotmailer

import (
	"testing"
	"time"

	"github.com/natserract/dotmailer/pkg/soap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContactDefaults(t *testing.T) {
	c, err := ValidateContact(&Contact{Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, NewContactID, c.ID)
	assert.Equal(t, AudienceB2C, c.AudienceType)
	assert.Equal(t, OptInSingle, c.OptInType)
	assert.Equal(t, EmailHTML, c.EmailType)

	c, err = ValidateContact(map[string]string{"Email": "b@example.com", "ID": "42", "EmailType": "PlainText"})
	require.NoError(t, err)
	assert.Equal(t, 42, c.ID)
	assert.Equal(t, "b@example.com", c.Email)
	assert.Equal(t, EmailPlainText, c.EmailType)
	assert.Equal(t, AudienceB2C, c.AudienceType)
}

func TestValidateContactKeepsValidValues(t *testing.T) {
	in := Contact{ID: 5, Email: "a@example.com", AudienceType: AudienceB2M, OptInType: OptInVerifiedDouble, EmailType: EmailPlainText}
	c, err := ValidateContact(in)
	require.NoError(t, err)
	assert.Equal(t, in.ID, c.ID)
	assert.Equal(t, AudienceB2M, c.AudienceType)
	assert.Equal(t, OptInVerifiedDouble, c.OptInType)
	assert.Equal(t, EmailPlainText, c.EmailType)
}

func TestValidateContactRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		contact any
		wantErr error
	}{
		{"audience", &Contact{AudienceType: "M2B"}, ErrInvalidParameters},
		{"opt in", &Contact{OptInType: "Triple"}, ErrInvalidParameters},
		{"email type", &Contact{EmailType: "Rtf"}, ErrInvalidParameters},
		{"map id", map[string]any{"ID": "abc"}, ErrInvalidParameters},
		{"map enum", map[string]any{"OptInType": 3}, ErrInvalidParameters},
		{"map email", map[string]any{"Email": 3}, ErrInvalidParameters},
		{"map data fields", map[string]any{"DataFields": "x"}, ErrInvalidParameters},
		{"nil pointer", (*Contact)(nil), ErrInvalidContactType},
		{"string", "a@example.com", ErrInvalidContactType},
		{"nil", nil, ErrInvalidContactType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ValidateContact(tt.contact)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateContactCopies(t *testing.T) {
	in := &Contact{Email: "a@example.com", Fields: DataFields{StringField("A", "1")}}
	out, err := ValidateContact(in)
	require.NoError(t, err)

	out.Fields[0].Value = "2"
	out.Email = "changed@example.com"
	assert.Equal(t, "1", in.Fields[0].Value)
	assert.Equal(t, "a@example.com", in.Email)
	assert.Equal(t, 0, in.ID)
}

func TestEncodeDataFields(t *testing.T) {
	encoded, err := EncodeDataFields(DataFields{
		{Key: "FIRSTNAME", Value: "Ada"},
		StringField("CITY", "London"),
		IntField("AGE", 36),
		{Key: "SCORE", Value: "12", Type: FieldInt},
		{Key: "ZIP", Value: 12345},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"FIRSTNAME", "CITY", "AGE", "SCORE", "ZIP"}, encoded.Keys)
	assert.Equal(t, []soap.TypedValue{
		soap.String("Ada"),
		soap.String("London"),
		soap.Int(36),
		soap.Int(12),
		soap.String("12345"),
	}, encoded.Values)
}

func TestEncodeDataFieldsServiceTypes(t *testing.T) {
	born := time.Date(1990, time.May, 1, 8, 30, 0, 0, time.UTC)
	encoded, err := EncodeDataFields(DataFields{
		{Key: "DOB", Value: born, Type: FieldDateTime},
		{Key: "JOINED", Value: "2020-01-01T00:00:00", Type: FieldDateTime},
		{Key: "VIP", Value: false, Type: FieldBoolean},
		{Key: "SPEND", Value: 12.5, Type: FieldDecimal},
	})
	require.NoError(t, err)

	assert.Equal(t, []soap.TypedValue{
		{Type: soap.XSDDateTime, Value: "1990-05-01T08:30:00"},
		{Type: soap.XSDDateTime, Value: "2020-01-01T00:00:00"},
		{Type: soap.XSDBoolean, Value: "false"},
		{Type: "decimal", Value: "12.5"},
	}, encoded.Values)
}

func TestEncodeDataFieldsErrors(t *testing.T) {
	_, err := EncodeDataFields(DataFields{{Key: "AGE", Value: "old", Type: FieldInt}})
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = EncodeDataFields(DataFields{{Key: "BORN", Value: "2000-01-01", Type: "date"}})
	assert.ErrorIs(t, err, ErrUnsupportedFieldType)
}

func TestEncodeThenFlattenRoundTrip(t *testing.T) {
	fields := DataFields{
		StringField("FIRSTNAME", "Ada"),
		IntField("AGE", 36),
		StringField("LASTNAME", "Lovelace"),
	}
	encoded, err := EncodeDataFields(fields)
	require.NoError(t, err)

	c := FlattenContactFields(&Contact{DataFields: encoded})
	assert.Equal(t, fields, c.Fields)
}

func TestFlattenContactFields(t *testing.T) {
	assert.Nil(t, FlattenContactFields(nil))

	c := FlattenContactFields(&Contact{DataFields: &ContactDataFields{
		Keys:   []string{"A", "B", "C"},
		Values: []soap.TypedValue{soap.Int(1), {Type: soap.XSDDateTime, Value: "2024-01-01T00:00:00"}},
	}})
	require.Len(t, c.Fields, 2)
	assert.Equal(t, DataField{Key: "A", Value: 1, Type: FieldInt}, c.Fields[0])
	assert.Equal(t, "2024-01-01T00:00:00", c.Fields[1].Value)

	empty := FlattenContactFields(&Contact{Fields: DataFields{StringField("stale", "x")}})
	assert.Empty(t, empty.Fields)
}

func TestValidDateTime(t *testing.T) {
	valid := []string{
		"2024-01-01T00:00:00",
		"2024-01-01T00:00:00Z",
		"2024-12-31T23:59:59+01:00",
		"-0044-03-15T12:00:00-05:30",
		"2024-01-01T10:00:00.123Z",
		"2024-01-01T10:00:00.5",
	}
	for _, s := range valid {
		assert.True(t, ValidDateTime(s), s)
	}

	invalid := []string{
		"",
		"2024-01-01",
		"2024-01-01 00:00:00",
		"2024-01-01T00:00:00ZZ",
		"x2024-01-01T00:00:00",
		"2024-01-01T00:60:00",
		"2024-01-01T10:00:00.",
		"2024-01-01T10:00:00.12.3",
	}
	for _, s := range invalid {
		assert.False(t, ValidDateTime(s), s)
	}
}

func TestParseFileFormat(t *testing.T) {
	f, err := ParseFileFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FileFormatCSV, f)

	f, err = ParseFileFormat("Xls")
	require.NoError(t, err)
	assert.Equal(t, FileFormatXLS, f)

	_, err = ParseFileFormat("TXT")
	assert.ErrorIs(t, err, ErrInvalidFileFormat)
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	_, err = ParseID("forty-two")
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestParseAPITime(t *testing.T) {
	zero, err := ParseAPITime("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	ts, err := ParseAPITime("2020-09-09T04:04:02.257")
	require.NoError(t, err)
	assert.Equal(t, 4, ts.Hour())

	_, err = ParseAPITime("last week")
	assert.Error(t, err)
}
