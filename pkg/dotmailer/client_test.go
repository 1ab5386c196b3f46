package dotmailer

import (
	"context"
	"errors"
	"testing"

	"github.com/natserract/dotmailer/pkg/soap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type invocation struct {
	operation string
	params    soap.Params
	envelope  string
}

// fakeTransport answers each operation with canned SOAP bodies. With several
// bodies queued they are used in order and the last one repeats.
type fakeTransport struct {
	bodies map[string][]string
	calls  []invocation
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{bodies: map[string][]string{}}
}

func (f *fakeTransport) respond(operation string, bodies ...string) *fakeTransport {
	f.bodies[operation] = bodies
	return f
}

func (f *fakeTransport) Invoke(_ context.Context, operation string, params soap.Params) (*soap.Response, error) {
	doc, err := soap.BuildEnvelope(Namespace, operation, params)
	if err != nil {
		return nil, err
	}
	raw, err := doc.WriteToString()
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, invocation{operation: operation, params: params, envelope: raw})

	queued := f.bodies[operation]
	if len(queued) == 0 {
		return nil, errors.New("unexpected operation " + operation)
	}
	body := queued[0]
	if len(queued) > 1 {
		f.bodies[operation] = queued[1:]
	}
	return soap.ParseResponse(operation, []byte(wrap(body)))
}

func (f *fakeTransport) last() invocation {
	if len(f.calls) == 0 {
		return invocation{}
	}
	return f.calls[len(f.calls)-1]
}

func wrap(inner string) string {
	return `<?xml version="1.0" encoding="utf-8"?>` +
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema">` +
		`<soap:Body>` + inner + `</soap:Body></soap:Envelope>`
}

func result(operation, inner string) string {
	return `<` + operation + `Response xmlns="http://apiconnector.com">` + inner + `</` + operation + `Response>`
}

func fault(message string) string {
	return `<soap:Fault><faultcode>soap:Server</faultcode><faultstring>` + message + `</faultstring><detail /></soap:Fault>`
}

func newTestClient(t *testing.T, ft *fakeTransport) *Client {
	t.Helper()
	c, err := New("apiuser", "secret", WithTransport(ft), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return c
}

func paramNames(params soap.Params) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return names
}

func TestNewRequiresCredentials(t *testing.T) {
	c, err := New("", "")
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrCredentialsMissing)

	c, err = New("apiuser", "", WithTransport(newFakeTransport()))
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestCallPrependsCredentials(t *testing.T) {
	ft := newFakeTransport().respond("ListAddressBooks", result("ListAddressBooks", ""))
	c := newTestClient(t, ft)

	_, err := c.Call(context.Background(), "ListAddressBooks", nil)
	require.NoError(t, err)

	call := ft.last()
	assert.Equal(t, []string{"username", "password"}, paramNames(call.params))
	user, _ := call.params.Get("username")
	pass, _ := call.params.Get("password")
	assert.Equal(t, "apiuser", user)
	assert.Equal(t, "secret", pass)
}

func TestFaultSetsAndSuccessClearsLastError(t *testing.T) {
	ft := newFakeTransport().respond("GetCampaign", fault("Campaign not found"))
	c := newTestClient(t, ft)
	ctx := context.Background()

	campaign, err := c.GetCampaign(ctx, 42)
	assert.Nil(t, campaign)
	require.Error(t, err)

	f, ok := AsFault(err)
	require.True(t, ok)
	assert.Equal(t, "Campaign not found", f.String)
	assert.True(t, c.IsError())
	require.NotNil(t, c.LastFault())
	assert.Equal(t, "Campaign not found", c.LastFault().String)

	ft.respond("GetCampaign", result("GetCampaign",
		`<GetCampaignResult><Id>42</Id><Name>Spring sale</Name><Subject>Save now</Subject><Status>Sent</Status></GetCampaignResult>`))

	campaign, err = c.GetCampaign(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, campaign.ID)
	assert.Equal(t, "Spring sale", campaign.Name)
	assert.False(t, c.IsError())
	assert.Nil(t, c.LastError())
	assert.Nil(t, c.LastFault())
}

func TestListContactsInAddressBookEmpty(t *testing.T) {
	ft := newFakeTransport().respond("ListContactsInAddressBook",
		result("ListContactsInAddressBook", `<ListContactsInAddressBookResult />`))
	c := newTestClient(t, ft)

	contacts, err := c.ListContactsInAddressBook(context.Background(), 7, 100, 0)
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
	assert.False(t, c.IsError())

	assert.Equal(t, []string{"username", "password", "addressBookId", "select", "skip"}, paramNames(ft.last().params))
}

func TestListContactsInAddressBook(t *testing.T) {
	ft := newFakeTransport().respond("ListContactsInAddressBook", result("ListContactsInAddressBook", `
		<ListContactsInAddressBookResult>
			<APIContact>
				<ID>11</ID><Email>a@example.com</Email><AudienceType>B2C</AudienceType>
				<DataFields>
					<Keys><string>FIRSTNAME</string><string>AGE</string></Keys>
					<Values><anyType xsi:type="xsd:string">Ada</anyType><anyType xsi:type="xsd:int">36</anyType></Values>
				</DataFields>
				<OptInType>Single</OptInType><EmailType>Html</EmailType>
			</APIContact>
			<APIContact><ID>12</ID><Email>b@example.com</Email></APIContact>
		</ListContactsInAddressBookResult>`))
	c := newTestClient(t, ft)

	contacts, err := c.ListContactsInAddressBook(context.Background(), 7, 100, 0)
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	assert.Equal(t, 11, contacts[0].ID)
	assert.Equal(t, "a@example.com", contacts[0].Email)
	age, ok := contacts[0].Field("AGE")
	require.True(t, ok)
	assert.Equal(t, 36, age)
	assert.Equal(t, map[string]any{"FIRSTNAME": "Ada", "AGE": 36}, contacts[0].FieldMap())
	assert.Empty(t, contacts[1].Fields)
}

func TestAddressBookIDRequired(t *testing.T) {
	ft := newFakeTransport()
	c := newTestClient(t, ft)
	ctx := context.Background()

	_, err := c.ListContactsInAddressBook(ctx, 0, 10, 0)
	assert.ErrorIs(t, err, ErrMissingRequiredParameters)
	_, err = c.AddContactToAddressBook(ctx, 0, &Contact{Email: "a@example.com"}, nil)
	assert.ErrorIs(t, err, ErrMissingRequiredParameters)
	_, err = c.RemoveAllContactsFromAddressBook(ctx, 0, RemoveOptions{})
	assert.ErrorIs(t, err, ErrMissingRequiredParameters)
	_, err = c.GetAddressBookContactCount(ctx, 0)
	assert.ErrorIs(t, err, ErrMissingRequiredParameters)
	assert.ErrorIs(t, c.DeleteAddressBook(ctx, 0), ErrMissingRequiredParameters)

	assert.Empty(t, ft.calls)
}

func TestAddContactToAddressBook(t *testing.T) {
	ft := newFakeTransport().respond("AddContactToAddressBook", result("AddContactToAddressBook",
		`<AddContactToAddressBookResult><ID>99</ID><Email>new@example.com</Email><AudienceType>B2C</AudienceType><OptInType>Single</OptInType><EmailType>Html</EmailType></AddContactToAddressBookResult>`))
	c := newTestClient(t, ft)

	contact := &Contact{Email: "new@example.com"}
	created, err := c.AddContactToAddressBook(context.Background(), 7, contact,
		DataFields{StringField("FIRSTNAME", "Ada"), IntField("AGE", 36)})
	require.NoError(t, err)
	assert.Equal(t, 99, created.ID)

	call := ft.last()
	assert.Equal(t, []string{"username", "password", "contact", "addressbookId"}, paramNames(call.params))
	assert.Contains(t, call.envelope, "<ID>-1</ID>")
	assert.Contains(t, call.envelope, "<AudienceType>B2C</AudienceType>")
	assert.Contains(t, call.envelope, `<anyType xsi:type="xsd:int">36</anyType>`)
	assert.Contains(t, call.envelope, `<string>FIRSTNAME</string>`)

	// caller's contact is untouched
	assert.Equal(t, 0, contact.ID)
	assert.Nil(t, contact.DataFields)
}

func TestRemoveAllContactsFromAddressBook(t *testing.T) {
	ft := newFakeTransport().respond("RemoveAllContactsFromAddressBook", result("RemoveAllContactsFromAddressBook", ""))
	c := newTestClient(t, ft)
	ctx := context.Background()

	resp, err := c.RemoveAllContactsFromAddressBook(ctx, 7, RemoveOptions{TotalUnsubscribe: true})
	require.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Contains(t, ft.last().envelope, "<preventAddressbookResubscribe>false</preventAddressbookResubscribe>")
	assert.Contains(t, ft.last().envelope, "<totalUnsubscribe>true</totalUnsubscribe>")

	ft.respond("RemoveAllContactsFromAddressBook", "")
	_, err = c.RemoveAllContactsFromAddressBook(ctx, 7, RemoveOptions{})
	assert.ErrorIs(t, err, ErrMissingResult)
}

func TestAddContactsToAddressBookWithProgress(t *testing.T) {
	ft := newFakeTransport().respond("AddContactsToAddressBookWithProgress", result("AddContactsToAddressBookWithProgress",
		`<AddContactsToAddressBookWithProgressResult>0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0</AddContactsToAddressBookWithProgressResult>`))
	c := newTestClient(t, ft)
	ctx := context.Background()

	_, err := c.AddContactsToAddressBookWithProgress(ctx, 7, []byte("Email\n"), "TXT")
	assert.ErrorIs(t, err, ErrInvalidFileFormat)
	assert.Empty(t, ft.calls)
	assert.False(t, c.IsError())

	id, err := c.AddContactsToAddressBookWithProgress(ctx, 7, []byte("a"), "csv")
	require.NoError(t, err)
	assert.Equal(t, "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0", id)

	call := ft.last()
	assert.Equal(t, []string{"username", "password", "addressbookID", "data", "dataType"}, paramNames(call.params))
	assert.Contains(t, call.envelope, `<data xsi:type="xsd:base64Binary">YQ==</data>`)
	assert.Contains(t, call.envelope, `<dataType>csv</dataType>`)
}

func TestGetAddressBookContactCount(t *testing.T) {
	ft := newFakeTransport().respond("GetAddressBookContactCount", result("GetAddressBookContactCount",
		`<GetAddressBookContactCountResult>1250</GetAddressBookContactCountResult>`))
	c := newTestClient(t, ft)

	count, err := c.GetAddressBookContactCount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1250, count)
	assert.Equal(t, []string{"username", "password", "addressbookid"}, paramNames(ft.last().params))
}

func TestCreateAndListAddressBooks(t *testing.T) {
	ft := newFakeTransport().
		respond("CreateAddressBook", result("CreateAddressBook",
			`<CreateAddressBookResult><ID>8</ID><Name>Newsletter</Name></CreateAddressBookResult>`)).
		respond("ListAddressBooks", result("ListAddressBooks",
			`<ListAddressBooksResult><APIAddressBook><ID>7</ID><Name>Test</Name></APIAddressBook><APIAddressBook><ID>8</ID><Name>Newsletter</Name></APIAddressBook></ListAddressBooksResult>`))
	c := newTestClient(t, ft)
	ctx := context.Background()

	book, err := c.CreateAddressBook(ctx, "Newsletter")
	require.NoError(t, err)
	assert.Equal(t, &AddressBook{ID: 8, Name: "Newsletter"}, book)
	assert.Contains(t, ft.last().envelope, "<book><ID>-1</ID><Name>Newsletter</Name></book>")

	books, err := c.ListAddressBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []AddressBook{{ID: 7, Name: "Test"}, {ID: 8, Name: "Newsletter"}}, books)
}

func TestDeleteAddressBookFault(t *testing.T) {
	ft := newFakeTransport().respond("DeleteAddressBook", fault("ERROR_ADDRESSBOOK_NOT_FOUND"))
	c := newTestClient(t, ft)

	err := c.DeleteAddressBook(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, soap.IsFault(err))
	assert.Equal(t, err, c.LastError())
}
