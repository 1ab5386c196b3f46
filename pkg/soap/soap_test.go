package soap

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testNamespace = "http://apiconnector.com"

type book struct {
	ID   int
	Name string
}

func (b book) MarshalSOAP(el *etree.Element) error {
	if err := EncodeValue(el, "ID", b.ID); err != nil {
		return err
	}
	return EncodeValue(el, "Name", b.Name)
}

func envelope(inner string) string {
	return `<?xml version="1.0" encoding="utf-8"?>` +
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema">` +
		`<soap:Body>` + inner + `</soap:Body></soap:Envelope>`
}

func TestBuildEnvelopeKeepsParameterOrder(t *testing.T) {
	doc, err := BuildEnvelope(testNamespace, "CreateAddressBook", Params{
		{Name: "username", Value: "user"},
		{Name: "password", Value: "pass"},
		{Name: "book", Value: book{ID: -1, Name: "Newsletter"}},
		{Name: "data", Value: TypedValue{Type: XSDBase64Binary, Value: "YQ=="}},
		{Name: "skipped", Value: nil},
	})
	require.NoError(t, err)

	op := doc.FindElement("//CreateAddressBook")
	require.NotNil(t, op)
	assert.Equal(t, testNamespace, op.SelectAttrValue("xmlns", ""))

	var names []string
	for _, child := range op.ChildElements() {
		names = append(names, child.Tag)
	}
	assert.Equal(t, []string{"username", "password", "book", "data"}, names)

	assert.Equal(t, "-1", op.FindElement("book/ID").Text())
	assert.Equal(t, "Newsletter", op.FindElement("book/Name").Text())
	assert.Equal(t, "xsd:base64Binary", op.SelectElement("data").SelectAttrValue("xsi:type", ""))
}

func TestEncodeValueArrays(t *testing.T) {
	doc := etree.NewDocument()
	root := doc.CreateElement("DataFields")
	require.NoError(t, EncodeValue(root, "Keys", []string{"FIRSTNAME", "AGE"}))
	require.NoError(t, EncodeValue(root, "Values", []TypedValue{String("Ada"), Int(36)}))

	keys := root.FindElements("Keys/string")
	require.Len(t, keys, 2)
	assert.Equal(t, "AGE", keys[1].Text())

	values := root.FindElements("Values/anyType")
	require.Len(t, values, 2)
	assert.Equal(t, "xsd:string", values[0].SelectAttrValue("xsi:type", ""))
	assert.Equal(t, "xsd:int", values[1].SelectAttrValue("xsi:type", ""))
	assert.Equal(t, "36", values[1].Text())
}

func TestEncodeValueUnsupported(t *testing.T) {
	doc := etree.NewDocument()
	err := EncodeValue(doc.CreateElement("x"), "bad", 1.5)
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestParseResponseDecode(t *testing.T) {
	body := envelope(`<ListAddressBooksResponse xmlns="http://apiconnector.com">` +
		`<ListAddressBooksResult>` +
		`<APIAddressBook><ID>1</ID><Name>Test</Name></APIAddressBook>` +
		`<APIAddressBook><ID>2</ID><Name>Other</Name></APIAddressBook>` +
		`</ListAddressBooksResult></ListAddressBooksResponse>`)

	resp, err := ParseResponse("ListAddressBooks", []byte(body))
	require.NoError(t, err)
	assert.True(t, resp.Has("ListAddressBooksResult", "APIAddressBook"))
	assert.False(t, resp.Has("ListAddressBooksResult", "APIContact"))

	var out struct {
		Books []book `xml:"APIAddressBook"`
	}
	require.NoError(t, resp.Decode(&out, "ListAddressBooksResult"))
	assert.Equal(t, []book{{ID: 1, Name: "Test"}, {ID: 2, Name: "Other"}}, out.Books)

	err = resp.Decode(&out, "Missing")
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestParseResponseWithoutOperationElement(t *testing.T) {
	resp, err := ParseResponse("DeleteAddressBook", []byte(envelope("")))
	require.NoError(t, err)
	assert.False(t, resp.Has())
	_, ok := resp.Text("DeleteAddressBookResult")
	assert.False(t, ok)
}

func TestParseResponseFault(t *testing.T) {
	body := envelope(`<soap:Fault><faultcode>soap:Server</faultcode>` +
		`<faultstring>ERROR_CAMPAIGN_NOT_FOUND</faultstring><detail/></soap:Fault>`)

	_, err := ParseResponse("GetCampaign", []byte(body))
	require.Error(t, err)

	var fault *Fault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "soap:Server", fault.Code)
	assert.Equal(t, "ERROR_CAMPAIGN_NOT_FOUND", fault.String)
	assert.True(t, IsFault(err))
}

func TestParseResponseMalformed(t *testing.T) {
	_, err := ParseResponse("GetServerTime", []byte("<html>nope</html>"))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestTypedValueUnmarshal(t *testing.T) {
	var out struct {
		Values []TypedValue `xml:"anyType"`
	}
	data := `<Values xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<anyType xsi:type="xsd:int">7</anyType><anyType>plain</anyType></Values>`
	require.NoError(t, xml.Unmarshal([]byte(data), &out))
	assert.Equal(t, []TypedValue{Int(7), String("plain")}, out.Values)
}

func TestHTTPTransportInvoke(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"http://apiconnector.com/GetServerTime"`, r.Header.Get("SOAPAction"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "text/xml"))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "dotmailer-go/"))
		payload, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(payload), "<GetServerTime")

		_, _ = w.Write([]byte(envelope(`<GetServerTimeResponse xmlns="http://apiconnector.com">` +
			`<GetServerTimeResult>2024-01-01T10:00:00</GetServerTimeResult></GetServerTimeResponse>`)))
	}))
	defer ts.Close()

	tr := NewHTTPTransport(ts.URL, testNamespace, nil, zaptest.NewLogger(t))
	resp, err := tr.Invoke(context.Background(), "GetServerTime", nil)
	require.NoError(t, err)

	text, ok := resp.Text("GetServerTimeResult")
	require.True(t, ok)
	assert.Equal(t, "2024-01-01T10:00:00", text)
	assert.Contains(t, string(tr.LastRequest()), "GetServerTime")
	assert.Contains(t, string(tr.LastResponse()), "GetServerTimeResult")
}

func TestHTTPTransportFault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(envelope(`<soap:Fault><faultcode>soap:Client</faultcode>` +
			`<faultstring>ERROR_INVALID_LOGIN</faultstring></soap:Fault>`)))
	}))
	defer ts.Close()

	tr := NewHTTPTransport(ts.URL, testNamespace, nil, zaptest.NewLogger(t))
	_, err := tr.Invoke(context.Background(), "ListAddressBooks", Params{{Name: "username", Value: "u"}})

	var fault *Fault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "ERROR_INVALID_LOGIN", fault.String)
	assert.Equal(t, http.StatusInternalServerError, fault.StatusCode)
}

func TestHTTPTransportHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	tr := NewHTTPTransport(ts.URL, testNamespace, nil, zaptest.NewLogger(t))
	_, err := tr.Invoke(context.Background(), "ListAddressBooks", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsFault(err))
}

func TestHTTPTransportFaultWithGatewayStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(envelope(`<soap:Fault><faultcode>soap:Server</faultcode>` +
			`<faultstring>ERROR_APIUSAGE_EXCEEDED</faultstring></soap:Fault>`)))
	}))
	defer ts.Close()

	tr := NewHTTPTransport(ts.URL, testNamespace, nil, zaptest.NewLogger(t))
	_, err := tr.Invoke(context.Background(), "ListAddressBooks", nil)

	var fault *Fault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "ERROR_APIUSAGE_EXCEEDED", fault.String)
	assert.Equal(t, http.StatusServiceUnavailable, fault.StatusCode)
}

func TestHTTPTransportUnauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	tr := NewHTTPTransport(ts.URL, testNamespace, nil, zaptest.NewLogger(t))
	_, err := tr.Invoke(context.Background(), "ListAddressBooks", nil)
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsNotFound(err))
}
