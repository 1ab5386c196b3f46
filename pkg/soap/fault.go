package soap

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/beevik/etree"
)

// Fault is the error payload of a failed remote operation.
type Fault struct {
	Code   string
	String string
	Actor  string
	Detail string
	// StatusCode is the HTTP status the fault arrived with, when known.
	StatusCode int
}

func (f *Fault) Error() string {
	if f.Code == "" {
		return fmt.Sprintf("soap fault: %s", f.String)
	}
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.String)
}

// IsFault reports whether err is, or wraps, a *Fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

func parseFault(el *etree.Element) *Fault {
	f := &Fault{}
	if c := el.SelectElement("faultcode"); c != nil {
		f.Code = strings.TrimSpace(c.Text())
	}
	if s := el.SelectElement("faultstring"); s != nil {
		f.String = strings.TrimSpace(s.Text())
	}
	if a := el.SelectElement("faultactor"); a != nil {
		f.Actor = strings.TrimSpace(a.Text())
	}
	if d := el.SelectElement("detail"); d != nil {
		f.Detail = innerXML(d)
	}
	return f
}

func innerXML(el *etree.Element) string {
	if len(el.ChildElements()) == 0 {
		return strings.TrimSpace(el.Text())
	}
	doc := etree.NewDocument()
	for _, child := range el.ChildElements() {
		doc.AddChild(child.Copy())
	}
	s, err := doc.WriteToString()
	if err != nil {
		return strings.TrimSpace(el.Text())
	}
	return strings.TrimSpace(s)
}

// HTTPError is returned when the endpoint answers with a non-200 status and a
// body that is not a SOAP fault.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("soap request failed with status %d: %s", e.StatusCode, e.Body)
}

func isHTTPStatus(err error, status int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == status
	}
	return false
}

// IsNotFound reports whether err is an HTTP 404 from the endpoint.
func IsNotFound(err error) bool {
	return isHTTPStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is an HTTP 401 from the endpoint.
func IsUnauthorized(err error) bool {
	return isHTTPStatus(err, http.StatusUnauthorized)
}
