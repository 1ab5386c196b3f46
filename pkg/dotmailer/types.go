package dotmailer

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/natserract/dotmailer/pkg/soap"
)

// APITime is a service timestamp. The API returns dates with or without a
// zone offset and with optional fractional seconds (e.g. "2020-09-09T04:04:02.257").
type APITime struct {
	time.Time
}

var apiTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseAPITime parses a service timestamp. An empty string is the zero time.
func ParseAPITime(s string) (APITime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return APITime{}, nil
	}
	for _, layout := range apiTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return APITime{Time: parsed}, nil
		}
	}
	return APITime{}, fmt.Errorf("unable to parse time string: %s", s)
}

// UnmarshalXML implements xml.Unmarshaler for APITime
func (t *APITime) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	parsed, err := ParseAPITime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AddressBook is an APIAddressBook. An ID of -1 means not yet created.
type AddressBook struct {
	ID   int    `xml:"ID"`
	Name string `xml:"Name"`
}

func (b AddressBook) MarshalSOAP(el *etree.Element) error {
	if err := soap.EncodeValue(el, "ID", b.ID); err != nil {
		return err
	}
	return soap.EncodeValue(el, "Name", b.Name)
}

// FromAddress is the sender of a campaign.
type FromAddress struct {
	ID    int    `xml:"Id"`
	Email string `xml:"Email"`
}

// ExtraElement keeps a response element the client has no field for.
type ExtraElement struct {
	XMLName xml.Name
	Content string `xml:",innerxml"`
}

// Campaign is an APICampaign. Elements without a field here are kept in Extra.
type Campaign struct {
	ID               int            `xml:"Id"`
	Name             string         `xml:"Name"`
	Subject          string         `xml:"Subject"`
	FromName         string         `xml:"FromName"`
	FromAddress      FromAddress    `xml:"FromAddress"`
	HTMLContent      string         `xml:"HtmlContent"`
	PlainTextContent string         `xml:"PlainTextContent"`
	ReplyAction      string         `xml:"ReplyAction"`
	ReplyToAddress   string         `xml:"ReplyToAddress"`
	IsSplitTest      bool           `xml:"IsSplitTest"`
	Status           string         `xml:"Status"`
	Extra            []ExtraElement `xml:",any"`
}

// CampaignSummary is an APICampaignSummary.
type CampaignSummary struct {
	DateSent               APITime        `xml:"DateSent"`
	NumSent                int            `xml:"NumSent"`
	NumTotalSent           int            `xml:"NumTotalSent"`
	NumUniqueOpens         int            `xml:"NumUniqueOpens"`
	NumTotalUniqueOpens    int            `xml:"NumTotalUniqueOpens"`
	NumOpens               int            `xml:"NumOpens"`
	NumTotalOpens          int            `xml:"NumTotalOpens"`
	NumClicks              int            `xml:"NumClicks"`
	NumTotalClicks         int            `xml:"NumTotalClicks"`
	NumForwards            int            `xml:"NumForwards"`
	NumReplies             int            `xml:"NumReplies"`
	NumHardBounces         int            `xml:"NumHardBounces"`
	NumTotalHardBounces    int            `xml:"NumTotalHardBounces"`
	NumSoftBounces         int            `xml:"NumSoftBounces"`
	NumTotalSoftBounces    int            `xml:"NumTotalSoftBounces"`
	NumUnsubscribes        int            `xml:"NumUnsubscribes"`
	NumTotalUnsubscribes   int            `xml:"NumTotalUnsubscribes"`
	NumIspComplaints       int            `xml:"NumIspComplaints"`
	PercentageDelivered    float64        `xml:"PercentageDelivered"`
	PercentageUniqueOpens  float64        `xml:"PercentageUniqueOpens"`
	PercentageOpens        float64        `xml:"PercentageOpens"`
	PercentageUnsubscribes float64        `xml:"PercentageUnsubscribes"`
	PercentageHardBounces  float64        `xml:"PercentageHardBounces"`
	PercentageSoftBounces  float64        `xml:"PercentageSoftBounces"`
	PercentageUsersClicked float64        `xml:"PercentageUsersClicked"`
	Extra                  []ExtraElement `xml:",any"`
}

// ContactDataLabel describes one custom data field defined on the account.
type ContactDataLabel struct {
	Name         string `xml:"Name"`
	Type         string `xml:"Type"`
	Visibility   string `xml:"Visibility"`
	DefaultValue string `xml:"DefaultValue"`
}

// AccountProperty is one APIAccountProperty.
type AccountProperty struct {
	Name  string `xml:"Name"`
	Type  string `xml:"Type"`
	Value string `xml:"Value"`
}

// AccountInfo is the APIAccount returned by GetCurrentAccountInfo.
type AccountInfo struct {
	ID         int               `xml:"Id"`
	Properties []AccountProperty `xml:"Properties>APIAccountProperty"`
}

// Property returns the value of the named account property.
func (a *AccountInfo) Property(name string) (string, bool) {
	for _, p := range a.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// ImportStatus is the state of an asynchronous contact import.
type ImportStatus string

const (
	ImportFinished           ImportStatus = "Finished"
	ImportNotFinished        ImportStatus = "NotFinished"
	ImportRejectedByWatchdog ImportStatus = "RejectedByWatchdog"
	ImportInvalidFileFormat  ImportStatus = "InvalidFileFormat"
	ImportUnknown            ImportStatus = "Unknown"
)

// Done reports whether the import will not change state any more. An empty
// status is not a state.
func (s ImportStatus) Done() bool {
	return s != "" && s != ImportNotFinished
}

// FileFormat is the format of a bulk contact import.
type FileFormat string

const (
	FileFormatCSV FileFormat = "CSV"
	FileFormatXLS FileFormat = "XLS"
)

// ParseFileFormat accepts CSV or XLS in any case.
func ParseFileFormat(s string) (FileFormat, error) {
	switch FileFormat(strings.ToUpper(strings.TrimSpace(s))) {
	case FileFormatCSV:
		return FileFormatCSV, nil
	case FileFormatXLS:
		return FileFormatXLS, nil
	}
	return "", fmt.Errorf("%w: data type %q is unknown, expected CSV or XLS", ErrInvalidFileFormat, s)
}

// RemoveOptions controls RemoveAllContactsFromAddressBook.
type RemoveOptions struct {
	// PreventAddressBookResubscribe stops the contacts rejoining this address book.
	PreventAddressBookResubscribe bool
	// TotalUnsubscribe unsubscribes the contacts from the whole account.
	TotalUnsubscribe bool
}
