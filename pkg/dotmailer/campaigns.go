package dotmailer

import (
	"context"

	"github.com/natserract/dotmailer/pkg/soap"
	"go.uber.org/zap"
)

type campaignList struct {
	Campaigns []Campaign `xml:"APICampaign"`
}

// ListSentCampaignsWithActivitySinceDate returns campaigns with activity on or
// after startDate, given as an xsd:dateTime string.
func (c *Client) ListSentCampaignsWithActivitySinceDate(ctx context.Context, startDate string) ([]Campaign, error) {
	if err := requireDateTime("startDate", startDate); err != nil {
		return nil, err
	}

	resp, err := c.Call(ctx, "ListSentCampaignsWithActivitySinceDate", soap.Params{
		{Name: "startDate", Value: startDate},
	})
	if err != nil {
		return nil, err
	}

	if !resp.Has("ListSentCampaignsWithActivitySinceDateResult", "APICampaign") {
		return []Campaign{}, nil
	}
	var list campaignList
	if err := decode(resp, &list, "ListSentCampaignsWithActivitySinceDateResult"); err != nil {
		return nil, err
	}

	c.logger.Debug("Retrieved sent campaigns",
		zap.String("start_date", startDate),
		zap.Int("count", len(list.Campaigns)))
	return list.Campaigns, nil
}

// GetCampaign retrieves a campaign.
func (c *Client) GetCampaign(ctx context.Context, campaignID int) (*Campaign, error) {
	resp, err := c.Call(ctx, "GetCampaign", soap.Params{
		{Name: "campaignId", Value: campaignID},
	})
	if err != nil {
		return nil, err
	}

	var campaign Campaign
	if err := decode(resp, &campaign, "GetCampaignResult"); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetCampaignSummary retrieves the send statistics of a campaign.
func (c *Client) GetCampaignSummary(ctx context.Context, campaignID int) (*CampaignSummary, error) {
	resp, err := c.Call(ctx, "GetCampaignSummary", soap.Params{
		{Name: "campaignId", Value: campaignID},
	})
	if err != nil {
		return nil, err
	}

	var summary CampaignSummary
	if err := decode(resp, &summary, "GetCampaignSummaryResult"); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListAddressBooksForCampaign returns the address books a campaign was sent
// to. A response without the nested list is an empty result.
func (c *Client) ListAddressBooksForCampaign(ctx context.Context, campaignID int) ([]AddressBook, error) {
	resp, err := c.Call(ctx, "ListAddressBooksForCampaign", soap.Params{
		{Name: "campaignID", Value: campaignID},
	})
	if err != nil {
		return nil, err
	}

	books, _, err := decodeAddressBooks(resp, "ListAddressBooksForCampaignResult")
	return books, err
}

// SendCampaignToContact schedules a campaign for a single contact at sendDate.
func (c *Client) SendCampaignToContact(ctx context.Context, campaignID, contactID int, sendDate string) error {
	if err := requireDateTime("sendDate", sendDate); err != nil {
		return err
	}

	if _, err := c.Call(ctx, "SendCampaignToContact", soap.Params{
		{Name: "campaignId", Value: campaignID},
		{Name: "contactid", Value: contactID},
		{Name: "sendDate", Value: sendDate},
	}); err != nil {
		return err
	}

	c.logger.Info("Scheduled campaign for contact",
		zap.Int("campaign_id", campaignID),
		zap.Int("contact_id", contactID),
		zap.String("send_date", sendDate))
	return nil
}
