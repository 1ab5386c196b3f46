package dotmailer

import (
	"context"
	"fmt"

	"github.com/natserract/dotmailer/pkg/soap"
)

// GetCurrentAccountInfo returns the account the credentials belong to.
func (c *Client) GetCurrentAccountInfo(ctx context.Context) (*AccountInfo, error) {
	resp, err := c.Call(ctx, "GetCurrentAccountInfo", nil)
	if err != nil {
		return nil, err
	}

	var info AccountInfo
	if err := decode(resp, &info, "GetCurrentAccountInfoResult"); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetServerTime returns the service clock as sent. The operation is public
// and is called without credentials.
func (c *Client) GetServerTime(ctx context.Context) (string, error) {
	resp, err := c.invoke(ctx, "GetServerTime", soap.Params{})
	if err != nil {
		return "", err
	}

	text, ok := resp.Text("GetServerTimeResult")
	if !ok {
		return "", fmt.Errorf("%w: GetServerTimeResult", ErrMissingResult)
	}
	return text, nil
}

// ParseServerTime parses a GetServerTime result.
func ParseServerTime(s string) (APITime, error) {
	return ParseAPITime(s)
}
