package yadisk

import (
	"context"

	"github.com/contractbot/contract-reminder/internal/common"
)

// Client uploads generated documents to Yandex.Disk.
// The upload itself is not implemented yet; callers treat a failed
// upload as "no shareable link".
type Client struct {
	token string
}

func NewClient(token string) *Client {
	return &Client{token: token}
}

// Enabled reports whether a token is configured.
func (c *Client) Enabled() bool {
	return c.token != ""
}

// Upload pushes a file to the disk and returns a shareable link.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	return "", common.WrapError(common.ErrNotImplemented, "yadisk upload")
}
