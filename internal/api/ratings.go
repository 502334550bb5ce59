package api

import (
	"context"
	"fmt"

	"github.com/valyala/fasthttp"
)

type RatingVariant struct {
	PassRating float64 `json:"passRating"`
	AccRating  float64 `json:"accRating"`
	TechRating float64 `json:"techRating"`
	StarRating float64 `json:"starRating"`
}

type AiRatings struct {
	None RatingVariant `json:"none"`
	SS   RatingVariant `json:"ss"`
	FS   RatingVariant `json:"fs"`
	SF   RatingVariant `json:"sf"`
}

// GetAiRatings asks the rating model for predicted difficulty ratings. This
// endpoint lives on the staging host, separately configurable from the
// primary API base.
func (c *Client) GetAiRatings(ctx context.Context, hash, modeName string, value int) (*AiRatings, error) {
	url := fmt.Sprintf("%s/ppai2/%s/%s/%d", c.stagingURL, hash, modeName, value)
	return doRequest[AiRatings](ctx, c, fasthttp.MethodGet, url, nil, nil, "", "")
}
