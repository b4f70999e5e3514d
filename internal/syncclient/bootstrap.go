package syncclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/config"
)

// SeatState is a seat as rendered into the page.  ScoreAttr and ScoreLabel
// are the rendered forms of the score; when either is present it wins over
// Total.
type SeatState struct {
	UserID     uint64  `json:"user_id"`
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Locked     bool    `json:"locked"`
	Total      int     `json:"total"`
	ScoreAttr  string  `json:"score_attr,omitempty"`
	ScoreLabel string  `json:"score_label,omitempty"`
}

// Bootstrap is everything a chart page is rendered with: endpoint
// configuration, the anti-forgery token and the seats.
type Bootstrap struct {
	Config    config.PageConfig `json:"config"`
	CSRFToken string            `json:"csrf_token"`
	Seats     []SeatState       `json:"seats"`
}

// FetchBootstrap loads the chart page data of a course.  The returned
// Config is what New expects; pass the same options (cookie jar, bearer
// token) to both so the anti-forgery cookie travels with later calls.
func FetchBootstrap(ctx context.Context, baseURL string, courseID uint64, opts ...Option) (*Bootstrap, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	c := &Client{base: base, http: http.DefaultClient, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	var out Bootstrap
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d/seating", courseID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
