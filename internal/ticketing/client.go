package ticketing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"ticketsync/internal/config"
	"ticketsync/internal/logger"
	"ticketsync/internal/models"
)

// Endpoint pairs a request path with the prefix used in its signing string.
// Paths are relative to the configured base URL (which carries the version
// segment); SignPrefix is whatever the upstream verifies for that endpoint.
type Endpoint struct {
	Path       string
	SignPrefix string
}

func groupEventsEndpoint(groupID int64) Endpoint {
	return Endpoint{Path: fmt.Sprintf("/groups/%d/events", groupID), SignPrefix: "/v1"}
}

func eventOrdersEndpoint(eventID int64) Endpoint {
	return Endpoint{Path: fmt.Sprintf("/events/%d/orders", eventID), SignPrefix: "/v1"}
}

func userOrdersEndpoint(userID int64) Endpoint {
	return Endpoint{Path: fmt.Sprintf("/users/%d/orders", userID), SignPrefix: "/v1"}
}

// Attendance signs the bare path. Verified against the live API; do not
// "fix" this to match the list endpoints.
func attendanceEndpoint(eventID int64, serial string) Endpoint {
	return Endpoint{Path: fmt.Sprintf("/events/%d/tickets/%s/attendance", eventID, serial)}
}

func eventEndpoint(eventID int64) Endpoint {
	return Endpoint{Path: fmt.Sprintf("/events/%d", eventID), SignPrefix: "/v1"}
}

func orderEndpoint(orderID int64) Endpoint {
	return Endpoint{Path: fmt.Sprintf("/orders/%d", orderID), SignPrefix: "/v1"}
}

func userEndpoint(userID int64) Endpoint {
	return Endpoint{Path: fmt.Sprintf("/users/%d", userID), SignPrefix: "/v1"}
}

// FailurePolicy controls what a multi-page fetch does when one page exhausts
// its retries.
type FailurePolicy int

const (
	// PropagateError aborts the fetch and surfaces the failure so the caller
	// can skip just the affected unit of work.
	PropagateError FailurePolicy = iota
	// ReturnPartial keeps the pages fetched so far and drops the rest.
	ReturnPartial
)

// Client talks to the ticketing platform API. Transient failures (timeouts,
// 5xx) are retried inside resty with a bounded attempt count and backoff;
// what escapes the client is either a final error or a clean response.
type Client struct {
	http      *resty.Client
	signer    *Signer
	apiKey    string
	groupID   int64
	pageSize  int
	pageDelay time.Duration
	logger    *logger.Logger

	now func() time.Time
}

func NewClient(cfg config.TicketingConfig, log *logger.Logger) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryMax).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(10 * cfg.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		http:      rc,
		signer:    NewSigner(cfg.APISecret),
		apiKey:    cfg.APIKey,
		groupID:   cfg.GroupID,
		pageSize:  cfg.PageSize,
		pageDelay: cfg.PageDelay,
		logger:    log,
		now:       time.Now,
	}
}

// get issues one signed GET. A fresh timestamp goes into every request; the
// remote rejects stale ones. 404 is returned as a status, not an error.
func (c *Client) get(ctx context.Context, ep Endpoint, params url.Values, out interface{}) (int, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)
	params.Set("timestamp", strconv.FormatInt(c.now().Unix(), 10))

	canonical, signature := c.signer.Sign(ep, params)

	started := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		Get(ep.Path + "?" + canonical + "&hash=" + signature)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", ep.Path, err)
	}

	c.logger.LogAPI("GET", ep.Path, resp.Status(), time.Since(started).Round(time.Millisecond).String())

	switch resp.StatusCode() {
	case http.StatusOK:
		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return resp.StatusCode(), fmt.Errorf("decode %s: %w", ep.Path, err)
			}
		}
		return http.StatusOK, nil
	case http.StatusNotFound:
		return http.StatusNotFound, nil
	default:
		return resp.StatusCode(), fmt.Errorf("GET %s: status %d", ep.Path, resp.StatusCode())
	}
}

// fetchAllPages walks a list endpoint page by page until an empty or short
// page signals the end. An empty 404 body also terminates cleanly.
func fetchAllPages[T any](ctx context.Context, c *Client, ep Endpoint, params url.Values, policy FailurePolicy) ([]T, error) {
	all := []T{}
	for page := 1; ; page++ {
		p := url.Values{}
		for k, v := range params {
			p[k] = v
		}
		p.Set("page", strconv.Itoa(page))
		p.Set("page_size", strconv.Itoa(c.pageSize))

		var batch []T
		status, err := c.get(ctx, ep, p, &batch)
		if err != nil {
			if policy == ReturnPartial {
				c.logger.Warn("API", fmt.Sprintf("page %d of %s failed, keeping %d records: %v", page, ep.Path, len(all), err))
				return all, nil
			}
			return nil, fmt.Errorf("page %d of %s: %w", page, ep.Path, err)
		}
		if status == http.StatusNotFound {
			return all, nil
		}

		all = append(all, batch...)
		if len(batch) < c.pageSize {
			return all, nil
		}

		// Upstream rate limit courtesy.
		time.Sleep(c.pageDelay)
	}
}

// ListGroupEvents fetches every event of the configured group. Failure
// propagates: an incomplete event list must never feed the removal logic.
func (c *Client) ListGroupEvents(ctx context.Context) ([]models.APIEvent, error) {
	return fetchAllPages[models.APIEvent](ctx, c, groupEventsEndpoint(c.groupID), nil, PropagateError)
}

// ListEventOrders fetches all orders of one event, optionally filtered by
// completion status. Failure propagates so the caller can skip just this
// event without losing already-synced peers.
func (c *Client) ListEventOrders(ctx context.Context, eventID int64, status string) ([]models.Order, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	return fetchAllPages[models.Order](ctx, c, eventOrdersEndpoint(eventID), params, PropagateError)
}

// ListUserOrders fetches one user's order history. Partial results are
// acceptable here: a truncated history still refreshes the profile.
func (c *Client) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return fetchAllPages[models.Order](ctx, c, userOrdersEndpoint(userID), nil, ReturnPartial)
}

// GetAttendance fetches the check-in state for one ticket serial. A 404 means
// the ticket has no attendance history yet and returns (nil, nil).
func (c *Client) GetAttendance(ctx context.Context, eventID int64, serial string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	status, err := c.get(ctx, attendanceEndpoint(eventID, serial), nil, &record)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return &record, nil
}

// GetEvent fetches a single event, used for webhook follow-ups. Returns
// (nil, nil) when the event no longer exists upstream.
func (c *Client) GetEvent(ctx context.Context, eventID int64) (*models.APIEvent, error) {
	var event models.APIEvent
	status, err := c.get(ctx, eventEndpoint(eventID), nil, &event)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return &event, nil
}

// GetUser fetches a buyer profile. Returns (nil, nil) for unknown users.
func (c *Client) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	status, err := c.get(ctx, userEndpoint(userID), nil, &user)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return &user, nil
}

// GetOrder fetches a single order, used for webhook follow-ups. Returns
// (nil, nil) when the order no longer exists upstream.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	status, err := c.get(ctx, orderEndpoint(orderID), nil, &order)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return &order, nil
}
