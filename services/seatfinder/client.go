package seatfinder

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"seatfinder-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/seatfinder")

// NetworkError covers connect failures, read timeouts, non-2xx statuses
// and empty bodies. A task that hits one contributes zero records and is
// never fatal to the batch.
type NetworkError struct {
	Venue string
	Op    string
	Err   error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("venue %s: %s: %v", e.Venue, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// the remote reports render this phrase instead of an empty table
var noDataMarkers = []string{"no records found", "no data", "no results"}

const defaultFormAction = "fetch_data.php"

// VenueClient performs the two-step handshake against one venue endpoint:
// fetch the landing page, discover the form target and hidden fields, then
// submit the date/session query. Each search task owns its own client; it
// is never shared and should be released with Close after use.
type VenueClient struct {
	venue Venue
	http  *resty.Client
}

func NewVenueClient(venue Venue, cfg Config) (*VenueClient, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	client.SetTimeout(cfg.ReadTimeout)

	telemetry.InstrumentResty(client, "seatfinder/venue")

	return &VenueClient{
		venue: venue,
		http:  client,
	}, nil
}

// FetchReport returns the raw HTML of the venue's seating report for one
// date and exam session, or "" with ok=false when the venue reported no
// records for that combination.
func (c *VenueClient) FetchReport(ctx context.Context, date, session string) (string, bool, error) {
	ctx, span := tracer.Start(ctx, "client:FetchReport")
	defer span.End()
	span.SetAttributes(
		attribute.String("venue", c.venue.Code),
		attribute.String("date", date),
		attribute.String("session", session),
	)

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.venue.BaseUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch landing page")
		return "", false, &NetworkError{Venue: c.venue.Code, Op: "get landing page", Err: err}
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "landing page returned non-2xx")
		return "", false, &NetworkError{
			Venue: c.venue.Code,
			Op:    "get landing page",
			Err:   fmt.Errorf("status %d", res.StatusCode()),
		}
	}

	formURL, hidden := discoverForm(c.venue.BaseUrl, res.Body())

	formData := map[string]string{
		"dated":   date,
		"session": session,
		"submit":  "Submit",
	}
	for name, value := range hidden {
		formData[name] = value
	}

	origin := c.venue.BaseUrl
	if idx := strings.LastIndex(origin, "/"); idx != -1 {
		origin = origin[:idx]
	}

	res, err = c.http.R().
		SetContext(ctx).
		SetHeader("referer", c.venue.BaseUrl).
		SetHeader("origin", origin).
		SetFormData(formData).
		Post(formURL)
	if err != nil {
		span.SetStatus(codes.Error, "form submission failed")
		return "", false, &NetworkError{Venue: c.venue.Code, Op: "submit query form", Err: err}
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "form submission returned non-2xx")
		return "", false, &NetworkError{
			Venue: c.venue.Code,
			Op:    "submit query form",
			Err:   fmt.Errorf("status %d", res.StatusCode()),
		}
	}

	body := res.String()
	if body == "" {
		span.SetStatus(codes.Error, "empty response body")
		return "", false, &NetworkError{
			Venue: c.venue.Code,
			Op:    "submit query form",
			Err:   fmt.Errorf("empty response body"),
		}
	}

	lower := strings.ToLower(body)
	for _, marker := range noDataMarkers {
		if strings.Contains(lower, marker) {
			span.AddEvent("no records marker found")
			return "", false, nil
		}
	}

	return body, true, nil
}

// Close releases the client's idle connections. Clients are created per
// task, so this bounds peak memory during high-fanout bursts.
func (c *VenueClient) Close() {
	c.http.GetClient().CloseIdleConnections()
}

// discoverForm locates the first form on the landing page, resolves its
// action against the base url, and collects the hidden input fields. A
// missing form falls back to the report endpoint's conventional action.
func discoverForm(baseUrl string, landingPage []byte) (string, map[string]string) {
	hidden := map[string]string{}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(landingPage))
	if err != nil {
		return resolveFormURL(baseUrl, defaultFormAction), hidden
	}

	form := doc.Find("form").First()
	action := defaultFormAction
	if form.Length() > 0 {
		if attr, ok := form.Attr("action"); ok && attr != "" {
			action = attr
		}
		form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
			name, ok := input.Attr("name")
			if !ok || name == "" {
				return
			}
			hidden[name] = input.AttrOr("value", "")
		})
	}

	return resolveFormURL(baseUrl, action), hidden
}

func resolveFormURL(baseUrl, action string) string {
	if strings.HasPrefix(action, "http") {
		return action
	}
	base := baseUrl
	if idx := strings.LastIndex(base, "/"); idx != -1 {
		base = base[:idx]
	}
	return base + "/" + strings.TrimPrefix(action, "/")
}
