package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"calguard/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	credentialsFile = "credentials.json"
)

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
}

// CalendarInfo describes one calendar accessible to the authenticated account.
type CalendarInfo struct {
	ID         string
	Summary    string
	AccessRole string
	Primary    bool
}

// NewClient creates a new Google Calendar client from a stored OAuth token.
// It supports multiple accounts by looking for token files like
// token-personal.json, token-work.json, etc. The accountName selects the file.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName string) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := fmt.Sprintf("token-%s.json", accountName)
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger}, nil
}

// NewServiceAccountClient creates a client from service account JSON, the
// credential mode used when running unattended (CI). Keys pasted into CI
// secrets often arrive with the private key newlines escaped, so those are
// unescaped before parsing.
func NewServiceAccountClient(ctx context.Context, logger *slog.Logger, credentialsJSON []byte) (*CalendarClient, error) {
	var info map[string]any
	if err := json.Unmarshal(credentialsJSON, &info); err != nil {
		return nil, fmt.Errorf("invalid service account credentials JSON: %w", err)
	}
	if key, ok := info["private_key"].(string); ok {
		info["private_key"] = strings.ReplaceAll(key, `\n`, "\n")
	}
	normalized, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode service account credentials: %w", err)
	}

	config, err := google.JWTConfigFromJSON(normalized, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	service, err := calendar.NewService(ctx, option.WithTokenSource(config.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger}, nil
}

// NewClientFromHTTP creates a client from a pre-configured HTTP client.
// Used by tests to point the service at a local server.
func NewClientFromHTTP(ctx context.Context, logger *slog.Logger, httpClient *http.Client) (*CalendarClient, error) {
	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{service: service, logger: logger}, nil
}

// EventsInWindow fetches single events scheduled between start and end from
// the specified calendar, in start-time order.
func (c *CalendarClient) EventsInWindow(ctx context.Context, calendarID string, start, end time.Time) ([]*models.Event, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("invalid window: start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	c.logger.Debug("Fetching events", "calendarID", calendarID, "start", start, "end", end)
	events, err := c.service.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(start.UTC().Format(time.RFC3339)).
		TimeMax(end.UTC().Format(time.RFC3339)).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Info("Fetched events from Google Calendar", "count", len(events.Items), "calendarID", calendarID)
	return toInternalEvents(events.Items), nil
}

// AddGuests appends one guest entry per email to the event's guest list and
// patches the event. The patch replaces the attendees field wholesale, so the
// existing entries are sent back unmodified alongside the new ones.
func (c *CalendarClient) AddGuests(ctx context.Context, calendarID string, event *models.Event, emails []string) error {
	attendees := make([]*calendar.EventAttendee, 0, len(event.Guests)+len(emails))
	for _, g := range event.Guests {
		attendees = append(attendees, &calendar.EventAttendee{Email: g.Email, ResponseStatus: g.ResponseStatus})
	}
	for _, email := range emails {
		attendees = append(attendees, &calendar.EventAttendee{Email: email, ResponseStatus: "accepted"})
	}

	patch := &calendar.Event{Attendees: attendees}
	if _, err := c.service.Events.Patch(calendarID, event.ID, patch).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to patch event %s: %w", event.ID, err)
	}

	c.logger.Info("Added guests to event", "eventTitle", event.Title, "emails", emails)
	return nil
}

// ListCalendars returns all calendars accessible to the authenticated account.
func (c *CalendarClient) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	var calendars []CalendarInfo
	for _, item := range list.Items {
		calendars = append(calendars, CalendarInfo{
			ID:         item.Id,
			Summary:    item.Summary,
			AccessRole: item.AccessRole,
			Primary:    item.Primary,
		})
	}
	return calendars, nil
}

// toInternalEvents converts Google Calendar events to the internal Event model.
func toInternalEvents(googleEvents []*calendar.Event) []*models.Event {
	var internalEvents []*models.Event
	for _, item := range googleEvents {
		event := &models.Event{
			ID:          item.Id,
			Title:       item.Summary,
			Description: item.Description,
			Location:    item.Location,
			StartTime:   parseEventTime(item.Start),
			EndTime:     parseEventTime(item.End),
		}
		if item.Organizer != nil {
			event.Organizer = item.Organizer.Email
		}
		if item.Source != nil {
			event.SourceTitle = item.Source.Title
		}
		for _, a := range item.Attendees {
			event.Guests = append(event.Guests, models.Guest{Email: a.Email, ResponseStatus: a.ResponseStatus})
		}
		internalEvents = append(internalEvents, event)
	}
	return internalEvents
}

// parseEventTime handles both timed and all-day events. All-day events
// resolve to midnight UTC of their date.
func parseEventTime(t *calendar.EventDateTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	if t.DateTime != "" {
		parsed, _ := time.Parse(time.RFC3339, t.DateTime)
		return parsed
	}
	parsed, _ := time.Parse("2006-01-02", t.Date)
	return parsed
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes environment variables over a local credentials.json file.
// The full calendar scope is required because the guest-list patch writes.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the root directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(context.Background(), authCode)
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// GetTokenAccounts lists the account names that have a stored token file.
func GetTokenAccounts() ([]string, error) {
	files, err := os.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "token-") && strings.HasSuffix(file.Name(), ".json") {
			accountName := strings.TrimSuffix(strings.TrimPrefix(file.Name(), "token-"), ".json")
			accounts = append(accounts, accountName)
		}
	}
	return accounts, nil
}
