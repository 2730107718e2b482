package meeting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sparks-server/internal/models"
	"sparks-server/internal/scheduling"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarProvisioner creates a Google Calendar event with a Meet
// conference for a session and returns the join link plus the event id.
type CalendarProvisioner struct {
	service    *calendar.Service
	calendarID string
	logger     *zap.Logger
}

// NewCalendarProvisioner builds a provisioner from a service-account
// credentials file.
func NewCalendarProvisioner(ctx context.Context, credentialsFile, calendarID string, logger *zap.Logger) (*CalendarProvisioner, error) {
	service, err := calendar.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(calendar.CalendarEventsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &CalendarProvisioner{service: service, calendarID: calendarID, logger: logger}, nil
}

// ProvisionLink inserts the calendar event and returns its Meet link.
func (p *CalendarProvisioner) ProvisionLink(ctx context.Context, session *models.TherapySession) (string, string, error) {
	start := session.ScheduledAt.UTC()
	end := start.Add(scheduling.SessionMinutes * time.Minute)

	event := &calendar.Event{
		Summary:     fmt.Sprintf("Therapy session (%s)", session.Type),
		Description: "Scheduled through the practice portal.",
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: "UTC"},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: "UTC"},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: uuid.New().String(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}

	created, err := p.service.Events.Insert(p.calendarID, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to insert calendar event: %w", err)
	}

	link := created.HangoutLink
	if link == "" {
		link = created.HtmlLink
	}
	p.logger.Debug("calendar event created",
		zap.String("eventId", created.Id), zap.String("link", link))
	return link, created.Id, nil
}

// LocalProvisioner generates placeholder meeting links without any
// external integration. Used when no calendar credentials are
// configured.
type LocalProvisioner struct {
	appURL string
}

// NewLocalProvisioner creates a LocalProvisioner rooted at the app URL.
func NewLocalProvisioner(appURL string) *LocalProvisioner {
	return &LocalProvisioner{appURL: strings.TrimSuffix(appURL, "/")}
}

// ProvisionLink returns a deterministic-format local meeting URL.
func (p *LocalProvisioner) ProvisionLink(ctx context.Context, session *models.TherapySession) (string, string, error) {
	return fmt.Sprintf("%s/meet/%s", p.appURL, uuid.New().String()), "", nil
}
