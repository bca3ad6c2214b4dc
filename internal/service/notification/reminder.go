package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/service/cache"
	"github.com/casaiglesia/casa-server/internal/util"
	"github.com/casaiglesia/casa-server/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	sentKeyPrefix  = "reminder:sent:"
	webhookTimeout = 10 * time.Second
	concurrency    = 10
)

// AssignmentSource yields upcoming assignments joined with their volunteers.
type AssignmentSource interface {
	FindUpcoming(ctx context.Context, window time.Duration) ([]*domain.AssignmentReminder, error)
}

// ReminderService periodically checks upcoming volunteer assignments and
// delivers webhook reminders at the configured advance marks. Redis keeps a
// sent marker per assignment and mark so a restart never double-notifies.
type ReminderService struct {
	source       AssignmentSource
	cache        *cache.CacheService
	httpClient   *http.Client
	logger       *zap.Logger
	advanceHours []int
	interval     time.Duration
}

type webhookPayload struct {
	Kind         string `json:"kind"`
	VolunteerID  string `json:"volunteer_id"`
	Volunteer    string `json:"volunteer"`
	Role         string `json:"role"`
	LiturgyTitle string `json:"liturgy_title"`
	ServiceDate  string `json:"service_date"`
	HoursUntil   int    `json:"hours_until"`
	Message      string `json:"message"`
}

func NewReminderService(source AssignmentSource, cacheService *cache.CacheService, advanceHours []int, interval time.Duration, logger *zap.Logger) *ReminderService {
	hours := util.Unique(advanceHours)
	sort.Ints(hours)

	logger.Info("Reminder schedule",
		zap.Ints("advance_hours", hours),
		zap.Duration("interval", interval),
	)

	return &ReminderService{
		source: source,
		cache:  cacheService,
		httpClient: &http.Client{
			Timeout: webhookTimeout,
		},
		logger:       logger,
		advanceHours: hours,
		interval:     interval,
	}
}

// Start runs the check loop until ctx is cancelled.
func (rs *ReminderService) Start(ctx context.Context) {
	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	rs.logger.Info("Reminder scheduler started")

	for {
		select {
		case <-ctx.Done():
			rs.logger.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			if err := rs.CheckOnce(ctx); err != nil {
				rs.logger.Error("Reminder check failed", zap.Error(err))
			}
		}
	}
}

// CheckOnce performs a single pass: find assignments inside the widest
// advance window, pick the due mark for each, and fan out webhooks.
func (rs *ReminderService) CheckOnce(ctx context.Context) (err error) {
	if len(rs.advanceHours) == 0 {
		return nil
	}

	window := time.Duration(rs.advanceHours[len(rs.advanceHours)-1]) * time.Hour
	reminders, err := rs.source.FindUpcoming(ctx, window)
	if err != nil {
		return fmt.Errorf("failed to load upcoming assignments: %w", err)
	}

	if len(reminders) == 0 {
		return nil
	}

	due := make([]*domain.AssignmentReminder, 0)
	marks := make([]int, 0)

	for _, reminder := range reminders {
		mark, ok := rs.dueMark(ctx, reminder)
		if !ok {
			continue
		}
		due = append(due, reminder)
		marks = append(marks, mark)
	}

	if len(due) == 0 {
		return nil
	}

	rs.logger.Info("Dispatching assignment reminders", zap.Int("count", len(due)))

	p := pool.New().WithMaxGoroutines(concurrency)
	for i := range due {
		reminder, mark := due[i], marks[i]
		p.Go(func() {
			rs.dispatch(ctx, reminder, mark)
		})
	}
	p.Wait()

	return nil
}

// dueMark returns the most imminent advance mark the assignment has crossed.
// Once a mark is sent, larger (staler) marks never fire for that assignment.
func (rs *ReminderService) dueMark(ctx context.Context, reminder *domain.AssignmentReminder) (int, bool) {
	if reminder.Assignment == nil || reminder.Volunteer == nil {
		return 0, false
	}
	if reminder.Volunteer.WebhookURL == "" {
		return 0, false
	}

	hoursUntil := reminder.HoursUntil
	if hoursUntil < 0 {
		return 0, false
	}

	for _, mark := range rs.advanceHours {
		if hoursUntil > mark {
			continue
		}

		sent, err := rs.cache.Exists(ctx, rs.sentKey(reminder.Assignment.ID, mark))
		if err != nil {
			rs.logger.Warn("Failed to check sent marker",
				zap.String("assignment_id", reminder.Assignment.ID),
				zap.Error(err))
			return 0, false
		}
		if sent {
			return 0, false
		}
		return mark, true
	}

	return 0, false
}

func (rs *ReminderService) dispatch(ctx context.Context, reminder *domain.AssignmentReminder, mark int) {
	assignment := reminder.Assignment
	volunteer := reminder.Volunteer

	payload := webhookPayload{
		Kind:         "assignment_reminder",
		VolunteerID:  volunteer.ID,
		Volunteer:    volunteer.Name,
		Role:         assignment.Role,
		LiturgyTitle: reminder.LiturgyTitle,
		ServiceDate:  util.FormatServiceDate(assignment.ServiceDate),
		HoursUntil:   reminder.HoursUntil,
		Message: fmt.Sprintf("Recordatorio: sirves como %s el %s (%s)",
			assignment.Role, util.FormatServiceDate(assignment.ServiceDate), reminder.LiturgyTitle),
	}

	if err := rs.postWebhook(ctx, volunteer.WebhookURL, payload); err != nil {
		rs.logger.Warn("Webhook delivery failed",
			zap.String("assignment_id", assignment.ID),
			zap.String("volunteer", volunteer.Name),
			zap.Error(err))
		return
	}

	if err := rs.cache.Set(ctx, rs.sentKey(assignment.ID, mark), time.Now().Format(time.RFC3339), constants.CacheTTL.ReminderSent); err != nil {
		rs.logger.Warn("Failed to record sent marker",
			zap.String("assignment_id", assignment.ID),
			zap.Error(err))
	}

	rs.logger.Info("Reminder delivered",
		zap.String("volunteer", volunteer.Name),
		zap.String("role", assignment.Role),
		zap.Int("advance_hours", mark),
	)
}

func (rs *ReminderService) postWebhook(ctx context.Context, url string, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rs.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewServiceError("webhook rejected reminder", "webhook", "post",
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	return nil
}

func (rs *ReminderService) sentKey(assignmentID string, mark int) string {
	return fmt.Sprintf("%s%s:%dh", sentKeyPrefix, assignmentID, mark)
}
