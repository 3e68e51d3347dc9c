package browser

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
	"github.com/entrhq/tabpilot/pkg/browser"
	"github.com/entrhq/tabpilot/pkg/logging"
)

var executorLog *logging.Logger

func init() {
	var err error
	executorLog, err = logging.NewLogger("executor")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		executorLog.Warnf("Failed to initialize executor logger, using stderr fallback: %v", err)
	}
}

// Executor performs decoded actions against a browser host.
type Executor struct {
	host      browser.Host
	reminders ReminderScheduler
	opts      Options

	// sleep is swapped in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor. reminders may be nil, in which case
// set_reminder reports that reminders are unavailable.
func NewExecutor(host browser.Host, reminders ReminderScheduler, opts Options) *Executor {
	return &Executor{
		host:      host,
		reminders: reminders,
		opts:      opts.withDefaults(),
		sleep:     sleepContext,
	}
}

// Execute performs action and returns the model-visible result. It never
// panics and never returns an error; every failure becomes a result string.
func (e *Executor) Execute(ctx context.Context, action decision.Action) (result string) {
	defer func() {
		if r := recover(); r != nil {
			executorLog.Errorf("action %v panicked: %v", describe(action), r)
			result = fmt.Sprintf("%s**Action Failed:** unexpected error: %v", FailureMarker, r)
		}
	}()

	if action == nil {
		return FailureMarker + "Error: No action provided."
	}

	executorLog.Debugf("executing %s", decision.JSON(action))

	switch a := action.(type) {
	case decision.Navigate:
		return e.navigate(ctx, a)
	case decision.Search:
		return e.search(ctx, a)
	case decision.NewTab:
		return e.newTab(ctx, a)
	case decision.CloseTab:
		return e.closeTab(ctx, a)
	case decision.SwitchTab:
		return e.switchTab(ctx, a)
	case decision.GetTabContent:
		return e.getTabContent(ctx, a)
	case decision.SetReminder:
		return e.setReminder(ctx, a)
	case decision.Scroll:
		return e.scroll(ctx, a)
	case decision.Click:
		return e.click(ctx, a)
	case decision.Type:
		return e.typeText(ctx, a)
	case decision.PressKey:
		return e.pressKey(ctx, a)
	case decision.TypeAndSubmit:
		return e.typeAndSubmit(ctx, a)
	case decision.AskSelection:
		if strings.TrimSpace(a.Question) == "" {
			return "Please choose one of the options."
		}
		return a.Question
	default:
		return "Unknown action: " + decision.Name(action)
	}
}

func describe(action decision.Action) string {
	if action == nil {
		return "<nil>"
	}
	return decision.Name(action)
}

// activeTab re-resolves the focused tab; the result is never cached.
func (e *Executor) activeTab(ctx context.Context) (*browser.Tab, string) {
	tab, err := e.host.ActiveTab(ctx)
	if err != nil || tab == nil {
		return nil, FailureMarker + "Error: No active tab found."
	}
	return tab, ""
}

func (e *Executor) setReminder(ctx context.Context, a decision.SetReminder) string {
	if math.IsNaN(a.Seconds) || a.Seconds <= 0 {
		return FailureMarker + "Error: Reminder duration must be a positive number of seconds."
	}
	if e.reminders == nil {
		return FailureMarker + "Error: Reminders are not available."
	}

	message := strings.TrimSpace(a.Message)
	if message == "" {
		message = "Reminder"
	}

	if a.Seconds > math.MaxInt64/float64(time.Second) {
		return FailureMarker + "Error: Reminder duration is too long."
	}
	after := time.Duration(a.Seconds * float64(time.Second))

	reminder, err := e.reminders.Schedule(ctx, message, after)
	if err != nil {
		return fmt.Sprintf("%s**Failed to set reminder**: %v", FailureMarker, err)
	}
	return fmt.Sprintf("%s**Reminder set** for %s: \"%s\" (at %s)",
		SuccessMarker, formatDuration(after), reminder.Message, reminder.TriggerAt.Format("15:04:05"))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}
	return d.Round(time.Second).String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
