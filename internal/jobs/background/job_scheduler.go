package background

import (
	"context"
	"log"
	"sync"
	"time"

	"invoicedesk/internal/caching"
	"invoicedesk/internal/models"
	"invoicedesk/internal/repositories"
	"invoicedesk/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages background maintenance jobs
type JobScheduler struct {
	scheduler   gocron.Scheduler
	invoiceRepo repositories.InvoiceRepository
	mailer      services.MailerService
	cacheSvc    caching.CacheService
	jobs        map[string]gocron.Job
	mu          sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(invoiceRepo repositories.InvoiceRepository, mailer services.MailerService, cacheSvc caching.CacheService) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		invoiceRepo: invoiceRepo,
		mailer:      mailer,
		cacheSvc:    cacheSvc,
		jobs:        make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Reminder janitor - every hour
	janitorJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.reconcileReminders, context.Background()),
		gocron.WithName("reminder-janitor"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create reminder janitor job: %v", err)
	} else {
		js.jobs["reminder-janitor"] = janitorJob
	}

	// Dashboard cache warmer - every 5 minutes
	warmerJob, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.warmInvoiceListCache, context.Background()),
		gocron.WithName("list-cache-warmer"),
	)
	if err != nil {
		log.Printf("Failed to create cache warmer job: %v", err)
	} else {
		js.jobs["list-cache-warmer"] = warmerJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// reconcileReminders sweeps invoices that still carry a scheduled reminder
// id and clears the ones that no longer make sense: reminders for invoices
// already paid or bounced are cancelled at the gateway, and ids whose fire
// time has already passed are dropped as stale.
func (js *JobScheduler) reconcileReminders(ctx context.Context) error {
	invoices, err := js.invoiceRepo.List(ctx)
	if err != nil {
		log.Printf("Reminder janitor: failed to list invoices: %v", err)
		return err
	}

	now := time.Now()
	cancelled := 0
	cleared := 0

	for _, invoice := range invoices {
		if invoice.ScheduledReminderID == nil {
			continue
		}

		if invoice.Paid() || invoice.Status == models.StatusBounced {
			if err := js.mailer.CancelScheduled(ctx, *invoice.ScheduledReminderID); err != nil {
				log.Printf("Reminder janitor: failed to cancel reminder for invoice %s: %v", invoice.ID, err)
				continue
			}
			if err := js.invoiceRepo.ClearScheduledReminderID(ctx, invoice.ID); err != nil {
				log.Printf("Reminder janitor: failed to clear reminder id for invoice %s: %v", invoice.ID, err)
				continue
			}
			cancelled++
			continue
		}

		dueDate, err := invoice.DueDateTime()
		if err != nil {
			continue
		}
		if dueDate.Add(-services.ReminderLeadTime).Before(now.Add(-24 * time.Hour)) {
			// The reminder fired over a day ago; the id can no longer be
			// cancelled and keeping it only invites dangling cancels.
			if err := js.invoiceRepo.ClearScheduledReminderID(ctx, invoice.ID); err != nil {
				log.Printf("Reminder janitor: failed to clear stale reminder id for invoice %s: %v", invoice.ID, err)
				continue
			}
			cleared++
		}
	}

	if cancelled > 0 || cleared > 0 {
		log.Printf("Reminder janitor: cancelled %d reminders, cleared %d stale ids", cancelled, cleared)
	}
	return nil
}

// warmInvoiceListCache refreshes the dashboard list cache so the first
// request after an idle period does not pay the query cost.
func (js *JobScheduler) warmInvoiceListCache(ctx context.Context) error {
	if js.cacheSvc == nil {
		return nil
	}

	invoices, err := js.invoiceRepo.List(ctx)
	if err != nil {
		log.Printf("Cache warmer: failed to list invoices: %v", err)
		return err
	}

	if err := js.cacheSvc.SetInvoiceList(ctx, invoices, 5*time.Minute); err != nil {
		log.Printf("Cache warmer: failed to cache invoice list: %v", err)
		return err
	}
	return nil
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	js.jobs[name] = job
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobs, name)
		return err
	}
	return nil
}
