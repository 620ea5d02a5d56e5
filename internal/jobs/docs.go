// Package jobs provides scheduled background tasks for the dispatch service.
//
// Jobs use github.com/robfig/cron/v3 with a seconds field.
//
// # Available Jobs
//
// OutboxRelayJob - relays committed delivery run events from the outbox table
// to the event publisher (Redis pub/sub). Messages that keep failing are
// retried until they reach the configured attempt limit and are then left for
// an operator.
//
// # Usage
//
//	relay := jobs.NewOutboxRelayJob(outbox, publisher, locker, jobs.OutboxRelayOptions{}, log, jobMetrics)
//	manager := jobs.NewJobManager(log, relay)
//	if err := manager.StartAll(); err != nil {
//		return err
//	}
//	defer manager.StopAll()
//
// # Coordination
//
// When a locker is given, each pass takes a Redis lock first and is skipped
// if another instance holds it. Without one, every instance relays and
// subscribers rely on the event id to drop duplicates.
package jobs
