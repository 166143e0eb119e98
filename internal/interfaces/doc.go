// Package interfaces documents the seams between the catalog's layers and
// holds compile-time checks that the concrete types satisfy them.
//
// # Layers
//
// Each consumer declares the narrow interface it needs next to its own code:
//
//   - catalog.Store, catalog.InstanceStore, catalog.UserSearcher: persistence
//     behind the catalog service (internal/database/catalog, instances, users)
//   - loans.InstanceStore, loans.UserStore: persistence behind the loan
//     lifecycle (internal/database/instances, users)
//   - catalog.AuditLogger, loans.AuditLogger, auth.AuthEventLogger: audit
//     sinks, all implemented by audit.Service
//   - http.CatalogService, http.LoanService, http.AuditReader: what the JSON
//     handlers call (internal/http/config.go)
//   - http.TaskQueue, http.JobRunner, scheduler.Enqueuer: background work
//     (internal/tasks, internal/scheduler)
//
// # Adding a Background Job
//
//  1. Define a task type and queue in internal/tasks/
//
//     type ReminderTask struct{ AsOf string `json:"as_of"` }
//
//     func (t ReminderTask) Config() backlite.QueueConfig { ... }
//
//     func NewReminderQueue(finder OverdueFinder) backlite.Queue { ... }
//
//  2. Register the queue in entrypoint.NewApp with taskClient.Register.
//
//  3. Add a cron entry in scheduler.New so the job runs on a schedule and
//     can be triggered from POST /api/tasks/:type/run.
package interfaces
