package interfaces

// This file contains compile-time interface implementation checks.
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/catalog/internal/audit"
	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/database"
	catalogdb "github.com/mrlokans/catalog/internal/database/catalog"
	"github.com/mrlokans/catalog/internal/database/instances"
	"github.com/mrlokans/catalog/internal/database/users"
	"github.com/mrlokans/catalog/internal/http"
	"github.com/mrlokans/catalog/internal/loans"
	"github.com/mrlokans/catalog/internal/scheduler"
	"github.com/mrlokans/catalog/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ catalog.Store = (*catalogdb.Repository)(nil)
var _ catalog.InstanceStore = (*instances.Repository)(nil)
var _ catalog.UserSearcher = (*users.Repository)(nil)

var _ loans.InstanceStore = (*instances.Repository)(nil)
var _ loans.UserStore = (*users.Repository)(nil)

var _ tasks.OverdueFinder = (*loans.Service)(nil)

var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Services
// =============================================================================

var _ http.CatalogService = (*catalog.Service)(nil)
var _ http.LoanService = (*loans.Service)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ catalog.AuditLogger = (*audit.Service)(nil)
var _ loans.AuditLogger = (*audit.Service)(nil)
var _ auth.AuthEventLogger = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ tasks.OverdueRecorder = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.JobRunner = (*scheduler.Scheduler)(nil)
