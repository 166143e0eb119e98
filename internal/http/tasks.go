package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/catalog/internal/scheduler"
)

// TasksController exposes the background queue to admins.
type TasksController struct {
	queue TaskQueue
	jobs  JobRunner
}

func NewTasksController(queue TaskQueue, jobs JobRunner) *TasksController {
	return &TasksController{queue: queue, jobs: jobs}
}

// ListJobs handles GET /api/tasks/types.
func (tc *TasksController) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"task_types": tc.jobs.Jobs()})
}

// GetTaskStatus handles GET /api/tasks/:id.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run and enqueues a scheduled job
// immediately.
func (tc *TasksController) RunTask(c *gin.Context) {
	name := c.Param("type")
	if err := tc.jobs.RunNow(c.Request.Context(), name); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			respondBadRequest(c, err.Error())
			return
		}
		respondInternalError(c, err, "run task "+name)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"type":    name,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
