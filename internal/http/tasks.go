package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/http/response"
	"github.com/mrlokans/librarian/internal/tasks"
)

const taskStatusTimeout = 5 * time.Second

// RunTaskRequest is the optional body of POST /api/tasks/:type/run.
type RunTaskRequest struct {
	// RetentionDays overrides the configured audit retention.
	RetentionDays int `json:"retention_days,omitempty" form:"retention_days" binding:"omitempty,min=1,max=3650"`
}

// TaskTypeInfo describes a task an operator may run by hand.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// manualTask builds the task to enqueue for one task type.
type manualTask struct {
	info  TaskTypeInfo
	build func(req RunTaskRequest) backlite.Task
}

// TasksController lets operators trigger library maintenance and follow it.
type TasksController struct {
	queue TaskQueue
	known []manualTask
}

// NewTasksController creates a new TasksController. retentionDays is the
// audit retention used when a cleanup run does not specify one.
func NewTasksController(queue TaskQueue, retentionDays int) *TasksController {
	return &TasksController{
		queue: queue,
		known: []manualTask{
			{
				info: TaskTypeInfo{
					Type:        tasks.CleanupAuditEventsQueue,
					Description: "Delete audit events older than the retention period",
				},
				build: func(req RunTaskRequest) backlite.Task {
					days := req.RetentionDays
					if days <= 0 {
						days = retentionDays
					}
					return tasks.CleanupAuditEventsTask{RetentionDays: days}
				},
			},
		},
	}
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := make([]TaskTypeInfo, 0, len(tc.known))
	for _, t := range tc.known {
		types = append(types, t.info)
	}
	response.OK(c, gin.H{"task_types": types})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), taskStatusTimeout)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if status == backlite.TaskStatusNotFound {
		response.Error(c, domainerrors.NotFoundf("", "task %s not found", taskID))
		return
	}

	response.OK(c, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var task *manualTask
	for i := range tc.known {
		if tc.known[i].info.Type == taskType {
			task = &tc.known[i]
			break
		}
	}
	if task == nil {
		response.BadRequest(c, "unknown task type: "+taskType)
		return
	}

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			response.BadRequest(c, "invalid request body")
			return
		}
	}

	id, err := tc.queue.Enqueue(c.Request.Context(), task.build(req))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": id,
		"type":    taskType,
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
