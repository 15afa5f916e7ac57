package task_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-opsportal/internal/rbac"
	"go-opsportal/internal/rbac/infra"
	"go-opsportal/internal/shared/apperror"
	"go-opsportal/internal/task"
	taskerrors "go-opsportal/internal/task/errors"
	taskMock "go-opsportal/internal/task/mock"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newTaskRouter(t *testing.T, svc task.Service, actor rbac.Actor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, apperror.Init())

	enforcer, err := infra.NewEnforcer()
	require.NoError(t, err)
	rbacService, err := rbac.NewService(enforcer, zap.NewNop())
	require.NoError(t, err)

	withActor := func(c *gin.Context) { rbac.SetActor(c, actor); c.Next() }
	passthrough := func(c *gin.Context) { c.Next() }

	router := gin.New()
	task.RegisterRoutes(router.Group("/api/v1"), task.NewHandler(svc, zap.NewNop()), rbacService, passthrough, withActor)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error.Code
}

func TestTaskHandler_Create(t *testing.T) {
	manager := active(rbac.RoleManager)

	t.Run("created", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := taskMock.NewMockService(ctrl)
		router := newTaskRouter(t, svc, manager)
		req := task.CreateTaskRequest{Title: "Count", AssignedTo: []string{uuid.NewString()}}
		svc.EXPECT().Create(gomock.Any(), manager, req).Return(task.TaskResponse{ID: "t-1"}, nil)

		w := doJSON(router, http.MethodPost, "/api/v1/tasks", req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("assignee must be a uuid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTaskRouter(t, taskMock.NewMockService(ctrl), manager)

		w := doJSON(router, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "Count", "assigned_to": []string{"bob"}})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_Resolve(t *testing.T) {
	approver := active(rbac.RoleStaff)
	id := uuid.NewString()

	t.Run("already resolved", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := taskMock.NewMockService(ctrl)
		router := newTaskRouter(t, svc, approver)
		svc.EXPECT().
			Resolve(gomock.Any(), approver, id, task.ResolveTaskRequest{Decision: "approve"}).
			Return(task.TaskResponse{}, taskerrors.ErrAlreadyResolved)

		w := doJSON(router, http.MethodPost, "/api/v1/tasks/"+id+"/resolve", map[string]string{"decision": "approve"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ALREADY_TERMINAL", errorCode(t, w))
	})

	t.Run("unknown decision", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTaskRouter(t, taskMock.NewMockService(ctrl), approver)

		w := doJSON(router, http.MethodPost, "/api/v1/tasks/"+id+"/resolve", map[string]string{"decision": "later"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_DelegateNeedsAssign(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := newTaskRouter(t, taskMock.NewMockService(ctrl), active(rbac.RoleStaff))

	w := doJSON(router, http.MethodPost, "/api/v1/tasks/"+uuid.NewString()+"/delegate",
		task.DelegateTaskRequest{From: uuid.NewString(), To: uuid.NewString()})

	assert.Equal(t, http.StatusForbidden, w.Code)
}
