package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "merenda/internal/jwt_token"
	"merenda/internal/notification"
	"merenda/internal/workflow/catalog"
	"merenda/pkg/domain"
	"merenda/pkg/platform/middleware/metadata"
	"merenda/pkg/testutil"
)

type fakeNotifications struct {
	gotUser    domain.UserID
	gotPending bool
	list       []notification.Notification
}

func (f *fakeNotifications) ListFor(_ context.Context, user domain.UserID, unresolvedOnly bool) ([]notification.Notification, error) {
	f.gotUser = user
	f.gotPending = unresolvedOnly
	return f.list, nil
}

type routerFixture struct {
	router        http.Handler
	tokens        *jwttoken.JWTService
	notifications *fakeNotifications
	healthErr     error
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	f := &routerFixture{
		tokens:        jwttoken.NewJWTService("test-key", "merenda", "merenda-api"),
		notifications: &fakeNotifications{},
	}
	f.router = NewRouter(RouterConfig{
		Requests:      NewRequestHandler(nil, staticWorkflows{}, logger),
		Workflows:     NewWorkflowHandler(staticWorkflows{}),
		Notifications: NewNotificationHandler(f.notifications, logger),
		Validator:     f.tokens,
		Metrics:       http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
		Health: map[string]HealthCheck{
			"database": func(context.Context) error { return f.healthErr },
		},
		Logger: logger,
	})
	return f
}

func (f *routerFixture) bearer(t *testing.T, req *http.Request, actor domain.Actor) *http.Request {
	t.Helper()
	token, err := f.tokens.GenerateAccessToken(actor, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRouter_Authentication(t *testing.T) {
	f := newRouterFixture(t)
	actor := domain.Actor{
		UserID:          domain.UserID(uuid.New()),
		Name:            "Bia",
		Role:            domain.RoleDistrictCoManager,
		InstitutionID:   domain.InstitutionID(uuid.New()),
		InstitutionKind: domain.InstitutionDistrict,
	}

	t.Run("missing token - 401", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/workflows"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthenticated")
	})

	t.Run("forged token - 401", func(t *testing.T) {
		other := jwttoken.NewJWTService("other-key", "merenda", "merenda-api")
		token, err := other.GenerateAccessToken(actor, time.Hour)
		require.NoError(t, err)
		req := testutil.NewRequest(t, http.MethodGet, "/workflows")
		req.Header.Set("Authorization", "Bearer "+token)

		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("valid token reaches the handler with its actor", func(t *testing.T) {
		f.notifications.list = []notification.Notification{{
			ID:       domain.NewNotificationID(),
			Category: notification.CategoryPendency,
			Title:    "Menu change 1A2B3 awaits validation",
		}}
		req := f.bearer(t, testutil.NewRequest(t, http.MethodGet, "/notifications?pending=true"), actor)

		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, actor.UserID, f.notifications.gotUser)
		assert.True(t, f.notifications.gotPending)
		got := testutil.UnmarshalResponse[[]notificationResponse](t, rr)
		require.Len(t, *got, 1)
		assert.Equal(t, "pendency", (*got)[0].Category)
	})

	t.Run("bad pending flag - 400", func(t *testing.T) {
		req := f.bearer(t, testutil.NewRequest(t, http.MethodGet, "/notifications?pending=maybe"), actor)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestRouter_RequestID(t *testing.T) {
	f := newRouterFixture(t)

	t.Run("echoes an inbound id", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/healthz")
		req.Header.Set(metadata.HeaderRequestID, "abc-123")
		rr := testutil.DoRequest(f.router, req)
		assert.Equal(t, "abc-123", rr.Header().Get(metadata.HeaderRequestID))
	})

	t.Run("generates one otherwise", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		_, err := uuid.Parse(rr.Header().Get(metadata.HeaderRequestID))
		assert.NoError(t, err)
	})
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(t, rr)

	f.healthErr = errors.New("connection refused")
	rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	testutil.AssertJSONContains(t, rr, "database", "connection refused")

	rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
}

func TestWorkflowHandler(t *testing.T) {
	f := newRouterFixture(t)
	actor := domain.Actor{UserID: domain.UserID(uuid.New()), Role: domain.RoleLogisticsCoordinator}

	t.Run("lists every definition", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, f.bearer(t, testutil.NewRequest(t, http.MethodGet, "/workflows"), actor))
		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[[]workflowView](t, rr)
		assert.Len(t, *got, len(catalog.Definitions()))
	})

	t.Run("describes one definition", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, f.bearer(t, testutil.NewRequest(t, http.MethodGet, "/workflows/"+catalog.DeliveryRequest), actor))
		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[workflowView](t, rr)
		assert.Equal(t, catalog.DeliveryAwaitingDispatch, got.Initial)
		assert.NotEmpty(t, got.Transitions)
		for _, st := range got.States {
			if st.Name == catalog.DeliveryCancelled {
				assert.Equal(t, "cancelled", string(st.Kind))
			}
		}
	})

	t.Run("unknown workflow - 404", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, f.bearer(t, testutil.NewRequest(t, http.MethodGet, "/workflows/nope"), actor))
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}
