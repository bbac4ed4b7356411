package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"merenda/internal/audit"
	"merenda/internal/request/models"
	"merenda/internal/request/service"
	"merenda/internal/transport/http/mocks"
	"merenda/internal/workflow"
	"merenda/internal/workflow/catalog"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
	"merenda/pkg/testutil"
)

type staticWorkflows struct{}

func (staticWorkflows) Definition(name string) (*workflow.Definition, error) {
	d, ok := catalog.DefinitionNamed(name)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "workflow not found")
	}
	return d, nil
}

func (staticWorkflows) Definitions() []*workflow.Definition { return catalog.Definitions() }

type RequestHandlerSuite struct {
	suite.Suite
	actor domain.Actor
}

func TestRequestHandlerSuite(t *testing.T) {
	suite.Run(t, new(RequestHandlerSuite))
}

func (s *RequestHandlerSuite) SetupSuite() {
	s.actor = domain.Actor{
		UserID:          domain.UserID(uuid.New()),
		Name:            "Ana",
		Role:            domain.RoleSchoolDirector,
		InstitutionID:   domain.InstitutionID(uuid.New()),
		InstitutionKind: domain.InstitutionSchool,
	}
}

func (s *RequestHandlerSuite) newHandler(t *testing.T) (*mocks.MockRequestService, chi.Router) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockRequestService(ctrl)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	h := NewRequestHandler(svc, staticWorkflows{}, logger)
	r := chi.NewRouter()
	h.Register(r)
	return svc, r
}

func (s *RequestHandlerSuite) authed(req *http.Request) *http.Request {
	return testutil.WithActor(req, s.actor)
}

func (s *RequestHandlerSuite) draft(state workflow.State) *models.Request {
	return &models.Request{
		ID:        domain.NewRequestID(),
		Kind:      string(catalog.KindMenuChange),
		Workflow:  catalog.SchoolRequest,
		State:     state,
		OriginID:  s.actor.InstitutionID,
		CreatedBy: s.actor.UserID,
		CreatedAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}
}

func (s *RequestHandlerSuite) TestHandleCreate() {
	s.T().Run("creates the request - 201", func(t *testing.T) {
		svc, router := s.newHandler(t)
		created := s.draft(catalog.SchoolDraft)
		svc.EXPECT().Create(gomock.Any(), s.actor, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ domain.Actor, in service.CreateInput) (*models.Request, error) {
				assert.Equal(t, catalog.KindMenuChange, in.Kind)
				assert.Equal(t, time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), in.EventDate)
				return created, nil
			})

		req := s.authed(testutil.NewJSONRequest(t, http.MethodPost, "/requests", map[string]any{
			"kind":       "menu_change",
			"event_date": "2026-10-26",
			"motive":     "field trip",
		}))
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusCreated)
		got := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, created.ID.String(), (*got)["id"])
		assert.Equal(t, string(catalog.SchoolDraft), (*got)["state"])
		assert.Contains(t, (*got)["available_events"], string(catalog.SchoolSubmit))
	})

	s.T().Run("missing kind - 400", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, s.authed(testutil.NewJSONRequest(t, http.MethodPost, "/requests", map[string]any{})))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.T().Run("malformed date - 400", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, s.authed(testutil.NewJSONRequest(t, http.MethodPost, "/requests", map[string]any{
			"kind":       "menu_change",
			"event_date": "26/10/2026",
		})))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.T().Run("unknown field - 400", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, s.authed(testutil.NewRequestWithBody(t, http.MethodPost, "/requests", `{"kind":"menu_change","colour":"blue"}`)))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.T().Run("unauthenticated - 401", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/requests", map[string]any{"kind": "menu_change"}))

		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, string(dErrors.CodeUnauthenticated))
	})
}

func (s *RequestHandlerSuite) TestHandleGet() {
	s.T().Run("invalid id - 400", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, s.authed(testutil.NewRequest(t, http.MethodGet, "/requests/not-a-uuid")))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	s.T().Run("unauthenticated - 401", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/requests/"+domain.NewRequestID().String()))

		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, string(dErrors.CodeUnauthenticated))
	})

	s.T().Run("not found - 404", func(t *testing.T) {
		svc, router := s.newHandler(t)
		id := domain.NewRequestID()
		svc.EXPECT().Get(gomock.Any(), id, s.actor).Return(nil, dErrors.New(dErrors.CodeNotFound, "request not found"))

		rr := testutil.DoRequest(router, s.authed(testutil.NewRequest(t, http.MethodGet, "/requests/"+id.String())))

		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.T().Run("labels the current state", func(t *testing.T) {
		svc, router := s.newHandler(t)
		req := s.draft(catalog.SchoolDistrictToValidate)
		svc.EXPECT().Get(gomock.Any(), req.ID, s.actor).Return(req, nil)

		rr := testutil.DoRequest(router, s.authed(testutil.NewRequest(t, http.MethodGet, "/requests/"+req.ID.String())))

		testutil.AssertStatusOK(t, rr)
		def, _ := catalog.DefinitionNamed(catalog.SchoolRequest)
		testutil.AssertJSONContains(t, rr, "state_label", def.Label(catalog.SchoolDistrictToValidate))
	})
}

func (s *RequestHandlerSuite) TestHandleFire() {
	s.T().Run("passes event and payload through", func(t *testing.T) {
		svc, router := s.newHandler(t)
		req := s.draft(catalog.SchoolDistrictValidated)
		yes := true
		entry := &audit.Entry{
			ID:        uuid.New(),
			EntityID:  req.ID,
			EventCode: string(catalog.SchoolDistrictValidates),
			FromState: string(catalog.SchoolDistrictToValidate),
			ToState:   string(catalog.SchoolDistrictValidated),
			Actor:     audit.ActorFrom(s.actor),
		}
		svc.EXPECT().
			Fire(gomock.Any(), req.ID, catalog.SchoolDistrictValidates, s.actor, workflow.Payload{Justification: "ok", Response: &yes}).
			Return(req, &workflow.Result{
				Event: catalog.SchoolDistrictValidates,
				From:  catalog.SchoolDistrictToValidate,
				To:    catalog.SchoolDistrictValidated,
				Entry: entry,
			}, nil)

		path := "/requests/" + req.ID.String() + "/events/" + string(catalog.SchoolDistrictValidates)
		rr := testutil.DoRequest(router, s.authed(testutil.NewJSONRequest(t, http.MethodPost, path, map[string]any{
			"justification": "ok",
			"response":      true,
		})))

		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[transitionResponse](t, rr)
		assert.Equal(t, catalog.SchoolDistrictToValidate, got.From)
		assert.Equal(t, catalog.SchoolDistrictValidated, got.To)
		require.NotNil(t, got.TrailEntry)
		assert.Equal(t, entry.ID.String(), got.TrailEntry.ID)
	})

	s.T().Run("invalid transition - 409", func(t *testing.T) {
		svc, router := s.newHandler(t)
		id := domain.NewRequestID()
		svc.EXPECT().Fire(gomock.Any(), id, catalog.SchoolCentralAuthorizes, s.actor, gomock.Any()).
			Return(nil, nil, &workflow.InvalidTransitionError{State: catalog.SchoolDraft, Event: catalog.SchoolCentralAuthorizes})

		path := "/requests/" + id.String() + "/events/" + string(catalog.SchoolCentralAuthorizes)
		rr := testutil.DoRequest(router, s.authed(testutil.NewRequest(t, http.MethodPost, path)))

		testutil.AssertStatusAndError(t, rr, http.StatusConflict, string(dErrors.CodeInvalidTransition))
	})

	s.T().Run("role not allowed - 403", func(t *testing.T) {
		svc, router := s.newHandler(t)
		id := domain.NewRequestID()
		svc.EXPECT().Fire(gomock.Any(), id, catalog.SchoolDistrictValidates, s.actor, gomock.Any()).
			Return(nil, nil, &workflow.UnauthorizedError{Role: s.actor.Role, Event: catalog.SchoolDistrictValidates})

		path := "/requests/" + id.String() + "/events/" + string(catalog.SchoolDistrictValidates)
		rr := testutil.DoRequest(router, s.authed(testutil.NewRequest(t, http.MethodPost, path)))

		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeUnauthorized))
	})

	s.T().Run("deadline violation - 422", func(t *testing.T) {
		svc, router := s.newHandler(t)
		id := domain.NewRequestID()
		svc.EXPECT().Cancel(gomock.Any(), id, s.actor, "changed plans").
			Return(nil, nil, dErrors.New(dErrors.CodeDeadlineViolation, "too late"))

		rr := testutil.DoRequest(router, s.authed(testutil.NewJSONRequest(t, http.MethodPost, "/requests/"+id.String()+"/cancel", map[string]any{
			"justification": "changed plans",
		})))

		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, string(dErrors.CodeDeadlineViolation))
	})
}

func (s *RequestHandlerSuite) TestHandleReplay() {
	svc, router := s.newHandler(s.T())
	req := s.draft(catalog.SchoolCentralAuthorized)
	svc.EXPECT().Replay(gomock.Any(), req.ID, catalog.SchoolResendAuthorization, s.actor, workflow.Payload{}).
		Return(req, &workflow.Result{
			Event:    catalog.SchoolResendAuthorization,
			From:     catalog.SchoolCentralAuthorized,
			To:       catalog.SchoolCentralAuthorized,
			Replayed: true,
		}, nil)

	path := "/requests/" + req.ID.String() + "/replay/" + string(catalog.SchoolResendAuthorization)
	rr := testutil.DoRequest(router, s.authed(testutil.NewRequest(s.T(), http.MethodPost, path)))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "replayed", true)
}

func (s *RequestHandlerSuite) TestHandleDiscardAndTrail() {
	s.T().Run("discard - 204", func(t *testing.T) {
		svc, router := s.newHandler(t)
		id := domain.NewRequestID()
		svc.EXPECT().Discard(gomock.Any(), id, s.actor).Return(nil)

		rr := testutil.DoRequest(router, s.authed(testutil.NewRequest(t, http.MethodDelete, "/requests/"+id.String())))

		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	s.T().Run("store failure - 500 without detail", func(t *testing.T) {
		svc, router := s.newHandler(t)
		id := domain.NewRequestID()
		svc.EXPECT().Trail(gomock.Any(), id, s.actor).Return(nil, dErrors.New(dErrors.CodeInternal, "connection refused"))

		rr := testutil.DoRequest(router, s.authed(testutil.NewRequest(t, http.MethodGet, "/requests/"+id.String()+"/trail")))

		testutil.AssertStatus(t, rr, http.StatusInternalServerError)
		assert.NotContains(t, rr.Body.String(), "connection refused")
	})

	s.T().Run("trail in order", func(t *testing.T) {
		svc, router := s.newHandler(t)
		id := domain.NewRequestID()
		svc.EXPECT().Trail(gomock.Any(), id, s.actor).Return([]audit.Entry{
			{ID: uuid.New(), EntityID: id, EventCode: string(catalog.SchoolSubmit)},
			{ID: uuid.New(), EntityID: id, EventCode: string(catalog.SchoolDistrictValidates)},
		}, nil)

		rr := testutil.DoRequest(router, s.authed(testutil.NewRequest(t, http.MethodGet, "/requests/"+id.String()+"/trail")))

		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[[]entryResponse](t, rr)
		require.Len(t, *got, 2)
		assert.Equal(t, string(catalog.SchoolSubmit), (*got)[0].EventCode)
	})
}
