package notification_test

//go:generate mockgen -source=dispatcher.go -destination=mocks/mocks.go -package=mocks Store,EmailQueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"merenda/internal/directory"
	"merenda/internal/directory/directorytest"
	dirstore "merenda/internal/directory/store"
	"merenda/internal/notification"
	"merenda/internal/notification/mocks"
	"merenda/internal/notification/store"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
	"merenda/pkg/requestcontext"
)

type DispatcherSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	queue    *mocks.MockEmailQueue
	store    *store.InMemoryStore
	fx       *directorytest.Fixture
	dir      *directory.Service
	renderer *notification.TemplateRenderer
	scope    notification.Scope
	entity   domain.RequestID
	dispatch *notification.Dispatcher
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	s.ctrl = gomock.NewController(s.T())
	s.queue = mocks.NewMockEmailQueue(s.ctrl)
	s.store = store.NewInMemory()

	dirStore := dirstore.NewInMemory()
	fx, err := directorytest.Seed(s.ctx, dirStore)
	s.Require().NoError(err)
	s.fx = fx
	s.dir = directory.NewService(dirStore)

	renderer, err := notification.NewTemplateRenderer()
	s.Require().NoError(err)
	s.renderer = renderer

	s.scope = notification.Scope{
		Origin:     fx.School.ID,
		School:     fx.School.ID,
		District:   fx.District.ID,
		Contractor: fx.Contractor.ID,
	}
	s.entity = domain.NewRequestID()
	s.dispatch = notification.NewDispatcher(
		notification.Config{BaseURL: "https://merenda.example.org/", SubjectPrefix: "[Merenda]"},
		s.store, s.queue, s.renderer, s.dir,
	)
}

func (s *DispatcherSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DispatcherSuite) TestRecipientsFor() {
	s.Run("merges audiences without duplicate users", func() {
		recipients, err := s.dispatch.RecipientsFor(s.ctx, s.scope,
			notification.DistrictStaff(domain.RoleDistrictCoManager),
			notification.DistrictStaff(domain.RoleDistrictCoManager, domain.RoleDistrictAdmin),
		)
		s.Require().NoError(err)
		s.Len(recipients, 2)
	})

	s.Run("school contact is email only", func() {
		recipients, err := s.dispatch.RecipientsFor(s.ctx, s.scope, notification.SchoolContact())
		s.Require().NoError(err)
		s.Require().Len(recipients, 1)
		s.True(recipients[0].UserID.IsNil())
		s.Equal(s.fx.School.ContactEmail, recipients[0].Email)
	})

	s.Run("contractor staff includes registered module addresses", func() {
		recipients, err := s.dispatch.RecipientsFor(s.ctx, s.scope,
			notification.ContractorStaff(directory.ModuleDiets, domain.RoleContractorNutritionist))
		s.Require().NoError(err)
		var emails []string
		for _, r := range recipients {
			emails = append(emails, r.Email)
		}
		s.Contains(emails, "special_diets@nutri-co.example.org")
		s.Contains(emails, s.fx.Users[domain.RoleContractorNutritionist].Email)
	})

	s.Run("audiences without a scope institution resolve to nobody", func() {
		recipients, err := s.dispatch.RecipientsFor(s.ctx, notification.Scope{},
			notification.SchoolStaff(domain.RoleSchoolDirector), notification.SchoolContact())
		s.Require().NoError(err)
		s.Empty(recipients)
	})
}

func (s *DispatcherSuite) message(recipients []notification.Recipient) notification.Message {
	return notification.Message{
		EntityID:    s.entity,
		Category:    notification.CategoryPendency,
		Topic:       notification.TopicMealRequest,
		Title:       "Meal request awaiting validation",
		Description: "A school filed a meal request",
		Link:        "/requests/" + s.entity.String(),
		Recipients:  recipients,
	}
}

func (s *DispatcherSuite) TestNotify() {
	recipients, err := s.dispatch.RecipientsFor(s.ctx, s.scope,
		notification.DistrictStaff(domain.RoleDistrictCoManager), notification.SchoolContact())
	s.Require().NoError(err)
	coManager := s.fx.Users[domain.RoleDistrictCoManager]

	s.Run("creates one notification per user and one email for all addresses", func() {
		var sent notification.OutboundEmail
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, email notification.OutboundEmail) error {
				sent = email
				return nil
			})

		created, err := s.dispatch.Notify(s.ctx, s.message(recipients))
		s.Require().NoError(err)
		s.Equal(1, created)
		s.Equal("[Merenda] Meal request awaiting validation", sent.Subject)
		s.ElementsMatch([]string{coManager.Email, s.fx.School.ContactEmail}, sent.To)
		s.Contains(sent.HTMLBody, "https://merenda.example.org/requests/"+s.entity.String())

		list, err := s.dispatch.ListFor(s.ctx, coManager.ID, true)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(notification.CategoryPendency, list[0].Category)
	})

	s.Run("skips recipients holding an unresolved notification with the same title", func() {
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

		created, err := s.dispatch.Notify(s.ctx, s.message(recipients))
		s.Require().NoError(err)
		s.Equal(0, created)
	})

	s.Run("email override replaces recipient addresses", func() {
		msg := s.message(nil)
		msg.Title = "Override"
		msg.Emails = []string{" Ops@Example.org ", "ops@example.org"}
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, email notification.OutboundEmail) error {
				s.Equal([]string{"ops@example.org"}, email.To)
				return nil
			})

		_, err := s.dispatch.Notify(s.ctx, msg)
		s.Require().NoError(err)
	})

	s.Run("queue failure is reported but notifications persist", func() {
		msg := s.message(recipients)
		msg.Title = "Queue failure"
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("queue down"))

		created, err := s.dispatch.Notify(s.ctx, msg)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Equal(1, created)
	})

	s.Run("rejects a message without title", func() {
		msg := s.message(recipients)
		msg.Title = ""
		_, err := s.dispatch.Notify(s.ctx, msg)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *DispatcherSuite) TestNotifyStoreFailureDoesNotStopOthers() {
	mockStore := mocks.NewMockStore(s.ctrl)
	d := notification.NewDispatcher(notification.Config{}, mockStore, s.queue, s.renderer, s.dir)
	recipients := []notification.Recipient{
		{UserID: s.fx.Users[domain.RoleSchoolDirector].ID, Email: "a@example.org"},
		{UserID: s.fx.Users[domain.RoleSchoolAdmin].ID, Email: "b@example.org"},
	}
	gomock.InOrder(
		mockStore.EXPECT().CreateIfAbsent(gomock.Any(), gomock.Any()).Return(false, errors.New("db down")),
		mockStore.EXPECT().CreateIfAbsent(gomock.Any(), gomock.Any()).Return(true, nil),
	)
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

	created, err := d.Notify(s.ctx, s.message(recipients))
	s.Require().Error(err)
	s.Equal(1, created)
}

func (s *DispatcherSuite) TestResolvePending() {
	recipients, err := s.dispatch.RecipientsFor(s.ctx, s.scope, notification.DistrictStaff(domain.RoleDistrictCoManager))
	s.Require().NoError(err)
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	msg := s.message(recipients)
	_, err = s.dispatch.Notify(s.ctx, msg)
	s.Require().NoError(err)

	other := msg
	other.EntityID = domain.NewRequestID()
	other.Title = "Other request pendency"
	_, err = s.dispatch.Notify(s.ctx, other)
	s.Require().NoError(err)

	s.Run("requires title and scope", func() {
		_, err := s.dispatch.ResolvePending(s.ctx, "", s.entity)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.dispatch.ResolvePending(s.ctx, msg.Title, domain.RequestID{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("resolves only the scoped entity", func() {
		n, err := s.dispatch.ResolvePending(s.ctx, msg.Title, s.entity)
		s.Require().NoError(err)
		s.Equal(1, n)

		pending, err := s.dispatch.ListFor(s.ctx, recipients[0].UserID, true)
		s.Require().NoError(err)
		s.Require().Len(pending, 1)
		s.Equal(other.Title, pending[0].Title)
	})

	s.Run("a resolved title can be notified again", func() {
		created, err := s.dispatch.Notify(s.ctx, msg)
		s.Require().NoError(err)
		s.Equal(1, created)
	})
}

func TestTemplateRenderer(t *testing.T) {
	r, err := notification.NewTemplateRenderer()
	require.NoError(t, err)

	body, err := r.Render(notification.DefaultTemplate, map[string]any{
		"Title":       "Diet approved",
		"Description": "<script>x</script>",
		"Link":        "https://example.org/x",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Diet approved")
	assert.NotContains(t, body, "<script>")

	_, err = r.Render("missing.html", nil)
	assert.Error(t, err)
}
