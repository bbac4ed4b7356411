package catalog

import (
	"merenda/internal/hooks"
	"merenda/internal/notification"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
)

// rule attaches guards and hooks to a group of events. Zero fields attach
// nothing.
type rule struct {
	events []workflow.Event
	roles  []domain.Role
	// at lists institution levels the actor must belong to.
	at []hooks.Level
	// deadline names the action checked against the cancellation lead time.
	deadline  string
	lateFiled workflow.State
	endDate   bool
	parent    []workflow.State
	classify  bool
	notices   []hooks.Notice
	resolves  []string
}

// profile is the hook set of one kind.
type profile struct {
	snapshot bool
	rules    []rule
}

func on(events ...workflow.Event) rule {
	return rule{events: events}
}

func (r rule) by(roles ...domain.Role) rule {
	r.roles = append(r.roles, roles...)
	return r
}

func (r rule) within(levels ...hooks.Level) rule {
	r.at = append(r.at, levels...)
	return r
}

func (r rule) beforeDeadline(action string) rule {
	r.deadline = action
	return r
}

func (r rule) lateFiledUnless(answered workflow.State) rule {
	r.lateFiled = answered
	return r
}

func (r rule) afterEndDate() rule {
	r.endDate = true
	return r
}

func (r rule) whileParentIn(states ...workflow.State) rule {
	r.parent = append(r.parent, states...)
	return r
}

func (r rule) classifying() rule {
	r.classify = true
	return r
}

func (r rule) notify(notices ...hooks.Notice) rule {
	r.notices = append(r.notices, notices...)
	return r
}

func (r rule) resolve(titles ...string) rule {
	r.resolves = append(r.resolves, titles...)
	return r
}

type binder struct {
	deps   Deps
	fanout *hooks.Fanout
}

func (b *binder) apply(m *workflow.Machine, p profile) {
	if p.snapshot {
		m.BeforeEach(hooks.SnapshotInstitution(b.deps.Directory))
	}
	policy := b.deps.Policy
	for _, r := range p.rules {
		if len(r.roles) > 0 {
			m.Guard(hooks.RequireRole(r.roles...), r.events...)
		}
		for _, level := range r.at {
			m.Guard(hooks.RequireInstitution(level), r.events...)
		}
		if r.deadline != "" {
			m.Guard(hooks.DeadlineGuard(b.deps.Calendar, r.deadline, policy.CancellationLeadDays, policy.ExemptMotives...), r.events...)
		}
		if r.lateFiled != "" {
			m.Guard(hooks.LateFiledAuthorization(r.lateFiled, policy.ExemptMotives...), r.events...)
		}
		if r.endDate {
			m.Guard(hooks.EndDateReached(b.deps.Calendar), r.events...)
		}
		if len(r.parent) > 0 {
			m.Guard(hooks.ParentInState(b.deps.Parents, r.parent...), r.events...)
		}
		if r.classify {
			m.Before(hooks.ClassifyPriority(b.deps.Calendar), r.events...)
		}
		if len(r.notices) > 0 {
			m.After(b.fanout.NotificationFanout(r.notices...), r.events...)
		}
		for _, title := range r.resolves {
			m.After(b.fanout.ResolvePending(title), r.events...)
		}
	}
}

// profileFor builds the hook set of spec's kind from its family.
func profileFor(spec Spec) profile {
	switch spec.Definition {
	case SchoolRequest:
		return schoolProfile(spec)
	case DistrictRequest:
		return districtProfile(spec)
	case Acknowledgment:
		return acknowledgmentProfile(spec)
	case SpecialDiet:
		return specialDietProfile(spec)
	case ProductHomologation:
		return productHomologationProfile(spec)
	case ProductComplaint:
		return productComplaintProfile(spec)
	case ProductRegistration:
		return productRegistrationProfile(spec)
	case DeliveryRequest:
		return deliveryRequestProfile(spec)
	case DeliveryChange:
		return deliveryChangeProfile(spec)
	case DeliveryGuide:
		return deliveryGuideProfile(spec)
	case Measurement:
		return measurementProfile(spec)
	case Cronogram:
		return cronogramProfile(spec)
	case CronogramChange:
		return cronogramChangeProfile(spec)
	case PackagingLayout:
		return packagingLayoutProfile(spec)
	case ReceiptDocument:
		return receiptDocumentProfile(spec)
	case TechnicalSheet:
		return technicalSheetProfile(spec)
	case OccurrenceNotice:
		return occurrenceNoticeProfile(spec)
	}
	return profile{}
}

func pendency(spec Spec, title string, audiences ...notification.Audience) hooks.Notice {
	return hooks.Notice{
		Category:  notification.CategoryPendency,
		Topic:     spec.Topic,
		Title:     spec.Label + " " + title,
		Template:  "pendency.html",
		Audiences: audiences,
	}
}

func notice(spec Spec, title string, audiences ...notification.Audience) hooks.Notice {
	return hooks.Notice{
		Category:  notification.CategoryNotice,
		Topic:     spec.Topic,
		Title:     spec.Label + " " + title,
		Audiences: audiences,
	}
}

func warning(spec Spec, title string, audiences ...notification.Audience) hooks.Notice {
	return hooks.Notice{
		Category:  notification.CategoryWarning,
		Topic:     spec.Topic,
		Title:     spec.Label + " " + title,
		Audiences: audiences,
	}
}

func alert(spec Spec, title string, audiences ...notification.Audience) hooks.Notice {
	return hooks.Notice{
		Category:  notification.CategoryAlert,
		Topic:     spec.Topic,
		Title:     spec.Label + " " + title,
		Audiences: audiences,
	}
}

// titled is the pendency title base spec's notices use for title.
func titled(spec Spec, title string) string {
	return spec.Label + " " + title
}

var (
	schoolManagers   = []domain.Role{domain.RoleSchoolDirector, domain.RoleSchoolAdmin}
	districtManagers = []domain.Role{domain.RoleDistrictCoManager, domain.RoleDistrictAdmin}
	contractorStaff  = []domain.Role{domain.RoleContractorAdmin, domain.RoleContractorNutritionist}
)

func schoolAudience() notification.Audience {
	return notification.SchoolStaff(schoolManagers...)
}

func districtAudience() notification.Audience {
	return notification.DistrictStaff(districtManagers...)
}

func centralAudience(spec Spec) notification.Audience {
	return notification.Team(spec.Central)
}

func contractorAudience(spec Spec) notification.Audience {
	return notification.ContractorStaff(spec.Module, contractorStaff...)
}
