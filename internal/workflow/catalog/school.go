package catalog

import (
	"merenda/internal/hooks"
	"merenda/internal/notification"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
)

// Definition names of the meal request families.
const (
	SchoolRequest   = "school_request"
	DistrictRequest = "district_request"
	Acknowledgment  = "acknowledgment"
)

// School request states.
const (
	SchoolDraft                  workflow.State = "DRAFT"
	SchoolDistrictToValidate     workflow.State = "DISTRICT_TO_VALIDATE"
	SchoolDistrictValidated      workflow.State = "DISTRICT_VALIDATED"
	SchoolDistrictAskedRevision  workflow.State = "DISTRICT_ASKED_REVISION"
	SchoolDistrictRejected       workflow.State = "DISTRICT_REJECTED"
	SchoolCentralAuthorized      workflow.State = "CENTRAL_AUTHORIZED"
	SchoolCentralQuestioned      workflow.State = "CENTRAL_QUESTIONED"
	SchoolCentralDenied          workflow.State = "CENTRAL_DENIED"
	SchoolContractorAnswered     workflow.State = "CONTRACTOR_ANSWERED"
	SchoolContractorAcknowledged workflow.State = "CONTRACTOR_ACKNOWLEDGED"
	SchoolCancelled              workflow.State = "SCHOOL_CANCELLED"
	SchoolAutoCancelled          workflow.State = "AUTO_CANCELLED"
)

// School request events.
const (
	SchoolSubmit                 workflow.Event = "school.submit"
	SchoolDistrictValidates      workflow.Event = "school.district_validates"
	SchoolDistrictAsksRevision   workflow.Event = "school.district_asks_revision"
	SchoolDistrictRejects        workflow.Event = "school.district_rejects"
	SchoolRevises                workflow.Event = "school.school_revises"
	SchoolCentralAuthorizes      workflow.Event = "school.central_authorizes"
	SchoolCentralQuestions       workflow.Event = "school.central_questions"
	SchoolCentralDenies          workflow.Event = "school.central_denies"
	SchoolContractorAnswers      workflow.Event = "school.contractor_answers"
	SchoolContractorAcknowledges workflow.Event = "school.contractor_acknowledges"
	SchoolCancel                 workflow.Event = "school.cancel"
	SchoolSystemCancels          workflow.Event = "school.system_cancels"
	SchoolResendAuthorization    workflow.Event = "school.resend_authorization"
)

func schoolRequestDefinition() *workflow.Definition {
	live := []workflow.State{
		SchoolDistrictToValidate, SchoolDistrictValidated, SchoolCentralQuestioned,
		SchoolContractorAnswered, SchoolCentralAuthorized, SchoolContractorAcknowledged,
	}
	return workflow.Define(SchoolRequest, "school", SchoolDraft).
		State(SchoolDraft, "Draft", workflow.KindActive).
		State(SchoolDistrictToValidate, "Awaiting district validation", workflow.KindActive).
		State(SchoolDistrictValidated, "Validated by district", workflow.KindActive).
		State(SchoolDistrictAskedRevision, "School must revise the request", workflow.KindActive).
		State(SchoolDistrictRejected, "District did not validate", workflow.KindDenied).
		State(SchoolCentralAuthorized, "Authorized by central office", workflow.KindApproved).
		State(SchoolCentralQuestioned, "Central office questioned the contractor", workflow.KindActive).
		State(SchoolCentralDenied, "Denied by central office", workflow.KindDenied).
		State(SchoolContractorAnswered, "Contractor answered the questioning", workflow.KindActive).
		State(SchoolContractorAcknowledged, "Acknowledged by contractor", workflow.KindApproved).
		State(SchoolCancelled, "Cancelled by school", workflow.KindCancelled).
		State(SchoolAutoCancelled, "Cancelled automatically", workflow.KindCancelled).
		Transition(SchoolSubmit, SchoolDistrictToValidate, SchoolDraft).
		Transition(SchoolDistrictValidates, SchoolDistrictValidated, SchoolDistrictToValidate).
		Transition(SchoolDistrictAsksRevision, SchoolDistrictAskedRevision, SchoolDistrictToValidate).
		Transition(SchoolDistrictRejects, SchoolDistrictRejected, SchoolDistrictToValidate).
		Transition(SchoolRevises, SchoolDistrictToValidate, SchoolDistrictAskedRevision).
		Transition(SchoolCentralAuthorizes, SchoolCentralAuthorized, SchoolDistrictValidated, SchoolContractorAnswered).
		Transition(SchoolCentralQuestions, SchoolCentralQuestioned, SchoolDistrictValidated).
		Transition(SchoolCentralDenies, SchoolCentralDenied, SchoolDistrictValidated, SchoolCentralQuestioned, SchoolContractorAnswered).
		Transition(SchoolContractorAnswers, SchoolContractorAnswered, SchoolCentralQuestioned).
		Transition(SchoolContractorAcknowledges, SchoolContractorAcknowledged, SchoolCentralAuthorized).
		Transition(SchoolResendAuthorization, SchoolCentralAuthorized, SchoolCentralAuthorized).
		Transition(SchoolCancel, SchoolCancelled, live...).
		Transition(SchoolSystemCancels, SchoolAutoCancelled,
			SchoolDistrictToValidate, SchoolDistrictValidated, SchoolCentralQuestioned, SchoolContractorAnswered).
		MustBuild()
}

func schoolProfile(spec Spec) profile {
	awaitingDistrict := "awaiting district validation"
	awaitingCentral := "awaiting central authorization"
	awaitingAnswer := "questioning awaiting contractor answer"
	awaitingAck := "awaiting contractor acknowledgment"
	everyPendency := []string{
		titled(spec, awaitingDistrict), titled(spec, awaitingCentral),
		titled(spec, awaitingAnswer), titled(spec, awaitingAck),
	}
	return profile{
		snapshot: true,
		rules: []rule{
			on(SchoolSubmit, SchoolRevises).by(schoolManagers...).within(hooks.LevelOrigin).
				notify(pendency(spec, awaitingDistrict, districtAudience())),
			on(SchoolSubmit).classifying(),
			on(SchoolDistrictValidates, SchoolDistrictAsksRevision, SchoolDistrictRejects).
				by(districtManagers...).within(hooks.LevelDistrict).
				resolve(titled(spec, awaitingDistrict)),
			on(SchoolDistrictValidates).
				notify(pendency(spec, awaitingCentral, centralAudience(spec))),
			on(SchoolDistrictAsksRevision).
				notify(warning(spec, "returned for revision", schoolAudience())),
			on(SchoolDistrictRejects).
				notify(alert(spec, "not validated by district", schoolAudience())),
			on(SchoolCentralAuthorizes, SchoolCentralQuestions, SchoolCentralDenies).
				by(spec.Central).
				resolve(titled(spec, awaitingCentral)),
			on(SchoolCentralAuthorizes).lateFiledUnless(SchoolContractorAnswered).
				notify(
					notice(spec, "authorized", schoolAudience(), districtAudience(), notification.SchoolContact()),
					pendency(spec, awaitingAck, contractorAudience(spec)),
				),
			on(SchoolCentralQuestions).
				notify(pendency(spec, awaitingAnswer, contractorAudience(spec))),
			on(SchoolCentralDenies).
				notify(alert(spec, "denied by central office", schoolAudience(), districtAudience())),
			on(SchoolContractorAnswers, SchoolContractorAcknowledges).
				by(contractorStaff...).within(hooks.LevelContractor),
			on(SchoolContractorAnswers).
				resolve(titled(spec, awaitingAnswer)).
				notify(pendency(spec, awaitingCentral, centralAudience(spec))),
			on(SchoolContractorAcknowledges).
				resolve(titled(spec, awaitingAck)).
				notify(notice(spec, "acknowledged by contractor", schoolAudience())),
			on(SchoolResendAuthorization).by(spec.Central, domain.RoleSystem).
				notify(pendency(spec, awaitingAck, contractorAudience(spec))),
			on(SchoolCancel).by(schoolManagers...).within(hooks.LevelOrigin).
				beforeDeadline("cancellation").
				resolve(everyPendency...).
				notify(warning(spec, "cancelled by school", districtAudience(), centralAudience(spec), contractorAudience(spec))),
			on(SchoolSystemCancels).by(domain.RoleSystem).
				resolve(everyPendency...).
				notify(warning(spec, "cancelled automatically", schoolAudience(), districtAudience())),
		},
	}
}

// District request states.
const (
	DistrictDraft                  workflow.State = "DRAFT"
	DistrictCentralToAuthorize     workflow.State = "CENTRAL_TO_AUTHORIZE"
	DistrictCentralAskedRevision   workflow.State = "CENTRAL_ASKED_REVISION"
	DistrictCentralAuthorized      workflow.State = "CENTRAL_AUTHORIZED"
	DistrictCentralQuestioned      workflow.State = "CENTRAL_QUESTIONED"
	DistrictCentralDenied          workflow.State = "CENTRAL_DENIED"
	DistrictContractorAnswered     workflow.State = "CONTRACTOR_ANSWERED"
	DistrictContractorAcknowledged workflow.State = "CONTRACTOR_ACKNOWLEDGED"
	DistrictCancelled              workflow.State = "DISTRICT_CANCELLED"
	DistrictAutoCancelled          workflow.State = "AUTO_CANCELLED"
)

// District request events.
const (
	DistrictSubmit                 workflow.Event = "district.submit"
	DistrictCentralAsksRevision    workflow.Event = "district.central_asks_revision"
	DistrictRevises                workflow.Event = "district.district_revises"
	DistrictCentralAuthorizes      workflow.Event = "district.central_authorizes"
	DistrictCentralQuestions       workflow.Event = "district.central_questions"
	DistrictCentralDenies          workflow.Event = "district.central_denies"
	DistrictContractorAnswers      workflow.Event = "district.contractor_answers"
	DistrictContractorAcknowledges workflow.Event = "district.contractor_acknowledges"
	DistrictCancel                 workflow.Event = "district.cancel"
	DistrictSystemCancels          workflow.Event = "district.system_cancels"
)

func districtRequestDefinition() *workflow.Definition {
	return workflow.Define(DistrictRequest, "district", DistrictDraft).
		State(DistrictDraft, "Draft", workflow.KindActive).
		State(DistrictCentralToAuthorize, "Awaiting central authorization", workflow.KindActive).
		State(DistrictCentralAskedRevision, "District must revise the request", workflow.KindActive).
		State(DistrictCentralAuthorized, "Authorized by central office", workflow.KindApproved).
		State(DistrictCentralQuestioned, "Central office questioned the contractor", workflow.KindActive).
		State(DistrictCentralDenied, "Denied by central office", workflow.KindDenied).
		State(DistrictContractorAnswered, "Contractor answered the questioning", workflow.KindActive).
		State(DistrictContractorAcknowledged, "Acknowledged by contractor", workflow.KindApproved).
		State(DistrictCancelled, "Cancelled by district", workflow.KindCancelled).
		State(DistrictAutoCancelled, "Cancelled automatically", workflow.KindCancelled).
		Transition(DistrictSubmit, DistrictCentralToAuthorize, DistrictDraft).
		Transition(DistrictCentralAsksRevision, DistrictCentralAskedRevision, DistrictCentralToAuthorize).
		Transition(DistrictRevises, DistrictCentralToAuthorize, DistrictCentralAskedRevision).
		Transition(DistrictCentralAuthorizes, DistrictCentralAuthorized, DistrictCentralToAuthorize, DistrictContractorAnswered).
		Transition(DistrictCentralQuestions, DistrictCentralQuestioned, DistrictCentralToAuthorize).
		Transition(DistrictCentralDenies, DistrictCentralDenied, DistrictCentralToAuthorize, DistrictCentralQuestioned, DistrictContractorAnswered).
		Transition(DistrictContractorAnswers, DistrictContractorAnswered, DistrictCentralQuestioned).
		Transition(DistrictContractorAcknowledges, DistrictContractorAcknowledged, DistrictCentralAuthorized).
		Transition(DistrictCancel, DistrictCancelled,
			DistrictCentralToAuthorize, DistrictCentralQuestioned, DistrictContractorAnswered,
			DistrictCentralAuthorized, DistrictContractorAcknowledged).
		Transition(DistrictSystemCancels, DistrictAutoCancelled,
			DistrictCentralToAuthorize, DistrictCentralQuestioned, DistrictContractorAnswered).
		MustBuild()
}

func districtProfile(spec Spec) profile {
	awaitingCentral := "awaiting central authorization"
	awaitingAnswer := "questioning awaiting contractor answer"
	awaitingAck := "awaiting contractor acknowledgment"
	everyPendency := []string{titled(spec, awaitingCentral), titled(spec, awaitingAnswer), titled(spec, awaitingAck)}
	return profile{
		snapshot: true,
		rules: []rule{
			on(DistrictSubmit, DistrictRevises).by(districtManagers...).within(hooks.LevelOrigin).
				notify(pendency(spec, awaitingCentral, centralAudience(spec))),
			on(DistrictSubmit).classifying(),
			on(DistrictCentralAsksRevision, DistrictCentralAuthorizes, DistrictCentralQuestions, DistrictCentralDenies).
				by(spec.Central).
				resolve(titled(spec, awaitingCentral)),
			on(DistrictCentralAsksRevision).
				notify(warning(spec, "returned for revision", districtAudience())),
			on(DistrictCentralAuthorizes).lateFiledUnless(DistrictContractorAnswered).
				notify(
					notice(spec, "authorized", districtAudience(), schoolAudience()),
					pendency(spec, awaitingAck, contractorAudience(spec)),
				),
			on(DistrictCentralQuestions).
				notify(pendency(spec, awaitingAnswer, contractorAudience(spec))),
			on(DistrictCentralDenies).
				notify(alert(spec, "denied by central office", districtAudience())),
			on(DistrictContractorAnswers, DistrictContractorAcknowledges).
				by(contractorStaff...).within(hooks.LevelContractor),
			on(DistrictContractorAnswers).
				resolve(titled(spec, awaitingAnswer)).
				notify(pendency(spec, awaitingCentral, centralAudience(spec))),
			on(DistrictContractorAcknowledges).
				resolve(titled(spec, awaitingAck)).
				notify(notice(spec, "acknowledged by contractor", districtAudience())),
			on(DistrictCancel).by(districtManagers...).within(hooks.LevelOrigin).
				beforeDeadline("cancellation").
				resolve(everyPendency...).
				notify(warning(spec, "cancelled by district", centralAudience(spec), contractorAudience(spec), schoolAudience())),
			on(DistrictSystemCancels).by(domain.RoleSystem).
				resolve(everyPendency...).
				notify(warning(spec, "cancelled automatically", districtAudience())),
		},
	}
}

// Acknowledgment states.
const (
	AckDraft        workflow.State = "DRAFT"
	AckInformed     workflow.State = "INFORMED"
	AckAcknowledged workflow.State = "CONTRACTOR_ACKNOWLEDGED"
	AckCancelled    workflow.State = "SCHOOL_CANCELLED"
)

// Acknowledgment events.
const (
	AckInform                 workflow.Event = "ack.inform"
	AckContractorAcknowledges workflow.Event = "ack.contractor_acknowledges"
	AckCancel                 workflow.Event = "ack.cancel"
)

func acknowledgmentDefinition() *workflow.Definition {
	return workflow.Define(Acknowledgment, "ack", AckDraft).
		State(AckDraft, "Draft", workflow.KindActive).
		State(AckInformed, "Informed", workflow.KindActive).
		State(AckAcknowledged, "Acknowledged by contractor", workflow.KindApproved).
		State(AckCancelled, "Cancelled by school", workflow.KindCancelled).
		Transition(AckInform, AckInformed, AckDraft).
		Transition(AckContractorAcknowledges, AckAcknowledged, AckInformed).
		Transition(AckCancel, AckCancelled, AckInformed, AckAcknowledged).
		MustBuild()
}

func acknowledgmentProfile(spec Spec) profile {
	awaitingAck := "awaiting contractor acknowledgment"
	return profile{
		snapshot: true,
		rules: []rule{
			on(AckInform).by(schoolManagers...).within(hooks.LevelOrigin).classifying().
				notify(
					pendency(spec, awaitingAck, contractorAudience(spec)),
					notice(spec, "informed by school", districtAudience()),
				),
			on(AckContractorAcknowledges).by(contractorStaff...).within(hooks.LevelContractor).
				resolve(titled(spec, awaitingAck)).
				notify(notice(spec, "acknowledged by contractor", schoolAudience())),
			on(AckCancel).by(schoolManagers...).within(hooks.LevelOrigin).
				beforeDeadline("cancellation").
				resolve(titled(spec, awaitingAck)).
				notify(warning(spec, "cancelled by school", contractorAudience(spec), districtAudience())),
		},
	}
}
