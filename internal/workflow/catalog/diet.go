package catalog

import (
	"merenda/internal/hooks"
	"merenda/internal/notification"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
)

const SpecialDiet = "special_diet"

// Special diet states.
const (
	DietDraft                       workflow.State = "DRAFT"
	DietCentralToAuthorize          workflow.State = "CENTRAL_TO_AUTHORIZE"
	DietCentralDenied               workflow.State = "CENTRAL_DENIED"
	DietCentralAuthorized           workflow.State = "CENTRAL_AUTHORIZED"
	DietContractorAcknowledged      workflow.State = "CONTRACTOR_ACKNOWLEDGED"
	DietSchoolCancelled             workflow.State = "SCHOOL_CANCELLED"
	DietCentralDeniedCancellation   workflow.State = "CENTRAL_DENIED_CANCELLATION"
	DietInactivationRequested       workflow.State = "INACTIVATION_REQUESTED"
	DietInactivationDenied          workflow.State = "INACTIVATION_DENIED"
	DietInactivationAuthorized      workflow.State = "INACTIVATION_AUTHORIZED"
	DietContractorAckedInactivation workflow.State = "CONTRACTOR_ACKNOWLEDGED_INACTIVATION"
	DietSystemTerminated            workflow.State = "SYSTEM_TERMINATED"
	DietCancelledStudentMoved       workflow.State = "CANCELLED_STUDENT_MOVED"
	DietCancelledStudentNotEnrolled workflow.State = "CANCELLED_STUDENT_NOT_ENROLLED"
)

// Special diet events.
const (
	DietSubmit                             workflow.Event = "diet.submit"
	DietCentralDenies                      workflow.Event = "diet.central_denies"
	DietCentralAuthorizes                  workflow.Event = "diet.central_authorizes"
	DietContractorAcknowledges             workflow.Event = "diet.contractor_acknowledges"
	DietCancel                             workflow.Event = "diet.cancel"
	DietCentralDeniesCancellation          workflow.Event = "diet.central_denies_cancellation"
	DietRequestInactivation                workflow.Event = "diet.request_inactivation"
	DietCentralDeniesInactivation          workflow.Event = "diet.central_denies_inactivation"
	DietCentralAuthorizesInactivation      workflow.Event = "diet.central_authorizes_inactivation"
	DietContractorAcknowledgesInactivation workflow.Event = "diet.contractor_acknowledges_inactivation"
	DietSystemTerminates                   workflow.Event = "diet.system_terminates"
	DietCancelStudentMoved                 workflow.Event = "diet.cancel_student_moved"
	DietCancelStudentNotEnrolled           workflow.Event = "diet.cancel_student_not_enrolled"
)

func specialDietDefinition() *workflow.Definition {
	return workflow.Define(SpecialDiet, "diet", DietDraft).
		State(DietDraft, "Draft", workflow.KindActive).
		State(DietCentralToAuthorize, "Awaiting central authorization", workflow.KindActive).
		State(DietCentralDenied, "Denied by central office", workflow.KindDenied).
		State(DietCentralAuthorized, "Authorized by central office", workflow.KindApproved).
		State(DietContractorAcknowledged, "Acknowledged by contractor", workflow.KindApproved).
		State(DietSchoolCancelled, "Cancelled by school", workflow.KindCancelled).
		State(DietCentralDeniedCancellation, "Central office denied the cancellation", workflow.KindDenied).
		State(DietInactivationRequested, "School requested inactivation", workflow.KindActive).
		State(DietInactivationDenied, "Central office denied the inactivation", workflow.KindApproved).
		State(DietInactivationAuthorized, "Central office authorized the inactivation", workflow.KindActive).
		State(DietContractorAckedInactivation, "Contractor acknowledged the inactivation", workflow.KindCancelled).
		State(DietSystemTerminated, "End date reached", workflow.KindApproved).
		State(DietCancelledStudentMoved, "Cancelled, student changed school", workflow.KindCancelled).
		State(DietCancelledStudentNotEnrolled, "Cancelled, student not enrolled in the network", workflow.KindCancelled).
		Transition(DietSubmit, DietCentralToAuthorize, DietDraft).
		Transition(DietCentralDenies, DietCentralDenied, DietCentralToAuthorize).
		Transition(DietCentralAuthorizes, DietCentralAuthorized, DietDraft, DietCentralToAuthorize).
		Transition(DietContractorAcknowledges, DietContractorAcknowledged, DietCentralAuthorized).
		Transition(DietCancel, DietSchoolCancelled, DietCentralToAuthorize, DietInactivationRequested, DietCentralAuthorized).
		Transition(DietCentralDeniesCancellation, DietCentralDeniedCancellation, DietCentralToAuthorize, DietInactivationRequested).
		Transition(DietRequestInactivation, DietInactivationRequested, DietCentralAuthorized, DietContractorAcknowledged).
		Transition(DietCentralDeniesInactivation, DietInactivationDenied, DietInactivationRequested).
		Transition(DietCentralAuthorizesInactivation, DietInactivationAuthorized, DietInactivationRequested).
		Transition(DietContractorAcknowledgesInactivation, DietContractorAckedInactivation, DietInactivationAuthorized).
		Transition(DietSystemTerminates, DietSystemTerminated, DietCentralAuthorized, DietContractorAcknowledged, DietInactivationDenied).
		Transition(DietCancelStudentMoved, DietCancelledStudentMoved, DietCentralAuthorized, DietContractorAcknowledged).
		Transition(DietCancelStudentNotEnrolled, DietCancelledStudentNotEnrolled, DietCentralAuthorized, DietContractorAcknowledged).
		MustBuild()
}

func specialDietProfile(spec Spec) profile {
	awaitingCentral := "awaiting central authorization"
	awaitingAck := "awaiting contractor acknowledgment"
	awaitingInactivation := "inactivation awaiting central decision"
	awaitingInactivationAck := "inactivation awaiting contractor acknowledgment"
	return profile{
		snapshot: true,
		rules: []rule{
			on(DietSubmit, DietRequestInactivation, DietCancel).by(schoolManagers...).within(hooks.LevelOrigin),
			on(DietSubmit).
				notify(pendency(spec, awaitingCentral, centralAudience(spec))),
			on(DietCentralAuthorizes, DietCentralDenies, DietCentralDeniesCancellation,
				DietCentralAuthorizesInactivation, DietCentralDeniesInactivation).by(spec.Central),
			on(DietCentralAuthorizes, DietCentralDenies).resolve(titled(spec, awaitingCentral)),
			on(DietCentralAuthorizes).
				notify(
					notice(spec, "authorized", schoolAudience(), notification.SchoolContact()),
					pendency(spec, awaitingAck, contractorAudience(spec)),
				),
			on(DietCentralDenies).
				notify(alert(spec, "denied by central office", schoolAudience())),
			on(DietContractorAcknowledges, DietContractorAcknowledgesInactivation).
				by(contractorStaff...).within(hooks.LevelContractor),
			on(DietContractorAcknowledges).
				resolve(titled(spec, awaitingAck)).
				notify(notice(spec, "acknowledged by contractor", schoolAudience())),
			on(DietRequestInactivation).
				notify(pendency(spec, awaitingInactivation, centralAudience(spec))),
			on(DietCentralAuthorizesInactivation, DietCentralDeniesInactivation, DietCentralDeniesCancellation).
				resolve(titled(spec, awaitingInactivation)),
			on(DietCentralAuthorizesInactivation).
				notify(
					notice(spec, "inactivation authorized", schoolAudience()),
					pendency(spec, awaitingInactivationAck, contractorAudience(spec)),
				),
			on(DietCentralDeniesInactivation).
				notify(alert(spec, "inactivation denied", schoolAudience())),
			on(DietContractorAcknowledgesInactivation).
				resolve(titled(spec, awaitingInactivationAck)),
			on(DietCancel).
				resolve(titled(spec, awaitingCentral), titled(spec, awaitingInactivation)).
				notify(warning(spec, "cancelled by school", centralAudience(spec), contractorAudience(spec))),
			on(DietSystemTerminates).by(domain.RoleSystem).afterEndDate().
				notify(notice(spec, "ended", schoolAudience(), contractorAudience(spec))),
			on(DietCancelStudentMoved, DietCancelStudentNotEnrolled).by(spec.Central, domain.RoleSystem).
				notify(warning(spec, "cancelled by enrollment change", schoolAudience(), contractorAudience(spec))),
		},
	}
}
