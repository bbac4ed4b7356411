package catalog

import (
	"merenda/internal/hooks"
	"merenda/internal/notification"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
)

// Definition names of the logistics families.
const (
	DeliveryRequest = "delivery_request"
	DeliveryChange  = "delivery_change"
	DeliveryGuide   = "delivery_guide"
)

// Delivery request states.
const (
	DeliveryAwaitingDispatch     workflow.State = "AWAITING_DISPATCH"
	DeliveryDispatched           workflow.State = "DISPATCHED"
	DeliveryAwaitingCancellation workflow.State = "AWAITING_CANCELLATION"
	DeliveryCancelled            workflow.State = "CANCELLED"
	DeliveryConfirmed            workflow.State = "DISTRIBUTOR_CONFIRMED"
	DeliveryChangeRequested      workflow.State = "CHANGE_REQUESTED"
	DeliveryChangeAccepted       workflow.State = "CHANGE_ACCEPTED"
)

// Delivery request events.
const (
	DeliveryDispatch                        workflow.Event = "delivery.dispatch"
	DeliveryDistributorConfirms             workflow.Event = "delivery.distributor_confirms"
	DeliveryDistributorRequestsChange       workflow.Event = "delivery.distributor_requests_change"
	DeliveryCancel                          workflow.Event = "delivery.cancel"
	DeliveryLogisticsAcceptsChange          workflow.Event = "delivery.logistics_accepts_change"
	DeliveryLogisticsDeniesChange           workflow.Event = "delivery.logistics_denies_change"
	DeliveryAwaitCancellation               workflow.Event = "delivery.await_cancellation"
	DeliveryDistributorConfirmsCancellation workflow.Event = "delivery.distributor_confirms_cancellation"
	DeliveryResendCancellationNotice        workflow.Event = "delivery.resend_cancellation_notice"
)

func deliveryRequestDefinition() *workflow.Definition {
	return workflow.Define(DeliveryRequest, "delivery", DeliveryAwaitingDispatch).
		State(DeliveryAwaitingDispatch, "Awaiting dispatch", workflow.KindActive).
		State(DeliveryDispatched, "Dispatched", workflow.KindActive).
		State(DeliveryAwaitingCancellation, "Awaiting cancellation", workflow.KindActive).
		State(DeliveryCancelled, "Cancelled", workflow.KindCancelled).
		State(DeliveryConfirmed, "Confirmed", workflow.KindApproved).
		State(DeliveryChangeRequested, "Change under analysis", workflow.KindActive).
		State(DeliveryChangeAccepted, "Changed", workflow.KindApproved).
		Transition(DeliveryDispatch, DeliveryDispatched, DeliveryAwaitingDispatch).
		Transition(DeliveryDistributorConfirms, DeliveryConfirmed, DeliveryDispatched).
		Transition(DeliveryDistributorRequestsChange, DeliveryChangeRequested, DeliveryDispatched).
		Transition(DeliveryCancel, DeliveryCancelled,
			DeliveryAwaitingDispatch, DeliveryDispatched, DeliveryConfirmed, DeliveryChangeRequested, DeliveryChangeAccepted).
		Transition(DeliveryLogisticsAcceptsChange, DeliveryChangeAccepted, DeliveryChangeRequested).
		Transition(DeliveryLogisticsDeniesChange, DeliveryDispatched, DeliveryChangeRequested).
		Transition(DeliveryAwaitCancellation, DeliveryAwaitingCancellation, DeliveryConfirmed, DeliveryChangeRequested).
		Transition(DeliveryDistributorConfirmsCancellation, DeliveryCancelled, DeliveryAwaitingCancellation).
		Transition(DeliveryResendCancellationNotice, DeliveryCancelled, DeliveryCancelled).
		MustBuild()
}

func deliveryRequestProfile(spec Spec) profile {
	awaitingConfirmation := "awaiting distributor confirmation"
	awaitingCancellation := "awaiting cancellation confirmation"
	distributor := notification.CounterpartStaff(domain.RoleDistributorAdmin)
	logistics := notification.Team(domain.RoleLogisticsCoordinator)
	return profile{
		rules: []rule{
			on(DeliveryDispatch, DeliveryCancel, DeliveryLogisticsAcceptsChange, DeliveryLogisticsDeniesChange,
				DeliveryAwaitCancellation).by(domain.RoleLogisticsCoordinator),
			on(DeliveryDistributorConfirms, DeliveryDistributorRequestsChange, DeliveryDistributorConfirmsCancellation).
				by(domain.RoleDistributorAdmin).within(hooks.LevelCounterpart),
			on(DeliveryResendCancellationNotice).by(domain.RoleDistributorAdmin, domain.RoleLogisticsCoordinator, domain.RoleSystem),
			on(DeliveryDispatch).notify(pendency(spec, awaitingConfirmation, distributor)),
			on(DeliveryDistributorConfirms, DeliveryDistributorRequestsChange).resolve(titled(spec, awaitingConfirmation)),
			on(DeliveryDistributorRequestsChange).notify(pendency(spec, "change awaiting logistics analysis", logistics)),
			on(DeliveryLogisticsAcceptsChange, DeliveryLogisticsDeniesChange).
				resolve(titled(spec, "change awaiting logistics analysis")),
			on(DeliveryLogisticsDeniesChange).notify(pendency(spec, awaitingConfirmation, distributor)),
			on(DeliveryAwaitCancellation).notify(pendency(spec, awaitingCancellation, distributor)),
			on(DeliveryDistributorConfirmsCancellation, DeliveryResendCancellationNotice).
				resolve(titled(spec, awaitingCancellation)).
				notify(notice(spec, "cancellation confirmed", logistics)),
			on(DeliveryCancel).
				resolve(titled(spec, awaitingConfirmation)).
				notify(warning(spec, "cancelled", distributor)),
		},
	}
}

// Delivery change states.
const (
	ChangeInAnalysis workflow.State = "IN_ANALYSIS"
	ChangeAccepted   workflow.State = "ACCEPTED"
	ChangeDenied     workflow.State = "DENIED"
)

// Delivery change events.
const (
	ChangeSubmit           workflow.Event = "change.submit"
	ChangeLogisticsAccepts workflow.Event = "change.logistics_accepts"
	ChangeLogisticsDenies  workflow.Event = "change.logistics_denies"
)

func deliveryChangeDefinition() *workflow.Definition {
	return workflow.Define(DeliveryChange, "change", ChangeInAnalysis).
		State(ChangeInAnalysis, "In analysis", workflow.KindActive).
		State(ChangeAccepted, "Accepted", workflow.KindApproved).
		State(ChangeDenied, "Denied", workflow.KindDenied).
		Transition(ChangeSubmit, ChangeInAnalysis, ChangeInAnalysis).
		Transition(ChangeLogisticsAccepts, ChangeAccepted, ChangeInAnalysis).
		Transition(ChangeLogisticsDenies, ChangeDenied, ChangeInAnalysis).
		MustBuild()
}

func deliveryChangeProfile(spec Spec) profile {
	awaitingAnalysis := "awaiting logistics analysis"
	return profile{
		rules: []rule{
			on(ChangeSubmit).by(domain.RoleDistributorAdmin).within(hooks.LevelOrigin).
				whileParentIn(DeliveryDispatched, DeliveryChangeRequested).
				notify(pendency(spec, awaitingAnalysis, notification.Team(domain.RoleLogisticsCoordinator))),
			on(ChangeLogisticsAccepts, ChangeLogisticsDenies).by(domain.RoleLogisticsCoordinator).
				whileParentIn(DeliveryChangeRequested).
				resolve(titled(spec, awaitingAnalysis)),
			on(ChangeLogisticsAccepts).notify(notice(spec, "accepted", notification.OriginStaff(domain.RoleDistributorAdmin))),
			on(ChangeLogisticsDenies).notify(alert(spec, "denied", notification.OriginStaff(domain.RoleDistributorAdmin))),
		},
	}
}

// Delivery guide states.
const (
	GuideAwaitingRelease      workflow.State = "AWAITING_RELEASE"
	GuideAwaitingConfirmation workflow.State = "AWAITING_CONFIRMATION"
	GuidePendingCheck         workflow.State = "PENDING_CHECK"
	GuideDeliveryFailed       workflow.State = "DELIVERY_FAILED"
	GuideReceived             workflow.State = "RECEIVED"
	GuideNotReceived          workflow.State = "NOT_RECEIVED"
	GuidePartiallyReceived    workflow.State = "PARTIALLY_RECEIVED"
	GuideTotalReplacement     workflow.State = "TOTAL_REPLACEMENT"
	GuidePartialReplacement   workflow.State = "PARTIAL_REPLACEMENT"
	GuideCancelled            workflow.State = "CANCELLED"
)

// Delivery guide events.
const (
	GuideSystemReleases              workflow.Event = "guide.system_releases"
	GuideDistributorConfirms         workflow.Event = "guide.distributor_confirms"
	GuideResendConfirmation          workflow.Event = "guide.resend_confirmation"
	GuideDistributorRegistersFailure workflow.Event = "guide.distributor_registers_failure"
	GuideSchoolReceives              workflow.Event = "guide.school_receives"
	GuideSchoolDoesNotReceive        workflow.Event = "guide.school_does_not_receive"
	GuideSchoolReceivesPartially     workflow.Event = "guide.school_receives_partially"
	GuideReplacePartially            workflow.Event = "guide.replace_partially"
	GuideReplaceTotally              workflow.Event = "guide.replace_totally"
	GuideCancel                      workflow.Event = "guide.cancel"
)

func deliveryGuideDefinition() *workflow.Definition {
	checkable := []workflow.State{
		GuidePendingCheck, GuideDeliveryFailed, GuideNotReceived, GuidePartiallyReceived,
		GuideReceived, GuidePartialReplacement, GuideTotalReplacement,
	}
	replaceable := []workflow.State{GuideNotReceived, GuidePartiallyReceived, GuidePartialReplacement, GuideTotalReplacement}
	return workflow.Define(DeliveryGuide, "guide", GuideAwaitingRelease).
		State(GuideAwaitingRelease, "Awaiting release", workflow.KindActive).
		State(GuideAwaitingConfirmation, "Awaiting distributor confirmation", workflow.KindActive).
		State(GuidePendingCheck, "Pending receipt check", workflow.KindActive).
		State(GuideDeliveryFailed, "Delivery failed", workflow.KindActive).
		State(GuideReceived, "Received", workflow.KindApproved).
		State(GuideNotReceived, "Not received", workflow.KindDenied).
		State(GuidePartiallyReceived, "Partially received", workflow.KindActive).
		State(GuideTotalReplacement, "Totally replaced", workflow.KindActive).
		State(GuidePartialReplacement, "Partially replaced", workflow.KindActive).
		State(GuideCancelled, "Cancelled", workflow.KindCancelled).
		Transition(GuideSystemReleases, GuideAwaitingConfirmation, GuideAwaitingRelease).
		Transition(GuideDistributorConfirms, GuidePendingCheck, GuideAwaitingConfirmation).
		Transition(GuideResendConfirmation, GuidePendingCheck, GuidePendingCheck).
		Transition(GuideDistributorRegistersFailure, GuideDeliveryFailed, GuidePendingCheck).
		Transition(GuideSchoolReceives, GuideReceived, checkable...).
		Transition(GuideSchoolDoesNotReceive, GuideNotReceived, checkable...).
		Transition(GuideSchoolReceivesPartially, GuidePartiallyReceived, checkable...).
		Transition(GuideReplacePartially, GuidePartialReplacement, replaceable...).
		Transition(GuideReplaceTotally, GuideTotalReplacement, replaceable...).
		Transition(GuideCancel, GuideCancelled, GuideAwaitingRelease, GuideAwaitingConfirmation, GuidePendingCheck).
		Silent(GuideSystemReleases).
		MustBuild()
}

func deliveryGuideProfile(spec Spec) profile {
	awaitingCheck := "awaiting receipt check"
	awaitingReplacement := "awaiting replacement"
	distributor := notification.CounterpartStaff(domain.RoleDistributorAdmin)
	return profile{
		rules: []rule{
			on(GuideSystemReleases).by(domain.RoleSystem).whileParentIn(DeliveryDispatched),
			on(GuideDistributorConfirms, GuideDistributorRegistersFailure, GuideReplacePartially, GuideReplaceTotally).
				by(domain.RoleDistributorAdmin).within(hooks.LevelCounterpart),
			on(GuideResendConfirmation).by(domain.RoleDistributorAdmin, domain.RoleSystem).within(hooks.LevelCounterpart),
			on(GuideSchoolReceives, GuideSchoolDoesNotReceive, GuideSchoolReceivesPartially).
				by(schoolManagers...).within(hooks.LevelOrigin).
				resolve(titled(spec, awaitingCheck)),
			on(GuideCancel).by(domain.RoleLogisticsCoordinator).
				notify(warning(spec, "cancelled", distributor, schoolAudience())),
			on(GuideDistributorConfirms, GuideResendConfirmation, GuideReplacePartially, GuideReplaceTotally).
				notify(pendency(spec, awaitingCheck, schoolAudience()), notice(spec, "on its way", notification.SchoolContact())),
			on(GuideReplacePartially, GuideReplaceTotally).resolve(titled(spec, awaitingReplacement)),
			on(GuideDistributorRegistersFailure).
				notify(alert(spec, "delivery failed", schoolAudience(), notification.Team(domain.RoleLogisticsCoordinator))),
			on(GuideSchoolDoesNotReceive, GuideSchoolReceivesPartially).
				notify(pendency(spec, awaitingReplacement, distributor)),
		},
	}
}
