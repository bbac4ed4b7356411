package catalog

import (
	"merenda/internal/hooks"
	"merenda/internal/notification"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
)

// Definition names of the supply pre-registration families.
const (
	Cronogram        = "cronogram"
	CronogramChange  = "cronogram_change"
	PackagingLayout  = "packaging_layout"
	ReceiptDocument  = "receipt_document"
	TechnicalSheet   = "technical_sheet"
	OccurrenceNotice = "occurrence_notice"
)

// Cronogram states.
const (
	CronogramDraft           workflow.State = "DRAFT"
	CronogramSentToSupplier  workflow.State = "SENT_TO_SUPPLIER"
	CronogramSupplierSigned  workflow.State = "SUPPLIER_SIGNED"
	CronogramSupplySigned    workflow.State = "SUPPLY_SIGNED"
	CronogramCentralSigned   workflow.State = "CENTRAL_SIGNED"
	CronogramChangeRequested workflow.State = "CHANGE_REQUESTED"
	CronogramCentralChanging workflow.State = "CENTRAL_CHANGING"
)

// Cronogram events.
const (
	CronogramSubmit                 workflow.Event = "cronogram.submit"
	CronogramSupplierSigns          workflow.Event = "cronogram.supplier_signs"
	CronogramSupplySigns            workflow.Event = "cronogram.supply_signs"
	CronogramCentralSigns           workflow.Event = "cronogram.central_signs"
	CronogramSupplierRequestsChange workflow.Event = "cronogram.supplier_requests_change"
	CronogramCentralChanges         workflow.Event = "cronogram.central_changes"
	CronogramFinishesChange         workflow.Event = "cronogram.finishes_change"
)

func cronogramDefinition() *workflow.Definition {
	return workflow.Define(Cronogram, "cronogram", CronogramDraft).
		State(CronogramDraft, "Draft", workflow.KindActive).
		State(CronogramSentToSupplier, "Signed and sent to supplier", workflow.KindActive).
		State(CronogramSupplierSigned, "Signed by supplier", workflow.KindActive).
		State(CronogramSupplySigned, "Signed by supply", workflow.KindActive).
		State(CronogramCentralSigned, "Signed by central office", workflow.KindApproved).
		State(CronogramChangeRequested, "Change requested", workflow.KindActive).
		State(CronogramCentralChanging, "Changed by central office", workflow.KindActive).
		Transition(CronogramSubmit, CronogramSentToSupplier, CronogramDraft).
		Transition(CronogramSupplierSigns, CronogramSupplierSigned, CronogramSentToSupplier).
		Transition(CronogramSupplySigns, CronogramSupplySigned, CronogramSupplierSigned).
		Transition(CronogramCentralSigns, CronogramCentralSigned, CronogramSupplySigned).
		Transition(CronogramSupplierRequestsChange, CronogramChangeRequested, CronogramCentralSigned).
		Transition(CronogramCentralChanges, CronogramCentralChanging, CronogramCentralSigned).
		Transition(CronogramFinishesChange, CronogramCentralSigned, CronogramChangeRequested, CronogramCentralChanging).
		MustBuild()
}

func cronogramProfile(spec Spec) profile {
	supplier := notification.CounterpartStaff(domain.RoleSupplierAdmin)
	awaitingSupplier := "awaiting supplier signature"
	awaitingSupply := "awaiting supply signature"
	awaitingCentral := "awaiting central signature"
	return profile{
		rules: []rule{
			on(CronogramSubmit, CronogramCentralChanges, CronogramFinishesChange).by(domain.RoleCronogramManager),
			on(CronogramSubmit).notify(pendency(spec, awaitingSupplier, supplier)),
			on(CronogramSupplierSigns, CronogramSupplierRequestsChange).
				by(domain.RoleSupplierAdmin).within(hooks.LevelCounterpart),
			on(CronogramSupplierSigns).
				resolve(titled(spec, awaitingSupplier)).
				notify(pendency(spec, awaitingSupply, notification.Team(domain.RoleSupplyManager))),
			on(CronogramSupplySigns).by(domain.RoleSupplyManager).
				resolve(titled(spec, awaitingSupply)).
				notify(pendency(spec, awaitingCentral, notification.Team(domain.RoleLogisticsCoordinator))),
			on(CronogramCentralSigns).by(domain.RoleLogisticsCoordinator).
				resolve(titled(spec, awaitingCentral)).
				notify(notice(spec, "signed", supplier, notification.Team(domain.RoleCronogramManager))),
			on(CronogramSupplierRequestsChange).
				notify(pendency(spec, "change awaiting analysis", notification.Team(domain.RoleCronogramManager))),
			on(CronogramFinishesChange).resolve(titled(spec, "change awaiting analysis")),
		},
	}
}

// Cronogram change states.
const (
	CronoChangeCreated           workflow.State = "CREATED"
	CronoChangeInAnalysis        workflow.State = "IN_ANALYSIS"
	CronoChangeSentToSupplier    workflow.State = "SENT_TO_SUPPLIER"
	CronoChangeSupplierAware     workflow.State = "SUPPLIER_AWARE"
	CronoChangeCronogramAware    workflow.State = "CRONOGRAM_AWARE"
	CronoChangeSupplyApproved    workflow.State = "SUPPLY_APPROVED"
	CronoChangeSupplyRejected    workflow.State = "SUPPLY_REJECTED"
	CronoChangeLogisticsApproved workflow.State = "LOGISTICS_APPROVED"
	CronoChangeLogisticsRejected workflow.State = "LOGISTICS_REJECTED"
)

// Cronogram change events.
const (
	CronoChangeSubmit                workflow.Event = "cronochange.submit"
	CronoChangeCentralSubmit         workflow.Event = "cronochange.central_submit"
	CronoChangeSupplierAcknowledges  workflow.Event = "cronochange.supplier_acknowledges"
	CronoChangeCronogramAcknowledges workflow.Event = "cronochange.cronogram_acknowledges"
	CronoChangeSupplyApproves        workflow.Event = "cronochange.supply_approves"
	CronoChangeSupplyRejects         workflow.Event = "cronochange.supply_rejects"
	CronoChangeLogisticsApproves     workflow.Event = "cronochange.logistics_approves"
	CronoChangeLogisticsRejects      workflow.Event = "cronochange.logistics_rejects"
)

func cronogramChangeDefinition() *workflow.Definition {
	supplyDecided := []workflow.State{CronoChangeSupplyApproved, CronoChangeSupplyRejected}
	return workflow.Define(CronogramChange, "cronochange", CronoChangeCreated).
		State(CronoChangeCreated, "Created", workflow.KindActive).
		State(CronoChangeInAnalysis, "In analysis", workflow.KindActive).
		State(CronoChangeSentToSupplier, "Sent to supplier", workflow.KindActive).
		State(CronoChangeSupplierAware, "Supplier aware", workflow.KindApproved).
		State(CronoChangeCronogramAware, "Cronogram team aware", workflow.KindActive).
		State(CronoChangeSupplyApproved, "Approved by supply", workflow.KindActive).
		State(CronoChangeSupplyRejected, "Rejected by supply", workflow.KindActive).
		State(CronoChangeLogisticsApproved, "Approved by logistics", workflow.KindApproved).
		State(CronoChangeLogisticsRejected, "Rejected by logistics", workflow.KindDenied).
		Transition(CronoChangeSubmit, CronoChangeInAnalysis, CronoChangeCreated).
		Transition(CronoChangeCentralSubmit, CronoChangeSentToSupplier, CronoChangeCreated).
		Transition(CronoChangeSupplierAcknowledges, CronoChangeSupplierAware, CronoChangeSentToSupplier).
		Transition(CronoChangeCronogramAcknowledges, CronoChangeCronogramAware, CronoChangeInAnalysis).
		Transition(CronoChangeSupplyApproves, CronoChangeSupplyApproved, CronoChangeCronogramAware).
		Transition(CronoChangeSupplyRejects, CronoChangeSupplyRejected, CronoChangeCronogramAware).
		Transition(CronoChangeLogisticsApproves, CronoChangeLogisticsApproved, supplyDecided...).
		Transition(CronoChangeLogisticsRejects, CronoChangeLogisticsRejected, supplyDecided...).
		MustBuild()
}

func cronogramChangeProfile(spec Spec) profile {
	cronogramTeam := notification.Team(domain.RoleCronogramManager)
	awaitingCronogram := "awaiting cronogram analysis"
	awaitingSupply := "awaiting supply decision"
	awaitingLogistics := "awaiting logistics decision"
	return profile{
		rules: []rule{
			on(CronoChangeSubmit).by(domain.RoleSupplierAdmin).within(hooks.LevelOrigin).
				notify(pendency(spec, awaitingCronogram, cronogramTeam)),
			on(CronoChangeCentralSubmit).by(domain.RoleCronogramManager).
				notify(pendency(spec, "awaiting supplier acknowledgment", notification.CounterpartStaff(domain.RoleSupplierAdmin))),
			on(CronoChangeSupplierAcknowledges).by(domain.RoleSupplierAdmin).within(hooks.LevelCounterpart).
				resolve(titled(spec, "awaiting supplier acknowledgment")),
			on(CronoChangeCronogramAcknowledges).by(domain.RoleCronogramManager).
				resolve(titled(spec, awaitingCronogram)).
				notify(pendency(spec, awaitingSupply, notification.Team(domain.RoleSupplyManager))),
			on(CronoChangeSupplyApproves, CronoChangeSupplyRejects).by(domain.RoleSupplyManager).
				resolve(titled(spec, awaitingSupply)).
				notify(pendency(spec, awaitingLogistics, notification.Team(domain.RoleLogisticsCoordinator))),
			on(CronoChangeLogisticsApproves, CronoChangeLogisticsRejects).by(domain.RoleLogisticsCoordinator).
				resolve(titled(spec, awaitingLogistics)),
			on(CronoChangeLogisticsApproves).notify(notice(spec, "approved", notification.OriginStaff(domain.RoleSupplierAdmin), cronogramTeam)),
			on(CronoChangeLogisticsRejects).notify(alert(spec, "rejected", notification.OriginStaff(domain.RoleSupplierAdmin), cronogramTeam)),
		},
	}
}

// reviewEvents are the events of a supplier document reviewed by one team.
type reviewEvents struct {
	submit, approve, requestCorrection, correct, update workflow.Event
}

// reviewLoop declares the submit, analyze and approve-or-correct loop shared
// by the supplier document families. correctApproved also lets the reviewer
// reopen an approved document.
func reviewLoop(name, namespace string, initial workflow.State, initialLabel string, ev reviewEvents, correctApproved bool) *workflow.Definition {
	correctionSources := []workflow.State{ReviewSentForAnalysis}
	if correctApproved {
		correctionSources = append(correctionSources, ReviewApproved)
	}
	return workflow.Define(name, namespace, initial).
		State(initial, initialLabel, workflow.KindActive).
		State(ReviewSentForAnalysis, "Sent for analysis", workflow.KindActive).
		State(ReviewApproved, "Approved", workflow.KindApproved).
		State(ReviewCorrectionRequested, "Correction requested", workflow.KindActive).
		Transition(ev.submit, ReviewSentForAnalysis, initial).
		Transition(ev.approve, ReviewApproved, ReviewSentForAnalysis).
		Transition(ev.requestCorrection, ReviewCorrectionRequested, correctionSources...).
		Transition(ev.correct, ReviewSentForAnalysis, ReviewCorrectionRequested).
		Transition(ev.update, ReviewSentForAnalysis, ReviewApproved).
		MustBuild()
}

func reviewProfile(spec Spec, ev reviewEvents, reviewers ...domain.Role) profile {
	awaitingReview := "awaiting analysis"
	awaitingCorrection := "awaiting supplier correction"
	supplier := notification.OriginStaff(domain.RoleSupplierAdmin)
	return profile{
		rules: []rule{
			on(ev.submit, ev.correct, ev.update).by(domain.RoleSupplierAdmin).within(hooks.LevelOrigin).
				notify(pendency(spec, awaitingReview, notification.Team(reviewers...))),
			on(ev.correct).resolve(titled(spec, awaitingCorrection)),
			on(ev.approve, ev.requestCorrection).by(reviewers...).
				resolve(titled(spec, awaitingReview)),
			on(ev.approve).notify(notice(spec, "approved", supplier)),
			on(ev.requestCorrection).notify(pendency(spec, awaitingCorrection, supplier)),
		},
	}
}

// States shared by the supplier document families.
const (
	ReviewSentForAnalysis     workflow.State = "SENT_FOR_ANALYSIS"
	ReviewApproved            workflow.State = "APPROVED"
	ReviewCorrectionRequested workflow.State = "CORRECTION_REQUESTED"
)

// Initial states of the supplier document families.
const (
	LayoutCreated  workflow.State = "CREATED"
	ReceiptCreated workflow.State = "CREATED"
	SheetDraft     workflow.State = "DRAFT"
)

const (
	LayoutSubmit                    workflow.Event = "layout.submit"
	LayoutCentralApproves           workflow.Event = "layout.central_approves"
	LayoutCentralRequestsCorrection workflow.Event = "layout.central_requests_correction"
	LayoutSupplierCorrects          workflow.Event = "layout.supplier_corrects"
	LayoutSupplierUpdates           workflow.Event = "layout.supplier_updates"

	ReceiptSubmit                    workflow.Event = "receipt.submit"
	ReceiptQualityApproves           workflow.Event = "receipt.quality_approves"
	ReceiptQualityRequestsCorrection workflow.Event = "receipt.quality_requests_correction"
	ReceiptSupplierCorrects          workflow.Event = "receipt.supplier_corrects"
	ReceiptSupplierUpdates           workflow.Event = "receipt.supplier_updates"

	SheetSubmit                    workflow.Event = "sheet.submit"
	SheetCentralApproves           workflow.Event = "sheet.central_approves"
	SheetCentralRequestsCorrection workflow.Event = "sheet.central_requests_correction"
	SheetSupplierCorrects          workflow.Event = "sheet.supplier_corrects"
	SheetSupplierUpdates           workflow.Event = "sheet.supplier_updates"
)

var (
	layoutEvents = reviewEvents{
		submit: LayoutSubmit, approve: LayoutCentralApproves, requestCorrection: LayoutCentralRequestsCorrection,
		correct: LayoutSupplierCorrects, update: LayoutSupplierUpdates,
	}
	receiptEvents = reviewEvents{
		submit: ReceiptSubmit, approve: ReceiptQualityApproves, requestCorrection: ReceiptQualityRequestsCorrection,
		correct: ReceiptSupplierCorrects, update: ReceiptSupplierUpdates,
	}
	sheetEvents = reviewEvents{
		submit: SheetSubmit, approve: SheetCentralApproves, requestCorrection: SheetCentralRequestsCorrection,
		correct: SheetSupplierCorrects, update: SheetSupplierUpdates,
	}
)

func packagingLayoutDefinition() *workflow.Definition {
	return reviewLoop(PackagingLayout, "layout", LayoutCreated, "Layout created", layoutEvents, true)
}

func packagingLayoutProfile(spec Spec) profile {
	return reviewProfile(spec, layoutEvents, spec.Central)
}

func receiptDocumentDefinition() *workflow.Definition {
	return reviewLoop(ReceiptDocument, "receipt", ReceiptCreated, "Document created", receiptEvents, false)
}

func receiptDocumentProfile(spec Spec) profile {
	return reviewProfile(spec, receiptEvents, domain.RoleQualityManager)
}

func technicalSheetDefinition() *workflow.Definition {
	return reviewLoop(TechnicalSheet, "sheet", SheetDraft, "Draft", sheetEvents, false)
}

func technicalSheetProfile(spec Spec) profile {
	return reviewProfile(spec, sheetEvents, spec.Central)
}

// Occurrence notice states.
const (
	OccurrenceDraft           workflow.State = "DRAFT"
	OccurrenceCreated         workflow.State = "CREATED"
	OccurrenceSentToInspector workflow.State = "SENT_TO_INSPECTOR"
	OccurrenceChangeRequested workflow.State = "CHANGE_REQUESTED"
	OccurrenceSigned          workflow.State = "SIGNED_BY_INSPECTOR"
)

// Occurrence notice events.
const (
	OccurrenceStart                   workflow.Event = "occurrence.start"
	OccurrenceCreate                  workflow.Event = "occurrence.create"
	OccurrenceSendToInspector         workflow.Event = "occurrence.send_to_inspector"
	OccurrenceInspectorRequestsChange workflow.Event = "occurrence.inspector_requests_change"
	OccurrenceInspectorSigns          workflow.Event = "occurrence.inspector_signs"
)

func occurrenceNoticeDefinition() *workflow.Definition {
	return workflow.Define(OccurrenceNotice, "occurrence", OccurrenceDraft).
		State(OccurrenceDraft, "Draft", workflow.KindActive).
		State(OccurrenceCreated, "Notice created", workflow.KindActive).
		State(OccurrenceSentToInspector, "Sent to inspector", workflow.KindActive).
		State(OccurrenceChangeRequested, "Change requested", workflow.KindActive).
		State(OccurrenceSigned, "Signed by inspector", workflow.KindApproved).
		Transition(OccurrenceStart, OccurrenceDraft, OccurrenceDraft).
		Transition(OccurrenceCreate, OccurrenceCreated, OccurrenceDraft).
		Transition(OccurrenceSendToInspector, OccurrenceSentToInspector, OccurrenceCreated).
		Transition(OccurrenceInspectorRequestsChange, OccurrenceChangeRequested, OccurrenceSentToInspector).
		Transition(OccurrenceInspectorSigns, OccurrenceSigned, OccurrenceSentToInspector).
		MustBuild()
}

func occurrenceNoticeProfile(spec Spec) profile {
	awaitingInspector := "awaiting inspector signature"
	quality := notification.Team(domain.RoleQualityManager)
	return profile{
		rules: []rule{
			on(OccurrenceStart, OccurrenceCreate, OccurrenceSendToInspector).by(domain.RoleQualityManager),
			on(OccurrenceSendToInspector).notify(pendency(spec, awaitingInspector, notification.Team(domain.RoleInspector))),
			on(OccurrenceInspectorRequestsChange, OccurrenceInspectorSigns).by(domain.RoleInspector).
				resolve(titled(spec, awaitingInspector)),
			on(OccurrenceInspectorRequestsChange).notify(warning(spec, "change requested by inspector", quality)),
			on(OccurrenceInspectorSigns).
				notify(alert(spec, "issued", notification.CounterpartStaff(domain.RoleSupplierAdmin)), notice(spec, "signed", quality)),
		},
	}
}
