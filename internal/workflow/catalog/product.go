package catalog

import (
	"slices"

	"merenda/internal/hooks"
	"merenda/internal/notification"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
)

// Definition names of the product families.
const (
	ProductHomologation = "product_homologation"
	ProductComplaint    = "product_complaint"
	ProductRegistration = "product_registration"
)

// Product homologation states.
const (
	ProductDraft                       workflow.State = "DRAFT"
	ProductPendingHomologation         workflow.State = "PENDING_HOMOLOGATION"
	ProductHomologated                 workflow.State = "HOMOLOGATED"
	ProductNotHomologated              workflow.State = "NOT_HOMOLOGATED"
	ProductCorrectionRequested         workflow.State = "CORRECTION_REQUESTED"
	ProductSensoryRequested            workflow.State = "SENSORY_ANALYSIS_REQUESTED"
	ProductSensoryCancelled            workflow.State = "SENSORY_ANALYSIS_CANCELLED"
	ProductSuspended                   workflow.State = "SUSPENDED"
	ProductInactive                    workflow.State = "INACTIVE"
	ProductComplaintFiled              workflow.State = "COMPLAINT_FILED"
	ProductSchoolQuestioned            workflow.State = "SCHOOL_QUESTIONED"
	ProductSchoolAnswered              workflow.State = "SCHOOL_ANSWERED"
	ProductComplaintAnalysisRequested  workflow.State = "COMPLAINT_ANALYSIS_REQUESTED"
	ProductContractorAnsweredComplaint workflow.State = "CONTRACTOR_ANSWERED_COMPLAINT"
	ProductComplaintUpheld             workflow.State = "COMPLAINT_UPHELD"
	ProductContractorCancelled         workflow.State = "CONTRACTOR_CANCELLED"
)

// Product homologation events.
const (
	ProductSubmit                     workflow.Event = "product.submit"
	ProductCentralHomologates         workflow.Event = "product.central_homologates"
	ProductCentralRejects             workflow.Event = "product.central_rejects"
	ProductCentralRequestsCorrection  workflow.Event = "product.central_requests_correction"
	ProductContractorCorrects         workflow.Event = "product.contractor_corrects"
	ProductCentralWithdrawsCorrection workflow.Event = "product.central_withdraws_correction"
	ProductCentralRequestsSensory     workflow.Event = "product.central_requests_sensory_analysis"
	ProductCentralCancelsSensory      workflow.Event = "product.central_cancels_sensory_analysis"
	ProductContractorAnswersSensory   workflow.Event = "product.contractor_answers_sensory_analysis"
	ProductCentralSuspends            workflow.Event = "product.central_suspends"
	ProductCentralReactivates         workflow.Event = "product.central_reactivates"
	ProductComplaintFiles             workflow.Event = "product.complaint_filed"
	ProductCentralQuestionsSchool     workflow.Event = "product.central_questions_school"
	ProductSchoolAnswers              workflow.Event = "product.school_answers"
	ProductCentralRequestsAnalysis    workflow.Event = "product.central_requests_complaint_analysis"
	ProductContractorAnswersComplaint workflow.Event = "product.contractor_answers_complaint"
	ProductCentralUpholdsComplaint    workflow.Event = "product.central_upholds_complaint"
	ProductCentralDismissesComplaint  workflow.Event = "product.central_dismisses_complaint"
	ProductInactivate                 workflow.Event = "product.inactivate"
	ProductContractorCancels          workflow.Event = "product.contractor_cancels"
)

func productHomologationDefinition() *workflow.Definition {
	underComplaint := []workflow.State{
		ProductComplaintAnalysisRequested, ProductComplaintFiled, ProductContractorAnsweredComplaint,
		ProductSchoolAnswered, ProductSchoolQuestioned, ProductSensoryRequested,
	}
	return workflow.Define(ProductHomologation, "product", ProductDraft).
		State(ProductDraft, "Draft", workflow.KindActive).
		State(ProductPendingHomologation, "Pending central homologation", workflow.KindActive).
		State(ProductHomologated, "Homologated", workflow.KindApproved).
		State(ProductNotHomologated, "Not homologated", workflow.KindDenied).
		State(ProductCorrectionRequested, "Central office requested a correction", workflow.KindActive).
		State(ProductSensoryRequested, "Sensory analysis requested", workflow.KindActive).
		State(ProductSensoryCancelled, "Sensory analysis cancelled", workflow.KindActive).
		State(ProductSuspended, "Suspended by central office", workflow.KindDenied).
		State(ProductInactive, "Homologation inactive", workflow.KindCancelled).
		State(ProductComplaintFiled, "Complaint filed", workflow.KindActive).
		State(ProductSchoolQuestioned, "Central office questioned the school", workflow.KindActive).
		State(ProductSchoolAnswered, "School answered the questioning", workflow.KindActive).
		State(ProductComplaintAnalysisRequested, "Complaint analysis requested", workflow.KindActive).
		State(ProductContractorAnsweredComplaint, "Contractor answered the complaint", workflow.KindActive).
		State(ProductComplaintUpheld, "Complaint upheld", workflow.KindDenied).
		State(ProductContractorCancelled, "Cancelled by contractor", workflow.KindCancelled).
		Transition(ProductSubmit, ProductPendingHomologation,
			ProductDraft, ProductNotHomologated, ProductHomologated, ProductSuspended,
			ProductContractorCancelled, ProductComplaintUpheld, ProductSensoryCancelled).
		Transition(ProductCentralHomologates, ProductHomologated,
			ProductPendingHomologation, ProductSensoryRequested, ProductContractorAnsweredComplaint,
			ProductSuspended, ProductComplaintFiled, ProductSensoryCancelled).
		Transition(ProductCentralRejects, ProductNotHomologated, ProductPendingHomologation, ProductSensoryRequested).
		Transition(ProductCentralRequestsCorrection, ProductCorrectionRequested, ProductPendingHomologation).
		Transition(ProductContractorCorrects, ProductPendingHomologation, ProductCorrectionRequested).
		Transition(ProductCentralWithdrawsCorrection, ProductPendingHomologation, ProductCorrectionRequested).
		Transition(ProductCentralRequestsSensory, ProductSensoryRequested,
			ProductComplaintAnalysisRequested, ProductSchoolAnswered, ProductPendingHomologation,
			ProductComplaintFiled, ProductContractorAnsweredComplaint, ProductHomologated).
		Transition(ProductCentralCancelsSensory, ProductSensoryCancelled, ProductSensoryRequested).
		Transition(ProductContractorAnswersSensory, ProductPendingHomologation, ProductSensoryRequested).
		Transition(ProductCentralSuspends, ProductSuspended, ProductPendingHomologation, ProductHomologated).
		Transition(ProductCentralReactivates, ProductHomologated, ProductSuspended, ProductHomologated, ProductComplaintUpheld).
		Transition(ProductComplaintFiles, ProductComplaintFiled, ProductHomologated, ProductSensoryCancelled).
		Transition(ProductCentralQuestionsSchool, ProductSchoolQuestioned, underComplaint...).
		Transition(ProductSchoolAnswers, ProductSchoolAnswered, ProductSchoolQuestioned).
		Transition(ProductCentralRequestsAnalysis, ProductComplaintAnalysisRequested, underComplaint...).
		Transition(ProductContractorAnswersComplaint, ProductContractorAnsweredComplaint, ProductComplaintAnalysisRequested).
		Transition(ProductCentralUpholdsComplaint, ProductComplaintUpheld, underComplaint...).
		Transition(ProductCentralDismissesComplaint, ProductHomologated, append([]workflow.State{ProductHomologated}, underComplaint...)...).
		Transition(ProductInactivate, ProductInactive,
			ProductSuspended, ProductComplaintFiled, ProductCorrectionRequested, ProductHomologated,
			ProductNotHomologated, ProductComplaintUpheld, ProductContractorCancelled).
		Transition(ProductContractorCancels, ProductContractorCancelled, ProductPendingHomologation).
		MustBuild()
}

func productHomologationProfile(spec Spec) profile {
	awaitingCentral := "awaiting central homologation"
	awaitingCorrection := "awaiting contractor correction"
	awaitingSensory := "awaiting sensory analysis"
	awaitingSchool := "questioning awaiting school answer"
	awaitingComplaint := "complaint awaiting contractor answer"
	contractor := notification.OriginStaff(contractorStaff...)
	central := centralAudience(spec)
	centralEvents := []workflow.Event{
		ProductCentralHomologates, ProductCentralRejects, ProductCentralRequestsCorrection,
		ProductCentralWithdrawsCorrection, ProductCentralRequestsSensory, ProductCentralCancelsSensory,
		ProductCentralSuspends, ProductCentralReactivates, ProductCentralQuestionsSchool,
		ProductCentralRequestsAnalysis, ProductCentralUpholdsComplaint, ProductCentralDismissesComplaint,
		ProductInactivate,
	}
	return profile{
		rules: []rule{
			on(ProductSubmit, ProductContractorCorrects, ProductContractorAnswersSensory,
				ProductContractorAnswersComplaint, ProductContractorCancels).
				by(contractorStaff...).within(hooks.LevelOrigin),
			on(ProductSubmit, ProductContractorCorrects, ProductContractorAnswersSensory).
				notify(pendency(spec, awaitingCentral, central)),
			on(centralEvents...).by(spec.Central),
			on(ProductCentralHomologates, ProductCentralRejects, ProductCentralRequestsCorrection,
				ProductCentralRequestsSensory, ProductCentralSuspends).
				resolve(titled(spec, awaitingCentral)),
			on(ProductCentralHomologates).notify(notice(spec, "homologated", contractor)),
			on(ProductCentralRejects).notify(alert(spec, "not homologated", contractor)),
			on(ProductCentralRequestsCorrection).notify(pendency(spec, awaitingCorrection, contractor)),
			on(ProductContractorCorrects, ProductCentralWithdrawsCorrection).resolve(titled(spec, awaitingCorrection)),
			on(ProductCentralRequestsSensory).notify(pendency(spec, awaitingSensory, contractor)),
			on(ProductContractorAnswersSensory, ProductCentralCancelsSensory).resolve(titled(spec, awaitingSensory)),
			on(ProductCentralSuspends).notify(warning(spec, "suspended", contractor, notification.Team(domain.RoleCentralNutritionist))),
			on(ProductCentralReactivates).notify(notice(spec, "reactivated", contractor)),
			on(ProductComplaintFiles).by(domain.RoleSchoolDirector, domain.RoleCentralNutritionist).
				notify(pendency(spec, "complaint awaiting central analysis", central)),
			on(ProductCentralQuestionsSchool).notify(pendency(spec, awaitingSchool, schoolAudience())),
			on(ProductSchoolAnswers).by(schoolManagers...).resolve(titled(spec, awaitingSchool)),
			on(ProductCentralRequestsAnalysis).notify(pendency(spec, awaitingComplaint, contractor)),
			on(ProductContractorAnswersComplaint).resolve(titled(spec, awaitingComplaint)),
			on(ProductCentralUpholdsComplaint, ProductCentralDismissesComplaint).
				resolve(titled(spec, "complaint awaiting central analysis")),
			on(ProductCentralUpholdsComplaint).notify(alert(spec, "complaint upheld", contractor)),
			on(ProductInactivate).notify(warning(spec, "inactivated", contractor)),
			on(ProductContractorCancels).resolve(titled(spec, awaitingCentral)),
		},
	}
}

// Product complaint states.
const (
	ComplaintAwaitingEvaluation workflow.State = "AWAITING_EVALUATION"
	ComplaintAwaitingContractor workflow.State = "AWAITING_CONTRACTOR_ANSWER"
	ComplaintContractorAnswered workflow.State = "CONTRACTOR_ANSWERED"
	ComplaintAwaitingSensory    workflow.State = "AWAITING_SENSORY_ANALYSIS"
	ComplaintSensoryAnswered    workflow.State = "SENSORY_ANALYSIS_ANSWERED"
	ComplaintAwaitingSchool     workflow.State = "AWAITING_SCHOOL_ANSWER"
	ComplaintSchoolAnswered     workflow.State = "SCHOOL_ANSWERED"
	ComplaintCentralAccepted    workflow.State = "CENTRAL_ACCEPTED"
	ComplaintCentralRefused     workflow.State = "CENTRAL_REFUSED"
	ComplaintCentralReplied     workflow.State = "CENTRAL_REPLIED"
)

// Product complaint events.
const (
	ComplaintCentralQuestionsContractor workflow.Event = "complaint.central_questions_contractor"
	ComplaintContractorAnswers          workflow.Event = "complaint.contractor_answers"
	ComplaintCentralQuestionsSchool     workflow.Event = "complaint.central_questions_school"
	ComplaintSchoolAnswers              workflow.Event = "complaint.school_answers"
	ComplaintCentralAccepts             workflow.Event = "complaint.central_accepts"
	ComplaintCentralRefuses             workflow.Event = "complaint.central_refuses"
	ComplaintCentralReplies             workflow.Event = "complaint.central_replies"
	ComplaintCentralRequestsSensory     workflow.Event = "complaint.central_requests_sensory_analysis"
	ComplaintCentralCancelsSensory      workflow.Event = "complaint.central_cancels_sensory_analysis"
	ComplaintContractorAnswersSensory   workflow.Event = "complaint.contractor_answers_sensory_analysis"
)

func productComplaintDefinition() *workflow.Definition {
	open := []workflow.State{
		ComplaintAwaitingEvaluation, ComplaintSensoryAnswered, ComplaintContractorAnswered, ComplaintSchoolAnswered,
	}
	decidable := append(slices.Clone(open), ComplaintAwaitingContractor, ComplaintAwaitingSensory, ComplaintAwaitingSchool)
	return workflow.Define(ProductComplaint, "complaint", ComplaintAwaitingEvaluation).
		State(ComplaintAwaitingEvaluation, "Awaiting central evaluation", workflow.KindActive).
		State(ComplaintAwaitingContractor, "Awaiting contractor answer", workflow.KindActive).
		State(ComplaintContractorAnswered, "Answered by contractor", workflow.KindActive).
		State(ComplaintAwaitingSensory, "Awaiting sensory analysis", workflow.KindActive).
		State(ComplaintSensoryAnswered, "Sensory analysis answered", workflow.KindActive).
		State(ComplaintAwaitingSchool, "Awaiting school answer", workflow.KindActive).
		State(ComplaintSchoolAnswered, "Answered by school", workflow.KindActive).
		State(ComplaintCentralAccepted, "Accepted by central office", workflow.KindApproved).
		State(ComplaintCentralRefused, "Refused by central office", workflow.KindDenied).
		State(ComplaintCentralReplied, "Central office replied to the complainant", workflow.KindApproved).
		Transition(ComplaintCentralQuestionsContractor, ComplaintAwaitingContractor, open...).
		Transition(ComplaintContractorAnswers, ComplaintContractorAnswered, ComplaintAwaitingContractor).
		Transition(ComplaintCentralQuestionsSchool, ComplaintAwaitingSchool, open...).
		Transition(ComplaintSchoolAnswers, ComplaintSchoolAnswered, ComplaintAwaitingSchool).
		Transition(ComplaintCentralAccepts, ComplaintCentralAccepted, decidable...).
		Transition(ComplaintCentralRefuses, ComplaintCentralRefused, decidable...).
		Transition(ComplaintCentralReplies, ComplaintCentralReplied, open...).
		Transition(ComplaintCentralRequestsSensory, ComplaintAwaitingSensory, open...).
		Transition(ComplaintCentralCancelsSensory, ComplaintAwaitingEvaluation, ComplaintAwaitingSensory).
		Transition(ComplaintContractorAnswersSensory, ComplaintSensoryAnswered, ComplaintAwaitingSensory).
		MustBuild()
}

func productComplaintProfile(spec Spec) profile {
	awaitingContractor := "complaint awaiting contractor answer"
	awaitingSensory := "complaint awaiting sensory analysis"
	awaitingSchool := "complaint awaiting school answer"
	contractor := notification.CounterpartStaff(contractorStaff...)
	complainant := notification.OriginStaff(schoolManagers...)
	return profile{
		rules: []rule{
			on(ComplaintCentralQuestionsContractor, ComplaintCentralQuestionsSchool, ComplaintCentralAccepts,
				ComplaintCentralRefuses, ComplaintCentralReplies, ComplaintCentralRequestsSensory,
				ComplaintCentralCancelsSensory).by(spec.Central),
			on(ComplaintContractorAnswers, ComplaintContractorAnswersSensory).
				by(contractorStaff...).within(hooks.LevelCounterpart),
			on(ComplaintSchoolAnswers).by(schoolManagers...).within(hooks.LevelOrigin),
			on(ComplaintCentralQuestionsContractor).notify(pendency(spec, awaitingContractor, contractor)),
			on(ComplaintContractorAnswers).resolve(titled(spec, awaitingContractor)),
			on(ComplaintCentralQuestionsSchool).notify(pendency(spec, awaitingSchool, complainant)),
			on(ComplaintSchoolAnswers).resolve(titled(spec, awaitingSchool)),
			on(ComplaintCentralRequestsSensory).notify(pendency(spec, awaitingSensory, contractor)),
			on(ComplaintContractorAnswersSensory, ComplaintCentralCancelsSensory).resolve(titled(spec, awaitingSensory)),
			on(ComplaintCentralAccepts, ComplaintCentralRefuses).
				resolve(titled(spec, awaitingContractor), titled(spec, awaitingSensory), titled(spec, awaitingSchool)),
			on(ComplaintCentralAccepts).notify(notice(spec, "accepted", complainant, contractor)),
			on(ComplaintCentralRefuses).notify(notice(spec, "refused", complainant)),
			on(ComplaintCentralReplies).notify(notice(spec, "answered by central office", complainant)),
		},
	}
}

// Product registration states.
const (
	RegistrationAwaitingConfirmation workflow.State = "AWAITING_CONFIRMATION"
	RegistrationConfirmed            workflow.State = "CONFIRMED"
)

const RegistrationContractorFulfills workflow.Event = "registration.contractor_fulfills"

func productRegistrationDefinition() *workflow.Definition {
	return workflow.Define(ProductRegistration, "registration", RegistrationAwaitingConfirmation).
		State(RegistrationAwaitingConfirmation, "Awaiting contractor confirmation", workflow.KindActive).
		State(RegistrationConfirmed, "Confirmed", workflow.KindApproved).
		Transition(RegistrationContractorFulfills, RegistrationConfirmed, RegistrationAwaitingConfirmation).
		MustBuild()
}

func productRegistrationProfile(spec Spec) profile {
	return profile{
		rules: []rule{
			on(RegistrationContractorFulfills).by(contractorStaff...).within(hooks.LevelCounterpart).
				notify(notice(spec, "fulfilled by contractor", centralAudience(spec))),
		},
	}
}
