package catalog

import (
	"merenda/internal/hooks"
	"merenda/internal/notification"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
)

const Measurement = "measurement"

// Measurement states.
const (
	MeasurementOpen                 workflow.State = "OPEN_FOR_SCHOOL"
	MeasurementSubmitted            workflow.State = "SUBMITTED_BY_SCHOOL"
	MeasurementDistrictCorrection   workflow.State = "DISTRICT_CORRECTION_REQUESTED"
	MeasurementCentralCorrection    workflow.State = "CENTRAL_CORRECTION_REQUESTED"
	MeasurementCorrectedForDistrict workflow.State = "CORRECTED_FOR_DISTRICT"
	MeasurementCorrectedForCentral  workflow.State = "CORRECTED_FOR_CENTRAL"
	MeasurementDistrictApproved     workflow.State = "DISTRICT_APPROVED"
	MeasurementCentralApproved      workflow.State = "CENTRAL_APPROVED"
)

// Measurement events.
const (
	MeasurementOpens                      workflow.Event = "measurement.opens"
	MeasurementSchoolSubmits              workflow.Event = "measurement.school_submits"
	MeasurementDistrictRequestsCorrection workflow.Event = "measurement.district_requests_correction"
	MeasurementSchoolCorrects             workflow.Event = "measurement.school_corrects"
	MeasurementDistrictApproves           workflow.Event = "measurement.district_approves"
	MeasurementCentralRequestsCorrection  workflow.Event = "measurement.central_requests_correction"
	MeasurementSchoolCorrectsForCentral   workflow.Event = "measurement.school_corrects_for_central"
	MeasurementCentralApproves            workflow.Event = "measurement.central_approves"
)

func measurementDefinition() *workflow.Definition {
	return workflow.Define(Measurement, "measurement", MeasurementOpen).
		State(MeasurementOpen, "Open for the school to fill in", workflow.KindActive).
		State(MeasurementSubmitted, "Submitted by school", workflow.KindActive).
		State(MeasurementDistrictCorrection, "District requested a correction", workflow.KindActive).
		State(MeasurementCentralCorrection, "Central office requested a correction", workflow.KindActive).
		State(MeasurementCorrectedForDistrict, "Corrected for district", workflow.KindActive).
		State(MeasurementCorrectedForCentral, "Corrected for central office", workflow.KindActive).
		State(MeasurementDistrictApproved, "Approved by district", workflow.KindActive).
		State(MeasurementCentralApproved, "Approved by central office", workflow.KindApproved).
		Transition(MeasurementOpens, MeasurementOpen, MeasurementOpen).
		Transition(MeasurementSchoolSubmits, MeasurementSubmitted, MeasurementOpen).
		Transition(MeasurementDistrictRequestsCorrection, MeasurementDistrictCorrection,
			MeasurementDistrictCorrection, MeasurementSubmitted, MeasurementDistrictApproved, MeasurementCorrectedForDistrict).
		Transition(MeasurementSchoolCorrects, MeasurementCorrectedForDistrict,
			MeasurementDistrictCorrection, MeasurementCorrectedForDistrict).
		Transition(MeasurementDistrictApproves, MeasurementDistrictApproved,
			MeasurementSubmitted, MeasurementDistrictCorrection, MeasurementCorrectedForDistrict).
		Transition(MeasurementCentralRequestsCorrection, MeasurementCentralCorrection,
			MeasurementCentralCorrection, MeasurementCentralApproved, MeasurementDistrictApproved, MeasurementCorrectedForCentral).
		Transition(MeasurementSchoolCorrectsForCentral, MeasurementCorrectedForCentral,
			MeasurementCentralCorrection, MeasurementCorrectedForCentral).
		Transition(MeasurementCentralApproves, MeasurementCentralApproved,
			MeasurementCentralCorrection, MeasurementDistrictApproved, MeasurementCorrectedForCentral).
		MustBuild()
}

func measurementProfile(spec Spec) profile {
	awaitingDistrict := "awaiting district review"
	awaitingCentral := "awaiting central review"
	awaitingSchool := "correction awaiting school"
	return profile{
		snapshot: true,
		rules: []rule{
			on(MeasurementOpens).by(domain.RoleSystem, domain.RoleMeasurementAdmin),
			on(MeasurementSchoolSubmits, MeasurementSchoolCorrects, MeasurementSchoolCorrectsForCentral).
				by(domain.RoleSchoolDirector).within(hooks.LevelOrigin).
				resolve(titled(spec, awaitingSchool)),
			on(MeasurementSchoolSubmits, MeasurementSchoolCorrects).
				notify(pendency(spec, awaitingDistrict, districtAudience())),
			on(MeasurementDistrictRequestsCorrection, MeasurementDistrictApproves).
				by(domain.RoleDistrictCoManager).within(hooks.LevelDistrict).
				resolve(titled(spec, awaitingDistrict)),
			on(MeasurementDistrictRequestsCorrection, MeasurementCentralRequestsCorrection).
				notify(pendency(spec, awaitingSchool, notification.SchoolStaff(domain.RoleSchoolDirector))),
			on(MeasurementDistrictApproves, MeasurementSchoolCorrectsForCentral).
				notify(pendency(spec, awaitingCentral, centralAudience(spec))),
			on(MeasurementCentralRequestsCorrection, MeasurementCentralApproves).
				by(spec.Central).
				resolve(titled(spec, awaitingCentral)),
			on(MeasurementCentralApproves).
				notify(notice(spec, "approved", notification.SchoolStaff(domain.RoleSchoolDirector), districtAudience())),
		},
	}
}
