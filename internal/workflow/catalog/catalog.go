// Package catalog declares every request lifecycle of the program on top of
// the workflow engine. Each family's transition table is declared once;
// concrete request kinds differ only in the hooks attached to it.
package catalog

import (
	"fmt"
	"log/slog"
	"slices"

	"merenda/internal/audit"
	"merenda/internal/calendar"
	"merenda/internal/directory"
	"merenda/internal/hooks"
	"merenda/internal/notification"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
)

// Kind is a concrete request type.
type Kind string

const (
	KindMenuChange          Kind = "menu_change"
	KindMealInclusion       Kind = "meal_inclusion"
	KindContinuousInclusion Kind = "continuous_inclusion"
	KindMenuInversion       Kind = "menu_inversion"
	KindSnackKit            Kind = "snack_kit"
	KindUnifiedSnackKit     Kind = "unified_snack_kit"
	KindMealSuspension      Kind = "meal_suspension"
	KindSpecialDiet         Kind = "special_diet"
	KindProductHomologation Kind = "product_homologation"
	KindProductComplaint    Kind = "product_complaint"
	KindProductRegistration Kind = "product_registration"
	KindDeliveryRequest     Kind = "delivery_request"
	KindDeliveryChange      Kind = "delivery_change"
	KindDeliveryGuide       Kind = "delivery_guide"
	KindMeasurementReport   Kind = "measurement_report"
	KindCronogram           Kind = "cronogram"
	KindCronogramChange     Kind = "cronogram_change"
	KindPackagingLayout     Kind = "packaging_layout"
	KindReceiptDocument     Kind = "receipt_document"
	KindTechnicalSheet      Kind = "technical_sheet"
	KindOccurrenceNotice    Kind = "occurrence_notice"
)

// Operation is a generic action callers can request without knowing the
// kind's event names.
type Operation string

const (
	OpSubmit      Operation = "submit"
	OpCancel      Operation = "cancel"
	OpAcknowledge Operation = "acknowledge"
)

// Spec describes one kind: its definition, how it is presented in
// notifications and which generic operations it maps.
type Spec struct {
	Kind       Kind
	Definition string
	Label      string
	Topic      notification.Topic
	Module     directory.ServiceModule
	// Central is the central-office role that authorizes the kind.
	Central    domain.Role
	Operations map[Operation]workflow.Event
}

var specs = []Spec{
	schoolSpec(KindMenuChange, "Menu change"),
	schoolSpec(KindMealInclusion, "Meal inclusion"),
	schoolSpec(KindContinuousInclusion, "Continuous meal inclusion"),
	schoolSpec(KindMenuInversion, "Menu inversion"),
	schoolSpec(KindSnackKit, "Snack kit"),
	{
		Kind: KindUnifiedSnackKit, Definition: DistrictRequest, Label: "Unified snack kit",
		Topic: notification.TopicMealRequest, Module: directory.ModuleMeals, Central: domain.RoleCentralMealManager,
		Operations: map[Operation]workflow.Event{
			OpSubmit: DistrictSubmit, OpCancel: DistrictCancel, OpAcknowledge: DistrictContractorAcknowledges,
		},
	},
	{
		Kind: KindMealSuspension, Definition: Acknowledgment, Label: "Meal suspension",
		Topic: notification.TopicMealRequest, Module: directory.ModuleMeals,
		Operations: map[Operation]workflow.Event{
			OpSubmit: AckInform, OpCancel: AckCancel, OpAcknowledge: AckContractorAcknowledges,
		},
	},
	{
		Kind: KindSpecialDiet, Definition: SpecialDiet, Label: "Special diet",
		Topic: notification.TopicSpecialDiet, Module: directory.ModuleDiets, Central: domain.RoleCentralDietManager,
		Operations: map[Operation]workflow.Event{
			OpSubmit: DietSubmit, OpCancel: DietCancel, OpAcknowledge: DietContractorAcknowledges,
		},
	},
	{
		Kind: KindProductHomologation, Definition: ProductHomologation, Label: "Product homologation",
		Topic: notification.TopicProduct, Module: directory.ModuleProducts, Central: domain.RoleCentralProductManager,
		Operations: map[Operation]workflow.Event{
			OpSubmit: ProductSubmit, OpCancel: ProductContractorCancels,
		},
	},
	{
		Kind: KindProductComplaint, Definition: ProductComplaint, Label: "Product complaint",
		Topic: notification.TopicProduct, Module: directory.ModuleProducts, Central: domain.RoleCentralProductManager,
	},
	{
		Kind: KindProductRegistration, Definition: ProductRegistration, Label: "Product registration",
		Topic: notification.TopicProduct, Module: directory.ModuleProducts, Central: domain.RoleCentralProductManager,
		Operations: map[Operation]workflow.Event{
			OpAcknowledge: RegistrationContractorFulfills,
		},
	},
	{
		Kind: KindDeliveryRequest, Definition: DeliveryRequest, Label: "Delivery request",
		Topic: notification.TopicDeliveryRequest,
		Operations: map[Operation]workflow.Event{
			OpSubmit: DeliveryDispatch, OpCancel: DeliveryCancel, OpAcknowledge: DeliveryDistributorConfirms,
		},
	},
	{
		Kind: KindDeliveryChange, Definition: DeliveryChange, Label: "Delivery change",
		Topic: notification.TopicDeliveryChange,
		Operations: map[Operation]workflow.Event{
			OpSubmit: ChangeSubmit,
		},
	},
	{
		Kind: KindDeliveryGuide, Definition: DeliveryGuide, Label: "Delivery guide",
		Topic: notification.TopicDeliveryGuide,
		Operations: map[Operation]workflow.Event{
			OpCancel: GuideCancel, OpAcknowledge: GuideDistributorConfirms,
		},
	},
	{
		Kind: KindMeasurementReport, Definition: Measurement, Label: "Measurement report",
		Topic: notification.TopicMeasurement, Central: domain.RoleMeasurementAdmin,
		Operations: map[Operation]workflow.Event{
			OpSubmit: MeasurementSchoolSubmits,
		},
	},
	{
		Kind: KindCronogram, Definition: Cronogram, Label: "Cronogram",
		Topic: notification.TopicCronogram,
		Operations: map[Operation]workflow.Event{
			OpSubmit: CronogramSubmit,
		},
	},
	{
		Kind: KindCronogramChange, Definition: CronogramChange, Label: "Cronogram change",
		Topic: notification.TopicCronogramChange,
		Operations: map[Operation]workflow.Event{
			OpSubmit: CronoChangeSubmit,
		},
	},
	{
		Kind: KindPackagingLayout, Definition: PackagingLayout, Label: "Packaging layout",
		Topic: notification.TopicPackagingLayout, Central: domain.RoleCentralProductManager,
		Operations: map[Operation]workflow.Event{
			OpSubmit: LayoutSubmit,
		},
	},
	{
		Kind: KindReceiptDocument, Definition: ReceiptDocument, Label: "Receipt documents",
		Topic: notification.TopicReceiptDocuments,
		Operations: map[Operation]workflow.Event{
			OpSubmit: ReceiptSubmit,
		},
	},
	{
		Kind: KindTechnicalSheet, Definition: TechnicalSheet, Label: "Technical sheet",
		Topic: notification.TopicTechnicalSheet, Central: domain.RoleCentralProductManager,
		Operations: map[Operation]workflow.Event{
			OpSubmit: SheetSubmit,
		},
	},
	{
		Kind: KindOccurrenceNotice, Definition: OccurrenceNotice, Label: "Occurrence notice",
		Topic: notification.TopicOccurrenceNotice,
		Operations: map[Operation]workflow.Event{
			OpSubmit: OccurrenceCreate,
		},
	},
}

func schoolSpec(kind Kind, label string) Spec {
	return Spec{
		Kind: kind, Definition: SchoolRequest, Label: label,
		Topic: notification.TopicMealRequest, Module: directory.ModuleMeals, Central: domain.RoleCentralMealManager,
		Operations: map[Operation]workflow.Event{
			OpSubmit: SchoolSubmit, OpCancel: SchoolCancel, OpAcknowledge: SchoolContractorAcknowledges,
		},
	}
}

// definitions holds every declared family, keyed by name.
var definitions = map[string]*workflow.Definition{
	SchoolRequest:       schoolRequestDefinition(),
	DistrictRequest:     districtRequestDefinition(),
	Acknowledgment:      acknowledgmentDefinition(),
	SpecialDiet:         specialDietDefinition(),
	ProductHomologation: productHomologationDefinition(),
	ProductComplaint:    productComplaintDefinition(),
	ProductRegistration: productRegistrationDefinition(),
	DeliveryRequest:     deliveryRequestDefinition(),
	DeliveryChange:      deliveryChangeDefinition(),
	DeliveryGuide:       deliveryGuideDefinition(),
	Measurement:         measurementDefinition(),
	Cronogram:           cronogramDefinition(),
	CronogramChange:     cronogramChangeDefinition(),
	PackagingLayout:     packagingLayoutDefinition(),
	ReceiptDocument:     receiptDocumentDefinition(),
	TechnicalSheet:      technicalSheetDefinition(),
	OccurrenceNotice:    occurrenceNoticeDefinition(),
}

// Definitions returns every declared definition sorted by name. It needs
// no collaborators, so tooling can inspect the catalog offline.
func Definitions() []*workflow.Definition {
	out := make([]*workflow.Definition, 0, len(definitions))
	for _, d := range definitions {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *workflow.Definition) int {
		if a.Name() < b.Name() {
			return -1
		}
		if a.Name() > b.Name() {
			return 1
		}
		return 0
	})
	return out
}

// DefinitionNamed returns a definition by name.
func DefinitionNamed(name string) (*workflow.Definition, bool) {
	d, ok := definitions[name]
	return d, ok
}

// Specs returns every kind spec in declaration order.
func Specs() []Spec {
	return slices.Clone(specs)
}

// SpecFor returns the spec of kind.
func SpecFor(kind Kind) (Spec, bool) {
	for _, s := range specs {
		if s.Kind == kind {
			return s, true
		}
	}
	return Spec{}, false
}

// Policy is the configurable part of the program rules.
type Policy struct {
	CancellationLeadDays int
	// ExemptMotives bypass the cancellation lead time and the late-filed
	// authorization rule.
	ExemptMotives []string
}

// DefaultPolicy matches the program's published rules.
func DefaultPolicy() Policy {
	return Policy{CancellationLeadDays: 2, ExemptMotives: []string{"emergency_snack"}}
}

// Deps are the collaborators attached hooks call.
type Deps struct {
	Calendar  *calendar.Calendar
	Directory hooks.ChainResolver
	Trail     *audit.Trail
	Notifier  hooks.Notifier
	// Parents resolves the state of a parent request for sub-workflows.
	Parents hooks.ParentLookup
	Policy  Policy
	Logger  *slog.Logger
	Metrics workflow.Metrics
}

// Catalog holds one machine per kind.
type Catalog struct {
	machines map[Kind]*workflow.Machine
}

func New(deps Deps) (*Catalog, error) {
	if deps.Calendar == nil || deps.Directory == nil || deps.Trail == nil || deps.Notifier == nil || deps.Parents == nil {
		return nil, fmt.Errorf("catalog: calendar, directory, trail, notifier and parent lookup are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Policy.CancellationLeadDays <= 0 {
		deps.Policy.CancellationLeadDays = DefaultPolicy().CancellationLeadDays
	}

	b := &binder{deps: deps, fanout: hooks.NewFanout(deps.Notifier, deps.Directory, deps.Logger)}
	c := &Catalog{machines: make(map[Kind]*workflow.Machine, len(specs))}
	for _, spec := range specs {
		def := definitions[spec.Definition]
		opts := []workflow.Option{workflow.WithLogger(deps.Logger)}
		if deps.Metrics != nil {
			opts = append(opts, workflow.WithMetrics(deps.Metrics))
		}
		m := workflow.NewMachine(def, opts...)
		m.AfterEach(hooks.AuditLog(deps.Trail))
		b.apply(m, profileFor(spec))
		c.machines[spec.Kind] = m
	}
	return c, nil
}

// Machine returns the machine of kind.
func (c *Catalog) Machine(kind Kind) (*workflow.Machine, error) {
	m, ok := c.machines[kind]
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown request kind %q", kind))
	}
	return m, nil
}

// Definition returns the definition named name.
func (c *Catalog) Definition(name string) (*workflow.Definition, error) {
	d, ok := DefinitionNamed(name)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("workflow %q not found", name))
	}
	return d, nil
}

func (c *Catalog) Definitions() []*workflow.Definition {
	return Definitions()
}

// Kinds lists the kinds with a machine, in declaration order.
func (c *Catalog) Kinds() []Kind {
	out := make([]Kind, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Kind)
	}
	return out
}

// Operation resolves a generic operation to the kind's event. Kinds that do
// not map op return *workflow.MissingHookError.
func (c *Catalog) Operation(kind Kind, op Operation) (workflow.Event, error) {
	spec, ok := SpecFor(kind)
	if !ok {
		return "", dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown request kind %q", kind))
	}
	ev, ok := spec.Operations[op]
	if !ok {
		return "", &workflow.MissingHookError{Kind: string(kind), Operation: string(op)}
	}
	return ev, nil
}
