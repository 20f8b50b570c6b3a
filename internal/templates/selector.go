// Package templates implements the worker payload schemas: the base
// account/account-region template shapes fetched from the object store and
// validated before fan-out. Struct tags carry the UpperCamelCase YAML key
// used on disk, mirroring the original marshmallow schemas field-for-field.
// The `validate` tags are not evaluated by this package; the Validate
// methods perform every check, so a TagSelector with an empty Name or
// Value is accepted.
package templates

import (
	"strings"

	"github.com/catherinevee/starfleet/internal/starerrors"
)

// TagSelector is a single {Name, Value} clause within an AccountSelector.
type TagSelector struct {
	Name  string `yaml:"Name" json:"Name" validate:"required"`
	Value string `yaml:"Value" json:"Value" validate:"required"`
}

// AccountSelector is the include/exclude clause set used by AccountPayload
// and AccountRegionPayload.
type AccountSelector struct {
	ByIDs       []string      `yaml:"ByIds" json:"ByIds"`
	ByNames     []string      `yaml:"ByNames" json:"ByNames"`
	ByOrgUnits  []string      `yaml:"ByOrgUnits" json:"ByOrgUnits"`
	ByTags      []TagSelector `yaml:"ByTags" json:"ByTags"`
	AllAccounts bool          `yaml:"AllAccounts" json:"AllAccounts"`
}

// empty reports whether every clause field is unset.
func (s AccountSelector) empty() bool {
	return len(s.ByIDs) == 0 && len(s.ByNames) == 0 && len(s.ByOrgUnits) == 0 && len(s.ByTags) == 0
}

// validateInclude enforces the include-flavor AllAccounts exclusivity rule
// and the "at least one clause" rule.
func (s AccountSelector) validateInclude() error {
	if s.AllAccounts && !s.empty() {
		return starerrors.New(starerrors.PayloadValidation, "IncludeAccounts.AllAccounts cannot be combined with any other selector clause")
	}
	if !s.AllAccounts && s.empty() {
		return starerrors.New(starerrors.PayloadValidation, "IncludeAccounts must select at least one clause or set AllAccounts")
	}
	return nil
}

// validateExclude enforces that AllAccounts never appears on an exclude
// selector (it has no meaning there).
func (s AccountSelector) validateExclude() error {
	if s.AllAccounts {
		return starerrors.New(starerrors.PayloadValidation, "ExcludeAccounts cannot set AllAccounts")
	}
	return nil
}

const allRegionsToken = "ALL"

// Payload is implemented by both AccountPayload and AccountRegionPayload so
// the fan-out engine can validate+branch without a type switch on every
// call site.
type Payload interface {
	Validate(knownRegions map[string]struct{}) error
	Include() AccountSelector
	Exclude() AccountSelector
	OrgRootOK() bool
}

// AccountPayload is the base template shape for ACCOUNT-strategy workers.
type AccountPayload struct {
	TemplateName            string           `yaml:"TemplateName" json:"TemplateName" validate:"required"`
	TemplateDescription     string           `yaml:"TemplateDescription" json:"TemplateDescription" validate:"required"`
	IncludeAccounts         AccountSelector  `yaml:"IncludeAccounts" json:"IncludeAccounts" validate:"required"`
	ExcludeAccounts         *AccountSelector `yaml:"ExcludeAccounts" json:"ExcludeAccounts,omitempty"`
	OperateInOrgRoot        bool             `yaml:"OperateInOrgRoot" json:"OperateInOrgRoot"`
	StarbaseAssignedAccount string           `yaml:"StarbaseAssignedAccount" json:"StarbaseAssignedAccount"`
}

// Validate enforces the cross-field rules struct tags alone cannot express,
// including that a pre-populated StarbaseAssignedAccount is rejected rather
// than silently overwritten: that field is reserved for Starbase's own
// assignment step.
func (p *AccountPayload) Validate(_ map[string]struct{}) error {
	if p.TemplateName == "" || p.TemplateDescription == "" {
		return starerrors.New(starerrors.PayloadValidation, "TemplateName and TemplateDescription are required")
	}
	if err := p.IncludeAccounts.validateInclude(); err != nil {
		return err
	}
	if p.ExcludeAccounts != nil {
		if err := p.ExcludeAccounts.validateExclude(); err != nil {
			return err
		}
	}
	if p.StarbaseAssignedAccount != "" {
		return starerrors.New(starerrors.PayloadValidation, "StarbaseAssignedAccount is reserved for Starbase assignment and must not be pre-populated")
	}
	return nil
}

func (p *AccountPayload) Include() AccountSelector { return p.IncludeAccounts }

func (p *AccountPayload) Exclude() AccountSelector {
	if p.ExcludeAccounts == nil {
		return AccountSelector{}
	}
	return *p.ExcludeAccounts
}

func (p *AccountPayload) OrgRootOK() bool { return p.OperateInOrgRoot }

// AccountRegionPayload extends AccountPayload with region clauses.
type AccountRegionPayload struct {
	AccountPayload         `yaml:",inline"`
	IncludeRegions         []string `yaml:"IncludeRegions" json:"IncludeRegions" validate:"required"`
	ExcludeRegions         []string `yaml:"ExcludeRegions" json:"ExcludeRegions,omitempty"`
	StarbaseAssignedRegion string   `yaml:"StarbaseAssignedRegion" json:"StarbaseAssignedRegion"`
}

// Validate additionally enforces the IncludeRegions ALL-exclusivity rule,
// known-region membership, and that StarbaseAssignedRegion is rejected
// rather than silently overwritten if the author pre-populated it.
func (p *AccountRegionPayload) Validate(knownRegions map[string]struct{}) error {
	if err := p.AccountPayload.Validate(knownRegions); err != nil {
		return err
	}

	if len(p.IncludeRegions) == 0 {
		return starerrors.New(starerrors.PayloadValidation, "IncludeRegions must name at least one region or ALL")
	}

	hasAll := false
	for _, region := range p.IncludeRegions {
		if region == allRegionsToken {
			hasAll = true
			continue
		}
	}
	if hasAll {
		if len(p.IncludeRegions) > 1 {
			return starerrors.New(starerrors.PayloadValidation, "IncludeRegions: [ALL] cannot be combined with any other entry")
		}
	} else {
		for _, region := range p.IncludeRegions {
			if _, known := knownRegions[region]; !known {
				return starerrors.Newf(starerrors.PayloadValidation, "IncludeRegions entry %q is not a known region", region)
			}
		}
	}

	for _, region := range p.ExcludeRegions {
		if _, known := knownRegions[region]; !known {
			return starerrors.Newf(starerrors.PayloadValidation, "ExcludeRegions entry %q is not a known region", region)
		}
	}

	if p.StarbaseAssignedRegion != "" {
		return starerrors.New(starerrors.PayloadValidation, "StarbaseAssignedRegion is reserved for Starbase assignment and must not be pre-populated")
	}

	return nil
}

// ResolvedRegions expands IncludeRegions (honoring the ALL token) minus
// ExcludeRegions, against the known region universe.
func (p *AccountRegionPayload) ResolvedRegions(knownRegions map[string]struct{}) map[string]struct{} {
	include := make(map[string]struct{})
	if len(p.IncludeRegions) == 1 && p.IncludeRegions[0] == allRegionsToken {
		for region := range knownRegions {
			include[region] = struct{}{}
		}
	} else {
		for _, region := range p.IncludeRegions {
			include[region] = struct{}{}
		}
	}

	for _, region := range p.ExcludeRegions {
		delete(include, region)
	}

	return include
}

// NormalizeKey lower-cases a selector lookup key, matching the index's own
// key normalization.
func NormalizeKey(key string) string {
	return strings.ToLower(key)
}

// BasePayload is the template shape SINGLE-strategy workers accept: just the
// two required base fields, with no account/region resolution. It
// implements Payload with no-op account/region methods since fan-out never
// calls them for a SINGLE-strategy worker.
type BasePayload struct {
	TemplateName        string `yaml:"TemplateName" json:"TemplateName" validate:"required"`
	TemplateDescription string `yaml:"TemplateDescription" json:"TemplateDescription" validate:"required"`
}

func (p *BasePayload) Validate(_ map[string]struct{}) error {
	if p.TemplateName == "" || p.TemplateDescription == "" {
		return starerrors.New(starerrors.PayloadValidation, "TemplateName and TemplateDescription are required")
	}
	return nil
}

func (p *BasePayload) Include() AccountSelector { return AccountSelector{} }
func (p *BasePayload) Exclude() AccountSelector { return AccountSelector{} }
func (p *BasePayload) OrgRootOK() bool          { return false }
