package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountPayloadValidateRequiresClauseOrAllAccounts(t *testing.T) {
	payload := &AccountPayload{
		TemplateName:        "t",
		TemplateDescription: "d",
		IncludeAccounts:      AccountSelector{},
	}
	err := payload.Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one clause")
}

func TestAccountPayloadValidateRejectsAllAccountsWithOtherClauses(t *testing.T) {
	payload := &AccountPayload{
		TemplateName:        "t",
		TemplateDescription: "d",
		IncludeAccounts: AccountSelector{
			AllAccounts: true,
			ByNames:     []string{"Account 1"},
		},
	}
	err := payload.Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AllAccounts")
}

func TestAccountPayloadValidateRejectsPrePopulatedAssignedAccount(t *testing.T) {
	payload := &AccountPayload{
		TemplateName:        "t",
		TemplateDescription: "d",
		IncludeAccounts:      AccountSelector{AllAccounts: true},
		StarbaseAssignedAccount: "111111111111",
	}
	err := payload.Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "StarbaseAssignedAccount")
}

func TestAccountPayloadValidateAccepts(t *testing.T) {
	payload := &AccountPayload{
		TemplateName:        "t",
		TemplateDescription: "d",
		IncludeAccounts:      AccountSelector{ByNames: []string{"Account 1"}},
	}
	assert.NoError(t, payload.Validate(nil))
}

func knownRegions(regions ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		out[r] = struct{}{}
	}
	return out
}

func TestAccountRegionPayloadValidateRejectsAllCombinedWithOtherEntries(t *testing.T) {
	payload := &AccountRegionPayload{
		AccountPayload: AccountPayload{
			TemplateName:        "t",
			TemplateDescription: "d",
			IncludeAccounts:      AccountSelector{AllAccounts: true},
		},
		IncludeRegions: []string{"ALL", "us-east-1"},
	}
	err := payload.Validate(knownRegions("us-east-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IncludeRegions: [ALL]")
}

func TestAccountRegionPayloadValidateRejectsUnknownRegion(t *testing.T) {
	payload := &AccountRegionPayload{
		AccountPayload: AccountPayload{
			TemplateName:        "t",
			TemplateDescription: "d",
			IncludeAccounts:      AccountSelector{AllAccounts: true},
		},
		IncludeRegions: []string{"mars-central-1"},
	}
	err := payload.Validate(knownRegions("us-east-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a known region")
}

func TestAccountRegionPayloadResolvedRegionsExpandsAllAndExcludes(t *testing.T) {
	payload := &AccountRegionPayload{
		IncludeRegions: []string{"ALL"},
		ExcludeRegions: []string{"us-west-1"},
	}
	got := payload.ResolvedRegions(knownRegions("us-east-1", "us-west-1", "eu-west-1"))
	assert.Equal(t, map[string]struct{}{"us-east-1": {}, "eu-west-1": {}}, got)
}

func TestAccountRegionPayloadResolvedRegionsExplicitList(t *testing.T) {
	payload := &AccountRegionPayload{
		IncludeRegions: []string{"us-east-1", "eu-west-1"},
	}
	got := payload.ResolvedRegions(knownRegions("us-east-1", "us-west-1", "eu-west-1"))
	assert.Equal(t, map[string]struct{}{"us-east-1": {}, "eu-west-1": {}}, got)
}
