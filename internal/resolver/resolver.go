// Package resolver implements the account and account-region resolution
// logic: set algebra over the account index driven by a payload's
// AccountSelector clauses.
package resolver

import (
	"github.com/catherinevee/starfleet/internal/accountindex"
	"github.com/catherinevee/starfleet/internal/templates"
)

func unionClauses(idx *accountindex.Index, selector templates.AccountSelector) map[string]struct{} {
	result := make(map[string]struct{})

	for id := range idx.GetByIDs(accountindex.NewSet(selector.ByIDs)) {
		result[id] = struct{}{}
	}
	for id := range idx.GetByAliases(accountindex.NewSet(selector.ByNames)) {
		result[id] = struct{}{}
	}
	for _, ou := range selector.ByOrgUnits {
		for id := range idx.GetByOU(ou) {
			result[id] = struct{}{}
		}
	}
	for _, tag := range selector.ByTags {
		for id := range idx.GetByTag(tag.Name, tag.Value) {
			result[id] = struct{}{}
		}
	}

	return result
}

func subtract(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a))
	for id := range a {
		if _, excluded := b[id]; !excluded {
			out[id] = struct{}{}
		}
	}
	return out
}

// ResolveAccounts computes include minus exclude, minus org roots unless
// operate_in_org_root is set.
func ResolveAccounts(idx *accountindex.Index, payload templates.Payload) map[string]struct{} {
	include := payload.Include()
	exclude := payload.Exclude()

	var included map[string]struct{}
	if include.AllAccounts {
		included = idx.GetAll()
	} else {
		included = unionClauses(idx, include)
	}

	excluded := unionClauses(idx, exclude)
	result := subtract(included, excluded)

	if !payload.OrgRootOK() {
		result = subtract(result, idx.GetOrgRoots())
	}

	return result
}

// ResolveAccountRegions resolves account/region pairs the same way
// ResolveAccounts resolves accounts, crossed with each account's own region
// clauses. scopeToRegions, when non-empty, drops any region outside the
// configured global scope entirely from the result (not merely from each
// account's set).
func ResolveAccountRegions(idx *accountindex.Index, payload *templates.AccountRegionPayload, knownRegions, scopeToRegions map[string]struct{}, orgRootCheck bool) map[string]map[string]struct{} {
	var accounts map[string]struct{}
	if orgRootCheck {
		accounts = ResolveAccounts(idx, payload)
	} else {
		include := payload.Include()
		exclude := payload.Exclude()
		var included map[string]struct{}
		if include.AllAccounts {
			included = idx.GetAll()
		} else {
			included = unionClauses(idx, include)
		}
		accounts = subtract(included, unionClauses(idx, exclude))
	}

	regions := payload.ResolvedRegions(knownRegions)
	if len(scopeToRegions) > 0 {
		for region := range regions {
			if _, inScope := scopeToRegions[region]; !inScope {
				delete(regions, region)
			}
		}
	}

	regionAccounts := idx.GetByRegions(regions)

	out := make(map[string]map[string]struct{}, len(accounts))
	for accountID := range accounts {
		perAccount := make(map[string]struct{})
		for region, members := range regionAccounts {
			if _, enabled := members[accountID]; enabled {
				perAccount[region] = struct{}{}
			}
		}
		out[accountID] = perAccount
	}

	return out
}
