// Package accountindex implements the in-memory inverted index over cloud
// accounts. It is built once from a JSON snapshot produced by the
// (out-of-scope) account-index generator worker and is immutable thereafter,
// so lookups require no locking.
package accountindex

import (
	"encoding/json"
	"strings"
)

// ParentType identifies the kind of organizational entity in an account's
// parent chain.
type ParentType string

const (
	ParentOrganizationalUnit ParentType = "ORGANIZATIONAL_UNIT"
	ParentRoot               ParentType = "ROOT"
)

// Parent is one link in an account's parent chain, from immediate parent OU
// up to the organization root.
type Parent struct {
	ID   string     `json:"Id"`
	Name string     `json:"Name"`
	Type ParentType `json:"Type"`
}

// Account is one entity held by the index.
type Account struct {
	ID        string
	Name      string
	Parents   []Parent
	Regions   map[string]struct{}
	Tags      map[string]string // normalized key -> normalized value
	IsOrgRoot bool
}

// snapshotAccount mirrors the on-disk JSON shape produced by the generator:
// `{accountId: {Name, Parents[], Regions[], Tags{}}}`.
type snapshotAccount struct {
	Name    string            `json:"Name"`
	Parents []Parent          `json:"Parents"`
	Regions []string          `json:"Regions"`
	Tags    map[string]string `json:"Tags"`
}

type snapshot struct {
	Accounts  map[string]snapshotAccount `json:"accounts"`
	Generated string                     `json:"generated"`
}

// Index is the immutable, built-once account index.
type Index struct {
	accounts map[string]*Account
	byName   map[string]string              // lower(name) -> account id
	idToName map[string]string              // account id -> name
	byOU     map[string]map[string]struct{} // lower(ou id or name) -> account ids
	byRegion map[string]map[string]struct{} // region -> account ids
	byTag    map[string]map[string]map[string]struct{}
	orgRoots map[string]struct{}
}

// Load parses a snapshot document and builds the index.
func Load(data []byte) (*Index, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	idx := &Index{
		accounts: make(map[string]*Account, len(snap.Accounts)),
		byName:   make(map[string]string, len(snap.Accounts)),
		idToName: make(map[string]string, len(snap.Accounts)),
		byOU:     make(map[string]map[string]struct{}),
		byRegion: make(map[string]map[string]struct{}),
		byTag:    make(map[string]map[string]map[string]struct{}),
		orgRoots: make(map[string]struct{}),
	}

	for id, raw := range snap.Accounts {
		account := &Account{
			ID:      id,
			Name:    raw.Name,
			Parents: raw.Parents,
			Regions: make(map[string]struct{}, len(raw.Regions)),
			Tags:    make(map[string]string, len(raw.Tags)),
		}

		for _, region := range raw.Regions {
			account.Regions[region] = struct{}{}
			set(idx.byRegion, region, id)
		}

		for _, parent := range raw.Parents {
			set2(idx.byOU, strings.ToLower(parent.ID), id)
			set2(idx.byOU, strings.ToLower(parent.Name), id)
		}
		// An account is itself an org-root account only when it sits
		// directly under ROOT, not merely when ROOT appears somewhere in
		// its ancestry — every account's chain ends at ROOT, so "any
		// parent is ROOT" would flag every account.
		account.IsOrgRoot = len(raw.Parents) > 0 && raw.Parents[0].Type == ParentRoot
		if account.IsOrgRoot {
			idx.orgRoots[id] = struct{}{}
		}

		for tagName, tagValue := range raw.Tags {
			normName := strings.ToLower(tagName)
			normValue := strings.ToLower(tagValue)
			account.Tags[normName] = normValue

			if idx.byTag[normName] == nil {
				idx.byTag[normName] = make(map[string]map[string]struct{})
			}
			set2(idx.byTag[normName], normValue, id)
		}

		idx.accounts[id] = account
		idx.byName[strings.ToLower(raw.Name)] = id
		idx.idToName[id] = raw.Name
	}

	return idx, nil
}

func set(m map[string]map[string]struct{}, key, id string) {
	if m[key] == nil {
		m[key] = make(map[string]struct{})
	}
	m[key][id] = struct{}{}
}

func set2(m map[string]map[string]struct{}, key, id string) {
	set(m, key, id)
}

// GetByIDs returns the subset of ids that are present in the index.
func (idx *Index) GetByIDs(ids map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for id := range ids {
		if _, ok := idx.accounts[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// GetByAliases resolves a set of account name aliases (case-insensitive) to
// account ids. Unknown aliases contribute nothing.
func (idx *Index) GetByAliases(aliases map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for alias := range aliases {
		if id, ok := idx.byName[strings.ToLower(alias)]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// GetByOU returns the accounts belonging to the OU identified by id or name
// (case-insensitive). Unknown keys return an empty set.
func (idx *Index) GetByOU(key string) map[string]struct{} {
	return cloneOrEmpty(idx.byOU[strings.ToLower(key)])
}

// GetByTag returns the accounts carrying the given tag name/value pair
// (case-insensitive). Unknown keys return an empty set.
func (idx *Index) GetByTag(name, value string) map[string]struct{} {
	values := idx.byTag[strings.ToLower(name)]
	if values == nil {
		return map[string]struct{}{}
	}
	return cloneOrEmpty(values[strings.ToLower(value)])
}

// GetByRegions returns, for each requested region (including unknown ones),
// the set of accounts enabled in it. Unknown regions map to an empty set.
func (idx *Index) GetByRegions(regions map[string]struct{}) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(regions))
	for region := range regions {
		out[region] = cloneOrEmpty(idx.byRegion[region])
	}
	return out
}

// AllRegions returns the set of every region any account is enabled in.
func (idx *Index) AllRegions() map[string]struct{} {
	out := make(map[string]struct{}, len(idx.byRegion))
	for region := range idx.byRegion {
		out[region] = struct{}{}
	}
	return out
}

// GetForAllRegions returns the full region -> accounts mapping.
func (idx *Index) GetForAllRegions() map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(idx.byRegion))
	for region, accounts := range idx.byRegion {
		out[region] = cloneOrEmpty(accounts)
	}
	return out
}

// GetAll returns every known account id.
func (idx *Index) GetAll() map[string]struct{} {
	out := make(map[string]struct{}, len(idx.accounts))
	for id := range idx.accounts {
		out[id] = struct{}{}
	}
	return out
}

// GetOrgRoots returns the set of organization-root accounts.
func (idx *Index) GetOrgRoots() map[string]struct{} {
	return cloneOrEmpty(idx.orgRoots)
}

// GetNames resolves a set of account ids to their human-readable names.
// An id absent from the index is simply omitted from the result.
func (idx *Index) GetNames(ids map[string]struct{}) map[string]string {
	out := make(map[string]string, len(ids))
	for id := range ids {
		if name, ok := idx.idToName[id]; ok {
			out[id] = name
		}
	}
	return out
}

// Account returns the full Account record for an id, or nil if unknown.
func (idx *Index) Account(id string) *Account {
	return idx.accounts[id]
}

func cloneOrEmpty(src map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(src))
	for k := range src {
		out[k] = struct{}{}
	}
	return out
}

// NewSet builds a string set from a slice, a convenience used throughout the
// resolver since account selectors arrive as ordered lists.
func NewSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}
