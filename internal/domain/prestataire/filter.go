package prestataire

import (
	"sort"
	"strings"
)

// FilterAll is the sentinel that disables the status or specialty predicate.
const FilterAll = "all"

// Filter holds the three independent record browser predicates.
type Filter struct {
	Search    string
	Status    string
	Specialty string
}

// Normalize fills empty status and specialty values with FilterAll. The
// search term is kept verbatim; only an empty term matches every record.
func (f Filter) Normalize() Filter {
	if strings.TrimSpace(f.Status) == "" {
		f.Status = FilterAll
	}
	if strings.TrimSpace(f.Specialty) == "" {
		f.Specialty = FilterAll
	}
	return f
}

// IsZero reports whether the filter lets every record through.
func (f Filter) IsZero() bool {
	n := f.Normalize()
	return n.Search == "" && n.Status == FilterAll && n.Specialty == FilterAll
}

// Matches reports whether p satisfies every predicate.
func (f Filter) Matches(p Prestataire) bool {
	f = f.Normalize()
	return MatchesSearch(p, f.Search) &&
		MatchesStatus(p, f.Status) &&
		MatchesSpecialty(p, f.Specialty)
}

// Apply returns the records matching f, preserving input order.
func (f Filter) Apply(records []Prestataire) []Prestataire {
	out := make([]Prestataire, 0, len(records))
	for _, p := range records {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// MatchesSearch is a case-insensitive substring match on company, contact and specialty.
// An empty term matches everything.
func MatchesSearch(p Prestataire, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, field := range []string{p.Company, p.Contact, p.Specialty} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// MatchesStatus compares the status exactly unless status is FilterAll.
func MatchesStatus(p Prestataire, status string) bool {
	return status == FilterAll || string(p.Status) == status
}

// MatchesSpecialty compares the specialty exactly unless specialty is FilterAll.
func MatchesSpecialty(p Prestataire, specialty string) bool {
	return specialty == FilterAll || p.Specialty == specialty
}

// SpecialtyOptions returns the distinct specialties in first-seen order.
func SpecialtyOptions(records []Prestataire) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, p := range records {
		if _, ok := seen[p.Specialty]; ok {
			continue
		}
		seen[p.Specialty] = struct{}{}
		out = append(out, p.Specialty)
	}
	return out
}

// SortedRelances returns the follow-ups most recent first without touching the input.
func SortedRelances(relances []Relance) []Relance {
	out := make([]Relance, len(relances))
	copy(out, relances)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// FindByID returns the record with the given id.
func FindByID(records []Prestataire, id string) (Prestataire, bool) {
	for _, p := range records {
		if p.ID == id {
			return p, true
		}
	}
	return Prestataire{}, false
}
