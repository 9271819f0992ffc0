package identity

import (
	"sort"
	"strings"
	"unicode/utf8"

	"timeline/internal/models"
	"timeline/internal/names"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the similarity at which two names are treated as the same person
const DefaultThreshold = 0.85

// Similarity scores two names in [0, 1]. It takes the better of the plain edit ratio
// and the ratio over alphabetically sorted tokens, so "Smith John" matches "John Smith".
func Similarity(a, b string) float64 {
	a, b = names.Normalize(a), names.Normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	plain := ratio(a, b)
	sorted := ratio(sortTokens(a), sortTokens(b))
	if sorted > plain {
		return sorted
	}
	return plain
}

func ratio(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Cluster is a read-time group of person rows
type Cluster struct {
	Members []models.Person
}

// IDs returns the member row ids in order
func (c Cluster) IDs() []string {
	ids := make([]string, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.ID
	}
	return ids
}

// Representative is the row that names the cluster: the canonical row of the first
// group when present, else the first member
func (c Cluster) Representative() models.Person {
	first := c.Members[0]
	canonical := first.CanonicalID()
	for _, m := range c.Members {
		if m.ID == canonical {
			return m
		}
	}
	return first
}

// Email returns the first member email, if any
func (c Cluster) Email() string {
	for _, m := range c.Members {
		if e := m.EmailValue(); e != "" {
			return e
		}
	}
	return ""
}

// Group clusters person rows in two passes. Rows sharing a canonical id always land
// together. Those groups are then merged greedily, in input order, into the first
// cluster holding a member whose name or email-derived name scores at least threshold.
// Input order decides the outcome, so callers should pass rows oldest first.
func Group(people []models.Person, threshold float64) []Cluster {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var order []string
	byCanonical := make(map[string][]models.Person)
	for _, p := range people {
		id := p.CanonicalID()
		if _, seen := byCanonical[id]; !seen {
			order = append(order, id)
		}
		byCanonical[id] = append(byCanonical[id], p)
	}

	var clusters []Cluster
	for _, id := range order {
		group := byCanonical[id]
		placed := false
		for i := range clusters {
			if matches(clusters[i].Members, group, threshold) {
				clusters[i].Members = append(clusters[i].Members, group...)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, Cluster{Members: append([]models.Person(nil), group...)})
		}
	}
	return clusters
}

func matches(cluster, group []models.Person, threshold float64) bool {
	for _, a := range group {
		for _, b := range cluster {
			if Matches(a, b, threshold) {
				return true
			}
		}
	}
	return false
}

// Matches compares name with name, name with the email-derived name, and the reverse
func Matches(a, b models.Person, threshold float64) bool {
	for _, ka := range nameKeys(a) {
		for _, kb := range nameKeys(b) {
			if Similarity(ka, kb) >= threshold {
				return true
			}
		}
	}
	return false
}

func nameKeys(p models.Person) []string {
	keys := make([]string, 0, 2)
	if p.Name != "" {
		keys = append(keys, p.Name)
	}
	if e := p.EmailValue(); strings.Contains(e, "@") {
		keys = append(keys, names.FromEmail(e))
	}
	return keys
}
