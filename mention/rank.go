package mention

import "strings"

// A Strategy matches a mentioned name against a candidate.
type Strategy struct {
	Name  string
	Match func(name string, c Candidate) bool
}

// FallbackStrategy is reported when no strategy matched and the first
// candidate was picked.
const FallbackStrategy = "first_candidate"

// Strategies are tried in order; the first one matching any candidate wins.
var Strategies = []Strategy{
	{
		Name: "full_name",
		Match: func(name string, c Candidate) bool {
			return strings.EqualFold(c.DisplayName(), name)
		},
	},
	{
		Name: "username",
		Match: func(name string, c Candidate) bool {
			return c.Username != "" && strings.EqualFold(c.Username, name)
		},
	},
	{
		Name: "username_prefix",
		Match: func(name string, c Candidate) bool {
			prefix := strings.ToLower(strings.ReplaceAll(name, " ", ""))
			return c.Username != "" && prefix != "" && strings.HasPrefix(strings.ToLower(c.Username), prefix)
		},
	},
	{
		Name: "first_name",
		Match: func(name string, c Candidate) bool {
			return c.FirstName != "" && strings.EqualFold(c.FirstName, name)
		},
	},
	{
		Name: "last_name",
		Match: func(name string, c Candidate) bool {
			return c.LastName != "" && strings.EqualFold(c.LastName, name)
		},
	},
	{
		Name: "full_name_substring",
		Match: func(name string, c Candidate) bool {
			return name != "" && strings.Contains(strings.ToLower(c.DisplayName()), strings.ToLower(name))
		},
	},
}

// Rank picks the candidate the name most likely refers to and the name of the
// strategy that matched. Unless strict, the first candidate is picked when no
// strategy matches. It reports false only for an empty pool, or in strict mode
// when nothing matched.
func Rank(name string, pool []Candidate, strict bool) (Candidate, string, bool) {
	name = strings.TrimSpace(name)
	for _, s := range Strategies {
		for _, c := range pool {
			if s.Match(name, c) {
				return c, s.Name, true
			}
		}
	}
	if strict || len(pool) == 0 {
		return Candidate{}, "", false
	}
	return pool[0], FallbackStrategy, true
}

// exactly reports whether name is the full name, username, first name or
// last name of any candidate.
func exactly(name string, pool []Candidate) bool {
	for _, s := range Strategies {
		switch s.Name {
		case "full_name", "username", "first_name", "last_name":
		default:
			continue
		}
		for _, c := range pool {
			if s.Match(name, c) {
				return true
			}
		}
	}
	return false
}
