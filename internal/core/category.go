package core

const (
	Needs     CategoryGroup = "needs"
	Lifestyle CategoryGroup = "lifestyle"
	Savings   CategoryGroup = "savings"
)

// Legacy two-tier vocabulary that predates category groups.
const (
	PriorityNeed Priority = "need"
	PriorityWant Priority = "want"
)

const (
	Rent          Category = "Rent"
	Groceries     Category = "Groceries"
	Utilities     Category = "Utilities"
	Transport     Category = "Transport"
	Healthcare    Category = "Healthcare"
	Insurance     Category = "Insurance"
	Education     Category = "Education"
	Dining        Category = "Dining"
	Shopping      Category = "Shopping"
	Entertainment Category = "Entertainment"
	Travel        Category = "Travel"
	Subscriptions Category = "Subscriptions"
	PersonalCare  Category = "Personal Care"
	Investments   Category = "Investments"
	EmergencyFund Category = "Emergency Fund"
	SavingsGoal   Category = "Savings Goal"
)

type (
	Category      string
	CategoryGroup string
	Priority      string
)

// categories lists every leaf category in display order.
var categories = []Category{
	Rent, Groceries, Utilities, Transport, Healthcare, Insurance, Education,
	Dining, Shopping, Entertainment, Travel, Subscriptions, PersonalCare,
	Investments, EmergencyFund, SavingsGoal,
}

var categoryGroups = map[Category]CategoryGroup{
	Rent:       Needs,
	Groceries:  Needs,
	Utilities:  Needs,
	Transport:  Needs,
	Healthcare: Needs,
	Insurance:  Needs,
	Education:  Needs,

	Dining:        Lifestyle,
	Shopping:      Lifestyle,
	Entertainment: Lifestyle,
	Travel:        Lifestyle,
	Subscriptions: Lifestyle,
	PersonalCare:  Lifestyle,

	Investments:   Savings,
	EmergencyFund: Savings,
	SavingsGoal:   Savings,
}

// Categories returns a copy of the category table in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// CategoriesIn returns the categories belonging to g.
func CategoriesIn(g CategoryGroup) []Category {
	var out []Category
	for _, c := range categories {
		if categoryGroups[c] == g {
			out = append(out, c)
		}
	}
	return out
}

// Groups returns the three groups in fixed order.
func Groups() []CategoryGroup {
	return []CategoryGroup{Needs, Lifestyle, Savings}
}

// GroupOf maps a category to its group.
func GroupOf(c Category) (CategoryGroup, bool) {
	g, ok := categoryGroups[c]
	return g, ok
}

func (c Category) IsValid() bool {
	_, ok := categoryGroups[c]
	return ok
}

func (g CategoryGroup) IsValid() bool {
	switch g {
	case Needs, Lifestyle, Savings:
		return true
	}
	return false
}

// Group translates the legacy priority into the current vocabulary.
func (p Priority) Group() (CategoryGroup, bool) {
	switch p {
	case PriorityNeed:
		return Needs, true
	case PriorityWant:
		return Lifestyle, true
	}
	return "", false
}

// ResolveGroup applies the fallback chain used for stored records: an explicit
// group wins even when unrecognized, then the legacy priority, then the
// category table. The result may be invalid; callers exclude such entries
// from group totals.
func ResolveGroup(group CategoryGroup, priority Priority, category Category) CategoryGroup {
	if group != "" {
		return group
	}
	if g, ok := priority.Group(); ok {
		return g
	}
	if priority != "" {
		return CategoryGroup(priority)
	}
	g, _ := GroupOf(category)
	return g
}
