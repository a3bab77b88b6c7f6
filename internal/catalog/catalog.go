// Package catalog holds the cleanup categories a user can pick from.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"mailsweep/internal/model"
	"mailsweep/internal/util"
)

var builtin = []model.Category{
	{
		ID:          "bizreach",
		Name:        "BizReach Job Notifications",
		Description: "Daily job recruitment emails",
		BaseQuery:   "from:noreply@bizreach.co.jp OR from:scout@bizreach.co.jp",
		Risk:        model.RiskLow,
	},
	{
		ID:          "promotions",
		Name:        "Promotional Emails",
		Description: "Marketing emails and newsletters",
		BaseQuery:   "category:promotions",
		Risk:        model.RiskLow,
	},
	{
		ID:          "social",
		Name:        "Social Notifications",
		Description: "Social media notifications",
		BaseQuery:   "category:social",
		Risk:        model.RiskMedium,
	},
	{
		ID:          "updates",
		Name:        "System Updates",
		Description: "Service notifications and updates",
		BaseQuery:   "category:updates",
		Risk:        model.RiskMedium,
	},
	{
		ID:          "noreply",
		Name:        "No-Reply Emails",
		Description: "Automated system emails",
		BaseQuery:   "from:noreply OR from:no-reply",
		Risk:        model.RiskMedium,
	},
}

// Catalog is an ordered, read-only set of categories keyed by id.
type Catalog struct {
	cats  []model.Category
	index map[string]int
}

// New validates cats and returns a catalog preserving their order.
func New(cats ...model.Category) (*Catalog, error) {
	c := &Catalog{
		cats:  make([]model.Category, 0, len(cats)),
		index: make(map[string]int, len(cats)),
	}
	for _, cat := range cats {
		if cat.ID == "" {
			return nil, fmt.Errorf("category %q: empty id", cat.Name)
		}
		if _, dup := c.index[cat.ID]; dup {
			return nil, fmt.Errorf("category %q: duplicate id", cat.ID)
		}
		if strings.TrimSpace(cat.BaseQuery) == "" {
			return nil, fmt.Errorf("category %q: empty query", cat.ID)
		}
		if !cat.Risk.Valid() {
			return nil, fmt.Errorf("category %q: unknown risk %q", cat.ID, cat.Risk)
		}
		if cat.Name == "" {
			cat.Name = cat.ID
		}
		c.index[cat.ID] = len(c.cats)
		c.cats = append(c.cats, cat)
	}
	return c, nil
}

// Default returns the built-in categories.
func Default() *Catalog {
	c, err := New(builtin...)
	if err != nil {
		panic(err)
	}
	return c
}

// WithRules returns the built-in categories followed by the given rules.
func WithRules(rules []SenderRule) (*Catalog, error) {
	cats := append([]model.Category(nil), builtin...)
	for _, r := range rules {
		cat, err := r.Category()
		if err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}
	return New(cats...)
}

// All returns the categories in catalog order.
func (c *Catalog) All() []model.Category {
	return append([]model.Category(nil), c.cats...)
}

func (c *Catalog) Len() int { return len(c.cats) }

func (c *Catalog) Lookup(id string) (model.Category, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.Category{}, false
	}
	return c.cats[i], true
}

// Validate reports every id that is not in the catalog.
func (c *Catalog) Validate(ids []string) error {
	var unknown []string
	for _, id := range ids {
		if _, ok := c.index[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown categories: %s", strings.Join(unknown, ", "))
}

// SenderRule is a user-defined category. Either Query is given verbatim or
// Senders lists addresses or domains that are OR-ed together.
type SenderRule struct {
	ID          string   `mapstructure:"id"`
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Query       string   `mapstructure:"query"`
	Senders     []string `mapstructure:"senders"`
	Risk        string   `mapstructure:"risk"`
}

func (r SenderRule) Category() (model.Category, error) {
	q := strings.TrimSpace(r.Query)
	if q == "" {
		var terms []string
		for _, s := range r.Senders {
			addr := util.SenderTerm(s)
			if addr == "" {
				return model.Category{}, fmt.Errorf("category %q: invalid sender %q", r.ID, s)
			}
			terms = append(terms, "from:"+addr)
		}
		q = strings.Join(terms, " OR ")
	}
	if q == "" {
		return model.Category{}, fmt.Errorf("category %q: needs a query or senders", r.ID)
	}
	risk := model.RiskLevel(strings.ToLower(r.Risk))
	if r.Risk == "" {
		risk = model.RiskMedium
	}
	return model.Category{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		BaseQuery:   q,
		Risk:        risk,
	}, nil
}
