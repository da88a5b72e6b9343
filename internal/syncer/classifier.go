package syncer

import (
	"strings"

	"ticketsync/internal/models"
)

// ReferralBackstage marks internally-issued orders (comps, door lists,
// physical tickets) as opposed to public sales.
const ReferralBackstage = "BACKSTAGE"

// ClassifierRules holds the keyword tables the classifier matches against.
// Producers author item names by hand, in mixed English and French, so the
// token lists grow over time; keeping them as data means extending coverage
// never touches the decision procedure.
type ClassifierRules struct {
	CoatcheckTokens []string
	TransferTokens  []string
	PromoterTokens  []string
	PhysicalTokens  []string
	PrepaidTokens   []string
	DoorTokens      []string
	CompTokens      []string
	GuestlistTokens []string
	TableTokens     []string
	TableCategories []string
	VIPCategories   []string
}

// DefaultRules returns the production keyword tables.
func DefaultRules() ClassifierRules {
	return ClassifierRules{
		CoatcheckTokens: []string{"VESTIA", "COAT CHECK", "COATCHECK", "COAT-CHECK"},
		TransferTokens:  []string{"TRANSFER", "TRANSFERT"},
		PromoterTokens:  []string{"PROMOTER", "PROMOTEUR", "PROMO REP"},
		PhysicalTokens:  []string{"BILLET PHYSIQUE", "PHYSIQUE", "PHYSICAL", "DOOR"},
		PrepaidTokens:   []string{"PREPAID", "PRE-PAID", "PREPAY"},
		DoorTokens:      []string{"PAY AT DOOR", "AT THE DOOR", "DOOR"},
		CompTokens:      []string{"COMP", "INVITE", "INVITATION"},
		GuestlistTokens: []string{"GUESTLIST", "GUEST LIST"},
		TableTokens:     []string{"BANQUETTE", "TABLE", "BOOTH"},
		TableCategories: []string{"TABLE", "BOOTH"},
		VIPCategories:   []string{"VIP", "PHOTO"},
	}
}

// Classifier maps a sale item to exactly one reporting category.
type Classifier struct {
	rules ClassifierRules
}

func NewClassifier(rules ClassifierRules) *Classifier {
	return &Classifier{rules: rules}
}

// Classify decides the reporting bucket for one sale item. Pure: depends only
// on the four inputs, never on check-in state. Missing inputs degrade to
// empty strings / zero; the result is always one of the sixteen categories.
//
// The checks below are ordered by priority and the first match wins. The
// ordering is load-bearing: names routinely match several keyword families at
// once ("BILLET PHYSIQUE - COMP TABLE"), and the overrides at the top must
// beat the price-based rules at the bottom.
func (c *Classifier) Classify(name, category, referralType string, gross float64) models.ReportingCategory {
	name = strings.ToUpper(strings.TrimSpace(name))
	category = strings.ToUpper(strings.TrimSpace(category))
	referralType = strings.ToUpper(strings.TrimSpace(referralType))

	// 1. Coatcheck: an OUTLET item named like a cloakroom is coatcheck no
	// matter what it costs or who issued it.
	if category == "OUTLET" && containsAny(name, c.rules.CoatcheckTokens) {
		return models.CategoryCoatcheck
	}

	// 2. Ticket transfers.
	if containsAny(name, c.rules.TransferTokens) {
		return models.CategoryTransferred
	}

	// 3. Promoter allocations.
	if containsAny(name, c.rules.PromoterTokens) {
		return models.CategoryPromoter
	}

	// 4. Physical / door tickets: internally issued, zero gross, and named
	// as a physical ticket.
	if referralType == ReferralBackstage && gross == 0 && containsAny(name, c.rules.PhysicalTokens) {
		isTable := containsAny(category, c.rules.TableCategories) || containsAny(name, c.rules.TableTokens)
		if isTable {
			// "prepaid" and "pay at door" phrasing overlaps; the explicit
			// has-A-and-not-B guards keep the two from double-matching.
			hasPrepaid := containsAny(name, c.rules.PrepaidTokens)
			hasDoor := containsAny(name, c.rules.DoorTokens)
			if hasDoor && !hasPrepaid {
				return models.CategoryPhysicalTableDoor
			}
			return models.CategoryPhysicalTablePre
		}
		if category == "GUESTLIST" || containsAny(name, c.rules.GuestlistTokens) {
			return models.CategoryPhysicalGuestlist
		}
		if containsAny(category, c.rules.VIPCategories) {
			return models.CategoryDoorVIP
		}
		return models.CategoryDoorGA
	}

	// 5. Comps: free and either named as a comp or internally issued.
	if gross == 0 && (containsAny(name, c.rules.CompTokens) || referralType == ReferralBackstage) {
		if containsAny(category, c.rules.VIPCategories) {
			return models.CategoryCompVIP
		}
		return models.CategoryCompGA
	}

	// 6. Free public tickets (RSVP). Category GUEST is the RSVP convention
	// and routes to the GA bucket.
	if gross == 0 && referralType != ReferralBackstage {
		if containsAny(category, c.rules.VIPCategories) {
			return models.CategoryFreeVIP
		}
		return models.CategoryFreeGA
	}

	// 7. Paid tables.
	if containsAny(category, c.rules.TableCategories) || strings.Contains(category, "BANQUETTE") {
		return models.CategoryTablesRSVP
	}

	// 8. Standard paid admission.
	if gross > 0 {
		if containsAny(category, c.rules.VIPCategories) {
			return models.CategoryVIPPaid
		}
		return models.CategoryGAPaid
	}

	// 9. Nothing matched; an explicit bucket, never an absence.
	return models.CategoryUncategorized
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
