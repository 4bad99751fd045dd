package domain

// AssetClass is a coarse asset category driving class-specific thresholds
// for minimum profit, the believable profit ceiling, and score bonuses.
type AssetClass string

const (
	ClassStablecoin     AssetClass = "stablecoin"
	ClassMajor          AssetClass = "major"
	ClassDeFi           AssetClass = "defi"
	ClassLayer1         AssetClass = "layer1"
	ClassLayer2         AssetClass = "layer2"
	ClassInfrastructure AssetClass = "infrastructure"
	ClassAltcoin        AssetClass = "altcoin"
	// ClassUnknown is returned for symbols that have no profile. Unknown
	// assets fall back to the global default thresholds and skip the
	// price-band check entirely.
	ClassUnknown AssetClass = "unknown"
)

// AssetProfile maps one symbol to its class and a plausible USD price band.
// A price outside [MinPrice, MaxPrice] is treated as bad data by the
// anomaly filter.
type AssetProfile struct {
	Symbol   string
	Class    AssetClass
	MinPrice float64
	MaxPrice float64
}

// ClassPolicy holds the per-class tunables: the minimum gross profit worth
// acting on, the maximum believable profit rate, and the score bonus the
// filter grants the class.
type ClassPolicy struct {
	MinProfitPct float64
	MaxProfitPct float64
	ScoreBonus   float64
}

// ProfileTable resolves symbols to profiles and classes to policies.
// Lookups are case-insensitive. The table is immutable after construction.
type ProfileTable struct {
	profiles map[string]AssetProfile
	policies map[AssetClass]ClassPolicy
	fallback ClassPolicy
}

// NewProfileTable builds a ProfileTable. fallback is the policy applied to
// classes (including ClassUnknown) that have no entry in policies.
func NewProfileTable(profiles []AssetProfile, policies map[AssetClass]ClassPolicy, fallback ClassPolicy) *ProfileTable {
	t := &ProfileTable{
		profiles: make(map[string]AssetProfile, len(profiles)),
		policies: make(map[AssetClass]ClassPolicy, len(policies)),
		fallback: fallback,
	}
	for _, p := range profiles {
		p.Symbol = NormalizeAsset(p.Symbol)
		t.profiles[p.Symbol] = p
	}
	for class, pol := range policies {
		t.policies[class] = pol
	}
	return t
}

// Lookup returns the profile for a symbol. The second return value is false
// for unmapped symbols; the returned profile then carries ClassUnknown and
// an empty price band.
func (t *ProfileTable) Lookup(symbol string) (AssetProfile, bool) {
	norm := NormalizeAsset(symbol)
	if p, ok := t.profiles[norm]; ok {
		return p, true
	}
	return AssetProfile{Symbol: norm, Class: ClassUnknown}, false
}

// Policy returns the policy for a class, falling back to the global default
// when the class has no explicit entry.
func (t *ProfileTable) Policy(class AssetClass) ClassPolicy {
	if pol, ok := t.policies[class]; ok {
		return pol
	}
	return t.fallback
}

// DefaultProfiles is the built-in symbol table. Price bands are deliberately
// wide: they exist to reject implausible feed data, not to track the market.
func DefaultProfiles() []AssetProfile {
	return []AssetProfile{
		{Symbol: "USDT", Class: ClassStablecoin, MinPrice: 0.90, MaxPrice: 1.10},
		{Symbol: "USDC", Class: ClassStablecoin, MinPrice: 0.90, MaxPrice: 1.10},
		{Symbol: "DAI", Class: ClassStablecoin, MinPrice: 0.90, MaxPrice: 1.10},
		{Symbol: "BUSD", Class: ClassStablecoin, MinPrice: 0.90, MaxPrice: 1.10},

		{Symbol: "BTC", Class: ClassMajor, MinPrice: 10_000, MaxPrice: 500_000},
		{Symbol: "WBTC", Class: ClassMajor, MinPrice: 10_000, MaxPrice: 500_000},
		{Symbol: "ETH", Class: ClassMajor, MinPrice: 500, MaxPrice: 20_000},
		{Symbol: "WETH", Class: ClassMajor, MinPrice: 500, MaxPrice: 20_000},

		{Symbol: "UNI", Class: ClassDeFi, MinPrice: 1, MaxPrice: 100},
		{Symbol: "AAVE", Class: ClassDeFi, MinPrice: 20, MaxPrice: 1_000},
		{Symbol: "CRV", Class: ClassDeFi, MinPrice: 0.1, MaxPrice: 20},
		{Symbol: "SUSHI", Class: ClassDeFi, MinPrice: 0.1, MaxPrice: 50},

		{Symbol: "SOL", Class: ClassLayer1, MinPrice: 5, MaxPrice: 1_000},
		{Symbol: "AVAX", Class: ClassLayer1, MinPrice: 2, MaxPrice: 500},
		{Symbol: "BNB", Class: ClassLayer1, MinPrice: 50, MaxPrice: 5_000},
		{Symbol: "ADA", Class: ClassLayer1, MinPrice: 0.1, MaxPrice: 10},

		{Symbol: "MATIC", Class: ClassLayer2, MinPrice: 0.05, MaxPrice: 10},
		{Symbol: "ARB", Class: ClassLayer2, MinPrice: 0.1, MaxPrice: 20},
		{Symbol: "OP", Class: ClassLayer2, MinPrice: 0.1, MaxPrice: 20},

		{Symbol: "LINK", Class: ClassInfrastructure, MinPrice: 2, MaxPrice: 200},
		{Symbol: "GRT", Class: ClassInfrastructure, MinPrice: 0.01, MaxPrice: 10},
		{Symbol: "FIL", Class: ClassInfrastructure, MinPrice: 1, MaxPrice: 200},

		{Symbol: "DOGE", Class: ClassAltcoin, MinPrice: 0.01, MaxPrice: 5},
		{Symbol: "SHIB", Class: ClassAltcoin, MinPrice: 0.000001, MaxPrice: 0.01},
	}
}
