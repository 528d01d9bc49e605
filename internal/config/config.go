// Package config holds the static game data: cities, commodities, property
// tiers, rank tiers, the asset catalog, and tuning constants. Loaded once at
// startup and shared read-only across every engine.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var embeddedData []byte

// City is a market location the player can travel between.
type City struct {
	ID            string  `yaml:"id" json:"id"`
	Name          string  `yaml:"name" json:"name"`
	HeatModifier  float64 `yaml:"heat_modifier" json:"heat_modifier"`
	DistanceIndex int     `yaml:"distance_index" json:"distance_index"`
}

// Commodity is a tradeable good with a base price and volatility band.
type Commodity struct {
	ID         string  `yaml:"id" json:"id"`
	Name       string  `yaml:"name" json:"name"`
	BasePrice  int     `yaml:"base_price" json:"base_price"`
	Volatility float64 `yaml:"volatility" json:"volatility"`
}

// PropertyTier describes one level of a player-owned base.
// UpgradeCost of 0 means the tier is terminal.
type PropertyTier struct {
	Level        int    `yaml:"level" json:"level"`
	Name         string `yaml:"name" json:"name"`
	Cost         int    `yaml:"cost" json:"cost"`
	UpgradeCost  int    `yaml:"upgrade_cost" json:"upgrade_cost"`
	Income       int    `yaml:"income" json:"income"`
	GangRequired int    `yaml:"gang_required" json:"gang_required"`
	MaxInventory int    `yaml:"max_inventory" json:"max_inventory"`
	MaxSafe      int    `yaml:"max_safe" json:"max_safe"`
}

// RankTier is one rung of the progression ladder. Tiers are checked highest
// to lowest; the first tier whose thresholds are all met wins.
type RankTier struct {
	Level       int    `yaml:"level" json:"level"`
	Name        string `yaml:"name" json:"name"`
	MinNetWorth int    `yaml:"min_net_worth" json:"min_net_worth"`
	MinBases    int    `yaml:"min_bases" json:"min_bases"`
	MinGang     int    `yaml:"min_gang" json:"min_gang"`
	MinAssets   int    `yaml:"min_assets" json:"min_assets"`
}

// AssetType partitions the cosmetic asset catalog.
type AssetType string

const (
	AssetJewelry  AssetType = "jewelry"
	AssetCar      AssetType = "car"
	AssetProperty AssetType = "property"
)

// AssetCapacity is the storage a property asset grants.
type AssetCapacity struct {
	Jewelry int `yaml:"jewelry" json:"jewelry"`
	Cars    int `yaml:"cars" json:"cars"`
}

// AssetTemplate is a purchasable catalog entry. Owned instances copy these
// stats at purchase time.
type AssetTemplate struct {
	ID          string        `yaml:"id" json:"id"`
	Name        string        `yaml:"name" json:"name"`
	Type        AssetType     `yaml:"type" json:"type"`
	Cost        int           `yaml:"cost" json:"cost"`
	ResaleValue int           `yaml:"resale_value" json:"resale_value"`
	FlexScore   int           `yaml:"flex_score" json:"flex_score"`
	Capacity    AssetCapacity `yaml:"capacity" json:"capacity"`
}

// Tuning collects the numeric constants the engines share.
type Tuning struct {
	StartCity     string `yaml:"start_city"`
	StartingCash  int    `yaml:"starting_cash"`
	TicksPerDay   int    `yaml:"ticks_per_day"`
	AutosaveTicks int    `yaml:"autosave_ticks"`

	BaseTravelCost     int     `yaml:"base_travel_cost"`
	MaxTravelCost      int     `yaml:"max_travel_cost"`
	TravelCostPerStep  int     `yaml:"travel_cost_per_step"`
	RecruitCost        int     `yaml:"recruit_cost"`
	GunCost            int     `yaml:"gun_cost"`
	GunHeat            int     `yaml:"gun_heat"`
	GangValuation      int     `yaml:"gang_valuation"`
	BaseGoodwill       int     `yaml:"base_goodwill"`
	LargePurchaseQty   int     `yaml:"large_purchase_qty"`
	LargePurchaseHeat  int     `yaml:"large_purchase_heat"`
	SupplyCap          int     `yaml:"supply_cap"`
	IncomeDrugBonus    float64 `yaml:"income_drug_bonus"`
	RealtimeSaleRate   float64 `yaml:"realtime_sale_rate"`
	RealtimeMarkup     float64 `yaml:"realtime_markup"`
	RaidCooldownHours  int     `yaml:"raid_cooldown_hours"`
	RaidRankRequired   int     `yaml:"raid_rank_required"`
	BaseJewelryStorage int     `yaml:"base_jewelry_storage"`
	BaseCarStorage     int     `yaml:"base_car_storage"`
}

// Config is the full static configuration.
type Config struct {
	Cities      []City          `yaml:"cities"`
	Commodities []Commodity     `yaml:"commodities"`
	Tiers       []PropertyTier  `yaml:"property_tiers"`
	Ranks       []RankTier      `yaml:"rank_tiers"`
	Assets      []AssetTemplate `yaml:"assets"`
	Tuning      Tuning          `yaml:"tuning"`

	cityIndex      map[string]*City
	commodityIndex map[string]*Commodity
	tierIndex      map[int]*PropertyTier
	assetIndex     map[string]*AssetTemplate
}

// Load parses the embedded game data.
func Load() (*Config, error) {
	return parse(embeddedData)
}

// LoadFile parses game data from an external YAML file (overrides).
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(raw)
}

func parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("game data: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("game data: %w", err)
	}
	c.buildIndexes()
	return &c, nil
}

func (c *Config) validate() error {
	if len(c.Cities) == 0 {
		return fmt.Errorf("no cities defined")
	}
	if len(c.Commodities) == 0 {
		return fmt.Errorf("no commodities defined")
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("no property tiers defined")
	}
	if len(c.Ranks) == 0 {
		return fmt.Errorf("no rank tiers defined")
	}
	for _, city := range c.Cities {
		if city.HeatModifier <= 0 {
			return fmt.Errorf("city %s: heat modifier must be positive", city.ID)
		}
	}
	for _, com := range c.Commodities {
		if com.BasePrice <= 0 {
			return fmt.Errorf("commodity %s: base price must be positive", com.ID)
		}
		if com.Volatility < 0 || com.Volatility > 2 {
			return fmt.Errorf("commodity %s: volatility out of range", com.ID)
		}
	}
	for i, tier := range c.Tiers {
		if tier.Level != i+1 {
			return fmt.Errorf("property tiers must be contiguous from level 1")
		}
		if tier.MaxInventory <= 0 || tier.MaxSafe <= 0 {
			return fmt.Errorf("tier %d: capacities must be positive", tier.Level)
		}
	}
	last := c.Tiers[len(c.Tiers)-1]
	if last.UpgradeCost != 0 {
		return fmt.Errorf("top tier must have no upgrade cost")
	}
	startOK := false
	for _, city := range c.Cities {
		if city.ID == c.Tuning.StartCity {
			startOK = true
			break
		}
	}
	if !startOK {
		return fmt.Errorf("start city %q not defined", c.Tuning.StartCity)
	}
	return nil
}

func (c *Config) buildIndexes() {
	c.cityIndex = make(map[string]*City, len(c.Cities))
	for i := range c.Cities {
		c.cityIndex[c.Cities[i].ID] = &c.Cities[i]
	}
	c.commodityIndex = make(map[string]*Commodity, len(c.Commodities))
	for i := range c.Commodities {
		c.commodityIndex[c.Commodities[i].ID] = &c.Commodities[i]
	}
	c.tierIndex = make(map[int]*PropertyTier, len(c.Tiers))
	for i := range c.Tiers {
		c.tierIndex[c.Tiers[i].Level] = &c.Tiers[i]
	}
	c.assetIndex = make(map[string]*AssetTemplate, len(c.Assets))
	for i := range c.Assets {
		c.assetIndex[c.Assets[i].ID] = &c.Assets[i]
	}
}

// CityByID looks up a city. Returns nil for unknown IDs.
func (c *Config) CityByID(id string) *City { return c.cityIndex[id] }

// CommodityByID looks up a commodity. Returns nil for unknown IDs.
func (c *Config) CommodityByID(id string) *Commodity { return c.commodityIndex[id] }

// Tier looks up a property tier by level. Returns nil for unknown levels.
func (c *Config) Tier(level int) *PropertyTier { return c.tierIndex[level] }

// AssetByID looks up a catalog asset. Returns nil for unknown IDs.
func (c *Config) AssetByID(id string) *AssetTemplate { return c.assetIndex[id] }

// TopTier reports the highest property tier level.
func (c *Config) TopTier() int { return c.Tiers[len(c.Tiers)-1].Level }

// PerCommodityCap is the per-commodity storage bound inside a base:
// the tier's aggregate capacity split evenly across all commodities.
func (c *Config) PerCommodityCap(tier *PropertyTier) int {
	return tier.MaxInventory / len(c.Commodities)
}
