package panels

// PanelID identifies a panel. Values are persisted as numbers and must not
// be renumbered.
type PanelID int

const (
	TradingStationPanel PanelID = iota
	SellSelectPanel
	BuySelectPanel
	TokenListSelectPanel
	RecipientListSelectPanel
	AgentListSelectPanel
	ErrorMessagePanel
	ManageSponsorshipsPanel
	AddSponsorshipPanel
	ConfigSponsorshipPanel
	RecipientSelectPanel
	PriceButton
	SwapButton
	SettingsPanel
	QRCodePanel
	LogPanel
)

// noParent marks a root panel.
const noParent PanelID = -1

// RadioGroup names a set of mutually exclusive panels.
type RadioGroup string

// MainOverlays holds the full-screen views stacked over the trading station.
const MainOverlays RadioGroup = "main-overlays"

type entry struct {
	name    string
	visible bool
	parent  PanelID
	group   RadioGroup
}

var registry = map[PanelID]entry{
	TradingStationPanel:      {"Trading Station", true, noParent, MainOverlays},
	SellSelectPanel:          {"Sell Select", true, TradingStationPanel, ""},
	BuySelectPanel:           {"Buy Select", true, TradingStationPanel, ""},
	TokenListSelectPanel:     {"Token List", false, noParent, MainOverlays},
	RecipientListSelectPanel: {"Recipient List", false, noParent, MainOverlays},
	AgentListSelectPanel:     {"Agent List", false, noParent, MainOverlays},
	ErrorMessagePanel:        {"Error Message", false, noParent, MainOverlays},
	ManageSponsorshipsPanel:  {"Manage Sponsorships", false, noParent, MainOverlays},
	AddSponsorshipPanel:      {"Add Sponsorship", false, TradingStationPanel, ""},
	ConfigSponsorshipPanel:   {"Config Sponsorship", false, AddSponsorshipPanel, ""},
	RecipientSelectPanel:     {"Recipient Select", false, AddSponsorshipPanel, ""},
	PriceButton:              {"Price Button", true, TradingStationPanel, ""},
	SwapButton:               {"Swap Button", false, TradingStationPanel, ""},
	SettingsPanel:            {"Settings", false, noParent, MainOverlays},
	QRCodePanel:              {"Account QR", false, noParent, MainOverlays},
	LogPanel:                 {"Debug Log", false, noParent, ""},
}

// order is the canonical seeding order.
var order = []PanelID{
	TradingStationPanel,
	SellSelectPanel,
	BuySelectPanel,
	TokenListSelectPanel,
	RecipientListSelectPanel,
	AgentListSelectPanel,
	ErrorMessagePanel,
	ManageSponsorshipsPanel,
	AddSponsorshipPanel,
	ConfigSponsorshipPanel,
	RecipientSelectPanel,
	PriceButton,
	SwapButton,
	SettingsPanel,
	QRCodePanel,
	LogPanel,
}

// All returns every known panel id in canonical order.
func All() []PanelID {
	return append([]PanelID(nil), order...)
}

// IsKnown reports whether id is in the registry.
func IsKnown(id PanelID) bool {
	_, ok := registry[id]
	return ok
}

// Name returns the human name for id, or a placeholder for unknown ids.
func Name(id PanelID) string {
	if e, ok := registry[id]; ok {
		return e.name
	}
	return "Unknown Panel"
}

func (id PanelID) String() string { return Name(id) }

// RadioGroupOf returns the group id belongs to, if any.
func RadioGroupOf(id PanelID) (RadioGroup, bool) {
	e, ok := registry[id]
	if !ok || e.group == "" {
		return "", false
	}
	return e.group, true
}

// Members lists the panels of group in canonical order.
func Members(group RadioGroup) []PanelID {
	var out []PanelID
	for _, id := range order {
		if registry[id].group == group {
			out = append(out, id)
		}
	}
	return out
}

// Parent returns the default parent of id.
func Parent(id PanelID) (PanelID, bool) {
	e, ok := registry[id]
	if !ok || e.parent == noParent {
		return 0, false
	}
	return e.parent, true
}
