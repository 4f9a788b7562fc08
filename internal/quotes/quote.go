package quotes

// Quote source values reported to clients.
const (
	SourceCache    = "cache"
	SourceUpstream = "upstream"
)

// Quote is a single price record as returned to clients.
type Quote struct {
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	ChangePrice float64 `json:"change_price"`
	ChangeRate  float64 `json:"change_rate"`
	Source      string  `json:"source"`
}
