package dto

// ETAResponse carries the estimated wait, in seconds, before a new submission
// at the location would be graded.
type ETAResponse struct {
	Location   string `json:"location"`
	ETASeconds int    `json:"eta"`
	CacheHit   bool   `json:"cache_hit"`
}
