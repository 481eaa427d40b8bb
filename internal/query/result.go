package query

// Hit is one ranked document returned for a term query.
type Hit struct {
	Location string  `json:"location"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
}

// Result is the JSON response body for a term query.
type Result struct {
	Term      string `json:"term"`
	TotalHits int    `json:"total_hits"`
	Hits      []Hit  `json:"hits"`
}
