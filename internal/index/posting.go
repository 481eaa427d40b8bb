package index

// DocumentRef is the read-mostly shared document reference stored in
// postings. A document matched by several terms is referenced by one
// DocumentRef from every bucket it landed in.
type DocumentRef struct {
	Location string `json:"location"`
	Title    string `json:"title"`
}

// Posting pairs a relevance score with the document it was computed for.
type Posting struct {
	Score float64      `json:"score"`
	Doc   *DocumentRef `json:"doc"`
}

// TermEntry is one term's postings in a snapshot.
type TermEntry struct {
	Term     string    `json:"term"`
	Postings []Posting `json:"postings"`
}

// byScoreDesc orders postings by descending score. Used with sort.Stable
// so equal scores keep their insertion order.
type byScoreDesc []Posting

func (p byScoreDesc) Len() int           { return len(p) }
func (p byScoreDesc) Less(i, j int) bool { return p[i].Score > p[j].Score }
func (p byScoreDesc) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
