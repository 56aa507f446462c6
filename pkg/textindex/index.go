// Package textindex provides a dependency-free TF-IDF index over text
// chunks. It powers both codebase search (index a project folder, query in
// natural language) and conversation recall (index every message, retrieve
// relevant old turns).
package textindex

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Document is a single indexed chunk of text.
type Document struct {
	SourceID string   // originating file path or message ID
	Chunk    int      // line offset of the chunk within its source
	Text     string   // raw chunk text
	Tokens   []string // tokenized form, computed once at indexing time
}

// Result is a single search hit.
type Result struct {
	SourceID string  `json:"source_id"`
	Chunk    int     `json:"chunk"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// Index is a TF-IDF vector space over documents. The IDF table depends on
// the whole corpus, so it is recomputed whenever documents are added.
//
// An Index is not safe for concurrent use.
type Index struct {
	docs  []Document
	idf   map[string]float64
	built bool
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// Len returns the number of indexed documents (chunks).
func (ix *Index) Len() int {
	return len(ix.docs)
}

// IndexText adds arbitrary text to the index as overlapping line chunks of
// chunkLines lines with 50% overlap. Blank or tokenless chunks are skipped.
func (ix *Index) IndexText(sourceID, text string, chunkLines int) {
	ix.built = false
	ix.addChunks(sourceID, text, chunkLines)
	ix.buildIDF()
}

func (ix *Index) addChunks(sourceID, text string, chunkLines int) {
	if chunkLines < 1 {
		chunkLines = 1
	}
	step := chunkLines / 2
	if step < 1 {
		step = 1
	}

	lines := strings.Split(text, "\n")
	for start := 0; start < len(lines); start += step {
		end := start + chunkLines
		if end > len(lines) {
			end = len(lines)
		}
		chunkText := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(chunkText) == "" {
			continue
		}
		tokens := Tokenize(chunkText)
		if len(tokens) == 0 {
			continue
		}
		ix.docs = append(ix.docs, Document{
			SourceID: sourceID,
			Chunk:    start,
			Text:     chunkText,
			Tokens:   tokens,
		})
	}
}

// Search returns the topK most relevant chunks for a query, ranked by cosine
// similarity of TF-IDF vectors. Only strictly-positive scores are returned,
// deduplicated by (source, chunk). An empty query or an empty index yields
// an empty result, never an error.
func (ix *Index) Search(query string, topK int) []Result {
	if !ix.built {
		ix.buildIDF()
	}

	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	queryVec := ix.tfidfVector(termFrequencies(queryTokens))

	type scoredDoc struct {
		score float64
		idx   int
	}
	var scored []scoredDoc
	for i, doc := range ix.docs {
		docVec := ix.tfidfVector(termFrequencies(doc.Tokens))
		score := cosineSimilarity(queryVec, docVec)
		if score > 0 {
			scored = append(scored, scoredDoc{score: score, idx: i})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	var results []Result
	seen := make(map[string]bool)
	for _, s := range scored {
		if len(results) >= topK {
			break
		}
		doc := ix.docs[s.idx]
		key := doc.SourceID + ":" + strconv.Itoa(doc.Chunk)
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, Result{
			SourceID: doc.SourceID,
			Chunk:    doc.Chunk,
			Score:    math.Round(s.score*10000) / 10000,
			Text:     doc.Text,
		})
	}
	return results
}

// buildIDF recomputes the smoothed inverse document frequency table:
// idf(t) = ln((N+1)/(df+1)) + 1. Always positive, so a term present in
// every document still contributes, and an empty corpus yields no table.
func (ix *Index) buildIDF() {
	n := len(ix.docs)
	if n == 0 {
		ix.idf = nil
		ix.built = true
		return
	}

	docFreq := make(map[string]int)
	for _, doc := range ix.docs {
		unique := make(map[string]bool, len(doc.Tokens))
		for _, t := range doc.Tokens {
			unique[t] = true
		}
		for t := range unique {
			docFreq[t]++
		}
	}

	ix.idf = make(map[string]float64, len(docFreq))
	for t, df := range docFreq {
		ix.idf[t] = math.Log(float64(n+1)/float64(df+1)) + 1
	}
	ix.built = true
}

// tfidfVector weights term frequencies by IDF. Terms unknown to the corpus
// get zero weight and are dropped from the vector.
func (ix *Index) tfidfVector(tf map[string]int) map[string]float64 {
	vec := make(map[string]float64, len(tf))
	for t, count := range tf {
		if idf := ix.idf[t]; idf > 0 {
			vec[t] = float64(count) * idf
		}
	}
	return vec
}

func termFrequencies(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

// cosineSimilarity computes the normalized dot product of two sparse
// vectors. The dot product only touches shared terms; a zero norm on either
// side yields zero.
func cosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Iterate the smaller vector for the shared-term dot product.
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	var dot float64
	for t, v := range small {
		if w, ok := large[t]; ok {
			dot += v * w
		}
	}
	if dot == 0 {
		return 0
	}

	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
