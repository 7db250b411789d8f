// marginalia-bench is a benchmark and stress test for anchor resolution.
// It builds a large document, anchors comments across it, edits the document and
// measures how long each relocation strategy and render pass takes.
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/phroun/marginalia"
)

const (
	wordsPerParagraph = 80
	anchorLength      = 24
)

var vocabulary = strings.Fields(`anchor margin comment review paragraph sentence quoted
	context offset editor document resolve fuzzy window highlight scroll viewport author
	approved pending denied draft revision layout indicator span stable drift shift`)

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		if r.Extra != "" {
			return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec) %s", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec, r.Extra)
		}
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec)
	}
	if r.Extra != "" {
		return fmt.Sprintf("%-40s %12v  %s", r.Name, r.Duration.Round(time.Microsecond), r.Extra)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Microsecond))
}

var benchFlags struct {
	paragraphs int
	comments   int
	seed       uint64
}

func main() {
	cmd := &cobra.Command{
		Use:   "marginalia-bench",
		Short: "Benchmark anchor extraction, resolution and rendering",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			run(benchFlags.paragraphs, benchFlags.comments, benchFlags.seed)
		},
	}
	cmd.Flags().IntVar(&benchFlags.paragraphs, "paragraphs", 500, "number of paragraphs in the generated document")
	cmd.Flags().IntVar(&benchFlags.comments, "comments", 1000, "number of anchored comments")
	cmd.Flags().Uint64Var(&benchFlags.seed, "seed", 1, "random seed")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(paragraphs, comments int, seed uint64) {
	fmt.Println("Marginalia Benchmark and Stress Test")
	fmt.Println("====================================")
	fmt.Printf("Paragraphs: %d, comments: %d\n", paragraphs, comments)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Println()

	rng := rand.New(rand.NewPCG(seed, seed))

	var results []BenchResult
	runBench := func(name string, fn func() BenchResult) {
		fmt.Printf("  %-40s ", name+"...")
		result := fn()
		fmt.Printf("%v\n", result.Duration.Round(time.Microsecond))
		results = append(results, result)
	}

	var doc *marginalia.Document
	fmt.Println("Setup:")
	runBench("Generate document", func() BenchResult {
		start := time.Now()
		doc = generateDocument(rng, paragraphs)
		return BenchResult{
			Name:     "Generate document",
			Duration: time.Since(start),
			Extra:    fmt.Sprintf("%d runes", doc.RuneCount()),
		}
	})

	var anchored []marginalia.Comment
	runBench("Extract anchors", func() BenchResult {
		r, list := benchExtract(rng, doc, comments)
		anchored = list
		return r
	})

	resolver := marginalia.NewResolver(marginalia.ResolverOptions{})

	fmt.Println("\nResolution:")
	runBench("Resolve unchanged (exact offset)", func() BenchResult {
		return benchResolve("Resolve unchanged", resolver, doc, anchored)
	})

	shifted := cloneDocument(doc)
	if err := shifted.InsertText(0, "A new opening sentence pushes every anchor along. "); err != nil {
		fmt.Printf("Failed to edit document: %v\n", err)
		os.Exit(1)
	}
	runBench("Resolve shifted (quoted)", func() BenchResult {
		return benchResolve("Resolve shifted", resolver, shifted, anchored)
	})

	edited := cloneDocument(doc)
	mutateAnchors(edited, anchored)
	runBench("Resolve edited (fuzzy)", func() BenchResult {
		return benchResolve("Resolve edited", resolver, edited, anchored)
	})

	orphanDoc := marginalia.NewDocument(strings.Repeat("unrelated text ", doc.RuneCount()/15))
	runBench("Resolve orphaned (full scan)", func() BenchResult {
		return benchResolve("Resolve orphaned", resolver, orphanDoc, anchored[:min(len(anchored), 50)])
	})

	fmt.Println("\nRendering:")
	engine := marginalia.NewEngine(marginalia.EngineOptions{
		Layout: marginalia.TextLayoutOptions{Columns: 80},
	})
	runBench("Render pass (shifted document)", func() BenchResult {
		start := time.Now()
		frame := engine.Render(shifted, anchored)
		return BenchResult{
			Name:     "Render pass",
			Duration: time.Since(start),
			Ops:      len(anchored),
			Extra:    fmt.Sprintf("%d placements, %d orphaned", len(frame.Placements), len(frame.Orphaned)),
		}
	})

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	for _, r := range results {
		fmt.Println(r)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Println()
	fmt.Printf("Peak heap allocation: %d MB\n", m.HeapSys/(1024*1024))
	fmt.Printf("Total allocations: %d MB\n", m.TotalAlloc/(1024*1024))
}

func generateDocument(rng *rand.Rand, paragraphs int) *marginalia.Document {
	blocks := make([]string, paragraphs)
	words := make([]string, wordsPerParagraph)
	for i := range blocks {
		for j := range words {
			words[j] = vocabulary[rng.IntN(len(vocabulary))]
		}
		blocks[i] = fmt.Sprintf("%d. %s.", i+1, strings.Join(words, " "))
	}
	return marginalia.NewDocument(blocks...)
}

func cloneDocument(doc *marginalia.Document) *marginalia.Document {
	var blocks []string
	for leaf := range doc.Leaves() {
		blocks = append(blocks, leaf.Text)
	}
	return marginalia.NewDocument(blocks...)
}

func benchExtract(rng *rand.Rand, doc *marginalia.Document, n int) (BenchResult, []marginalia.Comment) {
	total := doc.RuneCount()
	comments := make([]marginalia.Comment, 0, n)

	if total <= anchorLength {
		return BenchResult{Name: "Extract anchors", Extra: "document too short"}, comments
	}

	start := time.Now()
	for i := 0; i < n; i++ {
		from := rng.IntN(total - anchorLength)
		rec, err := marginalia.ExtractRange(doc, from, from+anchorLength, marginalia.ExtractOptions{})
		if err != nil {
			continue
		}
		comments = append(comments, marginalia.Comment{
			ID:       fmt.Sprintf("c%d", i),
			AuthorID: fmt.Sprintf("user-%d", i%17),
			Anchor:   &rec,
		})
	}

	return BenchResult{
		Name:     "Extract anchors",
		Duration: time.Since(start),
		Ops:      len(comments),
	}, comments
}

// mutateAnchors replaces one rune near the middle of every tenth anchor's text so
// that those anchors can only be found by fuzzy matching.
func mutateAnchors(doc *marginalia.Document, comments []marginalia.Comment) {
	for i := 0; i < len(comments); i += 10 {
		a := comments[i].Anchor
		_ = doc.ReplaceText(a.Start+a.Len()/2, 1, "#")
	}
}

func benchResolve(name string, resolver *marginalia.Resolver, doc *marginalia.Document, comments []marginalia.Comment) BenchResult {
	counts := map[marginalia.Strategy]int{}

	start := time.Now()
	for _, res := range resolver.ResolveAll(comments, doc) {
		counts[res.Range.Strategy]++
	}
	duration := time.Since(start)

	return BenchResult{
		Name:     name,
		Duration: duration,
		Ops:      len(comments),
		Extra: fmt.Sprintf("exact=%d context=%d text=%d fuzzy=%d orphaned=%d",
			counts[marginalia.StrategyExactOffset],
			counts[marginalia.StrategyQuotedContext],
			counts[marginalia.StrategyQuotedText],
			counts[marginalia.StrategyFuzzy],
			counts[marginalia.StrategyNone]),
	}
}
