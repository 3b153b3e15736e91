// Package extract orchestrates field extraction across the pages of a
// handbook: per-page keyword matching, module segmentation, and
// accumulation of field values per module record.
package extract

import (
	"log"
	"strings"
	"sync"

	"github.com/hbkit/handbook-extract/internal/fieldspec"
	"github.com/hbkit/handbook-extract/internal/layout"
)

// ModuleRecord holds the extracted fields of one module. Fields absent
// from the module are omitted from the map. FieldOrder preserves the
// configured field order for deterministic output.
type ModuleRecord struct {
	ID         string
	Name       string
	FirstPage  int
	Fields     map[string]string
	FieldOrder []string
}

// fieldValue is one extracted field occurrence on a single page.
type fieldValue struct {
	name string
	text string
}

// pageMatches holds everything matched on one page. Matching is a pure
// function of the page, so pages can be processed in parallel; merging
// into module records happens strictly in page order.
type pageMatches struct {
	pageNumber  int
	moduleStart bool
	moduleID    string
	fields      []fieldValue
}

// Orchestrator runs the keyword locator, bounding-box calculator and
// field assembler over every page and groups the results into module
// records.
type Orchestrator struct {
	set     *fieldspec.Set
	calc    *layout.BoxCalculator
	asm     *layout.Assembler
	workers int
	debug   bool
}

// NewOrchestrator creates an orchestrator. workers selects how many
// pages are matched concurrently; values below 1 mean sequential.
func NewOrchestrator(set *fieldspec.Set, calc *layout.BoxCalculator, asm *layout.Assembler, workers int, debug bool) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		set:     set,
		calc:    calc,
		asm:     asm,
		workers: workers,
		debug:   debug,
	}
}

// Extract processes all pages and returns the module records in page
// order. An empty result is not an error: the document simply contained
// no module tables.
func (o *Orchestrator) Extract(pages []layout.Page) []ModuleRecord {
	matches := o.matchPages(pages)
	return o.mergeMatches(matches)
}

// matchPages runs per-page matching, concurrently when configured.
// The result slice is indexed by page position so the merge step sees
// pages in order regardless of worker scheduling.
func (o *Orchestrator) matchPages(pages []layout.Page) []pageMatches {
	results := make([]pageMatches, len(pages))

	if o.workers <= 1 || len(pages) <= 1 {
		for i := range pages {
			results[i] = o.matchPage(pages[i])
		}
		return results
	}

	indexCh := make(chan int)
	var wg sync.WaitGroup
	workers := o.workers
	if workers > len(pages) {
		workers = len(pages)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexCh {
				results[i] = o.matchPage(pages[i])
			}
		}()
	}
	for i := range pages {
		indexCh <- i
	}
	close(indexCh)
	wg.Wait()

	return results
}

// matchPage extracts every configured field present on a single page.
func (o *Orchestrator) matchPage(page layout.Page) pageMatches {
	result := pageMatches{pageNumber: page.Number}

	for i := range o.set.Fields {
		spec := &o.set.Fields[i]

		text, found := o.extractField(page, spec)
		if spec.Name == o.set.ModuleStart {
			// The keyword itself marks the module boundary. A record
			// opens even when the id cell next to it is empty.
			if found {
				result.moduleStart = true
				result.moduleID = text
			}
			continue
		}
		if !found || text == "" {
			continue
		}
		result.fields = append(result.fields, fieldValue{name: spec.Name, text: text})
	}

	return result
}

// extractField locates a field's keyword on the page, derives the value
// bounding box and assembles the contained text. The second return value
// is false when the keyword is absent, a normal condition; the returned
// text may be empty when the keyword is present but its box holds no
// fragments.
func (o *Orchestrator) extractField(page layout.Page, spec *fieldspec.FieldSpec) (string, bool) {
	var keyword layout.Fragment
	found := false
	for _, matcher := range spec.KeywordMatchers() {
		if frag, ok := layout.LocateKeyword(page, matcher); ok {
			keyword = frag
			found = true
			break
		}
	}
	if !found {
		return "", false
	}

	box, err := o.calc.Compute(page, keyword, spec.Orientation, spec.TerminatorMatchers())
	if err != nil {
		// Orientation is validated at config time; treat as absent.
		log.Printf("page %d: field %q: %v", page.Number, spec.Name, err)
		return "", false
	}
	if o.debug {
		log.Printf("page %d: field %q box (%.1f,%.1f)-(%.1f,%.1f)",
			page.Number, spec.Name, box.Left, box.Top, box.Right, box.Bottom)
	}

	return o.asm.Assemble(box, page.Fragments), true
}

// mergeMatches folds per-page matches into module records, in page
// order. A module-start match opens a new record; field matches attach
// to the currently open record. Fields found before any module start
// have no module to belong to and are dropped.
func (o *Orchestrator) mergeMatches(matches []pageMatches) []ModuleRecord {
	var records []ModuleRecord
	var current *ModuleRecord

	for i := range matches {
		m := &matches[i]

		if m.moduleStart {
			records = append(records, ModuleRecord{
				ID:        m.moduleID,
				FirstPage: m.pageNumber,
				Fields:    make(map[string]string),
			})
			current = &records[len(records)-1]
		} else if current == nil && len(m.fields) > 0 {
			log.Printf("no %q keyword found on page %d, skipping...", o.set.ModuleStartSpec().Keywords[0], m.pageNumber)
			continue
		}

		if current == nil {
			continue
		}
		for _, fv := range m.fields {
			if existing, ok := current.Fields[fv.name]; ok {
				current.Fields[fv.name] = existing + "\n" + fv.text
				continue
			}
			current.Fields[fv.name] = fv.text
			current.FieldOrder = append(current.FieldOrder, fv.name)
		}
	}

	for i := range records {
		o.finalizeRecord(&records[i])
	}
	return records
}

// finalizeRecord applies per-field post-processing and fills the
// record's display name.
func (o *Orchestrator) finalizeRecord(rec *ModuleRecord) {
	rec.ID = strings.TrimSpace(rec.ID)

	for i := range o.set.Fields {
		spec := &o.set.Fields[i]
		text, ok := rec.Fields[spec.Name]
		if !ok {
			continue
		}
		if spec.SplitSentences {
			rec.Fields[spec.Name] = strings.Join(SplitSentences(text), "\n")
		}
	}

	if name, ok := rec.Fields["name"]; ok {
		rec.Name = strings.TrimSpace(name)
	}
}
