package extract

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbkit/handbook-extract/internal/fieldspec"
	"github.com/hbkit/handbook-extract/internal/layout"
)

func frag(text string, left, top, right, bottom float64) layout.Fragment {
	return layout.Fragment{
		Text: text,
		Rect: layout.Rect{Left: left, Top: top, Right: right, Bottom: bottom},
	}
}

// testFieldSet builds a small row-oriented field set with values below
// their labels.
func testFieldSet(t *testing.T) *fieldspec.Set {
	t.Helper()

	set := &fieldspec.Set{
		ModuleStart: "id",
		Fields: []fieldspec.FieldSpec{
			{
				Name:        "id",
				Keywords:    []string{"Modulnummer"},
				Terminators: []string{"Lernziele"},
				Orientation: layout.OrientationBelow,
			},
			{
				Name:        "competencies",
				Keywords:    []string{"Lernziele/Kompetenzen"},
				Terminators: []string{"Voraussetzungen"},
				Orientation: layout.OrientationBelow,
			},
			{
				Name:        "requirements",
				Keywords:    []string{"Voraussetzungen"},
				Terminators: []string{"Niveaustufe"},
				Orientation: layout.OrientationBelow,
			},
		},
	}
	require.NoError(t, set.Compile())
	return set
}

func newTestOrchestrator(t *testing.T, set *fieldspec.Set, workers int) *Orchestrator {
	t.Helper()
	return NewOrchestrator(
		set,
		layout.NewBoxCalculator(1),
		layout.NewAssembler(0, 4),
		workers,
		false,
	)
}

// modulePage lays out one module table: a module number, a competencies
// row and the following row label.
func modulePage(number int, moduleID, competencies string) layout.Page {
	return layout.Page{
		Number: number,
		Width:  612,
		Height: 792,
		Fragments: []layout.Fragment{
			frag("Modulnummer", 10, 50, 90, 62),
			frag(moduleID, 10, 70, 50, 82),
			frag("Lernziele/Kompetenzen", 10, 100, 150, 112),
			frag(competencies, 10, 130, 180, 142),
			frag("Voraussetzungen", 10, 160, 110, 172),
		},
	}
}

func TestOrchestrator_SingleModule(t *testing.T) {
	set := testFieldSet(t)
	o := newTestOrchestrator(t, set, 1)

	records := o.Extract([]layout.Page{modulePage(1, "M101", "Communicates effectively")})

	require.Len(t, records, 1)
	assert.Equal(t, "M101", records[0].ID)
	assert.Equal(t, 1, records[0].FirstPage)
	assert.Equal(t, "Communicates effectively", records[0].Fields["competencies"])
}

func TestOrchestrator_NoTerminatorCollectsToPageBottom(t *testing.T) {
	set := testFieldSet(t)
	o := newTestOrchestrator(t, set, 1)

	// No "Voraussetzungen" row: everything below the keyword belongs to
	// the field.
	page := layout.Page{
		Number: 1,
		Width:  612,
		Height: 792,
		Fragments: []layout.Fragment{
			frag("Modulnummer", 10, 50, 90, 62),
			frag("M102", 10, 70, 50, 82),
			frag("Lernziele/Kompetenzen", 10, 100, 150, 112),
			frag("first part", 10, 130, 80, 142),
			frag("second part", 10, 700, 90, 712),
		},
	}

	records := o.Extract([]layout.Page{page})

	require.Len(t, records, 1)
	assert.Equal(t, "first part\nsecond part", records[0].Fields["competencies"])
}

func TestOrchestrator_TwoModulesAcrossTwoPages(t *testing.T) {
	set := testFieldSet(t)
	o := newTestOrchestrator(t, set, 1)

	pages := []layout.Page{
		modulePage(1, "M101", "First module skills"),
		modulePage(2, "M202", "Second module skills"),
	}

	records := o.Extract(pages)

	require.Len(t, records, 2)
	assert.Equal(t, "M101", records[0].ID)
	assert.Equal(t, "First module skills", records[0].Fields["competencies"])
	assert.Equal(t, "M202", records[1].ID)
	assert.Equal(t, "Second module skills", records[1].Fields["competencies"])
	// No bleed-through between modules.
	assert.NotContains(t, records[0].Fields["competencies"], "Second")
}

func TestOrchestrator_PageWithoutMatchesYieldsNothing(t *testing.T) {
	set := testFieldSet(t)
	o := newTestOrchestrator(t, set, 1)

	page := layout.Page{
		Number: 1,
		Width:  612,
		Height: 792,
		Fragments: []layout.Fragment{
			frag("Inhaltsverzeichnis", 10, 50, 120, 62),
			frag("Kapitel 1", 10, 100, 60, 112),
		},
	}

	records := o.Extract([]layout.Page{page})

	assert.Empty(t, records)
}

func TestOrchestrator_NoPages(t *testing.T) {
	set := testFieldSet(t)
	o := newTestOrchestrator(t, set, 1)

	assert.Empty(t, o.Extract(nil))
}

func TestOrchestrator_ModuleSpanningMultiplePages(t *testing.T) {
	set := testFieldSet(t)
	o := newTestOrchestrator(t, set, 1)

	continuation := layout.Page{
		Number: 2,
		Width:  612,
		Height: 792,
		Fragments: []layout.Fragment{
			frag("Lernziele/Kompetenzen", 10, 100, 150, 112),
			frag("continued skills", 10, 130, 120, 142),
			frag("Voraussetzungen", 10, 160, 110, 172),
		},
	}
	pages := []layout.Page{
		modulePage(1, "M101", "initial skills"),
		continuation,
	}

	records := o.Extract(pages)

	require.Len(t, records, 1)
	assert.Equal(t, "initial skills\ncontinued skills", records[0].Fields["competencies"])
}

func TestOrchestrator_FieldsBeforeFirstModuleDropped(t *testing.T) {
	set := testFieldSet(t)
	o := newTestOrchestrator(t, set, 1)

	var logBuf bytes.Buffer
	log.SetOutput(&logBuf)
	defer log.SetOutput(os.Stderr)

	orphan := layout.Page{
		Number: 1,
		Width:  612,
		Height: 792,
		Fragments: []layout.Fragment{
			frag("Lernziele/Kompetenzen", 10, 100, 150, 112),
			frag("orphan text", 10, 130, 90, 142),
		},
	}
	pages := []layout.Page{orphan, modulePage(2, "M101", "real skills")}

	records := o.Extract(pages)

	require.Len(t, records, 1)
	assert.Equal(t, "real skills", records[0].Fields["competencies"])
	// The diagnostic names the missing keyword, not the field name.
	assert.Contains(t, logBuf.String(), `"Modulnummer"`)
	assert.NotContains(t, logBuf.String(), `"id"`)
}

func TestOrchestrator_ModuleStartWithEmptyIDOpensNewRecord(t *testing.T) {
	set := testFieldSet(t)
	o := newTestOrchestrator(t, set, 1)

	// Page 2 carries a "Modulnummer" label whose cell holds no text
	// before the next row label. The label alone must still start a new
	// module so the second module's fields never attach to the first.
	emptyID := layout.Page{
		Number: 2,
		Width:  612,
		Height: 792,
		Fragments: []layout.Fragment{
			frag("Modulnummer", 10, 50, 90, 62),
			frag("Lernziele/Kompetenzen", 10, 100, 150, 112),
			frag("second module skills", 10, 130, 180, 142),
			frag("Voraussetzungen", 10, 160, 110, 172),
		},
	}
	pages := []layout.Page{
		modulePage(1, "M101", "first module skills"),
		emptyID,
	}

	records := o.Extract(pages)

	require.Len(t, records, 2)
	assert.Equal(t, "M101", records[0].ID)
	assert.Equal(t, "first module skills", records[0].Fields["competencies"])
	assert.NotContains(t, records[0].Fields["competencies"], "second")
	assert.Equal(t, "", records[1].ID)
	assert.Equal(t, 2, records[1].FirstPage)
	assert.Equal(t, "second module skills", records[1].Fields["competencies"])
}

func TestOrchestrator_AbsentFieldsOmitted(t *testing.T) {
	set := testFieldSet(t)
	o := newTestOrchestrator(t, set, 1)

	records := o.Extract([]layout.Page{modulePage(1, "M101", "skills")})

	require.Len(t, records, 1)
	_, hasRequirements := records[0].Fields["requirements"]
	assert.False(t, hasRequirements, "empty field must be omitted, not empty-string")
}

func TestOrchestrator_Idempotent(t *testing.T) {
	set := testFieldSet(t)
	o := newTestOrchestrator(t, set, 1)
	pages := []layout.Page{
		modulePage(1, "M101", "skills one"),
		modulePage(2, "M202", "skills two"),
	}

	first := o.Extract(pages)
	second := o.Extract(pages)

	assert.Equal(t, first, second)
}

func TestOrchestrator_ParallelMatchesSequential(t *testing.T) {
	set := testFieldSet(t)
	sequential := newTestOrchestrator(t, set, 1)
	parallel := newTestOrchestrator(t, set, 4)

	pages := make([]layout.Page, 0, 8)
	for i := 1; i <= 8; i++ {
		pages = append(pages, modulePage(i, "M10"+string(rune('0'+i)), "skills"))
	}

	assert.Equal(t, sequential.Extract(pages), parallel.Extract(pages))
}

func TestOrchestrator_SentenceSplittingApplied(t *testing.T) {
	set := &fieldspec.Set{
		ModuleStart: "id",
		Fields: []fieldspec.FieldSpec{
			{
				Name:        "id",
				Keywords:    []string{"Modulnummer"},
				Terminators: []string{"Lernziele"},
				Orientation: layout.OrientationBelow,
			},
			{
				Name:           "competencies",
				Keywords:       []string{"Lernziele/Kompetenzen"},
				Terminators:    []string{"Voraussetzungen"},
				Orientation:    layout.OrientationBelow,
				SplitSentences: true,
			},
		},
	}
	require.NoError(t, set.Compile())
	o := newTestOrchestrator(t, set, 1)

	records := o.Extract([]layout.Page{
		modulePage(1, "M101", "Writes code. Reviews designs."),
	})

	require.Len(t, records, 1)
	assert.Equal(t, "Writes code.\nReviews designs.", records[0].Fields["competencies"])
}

func TestOrchestrator_RecordNameFromNameField(t *testing.T) {
	set := &fieldspec.Set{
		ModuleStart: "id",
		Fields: []fieldspec.FieldSpec{
			{
				Name:        "id",
				Keywords:    []string{"Modulnummer"},
				Terminators: []string{"Titel"},
				Orientation: layout.OrientationBelow,
			},
			{
				Name:        "name",
				Keywords:    []string{"Titel"},
				Terminators: []string{"Lernziele"},
				Orientation: layout.OrientationBelow,
			},
		},
	}
	require.NoError(t, set.Compile())
	o := newTestOrchestrator(t, set, 1)

	page := layout.Page{
		Number: 1,
		Width:  612,
		Height: 792,
		Fragments: []layout.Fragment{
			frag("Modulnummer", 10, 50, 90, 62),
			frag("M101", 10, 70, 50, 82),
			frag("Titel", 10, 100, 40, 112),
			frag("Software Engineering", 10, 130, 150, 142),
			frag("Lernziele/Kompetenzen", 10, 160, 150, 172),
		},
	}

	records := o.Extract([]layout.Page{page})

	require.Len(t, records, 1)
	assert.Equal(t, "Software Engineering", records[0].Name)
}
