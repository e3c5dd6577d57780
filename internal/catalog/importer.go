package catalog

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/finscholars/finscholars/internal/progression"
	"github.com/finscholars/finscholars/internal/quiz"
)

// Spreadsheet columns, in order.
const (
	colModuleID = iota
	colModuleTitle
	colLevel
	colKind
	colQuestion
	colOptionA
	colOptionB
	colOptionC
	colOptionD
	colCorrect
	colExplanation
	colSampleAnswer
	colKeyPoints
)

// ImportConfig selects the sheet to read.
type ImportConfig struct {
	SheetName  string // default "Sheet1"
	SkipHeader bool
}

// DefaultImportConfig reads Sheet1 and skips its header row.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{SheetName: "Sheet1", SkipHeader: true}
}

// ImportResult holds the modules built from a workbook and what was skipped.
type ImportResult struct {
	Modules []*Module
	Created int // questions imported
	Skipped int
	Errors  []string
}

// ImportFile reads quiz questions from an .xlsx workbook on disk.
func ImportFile(path string, cfg ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()
	return importRows(f, cfg)
}

// ImportWorkbook reads quiz questions from an .xlsx stream.
func ImportWorkbook(r io.Reader, cfg ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return importRows(f, cfg)
}

func importRows(f *excelize.File, cfg ImportConfig) (*ImportResult, error) {
	sheet := cfg.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	res := &ImportResult{}
	byID := make(map[string]*Module)
	counts := make(map[string]int)

	for i, row := range rows {
		if i == 0 && cfg.SkipHeader {
			continue
		}
		rowNum := i + 1
		if isBlankRow(row) {
			continue
		}

		moduleID := cell(row, colModuleID)
		level, err := progression.ParseLevel(cell(row, colLevel))
		if moduleID == "" || err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: missing module id or bad level %q", rowNum, cell(row, colLevel)))
			continue
		}

		m, ok := byID[moduleID]
		if !ok {
			title := cell(row, colModuleTitle)
			if title == "" {
				title = moduleID
			}
			m = &Module{ID: moduleID, Title: title}
			byID[moduleID] = m
			res.Modules = append(res.Modules, m)
		}
		lc := levelFor(m, level)

		key := moduleID + "/" + string(level)
		counts[key]++
		qid := fmt.Sprintf("%s-%s-q%d", moduleID, level, counts[key])

		q, err := questionFromRow(qid, row)
		if err == nil {
			err = q.Validate()
		}
		if err != nil {
			counts[key]--
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		if lc.Quiz == nil {
			lc.Quiz = &quiz.Quiz{
				ID:       fmt.Sprintf("%s-%s", moduleID, level),
				ModuleID: moduleID,
				Level:    string(level),
				Title:    fmt.Sprintf("%s - %s Level Quiz", m.Title, level.DisplayName()),
			}
		}
		lc.Quiz.Questions = append(lc.Quiz.Questions, q)
		res.Created++
	}

	sortLevels(res.Modules)
	return res, nil
}

func questionFromRow(id string, row []string) (quiz.Question, error) {
	prompt := cell(row, colQuestion)
	switch kind := strings.ToLower(cell(row, colKind)); kind {
	case "", "mcq":
		var options []string
		for c := colOptionA; c <= colOptionD; c++ {
			if o := cell(row, c); o != "" {
				options = append(options, o)
			}
		}
		letter := strings.ToLower(cell(row, colCorrect))
		if len(letter) != 1 || letter[0] < 'a' || letter[0] > 'd' {
			return quiz.Question{}, fmt.Errorf("correct option %q must be a letter A-D", cell(row, colCorrect))
		}
		return quiz.NewMultipleChoice(id, prompt, options, int(letter[0]-'a'), cell(row, colExplanation)), nil
	case "free_text", "free text", "text":
		var keyPoints []string
		for _, kp := range strings.Split(cell(row, colKeyPoints), ";") {
			if kp = strings.TrimSpace(kp); kp != "" {
				keyPoints = append(keyPoints, kp)
			}
		}
		return quiz.NewFreeText(id, prompt, cell(row, colSampleAnswer), keyPoints), nil
	default:
		return quiz.Question{}, fmt.Errorf("unknown question type %q", kind)
	}
}

// levelFor returns the module's content for level, adding it if absent.
func levelFor(m *Module, level progression.Level) *LevelContent {
	if lc, ok := m.Level(level); ok {
		return lc
	}
	m.Levels = append(m.Levels, LevelContent{Level: level})
	return &m.Levels[len(m.Levels)-1]
}

// sortLevels orders each module's levels by the default level sequence.
func sortLevels(modules []*Module) {
	rank := make(map[progression.Level]int)
	for i, l := range progression.DefaultLevelOrder() {
		rank[l] = i
	}
	for _, m := range modules {
		slices.SortStableFunc(m.Levels, func(a, b LevelContent) int {
			return rank[a.Level] - rank[b.Level]
		})
	}
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
