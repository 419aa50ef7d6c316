package persist

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tang-isab/swimlane-chart/domain"
)

// ErrInvalidImport wraps every reason an import file is rejected.
var ErrInvalidImport = errors.New("invalid project file")

//go:embed project.schema.json
var projectSchemaJSON string

const projectSchemaURL = "project.schema.json"

var (
	projectSchemaOnce sync.Once
	projectSchema     *jsonschema.Schema
	projectSchemaErr  error
)

func compiledProjectSchema() (*jsonschema.Schema, error) {
	projectSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(projectSchemaURL, strings.NewReader(projectSchemaJSON)); err != nil {
			projectSchemaErr = err
			return
		}
		projectSchema, projectSchemaErr = compiler.Compile(projectSchemaURL)
	})
	return projectSchema, projectSchemaErr
}

// ExportFilename names the export file for the given day.
func ExportFilename(now time.Time) string {
	return "swimlane-project-" + now.UTC().Format("2006-01-02") + ".json"
}

// Export renders the board as an indented project file.
func Export(b *domain.Board, now time.Time) (string, []byte, error) {
	doc := domain.NewExportDocument(b, now)
	data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", nil, err
	}
	return ExportFilename(now), data, nil
}

// Import parses a project file. The file must be JSON with swimlanes and
// tasks arrays; weeks defaults to 9. Lane references are not checked.
func Import(data []byte) (*domain.Board, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidImport)
	}
	var raw any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	schema, err := compiledProjectSchema()
	if err != nil {
		return nil, fmt.Errorf("compile project schema: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidImport, describeSchemaError(err))
	}

	var doc domain.ExportDocument
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	b := &domain.Board{Weeks: doc.Weeks, Lanes: doc.Lanes, Tasks: doc.Tasks}
	b.Normalize()
	return b, nil
}

func describeSchemaError(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}
