// SPDX-License-Identifier: Apache-2.0

package definition

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sam-fredrickson/process"
)

// Loader finds definitions by name; it resolves `include` steps.
type Loader interface {
	Load(name string) (*Definition, error)
}

// FileLoader loads definitions from YAML files on disk.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches dirs, in order, for
// {name}.yaml or {name}.yml, directly or one directory level down.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load implements [Loader].
//
// A file that exists but does not parse is an error; it does not fall
// through to later directories.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			candidates := []string{filepath.Join(dir, name+ext)}
			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			candidates = append(candidates, matches...)
			for _, path := range candidates {
				if _, err := os.Stat(path); err != nil {
					continue
				}
				return LoadFile(path)
			}
		}
	}
	return nil, errors.Errorf("definition %q not found in %v", name, l.dirs)
}

// LoadFile reads and parses the definition stored at path.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading definition")
	}
	def, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return def, nil
}

// Parse decodes a YAML definition and checks its structure.
//
// Unknown fields are rejected. Structural problems, such as a missing name
// or switch key, are reported as errors matching
// [process.ErrInitialization].
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty definition")
		}
		return nil, errors.Wrap(err, "decoding definition")
	}
	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks the structure of def: it must be named, and every switch
// needs a key and options.
//
// It does not check that each step has exactly one kind, nor that operations
// and includes exist; [Build] does.
func Validate(def *Definition) error {
	err := getValidator().Struct(def)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validating definition")
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldPath(fe)+" "+describe(fe))
	}
	return &process.Error{
		Kind:    process.KindInitialization,
		Message: "invalid definition: " + strings.Join(messages, "; "),
	}
}

// fieldPath drops the root type name from the namespace:
// "Definition.steps[0].switch.key" becomes "steps[0].switch.key".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	default:
		return "is invalid"
	}
}
