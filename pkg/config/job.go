// Package config loads host job files. A job describes the source query, the script and its parameters,
// the number of tasks rows are partitioned into and the sink results are written to.
// Job files are yaml or toml, chosen by the file extension.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/umputun/lext/pkg/wire"
)

// default names of the input and output data sets and batch size
const (
	DefaultInput  = "InputDataSet"
	DefaultOutput = "OutputDataSet"
	DefaultBatch  = 1000
)

// sink kinds
const (
	SinkLog   = "log"
	SinkArrow = "arrow"
	SinkTable = "table"
)

// Job defines the top-level job file object
type Job struct {
	Runtime     Runtime `yaml:"runtime" toml:"runtime"`           // extension init settings
	Source      Source  `yaml:"source" toml:"source"`             // rows to process
	Script      string  `yaml:"script" toml:"script"`             // inline script
	ScriptFile  string  `yaml:"script_file" toml:"script_file"`   // script file or url, relative to the job file
	Input       string  `yaml:"input" toml:"input"`               // name the input table is bound to
	Output      string  `yaml:"output" toml:"output"`             // name the output table is read from
	Params      []Param `yaml:"params" toml:"params"`             // session parameters
	Tasks       int     `yaml:"tasks" toml:"tasks"`               // number of partitions
	PartitionBy string  `yaml:"partition_by" toml:"partition_by"` // partition column, round-robin if empty
	Sink        Sink    `yaml:"sink" toml:"sink"`                 // results destination

	secrets         map[string]string
	secretsProvider SecretsProvider
}

// Runtime defines how the extension is initialized
type Runtime struct {
	Params      string   `yaml:"params" toml:"params"`             // key=value;... extension parameters
	Home        string   `yaml:"home" toml:"home"`                 // runtime home, LEXT_HOME if empty
	PublicLibs  []string `yaml:"public_libs" toml:"public_libs"`   // public library paths
	PrivateLibs []string `yaml:"private_libs" toml:"private_libs"` // private library paths
	Concurrency int      `yaml:"concurrency" toml:"concurrency"`   // tasks running at the same time, all if 0
}

// Source defines the query rows are read with
type Source struct {
	DSN     string         `yaml:"dsn" toml:"dsn"`         // connection string, may have {{secret:key}} placeholders
	Query   string         `yaml:"query" toml:"query"`     // select statement
	Batch   int            `yaml:"batch" toml:"batch"`     // rows per Execute call
	Columns []ColumnOption `yaml:"columns" toml:"columns"` // column type overrides
}

// ColumnOption overrides the data type detected for a source column
type ColumnOption struct {
	Name string `yaml:"name" toml:"name"`
	Type string `yaml:"type" toml:"type"`
}

// Param defines a session parameter
type Param struct {
	Name      string `yaml:"name" toml:"name"`           // parameter name, with leading @
	Type      string `yaml:"type" toml:"type"`           // data type name, e.g. int64 or char
	Size      int    `yaml:"size" toml:"size"`           // declared size, for char types max length
	Direction string `yaml:"direction" toml:"direction"` // in, inout or out, in if empty
	Value     any    `yaml:"value" toml:"value"`         // input value, null if not set
}

// Sink defines where results go
type Sink struct {
	Kind  string `yaml:"kind" toml:"kind"`   // log, arrow or table
	Path  string `yaml:"path" toml:"path"`   // arrow file
	DSN   string `yaml:"dsn" toml:"dsn"`     // table sink database, may have {{secret:key}} placeholders
	Table string `yaml:"table" toml:"table"` // table sink table, created if missing
}

// Overrides defines values passed from the command line, non-empty values replace the job's ones
type Overrides struct {
	Tasks  int
	Params string
	Sink   string
	Out    string
}

//go:generate moq -out mocks/secrets.go -pkg mocks -skip-ensure -fmt goimports . SecretsProvider

// SecretsProvider defines interface for secrets providers
type SecretsProvider interface {
	Get(key string) (string, error)
}

var secretRe = regexp.MustCompile(`\{\{\s*secret:([^}\s]+)\s*\}\}`)

// Load reads and validates the job file, resolves script file and secrets.
// The provider is used for {{secret:key}} placeholders, can be nil if the job has none.
func Load(fname string, overrides *Overrides, secProvider SecretsProvider) (*Job, error) {
	log.Printf("[DEBUG] request to load job %q", fname)
	data, err := os.ReadFile(fname) //nolint:gosec // job file set by user
	if err != nil {
		return nil, fmt.Errorf("can't read job file: %w", err)
	}

	res := &Job{secretsProvider: secProvider, secrets: map[string]string{}}
	if err = unmarshalJobFile(fname, data, res); err != nil {
		return nil, fmt.Errorf("can't unmarshal job: %w", err)
	}
	res.applyOverrides(overrides)
	res.setDefaults()

	if res.Script != "" && res.ScriptFile != "" {
		return nil, fmt.Errorf("job %s is invalid: only one of script and script_file can be set", fname)
	}
	if res.ScriptFile != "" {
		loc := res.ScriptFile
		if !strings.HasPrefix(loc, "http") && !filepath.IsAbs(loc) {
			loc = filepath.Join(filepath.Dir(fname), loc)
		}
		if res.Script, err = readScript(loc); err != nil {
			return nil, err
		}
	}

	if err = res.checkConfig(); err != nil {
		return nil, fmt.Errorf("job %s is invalid: %w", fname, err)
	}
	if err = res.loadSecrets(); err != nil {
		return nil, err
	}

	log.Printf("[INFO] job loaded, %d tasks, %d params, sink %s", res.Tasks, len(res.Params), res.Sink.Kind)
	return res, nil
}

func unmarshalJobFile(fname string, data []byte, res *Job) error {
	switch {
	case strings.HasSuffix(fname, ".yml") || strings.HasSuffix(fname, ".yaml") || !strings.Contains(filepath.Base(fname), "."):
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true) // strict mode, fail on unknown fields
		if err := dec.Decode(res); err != nil {
			return fmt.Errorf("can't unmarshal yaml job %s: %w", fname, err)
		}
	case strings.HasSuffix(fname, ".toml"):
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(res); err != nil {
			return fmt.Errorf("can't unmarshal toml job %s: %w", fname, err)
		}
	default:
		return fmt.Errorf("unknown config format %s", fname)
	}
	return nil
}

// readScript loads the script from a file or url
func readScript(loc string) (string, error) {
	reader := func(loc string) (io.ReadCloser, error) {
		if strings.HasPrefix(loc, "http") {
			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Get(loc) //nolint:noctx // one-shot load at startup
			if err != nil {
				return nil, fmt.Errorf("can't get script from http %s: %w", loc, err)
			}
			if resp.StatusCode != http.StatusOK {
				_ = resp.Body.Close()
				return nil, fmt.Errorf("can't get script from http %s, status: %s", loc, resp.Status)
			}
			return resp.Body, nil
		}
		f, err := os.Open(loc) //nolint:gosec // script file set by user
		if err != nil {
			return nil, fmt.Errorf("can't open script file %s: %w", loc, err)
		}
		return f, nil
	}

	rdr, err := reader(loc)
	if err != nil {
		return "", err
	}
	defer rdr.Close() //nolint

	data, err := io.ReadAll(rdr)
	if err != nil {
		return "", fmt.Errorf("can't read script %s: %w", loc, err)
	}
	log.Printf("[DEBUG] script loaded from %s, %d bytes", loc, len(data))
	return string(data), nil
}

func (j *Job) applyOverrides(o *Overrides) {
	if o == nil {
		return
	}
	if o.Tasks > 0 {
		j.Tasks = o.Tasks
	}
	if o.Params != "" {
		j.Runtime.Params = o.Params
	}
	if o.Sink != "" {
		j.Sink.Kind = o.Sink
	}
	if o.Out != "" {
		j.Sink.Path = o.Out
	}
}

func (j *Job) setDefaults() {
	if j.Input == "" {
		j.Input = DefaultInput
	}
	if j.Output == "" {
		j.Output = DefaultOutput
	}
	if j.Tasks == 0 {
		j.Tasks = 1
	}
	if j.Source.Batch == 0 {
		j.Source.Batch = DefaultBatch
	}
	if j.Sink.Kind == "" {
		j.Sink.Kind = SinkLog
	}
}

// checkConfig validates the job, collecting all found problems
func (j *Job) checkConfig() error {
	errs := new(multierror.Error)

	if j.Script == "" {
		errs = multierror.Append(errs, fmt.Errorf("script or script_file is required"))
	}
	if j.Source.DSN == "" || j.Source.Query == "" {
		errs = multierror.Append(errs, fmt.Errorf("source dsn and query are required"))
	}
	if j.Source.Batch < 0 {
		errs = multierror.Append(errs, fmt.Errorf("negative batch size %d", j.Source.Batch))
	}
	if j.Tasks < 0 {
		errs = multierror.Append(errs, fmt.Errorf("negative number of tasks %d", j.Tasks))
	}
	if j.Runtime.Concurrency < 0 {
		errs = multierror.Append(errs, fmt.Errorf("negative concurrency %d", j.Runtime.Concurrency))
	}
	for _, c := range j.Source.Columns {
		if _, err := wire.ParseDataType(c.Type); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("column %q: %w", c.Name, err))
		}
	}

	names := map[string]bool{}
	for i, p := range j.Params {
		if names[p.Name] {
			errs = multierror.Append(errs, fmt.Errorf("duplicate parameter %q", p.Name))
		}
		names[p.Name] = true
		if _, _, err := p.Wire(i); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	switch j.Sink.Kind {
	case SinkLog:
	case SinkArrow:
		if j.Sink.Path == "" {
			errs = multierror.Append(errs, fmt.Errorf("arrow sink requires path"))
		}
	case SinkTable:
		if j.Sink.DSN == "" || j.Sink.Table == "" {
			errs = multierror.Append(errs, fmt.Errorf("table sink requires dsn and table"))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown sink kind %q", j.Sink.Kind))
	}

	return errs.ErrorOrNil()
}

// loadSecrets replaces {{secret:key}} placeholders in dsn fields with values from the provider
func (j *Job) loadSecrets() error {
	var keys []string
	for _, s := range []string{j.Source.DSN, j.Sink.DSN} {
		for _, m := range secretRe.FindAllStringSubmatch(s, -1) {
			keys = append(keys, m[1])
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if j.secretsProvider == nil {
		return fmt.Errorf("secrets are used in job (%d secrets), but provider is not set", len(keys))
	}

	for _, key := range keys {
		if _, ok := j.secrets[key]; ok {
			continue
		}
		val, err := j.secretsProvider.Get(key)
		if err != nil {
			return fmt.Errorf("can't get secret %q: %w", key, err)
		}
		j.secrets[key] = val
	}

	resolve := func(s string) string {
		return secretRe.ReplaceAllStringFunc(s, func(m string) string {
			return j.secrets[secretRe.FindStringSubmatch(m)[1]]
		})
	}
	j.Source.DSN = resolve(j.Source.DSN)
	j.Sink.DSN = resolve(j.Sink.DSN)
	log.Printf("[DEBUG] %d secrets resolved", len(j.secrets))
	return nil
}

// AllSecretValues returns all resolved secret values, used to mask secrets in logs
func (j *Job) AllSecretValues() []string {
	res := make([]string, 0, len(j.secrets))
	for _, v := range j.secrets {
		res = append(res, v)
	}
	sort.Strings(res)
	return res
}

// ColumnType returns the overridden data type of the source column
func (j *Job) ColumnType(name string) (wire.DataType, bool) {
	for _, c := range j.Source.Columns {
		if strings.EqualFold(c.Name, name) {
			typ, err := wire.ParseDataType(c.Type)
			return typ, err == nil
		}
	}
	return 0, false
}
